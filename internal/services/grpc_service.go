package services

import (
	"context"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/miradorstack/mirador-shiftreport/internal/api"
	"github.com/miradorstack/mirador-shiftreport/internal/models"
)

// GRPCService implements the ShiftReports RPC surface on top of ReportService.
type GRPCService struct {
	logger  *slog.Logger
	reports *ReportService
}

var _ api.ShiftReportsServer = (*GRPCService)(nil)

// NewGRPCService constructs the RPC facade.
func NewGRPCService(logger *slog.Logger, reports *ReportService) *GRPCService {
	if logger == nil {
		logger = slog.Default()
	}
	return &GRPCService{logger: logger, reports: reports}
}

// IngestShift stores a snapshot document.
func (g *GRPCService) IngestShift(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var snap models.ShiftSnapshot
	if err := api.FromStruct(req, &snap); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	result, err := g.reports.IngestShift(ctx, snap)
	if err != nil {
		return nil, api.StatusFromError(err)
	}
	return respond(result)
}

// GetShift returns a snapshot by {date, shift}.
func (g *GRPCService) GetShift(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	date, shift, err := dateShift(req)
	if err != nil {
		return nil, err
	}
	snap, err := g.reports.GetShift(ctx, date, shift)
	if err != nil {
		return nil, api.StatusFromError(err)
	}
	return respond(snap)
}

// GetDailyAggregate recomputes and returns the aggregate for {date}.
func (g *GRPCService) GetDailyAggregate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	date, err := api.StringField(req, "date")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	agg, err := g.reports.DailyAggregate(ctx, date)
	if err != nil {
		return nil, api.StatusFromError(err)
	}
	return respond(agg)
}

// ListDailyAggregates returns {items: [...]}.
func (g *GRPCService) ListDailyAggregates(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	aggs, err := g.reports.ListAggregates(ctx)
	if err != nil {
		return nil, api.StatusFromError(err)
	}
	return respondItems(aggs)
}

// GetDailyTable returns the component-keyed table.
func (g *GRPCService) GetDailyTable(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	table, err := g.reports.DailyTable(ctx)
	if err != nil {
		return nil, api.StatusFromError(err)
	}
	return respond(table)
}

// ListMonthlyGroups returns {items: [...]}.
func (g *GRPCService) ListMonthlyGroups(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	groups, err := g.reports.MonthlyGroups(ctx)
	if err != nil {
		return nil, api.StatusFromError(err)
	}
	return respondItems(groups)
}

// GetComponentUsage filters {component} between {start_date} and {end_date}.
func (g *GRPCService) GetComponentUsage(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var fields [3]string
	for i, name := range []string{"start_date", "end_date", "component"} {
		v, err := api.StringField(req, name)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		fields[i] = v
	}
	usage, err := g.reports.ComponentUsage(ctx, fields[0], fields[1], fields[2])
	if err != nil {
		return nil, api.StatusFromError(err)
	}
	return respondItems(usage)
}

// ExportReport renders {kind: shift|daily|monthly} and returns {path}.
func (g *GRPCService) ExportReport(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	kind, err := api.StringField(req, "kind")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	var path string
	switch kind {
	case KindShift:
		date, shift, ferr := dateShift(req)
		if ferr != nil {
			return nil, ferr
		}
		path, err = g.reports.ExportShiftReport(ctx, date, shift)
	case KindDaily:
		date, ferr := api.StringField(req, "date")
		if ferr != nil {
			return nil, status.Error(codes.InvalidArgument, ferr.Error())
		}
		path, err = g.reports.ExportDailyReport(ctx, date)
	case KindMonthly:
		year, ferr := api.IntField(req, "year")
		if ferr != nil {
			return nil, status.Error(codes.InvalidArgument, ferr.Error())
		}
		month, ferr := api.IntField(req, "month")
		if ferr != nil {
			return nil, status.Error(codes.InvalidArgument, ferr.Error())
		}
		path, err = g.reports.ExportMonthlyReport(ctx, year, month)
	default:
		return nil, status.Errorf(codes.InvalidArgument, "unknown report kind %q", kind)
	}
	if err != nil {
		g.logger.Debug("export report failed", slog.String("kind", kind), slog.Any("error", err))
		return nil, api.StatusFromError(err)
	}
	return structpb.NewStruct(map[string]any{"kind": kind, "path": path})
}

// HealthCheck returns the current health state.
func (g *GRPCService) HealthCheck(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{"status": "SERVING"})
}

func dateShift(req *structpb.Struct) (string, int, error) {
	date, err := api.StringField(req, "date")
	if err != nil {
		return "", 0, status.Error(codes.InvalidArgument, err.Error())
	}
	shift, err := api.IntField(req, "shift")
	if err != nil {
		return "", 0, status.Error(codes.InvalidArgument, err.Error())
	}
	return date, shift, nil
}

func respond(v any) (*structpb.Struct, error) {
	out, err := api.ToStruct(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func respondItems(items any) (*structpb.Struct, error) {
	out, err := api.ItemsStruct(items)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}
