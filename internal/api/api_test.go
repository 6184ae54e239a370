package api

import (
	"context"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/miradorstack/mirador-shiftreport/internal/config"
	"github.com/miradorstack/mirador-shiftreport/internal/models"
	"github.com/miradorstack/mirador-shiftreport/internal/utils"
)

type stubServer struct {
	lastDate string
}

func (s *stubServer) IngestShift(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var snap models.ShiftSnapshot
	if err := FromStruct(req, &snap); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return ToStruct(models.IngestResult{Date: snap.Date, Shift: snap.Shift, ShiftCount: 1})
}

func (s *stubServer) GetShift(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return nil, StatusFromError(utils.NotFound("get shift", "no data"))
}

func (s *stubServer) GetDailyAggregate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	date, err := StringField(req, "date")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	s.lastDate = date
	return ToStruct(models.DailyAggregate{Date: date, CPUUsage: models.NewUsageMap("sbp-be", "Down")})
}

func (s *stubServer) ListDailyAggregates(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return ItemsStruct([]models.DailyAggregate{{Date: "01-03-2025"}})
}

func (s *stubServer) GetDailyTable(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return ToStruct(models.DailyTable{})
}

func (s *stubServer) ListMonthlyGroups(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return ItemsStruct([]models.MonthlyGroup{})
}

func (s *stubServer) GetComponentUsage(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return nil, StatusFromError(utils.InvalidFormat("component usage", "bad date", nil))
}

func (s *stubServer) ExportReport(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return nil, StatusFromError(utils.OperationFailed("export", "render failed", nil))
}

func (s *stubServer) HealthCheck(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{"status": "SERVING"})
}

func startServer(t *testing.T, impl ShiftReportsServer) *Client {
	t.Helper()
	srv, err := NewServer(config.ServerConfig{Address: "127.0.0.1:0", GracefulTimeout: time.Second}, impl)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	go func() { _ = srv.Start() }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	})

	conn, err := grpc.NewClient(srv.Address(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return NewClient(conn)
}

func TestServerRoundTrip(t *testing.T) {
	impl := &stubServer{}
	client := startServer(t, impl)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	health, err := client.Call(ctx, MethodHealthCheck, nil)
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if health.GetFields()["status"].GetStringValue() != "SERVING" {
		t.Fatalf("unexpected health payload: %v", health)
	}

	req, _ := structpb.NewStruct(map[string]any{"date": "05-03-2025"})
	resp, err := client.Call(ctx, MethodGetDailyAggregate, req)
	if err != nil {
		t.Fatalf("get daily aggregate: %v", err)
	}
	var agg models.DailyAggregate
	if err := FromStruct(resp, &agg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if impl.lastDate != "05-03-2025" || !agg.CPUUsage.Get("sbp-be").Is(models.SentinelDown) {
		t.Fatalf("unexpected aggregate: %+v", agg)
	}
}

func TestServerErrorCodes(t *testing.T) {
	client := startServer(t, &stubServer{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cases := map[string]codes.Code{
		MethodGetShift:          codes.NotFound,
		MethodGetComponentUsage: codes.InvalidArgument,
		MethodExportReport:      codes.Internal,
		MethodGetDailyAggregate: codes.InvalidArgument,
	}
	for method, want := range cases {
		_, err := client.Call(ctx, method, nil)
		if status.Code(err) != want {
			t.Fatalf("%s: expected %v, got %v", method, want, err)
		}
	}
}

func TestStructConversions(t *testing.T) {
	snap := models.ShiftSnapshot{Date: "05-03-2025", Shift: 3, CPUUsage: models.NewUsageMap("blc-be", 0.5, "sbp-be", "down")}
	s, err := ToStruct(snap)
	if err != nil {
		t.Fatalf("to struct: %v", err)
	}
	shift, err := IntField(s, "shift")
	if err != nil || shift != 3 {
		t.Fatalf("expected shift 3, got %d (%v)", shift, err)
	}
	if _, err := IntField(s, "date"); err == nil {
		t.Fatalf("expected error for non-numeric field")
	}
	if _, err := StringField(s, "missing"); err == nil {
		t.Fatalf("expected error for missing field")
	}

	var back models.ShiftSnapshot
	if err := FromStruct(s, &back); err != nil {
		t.Fatalf("from struct: %v", err)
	}
	if v, _ := back.CPUUsage.Get("blc-be").Float(); v != 0.5 || !back.CPUUsage.Get("sbp-be").Is("down") {
		t.Fatalf("values lost in conversion: %+v", back.CPUUsage)
	}
	if err := FromStruct(nil, &back); err == nil {
		t.Fatalf("expected error for nil struct")
	}
}

func TestStatusFromErrorKeepsStatus(t *testing.T) {
	in := status.Error(codes.FailedPrecondition, "not configured")
	if got := StatusFromError(in); status.Code(got) != codes.FailedPrecondition {
		t.Fatalf("existing status should pass through, got %v", got)
	}
	if StatusFromError(nil) != nil {
		t.Fatalf("nil should stay nil")
	}
}

func TestServerHealthFollowsLifecycle(t *testing.T) {
	srv, err := NewServer(config.ServerConfig{Address: "127.0.0.1:0"}, &stubServer{})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	served := make(chan error, 1)
	go func() { served <- srv.Start() }()

	conn, err := grpc.NewClient(srv.Address(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	healthClient := healthpb.NewHealthClient(conn)

	deadline := time.Now().Add(3 * time.Second)
	for {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		resp, err := healthClient.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
		cancel()
		if err == nil && resp.GetStatus() == healthpb.HealthCheckResponse_SERVING {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("service never reported SERVING: %v %v", resp, err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	srv.Shutdown(ctx)
	select {
	case err := <-served:
		if err != nil {
			t.Fatalf("start should return nil after shutdown, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("server did not stop")
	}
}

func TestNewServerRequiresService(t *testing.T) {
	if _, err := NewServer(config.ServerConfig{Address: "127.0.0.1:0"}, nil); err == nil {
		t.Fatalf("expected error without a service")
	}
}
