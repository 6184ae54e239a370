package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified RPC service name.
const ServiceName = "mirador.shiftreport.v1.ShiftReports"

// RPC method names.
const (
	MethodIngestShift         = "IngestShift"
	MethodGetShift            = "GetShift"
	MethodGetDailyAggregate   = "GetDailyAggregate"
	MethodListDailyAggregates = "ListDailyAggregates"
	MethodGetDailyTable       = "GetDailyTable"
	MethodListMonthlyGroups   = "ListMonthlyGroups"
	MethodGetComponentUsage   = "GetComponentUsage"
	MethodExportReport        = "ExportReport"
	MethodHealthCheck         = "HealthCheck"
)

// ShiftReportsServer is the RPC surface. Requests and responses are google.protobuf.Struct
// documents shaped like the JSON bodies of the HTTP API.
type ShiftReportsServer interface {
	IngestShift(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetShift(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetDailyAggregate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListDailyAggregates(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetDailyTable(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListMonthlyGroups(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetComponentUsage(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ExportReport(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	HealthCheck(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(ShiftReportsServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// ShiftReportsServiceDesc describes the service for grpc.Server registration.
var ShiftReportsServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ShiftReportsServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodIngestShift, ShiftReportsServer.IngestShift),
		unary(MethodGetShift, ShiftReportsServer.GetShift),
		unary(MethodGetDailyAggregate, ShiftReportsServer.GetDailyAggregate),
		unary(MethodListDailyAggregates, ShiftReportsServer.ListDailyAggregates),
		unary(MethodGetDailyTable, ShiftReportsServer.GetDailyTable),
		unary(MethodListMonthlyGroups, ShiftReportsServer.ListMonthlyGroups),
		unary(MethodGetComponentUsage, ShiftReportsServer.GetComponentUsage),
		unary(MethodExportReport, ShiftReportsServer.ExportReport),
		unary(MethodHealthCheck, ShiftReportsServer.HealthCheck),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "mirador/shiftreport/v1/shiftreport.proto",
}

// RegisterShiftReportsServer registers srv on a gRPC server.
func RegisterShiftReportsServer(s grpc.ServiceRegistrar, srv ShiftReportsServer) {
	s.RegisterService(&ShiftReportsServiceDesc, srv)
}

func unary(method string, call unaryCall) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + method
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ShiftReportsServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(ShiftReportsServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// Client invokes ShiftReports methods over a client connection.
type Client struct {
	conn grpc.ClientConnInterface
}

// NewClient wraps a connection.
func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

// Call invokes method with req. A nil req sends an empty struct.
func (c *Client) Call(ctx context.Context, method string, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if req == nil {
		req = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, "/"+ServiceName+"/"+method, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
