package api

import (
	"context"
	"errors"
	"fmt"
	"net"

	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/miradorstack/mirador-shiftreport/internal/config"
)

// Server hosts the ShiftReports service next to the standard health and reflection services.
// The ShiftReports health entry reports NOT_SERVING until Start is called and again once
// Shutdown begins draining.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	lis    net.Listener
}

// NewServer binds cfg.Address and registers service. Extra options are appended after the
// Prometheus interceptors.
func NewServer(cfg config.ServerConfig, service ShiftReportsServer, opts ...grpc.ServerOption) (*Server, error) {
	if service == nil {
		return nil, errors.New("shift reports service is required")
	}
	lis, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.Address, err)
	}

	srv := grpc.NewServer(withMetrics(opts)...)
	RegisterShiftReportsServer(srv, service)
	grpc_prometheus.Register(srv)

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	return &Server{grpc: srv, health: hs, lis: lis}, nil
}

func withMetrics(opts []grpc.ServerOption) []grpc.ServerOption {
	grpc_prometheus.EnableHandlingTimeHistogram()
	return append([]grpc.ServerOption{
		grpc.ChainUnaryInterceptor(grpc_prometheus.UnaryServerInterceptor),
		grpc.ChainStreamInterceptor(grpc_prometheus.StreamServerInterceptor),
	}, opts...)
}

// Start marks ShiftReports as serving and blocks until the server stops.
// A server stopped through Shutdown returns nil.
func (s *Server) Start() error {
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	if err := s.grpc.Serve(s.lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// Shutdown flips health to NOT_SERVING and drains in-flight calls. Calls still running
// when ctx ends are cut off.
func (s *Server) Shutdown(ctx context.Context) {
	s.health.Shutdown()
	stop := context.AfterFunc(ctx, s.grpc.Stop)
	defer stop()
	s.grpc.GracefulStop()
}

// Address is the bound listener address, useful with port 0.
func (s *Server) Address() string {
	return s.lis.Addr().String()
}
