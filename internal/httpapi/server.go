package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/handlers"
)

// Server serves the HTTP API.
type Server struct {
	httpServer *http.Server
	listener   net.Listener
}

// NewServer wraps the router with access logging, panic recovery and CORS, and binds addr.
func NewServer(addr string, router http.Handler, allowedOrigins []string, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	return &Server{
		httpServer: &http.Server{
			Handler:           Wrap(router, allowedOrigins, logger),
			ReadHeaderTimeout: 10 * time.Second,
		},
		listener: lis,
	}, nil
}

// Wrap applies the middleware chain used by the server.
func Wrap(router http.Handler, allowedOrigins []string, logger *slog.Logger) http.Handler {
	cors := handlers.CORS(
		handlers.AllowedOrigins(allowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
		handlers.ExposedHeaders([]string{"Content-Disposition"}),
	)
	recovery := handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{logger}))
	return handlers.LoggingHandler(accessLog{logger}, recovery(cors(router)))
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	if err := s.httpServer.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Address exposes the bound listener address.
func (s *Server) Address() string {
	return s.listener.Addr().String()
}

type accessLog struct{ logger *slog.Logger }

func (a accessLog) Write(p []byte) (int, error) {
	a.logger.Info("http request", slog.String("access", strings.TrimSpace(string(p))))
	return len(p), nil
}

type recoveryLogger struct{ logger *slog.Logger }

func (r recoveryLogger) Println(v ...any) {
	r.logger.Error("http handler panic", slog.String("panic", fmt.Sprint(v...)))
}
