package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"

	"segnode/config"
	"segnode/pkg/cluster"
	"segnode/pkg/node"
	"segnode/pkg/segment"
)

// Server exposes the node's serving endpoints: a gRPC health service and an
// HTTP status API over the resolved node facts.
type Server struct {
	cfg  *config.Config
	desc *node.ServiceDescriptor
	rec  *node.IdentityRecord
	inv  *segment.Inventory // nil when the node holds no cache
	mgr  *cluster.Manager
	log  *slog.Logger

	grpc   *grpc.Server
	health *health.Server
	http   *http.Server
}

// New creates a server over the resolved descriptor and identity.
func New(cfg *config.Config, desc *node.ServiceDescriptor, rec *node.IdentityRecord, inv *segment.Inventory, mgr *cluster.Manager, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}

	opts := []grpc.ServerOption{
		grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionIdle:     15 * time.Second,
			MaxConnectionAge:      30 * time.Second,
			MaxConnectionAgeGrace: 5 * time.Second,
			Time:                  5 * time.Second,
			Timeout:               1 * time.Second,
		}),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             5 * time.Second,
			PermitWithoutStream: true,
		}),
	}
	grpcServer := grpc.NewServer(opts...)

	s := &Server{
		cfg:    cfg,
		desc:   desc,
		rec:    rec,
		inv:    inv,
		mgr:    mgr,
		log:    log,
		grpc:   grpcServer,
		health: health.NewServer(),
	}

	healthpb.RegisterHealthServer(grpcServer, s.health)

	s.http = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: s.routes(),
	}

	return s
}

// Start serves until ctx is cancelled, then stops gracefully.
func (s *Server) Start(ctx context.Context) error {
	grpcAddr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.GRPCPort)
	grpcLis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", grpcAddr, err)
	}
	httpLis, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.http.Addr, err)
	}

	s.log.Info("starting segnode server",
		"role", s.desc.Role, "discoverable", s.desc.Discoverable,
		"http", s.http.Addr, "grpc", grpcAddr)

	go func() {
		if err := s.grpc.Serve(grpcLis); err != nil {
			s.log.Error("grpc server error", "err", err)
		}
	}()
	go func() {
		if err := s.http.Serve(httpLis); err != nil && err != http.ErrServerClosed {
			s.log.Error("http server error", "err", err)
		}
	}()

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(s.rec.Name, healthpb.HealthCheckResponse_SERVING)

	<-ctx.Done()

	return s.Stop()
}

// Stop stops the server gracefully.
func (s *Server) Stop() error {
	s.log.Info("stopping segnode server")

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	s.health.SetServingStatus(s.rec.Name, healthpb.HealthCheckResponse_NOT_SERVING)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		s.log.Error("http shutdown", "err", err)
	}

	// Graceful stop with timeout
	done := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		s.log.Info("server stopped gracefully")
	case <-time.After(30 * time.Second):
		s.log.Warn("force stopping server")
		s.grpc.Stop()
	}

	return nil
}
