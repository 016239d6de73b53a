// Package grpc serves the standard gRPC health protocol for the API process.
package grpc

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const Service = "barbershop.API"

// Probe reports whether a dependency is usable.
type Probe func(ctx context.Context) error

type HealthServer struct {
	logger   *zap.Logger
	server   *grpc.Server
	health   *health.Server
	probe    Probe
	interval time.Duration
}

// probe may be nil, the service is then always SERVING
func NewHealthServer(logger *zap.Logger, probe Probe, interval time.Duration) *HealthServer {
	hs := health.NewServer()
	server := grpc.NewServer()
	healthpb.RegisterHealthServer(server, hs)
	hs.SetServingStatus(Service, healthpb.HealthCheckResponse_SERVING)
	return &HealthServer{logger, server, hs, probe, interval}
}

func (s *HealthServer) Serve(lis net.Listener) error {
	return s.server.Serve(lis)
}

// Run polls the probe until ctx is done.
func (s *HealthServer) Run(ctx context.Context) {
	if s.probe == nil {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		s.check(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *HealthServer) check(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.interval)
	defer cancel()
	status := healthpb.HealthCheckResponse_SERVING
	if err := s.probe(ctx); err != nil {
		s.logger.Warn("health probe failed", zap.Error(err))
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus(Service, status)
}

// Stop marks the service down and drains in-flight calls.
func (s *HealthServer) Stop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}
