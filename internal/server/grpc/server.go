// Package grpc exposes the standard gRPC health service, reporting whether
// the gallery subscription is live.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/photodiary/internal/gallery"
	"github.com/dmitrijs2005/photodiary/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name reported next to the overall "".
const ServiceName = "photodiary.Gallery"

// StatusSource is implemented by *gallery.Controller.
type StatusSource interface {
	State() gallery.State
	Err() error
	Watch() (<-chan struct{}, func())
}

type GRPCServer struct {
	address string
	source  StatusSource
	health  *health.Server
	logger  logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, src StatusSource) *GRPCServer {
	return &GRPCServer{
		address: a,
		source:  src,
		health:  health.NewServer(),
		logger:  l.With("module", "grpc_server"),
	}
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve serves on lis until ctx is done.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))

	healthpb.RegisterHealthServer(srv, s.health)

	s.updateHealth()
	go s.watchHealth(ctx)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gPRC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}

func (s *GRPCServer) watchHealth(ctx context.Context) {
	changes, stop := s.source.Watch()
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-changes:
			s.updateHealth()
		}
	}
}

// updateHealth is SERVING once the first snapshot arrived and no
// subscription error happened.
func (s *GRPCServer) updateHealth() {
	st := healthpb.HealthCheckResponse_SERVING
	if s.source.Err() != nil || s.source.State().Loading {
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}
