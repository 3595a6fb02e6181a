package simd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"google.golang.org/grpc"

	"github.com/GoSim-25-26J-441/photonic-sim/pkg/config"
	"github.com/GoSim-25-26J-441/photonic-sim/pkg/logger"
)

// StatusServers are the optional HTTP and gRPC listeners of one process
type StatusServers struct {
	httpSrv  *http.Server
	httpLis  net.Listener
	grpcSrv  *grpc.Server
	grpcLis  net.Listener
	serveErr chan error
}

// StartStatusServers listens on the configured addresses. An empty address
// leaves that server off; a nil config starts nothing.
func StartStatusServers(cfg *config.Status, store *RunStore) (*StatusServers, error) {
	s := &StatusServers{serveErr: make(chan error, 2)}
	if cfg == nil {
		return s, nil
	}

	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return nil, fmt.Errorf("listen for gRPC on %s: %w", cfg.GRPCAddr, err)
		}
		// TODO: add TLS credentials before exposing the status port beyond localhost.
		s.grpcSrv = grpc.NewServer()
		RegisterStatusServer(s.grpcSrv, NewStatusGRPCServer(store))
		s.grpcLis = lis
		go func() {
			logger.Info("gRPC status server listening", "addr", lis.Addr().String())
			if err := s.grpcSrv.Serve(lis); err != nil {
				s.serveErr <- fmt.Errorf("gRPC server: %w", err)
			}
		}()
	}

	if cfg.HTTPAddr != "" {
		lis, err := net.Listen("tcp", cfg.HTTPAddr)
		if err != nil {
			s.Close(context.Background())
			return nil, fmt.Errorf("listen for HTTP on %s: %w", cfg.HTTPAddr, err)
		}
		s.httpLis = lis
		s.httpSrv = &http.Server{
			Handler:           NewHTTPServer(store).Handler(),
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       120 * time.Second,
			MaxHeaderBytes:    1 << 20,
		}
		go func() {
			logger.Info("HTTP status server listening", "addr", lis.Addr().String())
			if err := s.httpSrv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.serveErr <- fmt.Errorf("HTTP server: %w", err)
			}
		}()
	}
	return s, nil
}

// HTTPAddr is the bound HTTP address, empty when the server is off
func (s *StatusServers) HTTPAddr() string {
	if s.httpLis == nil {
		return ""
	}
	return s.httpLis.Addr().String()
}

// GRPCAddr is the bound gRPC address, empty when the server is off
func (s *StatusServers) GRPCAddr() string {
	if s.grpcLis == nil {
		return ""
	}
	return s.grpcLis.Addr().String()
}

// Errors delivers serve failures after start
func (s *StatusServers) Errors() <-chan error {
	return s.serveErr
}

// Close stops both servers, waiting for in-flight requests until ctx ends
func (s *StatusServers) Close(ctx context.Context) error {
	var errs []error
	if s.grpcSrv != nil {
		s.grpcSrv.GracefulStop()
	}
	if s.httpSrv != nil {
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("HTTP shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}
