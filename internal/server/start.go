package server

import (
	"context"
	"errors"
	"net/http"
	"time"
)

const shutdownTimeout = 10 * time.Second

// Start runs the hub and the HTTP server on addr until ctx is canceled, then
// shuts both down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer func() {
		stopHub()
		<-s.hub.Done()
	}()
	go s.hub.Run(hubCtx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Hub listening", "addr", addr)
		if err := s.E.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("Shutting down hub")
	return s.E.Shutdown(shutdownCtx)
}
