package server

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Start serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		s.logger.Info("server listening", zap.String("addr", addr))
		if err := s.E.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		s.logger.Info("server shutting down")
		return s.E.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
