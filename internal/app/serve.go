package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/S-lab-sudo/openwave-app/internal/logging"
)

// Serve runs the HTTP server and background jobs under one supervisor until
// ctx is canceled.
func (a *App) Serve(ctx context.Context) error {
	log := logging.WithComponent("supervisor")

	sup := suture.New("openwave", suture.Spec{
		EventHook: eventHook(log),
		Timeout:   a.Config.Server.ShutdownTimeout,
	})

	srv := &http.Server{
		Addr:              a.Config.Server.Addr,
		Handler:           a.Handler,
		ReadHeaderTimeout: a.Config.Server.ReadHeaderTimeout,
	}
	sup.Add(newHTTPService(srv, a.Config.Server.ShutdownTimeout))

	if a.Config.Chart.Enabled {
		sup.Add(a.Charts)
	}
	if a.badger != nil {
		sup.Add(a.badger)
	}

	log.Info().Str("addr", srv.Addr).Bool("chart_sync", a.Config.Chart.Enabled).Msg("openwave is running")

	err := sup.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor: %w", err)
	}
	return nil
}

func eventHook(log zerolog.Logger) suture.EventHook {
	return func(e suture.Event) {
		log.Warn().Fields(e.Map()).Msg(e.String())
	}
}

// httpServer matches the lifecycle methods of *http.Server.
type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// httpService adapts a blocking http.Server to suture.Service.
type httpService struct {
	server          httpServer
	shutdownTimeout time.Duration
}

func newHTTPService(server httpServer, shutdownTimeout time.Duration) *httpService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &httpService{server: server, shutdownTimeout: shutdownTimeout}
}

func (h *httpService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
		defer cancel()
		if err := h.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}

func (h *httpService) String() string { return "http-server" }
