package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"kordash/internal/api"
)

func newServeCmd(a *app) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard HTTP server",
		Long: "Starts the HTTP server immediately and loads the dataset in the background. " +
			"Data routes answer 503 until loading completes.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("listen") {
				a.cfg.ListenAddr = listen
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides LISTEN_ADDR)")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	h := api.NewHandler(a.logger)
	e := api.NewServer(h, api.ServerOptions{
		CORSAllowedOrigins: a.cfg.CORSAllowedOrigins,
		RateLimitRPS:       a.cfg.RateLimitRPS,
		RateLimitBurst:     a.cfg.RateLimitBurst,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("server ready, dataset loading in background", "addr", a.cfg.ListenAddr)
		if err := e.Start(a.cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		t0 := time.Now()
		a.logger.Info("loading dataset", "source", a.cfg.DataSource)
		d, err := a.loadDashboard(gctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("load dataset: %w", err)
		}
		h.SetData(d)
		a.logger.Info("dataset ready",
			"indicators", len(d.Indicators()),
			"rows", d.Table().Len(),
			"duration", time.Since(t0))
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down")
		if err := e.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
