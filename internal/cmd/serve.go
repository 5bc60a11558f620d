package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"radar/internal/app"
	"radar/internal/scheduler"
	"radar/internal/server"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run on the configured schedule and expose the HTTP trigger",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			application, err := app.Build(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer application.Close()

			sched := scheduler.New(cfg.Schedule, application.Dispatcher, log.WithField("component", "scheduler"))
			if err := sched.Start(); err != nil {
				return err
			}

			handlers := server.NewHandlers(application.Dispatcher, application.Records, sched, log.WithField("component", "http"))
			srv := &http.Server{
				Addr:              cfg.HTTPAddr,
				Handler:           server.SetupRouter(handlers, application.Registry),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)

			go func() {
				log.WithField("addr", cfg.HTTPAddr).Info("http server listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			select {
			case <-ctx.Done():
				log.Info("shutting down")
			case err = <-errCh:
				log.WithError(err).Error("http server failed")
			}

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer shutdownCancel()

			if stopErr := sched.Stop(); stopErr != nil {
				log.WithError(stopErr).Error("failed to stop scheduler")
			}

			if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
				log.WithError(shutdownErr).Error("http server shutdown failed")
			}

			return err
		},
	}
}
