package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"radar/internal/app"
)

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Process one article and print the outcome as JSON",
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

			outcome := application.Dispatcher.Run(ctx)

			if err := json.NewEncoder(cmd.OutOrStdout()).Encode(outcome); err != nil {
				return err
			}

			if outcome.Failed() {
				return errors.New(outcome.Details)
			}

			return nil
		},
	}
}
