package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"radar/internal/app"
)

func historyCmd() *cobra.Command {
	var limit uint64

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the most recently sent articles",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup()
			if err != nil {
				return err
			}

			ctx := context.Background()

			db, records, err := app.OpenStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			recent, err := records.Recent(ctx, limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, r := range recent {
				fmt.Fprintf(w, "%s\t%s\t%s\n", r.SentAt.Format(time.RFC3339), r.Title, r.Link)
			}

			return w.Flush()
		},
	}

	cmd.Flags().Uint64VarP(&limit, "limit", "n", 20, "Number of records to show")

	return cmd
}
