package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/apreader/client/pkg/compositor"
	"github.com/apreader/client/pkg/config"
	"github.com/apreader/client/pkg/history"
)

func newHistoryCmd(cfg *config.Config) *cobra.Command {
	var (
		bucket string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print recorded notifications, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.HistoryDB == "" {
				return errors.New("no history database configured (set --history-db)")
			}

			var b compositor.Bucket
			if bucket != "" {
				var err error
				if b, err = compositor.ParseBucket(bucket); err != nil {
					return err
				}
			}

			s, err := history.NewSQLiteStore(cfg.HistoryDB)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer s.Close()

			entries, err := s.Recent(cmd.Context(), b, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i := len(entries) - 1; i >= 0; i-- {
				e := entries[i]
				fmt.Fprintf(out, "%s  %-8s  %s\n", e.CreatedAt.Local().Format(time.DateTime), e.Bucket, e.Text)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&bucket, "bucket", "b", "", "only show incoming or outgoing")
	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "max entries")

	return cmd
}
