package main

import (
	"context"
	"fmt"

	"github.com/apreader/client/pkg/client"
	"github.com/apreader/client/pkg/config"
	"github.com/apreader/client/pkg/helpers"
	"github.com/apreader/client/pkg/history"
	"github.com/apreader/client/pkg/status"
)

// runReader wires the optional status board and journal next to the main
// display and runs one session.
func runReader(ctx context.Context, cfg config.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c := helpers.NewClient(cfg)
	var displays []client.Display

	if cfg.HistoryDB != "" {
		store, err := history.NewSQLiteStore(cfg.HistoryDB)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer store.Close()
		displays = append(displays, history.NewDisplay(store, c.Logger))
	}

	if cfg.StatusAddr != "" {
		board := status.NewBoard(cfg.MaxMessages)
		srv := status.NewServer(cfg.StatusAddr, board, releaseVersion, c.Logger)
		srv.Verbose = cfg.Verbose

		served := make(chan struct{})
		go func() {
			defer close(served)
			if err := srv.Run(ctx); err != nil {
				c.Logger.Println(err)
			}
		}()
		defer func() {
			cancel()
			<-served
		}()
		displays = append(displays, board)
	}

	return helpers.Run(ctx, c, cfg.Interactive, cfg.MaxMessages, displays...)
}
