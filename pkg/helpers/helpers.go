package helpers

import (
	"context"
	"errors"

	"github.com/apreader/client/pkg/client"
	"github.com/apreader/client/pkg/client/modules/catalog"
	"github.com/apreader/client/pkg/client/modules/notify"
	"github.com/apreader/client/pkg/client/modules/protocol"
	"github.com/apreader/client/pkg/client/modules/roster"
	"github.com/apreader/client/pkg/config"
	"github.com/apreader/client/pkg/tui"
)

// NewClient creates a client from cfg with the default modules (protocol, roster, catalog, notify).
func NewClient(cfg config.Config) *client.Client {
	c := client.New(cfg.ServerURI, cfg.PlayerName, cfg.Game)
	c.Password = cfg.Password
	c.Verbose = cfg.Verbose
	c.MaxMessageSize = cfg.MaxMessageSize
	c.TargetPlayers = cfg.TargetPlayers
	c.CatalogGames = cfg.CatalogGames

	// notify reads the stores of roster and catalog, so it goes last
	c.Register(protocol.New())
	c.Register(roster.New())
	c.Register(catalog.New())
	c.Register(notify.New())

	return c
}

// Run connects and starts the client. Notifications go to displays and, in
// interactive mode, to the terminal UI; otherwise they are logged.
//
// In interactive mode the UI stays up after the session ends so the final
// connection label remains visible; quitting the UI closes the session.
func Run(ctx context.Context, c *client.Client, interactive bool, maxLines int, displays ...client.Display) error {
	if !interactive {
		c.Display = client.Displays(append([]client.Display{client.LogDisplay{Logger: c.Logger, Verbose: c.Verbose}}, displays...)...)
		return c.ConnectAndStart(ctx)
	}

	program, writer, display := tui.Start(c, maxLines)
	c.Logger.SetOutput(writer)
	c.Display = client.Displays(append([]client.Display{display}, displays...)...)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tuiDone := make(chan error, 1)
	go func() {
		_, err := program.Run()
		tuiDone <- err
	}()

	clientDone := make(chan error, 1)
	go func() {
		clientDone <- c.ConnectAndStart(ctx)
	}()

	select {
	case err := <-tuiDone:
		cancel()
		if cerr := <-clientDone; err == nil && !errors.Is(cerr, context.Canceled) {
			err = cerr
		}
		return err
	case err := <-clientDone:
		if err != nil {
			c.Logger.Println(err)
		}
		if ctx.Err() != nil {
			program.Quit()
		}
		if tuiErr := <-tuiDone; tuiErr != nil {
			return tuiErr
		}
		return err
	}
}
