package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/apreader/client/pkg/config"
)

const (
	releaseVersion = "0.4.0"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Default()
	cobra.CheckErr(newCmd(&cfg).ExecuteContext(ctx))
}
