package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "dragonites",
		Short:         "Dragonites: creature dex cache and D&D 5e stat block converter",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "dragonites.yaml", "path to config file")

	root.AddCommand(
		newFetchCmd(&configPath),
		newSearchCmd(&configPath),
		newListCmd(&configPath),
		newConvertCmd(&configPath),
		newInitCmd(&configPath),
		newEnsureCmd(&configPath),
		newCacheCmd(&configPath),
		newRosterCmd(&configPath),
		newServeCmd(&configPath),
		newMCPCmd(&configPath),
	)

	return root
}

func main() {
	root := newRootCmd()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
