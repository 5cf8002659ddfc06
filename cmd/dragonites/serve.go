package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/darkcaves/dragonites/pkg/api"
	cachepkg "github.com/darkcaves/dragonites/pkg/cache/sqlite"
	"github.com/darkcaves/dragonites/pkg/logging"
)

func newServeCmd(configPath *string) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if listen == "" {
				listen = a.cfg.Listen
			}

			sweeper := cachepkg.NewSweeper(a.store, a.resolver.TTL(), a.cfg.Cache.SweepInterval, a.logger, a.metrics.RecordSwept)
			sweeper.Start()
			defer sweeper.Stop()

			handler := api.NewHandler(a.resolver, a.metrics.Handler(), a.logger)
			logging.Info(a.logger, "starting dragonites api", "config", *configPath)
			if err := api.ListenAndServe(cmd.Context(), listen, handler.Router(), a.logger); err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address; defaults to the configured listen")
	return cmd
}
