package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/darkcaves/dragonites/pkg/mcp"
)

func newMCPCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve dex tools over stdio (JSON-RPC 2.0)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			srv := mcp.New(a.resolver, a.logger, version)
			return srv.Run(cmd.Context(), os.Stdin, os.Stdout)
		},
	}
}
