package main

import (
	"fmt"

	"github.com/HendryAvila/phasekeep/internal/server"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server (stdio transport)",
		Long: `Start the MCP server on stdin/stdout. Logs go to stderr or log.file.

Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "phasekeep": {
        "command": "phasekeep",
        "args": ["serve"]
      }
    }
  }`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, cleanup, err := opts.load(true)
			if err != nil {
				return fmt.Errorf("creating server: %w", err)
			}
			defer cleanup()

			app.Logger.Info("phasekeep MCP server starting",
				"version", server.Version,
				"root", app.Config.Root,
				"state", app.Store.Path(),
			)
			return mcpserver.ServeStdio(server.NewMCPServer(app))
		},
	}
}
