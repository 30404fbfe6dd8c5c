package main

import (
	"fmt"

	"github.com/panbanda/wcc/internal/logging"
	"github.com/panbanda/wcc/internal/mcpserver"
	"github.com/spf13/cobra"
)

func newMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP (Model Context Protocol) server for LLM tool integration",
		Long: `Starts an MCP server over stdio transport that exposes the weighted
coverage scan as a tool that LLMs can invoke.

To use with Claude Desktop, add to your config:
  {
    "mcpServers": {
      "wcc": {
        "command": "wcc",
        "args": ["mcp"]
      }
    }
  }

Available tools:
  - weighted_coverage   Complex, poorly tested files or functions

Use --manifest to print the server.json registry manifest instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if manifest, _ := cmd.Flags().GetBool("manifest"); manifest {
				data, err := mcpserver.GenerateManifest(version)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}

			path, _ := cmd.Flags().GetString("config")
			verbose, _ := cmd.Flags().GetBool("verbose")
			loaded, err := loadConfig(path)
			if err != nil {
				return err
			}

			// stdout carries the protocol.
			logger := logging.New(cmd.ErrOrStderr(), verbose)
			server := mcpserver.NewServer(version,
				mcpserver.WithConfig(loaded.Config),
				mcpserver.WithLogger(logger),
			)
			return server.Run(cmd.Context())
		},
	}
	cmd.Flags().Bool("manifest", false, "Print the MCP registry manifest and exit")
	return cmd
}
