package commands

import (
	"github.com/spf13/cobra"

	"riserroute/mcpserver"
	"riserroute/planner"
)

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdio",
		Long: `Start an MCP (Model Context Protocol) server on stdin/stdout exposing the
plan_routes and preview_domain tools, so CAD plugins and agents can call the
planner without shelling out per request. Logs go to stderr.`,
		Example: `  # MCP client configuration:
  # {
  #   "mcpServers": {
  #     "riserroute": {
  #       "command": "riserroute",
  #       "args": ["serve", "--config", "riserroute.yaml"]
  #     }
  #   }
  # }`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}
			log.Info("mcp server starting", "version", versionInfo.Version)
			s := mcpserver.New(func() *planner.Planner { return planner.New(cfg, log) })
			return mcpserver.Serve(s)
		},
	}
	return cmd
}
