package commands

import (
	"github.com/spf13/cobra"
	"github.com/sweetpotato0/hfagents/mcp"
	"github.com/sweetpotato0/hfagents/tool"
)

var serveMCPCmd = &cobra.Command{
	Use:   "serve-mcp",
	Short: "Expose the tools over MCP on stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, done, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer done()

		registry := tool.NewRegistry()
		tools, release := buildTools(cmd.Context(), cfg, allTools())
		defer release()
		for _, t := range tools {
			if err := registry.Register(t); err != nil {
				return err
			}
		}
		return mcp.NewServer("hfagent", Version, registry).Run(cmd.Context())
	},
}
