package cli

import (
	"github.com/kolah/damascus/internal/logging"
	"github.com/kolah/damascus/internal/mcpserver"
	"github.com/spf13/cobra"
)

func MCPCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the inspect and generate tools over MCP stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			level, _ := cmd.Flags().GetString("log-level")
			logger, err := logging.NewLogger(logging.Config{
				Component: "mcp",
				Level:     level,
				Format:    "json",
				Output:    cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			return mcpserver.Run(commandContext(cmd), logger)
		},
	}

	cmd.Flags().String("log-level", "warn", "Log level: debug, info, warn, error")

	return cmd
}
