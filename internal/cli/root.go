package cli

import "github.com/spf13/cobra"

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "damascus",
		Short:   "damascus - Python client packages from OpenAPI documents",
		Version: "1.0.0",

		SilenceUsage:  true,
		SilenceErrors: true,

		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	root.AddCommand(
		GenerateCommand(),
		GraphCommand(),
		MCPCommand(),
	)

	return root
}
