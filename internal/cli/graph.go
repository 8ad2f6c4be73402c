package cli

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/kolah/damascus/internal/codegen"
	"github.com/kolah/damascus/internal/config"
	"github.com/kolah/damascus/internal/logging"
	"github.com/kolah/damascus/internal/schema"
	"github.com/spf13/cobra"
)

func GraphCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the response schema dependency analysis as JSON",
		Long: `Print the component schemas reachable from 200/201 JSON responses, the
dependency edges between them and the order models would be emitted in.`,
		Args: cobra.NoArgs,
		RunE: runGraph,
	}

	config.BindFlags(cmd)

	return cmd
}

func runGraph(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd)
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(logging.Config{
		Component: "graph",
		Level:     cfg.Log.Level,
		Format:    cfg.Log.Format,
		Output:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	gen, err := codegen.New(cfg, logger)
	if err != nil {
		return err
	}

	spec, err := gen.Load(commandContext(cmd), cfg.Spec)
	if err != nil {
		return err
	}

	analysis, err := schema.Analyze(spec.Components(), schema.ResponseRoots(spec.Paths))
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding analysis: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
