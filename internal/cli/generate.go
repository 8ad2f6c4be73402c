package cli

import (
	"errors"

	"github.com/kolah/damascus/internal/codegen"
	"github.com/kolah/damascus/internal/config"
	"github.com/kolah/damascus/internal/logging"
	"github.com/spf13/cobra"
)

var errGenerationFailed = errors.New("generation failed; see log for details")

func GenerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a Python client package from an OpenAPI document",
		Args:  cobra.NoArgs,
		RunE:  runGenerate,
	}

	config.BindFlags(cmd)
	config.BindGenerateFlags(cmd)

	return cmd
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd)
	if err != nil {
		return err
	}
	if err := cfg.ValidateOutput(); err != nil {
		return err
	}

	logger, err := logging.NewLogger(logging.Config{
		Component: "generate",
		Level:     cfg.Log.Level,
		Format:    cfg.Log.Format,
		Output:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	gen, err := codegen.New(cfg, logger, codegen.WithStdout(cmd.OutOrStdout()))
	if err != nil {
		return err
	}

	ok, err := gen.Run(commandContext(cmd), cfg.Spec)
	if err != nil {
		return err
	}
	if !ok {
		return errGenerationFailed
	}
	return nil
}
