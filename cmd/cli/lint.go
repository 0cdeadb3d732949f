package main

import (
	"fmt"

	"github.com/gantry-ci/gantry/internal/action"
	"github.com/gantry-ci/gantry/internal/artifact"
	"github.com/gantry-ci/gantry/internal/condition"
	"github.com/gantry-ci/gantry/internal/engine"
	"github.com/gantry-ci/gantry/internal/provider"
	"github.com/gantry-ci/gantry/internal/styles"
	"github.com/spf13/cobra"
)

var lintCmd = &cobra.Command{
	Use:   "lint [file ...]",
	Short: "Validate pipeline documents without running them",
	Args:  cobra.MinimumNArgs(1),
	RunE:  lintRun,
}

func init() {
	rootCmd.AddCommand(lintCmd)
}

func lintRun(cmd *cobra.Command, args []string) error {
	evaluator, err := condition.NewEvaluator()
	if err != nil {
		return err
	}

	registry := action.NewRegistry()
	action.RegisterBuiltins(registry, artifact.NewFS("."), logger)

	eng := engine.New(evaluator, nil, registry)
	resolver := provider.New(provider.WithStdin(cmd.InOrStdin()), provider.WithFile())

	var hasError bool
	for _, path := range args {
		pipeline, err := resolver.Resolve(cmd.Context(), path)
		if err == nil {
			pipeline.SetDefaults()
			err = eng.Validate(&pipeline)
		}

		if err != nil {
			hasError = true
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", path, styles.Failure.Render("ERROR"))
			fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
			continue
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", path, styles.Success.Render("OK"))
	}

	if hasError {
		return fmt.Errorf("validation failed")
	}

	return nil
}
