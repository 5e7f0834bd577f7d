package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pradeepkk321/fhir-mapper/internal/config"
)

func validateCmd() *cobra.Command {
	var baseDir string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a mapping directory and report errors/warnings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if baseDir != "" {
				cfg.MappingBaseDir = baseDir
			}

			// StrictValidation would abort buildRegistry before we get to print
			// the full report, so the validate command always builds leniently
			// and decides the exit status itself.
			cfg.StrictValidation = false

			_, result, err := buildRegistry(cfg.MappingBaseDir, cfg)
			if err != nil {
				return err
			}

			for _, w := range result.Warnings {
				fmt.Println("WARN:", w)
			}
			for _, e := range result.Errors {
				fmt.Println("ERROR:", e)
			}
			fmt.Printf("%d error(s), %d warning(s)\n", len(result.Errors), len(result.Warnings))

			if result.HasErrors() {
				return fmt.Errorf("validation failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&baseDir, "base-dir", "", "mapping base directory (defaults to MAPPING_BASE_DIR)")
	return cmd
}
