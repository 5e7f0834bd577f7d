package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pradeepkk321/fhir-mapper/internal/config"
	"github.com/pradeepkk321/fhir-mapper/internal/expr"
	"github.com/pradeepkk321/fhir-mapper/internal/fhirbridge"
	"github.com/pradeepkk321/fhir-mapper/internal/fhirmapper"
	"github.com/pradeepkk321/fhir-mapper/internal/mapping"
	"github.com/pradeepkk321/fhir-mapper/internal/platform/logging"
	"github.com/pradeepkk321/fhir-mapper/internal/transform"
)

func transformCmd() *cobra.Command {
	var baseDir, direction, input, organizationID, facilityID, tenantID string

	cmd := &cobra.Command{
		Use:   "transform [mappingId]",
		Short: "Run one mapping over a document read from stdin or --input",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mappingID := args[0]

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if baseDir != "" {
				cfg.MappingBaseDir = baseDir
			}

			build := func(dir string) (*mapping.Registry, error) {
				reg, _, err := buildRegistry(dir, cfg)
				return reg, err
			}
			store, err := mapping.NewStore(cfg.MappingBaseDir, build, logging.New(cfg.LogLevel, cfg.IsDev()))
			if err != nil {
				return err
			}

			body, err := readInput(input)
			if err != nil {
				return err
			}

			ctx := mapping.NewContext()
			ctx.OrganizationID = organizationID
			ctx.FacilityID = facilityID
			ctx.TenantID = tenantID

			mapper := fhirmapper.NewMapper(store, transform.NewInterpreter(expr.NewEvaluator()), fhirbridge.NewDefaultBridge(), fhirmapper.NewJSONObjectMarshaller())

			var out string
			switch direction {
			case "fromFHIR":
				out, err = mapper.FromFHIRJSON(mappingID, body, ctx)
			default:
				out, err = mapper.ToFHIRJSON(mappingID, body, ctx)
			}
			if err != nil {
				outcome := logging.FromTransformError(err)
				data, _ := json.MarshalIndent(outcome, "", "  ")
				fmt.Println(string(data))
				return fmt.Errorf("transform failed")
			}

			fmt.Println(out)
			return nil
		},
	}

	cmd.Flags().StringVar(&baseDir, "base-dir", "", "mapping base directory (defaults to MAPPING_BASE_DIR)")
	cmd.Flags().StringVar(&direction, "direction", "toFHIR", "toFHIR or fromFHIR")
	cmd.Flags().StringVar(&input, "input", "", "path to the source document, or - / empty for stdin")
	cmd.Flags().StringVar(&organizationID, "organization-id", "", "$ctx.organizationId substitution value")
	cmd.Flags().StringVar(&facilityID, "facility-id", "", "$ctx.facilityId substitution value")
	cmd.Flags().StringVar(&tenantID, "tenant-id", "", "$ctx.tenantId substitution value")
	return cmd
}

func readInput(path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}
