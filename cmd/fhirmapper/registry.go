package main

import (
	"fmt"

	"github.com/pradeepkk321/fhir-mapper/internal/config"
	"github.com/pradeepkk321/fhir-mapper/internal/expr"
	"github.com/pradeepkk321/fhir-mapper/internal/fhirbridge"
	"github.com/pradeepkk321/fhir-mapper/internal/mapping"
	"github.com/pradeepkk321/fhir-mapper/internal/validate"
)

// buildRegistry loads the mapping registry from baseDir and runs the
// validator pipeline over it, returning the aggregated result alongside the
// registry itself. In strict mode a non-empty Result.Errors aborts the
// build; otherwise the registry is returned with the errors attached for
// the caller to report.
func buildRegistry(baseDir string, cfg *config.Config) (*mapping.Registry, *validate.Result, error) {
	loaded, err := mapping.LoadDir(baseDir)
	if err != nil {
		return nil, &validate.Result{}, err
	}
	reg, warnings, err := mapping.NewRegistry(cfg.FHIRVersion, loaded.ResourceMappings, loaded.LookupTables)
	if err != nil {
		return nil, &validate.Result{}, err
	}

	result := validate.Registry(reg, fhirbridge.BuiltinCatalogue(), expr.NewEvaluator())
	result.Warnings = append(warnings, result.Warnings...)

	if cfg.StrictValidation && result.HasErrors() {
		return reg, result, fmt.Errorf("mapping: registry failed validation: %w", result)
	}
	return reg, result, nil
}
