// Package transform implements the transformation interpreter: the
// per-field-mapping algorithm (condition, read, default, required check,
// lookup, transform, validate, write) that walks a ResourceMapping's field
// mappings in declared order and materialises an output tree.
package transform

import (
	"fmt"

	exprpkg "github.com/pradeepkk321/fhir-mapper/internal/expr"
	"github.com/pradeepkk321/fhir-mapper/internal/mapping"
	"github.com/pradeepkk321/fhir-mapper/internal/tree"
)

// LookupTableResolver resolves a lookup table id against the registry the
// interpreter is running against.
type LookupTableResolver func(id string) (*mapping.CodeLookupTable, bool)

// Interpreter holds no mutable process-wide state: it may be shared
// and run concurrently across any number of transformations, each against
// its own source tree and TransformationContext.
type Interpreter struct {
	evaluator *exprpkg.Evaluator
}

// NewInterpreter returns an Interpreter that evaluates condition/transform
// expressions with ev.
func NewInterpreter(ev *exprpkg.Evaluator) *Interpreter {
	return &Interpreter{evaluator: ev}
}

// Run executes rm's field mappings in declared order against source and
// ctx, returning the materialised target tree. lookupTables resolves
// any `lookupTable` references field mappings declare.
func (in *Interpreter) Run(rm *mapping.ResourceMapping, source *tree.Map, ctx *mapping.Context, lookupTables LookupTableResolver) (*tree.Map, error) {
	target := tree.NewMap()
	if rm.Direction == mapping.JSONToFHIR {
		target.Set("resourceType", rm.TargetType)
	}

	for i := range rm.FieldMappings {
		fm := &rm.FieldMappings[i]
		if err := in.runField(fm, rm.Direction, source, target, ctx, lookupTables); err != nil {
			if fm.Required {
				return nil, &TransformError{MappingID: rm.ID, FieldID: fm.ID, Err: err}
			}
			// Per-field failure policy: an optional field swallows
			// any step 2-8 failure and is simply omitted from the output.
			continue
		}
	}
	return target, nil
}

// runField executes steps 1-9 for one field mapping. A nil return with no
// write performed means the field was legitimately skipped (condition
// false, or missing+optional); any non-nil error is the caller's to
// classify against fm.Required.
func (in *Interpreter) runField(fm *mapping.FieldMapping, direction mapping.Direction, source, target *tree.Map, ctx *mapping.Context, lookupTables LookupTableResolver) error {
	// step 1: condition
	if fm.Condition != "" {
		ok, err := in.evaluator.EvaluateCondition(fm.Condition, source, ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}

	// step 2: read
	var v tree.Value
	var found bool
	if fm.SourcePath != "" {
		val, ok, err := tree.Get(source, fm.SourcePath)
		if err != nil {
			return err
		}
		v, found = val, ok
	}

	// step 3: default
	if (!found || tree.IsNull(v)) && fm.DefaultValue != nil {
		v = exprpkg.ResolveDefaultValue(ctx, fm.DefaultValue)
		found = true
	}

	// step 4/5: required check, or skip
	if !found {
		if fm.Required {
			return &RequiredFieldMissing{FieldID: fm.ID}
		}
		return nil
	}

	// step 6: lookup
	if fm.LookupTable != "" {
		lt, foundTable := lookupTables(fm.LookupTable)
		if !foundTable {
			return fmt.Errorf("transform: field %q: lookup table %q is not registered", fm.ID, fm.LookupTable)
		}
		lookupInput := v
		// lookupSourceField lets a field translate a code read from a
		// different path than the one it otherwise reads/writes — e.g.
		// deriving a target value from one field while keying the lookup
		// off a sibling field's code.
		if fm.LookupSourceField != "" {
			if altVal, ok, err := tree.Get(source, fm.LookupSourceField); err == nil && ok {
				lookupInput = altVal
			}
		}
		code := tree.Stringify(lookupInput)
		// A lookup table's sourceCode/targetCode are fixed to its own
		// vocabularies regardless of which way a given mapping runs: a
		// JSON_TO_FHIR field is translating the table's source vocabulary
		// into its target vocabulary (lookupTarget), while a FHIR_TO_JSON
		// field is going the other way (lookupSource, which requires the
		// table to be bidirectional).
		var translated string
		var ok bool
		if direction == mapping.FHIRToJSON {
			var err error
			translated, ok, err = lt.LookupSource(code)
			if err != nil {
				return err
			}
		} else {
			translated, ok = lt.LookupTarget(code)
		}
		if !ok {
			return &LookupMiss{FieldID: fm.ID, LookupTable: fm.LookupTable, Code: code}
		}
		v = translated
	}

	// step 7: transform
	if fm.TransformExpression != "" {
		result, err := in.evaluator.EvaluateTransform(fm.TransformExpression, source, ctx, v)
		if err != nil {
			return err
		}
		v = result
	}

	// step 8: validate
	if fm.Validator != "" {
		if err := runValidator(fm, v); err != nil {
			return err
		}
	}

	// step 9: write
	return tree.Set(target, fm.TargetPath, v)
}
