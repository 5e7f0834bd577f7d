// Package validate implements the validator pipeline: the checks run
// against a loaded mapping.Registry before it is put into service, against a
// FHIR structure catalogue and the expression evaluator's parser.
package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pradeepkk321/fhir-mapper/internal/expr"
	"github.com/pradeepkk321/fhir-mapper/internal/fhirbridge"
	"github.com/pradeepkk321/fhir-mapper/internal/mapping"
	"github.com/pradeepkk321/fhir-mapper/internal/tree"
)

// Result aggregates every finding from one validator run. Errors are fatal
// in strict mode; Warnings never are.
type Result struct {
	Errors []string
	Warnings []string
}

// HasErrors reports whether any fatal finding was recorded.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// Error renders the aggregated errors as a single error, for a strict-mode
// loader to return from registry construction.
func (r *Result) Error() string {
	return fmt.Sprintf("validate: %d error(s): %s", len(r.Errors), strings.Join(r.Errors, "; "))
}

func (r *Result) addError(format string, args...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) addWarning(format string, args...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

var (
	regexLiteral = regexp.MustCompile(`^regex\('(.*)'\)$`)
	rangeLiteral = regexp.MustCompile(`^range\(\s*(-?\d+(?:\.\d+)?)\s*,\s*(-?\d+(?:\.\d+)?)\s*\)$`)
	conditionOps = regexp.MustCompile(`==|!=|<=|>=|<|>|&&|\|\||!`)
)

// Registry runs every check against reg, resolving the FHIR side of
// each mapping against catalogue and checking expression syntax with ev. It
// always runs every check and returns everything it found; callers in
// strict mode abort load when the returned Result.HasErrors().
func Registry(reg *mapping.Registry, catalogue fhirbridge.StructureCatalogue, ev *expr.Evaluator) *Result {
	res := &Result{}

	for id, lt := range reg.LookupTables() {
		validateLookupTable(res, id, lt)
	}
	for _, rm := range reg.ResourceMappings() {
		validateResourceMapping(res, rm, reg, catalogue, ev)
	}

	return res
}

// validateLookupTable re-checks CodeLookupTable invariants (check 1).
// The loader already enforces these via CodeLookupTable.Build() before a
// table ever reaches the registry; this duplicates the check so a single
// Result reports every finding in the registry together, as describes.
func validateLookupTable(res *Result, id string, lt *mapping.CodeLookupTable) {
	if lt.ID == "" {
		res.addError("lookup table keyed %q: id is required", id)
		return
	}
	if lt.ID != id {
		res.addError("lookup table keyed %q has id %q", id, lt.ID)
	}
	if len(lt.Mappings) == 0 {
		res.addError("lookup table %q: at least one mapping is required", lt.ID)
		return
	}
	sourceSeen := make(map[string]bool, len(lt.Mappings))
	targetSeen := make(map[string]bool, len(lt.Mappings))
	for _, cm := range lt.Mappings {
		if cm.SourceCode == "" || cm.TargetCode == "" {
			res.addError("lookup table %q: source and target codes must be non-empty", lt.ID)
			continue
		}
		if sourceSeen[cm.SourceCode] {
			res.addError("lookup table %q: duplicate sourceCode %q", lt.ID, cm.SourceCode)
		}
		sourceSeen[cm.SourceCode] = true
		if lt.Bidirectional {
			if targetSeen[cm.TargetCode] {
				res.addError("lookup table %q: duplicate targetCode %q in bidirectional table", lt.ID, cm.TargetCode)
			}
			targetSeen[cm.TargetCode] = true
		}
	}
}

func validateResourceMapping(res *Result, rm *mapping.ResourceMapping, reg *mapping.Registry, catalogue fhirbridge.StructureCatalogue, ev *expr.Evaluator) {
	// check 2: required fields + FHIR side resolves in the catalogue.
	if rm.ID == "" || !rm.Direction.Valid() || rm.SourceType == "" || rm.TargetType == "" {
		res.addError("resource mapping %q: id, direction, sourceType and targetType are all required", rm.ID)
		return
	}
	fhirSide := rm.FHIRSideType()
	resourceDef, ok := catalogue.Resource(fhirSide)
	if !ok {
		res.addError("resource mapping %q: FHIR side type %q is not known to the structure catalogue", rm.ID, fhirSide)
	}

	// check 3: field id uniqueness.
	seenIDs := make(map[string]bool, len(rm.FieldMappings))
	for i := range rm.FieldMappings {
		fm := &rm.FieldMappings[i]
		if seenIDs[fm.ID] {
			res.addError("resource mapping %q: duplicate field mapping id %q", rm.ID, fm.ID)
		}
		seenIDs[fm.ID] = true
		validateFieldMapping(res, rm, fm, resourceDef, catalogue, ev, reg)
	}
}

func validateFieldMapping(res *Result, rm *mapping.ResourceMapping, fm *mapping.FieldMapping, resourceDef *fhirbridge.ResourceDefinition, catalogue fhirbridge.StructureCatalogue, ev *expr.Evaluator, reg *mapping.Registry) {
	field := fmt.Sprintf("%s.%s", rm.ID, fm.ID)

	// check 3 (continued): targetPath present, required implies a source.
	if fm.TargetPath == "" {
		res.addError("field %s: targetPath is required", field)
	}
	if fm.Required && fm.SourcePath == "" && fm.DefaultValue == nil {
		res.addError("field %s: required fields need a sourcePath or defaultValue", field)
	}

	// check 4: dataType whitelist.
	if fm.DataType != "" && !mapping.PrimitiveTypes[fm.DataType] {
		res.addError("field %s: dataType %q is not a recognised FHIR primitive", field, fm.DataType)
	}

	// check 5/6: FHIR-side path existence and data-type compatibility.
	fhirSidePath := fm.TargetPath
	if rm.Direction == mapping.FHIRToJSON {
		fhirSidePath = fm.SourcePath
	}
	if fhirSidePath != "" && resourceDef != nil {
		firstSegment, err := tree.FirstSegmentName(fhirSidePath)
		if err != nil {
			res.addError("field %s: %v", field, err)
		} else {
			childType, ok := catalogue.ChildTypeName(resourceDef, firstSegment)
			if !ok {
				res.addError("field %s: %q is not a known child of FHIR resource %q", field, firstSegment, resourceDef.Name)
			} else if fm.DataType != "" && !mapping.CompatibleDataType(fm.DataType, childType) {
				res.addError("field %s: dataType %q is not compatible with FHIR element type %q", field, fm.DataType, childType)
			}
		}
	}

	// check 7: expression parsability.
	if fm.Condition != "" {
		if err := ev.CheckParsable(fm.Condition); err != nil {
			res.addError("field %s: condition does not parse: %v", field, err)
		} else if !conditionOps.MatchString(fm.Condition) {
			res.addWarning("field %s: condition %q has no comparison or logical operator", field, fm.Condition)
		}
	}
	if fm.TransformExpression != "" {
		if err := ev.CheckParsable(fm.TransformExpression); err != nil {
			res.addError("field %s: transformExpression does not parse: %v", field, err)
		}
	}

	// check 8: validator literal shape.
	if fm.Validator != "" {
		validateValidatorLiteral(res, field, fm.Validator)
	}

	// check 9: lookupTable reference resolves.
	if fm.LookupTable != "" {
		if _, ok := reg.GetLookupTable(fm.LookupTable); !ok {
			res.addError("field %s: lookupTable %q does not resolve in the registry", field, fm.LookupTable)
		}
	}
}

func validateValidatorLiteral(res *Result, field, literal string) {
	if literal == "notEmpty()" {
		return
	}
	if m := regexLiteral.FindStringSubmatch(literal); m != nil {
		if _, err := regexp.Compile(m[1]); err != nil {
			res.addError("field %s: validator %q has an invalid pattern: %v", field, literal, err)
		}
		return
	}
	if rangeLiteral.MatchString(literal) {
		return
	}
	res.addWarning("field %s: validator %q is not one of notEmpty()/regex('<pattern>')/range(min,max)", field, literal)
}
