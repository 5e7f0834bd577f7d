// Package mapping holds the mapping registry data model: code lookup
// tables, field mappings, resource mappings, and the indexed registry that
// collects them. Everything in this package is built once per configuration
// generation and is immutable thereafter.
package mapping

import "fmt"

// Direction names the transformation direction a ResourceMapping runs in.
type Direction string

const (
	JSONToFHIR Direction = "JSON_TO_FHIR"
	FHIRToJSON Direction = "FHIR_TO_JSON"
)

// Valid reports whether d is one of the two known directions.
func (d Direction) Valid() bool {
	return d == JSONToFHIR || d == FHIRToJSON
}

// PrimitiveTypes is the FHIR primitive whitelist allowed in FieldMapping.DataType.
var PrimitiveTypes = map[string]bool{
	"string": true, "integer": true, "decimal": true, "boolean": true,
	"date": true, "dateTime": true, "time": true, "instant": true,
	"code": true, "uri": true, "url": true, "canonical": true, "oid": true,
	"uuid": true, "id": true, "markdown": true, "base64Binary": true,
	"unsignedInt": true, "positiveInt": true,
}

// dataTypeCompatibility is the declared-type -> accepted-FHIR-types table.
var dataTypeCompatibility = map[string]map[string]bool{
	"string": {"string": true, "markdown": true, "id": true, "code": true, "uri": true, "url": true, "canonical": true, "oid": true, "uuid": true},
	"integer": {"integer": true, "unsignedInt": true, "positiveInt": true},
	"decimal": {"decimal": true},
	"boolean": {"boolean": true},
	"date": {"date": true, "dateTime": true, "instant": true},
	"dateTime": {"dateTime": true, "instant": true},
	"code": {"code": true, "string": true},
}

// CompatibleDataType reports whether declared (a FieldMapping.DataType) is
// compatible with fhirType (an element's declared FHIR type). Declared
// types with no entry in the table (e.g. "time", "uuid") are considered to
// have no defined compatibility constraint and always pass.
func CompatibleDataType(declared, fhirType string) bool {
	accepted, known := dataTypeCompatibility[declared]
	if !known {
		return true
	}
	return accepted[fhirType]
}

// CodeMapping is a single source<->target code pair within a lookup table.
type CodeMapping struct {
	SourceCode string `json:"sourceCode"`
	TargetCode string `json:"targetCode"`
	Display string `json:"display,omitempty"`
}

// FieldMapping is a single declarative rule producing one value at
// TargetPath.
type FieldMapping struct {
	ID string `json:"id"`
	SourcePath string `json:"sourcePath,omitempty"`
	TargetPath string `json:"targetPath"`
	DataType string `json:"dataType,omitempty"`
	TransformExpression string `json:"transformExpression,omitempty"`
	Condition string `json:"condition,omitempty"`
	Validator string `json:"validator,omitempty"`
	Required bool `json:"required"`
	DefaultValue interface{} `json:"defaultValue,omitempty"`
	LookupTable string `json:"lookupTable,omitempty"`
	LookupSourceField string `json:"lookupSourceField,omitempty"`
	Description string `json:"description,omitempty"`
}

// validateShape checks the FieldMapping invariants that do not require the
// owning registry. Registry-dependent checks (lookup table resolution,
// FHIR path existence) live in the validate package.
func (f *FieldMapping) validateShape() error {
	if f.ID == "" {
		return fmt.Errorf("field mapping: id is required")
	}
	if f.TargetPath == "" {
		return fmt.Errorf("field mapping %q: targetPath is required", f.ID)
	}
	if f.Required && f.SourcePath == "" && f.DefaultValue == nil {
		return fmt.Errorf("field mapping %q: required fields need a sourcePath or defaultValue", f.ID)
	}
	if f.DataType != "" && !PrimitiveTypes[f.DataType] {
		return fmt.Errorf("field mapping %q: dataType %q is not a recognised FHIR primitive", f.ID, f.DataType)
	}
	return nil
}

// ResourceMapping is the full declarative rule set for transforming one
// source type to one target type in one direction.
type ResourceMapping struct {
	ID string `json:"id"`
	Name string `json:"name"`
	SourceType string `json:"sourceType"`
	TargetType string `json:"targetType"`
	Version string `json:"version"`
	Direction Direction `json:"direction"`
	FieldMappings []FieldMapping `json:"fieldMappings"`
}

// FHIRSideType returns whichever of SourceType/TargetType is expected to
// name a real FHIR resource type, per the mapping's direction.
func (m *ResourceMapping) FHIRSideType() string {
	if m.Direction == JSONToFHIR {
		return m.TargetType
	}
	return m.SourceType
}

// validateShape checks the ResourceMapping invariants that don't require
// external collaborators.
func (m *ResourceMapping) validateShape() error {
	if m.ID == "" {
		return fmt.Errorf("resource mapping: id is required")
	}
	if m.SourceType == "" || m.TargetType == "" {
		return fmt.Errorf("resource mapping %q: sourceType and targetType are required", m.ID)
	}
	if !m.Direction.Valid() {
		return fmt.Errorf("resource mapping %q: direction %q is not valid", m.ID, m.Direction)
	}
	seen := make(map[string]bool, len(m.FieldMappings))
	for i := range m.FieldMappings {
		fm := &m.FieldMappings[i]
		if err := fm.validateShape(); err != nil {
			return fmt.Errorf("resource mapping %q: %w", m.ID, err)
		}
		if seen[fm.ID] {
			return fmt.Errorf("resource mapping %q: duplicate field mapping id %q", m.ID, fm.ID)
		}
		seen[fm.ID] = true
	}
	return nil
}
