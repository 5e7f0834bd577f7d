package transform

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/pradeepkk321/fhir-mapper/internal/expr"
	"github.com/pradeepkk321/fhir-mapper/internal/mapping"
	"github.com/pradeepkk321/fhir-mapper/internal/tree"
)

func decodeDoc(t *testing.T, js string) *tree.Map {
	t.Helper()
	m, err := tree.Decode([]byte(js))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return m
}

func encodeDoc(t *testing.T, m *tree.Map) string {
	t.Helper()
	data, err := tree.Encode(m)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return string(data)
}

func genderLookup(bidirectional bool) *mapping.CodeLookupTable {
	lt := &mapping.CodeLookupTable{
		ID: "gender-codes",
		SourceSystem: "internal",
		TargetSystem: "http://hl7.org/fhir/administrative-gender",
		Bidirectional: bidirectional,
		Mappings: []mapping.CodeMapping{
			{SourceCode: "M", TargetCode: "male"},
			{SourceCode: "F", TargetCode: "female"},
		},
	}
	if err := lt.Build(); err != nil {
		panic(err)
	}
	return lt
}

func lookupResolver(tables...*mapping.CodeLookupTable) LookupTableResolver {
	byID := make(map[string]*mapping.CodeLookupTable, len(tables))
	for _, lt := range tables {
		byID[lt.ID] = lt
	}
	return func(id string) (*mapping.CodeLookupTable, bool) {
		lt, ok := byID[id]
		return lt, ok
	}
}

// scenario1Mapping mirrors spec.md scenario 1.
func scenario1Mapping() *mapping.ResourceMapping {
	return &mapping.ResourceMapping{
		ID: "patient-in",
		SourceType: "PatientRecord",
		TargetType: "Patient",
		Direction: mapping.JSONToFHIR,
		FieldMappings: []mapping.FieldMapping{
			{ID: "patient-identifier", SourcePath: "patientId", TargetPath: "identifier[0].value", Required: true},
			{ID: "identifier-system", TargetPath: "identifier[0].system", DefaultValue: "$ctx.settings['identifierSystem']"},
			{ID: "first-name", SourcePath: "firstName", TargetPath: "name[0].given[0]"},
			{ID: "last-name", SourcePath: "lastName", TargetPath: "name[0].family"},
			{ID: "gender", SourcePath: "gender", TargetPath: "gender", LookupTable: "gender-codes"},
		},
	}
}

func scenario1Context() *mapping.Context {
	ctx := mapping.NewContext()
	ctx.Settings["identifierSystem"] = "urn:oid:2.16.840.1.113883.4.1"
	return ctx
}

func TestScenario1MinimalJSONToFHIR(t *testing.T) {
	interp := NewInterpreter(expr.NewEvaluator())
	source := decodeDoc(t, `{"patientId":"P123","firstName":"John","lastName":"Doe","gender":"M"}`)

	out, err := interp.Run(scenario1Mapping(), source, scenario1Context(), lookupResolver(genderLookup(false)))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := encodeDoc(t, out)
	want := `{"resourceType":"Patient","identifier":[{"value":"P123","system":"urn:oid:2.16.840.1.113883.4.1"}],"name":[{"given":["John"],"family":"Doe"}],"gender":"male"}`
	if got != want {
		t.Fatalf("got %s\nwant %s", got, want)
	}
}

func scenario2Mapping() *mapping.ResourceMapping {
	return &mapping.ResourceMapping{
		ID: "patient-out",
		SourceType: "Patient",
		TargetType: "PatientRecord",
		Direction: mapping.FHIRToJSON,
		FieldMappings: []mapping.FieldMapping{
			{ID: "patient-identifier", SourcePath: "identifier[0].value", TargetPath: "patientId", Required: true},
			{ID: "first-name", SourcePath: "name[0].given[0]", TargetPath: "firstName"},
			{ID: "last-name", SourcePath: "name[0].family", TargetPath: "lastName"},
			{ID: "gender", SourcePath: "gender", TargetPath: "gender", LookupTable: "gender-codes"},
		},
	}
}

func TestScenario2FHIRToJSONReverse(t *testing.T) {
	interp := NewInterpreter(expr.NewEvaluator())
	source := decodeDoc(t, `{"resourceType":"Patient","identifier":[{"value":"P123","system":"urn:oid:2.16.840.1.113883.4.1"}],"name":[{"given":["John"],"family":"Doe"}],"gender":"male"}`)

	out, err := interp.Run(scenario2Mapping(), source, mapping.NewContext(), lookupResolver(genderLookup(true)))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var got map[string]interface{}
	if err := json.Unmarshal([]byte(encodeDoc(t, out)), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := map[string]interface{}{"patientId": "P123", "firstName": "John", "lastName": "Doe", "gender": "M"}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("field %q: got %v, want %v (full: %v)", k, got[k], v, got)
		}
	}
}

func TestScenario3RequiredMissing(t *testing.T) {
	interp := NewInterpreter(expr.NewEvaluator())
	source := decodeDoc(t, `{"firstName":"John","lastName":"Doe","gender":"M"}`)

	_, err := interp.Run(scenario1Mapping(), source, scenario1Context(), lookupResolver(genderLookup(false)))
	if err == nil {
		t.Fatalf("expected an error for a missing required field")
	}
	var te *TransformError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TransformError, got %T: %v", err, err)
	}
	if te.FieldID != "patient-identifier" {
		t.Fatalf("got field id %q, want patient-identifier", te.FieldID)
	}
	var rfm *RequiredFieldMissing
	if !errors.As(err, &rfm) {
		t.Fatalf("expected a wrapped *RequiredFieldMissing, got %v", err)
	}
}

func TestScenario4LookupMiss(t *testing.T) {
	interp := NewInterpreter(expr.NewEvaluator())
	source := decodeDoc(t, `{"patientId":"P123","firstName":"John","lastName":"Doe","gender":"X"}`)

	out, err := interp.Run(scenario1Mapping(), source, scenario1Context(), lookupResolver(genderLookup(false)))
	if err != nil {
		t.Fatalf("Run: %v (gender is optional, so a lookup miss should be swallowed)", err)
	}
	if v, _, _ := tree.Get(out, "gender"); v != nil {
		t.Fatalf("expected gender to be omitted after a lookup miss, got %v", v)
	}

	rm := scenario1Mapping()
	rm.FieldMappings[len(rm.FieldMappings)-1].Required = true
	_, err = interp.Run(rm, source, scenario1Context(), lookupResolver(genderLookup(false)))
	if err == nil {
		t.Fatalf("expected an error when the lookup-missing field is required")
	}
	var lm *LookupMiss
	if !errors.As(err, &lm) {
		t.Fatalf("expected a wrapped *LookupMiss, got %v", err)
	}
}

func scenario5Mapping() *mapping.ResourceMapping {
	rm := scenario1Mapping()
	rm.FieldMappings = append(rm.FieldMappings, mapping.FieldMapping{
		ID: "ssn-identifier", SourcePath: "ssn", TargetPath: "identifier[1].value",
		Condition: "ssn != nil",
	})
	return rm
}

func TestScenario5ConditionGating(t *testing.T) {
	interp := NewInterpreter(expr.NewEvaluator())

	withoutSSN := decodeDoc(t, `{"patientId":"P123","firstName":"John","lastName":"Doe","gender":"M"}`)
	out, err := interp.Run(scenario5Mapping(), withoutSSN, scenario1Context(), lookupResolver(genderLookup(false)))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	identifiers, _, _ := tree.Get(out, "identifier")
	list, ok := identifiers.(*tree.List)
	if !ok || list.Len() != 1 {
		t.Fatalf("expected exactly one identifier without ssn, got %v", identifiers)
	}

	withSSN := decodeDoc(t, `{"patientId":"P123","firstName":"John","lastName":"Doe","gender":"M","ssn":"123-45-6789"}`)
	out, err = interp.Run(scenario5Mapping(), withSSN, scenario1Context(), lookupResolver(genderLookup(false)))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	identifiers, _, _ = tree.Get(out, "identifier")
	list, ok = identifiers.(*tree.List)
	if !ok || list.Len() != 2 {
		t.Fatalf("expected two identifiers with ssn present, got %v", identifiers)
	}
}

func TestScenario6Transform(t *testing.T) {
	interp := NewInterpreter(expr.NewEvaluator())
	rm := &mapping.ResourceMapping{
		ID: "uppercase-family",
		SourceType: "PatientRecord",
		TargetType: "Patient",
		Direction: mapping.JSONToFHIR,
		FieldMappings: []mapping.FieldMapping{
			{ID: "last-name", SourcePath: "lastName", TargetPath: "name[0].family", TransformExpression: "fn:uppercase(value)"},
		},
	}
	source := decodeDoc(t, `{"lastName":"Doe"}`)

	out, err := interp.Run(rm, source, mapping.NewContext(), lookupResolver())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	family, _, _ := tree.Get(out, "name[0].family")
	if family != "DOE" {
		t.Fatalf("got %v, want DOE", family)
	}
}
