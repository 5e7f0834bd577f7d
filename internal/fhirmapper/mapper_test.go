package fhirmapper

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/pradeepkk321/fhir-mapper/internal/expr"
	"github.com/pradeepkk321/fhir-mapper/internal/fhirbridge"
	"github.com/pradeepkk321/fhir-mapper/internal/mapping"
	"github.com/pradeepkk321/fhir-mapper/internal/transform"
	"github.com/pradeepkk321/fhir-mapper/internal/validate"
)

type patientRecord struct {
	PatientID string `json:"patientId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Gender    string `json:"gender"`
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func seedBaseDir(t *testing.T) string {
	t.Helper()
	base := t.TempDir()

	writeFile(t, filepath.Join(base, "lookups", "gender-codes.json"), `{
		"id": "gender-codes",
		"name": "Gender codes",
		"sourceSystem": "internal",
		"targetSystem": "http://hl7.org/fhir/administrative-gender",
		"bidirectional": true,
		"mappings": [
			{"sourceCode": "M", "targetCode": "male"},
			{"sourceCode": "F", "targetCode": "female"}
		]
	}`)

	writeFile(t, filepath.Join(base, "resources", "patient-in.json"), `{
		"id": "patient-in",
		"name": "Patient inbound",
		"sourceType": "PatientRecord",
		"targetType": "Patient",
		"version": "1.0.0",
		"direction": "JSON_TO_FHIR",
		"fieldMappings": [
			{"id": "patient-identifier", "sourcePath": "patientId", "targetPath": "identifier[0].value", "required": true},
			{"id": "first-name", "sourcePath": "firstName", "targetPath": "name[0].given[0]"},
			{"id": "last-name", "sourcePath": "lastName", "targetPath": "name[0].family"},
			{"id": "gender", "sourcePath": "gender", "targetPath": "gender", "lookupTable": "gender-codes"}
		]
	}`)

	writeFile(t, filepath.Join(base, "resources", "patient-out.json"), `{
		"id": "patient-out",
		"name": "Patient outbound",
		"sourceType": "Patient",
		"targetType": "PatientRecord",
		"version": "1.0.0",
		"direction": "FHIR_TO_JSON",
		"fieldMappings": [
			{"id": "patient-identifier", "sourcePath": "identifier[0].value", "targetPath": "patientId", "required": true},
			{"id": "first-name", "sourcePath": "name[0].given[0]", "targetPath": "firstName"},
			{"id": "last-name", "sourcePath": "name[0].family", "targetPath": "lastName"},
			{"id": "gender", "sourcePath": "gender", "targetPath": "gender", "lookupTable": "gender-codes"}
		]
	}`)

	return base
}

func newTestMapper(t *testing.T) *Mapper {
	t.Helper()
	base := seedBaseDir(t)

	build := func(dir string) (*mapping.Registry, error) {
		loaded, err := mapping.LoadDir(dir)
		if err != nil {
			return nil, err
		}
		reg, _, err := mapping.NewRegistry("R4", loaded.ResourceMappings, loaded.LookupTables)
		if err != nil {
			return nil, err
		}
		res := validate.Registry(reg, fhirbridge.BuiltinCatalogue(), expr.NewEvaluator())
		if res.HasErrors() {
			t.Fatalf("unexpected validation errors: %v", res.Errors)
		}
		return reg, nil
	}

	store, err := mapping.NewStore(base, build, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	interp := transform.NewInterpreter(expr.NewEvaluator())
	bridge := fhirbridge.NewDefaultBridge()
	return NewMapper(store, interp, bridge, NewJSONObjectMarshaller())
}

func TestMapperToFHIRJSON(t *testing.T) {
	m := newTestMapper(t)
	out, err := m.ToFHIRJSON("patient-in", `{"patientId":"P123","firstName":"John","lastName":"Doe","gender":"M"}`, mapping.NewContext())
	if err != nil {
		t.Fatalf("ToFHIRJSON: %v", err)
	}
	if out == "" {
		t.Fatalf("expected non-empty output")
	}
}

func TestMapperToFHIRResourceAndBack(t *testing.T) {
	m := newTestMapper(t)
	ctx := mapping.NewContext()

	resource, err := m.ToFHIRResource("patient-in", `{"patientId":"P123","firstName":"John","lastName":"Doe","gender":"M"}`, ctx)
	if err != nil {
		t.Fatalf("ToFHIRResource: %v", err)
	}
	if resource.ResourceType() != "Patient" {
		t.Fatalf("got resource type %q, want Patient", resource.ResourceType())
	}

	back, err := m.FromFHIRResource("patient-out", resource, ctx)
	if err != nil {
		t.Fatalf("FromFHIRResource: %v", err)
	}
	if back == "" {
		t.Fatalf("expected non-empty flat JSON")
	}
}

func TestMapperDirectionMismatch(t *testing.T) {
	m := newTestMapper(t)
	_, err := m.FromFHIRTree("patient-in", nil, mapping.NewContext())
	var dm *DirectionMismatch
	if !errors.As(err, &dm) {
		t.Fatalf("expected *DirectionMismatch, got %v", err)
	}
}

func TestMapperObjectRoundTrip(t *testing.T) {
	m := newTestMapper(t)
	src := patientRecord{PatientID: "P123", FirstName: "John", LastName: "Doe", Gender: "M"}

	target, err := m.ToFHIRFromObject("patient-in", src, mapping.NewContext())
	if err != nil {
		t.Fatalf("ToFHIRFromObject: %v", err)
	}

	var out patientRecord
	if err := m.FromFHIRToObject("patient-out", target, mapping.NewContext(), &out); err != nil {
		t.Fatalf("FromFHIRToObject: %v", err)
	}
	if out != src {
		t.Fatalf("got %+v, want %+v", out, src)
	}
}

func TestMapperMappingNotFound(t *testing.T) {
	m := newTestMapper(t)
	_, err := m.ToFHIRJSON("does-not-exist", `{}`, mapping.NewContext())
	var nf *MappingNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected *MappingNotFound, got %v", err)
	}
}
