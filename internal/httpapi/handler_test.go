package httpapi

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/pradeepkk321/fhir-mapper/internal/expr"
	"github.com/pradeepkk321/fhir-mapper/internal/fhirbridge"
	"github.com/pradeepkk321/fhir-mapper/internal/fhirmapper"
	"github.com/pradeepkk321/fhir-mapper/internal/mapping"
	"github.com/pradeepkk321/fhir-mapper/internal/transform"
	"github.com/pradeepkk321/fhir-mapper/internal/validate"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func testServer(t *testing.T) (*mapping.Store, http.Handler) {
	t.Helper()
	base := t.TempDir()

	writeFile(t, filepath.Join(base, "resources", "patient-in.json"), `{
		"id": "patient-in",
		"name": "Patient inbound",
		"sourceType": "PatientRecord",
		"targetType": "Patient",
		"version": "1.0.0",
		"direction": "JSON_TO_FHIR",
		"fieldMappings": [
			{"id": "patient-identifier", "sourcePath": "patientId", "targetPath": "identifier[0].value", "required": true}
		]
	}`)

	build := func(dir string) (*mapping.Registry, error) {
		loaded, err := mapping.LoadDir(dir)
		if err != nil {
			return nil, err
		}
		reg, _, err := mapping.NewRegistry("R4", loaded.ResourceMappings, loaded.LookupTables)
		if err != nil {
			return nil, err
		}
		if res := validate.Registry(reg, fhirbridge.BuiltinCatalogue(), expr.NewEvaluator()); res.HasErrors() {
			t.Fatalf("unexpected validation errors: %v", res.Errors)
		}
		return reg, nil
	}

	store, err := mapping.NewStore(base, build, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	mapper := fhirmapper.NewMapper(store, transform.NewInterpreter(expr.NewEvaluator()), fhirbridge.NewDefaultBridge(), fhirmapper.NewJSONObjectMarshaller())
	return store, NewServer(mapper, store, zerolog.Nop())
}

func TestHealthz(t *testing.T) {
	_, srv := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rec.Code)
	}
}

func TestTransformEndpoint(t *testing.T) {
	_, srv := testServer(t)
	body := `{"direction":"toFHIR","input":"{\"patientId\":\"P123\"}"}`
	req := httptest.NewRequest(http.MethodPost, "/transform/patient-in", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"resourceType":"Patient"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestTransformEndpointRequiredFieldMissing(t *testing.T) {
	_, srv := testServer(t)
	body := `{"direction":"toFHIR","input":"{}"}`
	req := httptest.NewRequest(http.MethodPost, "/transform/patient-in", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("got status %d, want 422, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"resourceType":"OperationOutcome"`) {
		t.Fatalf("expected an OperationOutcome body, got %s", rec.Body.String())
	}
}
