package logging

import (
	"testing"

	"github.com/pradeepkk321/fhir-mapper/internal/fhirmapper"
	"github.com/pradeepkk321/fhir-mapper/internal/mapping"
	"github.com/pradeepkk321/fhir-mapper/internal/transform"
	"github.com/pradeepkk321/fhir-mapper/internal/validate"
)

func TestFromTransformErrorRequiredFieldMissing(t *testing.T) {
	err := &transform.TransformError{MappingID: "patient-in", FieldID: "patient-identifier", Err: &transform.RequiredFieldMissing{FieldID: "patient-identifier"}}
	outcome := FromTransformError(err)
	if !outcome.HasErrors() {
		t.Fatalf("expected the outcome to carry an error issue")
	}
	if outcome.Issue[0].Code != IssueTypeRequired {
		t.Fatalf("got code %q, want %q", outcome.Issue[0].Code, IssueTypeRequired)
	}
	if len(outcome.Issue[0].Expression) != 1 || outcome.Issue[0].Expression[0] != "patient-in.patient-identifier" {
		t.Fatalf("got expression %v, want [patient-in.patient-identifier]", outcome.Issue[0].Expression)
	}
}

func TestFromTransformErrorDirectionMismatch(t *testing.T) {
	err := &fhirmapper.DirectionMismatch{MappingID: "m", Want: mapping.JSONToFHIR, Declared: mapping.FHIRToJSON}
	outcome := FromTransformError(err)
	if !outcome.HasErrors() {
		t.Fatalf("expected the outcome to carry an error issue")
	}
}

func TestFromValidationResult(t *testing.T) {
	res := &validate.Result{Errors: []string{"bad thing"}, Warnings: []string{"minor thing"}}
	outcome := FromValidationResult(res)
	if len(outcome.Issue) != 2 {
		t.Fatalf("got %d issues, want 2", len(outcome.Issue))
	}
	if !outcome.HasErrors() {
		t.Fatalf("expected HasErrors to be true")
	}
}
