package logging

import (
	"errors"
	"fmt"

	"github.com/pradeepkk321/fhir-mapper/internal/fhirmapper"
	"github.com/pradeepkk321/fhir-mapper/internal/transform"
	"github.com/pradeepkk321/fhir-mapper/internal/validate"
)

// OperationOutcome issue severity levels, per FHIR R4.
const (
	IssueSeverityFatal = "fatal"
	IssueSeverityError = "error"
	IssueSeverityWarning = "warning"
	IssueSeverityInformation = "information"
)

// OperationOutcome issue type codes used by this engine's error taxonomy.
const (
	IssueTypeRequired = "required"
	IssueTypeValue = "value"
	IssueTypeInvalid = "invalid"
	IssueTypeProcessing = "processing"
	IssueTypeException = "exception"
)

// OperationOutcomeIssue is one finding within an OperationOutcome.
type OperationOutcomeIssue struct {
	Severity string `json:"severity"`
	Code string `json:"code"`
	Diagnostics string `json:"diagnostics,omitempty"`
	Expression []string `json:"expression,omitempty"`
}

// OperationOutcome is the minimal FHIR R4 OperationOutcome shape this engine
// reports errors and validator findings through, on both the CLI and the
// HTTP facade.
type OperationOutcome struct {
	ResourceType string `json:"resourceType"`
	Issue []OperationOutcomeIssue `json:"issue"`
}

// HasErrors reports whether the outcome carries an error or fatal issue.
func (o *OperationOutcome) HasErrors() bool {
	for _, issue := range o.Issue {
		if issue.Severity == IssueSeverityError || issue.Severity == IssueSeverityFatal {
			return true
		}
	}
	return false
}

// OutcomeBuilder is a fluent API for constructing an OperationOutcome.
type OutcomeBuilder struct {
	outcome *OperationOutcome
}

// NewOutcomeBuilder returns an empty OutcomeBuilder.
func NewOutcomeBuilder() *OutcomeBuilder {
	return &OutcomeBuilder{outcome: &OperationOutcome{ResourceType: "OperationOutcome"}}
}

// AddIssue appends a plain issue.
func (b *OutcomeBuilder) AddIssue(severity, code, diagnostics string) *OutcomeBuilder {
	b.outcome.Issue = append(b.outcome.Issue, OperationOutcomeIssue{Severity: severity, Code: code, Diagnostics: diagnostics})
	return b
}

// AddIssueWithLocation appends an issue carrying an expression/location path
// (the mapping/field id the issue concerns).
func (b *OutcomeBuilder) AddIssueWithLocation(severity, code, diagnostics, location string) *OutcomeBuilder {
	b.outcome.Issue = append(b.outcome.Issue, OperationOutcomeIssue{
		Severity: severity, Code: code, Diagnostics: diagnostics, Expression: []string{location},
	})
	return b
}

// Build returns the constructed OperationOutcome.
func (b *OutcomeBuilder) Build() *OperationOutcome {
	return b.outcome
}

// FromTransformError renders a transformation-time error into an
// OperationOutcome, classifying it against error taxonomy so callers
// get the right issue type/severity for each failure kind.
func FromTransformError(err error) *OperationOutcome {
	b := NewOutcomeBuilder()

	var te *transform.TransformError
	var dm *fhirmapper.DirectionMismatch
	var mnf *fhirmapper.MappingNotFound

	switch {
	case errors.As(err, &te):
		location := fmt.Sprintf("%s.%s", te.MappingID, te.FieldID)
		addClassifiedIssue(b, te.Err, location)
	case errors.As(err, &dm):
		b.AddIssueWithLocation(IssueSeverityFatal, IssueTypeProcessing, dm.Error(), dm.MappingID)
	case errors.As(err, &mnf):
		b.AddIssue(IssueSeverityError, "not-found", mnf.Error())
	default:
		b.AddIssue(IssueSeverityFatal, IssueTypeException, err.Error())
	}

	return b.Build()
}

func addClassifiedIssue(b *OutcomeBuilder, err error, location string) {
	var rfm *transform.RequiredFieldMissing
	var lm *transform.LookupMiss
	var vf *transform.ValidationFailure

	switch {
	case errors.As(err, &rfm):
		b.AddIssueWithLocation(IssueSeverityError, IssueTypeRequired, err.Error(), location)
	case errors.As(err, &lm):
		b.AddIssueWithLocation(IssueSeverityError, IssueTypeValue, err.Error(), location)
	case errors.As(err, &vf):
		b.AddIssueWithLocation(IssueSeverityError, IssueTypeInvalid, err.Error(), location)
	default:
		b.AddIssueWithLocation(IssueSeverityFatal, IssueTypeException, err.Error(), location)
	}
}

// FromValidationResult renders a validator run into an
// OperationOutcome: one "error" issue per Result.Errors, one "warning" per
// Result.Warnings.
func FromValidationResult(res *validate.Result) *OperationOutcome {
	b := NewOutcomeBuilder()
	for _, e := range res.Errors {
		b.AddIssue(IssueSeverityError, IssueTypeInvalid, e)
	}
	for _, w := range res.Warnings {
		b.AddIssue(IssueSeverityWarning, IssueTypeInvalid, w)
	}
	return b.Build()
}
