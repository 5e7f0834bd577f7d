package transform

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pradeepkk321/fhir-mapper/internal/mapping"
	"github.com/pradeepkk321/fhir-mapper/internal/tree"
)

var (
	regexLiteral = regexp.MustCompile(`^regex\('(.*)'\)$`)
	rangeLiteral = regexp.MustCompile(`^range\(\s*(-?\d+(?:\.\d+)?)\s*,\s*(-?\d+(?:\.\d+)?)\s*\)$`)
)

// runValidator applies a field's `validator` literal to its post-transform
// value. An unrecognised literal is
// permissive at transform time — the validator pipeline already warns about
// it at load time — so it never fails a running
// transformation.
func runValidator(fm *mapping.FieldMapping, v tree.Value) error {
	switch {
	case fm.Validator == "notEmpty()":
		if isEmpty(v) {
			return &ValidationFailure{FieldID: fm.ID, Validator: fm.Validator, Value: v}
		}
	case regexLiteral.MatchString(fm.Validator):
		m := regexLiteral.FindStringSubmatch(fm.Validator)
		re, err := regexp.Compile(m[1])
		if err != nil {
			return err
		}
		if !re.MatchString(tree.Stringify(v)) {
			return &ValidationFailure{FieldID: fm.ID, Validator: fm.Validator, Value: v}
		}
	case rangeLiteral.MatchString(fm.Validator):
		m := rangeLiteral.FindStringSubmatch(fm.Validator)
		min, _ := strconv.ParseFloat(m[1], 64)
		max, _ := strconv.ParseFloat(m[2], 64)
		num, ok := asFloat(v)
		if !ok || num < min || num > max {
			return &ValidationFailure{FieldID: fm.ID, Validator: fm.Validator, Value: v}
		}
	}
	return nil
}

func isEmpty(v tree.Value) bool {
	if tree.IsNull(v) {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func asFloat(v tree.Value) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
