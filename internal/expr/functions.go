package expr

import (
	"strings"
	"time"
)

// fnNamespace is the `fn.*` builtin namespace exposed to every condition and
// transform expression. Every function is nil-safe: a nil input
// returns nil rather than panicking, so a missing source field short-circuits
// a transform chain instead of aborting it. The one exception is concat,
// which renders nil arguments as the empty string.
var fnNamespace = map[string]interface{}{
	"uppercase": fnUppercase,
	"lowercase": fnLowercase,
	"trim": fnTrim,
	"substring": fnSubstring,
	"concat": fnConcat,
	"replace": fnReplace,
	"formatDate": fnFormatDate,
}

func fnUppercase(s interface{}) interface{} {
	str, ok := asString(s)
	if !ok {
		return nil
	}
	return strings.ToUpper(str)
}

func fnLowercase(s interface{}) interface{} {
	str, ok := asString(s)
	if !ok {
		return nil
	}
	return strings.ToLower(str)
}

func fnTrim(s interface{}) interface{} {
	str, ok := asString(s)
	if !ok {
		return nil
	}
	return strings.TrimSpace(str)
}

// fnSubstring implements substring(s, start, end): 0-based, end-exclusive.
// Out-of-range bounds are clamped rather than erroring, matching the
// permissive tone of the rest of the sublanguage.
func fnSubstring(s interface{}, start, end int) interface{} {
	str, ok := asString(s)
	if !ok {
		return nil
	}
	runes := []rune(str)
	if start < 0 {
		start = 0
	}
	if start > len(runes) {
		start = len(runes)
	}
	if end > len(runes) {
		end = len(runes)
	}
	if end < start {
		end = start
	}
	return string(runes[start:end])
}

// fnConcat joins its arguments' string forms with no separator. Non-string
// scalars are rendered with their natural formatting; nil arguments render
// as the empty string.
func fnConcat(parts...interface{}) interface{} {
	var b strings.Builder
	for _, p := range parts {
		str, _ := asString(p)
		b.WriteString(str)
	}
	return b.String()
}

func fnReplace(s, old, new interface{}) interface{} {
	str, ok := asString(s)
	if !ok {
		return nil
	}
	oldStr, _ := asString(old)
	newStr, _ := asString(new)
	return strings.ReplaceAll(str, oldStr, newStr)
}

// fnFormatDate parses value (RFC3339, or a bare YYYY-MM-DD date) and
// re-renders it using layout as a Go reference-time layout string.
func fnFormatDate(value interface{}, layout interface{}) interface{} {
	str, ok := asString(value)
	if !ok || str == "" {
		return nil
	}
	layoutStr, ok := asString(layout)
	if !ok || layoutStr == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, str)
	if err != nil {
		t, err = time.Parse("2006-01-02", str)
		if err != nil {
			return nil
		}
	}
	return t.Format(layoutStr)
}

func asString(v interface{}) (string, bool) {
	if v == nil {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	return "", false
}
