package expr

import (
	"strings"

	"github.com/pradeepkk321/fhir-mapper/internal/mapping"
)

// buildCtxMap flattens a mapping.Context into the map bound to the `ctx`
// identifier inside expressions, implementing the resolution table:
//
//	$ctx.organizationId -> ctx.OrganizationID
//	$ctx.facilityId -> ctx.FacilityID
//	$ctx.tenantId -> ctx.TenantID
//	$ctx.settings['key'] -> ctx.Settings[key]
//	$ctx.<anything else> -> ctx.Variables[<anything else>]
//
// Variables are merged first so the three reserved names always win if a
// caller also happens to set a same-named variable.
func buildCtxMap(ctx *mapping.Context) map[string]interface{} {
	out := make(map[string]interface{})
	if ctx == nil {
		return out
	}
	for k, v := range ctx.Variables {
		out[k] = v
	}
	out["organizationId"] = ctx.OrganizationID
	out["facilityId"] = ctx.FacilityID
	out["tenantId"] = ctx.TenantID
	settings := make(map[string]interface{}, len(ctx.Settings))
	for k, v := range ctx.Settings {
		settings[k] = v
	}
	out["settings"] = settings
	return out
}

// ResolveDefaultValue implements the defaultValue-specific half of: a
// defaultValue whose entire string is a bare "$ctx...." reference resolves
// to the referenced object itself (not a literal string containing it). Any
// other defaultValue, including one that merely *contains* "$ctx.", passes
// through unchanged — only expressions get token-level rewriting
// (see normalize); defaultValue substitution is all-or-nothing.
func ResolveDefaultValue(ctx *mapping.Context, raw interface{}) interface{} {
	str, ok := raw.(string)
	if !ok || !strings.HasPrefix(str, "$ctx.") {
		return raw
	}
	path := strings.TrimPrefix(str, "$ctx.")
	v, _ := resolveCtxPath(ctx, path)
	return v
}

// resolveCtxPath resolves a dotted/bracketed path already stripped of its
// leading "$ctx." against ctx, per the table. Unresolved references
// return (nil, false) — callers treat unresolved as nil.
func resolveCtxPath(ctx *mapping.Context, path string) (interface{}, bool) {
	if ctx == nil {
		return nil, false
	}
	switch {
	case path == "organizationId":
		return ctx.OrganizationID, true
	case path == "facilityId":
		return ctx.FacilityID, true
	case path == "tenantId":
		return ctx.TenantID, true
	case strings.HasPrefix(path, "settings["), strings.HasPrefix(path, "settings."):
		key := settingsKey(path)
		if key == "" {
			return nil, false
		}
		v, ok := ctx.Setting(key)
		if !ok {
			return nil, false
		}
		return v, true
	default:
		return ctx.Variable(path)
	}
}

// settingsKey extracts key out of "settings['key']", `settings["key"]`, or
// "settings.key".
func settingsKey(path string) string {
	rest := strings.TrimPrefix(path, "settings")
	rest = strings.TrimPrefix(rest, ".")
	rest = strings.TrimPrefix(rest, "[")
	rest = strings.TrimSuffix(rest, "]")
	rest = strings.Trim(rest, `'"`)
	return rest
}
