package mapping

// Context carries per-request scalar and key-value substitution values used
// by the expression evaluator and default-value substitution. A
// Context is constructed per request and must not be shared across
// concurrent transformations that might mutate it — the interpreter itself
// treats it as read-only.
type Context struct {
	OrganizationID string
	FacilityID string
	TenantID string
	Variables map[string]interface{}
	Settings map[string]string
}

// NewContext returns a Context with initialised, empty Variables/Settings
// maps so callers can populate it without nil-checking.
func NewContext() *Context {
	return &Context{
		Variables: make(map[string]interface{}),
		Settings: make(map[string]string),
	}
}

// Setting returns ctx.Settings[key], or "" if ctx is nil or the key is unset.
func (c *Context) Setting(key string) (string, bool) {
	if c == nil || c.Settings == nil {
		return "", false
	}
	v, ok := c.Settings[key]
	return v, ok
}

// Variable returns ctx.Variables[name], or nil/false if ctx is nil or the
// name is unset.
func (c *Context) Variable(name string) (interface{}, bool) {
	if c == nil || c.Variables == nil {
		return nil, false
	}
	v, ok := c.Variables[name]
	return v, ok
}
