package mapping

import "fmt"

// ErrNotBidirectional is returned by LookupSource when the table was not
// declared bidirectional.
var ErrNotBidirectional = fmt.Errorf("mapping: lookup table is not bidirectional")

// CodeLookupTable translates codes between a source and a target
// vocabulary, e.g. an internal gender code and the FHIR AdministrativeGender
// code system.
type CodeLookupTable struct {
	ID string `json:"id"`
	Name string `json:"name"`
	SourceSystem string `json:"sourceSystem"`
	TargetSystem string `json:"targetSystem"`
	Bidirectional bool `json:"bidirectional"`
	DefaultSourceCode string `json:"defaultSourceCode,omitempty"`
	DefaultTargetCode string `json:"defaultTargetCode,omitempty"`
	Mappings []CodeMapping `json:"mappings"`

	bySource map[string]string
	byTarget map[string]string
}

// Build validates the table's invariants and constructs its forward
// (always) and reverse (only if Bidirectional) indices. It must be called
// once after the table is decoded and before any lookup is performed; the
// loader does this for every table it reads.
func (t *CodeLookupTable) Build() error {
	if t.ID == "" {
		return fmt.Errorf("lookup table: id is required")
	}
	if len(t.Mappings) == 0 {
		return fmt.Errorf("lookup table %q: at least one mapping is required", t.ID)
	}

	bySource := make(map[string]string, len(t.Mappings))
	var byTarget map[string]string
	if t.Bidirectional {
		byTarget = make(map[string]string, len(t.Mappings))
	}

	for _, cm := range t.Mappings {
		if cm.SourceCode == "" || cm.TargetCode == "" {
			return fmt.Errorf("lookup table %q: source and target codes must be non-empty", t.ID)
		}
		if _, dup := bySource[cm.SourceCode]; dup {
			return fmt.Errorf("lookup table %q: duplicate sourceCode %q", t.ID, cm.SourceCode)
		}
		bySource[cm.SourceCode] = cm.TargetCode

		if t.Bidirectional {
			if _, dup := byTarget[cm.TargetCode]; dup {
				return fmt.Errorf("lookup table %q: duplicate targetCode %q in bidirectional table", t.ID, cm.TargetCode)
			}
			byTarget[cm.TargetCode] = cm.SourceCode
		}
	}

	t.bySource = bySource
	t.byTarget = byTarget
	return nil
}

// LookupTarget translates a source code to its target code. If code is
// unknown, DefaultTargetCode is returned when set; otherwise ok is false.
func (t *CodeLookupTable) LookupTarget(code string) (string, bool) {
	if target, ok := t.bySource[code]; ok {
		return target, true
	}
	if t.DefaultTargetCode != "" {
		return t.DefaultTargetCode, true
	}
	return "", false
}

// LookupSource translates a target code back to its source code. Requires
// the table to be bidirectional.
func (t *CodeLookupTable) LookupSource(code string) (string, bool, error) {
	if !t.Bidirectional {
		return "", false, ErrNotBidirectional
	}
	if source, ok := t.byTarget[code]; ok {
		return source, true, nil
	}
	if t.DefaultSourceCode != "" {
		return t.DefaultSourceCode, true, nil
	}
	return "", false, nil
}
