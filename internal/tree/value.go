// Package tree implements the recursive document value used throughout the
// mapper: every input record and every FHIR-shaped document is represented
// as one of {scalar, ordered list, ordered keyed map}. All other packages in
// this module traffic exclusively in this shape.
package tree

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Value is any node in the tree: nil, bool, string, float64/int, *Map, or
// *List. Scalars are plain Go values; *Map and *List carry identity so that
// the path navigator can materialise and mutate nested containers in place.
type Value = interface{}

// Map is an insertion-order-preserving string-keyed map. Output determinism
// depends on this: a plain Go map would
// randomise key order on every JSON encode.
type Map struct {
	keys []string
	values map[string]Value
}

// NewMap returns an empty, ready-to-use Map.
func NewMap() *Map {
	return &Map{values: make(map[string]Value)}
}

// Get returns the value stored under key and whether it was present.
func (m *Map) Get(key string) (Value, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Set assigns value to key, appending key to the insertion order the first
// time it is seen. Re-setting an existing key preserves its original
// position.
func (m *Map) Set(key string, value Value) {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Delete removes key, if present.
func (m *Map) Delete(key string) {
	if _, exists := m.values[key]; !exists {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order. The caller must not mutate the
// returned slice.
func (m *Map) Keys() []string {
	return m.keys
}

// Len returns the number of entries.
func (m *Map) Len() int {
	return len(m.keys)
}

// MarshalJSON encodes the map preserving key order, since encoding/json's
// default map handling sorts keys alphabetically.
func (m *Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object into the map, preserving the order
// fields appear in the source document.
func (m *Map) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("tree: expected object, got %v", tok)
	}

	*m = Map{values: make(map[string]Value)}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("tree: expected string key, got %v", keyTok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		val, err := decodeValue(raw)
		if err != nil {
			return err
		}
		m.Set(key, val)
	}
	// consume closing '}'
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// List is an ordered sequence of values. Unlike Map, a bare Go slice would
// be sufficient for ordering, but List is kept as a pointer type so that the
// path navigator can grow it in place without the caller re-assigning the
// parent's slot.
type List struct {
	items []Value
}

// NewList returns an empty List.
func NewList() *List {
	return &List{}
}

// NewListFrom wraps an existing slice.
func NewListFrom(items []Value) *List {
	return &List{items: items}
}

// Get returns the item at i and whether i is in range.
func (l *List) Get(i int) (Value, bool) {
	if i < 0 || i >= len(l.items) {
		return nil, false
	}
	return l.items[i], true
}

// Set assigns the item at i, growing the list with nil placeholders if i is
// beyond the current length.
func (l *List) Set(i int, value Value) {
	l.grow(i + 1)
	l.items[i] = value
}

func (l *List) grow(size int) {
	for len(l.items) < size {
		l.items = append(l.items, nil)
	}
}

// Len returns the number of items.
func (l *List) Len() int {
	return len(l.items)
}

// Items returns the underlying slice. The caller must not mutate it.
func (l *List) Items() []Value {
	return l.items
}

// MarshalJSON encodes the list as a JSON array.
func (l *List) MarshalJSON() ([]byte, error) {
	if l.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.items)
}

// UnmarshalJSON decodes a JSON array into the list.
func (l *List) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}
	items := make([]Value, 0, len(raws))
	for _, raw := range raws {
		v, err := decodeValue(raw)
		if err != nil {
			return err
		}
		items = append(items, v)
	}
	l.items = items
	return nil
}

// decodeValue decodes a single JSON value into a Value, dispatching to Map
// or List for containers and to native Go scalars otherwise.
func decodeValue(raw json.RawMessage) (Value, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil
	}
	switch trimmed[0] {
	case '{':
		m := NewMap()
		if err := m.UnmarshalJSON(trimmed); err != nil {
			return nil, err
		}
		return m, nil
	case '[':
		l := NewList()
		if err := l.UnmarshalJSON(trimmed); err != nil {
			return nil, err
		}
		return l, nil
	default:
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		var v interface{}
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		if num, ok := v.(json.Number); ok {
			if f, err := num.Float64(); err == nil {
				return f, nil
			}
			return num.String(), nil
		}
		return v, nil
	}
}

// Decode parses a JSON document into a tree Value rooted at a *Map.
func Decode(data []byte) (*Map, error) {
	m := NewMap()
	if err := m.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("tree: decode: %w", err)
	}
	return m, nil
}

// Encode serialises a tree Value back to canonical JSON.
func Encode(v Value) ([]byte, error) {
	return json.Marshal(v)
}

// IsMissing reports whether a (Value, bool) read result from Get denotes an
// absent node. Kept as a tiny helper so callers read naturally:
// if tree.IsMissing(v, ok) {... }.
func IsMissing(_ Value, found bool) bool {
	return !found
}

// IsNull reports whether v is the tree's null scalar.
func IsNull(v Value) bool {
	return v == nil
}

// ToNative recursively converts a Value into plain Go map[string]interface{}
// / []interface{} / scalars, unwrapping *Map and *List. Used wherever a
// consumer outside this package (the expression evaluator's document
// bindings, primarily) needs ordinary Go container types instead of the
// tree's identity-preserving pointer types.
func ToNative(v Value) interface{} {
	switch t := v.(type) {
	case *Map:
		out := make(map[string]interface{}, t.Len())
		for _, k := range t.keys {
			out[k] = ToNative(t.values[k])
		}
		return out
	case *List:
		out := make([]interface{}, len(t.items))
		for i, item := range t.items {
			out[i] = ToNative(item)
		}
		return out
	default:
		return v
	}
}

// Stringify renders a scalar Value as a string for use as a lookup-table
// key ( step 6: "v <- table.lookupTarget(stringify(v))"). nil renders
// as the empty string.
func Stringify(v Value) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
