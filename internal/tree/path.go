package tree

import (
	"fmt"
	"strconv"
	"strings"
)

// PathConflictError is raised when Set traverses through a node whose
// existing type is incompatible with the segment being walked.
type PathConflictError struct {
	Path string
	Segment string
}

func (e *PathConflictError) Error() string {
	return fmt.Sprintf("tree: path conflict at segment %q of %q: existing node has an incompatible type", e.Segment, e.Path)
}

// PathSyntaxError is raised when a path string does not match the supported
// `name` / `name[i]` dotted-segment grammar.
type PathSyntaxError struct {
	Path string
	Reason string
}

func (e *PathSyntaxError) Error() string {
	return fmt.Sprintf("tree: invalid path %q: %s", e.Path, e.Reason)
}

// segment is one dotted component of a path: a map key, with an optional
// non-negative list index.
type segment struct {
	name string
	hasIndex bool
	index int
}

// parsePath splits a dotted path into segments, validating the `name` /
// `name[i]` grammar. No wildcards, no predicates, no chained indices.
func parsePath(path string) ([]segment, error) {
	if path == "" {
		return nil, &PathSyntaxError{Path: path, Reason: "path is empty"}
	}
	parts := strings.Split(path, ".")
	segs := make([]segment, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			return nil, &PathSyntaxError{Path: path, Reason: "empty segment between dots"}
		}
		seg, err := parseSegment(part)
		if err != nil {
			return nil, &PathSyntaxError{Path: path, Reason: err.Error()}
		}
		segs = append(segs, seg)
	}
	return segs, nil
}

func parseSegment(part string) (segment, error) {
	open := strings.IndexByte(part, '[')
	if open < 0 {
		if !validName(part) {
			return segment{}, fmt.Errorf("segment %q is not a valid name", part)
		}
		return segment{name: part}, nil
	}
	if !strings.HasSuffix(part, "]") {
		return segment{}, fmt.Errorf("segment %q is missing closing ]", part)
	}
	name := part[:open]
	idxStr := part[open+1: len(part)-1]
	if !validName(name) {
		return segment{}, fmt.Errorf("segment %q is not a valid name", name)
	}
	idx, err := strconv.Atoi(idxStr)
	if err != nil || idx < 0 {
		return segment{}, fmt.Errorf("segment %q index is not a non-negative integer", part)
	}
	return segment{name: name, hasIndex: true, index: idx}, nil
}

func validName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
		isDigit := r >= '0' && r <= '9'
		if i == 0 && !isLetter {
			return false
		}
		if !isLetter && !isDigit {
			return false
		}
	}
	return true
}

// FirstSegmentName returns the name of path's first dotted segment, with any
// `[i]` index suffix stripped.
func FirstSegmentName(path string) (string, error) {
	segs, err := parsePath(path)
	if err != nil {
		return "", err
	}
	return segs[0].name, nil
}

// Get reads the node addressed by path starting at root. It never mutates
// root or copies data; a read that would require walking through a
// non-container node simply yields "missing" rather than erroring.
// The only error returned is a path-syntax error.
func Get(root Value, path string) (Value, bool, error) {
	segs, err := parsePath(path)
	if err != nil {
		return nil, false, err
	}
	cur := root
	for _, seg := range segs {
		m, ok := cur.(*Map)
		if !ok {
			return nil, false, nil
		}
		child, exists := m.Get(seg.name)
		if !exists {
			return nil, false, nil
		}
		if !seg.hasIndex {
			cur = child
			continue
		}
		list, ok := child.(*List)
		if !ok {
			return nil, false, nil
		}
		item, ok := list.Get(seg.index)
		if !ok {
			return nil, false, nil
		}
		cur = item
	}
	return cur, true, nil
}

// Set writes value at the node addressed by path, materialising any
// missing intermediate maps/lists as it goes. root must be a *Map;
// every FHIR and application document is rooted at an object. Walking
// through an existing node of an incompatible type (e.g. a scalar where a
// map or list is required) is fatal and returns a *PathConflictError.
func Set(root *Map, path string, value Value) error {
	segs, err := parsePath(path)
	if err != nil {
		return err
	}
	cur := root
	for i, seg := range segs {
		last := i == len(segs)-1
		if !seg.hasIndex {
			if last {
				cur.Set(seg.name, value)
				return nil
			}
			next, nm, err := descendMap(cur, seg.name, path, seg.name)
			if err != nil {
				return err
			}
			if next {
				cur.Set(seg.name, nm)
			}
			cur = nm
			continue
		}

		list, err := materialiseList(cur, seg.name, path)
		if err != nil {
			return err
		}
		if last {
			list.Set(seg.index, value)
			return nil
		}
		list.grow(seg.index + 1)
		item, _ := list.Get(seg.index)
		nm, ok := item.(*Map)
		if !ok {
			if item != nil {
				return &PathConflictError{Path: path, Segment: fmt.Sprintf("%s[%d]", seg.name, seg.index)}
			}
			nm = NewMap()
			list.items[seg.index] = nm
		}
		cur = nm
	}
	return nil
}

// descendMap resolves (and, if absent, creates) the map stored under key in
// parent, returning whether it had to be freshly created (so the caller can
// decide whether to re-assign it into parent).
func descendMap(parent *Map, key, path, segLabel string) (created bool, m *Map, err error) {
	child, exists := parent.Get(key)
	if !exists || child == nil {
		return true, NewMap(), nil
	}
	m, ok := child.(*Map)
	if !ok {
		return false, nil, &PathConflictError{Path: path, Segment: segLabel}
	}
	return false, m, nil
}

// materialiseList resolves (and, if absent, creates and installs) the list
// stored under key in parent.
func materialiseList(parent *Map, key, path string) (*List, error) {
	child, exists := parent.Get(key)
	if !exists || child == nil {
		list := NewList()
		parent.Set(key, list)
		return list, nil
	}
	list, ok := child.(*List)
	if !ok {
		return nil, &PathConflictError{Path: path, Segment: key}
	}
	return list, nil
}
