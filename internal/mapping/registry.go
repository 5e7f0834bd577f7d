package mapping

import (
	"fmt"
	"time"
)

// Registry is the immutable, read-only-after-construction set of loaded
// resource mappings and lookup tables. It is safe to share across
// goroutines without locking: nothing in it is mutated after NewRegistry
// returns.
type Registry struct {
	FHIRVersion string
	LoadedAt time.Time

	resourceMappings []*ResourceMapping
	lookupTables map[string]*CodeLookupTable

	bySourceDirection map[string]*ResourceMapping
	byID map[string]*ResourceMapping
}

func sourceDirectionKey(sourceType string, dir Direction) string {
	return string(dir) + "|" + sourceType
}

// NewRegistry builds the indexed registry from already-Build()-ed lookup
// tables and shape-valid resource mappings. It does not itself validate
// FHIR path existence or expression parsability — that is the validate
// package's job, run against the registry before it is put into service.
//
// When multiple mappings share (sourceType, direction), the first one
// registered wins the index lookup and every subsequent duplicate is
// reported via the returned warnings slice.
func NewRegistry(fhirVersion string, resourceMappings []*ResourceMapping, lookupTables map[string]*CodeLookupTable) (*Registry, []string, error) {
	reg := &Registry{
		FHIRVersion: fhirVersion,
		LoadedAt: time.Now(),
		resourceMappings: resourceMappings,
		lookupTables: lookupTables,
		bySourceDirection: make(map[string]*ResourceMapping, len(resourceMappings)),
		byID: make(map[string]*ResourceMapping, len(resourceMappings)),
	}

	var warnings []string
	seenIDs := make(map[string]bool, len(resourceMappings))
	for _, m := range resourceMappings {
		if err := m.validateShape(); err != nil {
			return nil, nil, err
		}
		if seenIDs[m.ID] {
			return nil, nil, fmt.Errorf("registry: duplicate resource mapping id %q", m.ID)
		}
		seenIDs[m.ID] = true
		reg.byID[m.ID] = m

		key := sourceDirectionKey(m.SourceType, m.Direction)
		if _, exists := reg.bySourceDirection[key]; exists {
			warnings = append(warnings, fmt.Sprintf("registry: multiple mappings registered for sourceType=%q direction=%q; %q keeps the index, later ones are shadowed", m.SourceType, m.Direction, reg.bySourceDirection[key].ID))
			continue
		}
		reg.bySourceDirection[key] = m
	}

	for id, lt := range lookupTables {
		if err := lt.Build(); err != nil {
			return nil, nil, err
		}
		if lt.ID != id {
			return nil, nil, fmt.Errorf("registry: lookup table keyed %q has id %q", id, lt.ID)
		}
	}

	return reg, warnings, nil
}

// FindBySourceAndDirection returns the first-registered mapping for the
// given (sourceType, direction) pair, or false if none matches.
func (r *Registry) FindBySourceAndDirection(sourceType string, dir Direction) (*ResourceMapping, bool) {
	m, ok := r.bySourceDirection[sourceDirectionKey(sourceType, dir)]
	return m, ok
}

// FindByID returns the resource mapping with the given id.
func (r *Registry) FindByID(id string) (*ResourceMapping, bool) {
	m, ok := r.byID[id]
	return m, ok
}

// GetLookupTable returns the lookup table with the given id.
func (r *Registry) GetLookupTable(id string) (*CodeLookupTable, bool) {
	lt, ok := r.lookupTables[id]
	return lt, ok
}

// ResourceMappings returns every loaded resource mapping, in load order.
// The caller must not mutate the returned slice.
func (r *Registry) ResourceMappings() []*ResourceMapping {
	return r.resourceMappings
}

// LookupTables returns every loaded lookup table, keyed by id. The caller
// must not mutate the returned map.
func (r *Registry) LookupTables() map[string]*CodeLookupTable {
	return r.lookupTables
}
