package mapping

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// LoadResult holds the raw mappings and lookup tables decoded from disk,
// before they are assembled into a Registry by NewRegistry. Validating that
// registry against the FHIR structure catalogue is left to the caller (the
// validate package, invoked from cmd/fhirmapper).
type LoadResult struct {
	ResourceMappings []*ResourceMapping
	LookupTables map[string]*CodeLookupTable
}

// LoadDir reads the on-disk layout described in:
//
//	<base>/lookups/ *.json -> CodeLookupTable
//	<base>/resources/ *.json -> ResourceMapping
//
// Only top-level.json files in each directory are read (one level deep).
// A missing lookups/ directory is silently skipped; a missing resources/
// directory is a fatal load error.
func LoadDir(baseDir string) (*LoadResult, error) {
	lookups, err := loadLookupTables(filepath.Join(baseDir, "lookups"))
	if err != nil {
		return nil, err
	}
	resources, err := loadResourceMappings(filepath.Join(baseDir, "resources"))
	if err != nil {
		return nil, err
	}
	return &LoadResult{ResourceMappings: resources, LookupTables: lookups}, nil
}

func loadLookupTables(dir string) (map[string]*CodeLookupTable, error) {
	tables := make(map[string]*CodeLookupTable)

	names, err := jsonFileNames(dir)
	if os.IsNotExist(err) {
		return tables, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mapping: reading lookups directory: %w", err)
	}

	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("mapping: reading %s: %w", path, err)
		}
		var lt CodeLookupTable
		if err := json.Unmarshal(data, &lt); err != nil {
			return nil, fmt.Errorf("mapping: parsing %s: %w", path, err)
		}
		if err := lt.Build(); err != nil {
			return nil, fmt.Errorf("mapping: %s: %w", path, err)
		}
		if existing, dup := tables[lt.ID]; dup {
			return nil, fmt.Errorf("mapping: lookup table id %q defined in both %s and an earlier file", existing.ID, path)
		}
		tables[lt.ID] = &lt
	}
	return tables, nil
}

func loadResourceMappings(dir string) ([]*ResourceMapping, error) {
	names, err := jsonFileNames(dir)
	if err != nil {
		return nil, fmt.Errorf("mapping: resources directory %s is required: %w", dir, err)
	}

	mappings := make([]*ResourceMapping, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("mapping: reading %s: %w", path, err)
		}
		var rm ResourceMapping
		if err := json.Unmarshal(data, &rm); err != nil {
			return nil, fmt.Errorf("mapping: parsing %s: %w", path, err)
		}
		if err := rm.validateShape(); err != nil {
			return nil, fmt.Errorf("mapping: %s: %w", path, err)
		}
		mappings = append(mappings, &rm)
	}
	return mappings, nil
}

// jsonFileNames returns the sorted, top-level *.json file names in dir.
func jsonFileNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if filepath.Ext(e.Name()) == ".json" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
