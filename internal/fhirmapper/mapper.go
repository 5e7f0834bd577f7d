// Package fhirmapper is the facade described in spec.md: it adapts
// every (input kind × output kind) combination — JSON text, tree, typed
// FHIR resource, arbitrary Go object — around the single transformation
// interpreter, and is the only package that calls into the FHIR library
// bridge.
package fhirmapper

import (
	"fmt"

	"github.com/pradeepkk321/fhir-mapper/internal/fhirbridge"
	"github.com/pradeepkk321/fhir-mapper/internal/mapping"
	"github.com/pradeepkk321/fhir-mapper/internal/transform"
	"github.com/pradeepkk321/fhir-mapper/internal/tree"
)

// DirectionMismatch is raised when a facade call's intended direction (the
// method family: ToFHIR* vs FromFHIR*) does not match the resolved
// mapping's declared Direction.
type DirectionMismatch struct {
	MappingID string
	Want, Declared mapping.Direction
}

func (e *DirectionMismatch) Error() string {
	return fmt.Sprintf("fhirmapper: mapping %q is declared %s, cannot be used for a %s facade call", e.MappingID, e.Declared, e.Want)
}

// MappingNotFound is raised when a facade call names a mapping id the
// current registry does not have.
type MappingNotFound struct {
	MappingID string
}

func (e *MappingNotFound) Error() string {
	return fmt.Sprintf("fhirmapper: mapping %q not found", e.MappingID)
}

// Mapper is the facade's concrete entry point: one per process, wrapping a
// live mapping.Store (so it always runs against the current hot-reloaded
// registry), a transform.Interpreter, a fhirbridge.Bridge, and an
// ObjectMarshaller.
type Mapper struct {
	store *mapping.Store
	interp *transform.Interpreter
	bridge fhirbridge.Bridge
	marshaller ObjectMarshaller
}

// NewMapper assembles a facade from its collaborators.
func NewMapper(store *mapping.Store, interp *transform.Interpreter, bridge fhirbridge.Bridge, marshaller ObjectMarshaller) *Mapper {
	return &Mapper{store: store, interp: interp, bridge: bridge, marshaller: marshaller}
}

func (m *Mapper) resolve(mappingID string, want mapping.Direction) (*mapping.ResourceMapping, error) {
	reg := m.store.Current()
	rm, ok := reg.FindByID(mappingID)
	if !ok {
		return nil, &MappingNotFound{MappingID: mappingID}
	}
	if rm.Direction != want {
		return nil, &DirectionMismatch{MappingID: mappingID, Want: want, Declared: rm.Direction}
	}
	return rm, nil
}

func (m *Mapper) lookupTables() transform.LookupTableResolver {
	reg := m.store.Current()
	return reg.GetLookupTable
}

func (m *Mapper) runTree(rm *mapping.ResourceMapping, source *tree.Map, ctx *mapping.Context) (*tree.Map, error) {
	return m.interp.Run(rm, source, ctx, m.lookupTables())
}

// --- JSON_TO_FHIR facade entry points -------------------------------------

// ToFHIRTree runs a JSON_TO_FHIR mapping over an already-parsed source tree,
// returning the FHIR-shaped target tree.
func (m *Mapper) ToFHIRTree(mappingID string, source *tree.Map, ctx *mapping.Context) (*tree.Map, error) {
	rm, err := m.resolve(mappingID, mapping.JSONToFHIR)
	if err != nil {
		return nil, err
	}
	return m.runTree(rm, source, ctx)
}

// ToFHIRJSON runs a JSON_TO_FHIR mapping over raw JSON text, returning the
// canonical FHIR JSON text.
func (m *Mapper) ToFHIRJSON(mappingID string, sourceJSON string, ctx *mapping.Context) (string, error) {
	source, err := tree.Decode([]byte(sourceJSON))
	if err != nil {
		return "", fmt.Errorf("fhirmapper: decoding source JSON: %w", err)
	}
	target, err := m.ToFHIRTree(mappingID, source, ctx)
	if err != nil {
		return "", err
	}
	data, err := tree.Encode(target)
	if err != nil {
		return "", fmt.Errorf("fhirmapper: encoding target tree: %w", err)
	}
	return string(data), nil
}

// ToFHIRResource runs a JSON_TO_FHIR mapping over raw JSON text and hands
// the result through the FHIR library bridge, returning a typed
// fhirbridge.Resource ( bridge point (a): "parse canonical FHIR JSON
// into a typed FHIR resource after JSON->FHIR transformation").
func (m *Mapper) ToFHIRResource(mappingID string, sourceJSON string, ctx *mapping.Context) (fhirbridge.Resource, error) {
	rm, err := m.resolve(mappingID, mapping.JSONToFHIR)
	if err != nil {
		return nil, err
	}
	source, err := tree.Decode([]byte(sourceJSON))
	if err != nil {
		return nil, fmt.Errorf("fhirmapper: decoding source JSON: %w", err)
	}
	target, err := m.runTree(rm, source, ctx)
	if err != nil {
		return nil, err
	}
	data, err := tree.Encode(target)
	if err != nil {
		return nil, fmt.Errorf("fhirmapper: encoding target tree: %w", err)
	}
	return m.bridge.ParseResource(string(data), rm.TargetType)
}

// ToFHIRFromObject runs a JSON_TO_FHIR mapping over an arbitrary Go object,
// via the ObjectMarshaller, returning the FHIR-shaped target tree.
func (m *Mapper) ToFHIRFromObject(mappingID string, source interface{}, ctx *mapping.Context) (*tree.Map, error) {
	t, err := m.marshaller.ToTree(source)
	if err != nil {
		return nil, err
	}
	return m.ToFHIRTree(mappingID, t, ctx)
}

// --- FHIR_TO_JSON facade entry points -------------------------------------

// FromFHIRTree runs a FHIR_TO_JSON mapping over an already-parsed FHIR
// source tree, returning the flat/custom target tree.
func (m *Mapper) FromFHIRTree(mappingID string, source *tree.Map, ctx *mapping.Context) (*tree.Map, error) {
	rm, err := m.resolve(mappingID, mapping.FHIRToJSON)
	if err != nil {
		return nil, err
	}
	return m.runTree(rm, source, ctx)
}

// FromFHIRJSON runs a FHIR_TO_JSON mapping over raw canonical FHIR JSON
// text, returning the flat/custom target JSON text.
func (m *Mapper) FromFHIRJSON(mappingID string, sourceFHIRJSON string, ctx *mapping.Context) (string, error) {
	source, err := tree.Decode([]byte(sourceFHIRJSON))
	if err != nil {
		return "", fmt.Errorf("fhirmapper: decoding source FHIR JSON: %w", err)
	}
	target, err := m.FromFHIRTree(mappingID, source, ctx)
	if err != nil {
		return "", err
	}
	data, err := tree.Encode(target)
	if err != nil {
		return "", fmt.Errorf("fhirmapper: encoding target tree: %w", err)
	}
	return string(data), nil
}

// FromFHIRResource runs a FHIR_TO_JSON mapping starting from a typed
// fhirbridge.Resource, passing it through the FHIR library bridge first
// ( bridge point (a): "encode a typed FHIR resource into canonical JSON
// before FHIR->JSON transformation").
func (m *Mapper) FromFHIRResource(mappingID string, source fhirbridge.Resource, ctx *mapping.Context) (string, error) {
	sourceJSON, err := m.bridge.EncodeResource(source)
	if err != nil {
		return "", err
	}
	return m.FromFHIRJSON(mappingID, sourceJSON, ctx)
}

// FromFHIRToObject runs a FHIR_TO_JSON mapping and decodes its target tree
// into out via the ObjectMarshaller.
func (m *Mapper) FromFHIRToObject(mappingID string, source *tree.Map, ctx *mapping.Context, out interface{}) error {
	target, err := m.FromFHIRTree(mappingID, source, ctx)
	if err != nil {
		return err
	}
	return m.marshaller.FromTree(target, out)
}

// Catalogue exposes the bridge's structure catalogue, for the validator
// pipeline to run against ( bridge point (b)).
func (m *Mapper) Catalogue() fhirbridge.StructureCatalogue {
	return m.bridge.Catalogue()
}
