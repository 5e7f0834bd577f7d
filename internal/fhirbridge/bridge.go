// Package fhirbridge is the engine's concrete implementation of the
// external FHIR library collaborator: a parseResource/encodeResource/
// structureCatalogue boundary kept as an interface rather than baked into
// the core. Production deployments are expected to swap this for a real
// HL7 FHIR SDK; this package exists so the facade, validator, and CLI have
// something real to call without one.
package fhirbridge

import (
	"fmt"

	"github.com/pradeepkk321/fhir-mapper/internal/tree"
)

// Resource is a parsed FHIR resource. The engine only ever needs to know
// its resource type and its tree-shaped content; it never needs the full
// typed FHIR object model, per spec.md's explicit "wire-level FHIR
// serialisation... delegated" scoping.
type Resource interface {
	ResourceType() string
	Tree() *tree.Map
}

// genericResource is a Resource backed directly by a tree.Map, with no
// typed FHIR struct behind it.
type genericResource struct {
	resourceType string
	tree *tree.Map
}

func (r *genericResource) ResourceType() string { return r.resourceType }
func (r *genericResource) Tree() *tree.Map { return r.tree }

// Bridge is the FHIR library bridge the facade and validator depend on.
type Bridge interface {
	ParseResource(json string, typeName string) (Resource, error)
	EncodeResource(r Resource) (string, error)
	Catalogue() StructureCatalogue
}

// ErrResourceTypeMismatch is returned by ParseResource when the decoded
// document's resourceType does not match the requested typeName.
type ErrResourceTypeMismatch struct {
	Want, Got string
}

func (e *ErrResourceTypeMismatch) Error() string {
	return fmt.Sprintf("fhirbridge: expected resourceType %q, document declares %q", e.Want, e.Got)
}

// genericBridge is the built-in Bridge implementation: it parses/encodes
// via the tree package (no typed FHIR object model) and serves structure
// definitions from a small built-in StructureCatalogue.
type genericBridge struct {
	catalogue StructureCatalogue
}

// NewBridge returns the engine's built-in Bridge, backed by catalogue.
func NewBridge(catalogue StructureCatalogue) Bridge {
	return &genericBridge{catalogue: catalogue}
}

// NewDefaultBridge returns a Bridge backed by BuiltinCatalogue(), covering
// the resource types referenced in spec.md's scenarios and this repo's
// seed mappings.
func NewDefaultBridge() Bridge {
	return NewBridge(BuiltinCatalogue())
}

func (b *genericBridge) ParseResource(json string, typeName string) (Resource, error) {
	m, err := tree.Decode([]byte(json))
	if err != nil {
		return nil, fmt.Errorf("fhirbridge: parse: %w", err)
	}
	rt, _, err := tree.Get(m, "resourceType")
	if err != nil {
		return nil, err
	}
	rtStr, _ := rt.(string)
	if rtStr == "" {
		rtStr = typeName
		m.Set("resourceType", typeName)
	} else if rtStr != typeName {
		return nil, &ErrResourceTypeMismatch{Want: typeName, Got: rtStr}
	}
	return &genericResource{resourceType: rtStr, tree: m}, nil
}

func (b *genericBridge) EncodeResource(r Resource) (string, error) {
	data, err := tree.Encode(r.Tree())
	if err != nil {
		return "", fmt.Errorf("fhirbridge: encode: %w", err)
	}
	return string(data), nil
}

func (b *genericBridge) Catalogue() StructureCatalogue {
	return b.catalogue
}

// NewResource wraps an in-memory tree as a Resource, for callers building a
// JSON_TO_FHIR output tree directly rather than round-tripping through
// JSON text.
func NewResource(resourceType string, t *tree.Map) Resource {
	return &genericResource{resourceType: resourceType, tree: t}
}
