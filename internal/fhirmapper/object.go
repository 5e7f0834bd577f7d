package fhirmapper

import (
	"encoding/json"
	"fmt"

	"github.com/pradeepkk321/fhir-mapper/internal/tree"
)

// ObjectMarshaller is the external "POJO/record <-> generic tree" collaborator
// spec.md scopes out of the core ("delegated to a JSON marshaller exposing
// decode/encode/convert"). The facade's arbitrary-object entry points depend
// on it rather than hand-rolling reflection-based struct walking.
type ObjectMarshaller interface {
	ToTree(obj interface{}) (*tree.Map, error)
	FromTree(t *tree.Map, out interface{}) error
}

// jsonObjectMarshaller implements ObjectMarshaller via a JSON marshal/decode
// round trip, which is sufficient for any Go type encoding/json already
// knows how to handle (structs with json tags, maps, slices).
type jsonObjectMarshaller struct{}

// NewJSONObjectMarshaller returns the engine's built-in ObjectMarshaller.
func NewJSONObjectMarshaller() ObjectMarshaller {
	return jsonObjectMarshaller{}
}

func (jsonObjectMarshaller) ToTree(obj interface{}) (*tree.Map, error) {
	data, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("fhirmapper: marshalling object to tree: %w", err)
	}
	t, err := tree.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("fhirmapper: decoding object JSON into tree: %w", err)
	}
	return t, nil
}

func (jsonObjectMarshaller) FromTree(t *tree.Map, out interface{}) error {
	data, err := tree.Encode(t)
	if err != nil {
		return fmt.Errorf("fhirmapper: encoding tree: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("fhirmapper: unmarshalling tree JSON into object: %w", err)
	}
	return nil
}
