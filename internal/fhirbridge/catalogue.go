package fhirbridge

// ResourceDefinition is a minimal view of a FHIR StructureDefinition: the
// resource's name and its first-level element children. check 5 only
// validates the *first segment* of a path against this, so deeper
// ElementDefinition trees (slicing, constraints, cardinality) are
// deliberately not modelled here, mirroring gofhir-validator's
// pkg/registry.StructureDefinition/ElementDefinition shape, trimmed to what
// the permissive path validator needs.
type ResourceDefinition struct {
	Name string
	Children map[string]ChildDefinition
}

// ChildDefinition names a resource's direct child element and the FHIR type
// it resolves to.
type ChildDefinition struct {
	Name string
	Type string
}

// StructureCatalogue resolves FHIR resource/element definitions.
type StructureCatalogue interface {
	Resource(typeName string) (*ResourceDefinition, bool)
	ChildTypeName(parent *ResourceDefinition, childName string) (string, bool)
}

// staticCatalogue is an in-memory StructureCatalogue over a fixed set of
// ResourceDefinitions, built at construction and read-only thereafter.
type staticCatalogue struct {
	resources map[string]*ResourceDefinition
}

// NewStaticCatalogue builds a StructureCatalogue from the given resource
// definitions, keyed by their Name.
func NewStaticCatalogue(defs...*ResourceDefinition) StructureCatalogue {
	c := &staticCatalogue{resources: make(map[string]*ResourceDefinition, len(defs))}
	for _, d := range defs {
		c.resources[d.Name] = d
	}
	return c
}

func (c *staticCatalogue) Resource(typeName string) (*ResourceDefinition, bool) {
	d, ok := c.resources[typeName]
	return d, ok
}

func (c *staticCatalogue) ChildTypeName(parent *ResourceDefinition, childName string) (string, bool) {
	if parent == nil {
		return "", false
	}
	child, ok := parent.Children[childName]
	if !ok {
		return "", false
	}
	return child.Type, true
}

func resourceDef(name string, children...ChildDefinition) *ResourceDefinition {
	m := make(map[string]ChildDefinition, len(children))
	for _, c := range children {
		m[c.Name] = c
	}
	return &ResourceDefinition{Name: name, Children: m}
}

func child(name, fhirType string) ChildDefinition {
	return ChildDefinition{Name: name, Type: fhirType}
}

// BuiltinCatalogue returns the engine's small built-in StructureCatalogue,
// covering the resource types exercised by this repo's seed mappings and
// spec.md scenarios: Patient, Encounter, Observation, Condition. A
// production deployment backs Catalogue() with a real FHIR structure
// definition set instead.
func BuiltinCatalogue() StructureCatalogue {
	return NewStaticCatalogue(
		resourceDef("Patient",
			child("resourceType", "code"),
			child("id", "id"),
			child("identifier", "Identifier"),
			child("active", "boolean"),
			child("name", "HumanName"),
			child("telecom", "ContactPoint"),
			child("gender", "code"),
			child("birthDate", "date"),
			child("deceasedBoolean", "boolean"),
			child("address", "Address"),
			child("maritalStatus", "CodeableConcept"),
			child("contact", "BackboneElement"),
			child("communication", "BackboneElement"),
			child("generalPractitioner", "Reference"),
			child("managingOrganization", "Reference"),
		),
		resourceDef("Encounter",
			child("resourceType", "code"),
			child("id", "id"),
			child("identifier", "Identifier"),
			child("status", "code"),
			child("class", "Coding"),
			child("type", "CodeableConcept"),
			child("subject", "Reference"),
			child("participant", "BackboneElement"),
			child("period", "Period"),
			child("reasonCode", "CodeableConcept"),
			child("diagnosis", "BackboneElement"),
			child("location", "BackboneElement"),
			child("serviceProvider", "Reference"),
		),
		resourceDef("Observation",
			child("resourceType", "code"),
			child("id", "id"),
			child("identifier", "Identifier"),
			child("status", "code"),
			child("category", "CodeableConcept"),
			child("code", "CodeableConcept"),
			child("subject", "Reference"),
			child("encounter", "Reference"),
			child("effectiveDateTime", "dateTime"),
			child("issued", "instant"),
			child("performer", "Reference"),
			child("valueQuantity", "Quantity"),
			child("valueString", "string"),
			child("valueCodeableConcept", "CodeableConcept"),
			child("interpretation", "CodeableConcept"),
			child("note", "Annotation"),
			child("referenceRange", "BackboneElement"),
			child("component", "BackboneElement"),
		),
		resourceDef("Condition",
			child("resourceType", "code"),
			child("id", "id"),
			child("identifier", "Identifier"),
			child("clinicalStatus", "CodeableConcept"),
			child("verificationStatus", "CodeableConcept"),
			child("category", "CodeableConcept"),
			child("severity", "CodeableConcept"),
			child("code", "CodeableConcept"),
			child("bodySite", "CodeableConcept"),
			child("subject", "Reference"),
			child("encounter", "Reference"),
			child("onsetDateTime", "dateTime"),
			child("recordedDate", "dateTime"),
			child("recorder", "Reference"),
			child("note", "Annotation"),
		),
	)
}
