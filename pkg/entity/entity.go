// Package entity implements the canonical in-memory form of a SOFT/DLite
// entity, plus the pure validation and identification steps that run before
// any remote interaction.
package entity

// Dimension describes one named dimension of an entity.
type Dimension struct {
	Name        string `json:"name" bson:"name"`
	Description string `json:"description" bson:"description"`
}

// Property is the canonical form of an entity property. Both supported
// dialects (SOFT5 list-style and SOFT7 map-style) normalize into this shape.
type Property struct {
	Name        string   `json:"name" bson:"name"`
	Type        string   `json:"type" bson:"type"`
	Ref         string   `json:"ref,omitempty" bson:"ref,omitempty"`
	Shape       []string `json:"shape,omitempty" bson:"shape,omitempty"`
	Unit        string   `json:"unit,omitempty" bson:"unit,omitempty"`
	Description string   `json:"description" bson:"description"`
}

// Entity is the canonical, immutable form of a validated entity. Properties
// are kept as an ordered list so comparisons and reports are deterministic:
// SOFT5 input preserves its list order, SOFT7 input is sorted by property
// name.
type Entity struct {
	URI         string      `json:"uri" bson:"uri"`
	Namespace   string      `json:"namespace" bson:"namespace"`
	Version     string      `json:"version" bson:"version"`
	Name        string      `json:"name" bson:"name"`
	Description string      `json:"description,omitempty" bson:"description,omitempty"`
	Dimensions  []Dimension `json:"dimensions,omitempty" bson:"dimensions,omitempty"`
	Properties  []Property  `json:"properties" bson:"properties"`
}

// Equal reports whether two entities match field for field. Identity (URI)
// equality alone is not enough to consider two entities the same.
func (e *Entity) Equal(other *Entity) bool {
	return len(Diff(e, other)) == 0
}

// Document renders the entity as a generic SOFT7-shaped document, the form
// used on the wire and in the document store.
func (e *Entity) Document() map[string]any {
	doc := map[string]any{
		"uri":       e.URI,
		"namespace": e.Namespace,
		"version":   e.Version,
		"name":      e.Name,
	}
	if e.Description != "" {
		doc["description"] = e.Description
	}

	dimensions := map[string]any{}
	for _, d := range e.Dimensions {
		dimensions[d.Name] = d.Description
	}
	doc["dimensions"] = dimensions

	properties := map[string]any{}
	for _, p := range e.Properties {
		prop := map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
		if p.Ref != "" {
			prop["$ref"] = p.Ref
		}
		if len(p.Shape) > 0 {
			shape := make([]any, len(p.Shape))
			for i, s := range p.Shape {
				shape[i] = s
			}
			prop["shape"] = shape
		}
		if p.Unit != "" {
			prop["unit"] = p.Unit
		}
		properties[p.Name] = prop
	}
	doc["properties"] = properties

	return doc
}
