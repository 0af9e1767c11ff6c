package entity

import (
	"fmt"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/mapstructure"
)

// propertyTypes is the set of recognized property type tokens.
var propertyTypes = []interface{}{
	"blob", "bool",
	"int", "int8", "int16", "int32", "int64",
	"uint", "uint8", "uint16", "uint32", "uint64",
	"float", "float32", "float64",
	"string", "ref", "relation",
}

// rawEntity is the loosely-typed top level shared by both dialects.
// Dimensions and Properties stay untyped until the dialect is known.
type rawEntity struct {
	URI         string `mapstructure:"uri"`
	Namespace   string `mapstructure:"namespace"`
	Version     string `mapstructure:"version"`
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
	Dimensions  any    `mapstructure:"dimensions"`
	Properties  any    `mapstructure:"properties"`
}

// rawProperty accepts both dialects' property spellings: `dims` and `shape`
// are aliases, as are `$ref` and `ref`. SOFT5 carries the property name
// inline; SOFT7 carries it as the map key.
type rawProperty struct {
	Name        string   `mapstructure:"name"`
	Type        string   `mapstructure:"type"`
	Ref         string   `mapstructure:"$ref"`
	AltRef      string   `mapstructure:"ref"`
	Shape       []string `mapstructure:"shape"`
	Dims        []string `mapstructure:"dims"`
	Unit        string   `mapstructure:"unit"`
	Description string   `mapstructure:"description"`
}

func (p rawProperty) canonical() Property {
	prop := Property{
		Name:        p.Name,
		Type:        p.Type,
		Ref:         p.Ref,
		Shape:       p.Shape,
		Unit:        p.Unit,
		Description: p.Description,
	}
	if prop.Ref == "" {
		prop.Ref = p.AltRef
	}
	if len(prop.Shape) == 0 {
		prop.Shape = p.Dims
	}
	return prop
}

type rawDimension struct {
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
}

// Validate normalizes a parsed entity document (JSON or YAML, already
// decoded to a generic map) into the canonical Entity form. Both supported
// dialects are accepted: SOFT5 (list-style properties and dimensions) and
// SOFT7 (map-style). All property errors are collected before failing so a
// user sees the complete list of problems in one pass. The transform is
// pure: nothing is printed, all outcomes are returned.
func Validate(doc map[string]any) (*Entity, error) {
	var raw rawEntity
	if err := mapstructure.Decode(doc, &raw); err != nil {
		return nil, fmt.Errorf("malformed entity document: %w", err)
	}

	e := &Entity{
		URI:         raw.URI,
		Namespace:   raw.Namespace,
		Version:     raw.Version,
		Name:        raw.Name,
		Description: raw.Description,
	}

	if err := resolveIdentity(e); err != nil {
		return nil, err
	}

	var result *multierror.Error

	if raw.Properties == nil {
		return nil, fmt.Errorf("entity %s has no properties", e.URI)
	}

	switch props := raw.Properties.(type) {
	case []any:
		// SOFT5: list of named properties, order preserved.
		for i, rawProp := range props {
			var p rawProperty
			if err := mapstructure.Decode(rawProp, &p); err != nil {
				result = multierror.Append(result, &InvalidPropertyError{
					Property: fmt.Sprintf("#%d", i),
					Reason:   fmt.Sprintf("malformed property entry: %v", err),
				})
				continue
			}
			if p.Name == "" {
				result = multierror.Append(result, &InvalidPropertyError{
					Property: fmt.Sprintf("#%d", i),
					Reason:   "missing property name",
				})
				continue
			}
			prop := p.canonical()
			if err := checkProperty(prop); err != nil {
				result = multierror.Append(result, err)
				continue
			}
			e.Properties = append(e.Properties, prop)
		}
	case map[string]any:
		// SOFT7: map of properties, normalized to sorted name order so the
		// canonical form is deterministic.
		names := make([]string, 0, len(props))
		for name := range props {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			var p rawProperty
			if err := mapstructure.Decode(props[name], &p); err != nil {
				result = multierror.Append(result, &InvalidPropertyError{
					Property: name,
					Reason:   fmt.Sprintf("malformed property entry: %v", err),
				})
				continue
			}
			prop := p.canonical()
			prop.Name = name
			if err := checkProperty(prop); err != nil {
				result = multierror.Append(result, err)
				continue
			}
			e.Properties = append(e.Properties, prop)
		}
	default:
		return nil, fmt.Errorf(
			"entity %s: properties must be a list (SOFT5) or a mapping (SOFT7)", e.URI)
	}

	dimensions, err := normalizeDimensions(raw.Dimensions)
	if err != nil {
		result = multierror.Append(result, err)
	}
	e.Dimensions = dimensions

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return e, nil
}

// resolveIdentity applies the cross-field rules between uri and the
// namespace/version/name triple: either all of the triple is set or none of
// it, uri is required when the triple is absent, and when both are given
// they must agree. The missing side is derived from the other.
func resolveIdentity(e *Entity) error {
	triple := []string{e.Namespace, e.Version, e.Name}
	allSet, noneSet := true, true
	for _, v := range triple {
		if v == "" {
			allSet = false
		} else {
			noneSet = false
		}
	}

	if !allSet && !noneSet {
		return fmt.Errorf(
			"either all of namespace, version, and name must be set, or none of them")
	}

	if noneSet {
		if e.URI == "" {
			return fmt.Errorf("either namespace, version, and name, or uri must be set")
		}
		id, err := ParseURI(e.URI)
		if err != nil {
			return err
		}
		e.Namespace, e.Version, e.Name = id.Namespace, id.Version, id.Name
		return nil
	}

	composed := Identifier{Namespace: e.Namespace, Version: e.Version, Name: e.Name}.URI()
	if e.URI == "" {
		e.URI = composed
		return nil
	}
	if e.URI != composed {
		return fmt.Errorf(
			"uri %q is not consistent with namespace, version, and name (expected %q)",
			e.URI, composed)
	}
	return nil
}

func checkProperty(p Property) error {
	if err := validation.Validate(p.Type, validation.Required); err != nil {
		return &InvalidPropertyError{Property: p.Name, Reason: "missing type"}
	}
	if err := validation.Validate(p.Type, validation.In(propertyTypes...)); err != nil {
		return &InvalidPropertyError{
			Property: p.Name,
			Reason:   fmt.Sprintf("unrecognized type %q", p.Type),
		}
	}
	if p.Type == "ref" && p.Ref == "" {
		return &InvalidPropertyError{
			Property: p.Name,
			Reason:   "type \"ref\" requires a $ref target",
		}
	}
	if p.Description == "" {
		return &InvalidPropertyError{Property: p.Name, Reason: "missing description"}
	}
	return nil
}

func normalizeDimensions(raw any) ([]Dimension, error) {
	switch dims := raw.(type) {
	case nil:
		return nil, nil
	case []any:
		// SOFT5: list of {name, description}.
		out := make([]Dimension, 0, len(dims))
		for i, rawDim := range dims {
			var d rawDimension
			if err := mapstructure.Decode(rawDim, &d); err != nil || d.Name == "" {
				return nil, fmt.Errorf("malformed dimension entry #%d", i)
			}
			out = append(out, Dimension{Name: d.Name, Description: d.Description})
		}
		return out, nil
	case map[string]any:
		// SOFT7: map of name to description, sorted for determinism.
		names := make([]string, 0, len(dims))
		for name := range dims {
			names = append(names, name)
		}
		sort.Strings(names)
		out := make([]Dimension, 0, len(names))
		for _, name := range names {
			desc, ok := dims[name].(string)
			if !ok {
				return nil, fmt.Errorf("malformed dimension %q: description must be a string", name)
			}
			out = append(out, Dimension{Name: name, Description: desc})
		}
		return out, nil
	default:
		return nil, fmt.Errorf("dimensions must be a list (SOFT5) or a mapping (SOFT7)")
	}
}
