package entity

import (
	"fmt"
	"sort"
)

// Diff compares two entities field for field and returns the paths that
// differ, e.g. "description" or "properties.radius.type". An empty result
// means the entities are semantically identical.
func Diff(a, b *Entity) []string {
	var paths []string

	if a.URI != b.URI {
		paths = append(paths, "uri")
	}
	if a.Namespace != b.Namespace {
		paths = append(paths, "namespace")
	}
	if a.Version != b.Version {
		paths = append(paths, "version")
	}
	if a.Name != b.Name {
		paths = append(paths, "name")
	}
	if a.Description != b.Description {
		paths = append(paths, "description")
	}

	paths = append(paths, diffDimensions(a.Dimensions, b.Dimensions)...)
	paths = append(paths, diffProperties(a.Properties, b.Properties)...)

	sort.Strings(paths)
	return paths
}

func diffDimensions(a, b []Dimension) []string {
	byName := func(dims []Dimension) map[string]string {
		m := make(map[string]string, len(dims))
		for _, d := range dims {
			m[d.Name] = d.Description
		}
		return m
	}
	am, bm := byName(a), byName(b)

	var paths []string
	for name, desc := range am {
		other, ok := bm[name]
		if !ok {
			paths = append(paths, "dimensions."+name)
			continue
		}
		if desc != other {
			paths = append(paths, "dimensions."+name+".description")
		}
	}
	for name := range bm {
		if _, ok := am[name]; !ok {
			paths = append(paths, "dimensions."+name)
		}
	}
	return paths
}

func diffProperties(a, b []Property) []string {
	byName := func(props []Property) map[string]Property {
		m := make(map[string]Property, len(props))
		for _, p := range props {
			m[p.Name] = p
		}
		return m
	}
	am, bm := byName(a), byName(b)

	var paths []string
	for name, prop := range am {
		other, ok := bm[name]
		if !ok {
			paths = append(paths, "properties."+name)
			continue
		}
		paths = append(paths, diffProperty(name, prop, other)...)
	}
	for name := range bm {
		if _, ok := am[name]; !ok {
			paths = append(paths, "properties."+name)
		}
	}
	return paths
}

func diffProperty(name string, a, b Property) []string {
	var paths []string
	field := func(f string) string {
		return fmt.Sprintf("properties.%s.%s", name, f)
	}

	if a.Type != b.Type {
		paths = append(paths, field("type"))
	}
	if a.Ref != b.Ref {
		paths = append(paths, field("ref"))
	}
	if a.Unit != b.Unit {
		paths = append(paths, field("unit"))
	}
	if a.Description != b.Description {
		paths = append(paths, field("description"))
	}
	if len(a.Shape) != len(b.Shape) {
		paths = append(paths, field("shape"))
	} else {
		for i := range a.Shape {
			if a.Shape[i] != b.Shape[i] {
				paths = append(paths, field("shape"))
				break
			}
		}
	}
	return paths
}
