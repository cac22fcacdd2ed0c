package schema

import (
	"fmt"
	"sort"
	"strings"
)

// Graph is the message containment graph. An edge M -> T exists iff M has a
// singular field of message type T. Repeated and map fields are excluded:
// their container already stores elements out of line, so they can never make
// a type infinitely large.
//
// A Graph is built once per catalog and is read-only afterwards.
type Graph struct {
	nodes []string
	edges map[string][]string
}

// BuildGraph converts the catalog into its containment graph.
//
// Every message maps to an edge list, empty when it has no singular message
// fields. Edges keep field declaration order with duplicates removed.
// References to messages or enums missing from the catalog are collected and
// reported together as a single ErrDanglingReference.
func BuildGraph(c *Catalog) (*Graph, error) {
	g := &Graph{
		nodes: make([]string, 0, len(c.Messages)),
		edges: make(map[string][]string, len(c.Messages)),
	}

	var dangling []string
	for _, m := range c.Messages {
		g.nodes = append(g.nodes, m.Name)
		deps := make([]string, 0)
		seen := make(map[string]bool)

		for _, f := range m.Fields {
			for _, ref := range fieldRefs(f) {
				if !refExists(c, ref) {
					dangling = append(dangling, fmt.Sprintf("%s.%s -> %s", m.Name, f.Name, ref.Ref))
				}
			}
			if !f.IsMessageRef() || seen[f.Type.Ref] {
				continue
			}
			seen[f.Type.Ref] = true
			deps = append(deps, f.Type.Ref)
		}
		g.edges[m.Name] = deps
	}

	if len(dangling) > 0 {
		sort.Strings(dangling)
		return nil, fmt.Errorf("%w: %s", ErrDanglingReference, strings.Join(dangling, ", "))
	}
	return g, nil
}

// fieldRefs returns every type reference a field makes, including map keys.
func fieldRefs(f Field) []FieldType {
	var refs []FieldType
	if f.Type.Kind == KindMessage || f.Type.Kind == KindEnum {
		refs = append(refs, f.Type)
	}
	if f.MapKey != nil && (f.MapKey.Kind == KindMessage || f.MapKey.Kind == KindEnum) {
		refs = append(refs, *f.MapKey)
	}
	return refs
}

func refExists(c *Catalog, t FieldType) bool {
	if t.Kind == KindEnum {
		_, ok := c.Enum(t.Ref)
		return ok
	}
	_, ok := c.Message(t.Ref)
	return ok
}

// Nodes returns every message name in catalog order.
func (g *Graph) Nodes() []string {
	out := make([]string, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Has reports whether name is a node of the graph.
func (g *Graph) Has(name string) bool {
	_, ok := g.edges[name]
	return ok
}

// Edges returns the messages directly contained by name through singular
// fields, in declaration order.
func (g *Graph) Edges(name string) []string {
	return g.edges[name]
}

// reverse returns the graph with every edge inverted, keeping deterministic
// order: predecessors are listed in catalog order.
func (g *Graph) reverse() map[string][]string {
	rev := make(map[string][]string, len(g.nodes))
	for _, from := range g.nodes {
		for _, to := range g.edges[from] {
			rev[to] = append(rev[to], from)
		}
	}
	return rev
}
