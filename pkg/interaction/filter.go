package interaction

import (
	"github.com/matzehuels/nodeflow/pkg/diagram"
)

// Subgraph is the render set derived from a graph and an active category
// set. Every edge in it has both endpoints in Nodes.
type Subgraph struct {
	Nodes []diagram.Node
	Edges []diagram.Edge

	visible   map[string]int
	neighbors map[string][]string
}

// Filter derives the render set. Nodes keep their declaration order. Edges
// with a missing or hidden endpoint are removed, as are edges repeating an
// earlier from->to pair.
func Filter(g *diagram.Graph, active diagram.CategorySet) *Subgraph {
	sub := &Subgraph{
		visible:   make(map[string]int, len(g.Nodes)),
		neighbors: make(map[string][]string),
	}
	for _, n := range g.Nodes {
		if !active.Has(n.Category) {
			continue
		}
		if _, dup := sub.visible[n.ID]; dup {
			continue
		}
		sub.visible[n.ID] = len(sub.Nodes)
		sub.Nodes = append(sub.Nodes, n)
	}

	seen := make(map[string]struct{}, len(g.Edges))
	for _, e := range g.Edges {
		if !sub.Has(e.From) || !sub.Has(e.To) {
			continue
		}
		if _, dup := seen[e.ID()]; dup {
			continue
		}
		seen[e.ID()] = struct{}{}
		sub.Edges = append(sub.Edges, e)
		if e.From != e.To {
			sub.neighbors[e.From] = appendUnique(sub.neighbors[e.From], e.To)
			sub.neighbors[e.To] = appendUnique(sub.neighbors[e.To], e.From)
		}
	}
	return sub
}

// Has reports whether id is in the render set.
func (s *Subgraph) Has(id string) bool {
	_, ok := s.visible[id]
	return ok
}

// Node returns the visible node with the given id.
func (s *Subgraph) Node(id string) (*diagram.Node, bool) {
	i, ok := s.visible[id]
	if !ok {
		return nil, false
	}
	return &s.Nodes[i], true
}

// Neighbors returns the ids directly connected to id by a visible edge, in
// edge order.
func (s *Subgraph) Neighbors(id string) []string {
	return s.neighbors[id]
}

// Adjacent reports whether a and b share a visible edge.
func (s *Subgraph) Adjacent(a, b string) bool {
	for _, n := range s.neighbors[a] {
		if n == b {
			return true
		}
	}
	return false
}

// Counts returns the number of visible nodes per category.
func (s *Subgraph) Counts() map[diagram.Category]int {
	out := make(map[diagram.Category]int)
	for _, n := range s.Nodes {
		out[n.Category]++
	}
	return out
}

func appendUnique(list []string, id string) []string {
	for _, v := range list {
		if v == id {
			return list
		}
	}
	return append(list, id)
}
