package interaction

import (
	"github.com/matzehuels/nodeflow/pkg/diagram"
)

// State is the joint interaction and filter state of one diagram instance.
// It is a value: transitions return a new State and never mutate their
// receiver.
type State struct {
	Hovered  string              `json:"hovered,omitempty"`
	Selected string              `json:"selected,omitempty"`
	Active   diagram.CategorySet `json:"-"`
}

// ActiveNode returns the node driving highlight: the hovered node if any,
// otherwise the selected one. Hover shadows the selection without
// clearing it.
func (s State) ActiveNode() string {
	if s.Hovered != "" {
		return s.Hovered
	}
	return s.Selected
}

// NodeState is the per-node interaction state.
type NodeState uint8

const (
	NodeNormal NodeState = iota
	NodeHovered
	NodeSelected
)

func (n NodeState) String() string {
	switch n {
	case NodeHovered:
		return "hovered"
	case NodeSelected:
		return "selected"
	default:
		return "normal"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (n NodeState) MarshalText() ([]byte, error) { return []byte(n.String()), nil }

// NodeState returns the state of node id. Hovered wins over selected.
func (s State) NodeState(id string) NodeState {
	switch id {
	case "":
		return NodeNormal
	case s.Hovered:
		return NodeHovered
	case s.Selected:
		return NodeSelected
	default:
		return NodeNormal
	}
}

// Index is the immutable lookup structure a State is interpreted against.
type Index struct {
	graph    *diagram.Graph
	category map[string]diagram.Category
	scope    diagram.CategorySet
}

// NewIndex indexes a validated graph.
func NewIndex(g *diagram.Graph) *Index {
	ix := &Index{
		graph:    g,
		category: make(map[string]diagram.Category, len(g.Nodes)),
		scope:    g.UsedCategories(),
	}
	for _, n := range g.Nodes {
		if _, dup := ix.category[n.ID]; !dup {
			ix.category[n.ID] = n.Category
		}
	}
	// An empty graph still needs a non-empty active set.
	if ix.scope.Empty() {
		ix.scope = g.Scheme.Categories()
	}
	return ix
}

// Graph returns the indexed graph.
func (ix *Index) Graph() *diagram.Graph { return ix.graph }

// Scope returns the categories that may be active: those carried by at
// least one node. Every non-empty subset of the scope shows some node.
func (ix *Index) Scope() diagram.CategorySet { return ix.scope }

// Initial returns the starting state: nothing hovered or selected, every
// category present on some node active.
func (ix *Index) Initial() State {
	active := ix.graph.UsedCategories()
	if active.Empty() {
		active = ix.scope
	}
	return State{Active: active}
}

// Visible reports whether node id exists and its category is active.
func (ix *Index) Visible(s State, id string) bool {
	c, ok := ix.category[id]
	return ok && s.Active.Has(c)
}

// Category returns the category of node id.
func (ix *Index) Category(id string) (diagram.Category, bool) {
	c, ok := ix.category[id]
	return c, ok
}
