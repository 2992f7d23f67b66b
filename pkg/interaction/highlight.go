package interaction

import (
	"github.com/matzehuels/nodeflow/pkg/diagram"
)

// Highlights is the derived highlight signal of every visible node and edge.
type Highlights struct {
	Active string
	Nodes  map[string]diagram.Highlight
	Edges  map[string]diagram.Highlight
}

// Derive computes highlights for the active node over the filtered edge
// set. A node or edge is on iff it is the active node, a direct neighbour,
// or an edge touching it; everything else is off. With no active node, or
// an active node outside the render set, everything is neutral.
func Derive(active string, sub *Subgraph) Highlights {
	h := Highlights{
		Nodes: make(map[string]diagram.Highlight, len(sub.Nodes)),
		Edges: make(map[string]diagram.Highlight, len(sub.Edges)),
	}
	if active != "" && sub.Has(active) {
		h.Active = active
	}
	for _, n := range sub.Nodes {
		h.Nodes[n.ID] = h.node(n.ID, sub)
	}
	for _, e := range sub.Edges {
		h.Edges[e.ID()] = h.edge(e)
	}
	return h
}

// Node returns the highlight of node id.
func (h Highlights) Node(id string) diagram.Highlight { return h.Nodes[id] }

// Edge returns the highlight of edge e.
func (h Highlights) Edge(e diagram.Edge) diagram.Highlight { return h.Edges[e.ID()] }

func (h Highlights) node(id string, sub *Subgraph) diagram.Highlight {
	switch {
	case h.Active == "":
		return diagram.HighlightNeutral
	case id == h.Active || sub.Adjacent(h.Active, id):
		return diagram.HighlightOn
	default:
		return diagram.HighlightOff
	}
}

func (h Highlights) edge(e diagram.Edge) diagram.Highlight {
	switch {
	case h.Active == "":
		return diagram.HighlightNeutral
	case e.Touches(h.Active):
		return diagram.HighlightOn
	default:
		return diagram.HighlightOff
	}
}
