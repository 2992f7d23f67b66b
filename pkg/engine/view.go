package engine

import (
	"github.com/matzehuels/nodeflow/pkg/connector"
	"github.com/matzehuels/nodeflow/pkg/diagram"
	"github.com/matzehuels/nodeflow/pkg/flow"
	"github.com/matzehuels/nodeflow/pkg/interaction"
	"github.com/matzehuels/nodeflow/pkg/layout"
	"github.com/matzehuels/nodeflow/pkg/panel"
)

// View is an immutable snapshot of everything a sink needs to draw the
// diagram. It shares no memory with the engine.
type View struct {
	ID       string          `json:"id"`
	Title    string          `json:"title,omitempty"`
	Scheme   diagram.Scheme  `json:"scheme"`
	Strategy string          `json:"strategy"`
	Size     diagram.Size    `json:"size"`
	Viewport layout.Viewport `json:"viewport"`
	Hovered  string          `json:"hovered,omitempty"`
	Selected string          `json:"selected,omitempty"`

	Nodes  []NodeView    `json:"nodes"`
	Edges  []EdgeView    `json:"edges"`
	Tasks  []flow.Task   `json:"tasks,omitempty"`
	Legend []LegendEntry `json:"legend"`
	Detail *panel.Detail `json:"detail,omitempty"`
}

// Ready reports whether the container has been measured.
func (v *View) Ready() bool { return v.Size.Measured() }

// Node returns the node view with the given id.
func (v *View) Node(id string) (NodeView, bool) {
	for _, n := range v.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return NodeView{}, false
}

// Edge returns the edge view with the given id.
func (v *View) Edge(id string) (EdgeView, bool) {
	for _, e := range v.Edges {
		if e.ID == id {
			return e, true
		}
	}
	return EdgeView{}, false
}

// NodeView is one positioned, visible node.
type NodeView struct {
	ID          string                `json:"id"`
	Label       string                `json:"label"`
	Description string                `json:"description,omitempty"`
	Category    diagram.Category      `json:"category"`
	Color       string                `json:"color"`
	Icon        string                `json:"icon,omitempty"`
	Position    diagram.Point         `json:"position"`
	State       interaction.NodeState `json:"state"`
	Highlight   diagram.Highlight     `json:"highlighted"`
}

// EdgeView is one visible edge with its routed curve.
type EdgeView struct {
	ID        string            `json:"id"`
	From      string            `json:"from"`
	To        string            `json:"to"`
	Label     string            `json:"label,omitempty"`
	Animate   bool              `json:"animate,omitempty"`
	Thickness int               `json:"thickness"`
	Curve     connector.Curve   `json:"curve"`
	Stroke    connector.Stroke  `json:"stroke"`
	Highlight diagram.Highlight `json:"highlighted"`
}

// LegendEntry describes one category of the scheme in use.
type LegendEntry struct {
	Category diagram.Category `json:"category"`
	Title    string           `json:"title"`
	Color    string           `json:"color"`
	Active   bool             `json:"active"`
	Count    int              `json:"count"`
}
