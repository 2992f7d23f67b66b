package diagram

import (
	"github.com/matzehuels/nodeflow/pkg/errors"
)

// Edge defaults and bounds.
const (
	DefaultSpeed     = 5
	MinSpeed         = 1
	MaxSpeed         = 10
	DefaultThickness = 2
	MinThickness     = 1
	MaxThickness     = 5

	// DefaultEdgeColor is used for edges that declare no colour.
	DefaultEdgeColor = "#94a3b8"
)

// Point is a position in diagram-local space.
type Point struct {
	X float64 `json:"x" yaml:"x" toml:"x" bson:"x"`
	Y float64 `json:"y" yaml:"y" toml:"y" bson:"y"`
}

// Add returns p + q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Scale returns p scaled by f.
func (p Point) Scale(f float64) Point { return Point{p.X * f, p.Y * f} }

// Size is a measured container size. A non-positive width means the
// container has not been measured yet.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Measured reports whether the container has a usable width.
func (s Size) Measured() bool { return s.Width > 0 }

// Node is a single entity in the diagram.
type Node struct {
	ID          string   `json:"id" yaml:"id" toml:"id" bson:"id"`
	Label       string   `json:"label,omitempty" yaml:"label,omitempty" toml:"label,omitempty" bson:"label,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty" bson:"description,omitempty"`
	Category    Category `json:"category" yaml:"category" toml:"category" bson:"category"`
	Color       string   `json:"color,omitempty" yaml:"color,omitempty" toml:"color,omitempty" bson:"color,omitempty"`
	Icon        string   `json:"icon,omitempty" yaml:"icon,omitempty" toml:"icon,omitempty" bson:"icon,omitempty"`

	// Position is the authored blueprint position in the 800-unit reference
	// space used by the fixed-design strategy. Radial layouts ignore it.
	Position *Point `json:"position,omitempty" yaml:"position,omitempty" toml:"position,omitempty" bson:"position,omitempty"`
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// DisplayColor returns the node colour, falling back to the category colour.
func (n *Node) DisplayColor() string {
	if n.Color != "" {
		return n.Color
	}
	return n.Category.Color()
}

// Edge is a labelled relationship between two nodes.
type Edge struct {
	From      string `json:"from" yaml:"from" toml:"from" bson:"from"`
	To        string `json:"to" yaml:"to" toml:"to" bson:"to"`
	Label     string `json:"label,omitempty" yaml:"label,omitempty" toml:"label,omitempty" bson:"label,omitempty"`
	Animate   bool   `json:"animate,omitempty" yaml:"animate,omitempty" toml:"animate,omitempty" bson:"animate,omitempty"`
	Speed     int    `json:"speed,omitempty" yaml:"speed,omitempty" toml:"speed,omitempty" bson:"speed,omitempty"`
	Thickness int    `json:"thickness,omitempty" yaml:"thickness,omitempty" toml:"thickness,omitempty" bson:"thickness,omitempty"`
	Color     string `json:"color,omitempty" yaml:"color,omitempty" toml:"color,omitempty" bson:"color,omitempty"`
}

// ID returns the edge key "from->to".
func (e Edge) ID() string { return e.From + "->" + e.To }

// Touches reports whether id is one of the edge's endpoints.
func (e Edge) Touches(id string) bool { return e.From == id || e.To == id }

// EffectiveSpeed returns the declared speed clamped to [1, 10], or the
// default when unset.
func (e Edge) EffectiveSpeed() int {
	if e.Speed == 0 {
		return DefaultSpeed
	}
	return min(MaxSpeed, max(MinSpeed, e.Speed))
}

// EffectiveThickness returns the declared thickness clamped to [1, 5], or
// the default when unset.
func (e Edge) EffectiveThickness() int {
	if e.Thickness == 0 {
		return DefaultThickness
	}
	return min(MaxThickness, max(MinThickness, e.Thickness))
}

// EffectiveColor returns the declared colour or DefaultEdgeColor.
func (e Edge) EffectiveColor() string {
	if e.Color != "" {
		return e.Color
	}
	return DefaultEdgeColor
}

// Graph is a static diagram definition supplied by the caller.
type Graph struct {
	Title  string `json:"title,omitempty" yaml:"title,omitempty" toml:"title,omitempty" bson:"title,omitempty"`
	Scheme Scheme `json:"scheme,omitempty" yaml:"scheme,omitempty" toml:"scheme,omitempty" bson:"scheme,omitempty"`
	Nodes  []Node `json:"nodes" yaml:"nodes" toml:"nodes" bson:"nodes"`
	Edges  []Edge `json:"edges" yaml:"edges" toml:"edges" bson:"edges"`
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (*Node, bool) {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i], true
		}
	}
	return nil, false
}

// UsedCategories returns the set of categories carried by at least one node.
func (g *Graph) UsedCategories() CategorySet {
	var s CategorySet
	for _, n := range g.Nodes {
		s = s.With(n.Category)
	}
	return s
}

// HasPositions reports whether every node carries an authored position.
func (g *Graph) HasPositions() bool {
	for _, n := range g.Nodes {
		if n.Position == nil {
			return false
		}
	}
	return len(g.Nodes) > 0
}

// Validate checks the structural invariants of a definition and resolves an
// undeclared scheme. Edges are not validated: dangling edges are dropped
// when the render set is derived.
//
// Validate returns an ErrCodeInvalidDiagram error for empty or duplicate
// node ids and bad colours, and ErrCodeInvalidCategory for categories
// outside the scheme.
func (g *Graph) Validate() error {
	seen := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		if err := errors.ValidateNodeID(n.ID); err != nil {
			return err
		}
		if _, dup := seen[n.ID]; dup {
			return errors.New(errors.ErrCodeInvalidDiagram, "duplicate node id %q", n.ID)
		}
		seen[n.ID] = struct{}{}
		if !n.Category.Valid() {
			return errors.New(errors.ErrCodeInvalidCategory, "node %q has no category", n.ID)
		}
		if err := errors.ValidateColor(n.Color); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidDiagram, err, "node %q", n.ID)
		}
	}
	for _, e := range g.Edges {
		if err := errors.ValidateColor(e.Color); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidDiagram, err, "edge %s", e.ID())
		}
	}

	used := g.UsedCategories()
	if !g.Scheme.Valid() {
		s, ok := InferScheme(used)
		if !ok {
			return errors.New(errors.ErrCodeInvalidCategory, "categories %s do not belong to a single scheme", used)
		}
		g.Scheme = s
	}
	for _, n := range g.Nodes {
		if !g.Scheme.Contains(n.Category) {
			return errors.New(errors.ErrCodeInvalidCategory,
				"node %q: category %s is not part of the %s scheme", n.ID, n.Category, g.Scheme)
		}
	}
	return nil
}
