package layout

import (
	"strings"

	"github.com/matzehuels/nodeflow/pkg/diagram"
	"github.com/matzehuels/nodeflow/pkg/errors"
)

// Strategy names accepted by Parse.
const (
	StrategyFixed  = "fixed"
	StrategyRadial = "radial"
)

// Positions maps node ids to diagram-local coordinates. A nil or empty map
// means the container has not been measured yet.
type Positions map[string]diagram.Point

// Viewport is the diagram-local view box a sink maps onto its canvas.
type Viewport struct {
	MinX   float64 `json:"min_x" bson:"min_x"`
	MinY   float64 `json:"min_y" bson:"min_y"`
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
}

// Empty reports whether the viewport has no area.
func (v Viewport) Empty() bool { return v.Width <= 0 || v.Height <= 0 }

// Contains reports whether p lies inside the viewport.
func (v Viewport) Contains(p diagram.Point) bool {
	return p.X >= v.MinX && p.X <= v.MinX+v.Width && p.Y >= v.MinY && p.Y <= v.MinY+v.Height
}

// Strategy computes node positions for a container size. Implementations
// must be pure: identical arguments yield identical maps.
type Strategy interface {
	// Name returns the strategy name ("fixed", "radial").
	Name() string

	// Positions places every node it can. Nodes it cannot place are absent
	// from the result.
	Positions(nodes []diagram.Node, size diagram.Size) Positions

	// Viewport returns the view box covering every position the strategy
	// can produce for size.
	Viewport(size diagram.Size) Viewport

	// CurveCap returns the maximum perpendicular offset of edge curves.
	CurveCap(size diagram.Size) float64
}

// Parse resolves a strategy name to a strategy with default settings.
func Parse(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case StrategyFixed:
		return Fixed{}, nil
	case StrategyRadial, "circular":
		return Radial{}, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidStrategy, "unknown layout strategy %q (want fixed or radial)", name)
	}
}

// ForGraph picks the fixed strategy when every node carries an authored
// position and the radial strategy otherwise.
func ForGraph(g *diagram.Graph) Strategy {
	if g.HasPositions() {
		return Fixed{}
	}
	return Radial{}
}
