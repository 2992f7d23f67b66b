package layout

import "github.com/matzehuels/nodeflow/pkg/diagram"

// Reference space of authored blueprints.
const (
	ReferenceWidth  = 800.0
	ReferenceHeight = 600.0

	// DefaultFixedCurveCap bounds edge curvature in fixed layouts.
	DefaultFixedCurveCap = 40.0
)

// Fixed rescales author-assigned positions from the 800-unit reference
// space to the container width.
type Fixed struct {
	// Height of the authored blueprint in reference units. Zero means
	// ReferenceHeight.
	DesignHeight float64

	// Cap overrides DefaultFixedCurveCap when positive.
	Cap float64
}

// Name implements Strategy.
func (Fixed) Name() string { return StrategyFixed }

// Scale returns the factor applied to authored positions for a container
// width, or 0 when the width is not measured.
func (Fixed) Scale(width float64) float64 {
	if width <= 0 {
		return 0
	}
	return width / ReferenceWidth
}

// Positions implements Strategy. Nodes without an authored position are
// skipped.
func (f Fixed) Positions(nodes []diagram.Node, size diagram.Size) Positions {
	scale := f.Scale(size.Width)
	if scale == 0 {
		return Positions{}
	}
	out := make(Positions, len(nodes))
	for _, n := range nodes {
		if n.Position == nil {
			continue
		}
		out[n.ID] = n.Position.Scale(scale)
	}
	return out
}

// Viewport implements Strategy. The height follows the container when it
// is measured and the scaled blueprint height otherwise.
func (f Fixed) Viewport(size diagram.Size) Viewport {
	scale := f.Scale(size.Width)
	if scale == 0 {
		return Viewport{}
	}
	h := size.Height
	if h <= 0 {
		h = f.designHeight() * scale
	}
	return Viewport{Width: size.Width, Height: h}
}

// CurveCap implements Strategy.
func (f Fixed) CurveCap(diagram.Size) float64 {
	if f.Cap > 0 {
		return f.Cap
	}
	return DefaultFixedCurveCap
}

func (f Fixed) designHeight() float64 {
	if f.DesignHeight > 0 {
		return f.DesignHeight
	}
	return ReferenceHeight
}
