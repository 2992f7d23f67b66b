package layout

import (
	"math"

	"github.com/matzehuels/nodeflow/pkg/diagram"
)

// Radial defaults.
const (
	DefaultBaseRadius = 200.0
	DefaultPadding    = 80.0

	jitterThreshold   = 8  // n above which jitter and radial cycling apply
	contractThreshold = 10 // n above which the radius contracts
	jitterDegrees     = 2.0
	contraction       = 0.95
	curveCapRatio     = 0.25
)

// radialCycle is indexed by i mod 3.
var radialCycle = [3]float64{0.95, 1.0, 1.05}

// breakpoints maps container widths to radius factors, checked in order.
var breakpoints = []struct {
	below  float64
	factor float64
}{
	{640, 0.5},
	{768, 0.7},
	{1024, 0.9},
}

// Radial places nodes on a circle around the origin, index 0 at twelve
// o'clock, proceeding clockwise in screen coordinates.
type Radial struct {
	// BaseRadius is the radius on wide containers. Zero means
	// DefaultBaseRadius.
	BaseRadius float64

	// Padding is added around the circle in the viewport for labels. Zero
	// means DefaultPadding.
	Padding float64
}

// Name implements Strategy.
func (Radial) Name() string { return StrategyRadial }

// Radius returns the breakpoint radius for a container width, before the
// crowding contraction. Unmeasured widths yield 0.
func (r Radial) Radius(width float64) float64 {
	if width <= 0 {
		return 0
	}
	base := r.BaseRadius
	if base <= 0 {
		base = DefaultBaseRadius
	}
	for _, bp := range breakpoints {
		if width < bp.below {
			return base * bp.factor
		}
	}
	return base
}

// Angle returns the angle of node i out of n in degrees, jitter included.
func Angle(i, n int) float64 {
	theta := float64(i)/float64(n)*360 - 90
	if n > jitterThreshold {
		if i%2 == 0 {
			theta += jitterDegrees
		} else {
			theta -= jitterDegrees
		}
	}
	return theta
}

// Positions implements Strategy. Input order determines angular order.
func (r Radial) Positions(nodes []diagram.Node, size diagram.Size) Positions {
	radius := r.Radius(size.Width)
	if radius == 0 || len(nodes) == 0 {
		return Positions{}
	}
	n := len(nodes)
	if n > contractThreshold {
		radius *= contraction
	}
	out := make(Positions, n)
	for i, node := range nodes {
		ri := radius
		if n > jitterThreshold {
			ri *= radialCycle[i%3]
		}
		rad := Angle(i, n) * math.Pi / 180
		out[node.ID] = diagram.Point{X: ri * math.Cos(rad), Y: ri * math.Sin(rad)}
	}
	return out
}

// Viewport implements Strategy. The box is square and centred on the
// origin, large enough for the outermost ring plus padding.
func (r Radial) Viewport(size diagram.Size) Viewport {
	radius := r.Radius(size.Width)
	if radius == 0 {
		return Viewport{}
	}
	pad := r.Padding
	if pad <= 0 {
		pad = DefaultPadding
	}
	extent := radius*radialCycle[2] + pad
	return Viewport{MinX: -extent, MinY: -extent, Width: 2 * extent, Height: 2 * extent}
}

// CurveCap implements Strategy.
func (r Radial) CurveCap(size diagram.Size) float64 {
	return curveCapRatio * r.Radius(size.Width)
}
