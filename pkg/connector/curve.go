package connector

import (
	"fmt"
	"math"

	"github.com/matzehuels/nodeflow/pkg/diagram"
)

// CurvatureRatio is the curve offset as a fraction of endpoint distance,
// before the strategy cap applies.
const CurvatureRatio = 0.15

// Curve is a quadratic Bézier connector between two node positions.
type Curve struct {
	From    diagram.Point `json:"from"`
	To      diagram.Point `json:"to"`
	Control diagram.Point `json:"control"`
}

// Route computes the connector between two positions. The control point is
// the segment midpoint pushed along the left-hand normal by
// min(distance × CurvatureRatio, limit). Coincident endpoints yield a
// degenerate curve whose control point is the midpoint.
func Route(from, to diagram.Point, limit float64) Curve {
	mid := diagram.Point{X: (from.X + to.X) / 2, Y: (from.Y + to.Y) / 2}
	dx, dy := to.X-from.X, to.Y-from.Y
	d := math.Hypot(dx, dy)
	if d == 0 {
		return Curve{From: from, To: to, Control: mid}
	}
	offset := d * CurvatureRatio
	if limit >= 0 && offset > limit {
		offset = limit
	}
	normal := diagram.Point{X: -dy / d, Y: dx / d}
	return Curve{From: from, To: to, Control: mid.Add(normal.Scale(offset))}
}

// Offset returns the distance between the control point and the chord
// midpoint.
func (c Curve) Offset() float64 {
	mx, my := (c.From.X+c.To.X)/2, (c.From.Y+c.To.Y)/2
	return math.Hypot(c.Control.X-mx, c.Control.Y-my)
}

// Label returns the label anchor. Labels sit at the control point.
func (c Curve) Label() diagram.Point { return c.Control }

// At evaluates the curve at t in [0, 1]; t is clamped.
func (c Curve) At(t float64) diagram.Point {
	t = math.Max(0, math.Min(1, t))
	u := 1 - t
	a, b, w := u*u, 2*u*t, t*t
	return diagram.Point{
		X: a*c.From.X + b*c.Control.X + w*c.To.X,
		Y: a*c.From.Y + b*c.Control.Y + w*c.To.Y,
	}
}

// Path returns the SVG path data "M x y Q cx cy x y".
func (c Curve) Path() string {
	return fmt.Sprintf("M %.2f %.2f Q %.2f %.2f %.2f %.2f",
		c.From.X, c.From.Y, c.Control.X, c.Control.Y, c.To.X, c.To.Y)
}
