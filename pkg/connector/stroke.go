package connector

import (
	"math"

	"github.com/matzehuels/nodeflow/pkg/diagram"
)

// Stroke tuning.
const (
	// HighlightBoost is added to the declared thickness of highlighted edges.
	HighlightBoost = 1.0

	// DimmedDash is the dash pattern of dimmed edges.
	DimmedDash = "4 4"

	OpacityOn      = 1.0
	OpacityNeutral = 0.6
	OpacityOff     = 0.2

	minDimmedWidth = 0.5
	dimmedRatio    = 0.5
)

// Stroke is the line style of one edge.
type Stroke struct {
	Color   string  `json:"color"`
	Width   float64 `json:"width"`
	Opacity float64 `json:"opacity"`
	Dash    string  `json:"dash,omitempty"`
}

// Dashed reports whether the stroke is dashed.
func (s Stroke) Dashed() bool { return s.Dash != "" }

// StrokeFor derives the stroke of an edge from its highlight state.
// Dimmed edges stay visible: their opacity is reduced but never zero.
func StrokeFor(e diagram.Edge, h diagram.Highlight) Stroke {
	thickness := float64(e.EffectiveThickness())
	s := Stroke{Color: e.EffectiveColor()}
	switch h {
	case diagram.HighlightOn:
		s.Width = thickness + HighlightBoost
		s.Opacity = OpacityOn
	case diagram.HighlightOff:
		s.Width = math.Max(minDimmedWidth, thickness*dimmedRatio)
		s.Opacity = OpacityOff
		s.Dash = DimmedDash
	default:
		s.Width = thickness
		s.Opacity = OpacityNeutral
	}
	return s
}
