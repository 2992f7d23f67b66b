package flow

import (
	"time"

	"github.com/matzehuels/nodeflow/pkg/connector"
	"github.com/matzehuels/nodeflow/pkg/diagram"
)

// Duration bounds in time units.
const (
	maxUnits     = 11
	minUnits     = 2
	speedCeiling = 12

	// MaxOpacity is the particle opacity at the start of a traversal.
	MaxOpacity = 0.8
)

// DefaultUnit is the length of one time unit.
const DefaultUnit = time.Second

// Duration returns the traversal time of a particle on an edge with the
// given speed: clamp(12 - speed, 2, 11) units.
func Duration(speed int, unit time.Duration) time.Duration {
	units := min(maxUnits, max(minUnits, speedCeiling-speed))
	return time.Duration(units) * unit
}

// Route is a visible edge together with its rendered curve.
type Route struct {
	Edge  diagram.Edge
	Curve connector.Curve
}

// Task is one looping particle traversal, keyed by edge id.
type Task struct {
	EdgeID   string          `json:"edge"`
	Curve    connector.Curve `json:"curve"`
	Color    string          `json:"color"`
	Duration time.Duration   `json:"duration"`
	Phase    time.Duration   `json:"phase"`
}

// Progress returns the traversal fraction in [0, 1) at the given elapsed
// time: ((elapsed + phase) mod duration) / duration.
func (t Task) Progress(elapsed time.Duration) float64 {
	if t.Duration <= 0 {
		return 0
	}
	rem := (elapsed + t.Phase) % t.Duration
	if rem < 0 {
		rem += t.Duration
	}
	return float64(rem) / float64(t.Duration)
}

// Sample returns the particle of this task at the given elapsed time. It
// depends only on its arguments.
func (t Task) Sample(elapsed time.Duration) Particle {
	p := t.Progress(elapsed)
	return Particle{
		EdgeID:   t.EdgeID,
		Position: t.Curve.At(p),
		Progress: p,
		Opacity:  MaxOpacity * (1 - p),
		Color:    t.Color,
	}
}

// Particle is the sampled state of one task.
type Particle struct {
	EdgeID   string        `json:"edge"`
	Position diagram.Point `json:"position"`
	Progress float64       `json:"progress"`
	Opacity  float64       `json:"opacity"`
	Color    string        `json:"color"`
}
