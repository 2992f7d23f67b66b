package cache

import (
	"fmt"
	"strings"
)

// Keyer builds cache keys.
type Keyer interface {
	// DiagramKey identifies a stored definition.
	DiagramKey(id string) string
	// LayoutKey identifies a computed layout of a definition.
	LayoutKey(graphHash string, opts LayoutKeyOpts) string
	// ArtifactKey identifies a rendered output of a layout.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts are the inputs that change a layout.
type LayoutKeyOpts struct {
	Strategy   string  `json:"strategy"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Categories string  `json:"categories,omitempty"`
	Selected   string  `json:"selected,omitempty"`
	Hovered    string  `json:"hovered,omitempty"`
}

// ArtifactKeyOpts are the inputs that change a rendered artifact.
type ArtifactKeyOpts struct {
	Format      string  `json:"format"`
	Renderer    string  `json:"renderer,omitempty"`
	Animate     bool    `json:"animate"`
	Interactive bool    `json:"interactive"`
	Legend      bool    `json:"legend"`
	Detail      bool    `json:"detail"`
	Detailed    bool    `json:"detailed"`
	Seed        uint64  `json:"seed,omitempty"`
	Scale       float64 `json:"scale,omitempty"`
}

// DefaultKeyer is the standard [Keyer].
type DefaultKeyer struct{}

// NewDefaultKeyer returns a [DefaultKeyer].
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// DiagramKey returns "diagram:<id>".
func (DefaultKeyer) DiagramKey(id string) string {
	return fmt.Sprintf("diagram:%s", strings.TrimSpace(id))
}

// LayoutKey hashes the graph hash together with the layout options.
func (DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts)
}

// ArtifactKey hashes the layout hash together with the render options.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

var _ Keyer = DefaultKeyer{}
