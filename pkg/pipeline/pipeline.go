// Package pipeline provides the load → layout → render pipeline shared by
// the CLI and the HTTP service.
//
// # Architecture
//
//  1. Load: read and validate a diagram definition (JSON, YAML or TOML)
//  2. Layout: build an engine instance, apply the requested filter,
//     selection and hover, and snapshot its [engine.View]
//  3. Render: produce outputs in one or more formats (SVG, PNG, PDF, DOT,
//     JSON), converting formats concurrently
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Path:     "platform.yaml",
//	    Strategy: "radial",
//	    Formats:  []string{"svg", "png"},
//	})
//	svg := result.Artifacts["svg"]
//
// Rendered artifacts are cached by a hash of the definition and every option
// that affects the output. When all requested artifacts are cached the
// layout stage is skipped.
package pipeline

import (
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nodeflow/pkg/cache"
	"github.com/matzehuels/nodeflow/pkg/diagram"
	"github.com/matzehuels/nodeflow/pkg/engine"
	"github.com/matzehuels/nodeflow/pkg/errors"
	"github.com/matzehuels/nodeflow/pkg/layout"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultWidth is the container width used when none is given.
	DefaultWidth = 800.0

	// DefaultScale is the PNG resolution multiplier.
	DefaultScale = 2.0

	// DefaultSeed seeds animation phases so repeated renders are identical.
	DefaultSeed = uint64(42)

	// MaxWidth bounds the container width accepted from requests.
	MaxWidth = 8192.0
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatDOT  = "dot"
	FormatJSON = "json"
)

// Renderer names for the SVG backend.
const (
	RendererNative   = "native"
	RendererGraphviz = "graphviz"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatDOT:  true,
	FormatJSON: true,
}

// ContentTypes maps output formats to MIME types.
var ContentTypes = map[string]string{
	FormatSVG:  "image/svg+xml",
	FormatPNG:  "image/png",
	FormatPDF:  "application/pdf",
	FormatDOT:  "text/vnd.graphviz",
	FormatJSON: "application/json",
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Source options. Graph takes precedence over Path.
	Path  string         `json:"path,omitempty"`
	Graph *diagram.Graph `json:"-"`

	// Layout options
	Strategy   string  `json:"strategy,omitempty"`
	Width      float64 `json:"width,omitempty"`
	Height     float64 `json:"height,omitempty"`
	Categories string  `json:"categories,omitempty"`
	Select     string  `json:"select,omitempty"`
	Hover      string  `json:"hover,omitempty"`
	Seed       uint64  `json:"seed,omitempty"`

	// Render options
	Formats     []string `json:"formats,omitempty"`
	Renderer    string   `json:"renderer,omitempty"`
	Animate     bool     `json:"animate,omitempty"`
	Interactive bool     `json:"interactive,omitempty"`
	Legend      bool     `json:"legend,omitempty"`
	Detail      bool     `json:"detail,omitempty"`
	Detailed    bool     `json:"detailed,omitempty"` // DOT labels with category and description
	Scale       float64  `json:"scale,omitempty"`
	Refresh     bool     `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the loaded definition.
	Graph *diagram.Graph

	// GraphHash is the content hash of the definition.
	GraphHash string

	// Strategy is the resolved layout strategy name.
	Strategy string

	// View is the engine snapshot. Nil when every artifact came from cache.
	View *engine.View

	// Layout is the serializable layout. Zero when every artifact came from cache.
	Layout layout.Document

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount    int
	EdgeCount    int
	VisibleNodes int
	VisibleEdges int
	LoadTime     time.Duration
	LayoutTime   time.Duration
	RenderTime   time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // layout document came from cache
	RenderHit bool // all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: svg, png, pdf, dot, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateStrategy checks a strategy name. Empty selects a strategy from the
// definition.
func ValidateStrategy(name string) error {
	if name == "" {
		return nil
	}
	_, err := layout.Parse(name)
	return err
}

// ValidateRenderer checks an SVG backend name.
func ValidateRenderer(name string) error {
	switch name {
	case RendererNative, RendererGraphviz:
		return nil
	}
	return errors.New(errors.ErrCodeInvalidInput, "invalid renderer: %q (must be one of: native, graphviz)", name)
}

// ValidateSize checks container dimensions.
func ValidateSize(width, height float64) error {
	if width < 0 || height < 0 {
		return errors.New(errors.ErrCodeInvalidSize, "size must not be negative (got %gx%g)", width, height)
	}
	if width > MaxWidth || height > MaxWidth {
		return errors.New(errors.ErrCodeInvalidSize, "size exceeds %g", MaxWidth)
	}
	return nil
}

// ParseFormats splits a comma-separated format list, dropping blanks and
// duplicates.
func ParseFormats(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" && !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the
// full pipeline. Calling it more than once has no further effect.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks that a source is given.
func (o *Options) ValidateForLoad() error {
	if o.Graph == nil && o.Path == "" {
		return errors.New(errors.ErrCodeInvalidInput, "path or graph is required")
	}
	if o.Graph == nil {
		if err := errors.ValidatePath(o.Path); err != nil {
			return err
		}
	}
	o.setLogger()
	return nil
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	o.Strategy = strings.ToLower(strings.TrimSpace(o.Strategy))
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	o.setLogger()
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	if err := ValidateStrategy(o.Strategy); err != nil {
		return err
	}
	if err := ValidateSize(o.Width, o.Height); err != nil {
		return err
	}
	_, err := diagram.ParseCategorySet(o.Categories)
	return err
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Renderer == "" {
		o.Renderer = RendererNative
	}
	if o.Scale <= 0 {
		o.Scale = DefaultScale
	}
	o.setLogger()
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	return ValidateRenderer(o.Renderer)
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Source names the definition for logs and hooks.
func (o *Options) Source() string {
	if o.Graph != nil {
		if o.Graph.Title != "" {
			return o.Graph.Title
		}
		return "inline"
	}
	return o.Path
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts(strategy string) cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Strategy:   strategy,
		Width:      o.Width,
		Height:     o.Height,
		Categories: o.Categories,
		Selected:   o.Select,
		Hovered:    o.Hover,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	opts := cache.ArtifactKeyOpts{
		Format:      format,
		Renderer:    o.Renderer,
		Animate:     o.Animate,
		Interactive: o.Interactive,
		Legend:      o.Legend,
		Detail:      o.Detail,
		Detailed:    o.Detailed,
		Seed:        o.Seed,
	}
	if format == FormatPNG {
		opts.Scale = o.Scale
	}
	return opts
}
