package engine

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nodeflow/pkg/diagram"
	"github.com/matzehuels/nodeflow/pkg/responsive"
)

type config struct {
	logger     *log.Logger
	onSelect   func(id string)
	onToggle   func(c diagram.Category)
	controlled bool
	categories diagram.CategorySet
	debounce   time.Duration
	seed       *uint64
	unit       time.Duration
	clock      func() time.Time
	size       diagram.Size
	selected   string
}

func defaultConfig() config {
	return config{debounce: responsive.DefaultDelay}
}

// Option configures an Engine.
type Option func(*config)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *log.Logger) Option {
	return func(c *config) { c.logger = l }
}

// OnNodeSelect registers the selection-change callback. It receives the
// selected id, or "" when the selection clears. Callbacks run after the
// engine lock is released and may call back into the engine.
func OnNodeSelect(fn func(id string)) Option {
	return func(c *config) { c.onSelect = fn }
}

// OnCategoryToggle registers the category toggle callback. In the default
// mode it fires after the engine changed its active set; in controlled mode
// it fires instead of the change.
func OnCategoryToggle(fn func(diagram.Category)) Option {
	return func(c *config) { c.onToggle = fn }
}

// Controlled makes the caller own the active category set. ToggleCategory
// only reports the request through OnCategoryToggle; the caller applies
// the result with SetCategories.
func Controlled() Option {
	return func(c *config) { c.controlled = true }
}

// WithCategories sets the initial active set. Members outside the scheme
// are dropped; an empty result keeps the default of every category present.
func WithCategories(s diagram.CategorySet) Option {
	return func(c *config) { c.categories = s }
}

// WithSelection sets the initially selected node.
func WithSelection(id string) Option {
	return func(c *config) { c.selected = id }
}

// WithDebounce sets the resize debounce. Zero applies sizes synchronously.
func WithDebounce(d time.Duration) Option {
	return func(c *config) { c.debounce = d }
}

// WithSeed makes flow animation phases reproducible.
func WithSeed(seed uint64) Option {
	return func(c *config) { c.seed = &seed }
}

// WithTimeUnit sets the length of one flow duration unit.
func WithTimeUnit(d time.Duration) Option {
	return func(c *config) { c.unit = d }
}

// WithClock replaces time.Now for the flow animator.
func WithClock(now func() time.Time) Option {
	return func(c *config) { c.clock = now }
}

// WithSize lays the diagram out for an initial container size.
func WithSize(s diagram.Size) Option {
	return func(c *config) { c.size = s }
}
