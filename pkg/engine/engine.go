package engine

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/nodeflow/pkg/connector"
	"github.com/matzehuels/nodeflow/pkg/diagram"
	"github.com/matzehuels/nodeflow/pkg/errors"
	"github.com/matzehuels/nodeflow/pkg/flow"
	"github.com/matzehuels/nodeflow/pkg/interaction"
	"github.com/matzehuels/nodeflow/pkg/layout"
	"github.com/matzehuels/nodeflow/pkg/observability"
	"github.com/matzehuels/nodeflow/pkg/panel"
	"github.com/matzehuels/nodeflow/pkg/responsive"
)

// Engine is one interactive diagram instance. It owns the layout
// positions, the joint interaction state, the flow animation tasks and the
// resize subscription of a single diagram.
//
// Event methods may be called from any goroutine. Callbacks registered with
// OnNodeSelect and OnCategoryToggle run after the internal lock is released.
type Engine struct {
	id       string
	graph    *diagram.Graph
	index    *interaction.Index
	strategy layout.Strategy
	cfg      config
	logger   *log.Logger

	animator *flow.Animator
	observer *responsive.Observer

	mu         sync.Mutex
	state      interaction.State
	size       diagram.Size
	sub        *interaction.Subgraph
	positions  layout.Positions
	curves     map[string]connector.Curve
	highlights interaction.Highlights
	closed     bool
}

// New creates an engine for g. The graph is copied and validated; a nil
// strategy picks one with layout.ForGraph. The fixed strategy requires an
// authored position on every node.
func New(g *diagram.Graph, strategy layout.Strategy, opts ...Option) (*Engine, error) {
	if g == nil {
		return nil, errors.New(errors.ErrCodeInvalidDiagram, "nil graph")
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	graph := cloneGraph(g)
	if err := graph.Validate(); err != nil {
		return nil, err
	}
	if strategy == nil {
		strategy = layout.ForGraph(graph)
	}
	if _, fixed := strategy.(layout.Fixed); fixed && !graph.HasPositions() && len(graph.Nodes) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidDiagram,
			"the fixed layout needs a position on every node")
	}

	e := &Engine{
		id:       uuid.NewString(),
		graph:    graph,
		index:    interaction.NewIndex(graph),
		strategy: strategy,
		cfg:      cfg,
		logger:   cfg.logger,
	}
	if e.logger == nil {
		e.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	e.logger = e.logger.With("diagram", e.id[:8])

	animOpts := []flow.Option{flow.WithLogger(e.logger)}
	if cfg.seed != nil {
		animOpts = append(animOpts, flow.WithSeed(*cfg.seed))
	}
	if cfg.unit > 0 {
		animOpts = append(animOpts, flow.WithUnit(cfg.unit))
	}
	if cfg.clock != nil {
		animOpts = append(animOpts, flow.WithClock(cfg.clock))
	}
	e.animator = flow.New(animOpts...)
	e.observer = responsive.New(cfg.debounce, e.applySize)

	e.state = e.index.Initial()
	if !cfg.categories.Empty() {
		e.state = e.index.Apply(e.state, interaction.SetCategories{Set: cfg.categories})
	}
	if cfg.selected != "" {
		e.state = e.index.Apply(e.state, interaction.Click{ID: cfg.selected})
	}
	e.size = cfg.size
	e.mu.Lock()
	e.relayout()
	e.mu.Unlock()

	e.logger.Debug("created diagram",
		"strategy", strategy.Name(), "scheme", graph.Scheme,
		"nodes", len(graph.Nodes), "edges", len(graph.Edges))
	return e, nil
}

// ID returns the instance id.
func (e *Engine) ID() string { return e.id }

// Graph returns the validated copy of the definition.
func (e *Engine) Graph() *diagram.Graph { return e.graph }

// Strategy returns the layout strategy.
func (e *Engine) Strategy() layout.Strategy { return e.strategy }

// =============================================================================
// Events
// =============================================================================

// Resize reports a container size change. Sizes are debounced according
// to WithDebounce; Flush applies a pending one immediately.
func (e *Engine) Resize(size diagram.Size) {
	e.observer.Observe(size)
}

// Flush applies a pending resize now.
func (e *Engine) Flush() {
	e.observer.Flush()
}

// WatchSizes feeds sizes from ch into Resize until ctx is done, ch is
// closed or the engine is closed.
func (e *Engine) WatchSizes(ctx context.Context, ch <-chan diagram.Size) {
	e.observer.Watch(ctx, ch)
}

// PointerEnter marks id as hovered. Unknown and hidden ids are ignored.
func (e *Engine) PointerEnter(id string) bool {
	return e.dispatch("enter", interaction.PointerEnter{ID: id})
}

// PointerLeave clears the hover if it is on id.
func (e *Engine) PointerLeave(id string) bool {
	return e.dispatch("leave", interaction.PointerLeave{ID: id})
}

// Click toggles the selection of id.
func (e *Engine) Click(id string) bool {
	return e.dispatch("click", interaction.Click{ID: id})
}

// Reset clears the selection. Closing the detail panel calls Reset.
func (e *Engine) Reset() bool {
	return e.dispatch("reset", interaction.Reset{})
}

// ToggleCategory removes c from the active set, or adds it back. Removing
// the sole active category, or toggling one no node carries, does nothing. In controlled mode the request is
// only forwarded to the OnCategoryToggle callback. It reports whether the
// active set changed.
func (e *Engine) ToggleCategory(c diagram.Category) bool {
	if e.cfg.controlled {
		if e.cfg.onToggle != nil && e.index.Scope().Has(c) {
			e.cfg.onToggle(c)
		}
		return false
	}
	return e.dispatch("toggle", interaction.ToggleCategory{Category: c})
}

// SetCategories replaces the active set. Empty or out-of-scheme sets are
// ignored.
func (e *Engine) SetCategories(s diagram.CategorySet) bool {
	return e.dispatch("set-categories", interaction.SetCategories{Set: s})
}

// dispatch applies one event and fires callbacks for the resulting change.
func (e *Engine) dispatch(name string, ev interaction.Event) bool {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return false
	}
	prev := e.state
	next := e.index.Apply(prev, ev)
	e.state = next
	switch {
	case next.Active != prev.Active:
		e.relayout()
	case next.ActiveNode() != prev.ActiveNode():
		e.highlights = interaction.Derive(next.ActiveNode(), e.sub)
	}
	e.mu.Unlock()

	changed := next != prev
	observability.Engine().OnInteraction(name, changed)
	if !changed {
		return false
	}
	e.logger.Debug("interaction", "event", name, "hovered", next.Hovered, "selected", next.Selected, "active", next.Active)

	if next.Selected != prev.Selected && e.cfg.onSelect != nil {
		e.cfg.onSelect(next.Selected)
	}
	if t, ok := ev.(interaction.ToggleCategory); ok && next.Active != prev.Active && e.cfg.onToggle != nil {
		e.cfg.onToggle(t.Category)
	}
	return true
}

func (e *Engine) applySize(size diagram.Size) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || size == e.size {
		return
	}
	e.size = size
	e.relayout()
}

// relayout recomputes the render set, positions, curves, highlights and
// flow tasks. Callers hold e.mu.
func (e *Engine) relayout() {
	start := time.Now()
	e.sub = interaction.Filter(e.graph, e.state.Active)
	e.positions = e.strategy.Positions(e.sub.Nodes, e.size)
	e.highlights = interaction.Derive(e.state.ActiveNode(), e.sub)

	limit := e.strategy.CurveCap(e.size)
	e.curves = make(map[string]connector.Curve, len(e.sub.Edges))
	routes := make([]flow.Route, 0, len(e.sub.Edges))
	for _, edge := range e.sub.Edges {
		from, ok1 := e.positions[edge.From]
		to, ok2 := e.positions[edge.To]
		if !ok1 || !ok2 {
			continue
		}
		c := connector.Route(from, to, limit)
		e.curves[edge.ID()] = c
		routes = append(routes, flow.Route{Edge: edge, Curve: c})
	}
	added, removed := e.animator.Sync(routes)

	observability.Engine().OnRelayout(e.strategy.Name(), len(e.positions), len(e.curves), time.Since(start))
	observability.Engine().OnFlowSync(len(added), len(removed), e.animator.Len())
	if !e.size.Measured() {
		e.logger.Debug("container not measured, layout deferred")
		return
	}
	e.logger.Debug("computed layout", "width", e.size.Width, "nodes", len(e.positions), "edges", len(e.curves))
}

// =============================================================================
// Queries
// =============================================================================

// State returns the current interaction state.
func (e *Engine) State() interaction.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Selected returns the selected node id, or "".
func (e *Engine) Selected() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Selected
}

// Active returns the active category set.
func (e *Engine) Active() diagram.CategorySet {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Active
}

// Size returns the last applied container size.
func (e *Engine) Size() diagram.Size {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.size
}

// Positions returns a copy of the current positions.
func (e *Engine) Positions() layout.Positions {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(layout.Positions, len(e.positions))
	for id, p := range e.positions {
		out[id] = p
	}
	return out
}

// Detail returns the detail panel content for the selected node, or nil.
func (e *Engine) Detail() *panel.Detail {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.detail()
}

func (e *Engine) detail() *panel.Detail {
	n, ok := e.sub.Node(e.state.Selected)
	if !ok {
		return nil
	}
	var labels []string
	for _, id := range e.sub.Neighbors(n.ID) {
		if nb, ok := e.sub.Node(id); ok {
			labels = append(labels, nb.DisplayLabel())
		}
	}
	return panel.Project(n, labels...)
}

// View returns a snapshot of the diagram. Nodes and edges are listed in
// declaration order; hidden and unplaced ones are omitted.
func (e *Engine) View() *View {
	e.mu.Lock()
	defer e.mu.Unlock()

	v := &View{
		ID:       e.id,
		Title:    e.graph.Title,
		Scheme:   e.graph.Scheme,
		Strategy: e.strategy.Name(),
		Size:     e.size,
		Viewport: e.strategy.Viewport(e.size),
		Hovered:  e.state.Hovered,
		Selected: e.state.Selected,
		Nodes:    make([]NodeView, 0, len(e.positions)),
		Edges:    make([]EdgeView, 0, len(e.curves)),
		Tasks:    e.animator.Tasks(),
		Detail:   e.detail(),
	}
	for _, n := range e.sub.Nodes {
		p, ok := e.positions[n.ID]
		if !ok {
			continue
		}
		v.Nodes = append(v.Nodes, NodeView{
			ID:          n.ID,
			Label:       n.DisplayLabel(),
			Description: n.Description,
			Category:    n.Category,
			Color:       n.DisplayColor(),
			Icon:        n.Icon,
			Position:    p,
			State:       e.state.NodeState(n.ID),
			Highlight:   e.highlights.Node(n.ID),
		})
	}
	for _, edge := range e.sub.Edges {
		c, ok := e.curves[edge.ID()]
		if !ok {
			continue
		}
		h := e.highlights.Edge(edge)
		v.Edges = append(v.Edges, EdgeView{
			ID:        edge.ID(),
			From:      edge.From,
			To:        edge.To,
			Label:     edge.Label,
			Animate:   edge.Animate,
			Thickness: edge.EffectiveThickness(),
			Curve:     c,
			Stroke:    connector.StrokeFor(edge, h),
			Highlight: h,
		})
	}
	v.Legend = e.legend()
	return v
}

func (e *Engine) legend() []LegendEntry {
	counts := make(map[diagram.Category]int)
	for _, n := range e.graph.Nodes {
		counts[n.Category]++
	}
	var out []LegendEntry
	for _, c := range e.graph.UsedCategories().Slice() {
		out = append(out, LegendEntry{
			Category: c,
			Title:    c.Title(),
			Color:    c.Color(),
			Active:   e.state.Active.Has(c),
			Count:    counts[c],
		})
	}
	return out
}

// =============================================================================
// Animation
// =============================================================================

// Particles samples every flow task at the given elapsed time.
func (e *Engine) Particles(elapsed time.Duration) []flow.Particle {
	return e.animator.Particles(elapsed)
}

// Frame samples every flow task at the animator's current time.
func (e *Engine) Frame() []flow.Particle {
	return e.animator.Frame()
}

// StartAnimation delivers a particle frame to sink every interval until
// ctx is done or the engine is closed.
func (e *Engine) StartAnimation(ctx context.Context, interval time.Duration, sink func([]flow.Particle)) error {
	return e.animator.Start(ctx, interval, sink)
}

// Close tears down the resize subscription and every animation task. The
// engine ignores events afterwards.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()

	e.observer.Close()
	e.animator.Close()
	e.logger.Debug("closed diagram")
}

func cloneGraph(g *diagram.Graph) *diagram.Graph {
	c := *g
	c.Nodes = make([]diagram.Node, len(g.Nodes))
	for i, n := range g.Nodes {
		if n.Position != nil {
			p := *n.Position
			n.Position = &p
		}
		c.Nodes[i] = n
	}
	c.Edges = append([]diagram.Edge(nil), g.Edges...)
	return &c
}
