package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/nodeflow/pkg/diagram"
	"github.com/matzehuels/nodeflow/pkg/engine"
	"github.com/matzehuels/nodeflow/pkg/layout"
	"github.com/matzehuels/nodeflow/pkg/observability"
)

// ResolveStrategy returns the named strategy, or the one the definition
// calls for when name is empty.
func ResolveStrategy(g *diagram.Graph, name string) (layout.Strategy, error) {
	if name == "" {
		return layout.ForGraph(g), nil
	}
	return layout.Parse(name)
}

// ComputeLayout builds an engine for g, applies the filter, selection and
// hover from opts, and returns its view together with the serializable
// layout of the visible nodes. The engine is closed before returning.
func ComputeLayout(ctx context.Context, g *diagram.Graph, opts Options) (*engine.View, layout.Document, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return nil, layout.Document{}, err
	}
	strategy, err := ResolveStrategy(g, opts.Strategy)
	if err != nil {
		return nil, layout.Document{}, err
	}

	start := time.Now()
	observability.Pipeline().OnLayoutStart(ctx, strategy.Name(), len(g.Nodes))

	v, doc, err := computeLayout(g, strategy, opts)

	observability.Pipeline().OnLayoutComplete(ctx, strategy.Name(), time.Since(start), err)
	return v, doc, err
}

func computeLayout(g *diagram.Graph, strategy layout.Strategy, opts Options) (*engine.View, layout.Document, error) {
	size := diagram.Size{Width: opts.Width, Height: opts.Height}
	engineOpts := []engine.Option{
		engine.WithLogger(opts.Logger),
		engine.WithDebounce(0),
		engine.WithSeed(opts.Seed),
		engine.WithSize(size),
	}
	cats, err := diagram.ParseCategorySet(opts.Categories)
	if err != nil {
		return nil, layout.Document{}, err
	}
	if !cats.Empty() {
		engineOpts = append(engineOpts, engine.WithCategories(cats))
	}
	if opts.Select != "" {
		engineOpts = append(engineOpts, engine.WithSelection(opts.Select))
	}

	e, err := engine.New(g, strategy, engineOpts...)
	if err != nil {
		return nil, layout.Document{}, err
	}
	defer e.Close()

	if opts.Hover != "" {
		e.PointerEnter(opts.Hover)
	}
	v := e.View()

	visible := make([]diagram.Node, 0, len(v.Nodes))
	for _, n := range g.Nodes {
		if _, ok := v.Node(n.ID); ok {
			visible = append(visible, n)
		}
	}
	return v, layout.Export(strategy, visible, size), nil
}
