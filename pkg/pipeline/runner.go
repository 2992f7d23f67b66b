package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nodeflow/pkg/cache"
	"github.com/matzehuels/nodeflow/pkg/diagram"
	"github.com/matzehuels/nodeflow/pkg/layout"
	"github.com/matzehuels/nodeflow/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner holds no per-run state, so multiple goroutines can use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{Artifacts: make(map[string][]byte)}

	loadStart := time.Now()
	g, err := Load(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Graph = g
	result.GraphHash = graphHash(g)
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.NodeCount = len(g.Nodes)
	result.Stats.EdgeCount = len(g.Edges)

	strategy, err := ResolveStrategy(g, opts.Strategy)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Strategy = strategy.Name()

	r.Logger.Debug("loaded definition",
		"source", opts.Source(),
		"nodes", result.Stats.NodeCount,
		"edges", result.Stats.EdgeCount,
		"duration", result.Stats.LoadTime)

	layoutHash := cache.Hash([]byte(r.Keyer.LayoutKey(result.GraphHash, opts.LayoutKeyOpts(result.Strategy))))
	if artifacts, ok := r.cachedArtifacts(ctx, layoutHash, opts); ok {
		result.Artifacts = artifacts
		result.CacheInfo.RenderHit = true
		r.Logger.Info("artifacts from cache", "formats", opts.Formats)
		return result, nil
	}

	layoutStart := time.Now()
	v, doc, err := ComputeLayout(ctx, g, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.View = v
	result.Layout = doc
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.VisibleNodes = len(v.Nodes)
	result.Stats.VisibleEdges = len(v.Edges)

	r.Logger.Info("computed layout",
		"strategy", result.Strategy,
		"nodes", len(v.Nodes),
		"edges", len(v.Edges),
		"duration", result.Stats.LayoutTime)

	renderStart := time.Now()
	artifacts, err := Render(ctx, v, doc, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)

	for format, data := range artifacts {
		r.store(ctx, "artifact", r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format)), data, cache.ArtifactTTL)
	}

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// LayoutWithCacheInfo loads the definition and computes its layout
// document, consulting the cache first unless opts.Refresh is set.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, opts Options) (layout.Document, bool, error) {
	r.applyLogger(&opts)
	g, err := Load(ctx, opts)
	if err != nil {
		return layout.Document{}, false, fmt.Errorf("load: %w", err)
	}
	if err := opts.ValidateForLayout(); err != nil {
		return layout.Document{}, false, err
	}
	strategy, err := ResolveStrategy(g, opts.Strategy)
	if err != nil {
		return layout.Document{}, false, err
	}

	key := r.Keyer.LayoutKey(graphHash(g), opts.LayoutKeyOpts(strategy.Name()))
	if !opts.Refresh {
		if data, ok := r.lookup(ctx, "layout", key); ok {
			if doc, err := layout.UnmarshalDocument(data); err == nil {
				return doc, true, nil
			}
		}
	}

	_, doc, err := ComputeLayout(ctx, g, opts)
	if err != nil {
		return layout.Document{}, false, err
	}
	if data, err := layout.MarshalDocument(doc); err == nil {
		r.store(ctx, "layout", key, data, cache.LayoutTTL)
	}
	return doc, false, nil
}

// Layout is LayoutWithCacheInfo without the cache hit flag.
func (r *Runner) Layout(ctx context.Context, opts Options) (layout.Document, error) {
	doc, _, err := r.LayoutWithCacheInfo(ctx, opts)
	return doc, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) cachedArtifacts(ctx context.Context, layoutHash string, opts Options) (map[string][]byte, bool) {
	if opts.Refresh {
		return nil, false
	}
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		data, ok := r.lookup(ctx, "artifact", r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format)))
		if !ok {
			return nil, false
		}
		artifacts[format] = data
	}
	return artifacts, true
}

// lookup reads key, treating cache errors as misses.
func (r *Runner) lookup(ctx context.Context, keyType, key string) ([]byte, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "type", keyType, "error", err)
		hit = false
	}
	if hit {
		observability.Cache().OnCacheHit(ctx, keyType)
		return data, true
	}
	observability.Cache().OnCacheMiss(ctx, keyType)
	return nil, false
}

func (r *Runner) store(ctx context.Context, keyType, key string, data []byte, ttl time.Duration) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "type", keyType, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func graphHash(g *diagram.Graph) string {
	data, err := diagram.MarshalGraph(g)
	if err != nil {
		return ""
	}
	return cache.Hash(data)
}
