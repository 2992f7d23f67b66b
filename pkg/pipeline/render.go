package pipeline

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/nodeflow/pkg/engine"
	"github.com/matzehuels/nodeflow/pkg/errors"
	"github.com/matzehuels/nodeflow/pkg/layout"
	"github.com/matzehuels/nodeflow/pkg/observability"
	"github.com/matzehuels/nodeflow/pkg/render"
	"github.com/matzehuels/nodeflow/pkg/render/nodelink"
	"github.com/matzehuels/nodeflow/pkg/render/svg"
)

// Render generates output artifacts in the requested formats. The SVG base
// image is produced once; PNG and PDF conversions then run concurrently.
func Render(ctx context.Context, v *engine.View, doc layout.Document, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}

	start := time.Now()
	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	artifacts, err := renderFormats(ctx, v, doc, opts)
	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	return artifacts, err
}

func renderFormats(ctx context.Context, v *engine.View, doc layout.Document, opts Options) (map[string][]byte, error) {
	var base []byte
	if slices.ContainsFunc(opts.Formats, needsSVG) {
		var err error
		if base, err = RenderSVG(ctx, v, opts); err != nil {
			return nil, fmt.Errorf("render svg: %w", err)
		}
	}

	var (
		mu        sync.Mutex
		artifacts = make(map[string][]byte, len(opts.Formats))
	)
	g, ctx := errgroup.WithContext(ctx)
	for _, format := range opts.Formats {
		g.Go(func() error {
			data, err := renderFormat(ctx, format, base, v, doc, opts)
			if err != nil {
				return fmt.Errorf("render %s: %w", format, err)
			}
			mu.Lock()
			artifacts[format] = data
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return artifacts, nil
}

func renderFormat(ctx context.Context, format string, base []byte, v *engine.View, doc layout.Document, opts Options) ([]byte, error) {
	switch format {
	case FormatSVG:
		return base, nil
	case FormatPNG:
		return render.ToPNG(ctx, base, opts.Scale)
	case FormatPDF:
		return render.ToPDF(ctx, base)
	case FormatDOT:
		return []byte(nodelink.ToDOT(v, nodelink.Options{Detailed: opts.Detailed})), nil
	case FormatJSON:
		return layout.MarshalDocument(doc)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported format: %s", format)
	}
}

// RenderSVG draws a view with the configured SVG backend.
func RenderSVG(ctx context.Context, v *engine.View, opts Options) ([]byte, error) {
	if opts.Renderer == RendererGraphviz {
		return nodelink.RenderSVG(ctx, nodelink.ToDOT(v, nodelink.Options{Detailed: opts.Detailed}))
	}
	return svg.Render(v, svgOptions(opts)...), nil
}

func svgOptions(opts Options) []svg.Option {
	var out []svg.Option
	if opts.Interactive {
		out = append(out, svg.WithInteraction())
	}
	if opts.Animate {
		out = append(out, svg.WithAnimation())
	}
	if opts.Legend {
		out = append(out, svg.WithLegend())
	}
	if opts.Detail {
		out = append(out, svg.WithDetail())
	}
	return out
}

func needsSVG(format string) bool {
	return format == FormatSVG || format == FormatPNG || format == FormatPDF
}
