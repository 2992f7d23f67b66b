package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/nodeflow/pkg/diagram"
	"github.com/matzehuels/nodeflow/pkg/engine"
	"github.com/matzehuels/nodeflow/pkg/render"
)

// Options configures DOT generation.
type Options struct {
	// Detailed adds the category title and description to node labels.
	Detailed bool
}

// ToDOT converts a view to Graphviz DOT. Node positions are pinned with
// pos="x,y!" (one diagram unit per point) so neato keeps the engine's layout.
// The y axis is flipped since Graphviz grows upwards.
func ToDOT(v *engine.View, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  splines=curved;\n")
	buf.WriteString("  node [shape=circle, style=filled, fontsize=12, fixedsize=false, margin=\"0.1,0.05\"];\n")
	buf.WriteString("  edge [fontsize=10, arrowsize=0.7];\n")
	if v.Title != "" {
		fmt.Fprintf(&buf, "  label=%q;\n", v.Title)
	}
	buf.WriteString("\n")

	top := v.Viewport.MinY + v.Viewport.Height
	for _, n := range v.Nodes {
		attrs := []string{
			fmt.Sprintf("label=%q", fmtLabel(n, opts.Detailed)),
			fmt.Sprintf("pos=\"%.2f,%.2f!\"", n.Position.X, top-n.Position.Y),
			fmt.Sprintf("fillcolor=%q", n.Color),
		}
		switch n.Highlight {
		case diagram.HighlightOn:
			attrs = append(attrs, "penwidth=3")
		case diagram.HighlightOff:
			attrs = append(attrs, "fontcolor=\"#94a3b8\"", "color=\"#cbd5e1\"")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range v.Edges {
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.From, e.To, strings.Join(edgeAttrs(e), ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n engine.NodeView, detailed bool) string {
	if !detailed {
		return n.Label
	}
	parts := []string{n.Label, n.Category.Title()}
	if n.Description != "" {
		parts = append(parts, n.Description)
	}
	return strings.Join(parts, "\n")
}

func edgeAttrs(e engine.EdgeView) []string {
	s := e.Stroke
	attrs := []string{
		fmt.Sprintf("color=%q", colorWithAlpha(s.Color, s.Opacity)),
		fmt.Sprintf("penwidth=%.2f", s.Width),
	}
	if s.Dashed() {
		attrs = append(attrs, "style=dashed")
	}
	if e.Label != "" {
		attrs = append(attrs, fmt.Sprintf("label=%q", e.Label))
	}
	return attrs
}

// colorWithAlpha appends an alpha byte to six-digit hex colours. Other
// colour forms pass through unchanged.
func colorWithAlpha(color string, opacity float64) string {
	if len(color) != 7 || color[0] != '#' {
		return color
	}
	a := int(opacity*255 + 0.5)
	a = max(0, min(255, a))
	return fmt.Sprintf("%s%02x", color, a)
}

// RenderSVG renders DOT to SVG with the neato engine.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	gv.SetLayout(graphviz.NEATO)

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// RenderPDF renders DOT as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders DOT as PNG via SVG conversion.
// A scale of 2.0 produces a 2x resolution image suitable for high-DPI displays.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
