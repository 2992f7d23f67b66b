package svg

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/matzehuels/nodeflow/pkg/engine"
	"github.com/matzehuels/nodeflow/pkg/flow"
	"github.com/matzehuels/nodeflow/pkg/interaction"
	"github.com/matzehuels/nodeflow/pkg/layout"
)

const (
	nodeRadiusRatio = 0.03
	minNodeRadius   = 8.0
	particleRatio   = 0.25
	legendRowHeight = 22.0
	panelWidth      = 240.0
)

// Option configures SVG rendering.
type Option func(*renderer)

type renderer struct {
	width, height float64
	interactive   bool
	animate       bool
	legend        bool
	detail        bool
	background    string
}

// WithSize sets the output width and height attributes. By default the
// viewport size is used.
func WithSize(w, h float64) Option { return func(r *renderer) { r.width, r.height = w, h } }

// WithInteraction embeds the hover and click script.
func WithInteraction() Option { return func(r *renderer) { r.interactive = true } }

// WithAnimation adds SMIL particles for every flow task.
func WithAnimation() Option { return func(r *renderer) { r.animate = true } }

// WithLegend draws the category legend in the top-left corner.
func WithLegend() Option { return func(r *renderer) { r.legend = true } }

// WithDetail draws the detail panel of the selected node.
func WithDetail() Option { return func(r *renderer) { r.detail = true } }

// WithBackground fills the canvas with a colour.
func WithBackground(color string) Option { return func(r *renderer) { r.background = color } }

// Render draws a view. An unmeasured view renders an empty canvas.
func Render(v *engine.View, opts ...Option) []byte {
	r := renderer{}
	for _, opt := range opts {
		opt(&r)
	}

	vp := v.Viewport
	if vp.Empty() {
		vp = layout.Viewport{Width: layout.ReferenceWidth, Height: layout.ReferenceHeight}
	}
	w, h := r.width, r.height
	if w <= 0 || h <= 0 {
		w, h = vp.Width, vp.Height
	}
	radius := math.Max(minNodeRadius, math.Min(vp.Width, vp.Height)*nodeRadiusRatio)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%.1f %.1f %.1f %.1f" width="%.0f" height="%.0f" data-diagram="%s">`+"\n",
		vp.MinX, vp.MinY, vp.Width, vp.Height, w, h, escape(v.ID))
	if v.Title != "" {
		fmt.Fprintf(&buf, "  <title>%s</title>\n", escape(v.Title))
	}
	renderDefs(&buf)
	if r.background != "" {
		fmt.Fprintf(&buf, `  <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>`+"\n",
			vp.MinX, vp.MinY, vp.Width, vp.Height, escape(r.background))
	}

	renderEdges(&buf, v)
	if r.animate {
		renderParticles(&buf, v.Tasks, radius*particleRatio)
	}
	renderNodes(&buf, v, radius)
	if r.legend {
		renderLegend(&buf, v.Legend, vp)
	}
	if r.detail && v.Detail != nil {
		renderDetail(&buf, v, vp)
	}
	if r.interactive {
		renderInteraction(&buf)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderDefs(buf *bytes.Buffer) {
	buf.WriteString(`  <defs>
    <marker id="arrow" viewBox="0 0 10 10" refX="9" refY="5" markerWidth="6" markerHeight="6" orient="auto-start-reverse">
      <path d="M 0 0 L 10 5 L 0 10 z" fill="context-stroke"/>
    </marker>
  </defs>
`)
}

func renderEdges(buf *bytes.Buffer, v *engine.View) {
	buf.WriteString("  <g class=\"edges\">\n")
	for _, e := range v.Edges {
		s := e.Stroke
		dash := ""
		if s.Dashed() {
			dash = fmt.Sprintf(` stroke-dasharray="%s"`, s.Dash)
		}
		fmt.Fprintf(buf, `    <path id="edge-%s" class="edge %s" d="%s" fill="none" stroke="%s" stroke-width="%.2f" stroke-opacity="%.2f"%s marker-end="url(#arrow)" data-from="%s" data-to="%s" data-width="%d"/>`+"\n",
			escape(e.ID), e.Highlight, e.Curve.Path(), escape(s.Color), s.Width, s.Opacity, dash,
			escape(e.From), escape(e.To), e.Thickness)
		if e.Label != "" {
			p := e.Curve.Label()
			fmt.Fprintf(buf, `    <text class="edge-label %s" x="%.2f" y="%.2f" text-anchor="middle" font-size="11" fill="#475569" data-from="%s" data-to="%s">%s</text>`+"\n",
				e.Highlight, p.X, p.Y, escape(e.From), escape(e.To), escape(e.Label))
		}
	}
	buf.WriteString("  </g>\n")
}

func renderParticles(buf *bytes.Buffer, tasks []flow.Task, r float64) {
	if len(tasks) == 0 {
		return
	}
	buf.WriteString("  <g class=\"particles\">\n")
	for _, t := range tasks {
		dur := seconds(t.Duration)
		begin := -seconds(t.Phase)
		fmt.Fprintf(buf, `    <circle class="particle" r="%.2f" fill="%s" data-edge="%s">`+"\n", r, escape(t.Color), escape(t.EdgeID))
		fmt.Fprintf(buf, `      <animateMotion dur="%.3fs" begin="%.3fs" repeatCount="indefinite" path="%s"/>`+"\n", dur, begin, t.Curve.Path())
		fmt.Fprintf(buf, `      <animate attributeName="opacity" values="%.2f;0" dur="%.3fs" begin="%.3fs" repeatCount="indefinite"/>`+"\n",
			flow.MaxOpacity, dur, begin)
		buf.WriteString("    </circle>\n")
	}
	buf.WriteString("  </g>\n")
}

func renderNodes(buf *bytes.Buffer, v *engine.View, r float64) {
	neighbors := make(map[string][]string)
	for _, e := range v.Edges {
		if e.From != e.To {
			neighbors[e.From] = append(neighbors[e.From], e.To)
			neighbors[e.To] = append(neighbors[e.To], e.From)
		}
	}

	buf.WriteString("  <g class=\"nodes\">\n")
	for _, n := range v.Nodes {
		classes := []string{"node", n.Highlight.String()}
		if n.ID == v.Selected {
			classes = append(classes, "selected")
		}
		if n.ID == v.Hovered {
			classes = append(classes, "hovered")
		}
		fmt.Fprintf(buf, `    <g id="node-%s" class="%s" data-category="%s" data-neighbors="%s">`+"\n",
			escape(n.ID), strings.Join(classes, " "), n.Category, escape(strings.Join(neighbors[n.ID], " ")))
		if n.Description != "" {
			fmt.Fprintf(buf, "      <title>%s</title>\n", escape(n.Description))
		}
		fmt.Fprintf(buf, `      <circle cx="%.2f" cy="%.2f" r="%.2f" fill="%s" stroke="#0f172a" stroke-width="%.1f"/>`+"\n",
			n.Position.X, n.Position.Y, r, escape(n.Color), strokeWidth(n))
		fmt.Fprintf(buf, `      <text x="%.2f" y="%.2f" text-anchor="middle" font-size="12" fill="#0f172a">%s</text>`+"\n",
			n.Position.X, n.Position.Y+r+14, escape(n.Label))
		buf.WriteString("    </g>\n")
	}
	buf.WriteString("  </g>\n")
}

func strokeWidth(n engine.NodeView) float64 {
	if n.State != interaction.NodeNormal {
		return 3
	}
	return 1
}

func renderLegend(buf *bytes.Buffer, entries []engine.LegendEntry, vp layout.Viewport) {
	x, y := vp.MinX+12, vp.MinY+12
	buf.WriteString("  <g class=\"legend\">\n")
	for i, l := range entries {
		cy := y + float64(i)*legendRowHeight
		opacity := 1.0
		if !l.Active {
			opacity = 0.35
		}
		fmt.Fprintf(buf, `    <g class="legend-item" data-category="%s" opacity="%.2f">`, l.Category, opacity)
		fmt.Fprintf(buf, `<rect x="%.1f" y="%.1f" width="12" height="12" rx="3" fill="%s"/>`, x, cy, l.Color)
		fmt.Fprintf(buf, `<text x="%.1f" y="%.1f" font-size="12" fill="#0f172a">%s (%d)</text></g>`+"\n",
			x+18, cy+10, escape(l.Title), l.Count)
	}
	buf.WriteString("  </g>\n")
}

func renderDetail(buf *bytes.Buffer, v *engine.View, vp layout.Viewport) {
	d := v.Detail
	x := vp.MinX + vp.Width - panelWidth - 12
	y := vp.MinY + 12
	lines := 3 + len(d.Connections)
	h := 24 + float64(lines)*18
	fmt.Fprintf(buf, `  <g class="detail" data-node="%s">`+"\n", escape(d.ID))
	fmt.Fprintf(buf, `    <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="8" fill="#ffffff" stroke="%s"/>`+"\n",
		x, y, panelWidth, h, escape(d.Color))
	fmt.Fprintf(buf, `    <text x="%.1f" y="%.1f" font-size="14" font-weight="bold" fill="#0f172a">%s</text>`+"\n",
		x+12, y+24, escape(d.Title))
	fmt.Fprintf(buf, `    <text x="%.1f" y="%.1f" font-size="11" fill="%s">%s</text>`+"\n",
		x+12, y+42, escape(d.Color), escape(d.CategoryTitle))
	fmt.Fprintf(buf, `    <text x="%.1f" y="%.1f" font-size="11" fill="#475569">%s</text>`+"\n",
		x+12, y+60, escape(d.Description))
	for i, c := range d.Connections {
		fmt.Fprintf(buf, `    <text x="%.1f" y="%.1f" font-size="11" fill="#475569">→ %s</text>`+"\n",
			x+12, y+78+float64(i)*18, escape(c))
	}
	buf.WriteString("  </g>\n")
}

func seconds(d time.Duration) float64 { return d.Seconds() }

func escape(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
