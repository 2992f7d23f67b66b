// Package nodelink renders diagram views through Graphviz.
//
// # Usage
//
// Convert an engine view to DOT, then render to SVG:
//
//	dot := nodelink.ToDOT(e.View(), nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// For PDF or PNG output:
//
//	pdf, err := nodelink.RenderPDF(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot, 2.0)  // 2x scale
//
// # DOT Format
//
// Nodes are pinned to the positions computed by the layout strategy and the
// neato engine only routes edges. Highlight state is carried into the DOT:
// active nodes get a heavier outline, dimmed edges are dashed and faded via
// an alpha channel on their colour.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
