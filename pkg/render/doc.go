// Package render holds the output sinks for diagram views.
//
// # Overview
//
//   - [svg]: standalone SVG with an inline interaction script and SMIL
//     flow particles
//   - [nodelink]: Graphviz DOT with pinned positions, rendered in-process
//   - this package: SVG to PDF/PNG conversion
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg). A missing converter yields
// an UNSUPPORTED error.
//
//	data := svg.Render(e.View())
//	pdf, err := render.ToPDF(ctx, data)
//	png, err := render.ToPNG(ctx, data, 2.0)  // 2x scale
//
// [svg]: github.com/matzehuels/nodeflow/pkg/render/svg
// [nodelink]: github.com/matzehuels/nodeflow/pkg/render/nodelink
package render
