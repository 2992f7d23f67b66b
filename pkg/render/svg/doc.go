// Package svg renders diagram views as standalone SVG documents.
//
// [Render] draws an [engine.View] snapshot: curved edges styled by their
// highlight state, labelled nodes, and optionally the category legend, the
// detail panel of the selected node, SMIL flow particles and an inline
// script that reproduces hover and click highlighting in the browser.
//
//	e, _ := engine.New(g, layout.Fixed{}, engine.WithSize(diagram.Size{Width: 800}))
//	data := svg.Render(e.View(), svg.WithInteraction(), svg.WithAnimation(), svg.WithLegend())
//
// Particles start at a negative begin offset equal to their task phase, so
// the static document shows the same frame the engine samples at time zero.
//
// The legend is static. Category filtering changes the layout, so it is
// applied to the engine before rendering and a filtered document carries
// only the surviving nodes.
package svg
