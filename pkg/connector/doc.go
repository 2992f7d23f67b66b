// Package connector draws the curved connector between two node positions.
//
// [Route] produces a quadratic [Curve]: the control point is the segment
// midpoint offset perpendicular to the segment by min(0.15·distance, cap).
// The cap comes from the layout strategy (a fixed amount for blueprint
// layouts, a fraction of the radius for radial ones), so long edges keep a
// gentle arc instead of bowing out of the diagram. Edge labels anchor at the
// control point.
//
// [StrokeFor] maps a [diagram.Highlight] to a [Stroke]:
//
//	on       solid, thickness + 1, opacity 1.0
//	off      dashed "4 4", max(0.5, thickness/2), opacity 0.2
//	neutral  solid, thickness, opacity 0.6
package connector
