// Package layout computes 2D node positions for a container size.
//
// Two interchangeable [Strategy] implementations exist:
//
//   - [Fixed]: author-assigned positions in an 800-unit reference space,
//     multiplied by width/800. The rendered layout is the authored blueprint,
//     rescaled proportionally.
//   - [Radial]: nodes evenly spaced on a circle, index 0 at twelve o'clock.
//     The radius follows a breakpoint table on the container width:
//
//	width < 640   0.5 × base
//	width < 768   0.7 × base
//	width < 1024  0.9 × base
//	otherwise     1.0 × base
//
// With more than 8 nodes the angles alternate by ±2° and the radius cycles
// through {0.95, 1.0, 1.05}; with more than 10 it also contracts by 5%.
//
// A container whose width is not positive has not been measured yet; every
// strategy returns an empty map for it. Strategies hold no state, so calling
// Positions twice with the same arguments yields identical maps.
//
// New diagram types need only a new Strategy. Consumers (the edge router,
// the flow animator, the sinks) never write positions.
package layout
