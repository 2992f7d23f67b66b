// Package flow animates particles along edges.
//
// Every visible edge with animate=true gets one looping [Task], keyed by
// edge id and owned by the diagram's [Animator]. A task traverses its curve
// in clamp(12 - speed, 2, 11) time units, starting from a random phase in
// [0, duration] so parallel edges do not pulse in step. Opacity fades from
// 0.8 to zero over one traversal.
//
// Sampling is a pure function of elapsed time:
//
//	p = ((elapsed + phase) mod duration) / duration
//	position = curve.At(p)
//	opacity  = 0.8 × (1 - p)
//
// [Animator.Sync] is called after every relayout or filter change: it
// schedules tasks for new animated edges, moves surviving ones onto their
// new curves and cancels tasks whose edge left the render set.
// [Animator.Start] runs a single ticker for the whole diagram; Close stops
// it and cancels every task.
package flow
