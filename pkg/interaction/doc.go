// Package interaction holds the hover, selection and category-filter state
// of a diagram and derives the render set and highlight signal from it.
//
// The three state cells live in one [State] value and change only through
// [Index.Apply], a pure transition function. Keeping them together means a
// filter change that hides the selected node clears that selection in the
// same step:
//
//	ix := interaction.NewIndex(g)
//	s := ix.Initial()
//	s = ix.Apply(s, interaction.Click{ID: "auth"})
//	s = ix.Apply(s, interaction.ToggleCategory{Category: diagram.CategorySecurity})
//	// s.Selected == ""
//
// The active category set is never empty: toggling the sole active
// category is a no-op.
//
// [Filter] derives the [Subgraph] of visible nodes and edges. Edges with a
// missing or hidden endpoint are dropped from rendering and adjacency alike.
// [Derive] computes the tri-state highlight of every visible node and edge
// from the active node (hovered, else selected).
package interaction
