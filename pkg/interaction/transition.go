package interaction

import (
	"github.com/matzehuels/nodeflow/pkg/diagram"
)

// Event is an input to the joint transition function.
type Event interface {
	event()
}

type (
	// PointerEnter sets the hovered node.
	PointerEnter struct{ ID string }
	// PointerLeave clears the hovered node if it is ID.
	PointerLeave struct{ ID string }
	// Click toggles the selection of ID.
	Click struct{ ID string }
	// Reset clears the selection.
	Reset struct{}
	// ToggleCategory removes an active category or adds an inactive one.
	ToggleCategory struct{ Category diagram.Category }
	// SetCategories replaces the active set.
	SetCategories struct{ Set diagram.CategorySet }
)

func (PointerEnter) event()   {}
func (PointerLeave) event()   {}
func (Click) event()          {}
func (Reset) event()          {}
func (ToggleCategory) event() {}
func (SetCategories) event()  {}

// Apply is the single transition function over selection, hover and
// filter. Events naming unknown or hidden nodes, toggles that would empty
// the active set, and categories outside the scope leave the state
// unchanged. After every transition hidden nodes are neither hovered nor
// selected.
func (ix *Index) Apply(s State, ev Event) State {
	switch ev := ev.(type) {
	case PointerEnter:
		if ix.Visible(s, ev.ID) {
			s.Hovered = ev.ID
		}
	case PointerLeave:
		if s.Hovered == ev.ID {
			s.Hovered = ""
		}
	case Click:
		if !ix.Visible(s, ev.ID) {
			return s
		}
		if s.Selected == ev.ID {
			s.Selected = ""
		} else {
			s.Selected = ev.ID
		}
	case Reset:
		s.Selected = ""
	case ToggleCategory:
		s.Active = ix.toggle(s.Active, ev.Category)
	case SetCategories:
		if set := ev.Set & ix.scope; !set.Empty() {
			s.Active = set
		}
	}
	return ix.prune(s)
}

func (ix *Index) toggle(active diagram.CategorySet, c diagram.Category) diagram.CategorySet {
	if !ix.scope.Has(c) {
		return active
	}
	if !active.Has(c) {
		return active.With(c)
	}
	if active.Len() == 1 {
		return active
	}
	return active.Without(c)
}

// prune clears hover and selection on nodes the filter hides.
func (ix *Index) prune(s State) State {
	if s.Hovered != "" && !ix.Visible(s, s.Hovered) {
		s.Hovered = ""
	}
	if s.Selected != "" && !ix.Visible(s, s.Selected) {
		s.Selected = ""
	}
	return s
}
