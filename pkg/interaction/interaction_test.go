package interaction

import (
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/nodeflow/pkg/diagram"
)

// platform is a small architecture diagram: api sits in the middle.
func platform() *diagram.Graph {
	return &diagram.Graph{
		Scheme: diagram.SchemeArchitecture,
		Nodes: []diagram.Node{
			{ID: "webapp", Category: diagram.CategoryFrontend},
			{ID: "api", Category: diagram.CategoryBackend},
			{ID: "db", Category: diagram.CategoryInfrastructure},
			{ID: "cache", Category: diagram.CategoryInfrastructure},
			{ID: "auth", Category: diagram.CategorySecurity},
			{ID: "metrics", Category: diagram.CategoryMonitoring},
			{ID: "worker", Category: diagram.CategoryBackend},
		},
		Edges: []diagram.Edge{
			{From: "webapp", To: "api"},
			{From: "api", To: "db"},
			{From: "api", To: "cache"},
			{From: "auth", To: "webapp"},
			{From: "metrics", To: "worker"},
			{From: "worker", To: "db"},
			{From: "api", To: "ghost"},
			{From: "api", To: "db", Label: "duplicate"},
		},
	}
}

func TestInitial(t *testing.T) {
	ix := NewIndex(platform())
	s := ix.Initial()
	want := diagram.NewCategorySet(diagram.CategoryFrontend, diagram.CategoryBackend,
		diagram.CategoryInfrastructure, diagram.CategorySecurity, diagram.CategoryMonitoring)
	if s.Active != want || s.Hovered != "" || s.Selected != "" {
		t.Errorf("Initial() = %+v", s)
	}
}

func TestHoverAndSelection(t *testing.T) {
	ix := NewIndex(platform())
	s := ix.Initial()

	s = ix.Apply(s, Click{ID: "api"})
	if s.Selected != "api" || s.ActiveNode() != "api" {
		t.Fatalf("after click: %+v", s)
	}
	s = ix.Apply(s, PointerEnter{ID: "db"})
	if s.Selected != "api" {
		t.Errorf("hover cleared selection: %+v", s)
	}
	if s.ActiveNode() != "db" {
		t.Errorf("active = %q, want hovered db", s.ActiveNode())
	}
	if s.NodeState("db") != NodeHovered || s.NodeState("api") != NodeSelected || s.NodeState("auth") != NodeNormal {
		t.Errorf("node states wrong: %+v", s)
	}

	s = ix.Apply(s, PointerLeave{ID: "webapp"})
	if s.Hovered != "db" {
		t.Errorf("leaving another node cleared hover: %+v", s)
	}
	s = ix.Apply(s, PointerLeave{ID: "db"})
	if s.Hovered != "" || s.ActiveNode() != "api" {
		t.Errorf("after leave: %+v", s)
	}

	s = ix.Apply(s, Click{ID: "api"})
	if s.Selected != "" {
		t.Errorf("re-click should deselect: %+v", s)
	}
	s = ix.Apply(s, Click{ID: "auth"})
	s = ix.Apply(s, Reset{})
	if s.Selected != "" {
		t.Errorf("reset should clear selection: %+v", s)
	}
}

func TestHoverAndSelectSameNode(t *testing.T) {
	ix := NewIndex(platform())
	s := ix.Apply(ix.Initial(), Click{ID: "api"})
	s = ix.Apply(s, PointerEnter{ID: "api"})
	if got := s.NodeState("api"); got != NodeHovered {
		t.Errorf("NodeState = %v, want hovered", got)
	}
}

func TestUnknownIDsIgnored(t *testing.T) {
	ix := NewIndex(platform())
	s0 := ix.Initial()
	for _, ev := range []Event{PointerEnter{ID: "nope"}, Click{ID: "nope"}, PointerLeave{ID: "nope"}} {
		if s := ix.Apply(s0, ev); s != s0 {
			t.Errorf("%T changed state: %+v", ev, s)
		}
	}
}

func TestToggleLastCategoryIsNoOp(t *testing.T) {
	ix := NewIndex(platform())
	s := ix.Apply(ix.Initial(), SetCategories{Set: diagram.NewCategorySet(diagram.CategorySecurity)})
	if s.Active != diagram.NewCategorySet(diagram.CategorySecurity) {
		t.Fatalf("SetCategories: %s", s.Active)
	}
	s = ix.Apply(s, Click{ID: "auth"})
	before := s
	s = ix.Apply(s, ToggleCategory{Category: diagram.CategorySecurity})
	if s != before {
		t.Errorf("toggling sole category changed state: %+v -> %+v", before, s)
	}
}

func TestToggleHidesSelection(t *testing.T) {
	ix := NewIndex(platform())
	s := ix.Apply(ix.Initial(), Click{ID: "auth"})
	s = ix.Apply(s, PointerEnter{ID: "auth"})
	s = ix.Apply(s, ToggleCategory{Category: diagram.CategorySecurity})
	if s.Selected != "" || s.Hovered != "" {
		t.Errorf("hidden node still active: %+v", s)
	}
	if s.Active.Has(diagram.CategorySecurity) {
		t.Error("security still active")
	}

	s = ix.Apply(s, ToggleCategory{Category: diagram.CategorySecurity})
	if !s.Active.Has(diagram.CategorySecurity) {
		t.Error("toggle should re-add inactive category")
	}
	if s.Selected != "" {
		t.Error("selection must not come back")
	}
}

func TestToggleOutsideScope(t *testing.T) {
	ix := NewIndex(platform())
	s0 := ix.Initial()
	if s := ix.Apply(s0, ToggleCategory{Category: diagram.CategoryCloud}); s != s0 {
		t.Errorf("out-of-scheme toggle changed state: %s", s.Active)
	}
	if s := ix.Apply(s0, SetCategories{Set: diagram.NewCategorySet(diagram.CategoryCloud)}); s != s0 {
		t.Errorf("out-of-scheme set changed state: %s", s.Active)
	}
	if s := ix.Apply(s0, SetCategories{}); s != s0 {
		t.Errorf("empty set changed state: %s", s.Active)
	}
}

func TestToggleUnusedCategoryIsNoOp(t *testing.T) {
	g := &diagram.Graph{
		Scheme: diagram.SchemeArchitecture,
		Nodes: []diagram.Node{
			{ID: "web", Category: diagram.CategoryFrontend},
			{ID: "api", Category: diagram.CategoryBackend},
		},
		Edges: []diagram.Edge{{From: "web", To: "api"}},
	}
	ix := NewIndex(g)
	s0 := ix.Initial()

	s := ix.Apply(s0, ToggleCategory{Category: diagram.CategoryMonitoring})
	if s != s0 {
		t.Fatalf("toggling an empty category changed state: %s", s.Active)
	}
	s = ix.Apply(s, ToggleCategory{Category: diagram.CategoryFrontend})
	s = ix.Apply(s, ToggleCategory{Category: diagram.CategoryBackend})
	if want := diagram.NewCategorySet(diagram.CategoryBackend); s.Active != want {
		t.Errorf("active = %s, want %s", s.Active, want)
	}
	if sub := Filter(g, s.Active); len(sub.Nodes) == 0 {
		t.Error("filter left no visible nodes")
	}

	set := diagram.NewCategorySet(diagram.CategoryMonitoring, diagram.CategorySecurity)
	if s := ix.Apply(s0, SetCategories{Set: set}); s != s0 {
		t.Errorf("set of empty categories changed state: %s", s.Active)
	}
}

func TestActiveSetNeverEmpty(t *testing.T) {
	ix := NewIndex(platform())
	all := diagram.AllCategories()
	r := rand.New(rand.NewPCG(1, 2))
	s := ix.Initial()
	for i := 0; i < 5000; i++ {
		var ev Event
		switch r.IntN(3) {
		case 0:
			ev = ToggleCategory{Category: all[r.IntN(len(all))]}
		case 1:
			ev = SetCategories{Set: diagram.CategorySet(r.Uint32N(1 << 10))}
		default:
			ev = Click{ID: ix.graph.Nodes[r.IntN(len(ix.graph.Nodes))].ID}
		}
		s = ix.Apply(s, ev)
		if s.Active.Empty() {
			t.Fatalf("step %d (%T): active set empty", i, ev)
		}
		if !s.Active.SubsetOf(ix.Scope()) {
			t.Fatalf("step %d: active %s escapes scope", i, s.Active)
		}
		if len(Filter(ix.Graph(), s.Active).Nodes) == 0 {
			t.Fatalf("step %d: active %s shows no nodes", i, s.Active)
		}
		if s.Selected != "" && !ix.Visible(s, s.Selected) {
			t.Fatalf("step %d: hidden node %q selected", i, s.Selected)
		}
	}
}

func TestFilter(t *testing.T) {
	g := platform()
	sub := Filter(g, g.UsedCategories())
	if len(sub.Nodes) != 7 {
		t.Errorf("nodes = %d, want 7", len(sub.Nodes))
	}
	var ids []string
	for _, e := range sub.Edges {
		ids = append(ids, e.ID())
	}
	want := []string{"webapp->api", "api->db", "api->cache", "auth->webapp", "metrics->worker", "worker->db"}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("edges (-want +got):\n%s", diff)
	}
	if sub.Edges[1].Label != "" {
		t.Error("first duplicate should win")
	}
	if diff := cmp.Diff([]string{"webapp", "db", "cache"}, sub.Neighbors("api")); diff != "" {
		t.Errorf("neighbors (-want +got):\n%s", diff)
	}
}

func TestEdgeDropInvariant(t *testing.T) {
	g := platform()
	ix := NewIndex(g)
	for _, c := range ix.Scope().Slice() {
		s := ix.Apply(ix.Initial(), ToggleCategory{Category: c})
		sub := Filter(g, s.Active)
		for _, e := range sub.Edges {
			for _, id := range []string{e.From, e.To} {
				if cat, _ := ix.Category(id); cat == c {
					t.Errorf("after hiding %s edge %s still rendered", c, e.ID())
				}
			}
		}
		for _, n := range sub.Nodes {
			for _, nb := range sub.Neighbors(n.ID) {
				if cat, _ := ix.Category(nb); cat == c {
					t.Errorf("after hiding %s, %s still adjacent to %s", c, n.ID, nb)
				}
			}
		}
	}
}

func TestDeriveHoverAPI(t *testing.T) {
	g := platform()
	sub := Filter(g, g.UsedCategories())
	h := Derive("api", sub)

	on := map[string]bool{"api": true, "webapp": true, "db": true, "cache": true}
	for _, n := range sub.Nodes {
		want := diagram.HighlightOff
		if on[n.ID] {
			want = diagram.HighlightOn
		}
		if got := h.Node(n.ID); got != want {
			t.Errorf("node %s = %v, want %v", n.ID, got, want)
		}
	}
	for _, e := range sub.Edges {
		want := diagram.HighlightOff
		if e.Touches("api") {
			want = diagram.HighlightOn
		}
		if got := h.Edge(e); got != want {
			t.Errorf("edge %s = %v, want %v", e.ID(), got, want)
		}
	}
}

func TestDeriveNeutral(t *testing.T) {
	g := platform()
	sub := Filter(g, g.UsedCategories())
	for _, active := range []string{"", "ghost"} {
		h := Derive(active, sub)
		for id, v := range h.Nodes {
			if v != diagram.HighlightNeutral {
				t.Errorf("active %q: node %s = %v", active, id, v)
			}
		}
		for id, v := range h.Edges {
			if v != diagram.HighlightNeutral {
				t.Errorf("active %q: edge %s = %v", active, id, v)
			}
		}
	}
}

func TestDeriveUsesFilteredEdges(t *testing.T) {
	g := platform()
	// Hide infrastructure: api loses db and cache as neighbours, and the
	// worker->db edge disappears with it.
	active := g.UsedCategories().Without(diagram.CategoryInfrastructure)
	sub := Filter(g, active)
	h := Derive("api", sub)
	if _, ok := h.Nodes["db"]; ok {
		t.Error("hidden node has a highlight entry")
	}
	if h.Node("webapp") != diagram.HighlightOn || h.Node("worker") != diagram.HighlightOff {
		t.Errorf("unexpected highlights %v", h.Nodes)
	}
}

func TestHighlightInvariant(t *testing.T) {
	g := platform()
	ix := NewIndex(g)
	r := rand.New(rand.NewPCG(7, 7))
	s := ix.Initial()
	for i := 0; i < 500; i++ {
		id := g.Nodes[r.IntN(len(g.Nodes))].ID
		switch r.IntN(4) {
		case 0:
			s = ix.Apply(s, PointerEnter{ID: id})
		case 1:
			s = ix.Apply(s, PointerLeave{ID: s.Hovered})
		case 2:
			s = ix.Apply(s, Click{ID: id})
		default:
			s = ix.Apply(s, ToggleCategory{Category: g.Nodes[r.IntN(len(g.Nodes))].Category})
		}
		sub := Filter(g, s.Active)
		h := Derive(s.ActiveNode(), sub)
		active := s.ActiveNode()
		for _, n := range sub.Nodes {
			var want diagram.Highlight
			switch {
			case active == "":
				want = diagram.HighlightNeutral
			case n.ID == active || sub.Adjacent(active, n.ID):
				want = diagram.HighlightOn
			default:
				want = diagram.HighlightOff
			}
			if got := h.Node(n.ID); got != want {
				t.Fatalf("step %d: node %s = %v, want %v (state %+v)", i, n.ID, got, want, s)
			}
		}
	}
}
