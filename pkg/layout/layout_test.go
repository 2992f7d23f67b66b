package layout

import (
	"fmt"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/matzehuels/nodeflow/pkg/diagram"
	"github.com/matzehuels/nodeflow/pkg/errors"
)

const eps = 1e-9

var approx = cmpopts.EquateApprox(0, 1e-9)

func blueprint(n int) []diagram.Node {
	nodes := make([]diagram.Node, n)
	for i := range nodes {
		nodes[i] = diagram.Node{
			ID:       fmt.Sprintf("n%02d", i),
			Category: diagram.CategoryBackend,
			Position: &diagram.Point{X: float64(50 * (i%4 + 1)), Y: float64(70 * (i/4 + 1))},
		}
	}
	return nodes
}

func TestFixedDesignWidth(t *testing.T) {
	nodes := blueprint(16)
	got := Fixed{}.Positions(nodes, diagram.Size{Width: 800, Height: 600})
	if len(got) != 16 {
		t.Fatalf("placed %d nodes, want 16", len(got))
	}
	for _, n := range nodes {
		if diff := cmp.Diff(*n.Position, got[n.ID], approx); diff != "" {
			t.Errorf("%s moved at scale 1 (-want +got):\n%s", n.ID, diff)
		}
	}
}

func TestFixedHalfWidth(t *testing.T) {
	nodes := blueprint(16)
	got := Fixed{}.Positions(nodes, diagram.Size{Width: 400})
	for _, n := range nodes {
		want := diagram.Point{X: n.Position.X / 2, Y: n.Position.Y / 2}
		if diff := cmp.Diff(want, got[n.ID], approx); diff != "" {
			t.Errorf("%s (-want +got):\n%s", n.ID, diff)
		}
	}
}

func TestFixedScaleInvariant(t *testing.T) {
	nodes := blueprint(7)
	for _, width := range []float64{1, 320, 639.5, 800, 1024, 1920, 3333} {
		got := Fixed{}.Positions(nodes, diagram.Size{Width: width})
		scale := width / ReferenceWidth
		for _, n := range nodes {
			if d := math.Abs(got[n.ID].X - n.Position.X*scale); d > eps {
				t.Errorf("width %v: %s x off by %v", width, n.ID, d)
			}
			if d := math.Abs(got[n.ID].Y - n.Position.Y*scale); d > eps {
				t.Errorf("width %v: %s y off by %v", width, n.ID, d)
			}
		}
	}
}

func TestFixedSkipsUnpositioned(t *testing.T) {
	nodes := []diagram.Node{
		{ID: "a", Position: &diagram.Point{X: 10, Y: 10}},
		{ID: "b"},
	}
	got := Fixed{}.Positions(nodes, diagram.Size{Width: 800})
	if _, ok := got["b"]; ok || len(got) != 1 {
		t.Errorf("got %v, want only a", got)
	}
}

func TestFixedViewport(t *testing.T) {
	tests := []struct {
		name string
		size diagram.Size
		want Viewport
	}{
		{"DesignHeight", diagram.Size{Width: 400}, Viewport{Width: 400, Height: 300}},
		{"MeasuredHeight", diagram.Size{Width: 800, Height: 500}, Viewport{Width: 800, Height: 500}},
		{"Unmeasured", diagram.Size{}, Viewport{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Fixed{}.Viewport(tt.size)); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestUnmeasuredContainer(t *testing.T) {
	for _, s := range []Strategy{Fixed{}, Radial{}} {
		for _, size := range []diagram.Size{{}, {Width: 0, Height: 500}, {Width: -10}} {
			if got := s.Positions(blueprint(5), size); len(got) != 0 {
				t.Errorf("%s with %+v: got %d positions, want none", s.Name(), size, len(got))
			}
		}
	}
}

func TestRadialRadiusBreakpoints(t *testing.T) {
	r := Radial{BaseRadius: 200}
	tests := []struct {
		width float64
		want  float64
	}{
		{320, 100},
		{639, 100},
		{640, 140},
		{767, 140},
		{768, 180},
		{1023, 180},
		{1024, 200},
		{2560, 200},
	}
	for _, tt := range tests {
		if got := r.Radius(tt.width); math.Abs(got-tt.want) > eps {
			t.Errorf("Radius(%v) = %v, want %v", tt.width, got, tt.want)
		}
	}
}

func TestRadialSixNodes(t *testing.T) {
	nodes := blueprint(6)
	got := Radial{BaseRadius: 200}.Positions(nodes, diagram.Size{Width: 1200})
	if diff := cmp.Diff(diagram.Point{X: 0, Y: -200}, got["n00"], approx); diff != "" {
		t.Errorf("index 0 (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(diagram.Point{X: 0, Y: 200}, got["n03"], cmpopts.EquateApprox(0, 1e-6)); diff != "" {
		t.Errorf("index 3 (-want +got):\n%s", diff)
	}
}

func TestRadialAngleSpacing(t *testing.T) {
	for _, n := range []int{3, 6, 8, 9, 12, 16, 24} {
		nodes := blueprint(n)
		pos := Radial{}.Positions(nodes, diagram.Size{Width: 1280})
		step := 360 / float64(n)
		tol := 1e-6
		if n > 8 {
			tol = 2*jitterDegrees + 1e-6
		}
		for i := 0; i+1 < n; i++ {
			a := angleOf(pos[nodes[i].ID])
			b := angleOf(pos[nodes[i+1].ID])
			d := math.Mod(b-a+360, 360)
			if math.Abs(d-step) > tol {
				t.Errorf("n=%d: angle %d→%d = %.3f°, want %.3f° ±%.1f", n, i, i+1, d, step, tol)
			}
		}
		for i, node := range nodes {
			want := float64(i)/float64(n)*360 - 90
			got := angleOf(pos[node.ID])
			d := math.Mod(got-want+540, 360) - 180
			if math.Abs(d) > jitterDegrees+1e-6 {
				t.Errorf("n=%d: node %d at %.3f°, want %.3f° ±2", n, i, got, want)
			}
		}
	}
}

func TestRadialCrowding(t *testing.T) {
	nodes := blueprint(12)
	pos := Radial{BaseRadius: 200}.Positions(nodes, diagram.Size{Width: 1280})
	for i, node := range nodes {
		p := pos[node.ID]
		want := 200 * contraction * radialCycle[i%3]
		if got := math.Hypot(p.X, p.Y); math.Abs(got-want) > 1e-6 {
			t.Errorf("node %d radius = %v, want %v", i, got, want)
		}
	}

	// Nine nodes cycle the radius but do not contract.
	pos = Radial{BaseRadius: 200}.Positions(blueprint(9), diagram.Size{Width: 1280})
	if got := math.Hypot(pos["n01"].X, pos["n01"].Y); math.Abs(got-200) > 1e-6 {
		t.Errorf("n=9 index 1 radius = %v, want 200", got)
	}
}

func TestRadialViewportCoversNodes(t *testing.T) {
	r := Radial{}
	for _, width := range []float64{500, 700, 900, 1400} {
		size := diagram.Size{Width: width}
		vp := r.Viewport(size)
		for id, p := range r.Positions(blueprint(11), size) {
			if !vp.Contains(p) {
				t.Errorf("width %v: %s at %+v outside %+v", width, id, p, vp)
			}
		}
	}
}

func TestCurveCap(t *testing.T) {
	if got := (Fixed{}).CurveCap(diagram.Size{Width: 400}); got != DefaultFixedCurveCap {
		t.Errorf("fixed cap = %v", got)
	}
	if got := (Radial{BaseRadius: 200}).CurveCap(diagram.Size{Width: 1200}); got != 50 {
		t.Errorf("radial cap = %v, want 50", got)
	}
}

func TestIdempotence(t *testing.T) {
	nodes := blueprint(13)
	size := diagram.Size{Width: 900, Height: 700}
	for _, s := range []Strategy{Fixed{}, Radial{}} {
		first := s.Positions(nodes, size)
		second := s.Positions(nodes, size)
		if diff := cmp.Diff(first, second); diff != "" {
			t.Errorf("%s not idempotent:\n%s", s.Name(), diff)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want string
		err  bool
	}{
		{"fixed", StrategyFixed, false},
		{"Radial", StrategyRadial, false},
		{"circular", StrategyRadial, false},
		{"force", "", true},
	}
	for _, tt := range tests {
		s, err := Parse(tt.in)
		if tt.err {
			if !errors.Is(err, errors.ErrCodeInvalidStrategy) {
				t.Errorf("Parse(%q) err = %v, want INVALID_STRATEGY", tt.in, err)
			}
			continue
		}
		if err != nil || s.Name() != tt.want {
			t.Errorf("Parse(%q) = %v, %v", tt.in, s, err)
		}
	}
}

func TestForGraph(t *testing.T) {
	g := &diagram.Graph{Nodes: blueprint(3)}
	if ForGraph(g).Name() != StrategyFixed {
		t.Error("positioned graph should use fixed layout")
	}
	g.Nodes[1].Position = nil
	if ForGraph(g).Name() != StrategyRadial {
		t.Error("partially positioned graph should use radial layout")
	}
}

func TestDocument(t *testing.T) {
	nodes := []diagram.Node{
		{ID: "zeta", Category: diagram.CategoryCloud},
		{ID: "alpha", Label: "Alpha", Category: diagram.CategoryDevOps},
	}
	doc := Export(Radial{BaseRadius: 100}, nodes, diagram.Size{Width: 1200})
	if len(doc.Nodes) != 2 || doc.Nodes[0].ID != "alpha" || doc.Nodes[0].Label != "Alpha" {
		t.Fatalf("unexpected placements %+v", doc.Nodes)
	}
	data, err := MarshalDocument(doc)
	if err != nil {
		t.Fatal(err)
	}
	back, err := UnmarshalDocument(data)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(doc.Positions(), back.Positions(), approx); diff != "" {
		t.Errorf("positions changed (-want +got):\n%s", diff)
	}
	if _, err := UnmarshalDocument([]byte(`{"strategy":"force"}`)); err == nil {
		t.Error("expected error for unknown strategy")
	}
}

func angleOf(p diagram.Point) float64 {
	return math.Atan2(p.Y, p.X) * 180 / math.Pi
}
