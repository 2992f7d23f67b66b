package nodelink

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/nodeflow/pkg/diagram"
	"github.com/matzehuels/nodeflow/pkg/engine"
	"github.com/matzehuels/nodeflow/pkg/layout"
)

func testView(t *testing.T, opts ...engine.Option) *engine.View {
	t.Helper()
	g := &diagram.Graph{
		Nodes: []diagram.Node{
			{ID: "webapp", Label: "Web App", Category: diagram.CategoryFrontend, Position: &diagram.Point{X: 400, Y: 80}},
			{ID: "api", Category: diagram.CategoryBackend, Description: "Gateway", Position: &diagram.Point{X: 400, Y: 240}},
			{ID: "db", Category: diagram.CategoryInfrastructure, Position: &diagram.Point{X: 250, Y: 400}},
		},
		Edges: []diagram.Edge{
			{From: "webapp", To: "api", Label: "REST"},
			{From: "api", To: "db", Label: "SQL"},
		},
	}
	opts = append([]engine.Option{engine.WithDebounce(0), engine.WithSeed(1), engine.WithSize(diagram.Size{Width: 800})}, opts...)
	e, err := engine.New(g, layout.Fixed{}, opts...)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(e.Close)
	return e.View()
}

func TestToDOT_Basic(t *testing.T) {
	dot := ToDOT(testView(t), Options{})

	for _, want := range []string{
		"digraph G",
		"layout=neato",
		`"webapp" [label="Web App", pos="400.00,520.00!"`,
		`"api" [label="api", pos="400.00,360.00!"`,
		`"webapp" -> "api"`,
		`label="REST"`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() missing %q\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "dashed") {
		t.Error("ToDOT() dashed edge without active node")
	}
}

func TestToDOT_Highlight(t *testing.T) {
	dot := ToDOT(testView(t, engine.WithSelection("db")), Options{})

	if !strings.Contains(dot, "penwidth=3") {
		t.Error("ToDOT() active node missing heavy outline")
	}
	if !strings.Contains(dot, "style=dashed") {
		t.Error("ToDOT() dimmed edge not dashed")
	}
}

func TestToDOT_Detailed(t *testing.T) {
	dot := ToDOT(testView(t), Options{Detailed: true})
	if !strings.Contains(dot, `"api\nBackend\nGateway"`) {
		t.Errorf("ToDOT() detailed label missing category and description\n%s", dot)
	}
}

func TestColorWithAlpha(t *testing.T) {
	tests := []struct {
		color   string
		opacity float64
		want    string
	}{
		{"#64748b", 1, "#64748bff"},
		{"#64748b", 0.2, "#64748b33"},
		{"#fff", 0.5, "#fff"},
		{"red", 0.5, "red"},
	}
	for _, tt := range tests {
		if got := colorWithAlpha(tt.color, tt.opacity); got != tt.want {
			t.Errorf("colorWithAlpha(%q, %v) = %q, want %q", tt.color, tt.opacity, got, tt.want)
		}
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := normalizeViewBox(in)
	if !bytes.Contains(out, []byte(`viewBox="0 0 100.00 50.00" width="100" height="50"`)) {
		t.Errorf("normalizeViewBox() = %s", out)
	}
	if got := normalizeViewBox([]byte("<svg/>")); string(got) != "<svg/>" {
		t.Errorf("normalizeViewBox() without viewBox changed input: %s", got)
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(testView(t), Options{}))
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}
	if !bytes.Contains(svg, []byte("<svg")) || !bytes.Contains(svg, []byte("Web App")) {
		t.Errorf("RenderSVG() output missing content:\n%s", svg)
	}
}

func TestRenderSVG_InvalidDOT(t *testing.T) {
	if _, err := RenderSVG(context.Background(), "digraph {"); err == nil {
		t.Error("RenderSVG() expected error for malformed DOT")
	}
}
