package svg

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/nodeflow/pkg/diagram"
	"github.com/matzehuels/nodeflow/pkg/engine"
	"github.com/matzehuels/nodeflow/pkg/layout"
)

func testView(t *testing.T, opts ...engine.Option) *engine.View {
	t.Helper()
	g := &diagram.Graph{
		Title: "Tom & Jerry's <platform>",
		Nodes: []diagram.Node{
			{ID: "webapp", Label: "Web App", Category: diagram.CategoryFrontend, Position: &diagram.Point{X: 400, Y: 80}},
			{ID: "api", Category: diagram.CategoryBackend, Description: "Gateway", Position: &diagram.Point{X: 400, Y: 240}},
			{ID: "db", Category: diagram.CategoryInfrastructure, Position: &diagram.Point{X: 250, Y: 400}},
		},
		Edges: []diagram.Edge{
			{From: "webapp", To: "api", Label: "REST", Animate: true, Speed: 7},
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

func wellFormed(t *testing.T, data []byte) {
	t.Helper()
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		_, err := dec.Token()
		if err == io.EOF {
			return
		}
		if err != nil {
			t.Fatalf("malformed SVG: %v\n%s", err, data)
		}
	}
}

func TestRenderBasic(t *testing.T) {
	out := Render(testView(t))
	wellFormed(t, out)
	s := string(out)
	for _, want := range []string{
		`viewBox="0.0 0.0 800.0 600.0"`,
		`id="node-webapp"`,
		`id="edge-webapp-&gt;api"`,
		`>REST</text>`,
		`Tom &amp; Jerry&#39;s &lt;platform&gt;`,
		`class="node neutral"`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("missing %q", want)
		}
	}
	for _, unwanted := range []string{"<script", "animateMotion", `class="legend"`} {
		if strings.Contains(s, unwanted) {
			t.Errorf("unexpected %q without option", unwanted)
		}
	}
}

func TestRenderHighlight(t *testing.T) {
	out := string(Render(testView(t, engine.WithSelection("db"))))
	if !strings.Contains(out, `class="node on selected"`) {
		t.Error("selected node not marked")
	}
	if !strings.Contains(out, `id="node-webapp" class="node off"`) {
		t.Error("unrelated node not dimmed")
	}
	if !strings.Contains(out, `stroke-dasharray="4 4"`) {
		t.Error("dimmed edge not dashed")
	}
}

func TestRenderOptions(t *testing.T) {
	v := testView(t, engine.WithSelection("api"))
	out := Render(v, WithInteraction(), WithAnimation(), WithLegend(), WithDetail(), WithSize(400, 300), WithBackground("#f8fafc"))
	wellFormed(t, out)
	s := string(out)
	for _, want := range []string{
		`width="400" height="300"`,
		`<script type="text/javascript">`,
		`animateMotion`,
		`repeatCount="indefinite"`,
		`class="legend-item" data-category="frontend"`,
		`class="detail" data-node="api"`,
		`fill="#f8fafc"`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("missing %q", want)
		}
	}
	if n := strings.Count(s, `class="particle"`); n != 1 {
		t.Errorf("particles = %d, want 1", n)
	}
}

func TestRenderFilteredCategories(t *testing.T) {
	v := testView(t, engine.WithCategories(diagram.NewCategorySet(diagram.CategoryFrontend, diagram.CategoryBackend)))
	out := Render(v, WithInteraction(), WithLegend())
	wellFormed(t, out)
	s := string(out)

	for _, want := range []string{`id="node-webapp"`, `id="node-api"`} {
		if !strings.Contains(s, want) {
			t.Errorf("missing %q", want)
		}
	}
	for _, unwanted := range []string{`id="node-db"`, `data-from="api" data-to="db"`} {
		if strings.Contains(s, unwanted) {
			t.Errorf("filtered element %q rendered", unwanted)
		}
	}
	// Every populated category stays in the legend; inactive ones are dimmed.
	if !strings.Contains(s, `class="legend-item" data-category="infrastructure" opacity="0.35"`) {
		t.Error("inactive category missing from legend")
	}
	if !strings.Contains(s, `class="legend-item" data-category="frontend" opacity="1.00"`) {
		t.Error("active category not shown at full opacity")
	}
	// The legend is static: toggling needs a relayout the document cannot do.
	if strings.Contains(s, ".legend-item')") || strings.Contains(s, "classList.toggle('hidden'") {
		t.Error("script still toggles categories in the browser")
	}
}

func TestParticleBeginMatchesPhase(t *testing.T) {
	v := testView(t)
	if len(v.Tasks) != 1 {
		t.Fatalf("tasks = %d", len(v.Tasks))
	}
	task := v.Tasks[0]
	if task.Duration != 5*time.Second {
		t.Fatalf("duration = %v", task.Duration)
	}
	out := string(Render(v, WithAnimation()))
	if !strings.Contains(out, `dur="5.000s"`) {
		t.Error("duration not rendered")
	}
	if task.Phase > 0 && !strings.Contains(out, `begin="-`) {
		t.Error("phase not rendered as negative begin")
	}
}

func TestRenderUnmeasured(t *testing.T) {
	e, err := engine.New(&diagram.Graph{Nodes: []diagram.Node{{ID: "a", Category: diagram.CategoryCloud}}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()
	out := Render(e.View())
	wellFormed(t, out)
	if strings.Contains(string(out), "node-a") {
		t.Error("unmeasured view rendered nodes")
	}
}
