package cli

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/nodeflow/pkg/diagram"
	"github.com/matzehuels/nodeflow/pkg/engine"
	"github.com/matzehuels/nodeflow/pkg/flow"
)

// The terminal is treated as a container of cellWidth x cellHeight diagram
// units per character, so the layout keeps its proportions on screen.
const (
	cellWidth     = 8.0
	cellHeight    = 16.0
	frameInterval = 50 * time.Millisecond

	// title, legend, detail, help, status
	chromeRows   = 5
	minCanvasRow = 3
)

var (
	viewerHelp   = "tab/shift+tab focus · enter select · esc clear · 1-9 toggle category · 0 show all · q quit"
	styleEdgeOff = lipgloss.NewStyle().Foreground(colorDim)
	styleLabel   = lipgloss.NewStyle().Foreground(colorWhite)
	styleOff     = lipgloss.NewStyle().Foreground(colorDim)
	styleLegendX = lipgloss.NewStyle().Foreground(colorDim).Strikethrough(true)
)

// =============================================================================
// Messages
// =============================================================================

type frameMsg time.Time

// reloadMsg carries a definition reloaded by the file watcher.
type reloadMsg struct{ graph *diagram.Graph }

// reloadErrMsg reports a watcher or reload failure.
type reloadErrMsg struct{ err error }

func frameTick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return frameMsg(t) })
}

// =============================================================================
// viewerModel - Interactive terminal diagram
// =============================================================================

// viewerModel is the bubbletea model of the terminal viewer. Keyboard focus
// plays the role of the pointer: moving focus enters and leaves nodes.
type viewerModel struct {
	title  string
	build  func(*diagram.Graph, diagram.CategorySet) (*engine.Engine, error)
	engine *engine.Engine
	view   *engine.View

	particles  []flow.Particle
	cols, rows int
	focus      string
	status     string
}

func newViewerModel(title string, e *engine.Engine, build func(*diagram.Graph, diagram.CategorySet) (*engine.Engine, error)) *viewerModel {
	m := &viewerModel{title: title, engine: e, build: build}
	m.refresh()
	return m
}

func (m *viewerModel) Init() tea.Cmd {
	return frameTick()
}

func (m *viewerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.cols, m.rows = msg.Width, msg.Height
		m.engine.Resize(m.canvasSize())
		m.engine.Flush()
	case frameMsg:
		m.particles = m.engine.Frame()
		return m, frameTick()
	case reloadMsg:
		m.reload(msg.graph)
	case reloadErrMsg:
		m.status = StyleWarning.Render(msg.err.Error())
	case tea.KeyMsg:
		if quit := m.handleKey(msg); quit {
			m.engine.Close()
			return m, tea.Quit
		}
	}
	m.refresh()
	return m, nil
}

func (m *viewerModel) handleKey(msg tea.KeyMsg) bool {
	key := msg.String()
	switch key {
	case "q", "ctrl+c":
		return true
	case "tab", "right", "l", "down", "j":
		m.moveFocus(1)
	case "shift+tab", "left", "h", "up", "k":
		m.moveFocus(-1)
	case "enter", " ":
		if m.focus != "" {
			m.engine.Click(m.focus)
		}
	case "esc":
		if m.focus != "" {
			m.engine.PointerLeave(m.focus)
			m.focus = ""
		}
		m.engine.Reset()
	case "0":
		m.engine.SetCategories(m.engine.Graph().UsedCategories())
	default:
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			if i := int(key[0] - '1'); i < len(m.view.Legend) {
				m.engine.ToggleCategory(m.view.Legend[i].Category)
			}
		}
	}
	return false
}

// moveFocus hovers the next or previous visible node.
func (m *viewerModel) moveFocus(step int) {
	nodes := m.view.Nodes
	if len(nodes) == 0 {
		return
	}
	i := -1
	for j, n := range nodes {
		if n.ID == m.focus {
			i = j
			break
		}
	}
	switch {
	case i < 0 && step > 0:
		i = 0
	case i < 0:
		i = len(nodes) - 1
	default:
		i = (i + step + len(nodes)) % len(nodes)
	}
	if m.focus != "" {
		m.engine.PointerLeave(m.focus)
	}
	m.focus = nodes[i].ID
	m.engine.PointerEnter(m.focus)
}

// reload swaps in an engine for a new definition, keeping the size and the
// category filter.
func (m *viewerModel) reload(g *diagram.Graph) {
	e, err := m.build(g, m.engine.Active())
	if err != nil {
		m.status = StyleWarning.Render(err.Error())
		return
	}
	m.engine.Close()
	m.engine = e
	m.focus = ""
	if m.cols > 0 {
		e.Resize(m.canvasSize())
		e.Flush()
	}
	if g.Title != "" {
		m.title = g.Title
	}
	m.status = StyleDim.Render(fmt.Sprintf("reloaded at %s", time.Now().Format("15:04:05")))
}

func (m *viewerModel) refresh() {
	m.view = m.engine.View()
	if _, ok := m.view.Node(m.focus); !ok {
		m.focus = ""
	}
}

func (m *viewerModel) canvasRows() int {
	return max(m.rows-chromeRows, minCanvasRow)
}

func (m *viewerModel) canvasSize() diagram.Size {
	return diagram.Size{Width: float64(m.cols) * cellWidth, Height: float64(m.canvasRows()) * cellHeight}
}

// =============================================================================
// Drawing
// =============================================================================

func (m *viewerModel) View() string {
	if m.cols == 0 || !m.view.Ready() {
		return StyleDim.Render("measuring terminal...")
	}
	v := m.view

	var b strings.Builder
	b.WriteString(StyleTitle.Render(m.title))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  %s · %d nodes · %d edges", v.Strategy, len(v.Nodes), len(v.Edges))))
	b.WriteString("\n")

	c := newCanvas(m.cols, m.canvasRows(), v)
	for _, e := range v.Edges {
		c.edge(e)
	}
	for _, p := range m.particles {
		c.set(p.Position, '•', lipgloss.NewStyle().Foreground(lipgloss.Color(p.Color)))
	}
	for _, n := range v.Nodes {
		c.node(n, n.ID == m.focus)
	}
	b.WriteString(c.String())

	b.WriteString(m.legendLine())
	b.WriteString("\n")
	b.WriteString(m.detailLine())
	b.WriteString("\n")
	b.WriteString(StyleDim.Render(viewerHelp))
	b.WriteString("\n")
	b.WriteString(m.status)
	return b.String()
}

func (m *viewerModel) legendLine() string {
	parts := make([]string, 0, len(m.view.Legend))
	for i, l := range m.view.Legend {
		label := fmt.Sprintf("%s (%d)", l.Title, l.Count)
		if l.Active {
			label = styleLabel.Render(label)
		} else {
			label = styleLegendX.Render(label)
		}
		parts = append(parts, fmt.Sprintf("%s %s %s", StyleDim.Render(fmt.Sprint(i+1)), swatch(l.Color), label))
	}
	return strings.Join(parts, "   ")
}

func (m *viewerModel) detailLine() string {
	d := m.view.Detail
	if d == nil {
		return StyleDim.Render("no node selected")
	}
	var conns string
	if len(d.Connections) > 0 {
		conns = iconArrow + " " + strings.Join(d.Connections, ", ")
	}
	return joinNonEmpty(StyleDim.Render(" · "),
		swatch(d.Color)+" "+StyleTitle.Render(d.Title),
		lipgloss.NewStyle().Foreground(lipgloss.Color(d.Color)).Render(d.CategoryTitle),
		d.Description,
		StyleDim.Render(conns),
	)
}

type cell struct {
	ch    rune
	style lipgloss.Style
	set   bool
}

// canvas maps the view's viewport onto a grid of terminal cells.
type canvas struct {
	cols, rows int
	view       *engine.View
	cells      [][]cell
}

func newCanvas(cols, rows int, v *engine.View) *canvas {
	cells := make([][]cell, rows)
	for i := range cells {
		cells[i] = make([]cell, cols)
	}
	return &canvas{cols: cols, rows: rows, view: v, cells: cells}
}

func (c *canvas) project(p diagram.Point) (int, int, bool) {
	vp := c.view.Viewport
	if vp.Empty() || c.cols < 2 {
		return 0, 0, false
	}
	x := int(math.Round((p.X - vp.MinX) / vp.Width * float64(c.cols-1)))
	y := int(math.Round((p.Y - vp.MinY) / vp.Height * float64(c.rows-1)))
	if x < 0 || y < 0 || x >= c.cols || y >= c.rows {
		return 0, 0, false
	}
	return x, y, true
}

func (c *canvas) set(p diagram.Point, ch rune, style lipgloss.Style) {
	if x, y, ok := c.project(p); ok {
		c.cells[y][x] = cell{ch: ch, style: style, set: true}
	}
}

func (c *canvas) edge(e engine.EdgeView) {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(e.Stroke.Color))
	switch e.Highlight {
	case diagram.HighlightOn:
		style = style.Bold(true)
	case diagram.HighlightOff:
		style = styleEdgeOff
	}
	ch := '·'
	if e.Stroke.Dashed() {
		ch = '-'
	}
	x0, y0, _ := c.project(e.Curve.From)
	x1, y1, _ := c.project(e.Curve.To)
	steps := 2*max(abs(x1-x0), abs(y1-y0)) + 2
	for i := 0; i <= steps; i++ {
		c.set(e.Curve.At(float64(i)/float64(steps)), ch, style)
	}
}

func (c *canvas) node(n engine.NodeView, focused bool) {
	x, y, ok := c.project(n.Position)
	if !ok {
		return
	}
	marker := lipgloss.NewStyle().Foreground(lipgloss.Color(n.Color))
	label := styleLabel
	switch n.Highlight {
	case diagram.HighlightOn:
		label = label.Bold(true)
	case diagram.HighlightOff:
		marker, label = styleOff, styleOff
	}
	if focused {
		label = label.Underline(true)
	}
	glyph := '●'
	if n.ID == c.view.Selected {
		glyph = '◆'
	}
	c.cells[y][x] = cell{ch: glyph, style: marker, set: true}
	for i, r := range []rune(n.Label) {
		col := x + 2 + i
		if col >= c.cols {
			break
		}
		c.cells[y][col] = cell{ch: r, style: label, set: true}
	}
}

func (c *canvas) String() string {
	var b strings.Builder
	for _, row := range c.cells {
		for _, cl := range row {
			if !cl.set {
				b.WriteByte(' ')
				continue
			}
			b.WriteString(cl.style.Render(string(cl.ch)))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
