package layout

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/matzehuels/nodeflow/pkg/diagram"
)

// Document is the serialized form of a computed layout, written by the
// layout command and served by the HTTP service.
type Document struct {
	Strategy string      `json:"strategy" bson:"strategy"`
	Width    float64     `json:"width" bson:"width"`
	Height   float64     `json:"height" bson:"height"`
	Viewport Viewport    `json:"viewport" bson:"viewport"`
	CurveCap float64     `json:"curve_cap" bson:"curve_cap"`
	Nodes    []Placement `json:"nodes" bson:"nodes"`
}

// Placement is one positioned node.
type Placement struct {
	ID       string           `json:"id" bson:"id"`
	Label    string           `json:"label,omitempty" bson:"label,omitempty"`
	Category diagram.Category `json:"category" bson:"category"`
	X        float64          `json:"x" bson:"x"`
	Y        float64          `json:"y" bson:"y"`
}

// Export computes positions for nodes and packs them into a Document with
// placements sorted by id.
func Export(s Strategy, nodes []diagram.Node, size diagram.Size) Document {
	pos := s.Positions(nodes, size)
	doc := Document{
		Strategy: s.Name(),
		Width:    size.Width,
		Height:   size.Height,
		Viewport: s.Viewport(size),
		CurveCap: s.CurveCap(size),
		Nodes:    make([]Placement, 0, len(pos)),
	}
	for _, n := range nodes {
		p, ok := pos[n.ID]
		if !ok {
			continue
		}
		doc.Nodes = append(doc.Nodes, Placement{ID: n.ID, Label: n.DisplayLabel(), Category: n.Category, X: p.X, Y: p.Y})
	}
	sort.Slice(doc.Nodes, func(i, j int) bool { return doc.Nodes[i].ID < doc.Nodes[j].ID })
	return doc
}

// Positions rebuilds the position map of a document.
func (d Document) Positions() Positions {
	out := make(Positions, len(d.Nodes))
	for _, p := range d.Nodes {
		out[p.ID] = diagram.Point{X: p.X, Y: p.Y}
	}
	return out
}

// MarshalDocument serializes a Document to pretty-printed JSON bytes.
func MarshalDocument(d Document) ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// UnmarshalDocument deserializes JSON bytes into a Document.
func UnmarshalDocument(data []byte) (Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return Document{}, fmt.Errorf("unmarshal layout: %w", err)
	}
	if d.Strategy != StrategyFixed && d.Strategy != StrategyRadial {
		return Document{}, fmt.Errorf("layout has unknown strategy %q", d.Strategy)
	}
	return d, nil
}

// WriteDocumentFile writes a Document to a JSON file.
func WriteDocumentFile(d Document, path string) error {
	data, err := MarshalDocument(d)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
