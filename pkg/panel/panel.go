// Package panel projects the selected node into the detail panel.
//
// A Detail holds no state of its own: it is recomputed from the selected
// node on every change, and closing the panel is the same action as
// clearing the selection.
package panel

import (
	"github.com/matzehuels/nodeflow/pkg/diagram"
)

// Detail is the read-only content of the detail panel.
type Detail struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	Category      string   `json:"category"`
	CategoryTitle string   `json:"category_title"`
	Color         string   `json:"color"`
	Icon          string   `json:"icon,omitempty"`
	Connections   []string `json:"connections,omitempty"`
}

// Project returns the detail of n, or nil when nothing is selected.
// neighbors lists the labels of directly connected visible nodes.
func Project(n *diagram.Node, neighbors ...string) *Detail {
	if n == nil {
		return nil
	}
	d := &Detail{
		ID:            n.ID,
		Title:         n.DisplayLabel(),
		Description:   n.Description,
		Category:      n.Category.String(),
		CategoryTitle: n.Category.Title(),
		Color:         n.DisplayColor(),
		Icon:          n.Icon,
	}
	if len(neighbors) > 0 {
		d.Connections = append([]string(nil), neighbors...)
	}
	return d
}
