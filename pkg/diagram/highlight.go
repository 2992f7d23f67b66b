package diagram

// Highlight is the tri-state signal consumed by every renderer.
type Highlight int8

const (
	// HighlightNeutral means no node is active.
	HighlightNeutral Highlight = iota
	// HighlightOn marks the active node, its neighbours and incident edges.
	HighlightOn
	// HighlightOff marks everything else while some node is active.
	HighlightOff
)

// String returns "neutral", "on" or "off".
func (h Highlight) String() string {
	switch h {
	case HighlightOn:
		return "on"
	case HighlightOff:
		return "off"
	default:
		return "neutral"
	}
}

// MarshalJSON encodes the tri-state as true, false or null.
func (h Highlight) MarshalJSON() ([]byte, error) {
	switch h {
	case HighlightOn:
		return []byte("true"), nil
	case HighlightOff:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes true, false or null.
func (h *Highlight) UnmarshalJSON(b []byte) error {
	switch string(b) {
	case "true":
		*h = HighlightOn
	case "false":
		*h = HighlightOff
	default:
		*h = HighlightNeutral
	}
	return nil
}
