package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateDiagramID validates a stored diagram identifier. Ids double as
// file names in the directory store and as URL path segments, so they are
// restricted to a conservative character set:
//   - No empty ids
//   - Maximum length of 128 characters
//   - Letters, digits, '-', '_' and '.' only
//   - No path traversal sequences (..)
func ValidateDiagramID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "diagram id cannot be empty")
	}
	if len(id) > 128 {
		return New(ErrCodeInvalidInput, "diagram id too long (max 128 characters)")
	}
	if strings.Contains(id, "..") {
		return New(ErrCodeInvalidInput, "diagram id cannot contain path traversal sequences (..)")
	}
	if !diagramIDRegex.MatchString(id) {
		return New(ErrCodeInvalidInput, "invalid diagram id: %q", id)
	}
	return nil
}

var diagramIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateNodeID validates a node identifier inside a diagram definition.
// Node ids end up in SVG element ids and data attributes, so control
// characters, quotes and angle brackets are rejected.
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidDiagram, "node id cannot be empty")
	}
	if len(id) > 256 {
		return New(ErrCodeInvalidDiagram, "node id too long (max 256 characters)")
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidDiagram, "node id %q contains control characters", id)
		}
	}
	if strings.ContainsAny(id, `"'<>&`) {
		return New(ErrCodeInvalidDiagram, "node id %q contains markup characters", id)
	}
	return nil
}

// hexColorRegex matches #rgb, #rrggbb and #rrggbbaa colours.
var hexColorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// namedColorRegex matches CSS colour keywords such as "slategray".
var namedColorRegex = regexp.MustCompile(`^[a-zA-Z]{3,20}$`)

// ValidateColor validates a colour literal. Empty strings are allowed and
// mean "use the default". Only hex literals and CSS keywords are accepted so
// that colours can be written into SVG attributes without escaping.
func ValidateColor(c string) error {
	if c == "" {
		return nil
	}
	if hexColorRegex.MatchString(c) || namedColorRegex.MatchString(c) {
		return nil
	}
	return New(ErrCodeInvalidDiagram, "invalid color: %q", c)
}

// ValidatePath validates a definition file path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}
	return nil
}
