package diagram

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/matzehuels/nodeflow/pkg/errors"
)

// Category is the closed classification tag used for filtering. The set is
// fixed at compile time; every member has an entry in categoryTable.
type Category uint8

// Categories used by the two diagram schemes. The zero value is invalid.
const (
	CategoryFrontend Category = iota + 1
	CategoryBackend
	CategoryInfrastructure
	CategorySecurity
	CategoryMonitoring
	CategoryDevOps
	CategoryCloud
	CategoryDevelopment

	categoryEnd
)

type categoryInfo struct {
	name  string
	title string
	color string
}

// categoryTable is indexed by Category; every member must have a row.
var categoryTable = [categoryEnd]categoryInfo{
	CategoryFrontend:       {"frontend", "Frontend", "#3b82f6"},
	CategoryBackend:        {"backend", "Backend", "#10b981"},
	CategoryInfrastructure: {"infrastructure", "Infrastructure", "#f59e0b"},
	CategorySecurity:       {"security", "Security", "#ef4444"},
	CategoryMonitoring:     {"monitoring", "Monitoring", "#8b5cf6"},
	CategoryDevOps:         {"devops", "DevOps", "#06b6d4"},
	CategoryCloud:          {"cloud", "Cloud", "#0ea5e9"},
	CategoryDevelopment:    {"development", "Development", "#22c55e"},
}

// AllCategories lists every category in declaration order.
func AllCategories() []Category {
	out := make([]Category, 0, categoryEnd-1)
	for c := CategoryFrontend; c < categoryEnd; c++ {
		out = append(out, c)
	}
	return out
}

// Valid reports whether c is a declared category.
func (c Category) Valid() bool { return c > 0 && c < categoryEnd }

// String returns the wire name ("frontend", "devops", ...).
func (c Category) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Category(%d)", uint8(c))
	}
	return categoryTable[c].name
}

// Title returns the human-readable legend title.
func (c Category) Title() string {
	if !c.Valid() {
		return ""
	}
	return categoryTable[c].title
}

// Color returns the legend colour used when a node declares none.
func (c Category) Color() string {
	if !c.Valid() {
		return DefaultEdgeColor
	}
	return categoryTable[c].color
}

// ParseCategory resolves a wire name, case-insensitively.
func ParseCategory(s string) (Category, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for c := CategoryFrontend; c < categoryEnd; c++ {
		if categoryTable[c].name == name {
			return c, nil
		}
	}
	return 0, errors.New(errors.ErrCodeInvalidCategory, "unknown category %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, errors.New(errors.ErrCodeInvalidCategory, "invalid category %d", uint8(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(b []byte) error {
	parsed, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// CategorySet is an immutable set of categories stored as a bitmask.
type CategorySet uint16

// NewCategorySet builds a set from the given members; invalid ones are skipped.
func NewCategorySet(cs ...Category) CategorySet {
	var s CategorySet
	for _, c := range cs {
		s = s.With(c)
	}
	return s
}

// Has reports membership.
func (s CategorySet) Has(c Category) bool {
	return c.Valid() && s&(1<<c) != 0
}

// With returns s ∪ {c}.
func (s CategorySet) With(c Category) CategorySet {
	if !c.Valid() {
		return s
	}
	return s | 1<<c
}

// Without returns s \ {c}.
func (s CategorySet) Without(c Category) CategorySet {
	if !c.Valid() {
		return s
	}
	return s &^ (1 << c)
}

// Len returns the number of members.
func (s CategorySet) Len() int { return bits.OnesCount16(uint16(s)) }

// Empty reports whether the set has no members.
func (s CategorySet) Empty() bool { return s == 0 }

// SubsetOf reports whether every member of s is in other.
func (s CategorySet) SubsetOf(other CategorySet) bool { return s&^other == 0 }

// Slice returns the members in declaration order.
func (s CategorySet) Slice() []Category {
	var out []Category
	for c := CategoryFrontend; c < categoryEnd; c++ {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// String renders the set as a comma-separated list of names.
func (s CategorySet) String() string {
	names := make([]string, 0, s.Len())
	for _, c := range s.Slice() {
		names = append(names, c.String())
	}
	return strings.Join(names, ",")
}

// ParseCategorySet parses a comma-separated list such as "frontend,backend".
// An empty string yields an empty set.
func ParseCategorySet(s string) (CategorySet, error) {
	var set CategorySet
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		c, err := ParseCategory(part)
		if err != nil {
			return 0, err
		}
		set = set.With(c)
	}
	return set, nil
}

// Scheme is the closed category vocabulary of one diagram instance.
type Scheme uint8

// Known schemes. The zero value means "not declared" and is resolved by
// InferScheme when a definition is loaded.
const (
	SchemeArchitecture Scheme = iota + 1
	SchemeSkills

	schemeEnd
)

var schemeTable = [schemeEnd]struct {
	name       string
	categories CategorySet
}{
	SchemeArchitecture: {"architecture", NewCategorySet(
		CategoryFrontend, CategoryBackend, CategoryInfrastructure, CategorySecurity, CategoryMonitoring)},
	SchemeSkills: {"skills", NewCategorySet(
		CategoryDevOps, CategoryCloud, CategorySecurity, CategoryDevelopment, CategoryInfrastructure)},
}

// Valid reports whether s is a declared scheme.
func (s Scheme) Valid() bool { return s > 0 && s < schemeEnd }

// String returns the wire name.
func (s Scheme) String() string {
	if !s.Valid() {
		return ""
	}
	return schemeTable[s].name
}

// Categories returns the scheme's category set.
func (s Scheme) Categories() CategorySet {
	if !s.Valid() {
		return 0
	}
	return schemeTable[s].categories
}

// Contains reports whether c belongs to the scheme.
func (s Scheme) Contains(c Category) bool { return s.Categories().Has(c) }

// ParseScheme resolves a wire name.
func ParseScheme(name string) (Scheme, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for s := SchemeArchitecture; s < schemeEnd; s++ {
		if schemeTable[s].name == n {
			return s, nil
		}
	}
	return 0, errors.New(errors.ErrCodeInvalidCategory, "unknown scheme %q", name)
}

// InferScheme returns the first scheme that contains every category in used.
func InferScheme(used CategorySet) (Scheme, bool) {
	for s := SchemeArchitecture; s < schemeEnd; s++ {
		if used.SubsetOf(s.Categories()) {
			return s, true
		}
	}
	return 0, false
}

// MarshalText implements encoding.TextMarshaler.
func (s Scheme) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty value leaves
// the scheme undeclared.
func (s *Scheme) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*s = 0
		return nil
	}
	parsed, err := ParseScheme(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
