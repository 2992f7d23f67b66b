package diagram

import (
	"encoding/json"
	"testing"

	"github.com/matzehuels/nodeflow/pkg/errors"
)

func TestCategoryTableComplete(t *testing.T) {
	for _, c := range AllCategories() {
		info := categoryTable[c]
		if info.name == "" || info.title == "" || info.color == "" {
			t.Errorf("category %d has incomplete table row %+v", c, info)
		}
	}
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in      string
		want    Category
		wantErr bool
	}{
		{"frontend", CategoryFrontend, false},
		{"Security", CategorySecurity, false},
		{"  devops ", CategoryDevOps, false},
		{"database", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCategory(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCategory(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidCategory) {
				t.Errorf("error code = %v, want INVALID_CATEGORY", errors.GetCode(err))
			}
			if got != tt.want {
				t.Errorf("ParseCategory(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestCategoryJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		C Category `json:"c"`
	}{CategoryMonitoring})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"c":"monitoring"}` {
		t.Errorf("marshal = %s", data)
	}

	var out struct {
		C Category `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"c":"nope"}`), &out); err == nil {
		t.Error("expected error for unknown category")
	}
}

func TestCategorySet(t *testing.T) {
	s := NewCategorySet(CategoryFrontend, CategoryBackend, 0, categoryEnd)
	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}
	if !s.Has(CategoryFrontend) || s.Has(CategorySecurity) {
		t.Errorf("membership wrong for %s", s)
	}
	s = s.Without(CategoryFrontend)
	if s.Has(CategoryFrontend) || s.Len() != 1 {
		t.Errorf("Without failed: %s", s)
	}
	if s.Without(CategoryBackend).Empty() != true {
		t.Error("removing last member should yield empty set")
	}
	if got := NewCategorySet(CategorySecurity, CategoryFrontend).String(); got != "frontend,security" {
		t.Errorf("String = %q, want declaration order", got)
	}
	if !NewCategorySet(CategoryCloud).SubsetOf(SchemeSkills.Categories()) {
		t.Error("cloud should be in skills")
	}
}

func TestParseCategorySet(t *testing.T) {
	s, err := ParseCategorySet("frontend, backend,,")
	if err != nil {
		t.Fatal(err)
	}
	if s != NewCategorySet(CategoryFrontend, CategoryBackend) {
		t.Errorf("got %s", s)
	}
	if s, _ := ParseCategorySet(""); !s.Empty() {
		t.Errorf("empty input gave %s", s)
	}
	if _, err := ParseCategorySet("frontend,bogus"); err == nil {
		t.Error("expected error")
	}
}

func TestInferScheme(t *testing.T) {
	tests := []struct {
		name   string
		used   CategorySet
		want   Scheme
		wantOK bool
	}{
		{"Architecture", NewCategorySet(CategoryFrontend, CategoryMonitoring), SchemeArchitecture, true},
		{"Skills", NewCategorySet(CategoryCloud, CategoryDevelopment), SchemeSkills, true},
		{"SharedPicksFirst", NewCategorySet(CategorySecurity, CategoryInfrastructure), SchemeArchitecture, true},
		{"Mixed", NewCategorySet(CategoryFrontend, CategoryCloud), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := InferScheme(tt.used)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("InferScheme(%s) = %v, %v; want %v, %v", tt.used, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestSchemeText(t *testing.T) {
	var s Scheme
	if err := s.UnmarshalText([]byte("skills")); err != nil || s != SchemeSkills {
		t.Fatalf("UnmarshalText = %v, %v", s, err)
	}
	if err := s.UnmarshalText(nil); err != nil || s.Valid() {
		t.Errorf("empty text should leave scheme undeclared, got %v", s)
	}
	if err := s.UnmarshalText([]byte("marketing")); err == nil {
		t.Error("expected error for unknown scheme")
	}
}
