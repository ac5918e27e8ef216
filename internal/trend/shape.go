package trend

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Shape is the seasonal profile of one keyword category.
type Shape struct {
	Category   string   `yaml:"category"`
	PeakOffset float64  `yaml:"peak_offset"`
	Amplitude  float64  `yaml:"amplitude"`
	Invert     bool     `yaml:"invert"`
	DriftFrom  float64  `yaml:"drift_from"`
	DriftTo    float64  `yaml:"drift_to"`
	Keywords   []string `yaml:"keywords"`
}

// GenericShape applies to any keyword not listed in a table.
var GenericShape = Shape{Category: "generic", PeakOffset: 90, Amplitude: 10}

// HolidayShape peaks around late November for winter holiday meal items.
var HolidayShape = Shape{
	Category:   "holiday",
	PeakOffset: 320,
	Amplitude:  35,
	Keywords: []string{
		"Turkey Breast",
		"Cranberry Sauce",
		"Ground Turkey",
		"Sweet Potato",
		"Pumpkin Spice",
	},
}

// ShapeTable is the ordered category lookup shared by every synthesis call.
// The first shape listing a keyword wins.
type ShapeTable struct {
	Shapes  []Shape `yaml:"shapes"`
	Default Shape   `yaml:"default"`

	index map[string]int
}

// DefaultTable returns the built-in table: holiday items plus the generic fallback.
func DefaultTable() *ShapeTable {
	return NewTable([]Shape{HolidayShape}, GenericShape)
}

func NewTable(shapes []Shape, def Shape) *ShapeTable {
	t := &ShapeTable{Shapes: shapes, Default: def}
	t.buildIndex()
	return t
}

// LoadTable reads a YAML shape table from path.
func LoadTable(path string) (*ShapeTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read shape table %s: %w", path, err)
	}

	var t ShapeTable
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("decode shape table %s: %w", path, err)
	}
	if t.Default.Amplitude == 0 && t.Default.PeakOffset == 0 {
		t.Default = GenericShape
	}
	if t.Default.Category == "" {
		t.Default.Category = GenericShape.Category
	}

	for i, s := range t.Shapes {
		if s.Category == "" {
			return nil, fmt.Errorf("shape table %s: entry %d has no category", path, i)
		}
		if s.Amplitude < 0 {
			return nil, fmt.Errorf("shape table %s: category %s has negative amplitude", path, s.Category)
		}
	}

	t.buildIndex()
	return &t, nil
}

func (t *ShapeTable) buildIndex() {
	t.index = make(map[string]int)
	for i, s := range t.Shapes {
		for _, kw := range s.Keywords {
			key := normalizeKeyword(kw)
			if key == "" {
				continue
			}
			if _, taken := t.index[key]; taken {
				continue
			}
			t.index[key] = i
		}
	}
}

// Lookup returns the shape for a keyword, falling back to the default.
func (t *ShapeTable) Lookup(keyword string) Shape {
	if t == nil {
		return GenericShape
	}
	if t.index == nil {
		t.buildIndex()
	}
	if i, ok := t.index[normalizeKeyword(keyword)]; ok {
		return t.Shapes[i]
	}
	return t.Default
}

func normalizeKeyword(kw string) string {
	return strings.ToLower(strings.Join(strings.Fields(kw), " "))
}
