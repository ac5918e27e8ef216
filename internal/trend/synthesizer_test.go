package trend

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type constNoise float64

func (c constNoise) NormFloat64() float64 { return float64(c) }

func dayRange(start time.Time, n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.AddDate(0, 0, i)
	}
	return out
}

func TestSynthesizeNoiseFreeCurve(t *testing.T) {
	s := NewSynthesizer(DefaultTable(), nil, 0)

	// 2024-11-15 is day 320, where the holiday wave crosses its midline.
	holiday := s.Synthesize([]time.Time{time.Date(2024, 11, 15, 0, 0, 0, 0, time.UTC)}, "Turkey Breast")
	assert.Equal(t, []int{55}, holiday)

	// 2024-03-30 is day 90 for the generic shape.
	generic := s.Synthesize([]time.Time{time.Date(2024, 3, 30, 0, 0, 0, 0, time.UTC)}, "Spinach")
	assert.Equal(t, []int{30}, generic)
}

func TestSynthesizeAlwaysBounded(t *testing.T) {
	dates := dayRange(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), 800)
	keywords := []string{"Turkey Breast", "Cranberry Sauce", "Spinach", "", "no such keyword"}

	for _, noise := range []NoiseSource{constNoise(1000), constNoise(-1000), rand.New(rand.NewSource(7))} {
		s := NewSynthesizer(DefaultTable(), noise, DefaultStdDev)
		for _, kw := range keywords {
			for _, v := range s.Synthesize(dates, kw) {
				assert.GreaterOrEqual(t, v, 0)
				assert.LessOrEqual(t, v, 100)
			}
		}
	}
}

func TestSynthesizeSeededIsReproducible(t *testing.T) {
	dates := dayRange(time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC), 60)

	a := NewSynthesizer(DefaultTable(), NewNoiseSource(42), DefaultStdDev).Synthesize(dates, "Cranberry Sauce")
	b := NewSynthesizer(DefaultTable(), NewNoiseSource(42), DefaultStdDev).Synthesize(dates, "Cranberry Sauce")

	assert.Equal(t, a, b)
}

func TestHolidayPeaksAboveGeneric(t *testing.T) {
	s := NewSynthesizer(DefaultTable(), nil, 0)
	// Mid-February: holiday wave sits near its maximum, generic near its minimum.
	feb := []time.Time{time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC)}

	assert.Greater(t, s.Synthesize(feb, "Ground Turkey")[0], s.Synthesize(feb, "Olive Oil")[0])
}

func TestLookupIsCaseAndSpaceInsensitive(t *testing.T) {
	table := DefaultTable()

	assert.Equal(t, "holiday", table.Lookup("  turkey   BREAST ").Category)
	assert.Equal(t, "generic", table.Lookup("Vanilla Ice Cream").Category)
	assert.Equal(t, GenericShape, (*ShapeTable)(nil).Lookup("anything"))
}

func TestLoadTable(t *testing.T) {
	table, err := LoadTable("testdata/shapes.yaml")
	require.NoError(t, err)

	assert.Len(t, table.Shapes, 4)
	assert.Equal(t, "summer", table.Lookup("Watermelon").Category)
	assert.Equal(t, "trendy", table.Lookup("oat milk").Category)
	assert.True(t, table.Lookup("Cocoa Powder").Invert)
	assert.Equal(t, GenericShape.PeakOffset, table.Lookup("Butter").PeakOffset)

	s := NewSynthesizer(table, nil, 0)
	drifting := s.Synthesize(dayRange(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 10), "Avocado")
	for _, v := range drifting {
		assert.GreaterOrEqual(t, v, 60)
	}
}

func TestLoadTableMissingFile(t *testing.T) {
	_, err := LoadTable("testdata/missing.yaml")
	assert.Error(t, err)
}
