package trend

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

const (
	baseInterest  = 20.0
	minInterest   = 0.0
	maxInterest   = 100.0
	daysInYear    = 365.25
	DefaultStdDev = 3.0
)

// NoiseSource yields standard normal samples. *rand.Rand satisfies it.
type NoiseSource interface {
	NormFloat64() float64
}

// Synthesizer produces the bounded interest series used as the exogenous
// regressor, both for historical backfill and for forecast frames.
type Synthesizer struct {
	table  *ShapeTable
	stddev float64

	mu    sync.Mutex
	noise NoiseSource
}

// NewSynthesizer builds a synthesizer. A nil noise source or a zero stddev
// produces the noise-free curve.
func NewSynthesizer(table *ShapeTable, noise NoiseSource, stddev float64) *Synthesizer {
	if table == nil {
		table = DefaultTable()
	}
	return &Synthesizer{table: table, noise: noise, stddev: stddev}
}

// NewNoiseSource returns a seeded source; seed 0 seeds from the clock.
func NewNoiseSource(seed int64) NoiseSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// Table exposes the shape table so callers can report which category applied.
func (s *Synthesizer) Table() *ShapeTable {
	return s.table
}

// Synthesize returns one interest value in [0, 100] per date.
func (s *Synthesizer) Synthesize(dates []time.Time, keyword string) []int {
	shape := s.table.Lookup(keyword)
	out := make([]int, len(dates))

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, d := range dates {
		v := baseInterest + seasonal(shape, d) + drift(shape, i, len(dates))
		if s.noise != nil && s.stddev > 0 {
			v += s.noise.NormFloat64() * s.stddev
		}
		out[i] = clip(v)
	}
	return out
}

func seasonal(shape Shape, d time.Time) float64 {
	doy := float64(d.YearDay())
	wave := math.Sin(2 * math.Pi * (doy - shape.PeakOffset) / daysInYear)
	if shape.Invert {
		wave = -wave
	}
	return (wave + 1) * shape.Amplitude
}

// drift spreads DriftFrom..DriftTo linearly across the series.
func drift(shape Shape, i, n int) float64 {
	if shape.DriftFrom == 0 && shape.DriftTo == 0 {
		return 0
	}
	if n <= 1 {
		return shape.DriftFrom
	}
	return shape.DriftFrom + (shape.DriftTo-shape.DriftFrom)*float64(i)/float64(n-1)
}

func clip(v float64) int {
	if math.IsNaN(v) {
		return int(minInterest)
	}
	v = math.Max(minInterest, math.Min(maxInterest, v))
	return int(math.Round(v))
}
