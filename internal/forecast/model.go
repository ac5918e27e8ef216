package forecast

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"time"
)

const (
	dateLayout   = "2006-01-02"
	weeklyPeriod = 7.0
	yearlyPeriod = 365.25
)

var errMissingRegressor = errors.New("missing regressor column")

// Model is a fitted per-product demand model.
type Model interface {
	// FutureDates returns daily dates from the start of history through
	// periods days past the last known date.
	FutureDates(periods int) []time.Time
	// Predict returns one point estimate per frame row.
	Predict(frame Frame) ([]float64, error)
	// Regressors lists the regressor columns the model was fit with.
	Regressors() []string
	LastDate() time.Time
}

// Frame is the prediction input: one row per date plus regressor columns.
type Frame struct {
	Dates   []time.Time
	Columns map[string][]float64
}

func NewFrame(dates []time.Time) Frame {
	return Frame{Dates: dates, Columns: make(map[string][]float64)}
}

// Set attaches a regressor column.
func (f Frame) Set(name string, values []float64) {
	f.Columns[name] = values
}

// Constant fills a regressor column with a single value.
func (f Frame) Constant(name string, v float64) {
	col := make([]float64, len(f.Dates))
	for i := range col {
		col[i] = v
	}
	f.Columns[name] = col
}

type TrendParams struct {
	K            float64   `json:"k"`
	M            float64   `json:"m"`
	Changepoints []float64 `json:"changepoints"`
	Deltas       []float64 `json:"deltas"`
}

type Seasonality struct {
	Period       float64   `json:"period"`
	Order        int       `json:"order"`
	Coefficients []float64 `json:"coefficients"`
}

type HolidayEffect struct {
	Name        string  `json:"name"`
	Date        string  `json:"date"`
	Effect      float64 `json:"effect"`
	LowerWindow int     `json:"lower_window"`
	UpperWindow int     `json:"upper_window"`
}

type RegressorTerm struct {
	Name string  `json:"name"`
	Coef float64 `json:"coef"`
	Mu   float64 `json:"mu"`
	Std  float64 `json:"std"`
}

// AdditiveModel is the artifact produced by offline training: a piecewise
// linear trend plus Fourier seasonality, holiday effects and linear
// regressors, all in scaled units multiplied back by YScale.
type AdditiveModel struct {
	ProductID  int64           `json:"product_id"`
	Start      string          `json:"start"`
	End        string          `json:"end"`
	TScaleDays float64         `json:"t_scale_days"`
	YScale     float64         `json:"y_scale"`
	Trend      TrendParams     `json:"trend"`
	Weekly     *Seasonality    `json:"weekly,omitempty"`
	Yearly     *Seasonality    `json:"yearly,omitempty"`
	Holidays   []HolidayEffect `json:"holidays,omitempty"`
	Terms      []RegressorTerm `json:"regressors,omitempty"`

	start    time.Time
	end      time.Time
	holidays map[time.Time]float64
}

// DecodeModel reads and validates a JSON model artifact.
func DecodeModel(r io.Reader) (*AdditiveModel, error) {
	var m AdditiveModel
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if err := m.init(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *AdditiveModel) init() error {
	var err error
	if m.start, err = time.Parse(dateLayout, m.Start); err != nil {
		return fmt.Errorf("model start date: %w", err)
	}
	if m.end, err = time.Parse(dateLayout, m.End); err != nil {
		return fmt.Errorf("model end date: %w", err)
	}
	if m.end.Before(m.start) {
		return fmt.Errorf("model end %s before start %s", m.End, m.Start)
	}
	if m.TScaleDays <= 0 {
		return fmt.Errorf("model t_scale_days must be positive")
	}
	if m.YScale <= 0 {
		return fmt.Errorf("model y_scale must be positive")
	}
	if len(m.Trend.Changepoints) != len(m.Trend.Deltas) {
		return fmt.Errorf("model has %d changepoints but %d deltas", len(m.Trend.Changepoints), len(m.Trend.Deltas))
	}
	if m.Weekly != nil && m.Weekly.Period == 0 {
		m.Weekly.Period = weeklyPeriod
	}
	if m.Yearly != nil && m.Yearly.Period == 0 {
		m.Yearly.Period = yearlyPeriod
	}
	for _, s := range []*Seasonality{m.Weekly, m.Yearly} {
		if s == nil {
			continue
		}
		if s.Period <= 0 || s.Order < 0 || len(s.Coefficients) != 2*s.Order {
			return fmt.Errorf("model seasonality (period %.2f) needs %d coefficients, has %d", s.Period, 2*s.Order, len(s.Coefficients))
		}
	}
	for i, term := range m.Terms {
		if term.Name == "" {
			return fmt.Errorf("model regressor %d has no name", i)
		}
	}

	m.holidays = make(map[time.Time]float64)
	for _, h := range m.Holidays {
		day, err := time.Parse(dateLayout, h.Date)
		if err != nil {
			return fmt.Errorf("holiday %s date: %w", h.Name, err)
		}
		for off := h.LowerWindow; off <= h.UpperWindow; off++ {
			m.holidays[day.AddDate(0, 0, off)] += h.Effect
		}
	}
	return nil
}

func (m *AdditiveModel) LastDate() time.Time {
	return m.end
}

func (m *AdditiveModel) Regressors() []string {
	names := make([]string, len(m.Terms))
	for i, term := range m.Terms {
		names[i] = term.Name
	}
	return names
}

func (m *AdditiveModel) FutureDates(periods int) []time.Time {
	if periods < 0 {
		periods = 0
	}
	last := m.end.AddDate(0, 0, periods)
	dates := make([]time.Time, 0, int(last.Sub(m.start).Hours()/24)+1)
	for d := m.start; !d.After(last); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

func (m *AdditiveModel) Predict(frame Frame) ([]float64, error) {
	for _, term := range m.Terms {
		col, ok := frame.Columns[term.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", errMissingRegressor, term.Name)
		}
		if len(col) != len(frame.Dates) {
			return nil, fmt.Errorf("regressor %s has %d values for %d dates", term.Name, len(col), len(frame.Dates))
		}
	}

	out := make([]float64, len(frame.Dates))
	for i, d := range frame.Dates {
		days := d.Sub(m.start).Hours() / 24
		v := m.trend(days / m.TScaleDays)
		v += fourier(m.Weekly, days)
		v += fourier(m.Yearly, days)
		v += m.holidays[civil(d)]
		for _, term := range m.Terms {
			std := term.Std
			if std == 0 {
				std = 1
			}
			v += term.Coef * (frame.Columns[term.Name][i] - term.Mu) / std
		}
		v *= m.YScale
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("non-finite prediction for %s", d.Format(dateLayout))
		}
		out[i] = v
	}
	return out, nil
}

// trend evaluates the piecewise linear growth at scaled time t.
func (m *AdditiveModel) trend(t float64) float64 {
	k, offset := m.Trend.K, m.Trend.M
	for i, cp := range m.Trend.Changepoints {
		if t < cp {
			break
		}
		k += m.Trend.Deltas[i]
		offset -= cp * m.Trend.Deltas[i]
	}
	return k*t + offset
}

func fourier(s *Seasonality, days float64) float64 {
	if s == nil {
		return 0
	}
	var v float64
	for n := 1; n <= s.Order; n++ {
		x := 2 * math.Pi * float64(n) * days / s.Period
		v += s.Coefficients[2*(n-1)]*math.Sin(x) + s.Coefficients[2*(n-1)+1]*math.Cos(x)
	}
	return v
}

func civil(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}

var _ Model = (*AdditiveModel)(nil)
