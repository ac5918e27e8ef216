package domain

import "time"

// Regressor column names understood by forecast models.
const (
	RegressorPromotion = "on_promotion"
	RegressorInterest  = "interest"
)

// DefaultHorizonDays is the planning window for triage and burn-down.
const DefaultHorizonDays = 14

// ForecastPoint is one day of model output.
type ForecastPoint struct {
	Date       time.Time          `json:"date"`
	YHat       float64            `json:"yhat"`
	Regressors map[string]float64 `json:"regressors,omitempty"`
}

// ForecastResult is the full model horizon (history plus future) for one
// product under one scope.
type ForecastResult struct {
	ProductID   int64           `json:"product_id"`
	Scope       Scope           `json:"scope"`
	Horizon     int             `json:"horizon"`
	Points      []ForecastPoint `json:"points"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// Future returns the trailing horizon slice of the forecast.
func (r *ForecastResult) Future() []ForecastPoint {
	if r == nil {
		return nil
	}
	n := r.Horizon
	if n <= 0 || n > len(r.Points) {
		n = len(r.Points)
	}
	return r.Points[len(r.Points)-n:]
}

// HasRegressor reports whether the forecast carries the named regressor.
func (r *ForecastResult) HasRegressor(name string) bool {
	if r == nil {
		return false
	}
	for _, p := range r.Points {
		if _, ok := p.Regressors[name]; ok {
			return true
		}
	}
	return false
}

// SkipReason classifies why a product produced no forecast.
type SkipReason string

const (
	SkipModelUnavailable  SkipReason = "model_unavailable"
	SkipPredictionFailure SkipReason = "prediction_failure"
)

// Skip records a product that was left out of a run.
type Skip struct {
	ProductID   int64      `json:"product_id"`
	ProductName string     `json:"product_name"`
	Reason      SkipReason `json:"reason"`
	Detail      string     `json:"detail,omitempty"`
}

// Err maps the skip to its sentinel error.
func (s *Skip) Err() error {
	if s == nil {
		return nil
	}
	if s.Reason == SkipPredictionFailure {
		return ErrPredictionFailure
	}
	return ErrModelUnavailable
}

// ForecastOutcome is either a result or a skip, never both.
type ForecastOutcome struct {
	Product Product
	Result  *ForecastResult
	Skip    *Skip
}

func (o ForecastOutcome) OK() bool {
	return o.Result != nil && o.Skip == nil
}
