package forecast

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/andresuchdata/locallens/internal/cache"
	"github.com/andresuchdata/locallens/internal/domain"
	"github.com/andresuchdata/locallens/internal/trend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubModel struct {
	start      time.Time
	end        time.Time
	regressors []string
	predict    func(Frame) ([]float64, error)
	calls      int
	lastFrame  Frame
}

func (m *stubModel) FutureDates(periods int) []time.Time {
	var out []time.Time
	for d := m.start; !d.After(m.end.AddDate(0, 0, periods)); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

func (m *stubModel) Predict(f Frame) ([]float64, error) {
	m.calls++
	m.lastFrame = f
	if m.predict != nil {
		return m.predict(f)
	}
	out := make([]float64, len(f.Dates))
	for i := range out {
		out[i] = 2
	}
	return out, nil
}

func (m *stubModel) Regressors() []string { return m.regressors }
func (m *stubModel) LastDate() time.Time  { return m.end }

type stubProvider map[int64]Model

func (p stubProvider) Get(ctx context.Context, id int64) (Model, bool) {
	m, ok := p[id]
	return m, ok
}

func newStub() *stubModel {
	return &stubModel{start: day(2024, 1, 1), end: day(2024, 1, 10), regressors: []string{domain.RegressorPromotion}}
}

func noiseFree() *trend.Synthesizer {
	return trend.NewSynthesizer(trend.DefaultTable(), nil, 0)
}

func TestRunProducesHistoryPlusHorizon(t *testing.T) {
	runner := NewRunner(stubProvider{1: newStub()}, noiseFree(), 14)

	out := runner.Run(context.Background(), domain.Product{ID: 1, Name: "Milk"}, nil, domain.AllStores())
	require.True(t, out.OK())

	assert.Len(t, out.Result.Points, 24)
	assert.Len(t, out.Result.Future(), 14)
	assert.Equal(t, day(2024, 1, 11), out.Result.Future()[0].Date)
	for _, p := range out.Result.Points {
		assert.Equal(t, 0.0, p.Regressors[domain.RegressorPromotion])
	}
	assert.False(t, out.Result.HasRegressor(domain.RegressorInterest))
}

func TestRunAttachesInterestForMappedProducts(t *testing.T) {
	model := newStub()
	model.regressors = append(model.regressors, domain.RegressorInterest)
	synth := noiseFree()
	runner := NewRunner(stubProvider{5: model}, synth, 14)

	trends := domain.TrendMapping{5: "Turkey Breast"}
	out := runner.Run(context.Background(), domain.Product{ID: 5}, trends, domain.AllStores())
	require.True(t, out.OK())

	dates := model.FutureDates(14)
	expected := synth.Synthesize(dates, "Turkey Breast")
	col := model.lastFrame.Columns[domain.RegressorInterest]
	require.Len(t, col, len(expected))
	for i, v := range expected {
		assert.Equal(t, float64(v), col[i])
	}
	assert.True(t, out.Result.HasRegressor(domain.RegressorInterest))
}

func TestRunSharesSynthesisWithBackfill(t *testing.T) {
	// The backfill path and the forecast path must see the same shape.
	synth := noiseFree()
	model := newStub()
	runner := NewRunner(stubProvider{5: model}, synth, 14)

	out := runner.Run(context.Background(), domain.Product{ID: 5}, domain.TrendMapping{5: "Cranberry Sauce"}, domain.AllStores())
	require.True(t, out.OK())

	history := model.FutureDates(0)
	backfill := synth.Synthesize(history, "Cranberry Sauce")
	for i := range history {
		assert.Equal(t, float64(backfill[i]), out.Result.Points[i].Regressors[domain.RegressorInterest])
	}
}

func TestRunSkipsMissingModel(t *testing.T) {
	runner := NewRunner(stubProvider{}, noiseFree(), 14)

	out := runner.Run(context.Background(), domain.Product{ID: 3, Name: "Eggs"}, nil, domain.AllStores())
	require.NotNil(t, out.Skip)
	assert.Nil(t, out.Result)
	assert.Equal(t, domain.SkipModelUnavailable, out.Skip.Reason)
	assert.ErrorIs(t, out.Skip.Err(), domain.ErrModelUnavailable)
}

func TestRunSkipsFailingPredictions(t *testing.T) {
	failing := newStub()
	failing.predict = func(Frame) ([]float64, error) { return nil, errors.New("singular matrix") }
	panicking := newStub()
	panicking.predict = func(Frame) ([]float64, error) { panic("index out of range") }
	short := newStub()
	short.predict = func(Frame) ([]float64, error) { return []float64{1}, nil }

	runner := NewRunner(stubProvider{1: failing, 2: panicking, 3: short}, noiseFree(), 14)
	for id := int64(1); id <= 3; id++ {
		out := runner.Run(context.Background(), domain.Product{ID: id}, nil, domain.AllStores())
		require.NotNil(t, out.Skip, "product %d", id)
		assert.Equal(t, domain.SkipPredictionFailure, out.Skip.Reason)
	}
}

func TestRunBatchContinuesPastFailures(t *testing.T) {
	broken := newStub()
	broken.predict = func(Frame) ([]float64, error) { panic("boom") }
	runner := NewRunner(stubProvider{1: newStub(), 2: broken, 4: newStub()}, noiseFree(), 14)

	products := []domain.Product{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}}
	outcomes := runner.RunBatch(context.Background(), products, nil, domain.AllStores(), nil)

	require.Len(t, outcomes, 4)
	assert.True(t, outcomes[0].OK())
	assert.Equal(t, domain.SkipPredictionFailure, outcomes[1].Skip.Reason)
	assert.Equal(t, domain.SkipModelUnavailable, outcomes[2].Skip.Reason)
	assert.True(t, outcomes[3].OK())
}

func TestRunBatchUsesScopedCache(t *testing.T) {
	ctx := context.Background()
	model := newStub()
	runner := NewRunner(stubProvider{1: model}, noiseFree(), 14)
	fc := cache.NewMemoryForecastCache()
	products := []domain.Product{{ID: 1}}

	first := runner.RunBatch(ctx, products, nil, domain.StoreScope(2), fc)
	second := runner.RunBatch(ctx, products, nil, domain.StoreScope(2), fc)
	require.True(t, second[0].OK())
	assert.Same(t, first[0].Result, second[0].Result)
	assert.Equal(t, 1, model.calls)

	runner.RunBatch(ctx, products, nil, domain.StoreScope(3), fc)
	assert.Equal(t, 2, model.calls)
}

func TestRunBatchDoesNotCacheSkips(t *testing.T) {
	ctx := context.Background()
	provider := stubProvider{}
	runner := NewRunner(provider, noiseFree(), 14)
	fc := cache.NewMemoryForecastCache()
	products := []domain.Product{{ID: 1}}

	out := runner.RunBatch(ctx, products, nil, domain.AllStores(), fc)
	require.NotNil(t, out[0].Skip)

	provider[1] = newStub()
	out = runner.RunBatch(ctx, products, nil, domain.AllStores(), fc)
	assert.True(t, out[0].OK())
}

func TestRunBatchParallelKeepsOrder(t *testing.T) {
	provider := stubProvider{}
	var products []domain.Product
	for id := int64(1); id <= 12; id++ {
		if id%3 != 0 {
			provider[id] = newStub()
		}
		products = append(products, domain.Product{ID: id})
	}
	runner := NewRunner(provider, noiseFree(), 14).SetWorkers(4)

	outcomes := runner.RunBatch(context.Background(), products, nil, domain.AllStores(), cache.NewMemoryForecastCache())

	require.Len(t, outcomes, len(products))
	for i, out := range outcomes {
		assert.Equal(t, products[i].ID, out.Product.ID)
		if products[i].ID%3 == 0 {
			require.NotNil(t, out.Skip)
			assert.Equal(t, domain.SkipModelUnavailable, out.Skip.Reason)
		} else {
			assert.True(t, out.OK(), "product %d", products[i].ID)
		}
	}
}
