package forecast

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/andresuchdata/locallens/internal/cache"
	"github.com/andresuchdata/locallens/internal/domain"
	"github.com/andresuchdata/locallens/internal/metrics"
	"github.com/andresuchdata/locallens/internal/trend"
	"github.com/rs/zerolog/log"
)

// Runner extends product models over the planning horizon.
type Runner struct {
	models  ModelProvider
	synth   *trend.Synthesizer
	horizon int
	workers int
	now     func() time.Time
}

func NewRunner(models ModelProvider, synth *trend.Synthesizer, horizon int) *Runner {
	if horizon <= 0 {
		horizon = domain.DefaultHorizonDays
	}
	if synth == nil {
		synth = trend.NewSynthesizer(trend.DefaultTable(), trend.NewNoiseSource(0), trend.DefaultStdDev)
	}
	return &Runner{models: models, synth: synth, horizon: horizon, workers: 1, now: time.Now}
}

// SetWorkers sets how many products RunBatch forecasts concurrently.
func (r *Runner) SetWorkers(n int) *Runner {
	if n < 1 {
		n = 1
	}
	r.workers = n
	return r
}

func (r *Runner) Horizon() int {
	return r.horizon
}

// Run forecasts one product. It never returns an error: an unusable model
// or a failed prediction comes back as a skip.
func (r *Runner) Run(ctx context.Context, product domain.Product, trends domain.TrendMapping, scope domain.Scope) domain.ForecastOutcome {
	started := time.Now()
	defer func() { metrics.ForecastDuration.Observe(time.Since(started).Seconds()) }()

	model, ok := r.models.Get(ctx, product.ID)
	if !ok {
		return skipped(product, domain.SkipModelUnavailable, "no usable model artifact")
	}

	dates := model.FutureDates(r.horizon)
	frame := NewFrame(dates)

	// No promotions are planned inside the horizon.
	frame.Constant(domain.RegressorPromotion, 0)

	if keyword, mapped := trends.Keyword(product.ID); mapped {
		interest := r.synth.Synthesize(dates, keyword)
		col := make([]float64, len(interest))
		for i, v := range interest {
			col[i] = float64(v)
		}
		frame.Set(domain.RegressorInterest, col)
	}

	yhat, err := safePredict(model, frame)
	if err != nil {
		return skipped(product, domain.SkipPredictionFailure, err.Error())
	}
	if len(yhat) != len(dates) {
		return skipped(product, domain.SkipPredictionFailure,
			fmt.Sprintf("model returned %d values for %d dates", len(yhat), len(dates)))
	}

	points := make([]domain.ForecastPoint, len(dates))
	for i, d := range dates {
		regs := make(map[string]float64, len(frame.Columns))
		for name, col := range frame.Columns {
			regs[name] = col[i]
		}
		points[i] = domain.ForecastPoint{Date: d, YHat: yhat[i], Regressors: regs}
	}

	return domain.ForecastOutcome{
		Product: product,
		Result: &domain.ForecastResult{
			ProductID:   product.ID,
			Scope:       scope,
			Horizon:     r.horizon,
			Points:      points,
			GeneratedAt: r.now(),
		},
	}
}

// RunBatch forecasts products on a pool of workers, reusing and filling the
// scoped forecast cache. Outcomes keep the order of products and one failing
// product never stops the batch.
func (r *Runner) RunBatch(ctx context.Context, products []domain.Product, trends domain.TrendMapping, scope domain.Scope, fc cache.ForecastCache) []domain.ForecastOutcome {
	if fc == nil {
		fc = cache.NewNoopForecastCache()
	}

	outcomes := make([]domain.ForecastOutcome, len(products))
	workerCount := r.workers
	if workerCount > len(products) {
		workerCount = len(products)
	}

	jobs := make(chan int, len(products))
	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				outcomes[idx] = r.runCached(ctx, products[idx], trends, scope, fc)
			}
		}()
	}

	for i := range products {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return outcomes
}

func (r *Runner) runCached(ctx context.Context, p domain.Product, trends domain.TrendMapping, scope domain.Scope, fc cache.ForecastCache) domain.ForecastOutcome {
	if res, hit, err := fc.Get(ctx, scope, p.ID); err != nil {
		log.Warn().Err(err).Int64("product_id", p.ID).Str("scope", scope.Key()).Msg("forecast cache read failed")
	} else if hit {
		metrics.RecordForecastCache(true)
		return domain.ForecastOutcome{Product: p, Result: res}
	}
	metrics.RecordForecastCache(false)

	out := r.Run(ctx, p, trends, scope)
	if out.Skip != nil {
		metrics.RecordSkip(string(out.Skip.Reason))
		log.Warn().
			Int64("product_id", p.ID).
			Str("product", p.Name).
			Str("reason", string(out.Skip.Reason)).
			Str("detail", out.Skip.Detail).
			Msg("product skipped")
	} else if err := fc.Set(ctx, scope, out.Result); err != nil {
		log.Warn().Err(err).Int64("product_id", p.ID).Msg("forecast cache write failed")
	}
	return out
}

func safePredict(m Model, f Frame) (yhat []float64, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("model panicked: %v", rec)
		}
	}()
	return m.Predict(f)
}

func skipped(p domain.Product, reason domain.SkipReason, detail string) domain.ForecastOutcome {
	return domain.ForecastOutcome{
		Product: p,
		Skip: &domain.Skip{
			ProductID:   p.ID,
			ProductName: p.Name,
			Reason:      reason,
			Detail:      detail,
		},
	}
}
