package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/andresuchdata/locallens/internal/burndown"
	"github.com/andresuchdata/locallens/internal/cache"
	"github.com/andresuchdata/locallens/internal/domain"
	"github.com/andresuchdata/locallens/internal/forecast"
	"github.com/andresuchdata/locallens/internal/metrics"
	"github.com/andresuchdata/locallens/internal/repository"
	"github.com/andresuchdata/locallens/internal/triage"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const defaultHistoryDays = 30

// ModelReloader drops loaded models so the next lookup reads storage again.
type ModelReloader interface {
	Reset()
}

// TriageDeps wires a TriageService.
type TriageDeps struct {
	Catalog     repository.CatalogReader
	Stock       repository.StockReader
	Sales       repository.SalesReader
	Runner      *forecast.Runner
	Models      ModelReloader
	Forecasts   cache.ForecastCache
	Allocator   triage.Allocator
	HistoryDays int
	Now         func() time.Time
}

type TriageService struct {
	catalog     repository.CatalogReader
	stock       repository.StockReader
	sales       repository.SalesReader
	runner      *forecast.Runner
	models      ModelReloader
	forecasts   cache.ForecastCache
	alloc       triage.Allocator
	historyDays int
	now         func() time.Time

	mu        sync.Mutex
	lastScope *domain.Scope
}

func NewTriageService(deps TriageDeps) *TriageService {
	if deps.Forecasts == nil {
		deps.Forecasts = cache.NewMemoryForecastCache()
	}
	if deps.Allocator.Divisor <= 0 {
		deps.Allocator = triage.NewAllocator(deps.Allocator.Divisor)
	}
	if deps.HistoryDays <= 0 {
		deps.HistoryDays = defaultHistoryDays
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &TriageService{
		catalog:     deps.Catalog,
		stock:       deps.Stock,
		sales:       deps.Sales,
		runner:      deps.Runner,
		models:      deps.Models,
		forecasts:   deps.Forecasts,
		alloc:       deps.Allocator,
		historyDays: deps.HistoryDays,
		now:         deps.Now,
	}
}

// observeScope drops cached forecasts of the previous scope when the
// requested scope differs from it.
func (s *TriageService) observeScope(ctx context.Context, scope domain.Scope) {
	s.mu.Lock()
	prev := s.lastScope
	s.lastScope = &scope
	s.mu.Unlock()

	if prev == nil || *prev == scope {
		return
	}
	if err := s.forecasts.InvalidateScope(ctx, *prev); err != nil {
		log.Warn().Err(err).Str("scope", prev.Key()).Msg("triage: invalidate forecasts failed")
	}
}

// RunTriage forecasts every product and ranks restock priority under scope.
func (s *TriageService) RunTriage(ctx context.Context, scope domain.Scope) (*domain.TriageReport, error) {
	s.observeScope(ctx, scope)
	report, err := s.runTriage(ctx, scope)
	restock := 0
	if report != nil {
		restock = len(report.Restock)
	}
	metrics.RecordTriageRun(scope.Key(), restock, err)
	return report, err
}

func (s *TriageService) runTriage(ctx context.Context, scope domain.Scope) (*domain.TriageReport, error) {
	report := &domain.TriageReport{
		RunID:       uuid.NewString(),
		Scope:       scope,
		Horizon:     s.runner.Horizon(),
		Rows:        []domain.TriageRow{},
		Restock:     []domain.TriageRow{},
		Skipped:     []domain.Skip{},
		GeneratedAt: s.now(),
	}

	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w: %w", domain.ErrDataUnavailable, err)
	}
	if len(products) == 0 {
		report.NoData = true
		log.Info().Str("run_id", report.RunID).Str("scope", scope.Key()).Msg("triage: no products")
		return report, nil
	}

	trends := s.trendMapping(ctx)

	stock, err := s.stock.GetStock(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("read stock: %w: %w", domain.ErrDataUnavailable, err)
	}

	outcomes := s.runner.RunBatch(ctx, products, trends, scope, s.forecasts)
	report.Rows = triage.Aggregate(outcomes, stock, scope, s.alloc)
	report.Restock = triage.RestockView(report.Rows)
	report.Skipped = triage.Skips(outcomes)

	log.Info().
		Str("run_id", report.RunID).
		Str("scope", scope.Key()).
		Int("products", len(products)).
		Int("restock", len(report.Restock)).
		Int("skipped", len(report.Skipped)).
		Msg("triage: run complete")

	return report, nil
}

// Refresh recomputes the all-stores triage from scratch. It leaves the
// tracked request scope alone.
func (s *TriageService) Refresh(ctx context.Context) (*domain.TriageReport, error) {
	if err := s.forecasts.InvalidateScope(ctx, domain.AllStores()); err != nil {
		return nil, fmt.Errorf("invalidate forecasts: %w", err)
	}
	report, err := s.runTriage(ctx, domain.AllStores())
	restock := 0
	if report != nil {
		restock = len(report.Restock)
	}
	metrics.RecordTriageRun(domain.AllStores().Key(), restock, err)
	return report, err
}

// ExportRestock writes the restock rows, or the rows for ids when given, in
// the requested format.
func (s *TriageService) ExportRestock(ctx context.Context, scope domain.Scope, ids []int64, format string, w io.Writer) error {
	if format == "" {
		format = triage.FormatCSV
	}
	if format != triage.FormatCSV && format != triage.FormatXLSX {
		return fmt.Errorf("unsupported export format %q", format)
	}

	report, err := s.RunTriage(ctx, scope)
	if err != nil {
		return err
	}

	rows := report.Restock
	if len(ids) > 0 {
		rows = triage.Select(report.Rows, ids)
	}
	return triage.Write(w, format, rows)
}

// GetBurnDown simulates stock depletion of one product under scope.
func (s *TriageService) GetBurnDown(ctx context.Context, productID int64, scope domain.Scope) (*domain.BurnDown, error) {
	s.observeScope(ctx, scope)

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get product: %w: %w", domain.ErrDataUnavailable, err)
	}

	outcome := s.runner.RunBatch(ctx, []domain.Product{*product}, s.trendMapping(ctx), scope, s.forecasts)[0]
	if outcome.Skip != nil {
		return nil, fmt.Errorf("product %d: %w: %s", productID, outcome.Skip.Err(), outcome.Skip.Detail)
	}

	stock, err := s.stock.GetProductStock(ctx, scope, productID)
	if err != nil {
		return nil, fmt.Errorf("read stock: %w: %w", domain.ErrDataUnavailable, err)
	}

	now := s.now()
	frame := burndown.Simulate(outcome.Result, stock.Quantity, scope, s.alloc, now)

	return &domain.BurnDown{
		ProductID:         product.ID,
		ProductName:       product.Name,
		Scope:             scope,
		CurrentStock:      stock.Quantity,
		Points:            frame.Points,
		Status:            frame.Status,
		StockoutDay:       frame.StockoutDay,
		StockoutDate:      frame.StockoutDate,
		DaysUntilStockout: frame.DaysUntilStockout,
		TotalDemand:       frame.TotalDemand,
		Price:             stock.Price,
		ProjectedRevenue:  stock.Price.Mul(decimal.NewFromInt(int64(frame.TotalDemand))),
		Insight:           burndown.Insight(frame, outcome.Result.HasRegressor(domain.RegressorInterest)),
		WeeklyPattern:     burndown.WeeklyPattern(frame.Points),
		History:           s.history(ctx, scope, productID, now),
	}, nil
}

// ReloadModels forgets loaded models and every cached forecast.
func (s *TriageService) ReloadModels(ctx context.Context) error {
	if s.models != nil {
		s.models.Reset()
	}
	if err := s.forecasts.InvalidateAll(ctx); err != nil {
		return fmt.Errorf("invalidate forecasts: %w", err)
	}
	log.Info().Msg("triage: models reloaded")
	return nil
}

func (s *TriageService) trendMapping(ctx context.Context) domain.TrendMapping {
	trends, err := s.catalog.GetTrendMapping(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("triage: trend mapping unavailable, forecasting without interest")
		return domain.TrendMapping{}
	}
	return trends
}

// history returns recent sales relabelled so the last day is yesterday.
func (s *TriageService) history(ctx context.Context, scope domain.Scope, productID int64, now time.Time) []domain.HistoryPoint {
	if s.sales == nil {
		return []domain.HistoryPoint{}
	}
	points, err := s.sales.RecentSales(ctx, scope, productID, s.historyDays)
	if err != nil {
		log.Warn().Err(err).Int64("product_id", productID).Msg("triage: sales history unavailable")
		return []domain.HistoryPoint{}
	}
	return burndown.AlignHistory(points, burndown.Day(now).AddDate(0, 0, -1))
}
