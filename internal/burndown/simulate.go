package burndown

import (
	"math"
	"time"

	"github.com/andresuchdata/locallens/internal/domain"
	"github.com/andresuchdata/locallens/internal/triage"
)

// Frame is the simulated depletion of one product over the horizon.
type Frame struct {
	Points            []domain.BurnDownPoint
	Status            domain.StockStatus
	StockoutDay       *int
	StockoutDate      *time.Time
	DaysUntilStockout int
	TotalDemand       int
}

// Simulate burns currentStock down against the forecast horizon, relabelled
// to start today. The stockout day is the first index whose projected stock
// is negative.
func Simulate(result *domain.ForecastResult, currentStock int, scope domain.Scope, alloc triage.Allocator, today time.Time) Frame {
	future := result.Future()
	today = Day(today)
	if currentStock < 0 {
		currentStock = 0
	}

	dates := make([]time.Time, len(future))
	for i, p := range future {
		dates[i] = p.Date
	}
	aligned := Align(dates, today)

	frame := Frame{
		Points: make([]domain.BurnDownPoint, len(future)),
		Status: domain.StatusHealthy,
	}

	cumulative := 0
	for i, p := range future {
		// 1. Daily demand: whole units, never negative, allocated to scope
		daily := alloc.Allocate(int(math.Floor(math.Max(0, p.YHat))), scope)

		// 2. Cumulative demand and projected stock
		cumulative += daily
		projected := currentStock - cumulative

		frame.Points[i] = domain.BurnDownPoint{
			Date:             aligned[i],
			Weekday:          aligned[i].Weekday().String(),
			DailyDemand:      daily,
			CumulativeDemand: cumulative,
			ProjectedStock:   projected,
		}

		// 3. First threshold crossing
		if projected < 0 && frame.StockoutDay == nil {
			day := i
			date := aligned[i]
			frame.StockoutDay = &day
			frame.StockoutDate = &date
		}
	}
	frame.TotalDemand = cumulative

	if frame.StockoutDay != nil {
		frame.Status = domain.StatusCritical
		frame.DaysUntilStockout = daysBetween(today, *frame.StockoutDate)
		if frame.DaysUntilStockout < 0 {
			frame.DaysUntilStockout = 0
		}
	} else {
		frame.DaysUntilStockout = len(future)
	}

	return frame
}

// WeeklyPattern averages daily demand per weekday, Monday first. Weekdays
// absent from the frame are omitted.
func WeeklyPattern(points []domain.BurnDownPoint) []domain.WeekdayDemand {
	var sums, counts [7]int
	for _, p := range points {
		wd := (int(p.Date.Weekday()) + 6) % 7
		sums[wd] += p.DailyDemand
		counts[wd]++
	}

	pattern := make([]domain.WeekdayDemand, 0, 7)
	for i := 0; i < 7; i++ {
		if counts[i] == 0 {
			continue
		}
		pattern = append(pattern, domain.WeekdayDemand{
			Weekday: time.Weekday((i + 1) % 7).String(),
			Average: math.Round(float64(sums[i])/float64(counts[i])*100) / 100,
		})
	}
	return pattern
}
