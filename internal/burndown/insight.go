package burndown

import (
	"fmt"
	"math"

	"github.com/andresuchdata/locallens/internal/domain"
)

// trendThreshold is the first-to-last day change, in percent, that counts
// as a real shift in demand.
const trendThreshold = 5.0

// Insight turns a simulation into a recommended action.
func Insight(frame Frame, hasInterest bool) domain.Insight {
	change := percentChange(frame.Points)

	switch {
	case frame.Status == domain.StatusCritical:
		return domain.Insight{
			Action:        domain.ActionRestock,
			Kind:          domain.InsightCritical,
			PercentChange: change,
			Message:       fmt.Sprintf("Stock runs out in %d days. Reorder now.", frame.DaysUntilStockout),
		}
	case change > trendThreshold && hasInterest:
		return domain.Insight{
			Action:        domain.ActionMonitor,
			Kind:          domain.InsightGrowth,
			PercentChange: change,
			Message:       fmt.Sprintf("Demand is up %.1f%% across the horizon, driven by rising search interest.", change),
		}
	case change > trendThreshold:
		return domain.Insight{
			Action:        domain.ActionMonitor,
			Kind:          domain.InsightSteady,
			PercentChange: change,
			Message:       fmt.Sprintf("Demand is up %.1f%% across the horizon. Watch stock levels.", change),
		}
	case change < -trendThreshold:
		return domain.Insight{
			Action:        domain.ActionMaintain,
			Kind:          domain.InsightSlowing,
			PercentChange: change,
			Message:       fmt.Sprintf("Demand is down %.1f%% across the horizon. Hold orders.", math.Abs(change)),
		}
	default:
		return domain.Insight{
			Action:        domain.ActionMaintain,
			Kind:          domain.InsightSteady,
			PercentChange: change,
			Message:       "Demand is steady and stock covers the horizon.",
		}
	}
}

func percentChange(points []domain.BurnDownPoint) float64 {
	if len(points) < 2 {
		return 0
	}
	first := float64(points[0].DailyDemand)
	last := float64(points[len(points)-1].DailyDemand)
	if first == 0 {
		if last == 0 {
			return 0
		}
		return 100
	}
	return math.Round((last-first)/first*1000) / 10
}
