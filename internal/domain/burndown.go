package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockStatus is the burn-down verdict for a product.
type StockStatus string

const (
	StatusCritical StockStatus = "CRITICAL"
	StatusHealthy  StockStatus = "HEALTHY"
)

// BurnDownPoint is one simulated day.
type BurnDownPoint struct {
	Date             time.Time `json:"date"`
	Weekday          string    `json:"weekday"`
	DailyDemand      int       `json:"daily_demand"`
	CumulativeDemand int       `json:"cumulative_demand"`
	ProjectedStock   int       `json:"projected_stock"`
}

// WeekdayDemand is the mean simulated demand for one weekday.
type WeekdayDemand struct {
	Weekday string  `json:"weekday"`
	Average float64 `json:"average"`
}

// HistoryPoint is one day of recorded sales.
type HistoryPoint struct {
	Date     time.Time `json:"date" db:"sale_date"`
	Quantity int       `json:"quantity" db:"qty"`
}

// InsightAction is the recommended next step for a product.
type InsightAction string

const (
	ActionRestock  InsightAction = "RESTOCK"
	ActionMonitor  InsightAction = "MONITOR"
	ActionMaintain InsightAction = "MAINTAIN"
)

// InsightKind names the narrative attached to an insight.
type InsightKind string

const (
	InsightCritical InsightKind = "critical"
	InsightGrowth   InsightKind = "growth"
	InsightSlowing  InsightKind = "slowing"
	InsightSteady   InsightKind = "steady"
)

// Insight summarizes the simulation for the KPI panel.
type Insight struct {
	Action        InsightAction `json:"action"`
	Kind          InsightKind   `json:"kind"`
	PercentChange float64       `json:"percent_change"`
	Message       string        `json:"message"`
}

// BurnDown is the per-product simulation plus its KPI panel.
type BurnDown struct {
	ProductID         int64           `json:"product_id"`
	ProductName       string          `json:"product_name"`
	Scope             Scope           `json:"scope"`
	CurrentStock      int             `json:"current_stock"`
	Points            []BurnDownPoint `json:"points"`
	Status            StockStatus     `json:"status"`
	StockoutDay       *int            `json:"stockout_day,omitempty"`
	StockoutDate      *time.Time      `json:"stockout_date,omitempty"`
	DaysUntilStockout int             `json:"days_until_stockout"`
	TotalDemand       int             `json:"total_demand"`
	Price             decimal.Decimal `json:"price"`
	ProjectedRevenue  decimal.Decimal `json:"projected_revenue"`
	Insight           Insight         `json:"insight"`
	WeeklyPattern     []WeekdayDemand `json:"weekly_pattern"`
	History           []HistoryPoint  `json:"history"`
}
