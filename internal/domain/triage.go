package domain

import "time"

// TriageRow is the restock metric for one product.
type TriageRow struct {
	ProductID        int64  `json:"product_id"`
	ProductName      string `json:"product_name"`
	CurrentStock     int    `json:"current_stock"`
	ForecastedDemand int    `json:"forecasted_demand"`
	Shortfall        int    `json:"shortfall"`
}

// TriageReport is the outcome of one triage run.
type TriageReport struct {
	RunID       string      `json:"run_id"`
	Scope       Scope       `json:"scope"`
	Horizon     int         `json:"horizon"`
	Rows        []TriageRow `json:"rows"`
	Restock     []TriageRow `json:"restock"`
	Skipped     []Skip      `json:"skipped"`
	NoData      bool        `json:"no_data"`
	GeneratedAt time.Time   `json:"generated_at"`
}
