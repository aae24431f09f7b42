package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type CategoryTotal struct {
	Category string                     `json:"category"`
	Sales    decimal.Decimal            `json:"sales"`
	Profit   decimal.Decimal            `json:"profit"`
	Orders   int                        `json:"orders"`
	Extra    map[string]decimal.Decimal `json:"extra,omitempty"`
}

// MonthlyTotal holds summed sales for the calendar month starting at Month.
type MonthlyTotal struct {
	Month time.Time       `json:"month"`
	Sales decimal.Decimal `json:"sales"`
}

func (m MonthlyTotal) Label() string {
	return m.Month.Format("2006-01")
}

// ChartSeries is the shape the dashboard charts consume.
type ChartSeries struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// Overview bundles the views computed once at startup.
type Overview struct {
	RecordCount    int             `json:"record_count"`
	Columns        []string        `json:"columns"`
	CategoryTotals []CategoryTotal `json:"category_totals"`
	MonthlyTotals  []MonthlyTotal  `json:"monthly_totals"`
	Categories     []string        `json:"categories"`
	Baseline       Baseline        `json:"baseline"`
}
