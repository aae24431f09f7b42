package models

import "github.com/shopspring/decimal"

// Selection is the UI-owned filter state: one category and the chosen
// sub-categories within it.
type Selection struct {
	Category      string   `json:"category"`
	SubCategories []string `json:"subcategories"`
}

type SelectionState string

const (
	StateAwaitingSelection SelectionState = "awaiting_selection"
	StateShowingMetrics    SelectionState = "showing_metrics"
)

const EmptySelectionMessage = "Please select at least one sub-category to view results."

type Metrics struct {
	TotalSales   decimal.Decimal `json:"total_sales"`
	TotalProfit  decimal.Decimal `json:"total_profit"`
	ProfitMargin float64         `json:"profit_margin"`
	DeltaMargin  float64         `json:"delta_margin"`

	SalesText  string `json:"sales_text"`
	ProfitText string `json:"profit_text"`
	MarginText string `json:"margin_text"`
	DeltaText  string `json:"delta_text"`
}

// SelectionResult is what one interaction produces. Metrics and Monthly are
// only set in StateShowingMetrics.
type SelectionResult struct {
	Selection     Selection      `json:"selection"`
	SubCategories []string       `json:"available_subcategories"`
	State         SelectionState `json:"state"`
	Message       string         `json:"message,omitempty"`
	Rows          int            `json:"rows"`
	Monthly       []MonthlyTotal `json:"monthly,omitempty"`
	Metrics       *Metrics       `json:"metrics,omitempty"`
}
