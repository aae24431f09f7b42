package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Required CSV columns. Names are matched exactly.
const (
	ColumnCategory    = "Category"
	ColumnSubCategory = "Sub_Category"
	ColumnOrderDate   = "Order_Date"
	ColumnSales       = "Sales"
	ColumnProfit      = "Profit"
)

var RequiredColumns = []string{
	ColumnCategory,
	ColumnSubCategory,
	ColumnOrderDate,
	ColumnSales,
	ColumnProfit,
}

// OrderRecord is one row of the sales file after preparation.
type OrderRecord struct {
	Row          int                        `json:"row"`
	Category     string                     `json:"category"`
	SubCategory  string                     `json:"sub_category"`
	OrderDate    time.Time                  `json:"order_date"`
	Sales        decimal.Decimal            `json:"sales"`
	Profit       decimal.Decimal            `json:"profit"`
	ProfitMargin Margin                     `json:"profit_margin"`
	Extra        map[string]decimal.Decimal `json:"extra,omitempty"`
}

// Margin is a profit ratio that may be undefined (zero sales).
type Margin struct {
	Value float64
	Valid bool
}

func NewMargin(profit, sales decimal.Decimal) Margin {
	if sales.IsZero() {
		return Margin{}
	}
	return Margin{Value: profit.InexactFloat64() / sales.InexactFloat64(), Valid: true}
}

func (m Margin) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(m.Value)
}

// Baseline is the mean row margin over the whole dataset.
type Baseline struct {
	AverageMargin float64 `json:"average_margin"`
	Rows          int     `json:"rows"`
	Defined       bool    `json:"defined"`
}
