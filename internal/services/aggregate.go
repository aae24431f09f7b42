package services

import (
	"time"

	"github.com/shopspring/decimal"

	"sales-explorer/internal/models"
)

// CategoryTotals groups records by category in first-seen order and sums the
// numeric columns of each group.
func CategoryTotals(records []models.OrderRecord) []models.CategoryTotal {
	index := make(map[string]int)
	totals := make([]models.CategoryTotal, 0)

	for _, rec := range records {
		i, ok := index[rec.Category]
		if !ok {
			i = len(totals)
			index[rec.Category] = i
			totals = append(totals, models.CategoryTotal{Category: rec.Category})
		}

		t := &totals[i]
		t.Sales = t.Sales.Add(rec.Sales)
		t.Profit = t.Profit.Add(rec.Profit)
		t.Orders++

		for col, v := range rec.Extra {
			if t.Extra == nil {
				t.Extra = make(map[string]decimal.Decimal, len(rec.Extra))
			}
			t.Extra[col] = t.Extra[col].Add(v)
		}
	}

	return totals
}

// MonthlyTotals buckets records by calendar month and sums sales. The result
// is chronological and covers every month from the first order to the last,
// with zero for months that have no orders.
func MonthlyTotals(records []models.OrderRecord) []models.MonthlyTotal {
	if len(records) == 0 {
		return []models.MonthlyTotal{}
	}

	sums := make(map[time.Time]decimal.Decimal)
	first, last := monthStart(records[0].OrderDate), monthStart(records[0].OrderDate)

	for _, rec := range records {
		m := monthStart(rec.OrderDate)
		sums[m] = sums[m].Add(rec.Sales)
		if m.Before(first) {
			first = m
		}
		if m.After(last) {
			last = m
		}
	}

	result := make([]models.MonthlyTotal, 0, len(sums))
	for m := first; !m.After(last); m = m.AddDate(0, 1, 0) {
		result = append(result, models.MonthlyTotal{Month: m, Sales: sums[m]})
	}
	return result
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func sumSales(records []models.OrderRecord) decimal.Decimal {
	total := decimal.Zero
	for _, rec := range records {
		total = total.Add(rec.Sales)
	}
	return total
}

func sumProfit(records []models.OrderRecord) decimal.Decimal {
	total := decimal.Zero
	for _, rec := range records {
		total = total.Add(rec.Profit)
	}
	return total
}

// CategorySeries converts category totals into bar chart data.
func CategorySeries(totals []models.CategoryTotal) models.ChartSeries {
	s := models.ChartSeries{
		Labels: make([]string, len(totals)),
		Values: make([]float64, len(totals)),
	}
	for i, t := range totals {
		s.Labels[i] = t.Category
		s.Values[i] = t.Sales.InexactFloat64()
	}
	return s
}

// MonthlySeries converts monthly totals into line chart data.
func MonthlySeries(totals []models.MonthlyTotal) models.ChartSeries {
	s := models.ChartSeries{
		Labels: make([]string, len(totals)),
		Values: make([]float64, len(totals)),
	}
	for i, t := range totals {
		s.Labels[i] = t.Label()
		s.Values[i] = t.Sales.InexactFloat64()
	}
	return s
}

// OrderSeries plots each order's sales against its category without
// aggregating first.
func OrderSeries(records []models.OrderRecord) models.ChartSeries {
	s := models.ChartSeries{
		Labels: make([]string, len(records)),
		Values: make([]float64, len(records)),
	}
	for i, rec := range records {
		s.Labels[i] = rec.Category
		s.Values[i] = rec.Sales.InexactFloat64()
	}
	return s
}
