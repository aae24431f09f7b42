package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"sales-explorer/internal/models"
)

func TestCategoryTotals(t *testing.T) {
	ds := mustReadDataset(t, sampleCSV)

	totals := CategoryTotals(ds.Records())

	wantOrder := []string{"Furniture", "Office Supplies", "Technology"}
	if len(totals) != len(wantOrder) {
		t.Fatalf("expected %d categories, got %d", len(wantOrder), len(totals))
	}
	for i, want := range wantOrder {
		if totals[i].Category != want {
			t.Errorf("category %d = %q, want %q (first-seen order)", i, totals[i].Category, want)
		}
	}

	furniture := totals[0]
	if !furniture.Sales.Equal(decimal.NewFromInt(450)) {
		t.Errorf("Furniture sales = %s, want 450", furniture.Sales)
	}
	if !furniture.Profit.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Furniture profit = %s, want 10", furniture.Profit)
	}
	if furniture.Orders != 3 {
		t.Errorf("Furniture orders = %d, want 3", furniture.Orders)
	}
	if q := furniture.Extra["Quantity"]; !q.Equal(decimal.NewFromInt(6)) {
		t.Errorf("Furniture quantity = %s, want 6", q)
	}
}

func TestCategoryTotals_ConservesSales(t *testing.T) {
	ds := mustReadDataset(t, sampleCSV)

	sum := decimal.Zero
	for _, c := range CategoryTotals(ds.Records()) {
		sum = sum.Add(c.Sales)
	}

	if total := sumSales(ds.Records()); !sum.Equal(total) {
		t.Errorf("category sales sum %s != dataset sales %s", sum, total)
	}
}

func TestMonthlyTotals(t *testing.T) {
	ds := mustReadDataset(t, sampleCSV)

	monthly := MonthlyTotals(ds.Records())

	want := []struct {
		label string
		sales int64
	}{
		{"2017-01", 150},
		{"2017-02", 0},
		{"2017-03", 200},
		{"2017-04", 230},
	}

	if len(monthly) != len(want) {
		t.Fatalf("expected %d months, got %d", len(want), len(monthly))
	}
	for i, w := range want {
		if monthly[i].Label() != w.label {
			t.Errorf("month %d = %s, want %s", i, monthly[i].Label(), w.label)
		}
		if !monthly[i].Sales.Equal(decimal.NewFromInt(w.sales)) {
			t.Errorf("%s sales = %s, want %d", w.label, monthly[i].Sales, w.sales)
		}
	}
}

func TestMonthlyTotals_ChronologicalAndConserving(t *testing.T) {
	records := []models.OrderRecord{
		{OrderDate: time.Date(2018, 2, 3, 0, 0, 0, 0, time.UTC), Sales: decimal.RequireFromString("10.10")},
		{OrderDate: time.Date(2017, 11, 30, 0, 0, 0, 0, time.UTC), Sales: decimal.RequireFromString("0.20")},
		{OrderDate: time.Date(2018, 2, 28, 23, 0, 0, 0, time.UTC), Sales: decimal.RequireFromString("5.05")},
		{OrderDate: time.Date(2017, 12, 1, 0, 0, 0, 0, time.UTC), Sales: decimal.RequireFromString("1.01")},
	}

	monthly := MonthlyTotals(records)

	for i := 1; i < len(monthly); i++ {
		if !monthly[i-1].Month.Before(monthly[i].Month) {
			t.Errorf("months not chronological: %s before %s", monthly[i-1].Label(), monthly[i].Label())
		}
	}

	sum := decimal.Zero
	for _, m := range monthly {
		sum = sum.Add(m.Sales)
	}
	if !sum.Equal(sumSales(records)) {
		t.Errorf("monthly sum %s != total %s", sum, sumSales(records))
	}

	if len(monthly) != 4 {
		t.Errorf("expected Nov, Dec, Jan, Feb buckets, got %d", len(monthly))
	}
}

func TestMonthlyTotals_Empty(t *testing.T) {
	if got := MonthlyTotals(nil); len(got) != 0 {
		t.Errorf("expected no months for no records, got %d", len(got))
	}
}

func TestSeries(t *testing.T) {
	ds := mustReadDataset(t, sampleCSV)

	cat := CategorySeries(CategoryTotals(ds.Records()))
	if len(cat.Labels) != 3 || cat.Values[0] != 450 {
		t.Errorf("unexpected category series: %+v", cat)
	}

	monthly := MonthlySeries(MonthlyTotals(ds.Records()))
	if monthly.Labels[0] != "2017-01" || monthly.Values[3] != 230 {
		t.Errorf("unexpected monthly series: %+v", monthly)
	}

	orders := OrderSeries(ds.Records())
	if len(orders.Labels) != ds.Len() || orders.Labels[1] != "Office Supplies" {
		t.Errorf("unexpected order series: %+v", orders)
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"money", FormatMoney(decimal.RequireFromString("1234.5")), "$1,234.50"},
		{"money rounds", FormatMoney(decimal.RequireFromString("20.005")), "$20.01"},
		{"percent", FormatPercent(0.2), "20.00%"},
		{"positive delta", FormatDelta(0.05), "+5.00%"},
		{"negative delta", FormatDelta(-0.15), "-15.00%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}
