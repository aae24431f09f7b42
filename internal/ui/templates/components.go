package templates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/a-h/templ"

	"sales-explorer/internal/models"
)

// Element IDs patched over SSE.
const (
	SubCategoryOptionsID = "subcategory-options"
	SelectionResultsID   = "selection-results"
)

type htmlWriter struct {
	ctx context.Context
	w   io.Writer
	err error
}

func (h *htmlWriter) raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

func (h *htmlWriter) rawf(format string, args ...any) {
	h.raw(fmt.Sprintf(format, args...))
}

func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

func (h *htmlWriter) attr(name, value string) {
	h.rawf(` %s="%s"`, name, templ.EscapeString(value))
}

func component(fn func(h *htmlWriter)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{ctx: ctx, w: w}
		fn(h)
		return h.err
	})
}

// RenderString renders a component into a string, for SSE element patches.
func RenderString(ctx context.Context, c templ.Component) (string, error) {
	var buf strings.Builder
	if err := c.Render(ctx, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// DataTable renders raw CSV rows.
func DataTable(columns []string, rows [][]string, total int) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<div id="data-table" class="table-wrap"><table class="modern-table"><thead><tr>`)
		for _, col := range columns {
			h.raw("<th>")
			h.text(col)
			h.raw("</th>")
		}
		h.raw("</tr></thead><tbody>")
		for _, row := range rows {
			h.raw("<tr>")
			for _, v := range row {
				h.raw("<td>")
				h.text(v)
				h.raw("</td>")
			}
			h.raw("</tr>")
		}
		h.raw("</tbody></table>")
		h.rawf(`<p class="caption">Showing %d of %d rows</p></div>`, len(rows), total)
	})
}

// CategoryTotalsTable renders the per-category sums.
func CategoryTotalsTable(totals []models.CategoryTotal, extraColumns []string) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<div id="category-totals"><table class="modern-table"><thead><tr><th>Category</th>`)
		for _, col := range extraColumns {
			h.raw("<th>")
			h.text(col)
			h.raw("</th>")
		}
		h.raw("<th>Sales</th><th>Profit</th><th>Orders</th></tr></thead><tbody>")
		for _, t := range totals {
			h.raw(`<tr><td><span class="category-badge">`)
			h.text(t.Category)
			h.raw("</span></td>")
			for _, col := range extraColumns {
				h.raw("<td>")
				h.text(t.Extra[col].String())
				h.raw("</td>")
			}
			h.rawf("<td><strong>%s</strong></td><td>%s</td><td>%d</td></tr>",
				templ.EscapeString(t.Sales.StringFixed(2)),
				templ.EscapeString(t.Profit.StringFixed(2)),
				t.Orders)
		}
		h.raw("</tbody></table></div>")
	})
}

// MonthlyTotalsTable renders monthly sales in chronological order.
func MonthlyTotalsTable(totals []models.MonthlyTotal) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<div id="monthly-totals" class="table-wrap"><table class="modern-table"><thead><tr><th>Month</th><th>Sales</th></tr></thead><tbody>`)
		for _, m := range totals {
			h.rawf("<tr><td>%s</td><td>%s</td></tr>",
				templ.EscapeString(m.Label()),
				templ.EscapeString(m.Sales.StringFixed(2)))
		}
		h.raw("</tbody></table></div>")
	})
}

// CategorySelect is the single-select bound to the category signal.
func CategorySelect(categories []string, selected string) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<label for="category-select">Select Category</label>`)
		h.raw(`<select id="category-select" data-bind-category data-on-change="@get('/sse/category')">`)
		for _, c := range categories {
			h.raw("<option")
			h.attr("value", c)
			if c == selected {
				h.raw(" selected")
			}
			h.raw(">")
			h.text(c)
			h.raw("</option>")
		}
		h.raw("</select>")
	})
}

// SubCategoryOptions is the multi-select for the sub-categories offered under
// the current category.
func SubCategoryOptions(options, chosen []string) templ.Component {
	return component(func(h *htmlWriter) {
		h.rawf(`<fieldset id="%s" class="multi-select"><legend>Select Sub-Category(s)</legend>`, SubCategoryOptionsID)
		for _, opt := range options {
			h.raw(`<label class="checkbox"><input type="checkbox" data-bind-subcategories data-on-change="@get('/sse/selection')"`)
			h.attr("value", opt)
			if slices.Contains(chosen, opt) {
				h.raw(" checked")
			}
			h.raw("/> ")
			h.text(opt)
			h.raw("</label>")
		}
		h.raw("</fieldset>")
	})
}

// SelectionResults shows either the three metrics with the filtered chart or
// the empty-selection notice.
func SelectionResults(result models.SelectionResult) templ.Component {
	return component(func(h *htmlWriter) {
		h.rawf(`<section id="%s">`, SelectionResultsID)
		if result.State != models.StateShowingMetrics || result.Metrics == nil {
			h.raw(`<div class="info">`)
			h.text(result.Message)
			h.raw("</div></section>")
			return
		}

		m := result.Metrics
		h.raw(`<h3>Sales Over Time for Selected Sub-Categories</h3>`)
		h.raw(`<canvas id="filtered-chart" data-effect="salesCharts.draw('filtered-chart', 'line', $filteredMonthly)"></canvas>`)
		h.raw(`<h3>Key Metrics for Selected Items</h3><div class="metrics">`)
		metric(h, "Total Sales", m.SalesText, "", 0)
		metric(h, "Total Profit", m.ProfitText, "", 0)
		metric(h, "Profit Margin", m.MarginText, m.DeltaText, m.DeltaMargin)
		h.raw("</div></section>")
	})
}

func metric(h *htmlWriter, label, value, delta string, sign float64) {
	h.raw(`<div class="metric"><div class="metric-label">`)
	h.text(label)
	h.raw(`</div><div class="metric-value">`)
	h.text(value)
	h.raw("</div>")
	if delta != "" {
		class := "metric-delta up"
		if sign < 0 {
			class = "metric-delta down"
		}
		h.raw("<div")
		h.attr("class", class)
		h.raw(">")
		h.text(delta)
		h.raw("</div>")
	}
	h.raw("</div>")
}

func signalsAttr(signals map[string]any) (string, error) {
	b, err := json.Marshal(signals)
	if err != nil {
		return "", fmt.Errorf("marshal signals: %w", err)
	}
	return string(b), nil
}
