package templates

import (
	"github.com/a-h/templ"

	"sales-explorer/internal/models"
)

const (
	datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.1/bundles/datastar.js"
	chartScript    = "https://cdn.jsdelivr.net/npm/chart.js@4.4.3/dist/chart.umd.min.js"
)

// Page is everything the dashboard needs for its first render.
type Page struct {
	Title        string
	Columns      []string
	Rows         [][]string
	TotalRows    int
	ExtraColumns []string
	Overview     models.Overview
	Selection    models.SelectionResult
}

// Dashboard renders the full page. Charts are filled in by the
// /sse/overview stream once the page loads.
func Dashboard(p Page) templ.Component {
	return component(func(h *htmlWriter) {
		signals, err := signalsAttr(map[string]any{
			"category":        p.Selection.Selection.Category,
			"subcategories":   []string{},
			"categoryChart":   models.ChartSeries{},
			"monthlyChart":    models.ChartSeries{},
			"orderChart":      models.ChartSeries{},
			"filteredMonthly": models.ChartSeries{},
		})
		if err != nil {
			h.err = err
			return
		}

		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"/>`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1"/><title>`)
		h.text(p.Title)
		h.raw("</title>")
		h.raw(`<script type="module"`)
		h.attr("src", datastarScript)
		h.raw(`></script><script`)
		h.attr("src", chartScript)
		h.raw("></script>")
		h.raw("<style>" + pageStyle + "</style><script>" + chartHelper + "</script></head>")

		h.raw("<body")
		h.attr("data-signals", signals)
		h.raw(` data-on-load="@get('/sse/overview')"><main><h1>`)
		h.text(p.Title)
		h.raw("</h1>")

		h.raw("<h2>Input Data</h2>")
		child(h, DataTable(p.Columns, p.Rows, p.TotalRows))

		h.raw("<h2>Sales by Category (per order)</h2>")
		h.raw(`<canvas id="order-chart" data-effect="salesCharts.draw('order-chart', 'bar', $orderChart)"></canvas>`)

		h.raw("<h2>Category Totals</h2>")
		child(h, CategoryTotalsTable(p.Overview.CategoryTotals, p.ExtraColumns))
		h.raw(`<canvas id="category-chart" data-effect="salesCharts.draw('category-chart', 'bar', $categoryChart)"></canvas>`)

		h.raw("<h2>Sales by Month</h2>")
		child(h, MonthlyTotalsTable(p.Overview.MonthlyTotals))
		h.raw(`<canvas id="monthly-chart" data-effect="salesCharts.draw('monthly-chart', 'line', $monthlyChart)"></canvas>`)

		h.raw(`<h2>Interactive Analysis</h2><div class="controls">`)
		child(h, CategorySelect(p.Overview.Categories, p.Selection.Selection.Category))
		child(h, SubCategoryOptions(p.Selection.SubCategories, p.Selection.Selection.SubCategories))
		h.raw("</div>")
		child(h, SelectionResults(p.Selection))

		h.raw("</main></body></html>")
	})
}

func child(h *htmlWriter, c templ.Component) {
	if h.err != nil {
		return
	}
	h.err = c.Render(h.ctx, h.w)
}

const chartHelper = `
window.salesCharts = {
  charts: {},
  draw(id, type, series) {
    const el = document.getElementById(id);
    if (!el || !series || !series.labels) return;
    if (this.charts[id]) this.charts[id].destroy();
    this.charts[id] = new Chart(el, {
      type: type,
      data: { labels: series.labels, datasets: [{ label: 'Sales', data: series.values, backgroundColor: '#0044ff', borderColor: '#0044ff' }] },
      options: { animation: false, plugins: { legend: { display: false } } }
    });
  }
};`

const pageStyle = `
body { font-family: system-ui, sans-serif; margin: 0; background: #f7f8fa; color: #1f2933; }
main { max-width: 1100px; margin: 0 auto; padding: 24px; }
.table-wrap { max-height: 360px; overflow: auto; }
.modern-table { width: 100%; border-collapse: collapse; background: #fff; font-size: 14px; }
.modern-table th, .modern-table td { padding: 6px 10px; border-bottom: 1px solid #e4e7eb; text-align: left; }
.category-badge { background: #e0e8ff; border-radius: 4px; padding: 2px 6px; }
.caption { color: #616e7c; font-size: 12px; }
canvas { background: #fff; margin: 12px 0; max-height: 320px; }
.controls { display: flex; gap: 24px; align-items: flex-start; }
.multi-select { border: 1px solid #cbd2d9; border-radius: 4px; }
.checkbox { display: block; }
.info { background: #e6f0ff; border-radius: 4px; padding: 12px; margin-top: 16px; }
.metrics { display: flex; gap: 32px; }
.metric-label { color: #616e7c; font-size: 14px; }
.metric-value { font-size: 28px; }
.metric-delta.up { color: #1a7f37; }
.metric-delta.down { color: #cf222e; }
`
