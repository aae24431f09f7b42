package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/shopspring/decimal"

	"sales-explorer/internal/errors"
	"sales-explorer/internal/models"
)

// Explorer answers dashboard queries from a dataset loaded once at startup.
// The static views and the baseline are computed in NewExplorer. Apply only
// recomputes the selection-dependent part.
type Explorer struct {
	dataset       *Dataset
	overview      models.Overview
	subCategories map[string][]string
	logger        *slog.Logger
}

func NewExplorer(dataset *Dataset, logger *slog.Logger) *Explorer {
	if logger == nil {
		logger = slog.Default()
	}

	records := dataset.Records()
	categories := make([]string, 0)
	subCategories := make(map[string][]string)

	for _, rec := range records {
		subs, ok := subCategories[rec.Category]
		if !ok {
			categories = append(categories, rec.Category)
		}
		if !slices.Contains(subs, rec.SubCategory) {
			subCategories[rec.Category] = append(subs, rec.SubCategory)
		}
	}

	return &Explorer{
		dataset: dataset,
		overview: models.Overview{
			RecordCount:    dataset.Len(),
			Columns:        dataset.Columns(),
			CategoryTotals: CategoryTotals(records),
			MonthlyTotals:  MonthlyTotals(records),
			Categories:     categories,
			Baseline:       dataset.Baseline(),
		},
		subCategories: subCategories,
		logger:        logger,
	}
}

func (e *Explorer) Dataset() *Dataset { return e.dataset }

func (e *Explorer) Overview() models.Overview { return e.overview }

func (e *Explorer) Categories() []string {
	return slices.Clone(e.overview.Categories)
}

// SubCategories lists the sub-categories present under category in
// first-seen order. Unknown categories have none.
func (e *Explorer) SubCategories(category string) []string {
	return slices.Clone(e.subCategories[category])
}

// Normalize makes sel consistent with the data: the category falls back to the
// first one when empty or unknown, and sub-categories not offered under it are
// dropped.
func (e *Explorer) Normalize(sel models.Selection) models.Selection {
	category := sel.Category
	if _, ok := e.subCategories[category]; !ok {
		category = ""
		if len(e.overview.Categories) > 0 {
			category = e.overview.Categories[0]
		}
	}

	offered := e.subCategories[category]
	chosen := make([]string, 0, len(sel.SubCategories))
	for _, sub := range offered {
		if slices.Contains(sel.SubCategories, sub) {
			chosen = append(chosen, sub)
		}
	}

	return models.Selection{Category: category, SubCategories: chosen}
}

// Filter returns the records matching the category and any of the chosen
// sub-categories, in file order.
func (e *Explorer) Filter(sel models.Selection) ([]models.OrderRecord, error) {
	if len(sel.SubCategories) == 0 {
		return []models.OrderRecord{}, nil
	}

	filtered := e.dataset.frame.
		Filter(dataframe.F{Colname: models.ColumnCategory, Comparator: series.Eq, Comparando: sel.Category}).
		Filter(dataframe.F{Colname: models.ColumnSubCategory, Comparator: series.In, Comparando: sel.SubCategories})
	if filtered.Err != nil {
		return nil, errors.InternalWrap(filtered.Err, "filter dataset")
	}
	if filtered.Nrow() == 0 {
		return []models.OrderRecord{}, nil
	}

	rows, err := filtered.Col(rowIndexColumn).Int()
	if err != nil {
		return nil, errors.InternalWrap(err, "read filtered row index")
	}

	all := e.dataset.Records()
	result := make([]models.OrderRecord, 0, len(rows))
	for _, i := range rows {
		if i < 0 || i >= len(all) {
			return nil, errors.Internal(fmt.Sprintf("filtered row index %d out of range", i))
		}
		result = append(result, all[i])
	}
	return result, nil
}

// Apply handles one selection change.
func (e *Explorer) Apply(ctx context.Context, sel models.Selection) (models.SelectionResult, error) {
	if err := ctx.Err(); err != nil {
		return models.SelectionResult{}, err
	}

	start := time.Now()
	sel = e.Normalize(sel)

	result := models.SelectionResult{
		Selection:     sel,
		SubCategories: e.SubCategories(sel.Category),
		State:         models.StateAwaitingSelection,
	}

	if len(sel.SubCategories) == 0 {
		result.Message = models.EmptySelectionMessage
		return result, nil
	}

	rows, err := e.Filter(sel)
	if err != nil {
		return models.SelectionResult{}, err
	}
	if len(rows) == 0 {
		result.Message = models.EmptySelectionMessage
		return result, nil
	}

	metrics := ComputeMetrics(rows, e.overview.Baseline)

	result.State = models.StateShowingMetrics
	result.Rows = len(rows)
	result.Monthly = MonthlyTotals(rows)
	result.Metrics = &metrics

	e.logger.Debug("selection applied",
		"category", sel.Category,
		"subcategories", sel.SubCategories,
		"rows", len(rows),
		"duration", time.Since(start),
	)

	return result, nil
}

// ComputeMetrics summarises rows against the dataset baseline. A zero sales
// total reports a margin of 0 rather than undefined.
func ComputeMetrics(rows []models.OrderRecord, baseline models.Baseline) models.Metrics {
	totalSales := sumSales(rows)
	totalProfit := sumProfit(rows)

	margin := 0.0
	if !totalSales.IsZero() {
		margin = totalProfit.InexactFloat64() / totalSales.InexactFloat64()
	}
	delta := margin - baseline.AverageMargin

	return models.Metrics{
		TotalSales:   totalSales,
		TotalProfit:  totalProfit,
		ProfitMargin: margin,
		DeltaMargin:  delta,
		SalesText:    FormatMoney(totalSales),
		ProfitText:   FormatMoney(totalProfit),
		MarginText:   FormatPercent(margin),
		DeltaText:    FormatDelta(delta),
	}
}

// TotalSales sums sales over the whole dataset.
func (e *Explorer) TotalSales() decimal.Decimal {
	return sumSales(e.dataset.Records())
}

func (e *Explorer) Stats() map[string]any {
	return map[string]any{
		"source":          e.dataset.Name(),
		"record_count":    e.overview.RecordCount,
		"total_sales":     e.TotalSales(),
		"loaded_at":       e.dataset.LoadedAt(),
		"categories":      len(e.overview.Categories),
		"months":          len(e.overview.MonthlyTotals),
		"extra_columns":   e.dataset.ExtraColumns(),
		"baseline_margin": e.overview.Baseline.AverageMargin,
		"baseline_rows":   e.overview.Baseline.Rows,
	}
}
