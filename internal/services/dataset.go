package services

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"sales-explorer/internal/errors"
	"sales-explorer/internal/models"
)

const (
	chunkSize      = 5000
	defaultWorkers = 10

	// rowIndexColumn links a filtered frame back to the prepared records.
	rowIndexColumn = "__row"
)

var dateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	"01/02/2006",
	"2006/01/02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"1/2/06",
	"01-02-2006",
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var missingValues = []string{"", "NaN", "NA", "<nil>"}

// Dataset is the prepared, read-only sales table.
type Dataset struct {
	name         string
	frame        dataframe.DataFrame
	columns      []string
	extraColumns []string
	records      []models.OrderRecord
	baseline     models.Baseline
	loadedAt     time.Time
}

type LoadOption func(*loadOptions)

type loadOptions struct {
	workers int
	logger  *slog.Logger
}

func WithWorkers(n int) LoadOption {
	return func(o *loadOptions) {
		if n > 0 {
			o.workers = n
		}
	}
}

func WithLogger(logger *slog.Logger) LoadOption {
	return func(o *loadOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// LoadDataset reads and prepares the sales CSV at path.
func LoadDataset(ctx context.Context, path string, opts ...LoadOption) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.LoadWrap(err, fmt.Sprintf("open %s", path))
	}
	defer file.Close()

	return ReadDataset(ctx, file, path, opts...)
}

// ReadDataset prepares a dataset from r. name is only used in logs and errors.
func ReadDataset(ctx context.Context, r io.Reader, name string, opts ...LoadOption) (*Dataset, error) {
	o := loadOptions{workers: defaultWorkers, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	start := time.Now()

	frame := dataframe.ReadCSV(skipBOM(r),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if frame.Err != nil {
		return nil, errors.LoadWrap(frame.Err, fmt.Sprintf("read %s", name))
	}

	columns := frame.Names()
	for _, required := range models.RequiredColumns {
		if !slices.Contains(columns, required) {
			return nil, errors.Load(fmt.Sprintf("%s: missing required column %q", name, required))
		}
	}

	if frame.Nrow() == 0 {
		return nil, errors.Load(fmt.Sprintf("%s: no records", name))
	}

	extraColumns, extraValues := numericExtras(frame, columns)

	records, err := prepareRecords(ctx, frame, extraColumns, extraValues, o.workers)
	if err != nil {
		return nil, err
	}

	index := make([]int, len(records))
	categories := make([]string, len(records))
	subCategories := make([]string, len(records))
	for i, rec := range records {
		index[i] = i
		categories[i] = rec.Category
		subCategories[i] = rec.SubCategory
	}
	frame = frame.
		Mutate(series.New(categories, series.String, models.ColumnCategory)).
		Mutate(series.New(subCategories, series.String, models.ColumnSubCategory)).
		Mutate(series.New(index, series.Int, rowIndexColumn))
	if frame.Err != nil {
		return nil, errors.LoadWrap(frame.Err, "index rows")
	}

	ds := &Dataset{
		name:         name,
		frame:        frame,
		columns:      columns,
		extraColumns: extraColumns,
		records:      records,
		baseline:     computeBaseline(records),
		loadedAt:     time.Now(),
	}

	o.logger.Info("dataset prepared",
		"source", name,
		"records", len(records),
		"extra_columns", extraColumns,
		"baseline_margin", ds.baseline.AverageMargin,
		"duration", time.Since(start),
	)

	return ds, nil
}

func prepareRecords(ctx context.Context, frame dataframe.DataFrame, extraColumns []string, extraValues [][]decimal.Decimal, workers int) ([]models.OrderRecord, error) {
	categories := frame.Col(models.ColumnCategory).Records()
	subCategories := frame.Col(models.ColumnSubCategory).Records()
	dates := frame.Col(models.ColumnOrderDate).Records()
	sales := frame.Col(models.ColumnSales).Records()
	profits := frame.Col(models.ColumnProfit).Records()

	records := make([]models.OrderRecord, len(categories))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for lo := 0; lo < len(records); lo += chunkSize {
		hi := min(lo+chunkSize, len(records))
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}

				// Row numbers count the header as line 1.
				row := i + 2

				orderDate, err := parseDate(row, dates[i])
				if err != nil {
					return err
				}
				s, err := parseAmount(row, models.ColumnSales, sales[i])
				if err != nil {
					return err
				}
				p, err := parseAmount(row, models.ColumnProfit, profits[i])
				if err != nil {
					return err
				}

				rec := models.OrderRecord{
					Row:          row,
					Category:     strings.TrimSpace(categories[i]),
					SubCategory:  strings.TrimSpace(subCategories[i]),
					OrderDate:    orderDate,
					Sales:        s,
					Profit:       p,
					ProfitMargin: models.NewMargin(p, s),
				}
				if len(extraColumns) > 0 {
					rec.Extra = make(map[string]decimal.Decimal, len(extraColumns))
					for j, col := range extraColumns {
						rec.Extra[col] = extraValues[j][i]
					}
				}
				records[i] = rec
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

// numericExtras finds the non-required columns whose values are all numbers
// or missing. Missing values count as zero.
func numericExtras(frame dataframe.DataFrame, columns []string) ([]string, [][]decimal.Decimal) {
	var names []string
	var values [][]decimal.Decimal

	for _, col := range columns {
		if slices.Contains(models.RequiredColumns, col) {
			continue
		}

		raw := frame.Col(col).Records()
		parsed := make([]decimal.Decimal, len(raw))
		numeric, seen := true, false
		for i, v := range raw {
			if isMissing(v) {
				continue
			}
			d, err := decimal.NewFromString(cleanAmount(v))
			if err != nil {
				numeric = false
				break
			}
			parsed[i] = d
			seen = true
		}
		if numeric && seen {
			names = append(names, col)
			values = append(values, parsed)
		}
	}

	return names, values
}

func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if b, err := br.Peek(3); err == nil && bytes.Equal(b, utf8BOM) {
		_, _ = br.Discard(3)
	}
	return br
}

func parseDate(row int, value string) (time.Time, error) {
	v := strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return wallClock(t), nil
		}
	}
	return time.Time{}, errors.DateParse(row, value)
}

// wallClock keeps the written date and time and drops any offset, so an order
// stamped late on the last day of a month stays in that month.
func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

func parseAmount(row int, column, value string) (decimal.Decimal, error) {
	if isMissing(value) {
		return decimal.Zero, errors.Load(fmt.Sprintf("row %d: %s is empty", row, column))
	}
	d, err := decimal.NewFromString(cleanAmount(value))
	if err != nil {
		return decimal.Zero, errors.LoadWrap(err, fmt.Sprintf("row %d: invalid %s %q", row, column, value))
	}
	return d, nil
}

func cleanAmount(v string) string {
	v = strings.TrimSpace(v)
	v = strings.ReplaceAll(v, ",", "")
	return strings.Replace(v, "$", "", 1)
}

func isMissing(v string) bool {
	return slices.Contains(missingValues, strings.TrimSpace(v))
}

func computeBaseline(records []models.OrderRecord) models.Baseline {
	var sum float64
	var n int
	for _, rec := range records {
		if rec.ProfitMargin.Valid {
			sum += rec.ProfitMargin.Value
			n++
		}
	}
	if n == 0 {
		return models.Baseline{}
	}
	return models.Baseline{AverageMargin: sum / float64(n), Rows: n, Defined: true}
}

func (d *Dataset) Name() string { return d.name }

func (d *Dataset) Len() int { return len(d.records) }

// Columns returns the CSV header in file order.
func (d *Dataset) Columns() []string { return slices.Clone(d.columns) }

func (d *Dataset) ExtraColumns() []string { return slices.Clone(d.extraColumns) }

// Records exposes the prepared rows. Callers must not modify them.
func (d *Dataset) Records() []models.OrderRecord { return d.records }

func (d *Dataset) Baseline() models.Baseline { return d.baseline }

func (d *Dataset) LoadedAt() time.Time { return d.loadedAt }

// RawPage returns up to limit rows starting at offset as they appear in the
// file, one string per original column.
func (d *Dataset) RawPage(offset, limit int) [][]string {
	page := d.Page(offset, limit)
	if len(page) == 0 {
		return [][]string{}
	}

	start := max(offset, 0)
	indexes := make([]int, len(page))
	for i := range indexes {
		indexes[i] = start + i
	}

	sub := d.frame.Subset(indexes).Select(d.columns)
	if sub.Err != nil {
		return [][]string{}
	}
	// Records includes the header row.
	return sub.Records()[1:]
}

// Page returns up to limit records starting at offset.
func (d *Dataset) Page(offset, limit int) []models.OrderRecord {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(d.records) || limit <= 0 {
		return []models.OrderRecord{}
	}
	end := min(offset+limit, len(d.records))
	return d.records[offset:end]
}
