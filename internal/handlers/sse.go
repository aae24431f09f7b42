package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	"sales-explorer/internal/errors"
	"sales-explorer/internal/models"
	"sales-explorer/internal/observability"
	"sales-explorer/internal/services"
	"sales-explorer/internal/ui/templates"
)

// selectionSignals mirrors the selection part of the page's Datastar signals.
type selectionSignals struct {
	Category      string   `json:"category"`
	SubCategories []string `json:"subcategories"`
}

type SSEHandlers struct {
	explorer *services.Explorer
	logger   *slog.Logger
}

func NewSSEHandlers(explorer *services.Explorer, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		explorer: explorer,
		logger:   logger,
	}
}

// HandleOverview pushes the data for the static charts.
func (h *SSEHandlers) HandleOverview(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	ov := h.explorer.Overview()
	signals, err := json.Marshal(map[string]any{
		"orderChart":    services.OrderSeries(h.explorer.Dataset().Records()),
		"categoryChart": services.CategorySeries(ov.CategoryTotals),
		"monthlyChart":  services.MonthlySeries(ov.MonthlyTotals),
	})
	if err != nil {
		h.logger.Error("marshal overview signals", "error", err)
		return
	}

	if err := sse.PatchSignals(signals); err != nil {
		h.logger.Warn("patch overview signals", "error", err)
	}

	flush(w)
}

// HandleCategory runs when the category changes. The sub-category choices are
// replaced by the new category's options and the selection is cleared.
func (h *SSEHandlers) HandleCategory(w http.ResponseWriter, r *http.Request) {
	var signals selectionSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		h.fail(w, r, errors.BadRequestWrap(err, "invalid signals"))
		return
	}

	result, err := h.explorer.Apply(r.Context(), models.Selection{Category: signals.Category})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	sse := datastar.NewSSE(w, r)

	if err := h.patchSignals(sse, map[string]any{
		"category":        result.Selection.Category,
		"subcategories":   []string{},
		"filteredMonthly": models.ChartSeries{},
	}); err != nil {
		return
	}

	if err := h.patchComponent(r, sse, templates.SubCategoryOptions(result.SubCategories, nil)); err != nil {
		return
	}
	_ = h.patchComponent(r, sse, templates.SelectionResults(result))

	flush(w)
}

// HandleSelection runs when the sub-category choices change.
func (h *SSEHandlers) HandleSelection(w http.ResponseWriter, r *http.Request) {
	var signals selectionSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		h.fail(w, r, errors.BadRequestWrap(err, "invalid signals"))
		return
	}

	result, err := h.explorer.Apply(r.Context(), models.Selection{
		Category:      signals.Category,
		SubCategories: signals.SubCategories,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	sse := datastar.NewSSE(w, r)

	if err := h.patchComponent(r, sse, templates.SelectionResults(result)); err != nil {
		return
	}

	_ = h.patchSignals(sse, map[string]any{
		"category":        result.Selection.Category,
		"subcategories":   result.Selection.SubCategories,
		"filteredMonthly": services.MonthlySeries(result.Monthly),
	})

	flush(w)
}

func (h *SSEHandlers) patchComponent(r *http.Request, sse *datastar.ServerSentEventGenerator, c templ.Component) error {
	html, err := templates.RenderString(r.Context(), c)
	if err != nil {
		h.logger.Error("render fragment", "error", err)
		return err
	}
	if err := sse.PatchElements(html); err != nil {
		h.logger.Warn("patch elements", "error", err)
		return err
	}
	return nil
}

func (h *SSEHandlers) patchSignals(sse *datastar.ServerSentEventGenerator, signals map[string]any) error {
	data, err := json.Marshal(signals)
	if err != nil {
		h.logger.Error("marshal signals", "error", err)
		return err
	}
	if err := sse.PatchSignals(data); err != nil {
		h.logger.Warn("patch signals", "error", err)
		return err
	}
	return nil
}

func (h *SSEHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
}

func flush(w http.ResponseWriter) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
