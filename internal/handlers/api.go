package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"sales-explorer/internal/errors"
	"sales-explorer/internal/models"
	"sales-explorer/internal/observability"
	"sales-explorer/internal/services"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
	staticCache     = "public, max-age=300"
)

type APIHandlers struct {
	explorer *services.Explorer
	logger   *slog.Logger
}

func NewAPIHandlers(explorer *services.Explorer, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		explorer: explorer,
		logger:   logger,
	}
}

type recordsPage struct {
	Total   int                  `json:"total"`
	Offset  int                  `json:"offset"`
	Limit   int                  `json:"limit"`
	Records []models.OrderRecord `json:"records"`
}

func (h *APIHandlers) HandleRecords(w http.ResponseWriter, r *http.Request) {
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		h.fail(w, r, errors.BadRequest("offset must be a non-negative integer"))
		return
	}

	limit, err := queryInt(r, "limit", defaultPageSize)
	if err != nil || limit <= 0 || limit > maxPageSize {
		h.fail(w, r, errors.BadRequest("limit must be between 1 and 1000"))
		return
	}

	ds := h.explorer.Dataset()
	page := recordsPage{
		Total:   ds.Len(),
		Offset:  offset,
		Limit:   limit,
		Records: ds.Page(offset, limit),
	}

	errors.WriteSuccessWithHeaders(w, page, map[string]string{"Cache-Control": staticCache})
}

func (h *APIHandlers) HandleCategoryTotals(w http.ResponseWriter, r *http.Request) {
	data := h.explorer.Overview().CategoryTotals

	errors.WriteSuccessWithHeaders(w, data, map[string]string{"Cache-Control": staticCache})
}

func (h *APIHandlers) HandleMonthlySales(w http.ResponseWriter, r *http.Request) {
	data := h.explorer.Overview().MonthlyTotals

	errors.WriteSuccessWithHeaders(w, data, map[string]string{"Cache-Control": staticCache})
}

func (h *APIHandlers) HandleCategories(w http.ResponseWriter, r *http.Request) {
	data := h.explorer.Categories()

	errors.WriteSuccessWithHeaders(w, data, map[string]string{"Cache-Control": staticCache})
}

func (h *APIHandlers) HandleSubCategories(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		h.fail(w, r, errors.Validation("category is required"))
		return
	}

	errors.WriteSuccess(w, h.explorer.SubCategories(category))
}

// HandleSelection is the JSON form of one explorer interaction:
// ?category=Furniture&subcategory=Chairs&subcategory=Tables
func (h *APIHandlers) HandleSelection(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sel := models.Selection{
		Category:      q.Get("category"),
		SubCategories: q["subcategory"],
	}

	result, err := h.explorer.Apply(r.Context(), sel)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	errors.WriteSuccess(w, result)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {

	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {

	stats := h.explorer.Stats()

	errors.WriteSuccess(w, stats)
}

func (h *APIHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
