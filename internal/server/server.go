package server

import (
	"log/slog"
	"net/http"

	"sales-explorer/internal/handlers"
	"sales-explorer/internal/services"
)

type Server struct {
	explorer    *services.Explorer
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

func NewServer(explorer *services.Explorer, logger *slog.Logger, templateHandlers *TemplateHandlers) *Server {
	s := &Server{
		explorer:    explorer,
		mux:         http.NewServeMux(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(explorer, logger),
		sseHandlers: handlers.NewSSEHandlers(explorer, logger),
	}
	s.setupRoutes(templateHandlers)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers) {
	// Dashboard routes
	s.mux.HandleFunc("GET /{$}", templateHandlers.Dashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)

	// REST API endpoints
	s.mux.HandleFunc("GET /api/records", s.apiHandlers.HandleRecords)
	s.mux.HandleFunc("GET /api/category-totals", s.apiHandlers.HandleCategoryTotals)
	s.mux.HandleFunc("GET /api/monthly-sales", s.apiHandlers.HandleMonthlySales)
	s.mux.HandleFunc("GET /api/categories", s.apiHandlers.HandleCategories)
	s.mux.HandleFunc("GET /api/subcategories", s.apiHandlers.HandleSubCategories)
	s.mux.HandleFunc("GET /api/selection", s.apiHandlers.HandleSelection)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/overview", s.sseHandlers.HandleOverview)
	s.mux.HandleFunc("GET /sse/category", s.sseHandlers.HandleCategory)
	s.mux.HandleFunc("GET /sse/selection", s.sseHandlers.HandleSelection)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
