package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"sales-explorer/internal/config"
	"sales-explorer/internal/middleware"
	"sales-explorer/internal/models"
	"sales-explorer/internal/observability"
	"sales-explorer/internal/server"
	"sales-explorer/internal/services"
	"sales-explorer/internal/ui/templates"
)

const (
	renderTimeout  = 10 * time.Second
	csvLoadTimeout = 30 * time.Second
)

// dashboardHandler renders the page with the first category selected and no
// sub-categories chosen.
func dashboardHandler(explorer *services.Explorer, ui config.UIConfig, logger *slog.Logger) http.HandlerFunc {
	ds := explorer.Dataset()
	rows := ds.RawPage(0, ui.MaxTableRows)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
		defer cancel()

		initial, err := explorer.Apply(ctx, models.Selection{})
		if err != nil {
			logger.Error("initial selection", "error", err)
			http.Error(w, "render error", http.StatusInternalServerError)
			return
		}

		page := templates.Page{
			Title:        ui.Title,
			Columns:      ds.Columns(),
			Rows:         rows,
			TotalRows:    ds.Len(),
			ExtraColumns: ds.ExtraColumns(),
			Overview:     explorer.Overview(),
			Selection:    initial,
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		if err := templates.Dashboard(page).Render(ctx, w); err != nil {
			logger.Error("render dashboard", "error", err)
			http.Error(w, "render error", http.StatusInternalServerError)
		}
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"config", cfg,
	)

	ctx, cancel := context.WithTimeout(context.Background(), csvLoadTimeout)
	defer cancel()

	start := time.Now()
	dataset, err := services.LoadDataset(ctx, cfg.Database.CSVFile,
		services.WithWorkers(cfg.Database.LoadWorkers),
		services.WithLogger(logger),
	)
	if err != nil {
		logger.Error("failed to load CSV data", "error", err)
		os.Exit(1)
	}
	logger.Info("CSV data loaded successfully", "duration", time.Since(start))

	explorer := services.NewExplorer(dataset, logger)

	templateHandlers := &server.TemplateHandlers{
		Dashboard: dashboardHandler(explorer, cfg.UI, logger),
	}

	srv := server.NewServer(explorer, logger, templateHandlers)

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	handler := middlewareChain(srv)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg.Server)

	gracefulServer.RegisterShutdownHook("explorer", func(ctx context.Context) error {
		logger.InfoContext(ctx, "explorer stopped",
			"dataset", dataset.Name(),
			"records", dataset.Len(),
			"uptime", time.Since(dataset.LoadedAt()),
		)
		return nil
	})
	gracefulServer.RegisterShutdownHook("rate-limiter", func(ctx context.Context) error {
		logger.DebugContext(ctx, "rate limiter released", "tracked_clients", rateLimiter.Len())
		return nil
	})

	logger.Info("starting graceful server")
	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
