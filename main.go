package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/username/vestfolio/src/config"
	"github.com/username/vestfolio/src/database"
	"github.com/username/vestfolio/src/handlers"
	"github.com/username/vestfolio/src/logger"
	"github.com/username/vestfolio/src/normalizer"
	"github.com/username/vestfolio/src/processors"
	"github.com/username/vestfolio/src/rates"
	"github.com/username/vestfolio/src/services"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			"http://localhost:3000": true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Requested-With")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			logger.L.Debug("Handling OPTIONS preflight request", "path", r.URL.Path, "origin", origin)
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Vestfolio backend server starting...")

	logger.L.Info("Initializing data loaders...")
	rateSource, err := rates.NewHistoricalSource(config.Cfg.RatesDataPath, config.Cfg.ReportingCurrency)
	if err != nil {
		logger.L.Error("Failed to load historical rates", "error", err)
		os.Exit(1)
	}
	cachedRates := rates.NewCachedSource(rateSource)

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	logger.L.Info("Initializing result cache...")
	resultCache := cache.New(config.Cfg.ResultCacheExpiry, config.Cfg.ResultCacheCleanup)

	logger.L.Info("Initializing services and handlers...")
	norm := normalizer.New(cachedRates, config.Cfg.ReportingCurrency)
	holdingsProcessor := processors.NewHoldingsProcessor()
	disposalProcessor := processors.NewDisposalProcessor()
	dividendProcessor := processors.NewDividendProcessor()
	wireProcessor := processors.NewWireProcessor(config.Cfg.WireAmountTolerance, config.Cfg.WireSettlementDays)
	reportProcessor := processors.NewReportProcessor()

	reportService := services.NewReportService(
		norm, holdingsProcessor, disposalProcessor,
		dividendProcessor, wireProcessor, reportProcessor,
		resultCache,
	)

	reportHandler := handlers.NewReportHandler(reportService, norm)
	portfolioHandler := handlers.NewPortfolioHandler(reportService)
	txHandler := handlers.NewTransactionHandler(reportService)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	apiRouter.HandleFunc("POST /api/report", reportHandler.HandleGenerateReport)
	apiRouter.HandleFunc("GET /api/report/{id}", reportHandler.HandleGetReport)
	apiRouter.HandleFunc("GET /api/report/{id}/bundle", reportHandler.HandleDownloadBundle)
	apiRouter.HandleFunc("GET /api/holdings", portfolioHandler.HandleGetHoldings)
	apiRouter.HandleFunc("GET /api/transactions", txHandler.HandleGetTransactions)
	apiRouter.HandleFunc("DELETE /api/transactions/all", txHandler.HandleDeleteAllRuns)

	rootMux.Handle("/api/", apiRouter)

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"message": "Vestfolio backend is running"})
		} else {
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				logger.L.Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
				http.NotFound(w, r)
			}
		}
	})

	logger.L.Info("Applying global middleware...")
	finalHandler := enableCORS(rateLimitMiddleware(handlers.Recovery(handlers.RequestLogging(rootMux))))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}
