package web

import (
	"embed"
	"encoding/json"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/openamm/afe/internal/logger"
	"github.com/openamm/afe/internal/state"
	"github.com/openamm/afe/internal/types"
)

var webLogger = logger.GetForComponent("web_server")

//go:embed static/*
var staticFiles embed.FS

//go:embed static/index.html
var dashboardHTML []byte

// WebServer handles HTTP requests for fee engine data visualization
type WebServer struct {
	router     *mux.Router
	port       string
	poolID     types.PoolID
	configName string
}

// NewWebServer creates a new web server instance
func NewWebServer(port string, poolID types.PoolID, configName string) *WebServer {
	if port == "" {
		port = "8080"
	}

	server := &WebServer{
		router:     mux.NewRouter(),
		port:       port,
		poolID:     poolID,
		configName: configName,
	}

	server.setupRoutes()
	return server
}

// setupRoutes configures all HTTP routes
func (ws *WebServer) setupRoutes() {
	// Static files
	staticHandler := http.FileServer(http.FS(staticFiles))
	ws.router.PathPrefix("/static/").Handler(http.StripPrefix("/", staticHandler))

	// Dashboard routes
	ws.router.HandleFunc("/", ws.handleDashboard).Methods("GET")
	ws.router.HandleFunc("/dashboard", ws.handleDashboard).Methods("GET")

	// Health endpoint (direct route)
	ws.router.HandleFunc("/health", ws.handleHealth).Methods("GET")

	// Prometheus exposition
	ws.router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// API endpoints
	api := ws.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", ws.handleHealth).Methods("GET")
	api.HandleFunc("/trades", ws.handleGetTrades).Methods("GET")
	api.HandleFunc("/fees", ws.handleGetFeeSummary).Methods("GET")
	api.HandleFunc("/fee-parameters", ws.handleGetFeeParameters).Methods("GET")
	api.HandleFunc("/performance", ws.handleGetPerformanceMetrics).Methods("GET")

	// Add CORS middleware
	ws.router.Use(ws.corsMiddleware)
	ws.router.Use(ws.loggingMiddleware)
}

// Start starts the web server
func (ws *WebServer) Start() error {
	webLogger.Info().Str("port", ws.port).Msg("Starting web server")

	server := &http.Server{
		Addr:         ":" + ws.port,
		Handler:      ws.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server.ListenAndServe()
}

// handleHealth returns comprehensive server health status
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	var hasErrors bool

	// Latest quote information
	summary, summaryErr := state.GetFeeSummary(ws.poolID)
	var quoteInfo map[string]interface{}
	var lastTradeTime *time.Time
	if summaryErr == nil && summary != nil {
		quoteInfo = map[string]interface{}{
			"bid_fee_bps":     summary.BidFeeBps,
			"ask_fee_bps":     summary.AskFeeBps,
			"total_trades":    summary.TotalTrades,
			"last_trade_time": summary.LastTradeTime,
		}
		lastTradeTime = &summary.LastTradeTime
	} else {
		quoteInfo = map[string]interface{}{
			"bid_fee_bps":     nil,
			"ask_fee_bps":     nil,
			"total_trades":    0,
			"last_trade_time": nil,
		}
		if summaryErr != nil {
			hasErrors = true
		}
	}

	// Database connection status
	dbHealthy := true
	if err := state.TestDBConnection(); err != nil {
		dbHealthy = false
		hasErrors = true
	}

	overallStatus := "OK"
	if hasErrors {
		overallStatus = "DEGRADED"
	}

	var idleSeconds int64
	if lastTradeTime != nil {
		idleSeconds = int64(time.Since(*lastTradeTime).Seconds())
	}

	response := map[string]interface{}{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"system": map[string]interface{}{
			"version":            runtime.Version(),
			"goroutines_count":   runtime.NumGoroutine(),
			"total_alloc_bytes":  memStats.TotalAlloc,
			"heap_objects_count": memStats.HeapObjects,
			"alloc_bytes":        memStats.Alloc,
			"sys_bytes":          memStats.Sys,
			"gc_cycles":          memStats.NumGC,
			"idle_seconds":       idleSeconds,
		},
		"component": map[string]interface{}{
			"name":    "afe-adaptive-fee-engine",
			"version": "1.0.0",
		},
		"engine_status": map[string]interface{}{
			"database_healthy":  dbHealthy,
			"has_recent_errors": hasErrors,
			"pool_id":           ws.poolID,
			"quote_info":        quoteInfo,
		},
	}

	statusCode := http.StatusOK
	if hasErrors {
		statusCode = http.StatusServiceUnavailable
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// handleDashboard serves the main dashboard HTML
func (ws *WebServer) handleDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.WriteHeader(http.StatusOK)
	w.Write(dashboardHTML)
}

// handleGetTrades returns paginated trade snapshot data
func (ws *WebServer) handleGetTrades(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 && parsedLimit <= 500 {
			limit = parsedLimit
		}
	}

	trades, err := state.GetRecentTrades(limit)
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to get recent trades")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve trades")
		return
	}

	response := map[string]interface{}{
		"trades": trades,
		"count":  len(trades),
		"limit":  limit,
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetFeeSummary returns the current fee quote and risk scores
func (ws *WebServer) handleGetFeeSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := state.GetFeeSummary(ws.poolID)
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to get fee summary")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve fee summary")
		return
	}
	if summary == nil {
		ws.writeErrorResponse(w, http.StatusNotFound, "No trades recorded yet")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, summary)
}

// handleGetFeeParameters returns the active fee parameter set
func (ws *WebServer) handleGetFeeParameters(w http.ResponseWriter, r *http.Request) {
	params, paramsID, err := state.LoadActiveFeeParameters(ws.configName)
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to get fee parameters")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve fee parameters")
		return
	}
	if params == nil {
		ws.writeErrorResponse(w, http.StatusNotFound, "No active parameter set")
		return
	}

	response := map[string]interface{}{
		"config_name": ws.configName,
		"params_id":   paramsID,
		"parameters":  params,
		"timestamp":   time.Now().UTC(),
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetPerformanceMetrics returns performance metrics
func (ws *WebServer) handleGetPerformanceMetrics(w http.ResponseWriter, r *http.Request) {
	windowSize := 500
	if windowStr := r.URL.Query().Get("window"); windowStr != "" {
		if parsedWindow, err := strconv.Atoi(windowStr); err == nil && parsedWindow > 0 && parsedWindow <= 5000 {
			windowSize = parsedWindow
		}
	}

	metrics, err := state.GetPerformanceMetrics(ws.poolID, windowSize)
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to get performance metrics")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve performance metrics")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, metrics)
}

// writeJSONResponse writes a JSON response
func (ws *WebServer) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		webLogger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeErrorResponse writes an error response
func (ws *WebServer) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	response := map[string]interface{}{
		"error":     true,
		"message":   message,
		"timestamp": time.Now().UTC(),
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// corsMiddleware adds CORS headers
func (ws *WebServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (ws *WebServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create a response writer wrapper to capture status code
		wrapper := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		duration := time.Since(start)

		webLogger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Int("status", wrapper.statusCode).
			Dur("duration", duration).
			Msg("HTTP request")
	})
}

// responseWriterWrapper wraps http.ResponseWriter to capture status code
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
