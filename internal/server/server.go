package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/cayfen/webscan/internal/app"
	"github.com/cayfen/webscan/internal/logging"
	"github.com/cayfen/webscan/internal/model"
	"github.com/cayfen/webscan/internal/store"

	_ "github.com/cayfen/webscan/docs"
)

// Server is the HTTP + WebSocket API surface.
type Server struct {
	cfg          Config
	orchestrator *app.Orchestrator
	router       chi.Router
	upgrader     websocket.Upgrader
	logger       logging.Logger
}

// NewServer wires the routes around an orchestrator.
func NewServer(cfg Config, orch *app.Orchestrator) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewStdoutLogger("server")
	}

	s := &Server{
		cfg:          cfg,
		orchestrator: orch,
		router:       chi.NewRouter(),
		logger:       logger,
		upgrader: websocket.Upgrader{
			// Matches the wildcard CORS policy on the REST routes: the
			// API is origin-agnostic, so websocket upgrades are too.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.routes()
	return s
}

// Orchestrator returns the underlying orchestrator for advanced use (tests, etc.).
func (s *Server) Orchestrator() *app.Orchestrator {
	return s.orchestrator
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	r.Options("/api/website-scan", s.optionsHandler("GET, POST, DELETE"))

	r.Post("/api/website-scan", s.handleStartScan)
	r.Get("/api/website-scan", s.handleGetScan)
	r.Delete("/api/website-scan", s.handleDeleteScan)

	r.Get("/ws/website-scan", s.handleScanWS)

	r.Get("/health", s.handleHealth)
	r.Get("/swagger/*", httpSwagger.Handler())
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("http_request",
		logging.Field{Key: "method", Value: r.Method},
		logging.Field{Key: "path", Value: r.URL.Path})
	s.router.ServeHTTP(w, r)
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // allow streaming
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Success: false, Error: msg})
}

// estimatedTime is the human-facing duration hint returned on submission.
func estimatedTime(t model.ScanType) string {
	if t == model.ScanTypeFull {
		return "2-5 minutes"
	}
	return "30-60 seconds"
}

// --- HTTP handlers ---

// handleStartScan godoc
// @Summary Submit a website scan
// @Description Validates the target URL and starts a quick or full scan in the background.
// @Accept json
// @Produce json
// @Param request body StartScanRequest true "scan submission"
// @Success 202 {object} StartScanResponse
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /api/website-scan [post]
func (s *Server) handleStartScan(w http.ResponseWriter, r *http.Request) {
	var body StartScanRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	scan, err := s.orchestrator.StartScan(r.Context(), body.TargetURL, model.ScanType(body.ScanType))
	if err != nil {
		if errors.Is(err, app.ErrTooManyScans) {
			s.logger.Warn("scan rejected: at capacity")
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		if errors.Is(err, app.ErrStoreUnavailable) {
			s.logger.Error("scan rejected: store down", logging.Field{Key: "error", Value: err.Error()})
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		s.logger.Warn("scan rejected", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.logger.Info("scan submitted",
		logging.Field{Key: "scan_id", Value: scan.ID},
		logging.Field{Key: "target", Value: scan.TargetURL})
	writeJSON(w, http.StatusAccepted, StartScanResponse{
		Success:       true,
		ScanID:        scan.ID,
		TargetURL:     scan.TargetURL,
		EstimatedTime: estimatedTime(scan.ScanType),
	})
}

// handleGetScan godoc
// @Summary Get a scan or list recent scans
// @Description With scanId returns the full scan record; without it returns recent scan summaries, newest first.
// @Produce json
// @Param scanId query string false "scan id"
// @Success 200 {object} GetScanResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/website-scan [get]
func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) {
	scanID := r.URL.Query().Get("scanId")
	if scanID == "" {
		s.handleListScans(w, r)
		return
	}

	scan, err := s.orchestrator.GetScan(r.Context(), scanID)
	if err != nil {
		if errors.Is(err, store.ErrScanNotFound) {
			writeError(w, http.StatusNotFound, "scan not found")
			return
		}
		s.logger.Warn("getting scan", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, GetScanResponse{Success: true, Scan: scan})
}

func (s *Server) handleListScans(w http.ResponseWriter, r *http.Request) {
	scans, err := s.orchestrator.ListScans(r.Context())
	if err != nil {
		s.logger.Warn("listing scans", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if scans == nil {
		scans = []model.ScanSummary{}
	}
	s.logger.Info("listed scans", logging.Field{Key: "count", Value: len(scans)})
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "scans": scans})
}

// handleDeleteScan godoc
// @Summary Delete a scan
// @Description Cancels the scan if it is still running and removes its record.
// @Produce json
// @Param scanId query string true "scan id"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/website-scan [delete]
func (s *Server) handleDeleteScan(w http.ResponseWriter, r *http.Request) {
	scanID := r.URL.Query().Get("scanId")
	if scanID == "" {
		writeError(w, http.StatusBadRequest, "missing scanId query parameter")
		return
	}

	if err := s.orchestrator.DeleteScan(r.Context(), scanID); err != nil {
		if errors.Is(err, store.ErrScanNotFound) {
			writeError(w, http.StatusNotFound, "scan not found")
			return
		}
		s.logger.Warn("deleting scan", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("deleted scan", logging.Field{Key: "scan_id", Value: scanID})
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.orchestrator.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// WebSockets

// handleScanWS streams progress events for a running scan and finishes with
// the terminal status. For already-finished scans the stored status is sent
// once and the connection closed.
func (s *Server) handleScanWS(w http.ResponseWriter, r *http.Request) {
	scanID := r.URL.Query().Get("scanId")
	if scanID == "" {
		writeError(w, http.StatusBadRequest, "missing scanId query parameter")
		return
	}

	events := s.orchestrator.Events(scanID)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	if events == nil {
		scan, err := s.orchestrator.GetScan(r.Context(), scanID)
		if err != nil {
			_ = conn.WriteJSON(map[string]string{"error": "scan not found"})
			return
		}
		_ = conn.WriteJSON(app.ScanEvent{
			ScanID: scan.ID,
			Type:   app.ScanEventResult,
			Status: scan.Status,
			Error:  scan.ErrorMessage,
		})
		return
	}

	for ev := range events {
		if err := conn.WriteJSON(ev); err != nil {
			// Client disconnected; the scan keeps running.
			return
		}
	}
}
