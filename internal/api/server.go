package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/robertguss/factorydesk/internal/config"
	"github.com/robertguss/factorydesk/internal/domain"
	"github.com/robertguss/factorydesk/internal/presenter"
	"github.com/robertguss/factorydesk/internal/progress"
	"github.com/robertguss/factorydesk/internal/report"
	"github.com/robertguss/factorydesk/internal/storage"
)

// Progress actions accepted by PUT /api/orders/{id}/progress
const (
	actionAdvance = "advance"
	actionRevert  = "revert"
)

// Server is the REST API server
type Server struct {
	config   *config.Config
	storage  storage.Storage
	progress *progress.Service
	wsHub    *WebSocketHub
	logger   *slog.Logger
	now      func() time.Time

	mu      sync.Mutex
	server  *http.Server
	running bool
}

// NewServer creates a new API server. The hub is shared with the progress
// service so order changes reach connected clients.
func NewServer(cfg *config.Config, store storage.Storage, svc *progress.Service, hub *WebSocketHub, logger *slog.Logger) *Server {
	if hub == nil {
		hub = NewWebSocketHub()
	}
	if logger == nil {
		logger = slog.Default()
	}
	hub.SetSecurityConfig(cfg.APIKey, cfg.CORSAllowedOrigins)
	hub.SetLogger(logger)

	return &Server{
		config:   cfg,
		storage:  store,
		progress: svc,
		wsHub:    hub,
		logger:   logger,
		now:      time.Now,
	}
}

// GetWebSocketHub returns the WebSocket hub
func (s *Server) GetWebSocketHub() *WebSocketHub {
	return s.wsHub
}

// Handler returns the configured router
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

// Start starts the API server on the given port and blocks until it stops
func (s *Server) Start(port int) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.running = true
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.setupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	srv := s.server
	s.mu.Unlock()

	go s.wsHub.Run()

	s.logger.Info("api server listening", "port", port)
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop stops the API server
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.running = false
	s.wsHub.Stop()

	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// IsRunning returns whether the server is running
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(corsMiddleware(s.config.CORSAllowedOrigins))

	// Health check (public, no auth required)
	r.Get("/health", s.healthHandler)

	r.Route("/api", func(r chi.Router) {
		// The hub checks the key itself, since browsers can only send it
		// as ?api_key= on a WebSocket handshake
		r.Get("/ws", s.websocketHandler)

		r.Group(func(r chi.Router) {
			r.Use(apiKeyAuthMiddleware(s.config.APIKey))

			r.Get("/stages", s.listStagesHandler)
			r.Get("/stats", s.getStatsHandler)

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", s.listOrdersHandler)
				r.Post("/", s.createOrderHandler)
				r.Get("/export.xlsx", s.exportOrdersHandler)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.getOrderHandler)
					r.Delete("/", s.deleteOrderHandler)
					r.Get("/timeline", s.getTimelineHandler)
					r.Put("/progress", s.updateProgressHandler)
					r.Post("/timeline-note", s.setTimelineNoteHandler)
				})
			})
		})
	})

	return r
}

// corsMiddleware creates CORS middleware with the given allowed origins.
// Origins are matched exactly or against wildcard patterns; "*" alone is
// honored only when explicitly configured.
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	exactOrigins := make(map[string]bool)
	var patterns []string

	for _, origin := range allowedOrigins {
		if strings.Contains(origin, "*") {
			patterns = append(patterns, origin)
		} else {
			exactOrigins[origin] = true
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			allowed := false
			if origin != "" {
				if exactOrigins[origin] {
					allowed = true
				} else {
					for _, pattern := range patterns {
						if matchOriginPattern(origin, pattern) {
							allowed = true
							break
						}
					}
				}
			}

			if allowed {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Add("Vary", "Origin")
			}

			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-API-Key")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// apiKeyAuthMiddleware rejects requests without the configured key. An empty
// key disables the check.
func apiKeyAuthMiddleware(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			providedKey := r.Header.Get("X-API-Key")
			if providedKey == "" {
				auth := r.Header.Get("Authorization")
				if strings.HasPrefix(auth, "Bearer ") {
					providedKey = strings.TrimPrefix(auth, "Bearer ")
				}
			}

			if providedKey != apiKey {
				http.Error(w, `{"error": "unauthorized"}`, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// matchOriginPattern checks if an origin matches a pattern with wildcards
// e.g., "http://localhost:3000" matches "http://localhost:*"
func matchOriginPattern(origin, pattern string) bool {
	if strings.HasSuffix(pattern, "*") {
		prefix := strings.TrimSuffix(pattern, "*")
		return strings.HasPrefix(origin, prefix)
	}
	// Wildcard subdomain (e.g., "*.example.com")
	if strings.HasPrefix(pattern, "*.") {
		suffix := strings.TrimPrefix(pattern, "*")
		parts := strings.SplitN(origin, "://", 2)
		if len(parts) == 2 {
			host := strings.Split(parts[1], "/")[0]
			host = strings.Split(host, ":")[0]
			return strings.HasSuffix(host, suffix) || host == strings.TrimPrefix(suffix, ".")
		}
	}
	return false
}

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps domain errors to status codes
func (s *Server) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, domain.ErrInvalidStage):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) presenterFor(r *http.Request) *presenter.Presenter {
	lang := r.URL.Query().Get("lang")
	if lang == "" {
		lang = s.config.Language
	}
	return presenter.New(lang, presenter.WithNow(s.now))
}

// Handlers

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   s.now().Format(time.RFC3339),
	})
}

func (s *Server) listStagesHandler(w http.ResponseWriter, r *http.Request) {
	lang := s.presenterFor(r).Language()

	stages := make([]map[string]interface{}, 0, domain.StageCount)
	for _, stage := range domain.Stages() {
		stages = append(stages, map[string]interface{}{
			"sequence": stage.Sequence,
			"id":       stage.ID,
			"labelKey": stage.LabelKey,
			"label":    presenter.StageLabel(lang, stage),
			"category": stage.Category,
			"icon":     presenter.Icon(stage.Category),
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"stages": stages,
		"count":  len(stages),
	})
}

func parseOrderFilter(r *http.Request) (*storage.OrderFilter, error) {
	q := r.URL.Query()
	filter := &storage.OrderFilter{
		Status:   domain.OrderStatus(q.Get("status")),
		Customer: q.Get("customer"),
		Limit:    50,
	}

	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, fmt.Errorf("invalid status %q", filter.Status)
	}
	if l := q.Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			filter.Limit = n
		}
	}
	if o := q.Get("offset"); o != "" {
		if n, err := strconv.Atoi(o); err == nil && n >= 0 {
			filter.Offset = n
		}
	}
	return filter, nil
}

func (s *Server) listOrdersHandler(w http.ResponseWriter, r *http.Request) {
	filter, err := parseOrderFilter(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	orders, err := s.storage.ListOrders(r.Context(), filter)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	if orders == nil {
		orders = []*domain.Order{}
	}

	total, err := s.storage.CountOrders(r.Context(), filter)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"orders": orders,
		"count":  len(orders),
		"total":  total,
	})
}

type createOrderRequest struct {
	ID           string `json:"id"`
	CustomerName string `json:"customerName"`
	Product      string `json:"product"`
	Quantity     int    `json:"quantity"`
}

func (s *Server) createOrderHandler(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.CustomerName) == "" {
		respondError(w, http.StatusBadRequest, "customerName is required")
		return
	}
	if req.Quantity < 0 {
		respondError(w, http.StatusBadRequest, "quantity must not be negative")
		return
	}

	order := domain.NewOrder(req.ID, req.CustomerName, req.Product, req.Quantity, s.now().UTC())
	if err := s.storage.CreateOrder(r.Context(), order); err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	s.wsHub.Publish(progress.EventOrdersRefreshed, map[string]string{"orderId": order.ID})
	respondJSON(w, http.StatusCreated, order)
}

func (s *Server) getOrderHandler(w http.ResponseWriter, r *http.Request) {
	order, err := s.storage.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (s *Server) deleteOrderHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.storage.DeleteOrder(r.Context(), id); err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	s.wsHub.Publish(progress.EventOrdersRefreshed, map[string]string{"orderId": id})
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) respondTimeline(w http.ResponseWriter, r *http.Request, order *domain.Order) {
	view := s.presenterFor(r).Build(order, domain.DeriveTimeline(order))
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"order":    order,
		"timeline": view,
	})
}

func (s *Server) getTimelineHandler(w http.ResponseWriter, r *http.Request) {
	order, _, err := s.progress.Timeline(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondTimeline(w, r, order)
}

func (s *Server) updateProgressHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id := chi.URLParam(r, "id")
	var (
		order *domain.Order
		err   error
	)
	switch req.Action {
	case actionAdvance:
		order, err = s.progress.AdvanceCurrentStage(r.Context(), id)
	case actionRevert:
		order, err = s.progress.RevertLastCompletedStage(r.Context(), id)
	default:
		respondError(w, http.StatusBadRequest, "action must be advance or revert")
		return
	}
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	s.respondTimeline(w, r, order)
}

func (s *Server) setTimelineNoteHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StageID string `json:"stageId"`
		Note    string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := s.progress.SetStageNote(r.Context(), chi.URLParam(r, "id"), req.StageID, req.Note)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	s.respondTimeline(w, r, order)
}

func (s *Server) exportOrdersHandler(w http.ResponseWriter, r *http.Request) {
	filter, err := parseOrderFilter(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	filter.Limit = 10000

	orders, err := s.storage.ListOrders(r.Context(), filter)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	// Buffer so a failed write can still produce a JSON error
	var buf bytes.Buffer
	if err := report.Write(&buf, s.presenterFor(r), orders); err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", report.Filename(s.now())))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) getStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := s.storage.GetStats(r.Context())
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"total_orders": stats.TotalOrders,
		"by_status":    stats.ByStatus,
	})
}

func (s *Server) websocketHandler(w http.ResponseWriter, r *http.Request) {
	s.wsHub.ServeWs(w, r)
}
