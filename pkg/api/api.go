// Package api exposes the creature dex over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/darkcaves/dragonites/pkg/convert"
	"github.com/darkcaves/dragonites/pkg/export"
	"github.com/darkcaves/dragonites/pkg/logging"
	"github.com/darkcaves/dragonites/pkg/models"
	"github.com/darkcaves/dragonites/pkg/provider"
	"github.com/darkcaves/dragonites/pkg/resolver"
)

const (
	defaultLevel    = 50
	shutdownTimeout = 5 * time.Second
)

var errBadRequest = errors.New("bad request")

// Dex is the creature lookup surface served by the API.
type Dex interface {
	Resolve(ctx context.Context, id int, ttl time.Duration) (models.CreatureRecord, error)
	Search(ctx context.Context, query string) ([]models.CreatureRecord, error)
	List(ctx context.Context, q models.ListQuery) (models.ListResult, error)
	ConvertByID(ctx context.Context, id, level int) (models.StatBlock, error)
	Initialize(ctx context.Context, generation int) (models.BulkSummary, error)
	Stats(ctx context.Context) (models.CacheStats, error)
	ClearAll(ctx context.Context) error
	ClearExpired(ctx context.Context) (int64, error)
}

// Handler provides HTTP handlers for the dex API
type Handler struct {
	dex     Dex
	metrics http.Handler
	logger  *slog.Logger
}

// NewHandler creates a handler. metrics may be nil, in which case /metrics is not routed.
func NewHandler(dex Dex, metrics http.Handler, logger *slog.Logger) *Handler {
	return &Handler{dex: dex, metrics: metrics, logger: logger}
}

// APIResponse is the envelope every JSON endpoint answers with.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Router creates and configures the HTTP router
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.HealthCheck)
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/search", h.Search)

		r.Route("/creatures", func(r chi.Router) {
			r.Get("/", h.ListCreatures)
			r.Get("/{id}", h.GetCreature)
			r.Get("/{id}/statblock", h.GetStatBlock)
		})

		r.Route("/cache", func(r chi.Router) {
			r.Get("/stats", h.CacheStats)
			r.Post("/initialize", h.InitializeCache)
			r.Delete("/", h.ClearCache)
			r.Delete("/expired", h.ClearExpired)
		})
	})

	return r
}

// requestLogger logs one line per request through slog.
func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logging.Debug(h.logger, "http request",
			logging.FieldMethod, r.Method,
			logging.FieldPath, r.URL.Path,
			logging.FieldStatusCode, ww.Status(),
			logging.FieldDurationMS, time.Since(start).Milliseconds(),
			logging.FieldRequestID, middleware.GetReqID(r.Context()),
		)
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Error(h.logger, "encode response", err)
	}
}

func (h *Handler) writeSuccess(w http.ResponseWriter, data any) {
	h.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: data})
}

func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, APIResponse{Success: false, Error: err.Error()})
}

// writeFailure maps a domain error onto an HTTP status.
func (h *Handler) writeFailure(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logging.Error(h.logger, "request failed", err, logging.FieldStatusCode, status)
	}
	h.writeError(w, status, err)
}

func statusFor(err error) int {
	if _, ok := provider.AsSchemaError(err); ok {
		return http.StatusBadGateway
	}
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, resolver.ErrInvalidID),
		errors.Is(err, resolver.ErrInvalidLevel),
		errors.Is(err, export.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case provider.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	if _, ok := provider.AsTransportError(err); ok {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// intParam reads an optional integer query parameter.
func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", errBadRequest, name)
	}
	return v, nil
}

func idParam(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		return 0, fmt.Errorf("%w: id must be an integer", errBadRequest)
	}
	return id, nil
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "healthy"})
}

// GetCreature handles GET /api/v1/creatures/{id}
func (h *Handler) GetCreature(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	rec, err := h.dex.Resolve(r.Context(), id, 0)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	h.writeSuccess(w, rec)
}

// ListCreatures handles GET /api/v1/creatures
func (h *Handler) ListCreatures(w http.ResponseWriter, r *http.Request) {
	offset, err := intParam(r, "offset", 0)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	limit, err := intParam(r, "limit", 0)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	q := models.ListQuery{
		Offset: offset,
		Limit:  limit,
		Type:   r.URL.Query().Get("type"),
		Name:   r.URL.Query().Get("name"),
	}
	res, err := h.dex.List(r.Context(), q)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	h.writeSuccess(w, res)
}

// Search handles GET /api/v1/search?q=
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeFailure(w, fmt.Errorf("%w: q is required", errBadRequest))
		return
	}
	recs, err := h.dex.Search(r.Context(), query)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	h.writeSuccess(w, recs)
}

// GetStatBlock handles GET /api/v1/creatures/{id}/statblock. format=text
// answers with plain text instead of the JSON envelope.
func (h *Handler) GetStatBlock(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	level, err := intParam(r, "level", defaultLevel)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	if level > convert.MaxLevel {
		h.writeFailure(w, resolver.ErrInvalidLevel)
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = export.FormatJSON
	}
	if format != export.FormatJSON && format != export.FormatText {
		h.writeFailure(w, fmt.Errorf("%w: %q", export.ErrUnsupportedFormat, format))
		return
	}

	block, err := h.dex.ConvertByID(r.Context(), id, level)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	if format == export.FormatJSON {
		h.writeSuccess(w, block)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(export.Text(block)))
}

// InitializeCache handles POST /api/v1/cache/initialize?generation=
// An interrupted run still reports the partial summary.
func (h *Handler) InitializeCache(w http.ResponseWriter, r *http.Request) {
	gen, err := intParam(r, "generation", 1)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	summary, err := h.dex.Initialize(r.Context(), gen)
	if err != nil {
		status := statusFor(err)
		logging.Warn(h.logger, "bulk initialize interrupted", logging.FieldRunID, summary.RunID, "error", err)
		h.writeJSON(w, status, APIResponse{Success: false, Data: summary, Error: err.Error()})
		return
	}
	h.writeSuccess(w, summary)
}

// ClearCache handles DELETE /api/v1/cache
func (h *Handler) ClearCache(w http.ResponseWriter, r *http.Request) {
	if err := h.dex.ClearAll(r.Context()); err != nil {
		h.writeFailure(w, err)
		return
	}
	h.writeSuccess(w, map[string]bool{"cleared": true})
}

// ClearExpired handles DELETE /api/v1/cache/expired
func (h *Handler) ClearExpired(w http.ResponseWriter, r *http.Request) {
	n, err := h.dex.ClearExpired(r.Context())
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	h.writeSuccess(w, map[string]int64{"removed": n})
}

// CacheStats handles GET /api/v1/cache/stats
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dex.Stats(r.Context())
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	h.writeSuccess(w, stats)
}

// ListenAndServe serves handler on addr until ctx is cancelled, then shuts down gracefully.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info(logger, "dragonites api listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
