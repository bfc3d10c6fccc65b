// Package diagnostics exposes the orchestrator's query surface, and its
// operator-triggered operations, over HTTP.
package diagnostics

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/GoCodeAlone/modactivator"
	"github.com/GoCodeAlone/modactivator/health"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Source is what the handler reads and drives. *modactivator.Orchestrator
// implements it.
type Source interface {
	Modules() []string
	Module(id string) (modactivator.ModuleInfo, bool)
	StartOrder() ([]string, error)
	StopOrder() ([]string, error)
	Health(ctx context.Context) (*health.AggregatedStatus, error)

	StopModule(ctx context.Context, id string) (*modactivator.Result, error)
	UnloadModule(ctx context.Context, id string) (*modactivator.Result, error)
	Shutdown(ctx context.Context) (*modactivator.Result, error)
}

// OrderResponse is the body of GET /order.
type OrderResponse struct {
	Start []string `json:"start"`
	Stop  []string `json:"stop"`
}

// FailureResponse describes one hook failure.
type FailureResponse struct {
	Module string            `json:"module"`
	Hook   modactivator.Hook `json:"hook"`
	Error  string            `json:"error"`
}

// ResultResponse is the body returned by the lifecycle endpoints.
type ResultResponse struct {
	*modactivator.Result
	Failures []FailureResponse `json:"failures"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

type handler struct {
	source Source
	logger modactivator.Logger
}

// NewHandler builds the diagnostics router.
//
// Routes:
//   - GET /modules - every module with state, dependencies and hook calls
//   - GET /modules/{id} - a single module
//   - GET /order - start and stop order
//   - GET /healthz - aggregated module health, 503 when any module failed
//   - POST /modules/{id}/stop - cascading stop
//   - DELETE /modules/{id} - unload
//   - POST /shutdown - stop every started module
func NewHandler(source Source, logger modactivator.Logger) http.Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	h := &handler{source: source, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)

	r.Route("/modules", func(r chi.Router) {
		r.Get("/", h.listModules)
		r.Get("/{id}", h.getModule)
		r.Post("/{id}/stop", h.stopModule)
		r.Delete("/{id}", h.unloadModule)
	})
	r.Get("/order", h.order)
	r.Get("/healthz", h.health)
	r.Post("/shutdown", h.shutdown)

	return r
}

func (h *handler) listModules(w http.ResponseWriter, _ *http.Request) {
	ids := h.source.Modules()
	out := make([]modactivator.ModuleInfo, 0, len(ids))
	for _, id := range ids {
		// A module may be unloaded between the two reads.
		if info, ok := h.source.Module(id); ok {
			out = append(out, info)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) getModule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	info, ok := h.source.Module(id)
	if !ok {
		writeError(w, http.StatusNotFound, modactivator.ErrModuleNotFound.Error()+": "+id)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *handler) order(w http.ResponseWriter, _ *http.Request) {
	start, err := h.source.StartOrder()
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	stop, err := h.source.StopOrder()
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, OrderResponse{Start: start, Stop: stop})
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	status, err := h.source.Health(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	code := http.StatusOK
	if status.LivenessStatus == health.StatusCritical {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

func (h *handler) stopModule(w http.ResponseWriter, r *http.Request) {
	res, err := h.source.StopModule(hookContext(r), chi.URLParam(r, "id"))
	h.writeResult(w, res, err)
}

func (h *handler) unloadModule(w http.ResponseWriter, r *http.Request) {
	res, err := h.source.UnloadModule(hookContext(r), chi.URLParam(r, "id"))
	h.writeResult(w, res, err)
}

func (h *handler) shutdown(w http.ResponseWriter, r *http.Request) {
	res, err := h.source.Shutdown(hookContext(r))
	h.writeResult(w, res, err)
}

// hookContext keeps request values but drops cancellation: hooks run to
// completion even if the client goes away.
func hookContext(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

func (h *handler) writeResult(w http.ResponseWriter, res *modactivator.Result, err error) {
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	failures := make([]FailureResponse, 0, len(res.Failures))
	for _, f := range res.Failures {
		failures = append(failures, FailureResponse{Module: f.Module, Hook: f.Hook, Error: f.Cause.Error()})
	}
	if len(failures) > 0 {
		h.logger.Warn("Lifecycle operation finished with failures", "operation", res.Operation, "failed", res.FailedModules())
	}
	writeJSON(w, http.StatusOK, ResultResponse{Result: res, Failures: failures})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, modactivator.ErrModuleNotFound):
		return http.StatusNotFound
	case errors.Is(err, modactivator.ErrModuleInUse):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		h.logger.Debug("Diagnostics request completed",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
