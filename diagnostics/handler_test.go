package diagnostics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GoCodeAlone/modactivator"
	"github.com/GoCodeAlone/modactivator/lifecycle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func newStartedOrchestrator(t *testing.T, failing ...string) *modactivator.Orchestrator {
	t.Helper()
	orch, err := modactivator.New()
	require.NoError(t, err)

	fail := map[string]bool{}
	for _, id := range failing {
		fail[id] = true
	}
	activator := func(id string) modactivator.Activator {
		if fail[id] {
			return modactivator.ActivatorFuncs{StartedFunc: func(context.Context) error { return errBoom }}
		}
		return modactivator.BaseActivator{}
	}

	require.NoError(t, orch.Register(modactivator.ModuleDescriptor{ID: "db"}, activator("db")))
	require.NoError(t, orch.Register(modactivator.ModuleDescriptor{ID: "cache", Dependencies: []string{"db"}}, activator("cache")))
	require.NoError(t, orch.Register(modactivator.ModuleDescriptor{ID: "api", Dependencies: []string{"cache"}}, activator("api")))

	_, err = orch.StartAll(context.Background())
	require.NoError(t, err)
	return orch
}

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHandler(t *testing.T) {
	t.Run("lists_modules", func(t *testing.T) {
		h := NewHandler(newStartedOrchestrator(t), nil)

		rec := do(t, h, http.MethodGet, "/modules")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		mods := decode[[]modactivator.ModuleInfo](t, rec)
		require.Len(t, mods, 3)
		assert.Equal(t, "db", mods[0].ID)
		assert.Equal(t, lifecycle.Started, mods[0].State)
		assert.Equal(t, []string{"cache"}, mods[0].Dependents)
		assert.Equal(t, 1, mods[0].Calls[modactivator.HookStarted].Count)
	})

	t.Run("gets_one_module", func(t *testing.T) {
		h := NewHandler(newStartedOrchestrator(t), nil)

		rec := do(t, h, http.MethodGet, "/modules/cache")
		require.Equal(t, http.StatusOK, rec.Code)
		info := decode[modactivator.ModuleInfo](t, rec)
		assert.Equal(t, []string{"db"}, info.Dependencies)

		rec = do(t, h, http.MethodGet, "/modules/nope")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, decode[ErrorResponse](t, rec).Error, "nope")
	})

	t.Run("order", func(t *testing.T) {
		h := NewHandler(newStartedOrchestrator(t), nil)

		rec := do(t, h, http.MethodGet, "/order")
		require.Equal(t, http.StatusOK, rec.Code)
		order := decode[OrderResponse](t, rec)
		assert.Equal(t, []string{"db", "cache", "api"}, order.Start)
		assert.Equal(t, []string{"api", "cache", "db"}, order.Stop)
	})

	t.Run("health_reports_failed_modules", func(t *testing.T) {
		rec := do(t, NewHandler(newStartedOrchestrator(t), nil), http.MethodGet, "/healthz")
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = do(t, NewHandler(newStartedOrchestrator(t, "api"), nil), http.MethodGet, "/healthz")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("stop_cascades", func(t *testing.T) {
		orch := newStartedOrchestrator(t)
		h := NewHandler(orch, nil)

		rec := do(t, h, http.MethodPost, "/modules/cache/stop")
		require.Equal(t, http.StatusOK, rec.Code)
		res := decode[ResultResponse](t, rec)
		assert.Equal(t, []string{"api", "cache"}, res.Transitioned)
		assert.Empty(t, res.Failures)

		state, _ := orch.State("db")
		assert.Equal(t, lifecycle.Started, state)
	})

	t.Run("unload", func(t *testing.T) {
		orch := newStartedOrchestrator(t)
		h := NewHandler(orch, nil)

		rec := do(t, h, http.MethodDelete, "/modules/db")
		assert.Equal(t, http.StatusConflict, rec.Code)

		rec = do(t, h, http.MethodDelete, "/modules/api")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"db", "cache"}, orch.Modules())

		rec = do(t, h, http.MethodDelete, "/modules/api")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("shutdown", func(t *testing.T) {
		orch := newStartedOrchestrator(t)
		h := NewHandler(orch, nil)

		rec := do(t, h, http.MethodPost, "/shutdown")
		require.Equal(t, http.StatusOK, rec.Code)
		res := decode[ResultResponse](t, rec)
		assert.Equal(t, []string{"api", "cache", "db"}, res.Transitioned)
		assert.Equal(t, modactivator.OperationShutdown, res.Operation)
	})

	t.Run("client_disconnect_does_not_cancel_hooks", func(t *testing.T) {
		orch, err := modactivator.New()
		require.NoError(t, err)

		var hookErrs []error
		record := func(ctx context.Context) error {
			hookErrs = append(hookErrs, ctx.Err())
			return nil
		}
		require.NoError(t, orch.Register(modactivator.ModuleDescriptor{ID: "db"},
			modactivator.ActivatorFuncs{WillStopFunc: record, StoppedFunc: record}))
		_, err = orch.StartAll(context.Background())
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		rec := httptest.NewRecorder()
		NewHandler(orch, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/modules/db/stop", nil).WithContext(ctx))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []error{nil, nil}, hookErrs)
	})
}
