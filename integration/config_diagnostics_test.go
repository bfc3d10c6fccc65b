package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"testing"

	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/GoCodeAlone/modactivator"
	"github.com/GoCodeAlone/modactivator/config"
	"github.com/GoCodeAlone/modactivator/diagnostics"
	"github.com/GoCodeAlone/modactivator/feeders"
	"github.com/GoCodeAlone/modactivator/internal/testutil"
)

// TestConfigDrivenDiagnostics loads configuration from a file and the
// environment, applies it to an orchestrator and drives it over the
// diagnostics HTTP surface.
func TestConfigDrivenDiagnostics(t *testing.T) {
	testutil.Isolate(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "modactivator.yaml")
	if err := os.WriteFile(path, []byte("start_failure_policy: skip-dependents\nevent_source: integration\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("MODACTIVATOR_START_FAILURE_POLICY", config.PolicyAttemptDependents)

	cfg := config.Default()
	if err := config.NewLoader(feeders.NewYamlFeeder(path), feeders.NewEnvFeeder("MODACTIVATOR")).Load(ctx, cfg); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	var sources []string
	observer := modactivator.NewFunctionalObserver("sources", func(_ context.Context, e cloudevents.Event) error {
		sources = append(sources, e.Source())
		return nil
	})

	orch, trace, activators := newPlatform(t, modactivator.WithConfig(cfg), modactivator.WithObserver(observer, modactivator.EventTypeStartAllCompleted))
	activators["repo"].FailOn(testutil.Started, errDatabaseDown)

	if _, err := orch.StartAll(ctx); err != nil {
		t.Fatalf("StartAll failed: %v", err)
	}
	// attempt-dependents from the environment overrides the file.
	if n := trace.Count("api", testutil.Started); n != 1 {
		t.Errorf("expected api started under attempt-dependents, got %d", n)
	}
	if !slices.Equal(sources, []string{"integration"}) {
		t.Errorf("expected one event from source integration, got %v", sources)
	}

	srv := httptest.NewServer(diagnostics.NewHandler(orch, newLogger()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503 with a failed module, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/shutdown", nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST /shutdown: %v", err)
	}
	defer resp.Body.Close()

	var res diagnostics.ResultResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []string{"metrics", "api", "cache", "db", "config"}
	if !slices.Equal(res.Transitioned, want) {
		t.Errorf("expected %v stopped, got %v", want, res.Transitioned)
	}
}
