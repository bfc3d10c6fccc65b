package integration

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/GoCodeAlone/modactivator"
	"github.com/GoCodeAlone/modactivator/health"
	"github.com/GoCodeAlone/modactivator/internal/testutil"
	"github.com/GoCodeAlone/modactivator/lifecycle"
)

var errDatabaseDown = errors.New("database unreachable")

// TestFailureAndReverseStop verifies a failed prerequisite blocks its
// dependents, shutdown still stops what did start in reverse order, and an
// operator stop clears the failure so a later start succeeds.
func TestFailureAndReverseStop(t *testing.T) {
	orch, trace, activators := newPlatform(t)
	ctx := context.Background()
	activators["db"].FailOn(testutil.WillStart, errDatabaseDown)

	res, err := orch.StartAll(ctx)
	if err != nil {
		t.Fatalf("StartAll failed: %v", err)
	}
	if !errors.Is(res.Err(), errDatabaseDown) {
		t.Fatalf("expected db failure in result, got %v", res.Err())
	}
	if got := res.SkippedModules(); !slices.Equal(got, []string{"repo", "api"}) {
		t.Errorf("expected repo and api skipped, got %v", got)
	}
	if got := res.Transitioned; !slices.Equal(got, []string{"config", "cache", "metrics"}) {
		t.Errorf("unexpected started modules %v", got)
	}

	status, err := orch.Health(ctx)
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if status.OverallStatus != health.StatusCritical {
		t.Errorf("expected critical health, got %s", status.OverallStatus)
	}

	// Operator intervention: stop the failed module, fix it, start again.
	if _, err := orch.StopModule(ctx, "db"); err != nil {
		t.Fatalf("StopModule failed: %v", err)
	}
	activators["db"].Heal()
	res, err = orch.StartAll(ctx)
	if err != nil {
		t.Fatalf("second StartAll failed: %v", err)
	}
	if got := res.Transitioned; !slices.Equal(got, []string{"db", "repo", "api"}) {
		t.Errorf("expected db, repo and api started, got %v", got)
	}

	trace.Reset()
	if _, err := orch.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	want := []string{"metrics", "api", "cache", "repo", "db", "config"}
	if got := trace.Modules(testutil.Stopped); !slices.Equal(got, want) {
		t.Errorf("expected stop order %v, got %v", want, got)
	}
	for id, s := range orch.States() {
		if s != lifecycle.Stopped {
			t.Errorf("%s: expected stopped, got %s", id, s)
		}
	}
}

// TestStopFailureIsBestEffort verifies a failing stop hook does not prevent
// the remaining modules from stopping.
func TestStopFailureIsBestEffort(t *testing.T) {
	orch, trace, activators := newPlatform(t)
	ctx := context.Background()

	if _, err := orch.StartAll(ctx); err != nil {
		t.Fatalf("StartAll failed: %v", err)
	}
	activators["repo"].PanicOn(testutil.Stopped)
	trace.Reset()

	res, err := orch.Shutdown(ctx)
	if err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if !errors.Is(res.Err(), modactivator.ErrHookPanicked) {
		t.Errorf("expected panic captured, got %v", res.Err())
	}
	if got, _ := orch.State("repo"); got != lifecycle.Failed {
		t.Errorf("expected repo failed, got %s", got)
	}
	if n := trace.Count("config", testutil.Stopped); n != 1 {
		t.Errorf("expected config stopped once, got %d", n)
	}
}
