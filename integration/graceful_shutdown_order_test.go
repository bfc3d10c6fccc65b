package integration

import (
	"context"
	"slices"
	"testing"

	"github.com/GoCodeAlone/modactivator"
	"github.com/GoCodeAlone/modactivator/internal/testutil"
	"github.com/GoCodeAlone/modactivator/lifecycle"
)

// TestGracefulShutdownOrdering verifies shutdown runs in the exact reverse
// of the start order with no hooks interleaved within a module's stop.
func TestGracefulShutdownOrdering(t *testing.T) {
	orch, trace, _ := newPlatform(t)
	ctx := context.Background()

	if _, err := orch.StartAll(ctx); err != nil {
		t.Fatalf("StartAll failed: %v", err)
	}
	startOrder := trace.Modules(testutil.WillStart)
	trace.Reset()

	res, err := orch.Shutdown(ctx)
	if err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	want := slices.Clone(startOrder)
	slices.Reverse(want)
	if got := trace.Modules(testutil.WillStop); !slices.Equal(got, want) {
		t.Errorf("expected stop order %v, got %v", want, got)
	}
	if !slices.Equal(res.Transitioned, want) {
		t.Errorf("expected result order %v, got %v", want, res.Transitioned)
	}

	calls := trace.Calls()
	for i := 0; i < len(calls); i += 2 {
		if calls[i].Hook != testutil.WillStop || calls[i+1].Hook != testutil.Stopped || calls[i].Module != calls[i+1].Module {
			t.Fatalf("hooks interleaved at %d: %v %v", i, calls[i], calls[i+1])
		}
	}
}

// TestShutdownAfterPartialStops verifies modules stopped or unloaded before
// shutdown receive no further hooks.
func TestShutdownAfterPartialStops(t *testing.T) {
	orch, trace, _ := newPlatform(t)
	ctx := context.Background()

	if _, err := orch.StartAll(ctx); err != nil {
		t.Fatalf("StartAll failed: %v", err)
	}
	if _, err := orch.StopModule(ctx, "db"); err != nil {
		t.Fatalf("StopModule failed: %v", err)
	}
	if _, err := orch.UnloadModule(ctx, "metrics"); err != nil {
		t.Fatalf("UnloadModule failed: %v", err)
	}

	// db cascades to repo and api; cache and config keep running.
	for id, want := range map[string]lifecycle.State{
		"api": lifecycle.Stopped, "repo": lifecycle.Stopped, "db": lifecycle.Stopped,
		"cache": lifecycle.Started, "config": lifecycle.Started,
	} {
		if got, _ := orch.State(id); got != want {
			t.Errorf("%s: expected %s, got %s", id, want, got)
		}
	}

	if _, err := orch.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	for _, id := range []string{"api", "repo", "db", "cache", "config", "metrics"} {
		if n := trace.Count(id, testutil.WillStop); n != 1 {
			t.Errorf("%s: expected willStop once, got %d", id, n)
		}
		if n := orch.CallCount(id, modactivator.HookStopped); n != 1 {
			t.Errorf("%s: expected stopped once, got %d", id, n)
		}
	}
}
