package integration

import (
	"context"
	"log/slog"
	"os"
	"slices"
	"strings"
	"testing"

	"github.com/GoCodeAlone/modactivator"
	"github.com/GoCodeAlone/modactivator/internal/testutil"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// platform is a small but realistic module graph:
//
//	config <- db <- repo <- api
//	config <- cache <- api
//	metrics (independent)
var platform = []modactivator.ModuleDescriptor{
	{ID: "api", Dependencies: []string{"repo", "cache"}},
	{ID: "metrics"},
	{ID: "repo", Dependencies: []string{"db"}},
	{ID: "cache", Dependencies: []string{"config"}},
	{ID: "db", Dependencies: []string{"config"}},
	{ID: "config"},
}

func newPlatform(t *testing.T, opts ...modactivator.Option) (*modactivator.Orchestrator, *testutil.Trace, map[string]*testutil.RecordingActivator) {
	t.Helper()
	orch, err := modactivator.New(append([]modactivator.Option{modactivator.WithLogger(newLogger())}, opts...)...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	trace := testutil.NewTrace()
	activators := map[string]*testutil.RecordingActivator{}
	for _, d := range platform {
		a := trace.Activator(d.ID)
		activators[d.ID] = a
		if err := orch.Register(d, a); err != nil {
			t.Fatalf("Register %s failed: %v", d.ID, err)
		}
	}
	return orch, trace, activators
}

// TestStartupDependencyResolution verifies that every module's prerequisites
// have completed both start hooks before the module's own willStart.
func TestStartupDependencyResolution(t *testing.T) {
	orch, trace, _ := newPlatform(t)

	res, err := orch.StartAll(context.Background())
	if err != nil {
		t.Fatalf("StartAll failed: %v", err)
	}
	if !res.OK() {
		t.Fatalf("unexpected failures: %v", res.Err())
	}

	calls := trace.Strings()
	for _, d := range platform {
		willStart := slices.Index(calls, d.ID+".willStart")
		if willStart < 0 {
			t.Fatalf("%s was never started", d.ID)
		}
		for _, dep := range d.Dependencies {
			if started := slices.Index(calls, dep+".started"); started < 0 || started > willStart {
				t.Errorf("%s.willStart ran before %s.started", d.ID, dep)
			}
		}
	}

	t.Logf("start order: %s", strings.Join(trace.Modules(testutil.WillStart), " -> "))
}

// TestStartupOrderIsDeterministic verifies identical orders across
// orchestrators built from the same registrations.
func TestStartupOrderIsDeterministic(t *testing.T) {
	var first []string
	for i := 0; i < 5; i++ {
		orch, trace, _ := newPlatform(t)
		if _, err := orch.StartAll(context.Background()); err != nil {
			t.Fatalf("StartAll failed: %v", err)
		}
		order := trace.Modules(testutil.WillStart)
		if first == nil {
			first = order
			continue
		}
		if !slices.Equal(first, order) {
			t.Fatalf("run %d order %v differs from %v", i, order, first)
		}
	}

	want := []string{"config", "db", "repo", "cache", "api", "metrics"}
	if !slices.Equal(first, want) {
		t.Errorf("expected order %v, got %v", want, first)
	}
}
