// Package testutil holds helpers shared by the orchestrator's test suites.
package testutil

import (
	"os"
	"strings"
	"testing"
)

// EnvPrefix is the prefix of every environment variable the configuration
// loader reads.
const EnvPrefix = "MODACTIVATOR_"

// snapshotEnv captures every variable starting with EnvPrefix and returns a
// function restoring exactly that set.
func snapshotEnv() func() {
	saved := map[string]string{}
	for _, kv := range os.Environ() {
		k, v, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(k, EnvPrefix) {
			saved[k] = v
		}
	}

	return func() {
		for _, kv := range os.Environ() {
			k, _, _ := strings.Cut(kv, "=")
			if _, ok := saved[k]; !ok && strings.HasPrefix(k, EnvPrefix) {
				_ = os.Unsetenv(k)
			}
		}
		for k, v := range saved {
			_ = os.Setenv(k, v)
		}
	}
}

// WithIsolatedEnv runs fn and afterwards restores every MODACTIVATOR_
// variable to its previous value, unsetting the ones fn added.
func WithIsolatedEnv(fn func()) {
	restore := snapshotEnv()
	defer restore()
	fn()
}

// Isolate is the *testing.T variant of WithIsolatedEnv: the restore runs as
// a t.Cleanup. Safe to call multiple times in a test (cleanups run LIFO).
func Isolate(t *testing.T) {
	t.Helper()
	t.Cleanup(snapshotEnv())
}
