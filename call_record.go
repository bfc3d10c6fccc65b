package modactivator

import (
	"sync"
	"time"
)

// HookCall summarizes the invocations of one hook of one module.
type HookCall struct {
	Count int       `json:"count"`
	First time.Time `json:"first"`
	Last  time.Time `json:"last"`

	// FirstSeq and LastSeq are positions in the recorder's global call
	// sequence. They order calls strictly even when timestamps tie.
	FirstSeq uint64 `json:"first_seq"`
	LastSeq  uint64 `json:"last_seq"`
}

// CallRecord holds the hook calls of a single module.
type CallRecord map[Hook]HookCall

// CallRecorder counts and timestamps every hook invocation, keyed by module
// id. Records outlive the module: unloading does not erase them.
type CallRecorder struct {
	mu    sync.Mutex
	now   func() time.Time
	seq   uint64
	calls map[string]map[Hook]*HookCall
}

// NewCallRecorder creates a recorder using now as its clock. A nil clock
// means time.Now.
func NewCallRecorder(now func() time.Time) *CallRecorder {
	if now == nil {
		now = time.Now
	}
	return &CallRecorder{
		now:   now,
		calls: make(map[string]map[Hook]*HookCall),
	}
}

func (r *CallRecorder) record(id string, hook Hook) HookCall {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	at := r.now()

	hooks, ok := r.calls[id]
	if !ok {
		hooks = make(map[Hook]*HookCall, len(Hooks))
		r.calls[id] = hooks
	}
	c, ok := hooks[hook]
	if !ok {
		c = &HookCall{First: at, FirstSeq: r.seq}
		hooks[hook] = c
	}
	c.Count++
	c.Last = at
	c.LastSeq = r.seq
	return *c
}

// Count returns how many times hook was invoked for id.
func (r *CallRecorder) Count(id string, hook Hook) int {
	c, _ := r.Call(id, hook)
	return c.Count
}

// Call returns the summary for one hook of one module.
func (r *CallRecorder) Call(id string, hook Hook) (HookCall, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.calls[id][hook]
	if !ok {
		return HookCall{}, false
	}
	return *c, true
}

// Record returns every hook summary for id.
func (r *CallRecorder) Record(id string) CallRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recordLocked(id)
}

func (r *CallRecorder) recordLocked(id string) CallRecord {
	out := make(CallRecord, len(r.calls[id]))
	for hook, c := range r.calls[id] {
		out[hook] = *c
	}
	return out
}

// Records returns every module's hook summaries.
func (r *CallRecorder) Records() map[string]CallRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]CallRecord, len(r.calls))
	for id := range r.calls {
		out[id] = r.recordLocked(id)
	}
	return out
}

// Reset forgets every recorded call.
func (r *CallRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = make(map[string]map[Hook]*HookCall)
	r.seq = 0
}
