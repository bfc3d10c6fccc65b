package modactivator

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/GoCodeAlone/modactivator/graph"
	"github.com/GoCodeAlone/modactivator/health"
	"github.com/GoCodeAlone/modactivator/lifecycle"
	"github.com/GoCodeAlone/modactivator/registry"
)

type moduleEntry struct {
	descriptor ModuleDescriptor
	activator  Activator
}

// Orchestrator owns the module registry and drives every lifecycle
// transition. Lifecycle operations are serialized by a single lock; query
// methods do not take it and may be called from hooks and other goroutines.
type Orchestrator struct {
	opMu sync.Mutex

	mu        sync.RWMutex
	graph     *graph.Graph
	observers []observerRegistration

	modules  *registry.Registry[*moduleEntry]
	tracker  *lifecycle.Tracker
	recorder *CallRecorder
	invoker  *ActivatorInvoker
	health   *health.Aggregator

	logger     Logger
	policy     StartFailurePolicy
	now        func() time.Time
	source     string
	emitEvents bool
}

// New creates an orchestrator with an empty registry.
func New(opts ...Option) (*Orchestrator, error) {
	o := &Orchestrator{
		modules:    registry.New[*moduleEntry](),
		tracker:    lifecycle.NewTracker(),
		health:     health.NewAggregator(),
		logger:     nopLogger{},
		policy:     SkipDependents,
		now:        time.Now,
		source:     "modactivator",
		emitEvents: true,
	}

	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	o.recorder = NewCallRecorder(o.now)
	o.invoker = NewActivatorInvoker(o.recorder, o.logger)
	return o, nil
}

// Register adds a module in the Stopped state. The descriptor is copied, so
// later changes by the caller have no effect. Dependencies are resolved
// lazily: a module may be registered before the modules it depends on.
func (o *Orchestrator) Register(desc ModuleDescriptor, activator Activator) error {
	if desc.ID == "" {
		return ErrEmptyModuleID
	}
	if activator == nil {
		return fmt.Errorf("%w: %s", ErrActivatorNil, desc.ID)
	}

	o.opMu.Lock()
	defer o.opMu.Unlock()

	if o.modules.Has(desc.ID) {
		return fmt.Errorf("%w: %s", ErrModuleAlreadyRegistered, desc.ID)
	}
	if err := o.modules.Add(desc.ID, &moduleEntry{descriptor: desc.clone(), activator: activator}); err != nil {
		return fmt.Errorf("register %s: %w", desc.ID, err)
	}
	if err := o.tracker.Add(desc.ID); err != nil {
		_ = o.modules.Remove(desc.ID)
		return fmt.Errorf("register %s: %w", desc.ID, err)
	}
	if err := o.health.RegisterCheck(context.Background(), &moduleHealthCheck{id: desc.ID, tracker: o.tracker}); err != nil {
		o.logger.Warn("Failed to register module health check", "module", desc.ID, "error", err)
	}

	o.logger.Debug("Registered module", "module", desc.ID, "dependencies", desc.Dependencies)
	o.emit(context.Background(), EventTypeModuleRegistered, ModuleEventData{Module: desc.ID, To: lifecycle.Stopped.String()})
	return nil
}

// StartAll starts every registered module in dependency order. Dependency
// errors are returned before any hook fires. Hook failures do not abort the
// operation; they are collected in the result.
func (o *Orchestrator) StartAll(ctx context.Context) (*Result, error) {
	o.opMu.Lock()
	defer o.opMu.Unlock()

	g, err := o.rebuildGraph()
	if err != nil {
		o.logger.Error("Failed to resolve module dependencies", "error", err)
		return nil, err
	}

	res := newResult(OperationStartAll, o.now())
	order := g.StartOrder()
	o.logger.Debug("Computed start order", "order", order)

	for _, id := range order {
		state, _ := o.tracker.Get(id)
		switch state {
		case lifecycle.Started:
			continue
		case lifecycle.Failed:
			res.skip(id, state, "module failed; stop or unload it first")
			o.logger.Warn("Skipping failed module", "module", id)
			continue
		}

		if blocker := o.unstartedPrerequisite(g, id); blocker != "" && o.policy == SkipDependents {
			blockerState, _ := o.tracker.Get(blocker)
			res.skip(id, state, fmt.Sprintf("prerequisite %s is %s", blocker, blockerState))
			o.logger.Warn("Skipping module with unstarted prerequisite", "module", id, "prerequisite", blocker, "state", blockerState)
			continue
		}

		if err := o.startModule(ctx, res, id); err != nil {
			return res, err
		}
	}

	o.finish(ctx, res, EventTypeStartAllCompleted)
	return res, nil
}

// StopModule stops id and every module that directly or transitively
// depends on it, dependents first. Members that are not Started are left
// untouched; a Failed target is stopped explicitly.
func (o *Orchestrator) StopModule(ctx context.Context, id string) (*Result, error) {
	o.opMu.Lock()
	defer o.opMu.Unlock()

	if !o.modules.Has(id) {
		return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, id)
	}

	members := o.cascade(id)
	res := newResult(OperationStop, o.now())
	o.logger.Debug("Computed stop cascade", "module", id, "cascade", members)

	for _, member := range members {
		state, _ := o.tracker.Get(member)
		if state != lifecycle.Started && !(member == id && state == lifecycle.Failed) {
			res.skip(member, state, "not started")
			continue
		}
		if err := o.stopModule(ctx, res, member, state); err != nil {
			return res, err
		}
	}

	o.finish(ctx, res, EventTypeStopCompleted)
	return res, nil
}

// UnloadModule stops id if needed and removes it from the registry. Only
// the target's hooks fire. A module that other registered modules depend on
// cannot be unloaded.
func (o *Orchestrator) UnloadModule(ctx context.Context, id string) (*Result, error) {
	o.opMu.Lock()
	defer o.opMu.Unlock()

	if !o.modules.Has(id) {
		return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, id)
	}
	if dependents := o.directDependents(id); len(dependents) > 0 {
		return nil, &ModuleInUseError{Module: id, Dependents: dependents}
	}

	res := newResult(OperationUnload, o.now())

	state, _ := o.tracker.Get(id)
	if state == lifecycle.Started || state == lifecycle.Failed {
		if err := o.stopModule(ctx, res, id, state); err != nil {
			return res, err
		}
		state, _ = o.tracker.Get(id)
	}

	if err := o.tracker.Transition(id, state, lifecycle.Unloaded); err != nil {
		return res, err
	}
	if err := o.modules.Remove(id); err != nil {
		return res, err
	}
	if err := o.health.UnregisterCheck(ctx, id); err != nil {
		o.logger.Warn("Failed to unregister module health check", "module", id, "error", err)
	}
	if _, err := o.rebuildGraph(); err != nil {
		o.logger.Warn("Dependency graph invalid after unload; pruning previous graph", "error", err)
		if err := o.pruneGraph(id); err != nil {
			return res, err
		}
	}

	if !slices.Contains(res.Transitioned, id) {
		res.Transitioned = append(res.Transitioned, id)
	}
	o.logger.Info("Unloaded module", "module", id)
	o.emit(ctx, EventTypeModuleUnloaded, ModuleEventData{
		Operation: string(res.Operation), ResultID: res.ID, Module: id,
		From: state.String(), To: lifecycle.Unloaded.String(),
	})
	res.FinishedAt = o.now()
	return res, nil
}

// Shutdown stops every Started module in full stop order. Modules that are
// already stopped receive no hooks. Failures do not stop the shutdown.
func (o *Orchestrator) Shutdown(ctx context.Context) (*Result, error) {
	o.opMu.Lock()
	defer o.opMu.Unlock()

	res := newResult(OperationShutdown, o.now())

	for _, id := range o.stopOrder() {
		state, _ := o.tracker.Get(id)
		if state != lifecycle.Started {
			res.skip(id, state, "not started")
			continue
		}
		if err := o.stopModule(ctx, res, id, state); err != nil {
			return res, err
		}
	}

	o.finish(ctx, res, EventTypeShutdownCompleted)
	return res, nil
}

func (o *Orchestrator) startModule(ctx context.Context, res *Result, id string) error {
	entry, ok := o.modules.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrModuleNotFound, id)
	}

	if err := o.transition(ctx, res, id, lifecycle.Stopped, lifecycle.Starting, EventTypeModuleStarting); err != nil {
		return err
	}
	o.logger.Info("Starting module", "module", id)

	if err := o.invoker.InvokePair(ctx, id, entry.activator, HookWillStart, HookStarted); err != nil {
		return o.fail(ctx, res, id, lifecycle.Starting, err)
	}

	if err := o.transition(ctx, res, id, lifecycle.Starting, lifecycle.Started, EventTypeModuleStarted); err != nil {
		return err
	}
	res.Transitioned = append(res.Transitioned, id)
	o.logger.Info("Started module", "module", id)
	return nil
}

func (o *Orchestrator) stopModule(ctx context.Context, res *Result, id string, from lifecycle.State) error {
	entry, ok := o.modules.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrModuleNotFound, id)
	}

	if err := o.transition(ctx, res, id, from, lifecycle.Stopping, EventTypeModuleStopping); err != nil {
		return err
	}
	o.logger.Info("Stopping module", "module", id)

	if err := o.invoker.InvokePair(ctx, id, entry.activator, HookWillStop, HookStopped); err != nil {
		return o.fail(ctx, res, id, lifecycle.Stopping, err)
	}

	if err := o.transition(ctx, res, id, lifecycle.Stopping, lifecycle.Stopped, EventTypeModuleStopped); err != nil {
		return err
	}
	res.Transitioned = append(res.Transitioned, id)
	o.logger.Info("Stopped module", "module", id)
	return nil
}

// fail moves id to Failed and records the hook failure. It only returns an
// error if the state tracker disagrees with the orchestrator.
func (o *Orchestrator) fail(ctx context.Context, res *Result, id string, from lifecycle.State, hookErr error) error {
	failure, ok := hookErr.(*HookFailure)
	if !ok {
		failure = &HookFailure{Module: id, Cause: hookErr}
	}
	res.Failures = append(res.Failures, failure)

	if err := o.tracker.Transition(id, from, lifecycle.Failed); err != nil {
		return err
	}
	o.logger.Error("Module failed", "module", id, "hook", failure.Hook, "error", failure.Cause)
	o.emit(ctx, EventTypeModuleFailed, ModuleEventData{
		Operation: string(res.Operation), ResultID: res.ID, Module: id,
		From: from.String(), To: lifecycle.Failed.String(),
		Hook: failure.Hook, Error: failure.Cause.Error(),
	})
	return nil
}

func (o *Orchestrator) transition(ctx context.Context, res *Result, id string, from, to lifecycle.State, eventType string) error {
	if err := o.tracker.Transition(id, from, to); err != nil {
		return err
	}
	o.emit(ctx, eventType, ModuleEventData{
		Operation: string(res.Operation), ResultID: res.ID, Module: id,
		From: from.String(), To: to.String(),
	})
	return nil
}

func (o *Orchestrator) finish(ctx context.Context, res *Result, eventType string) {
	res.FinishedAt = o.now()
	o.logger.Info("Lifecycle operation completed",
		"operation", res.Operation,
		"transitioned", len(res.Transitioned),
		"skipped", len(res.Skipped),
		"failed", len(res.Failures))

	skipped := res.SkippedModules()
	if len(skipped) == 0 {
		skipped = nil
	}
	failed := res.FailedModules()
	if len(failed) == 0 {
		failed = nil
	}
	o.emit(ctx, eventType, OperationEventData{
		Operation:    string(res.Operation),
		ResultID:     res.ID,
		Transitioned: res.Transitioned,
		Skipped:      skipped,
		Failed:       failed,
	})
}

// unstartedPrerequisite returns the first direct dependency of id that is
// not Started, or "".
func (o *Orchestrator) unstartedPrerequisite(g *graph.Graph, id string) string {
	deps, err := g.Dependencies(id)
	if err != nil {
		return ""
	}
	for _, dep := range deps {
		if !o.tracker.Is(dep, lifecycle.Started) {
			return dep
		}
	}
	return ""
}

// cascade returns id and its transitive dependents in stop order.
func (o *Orchestrator) cascade(id string) []string {
	g := o.currentGraph()
	if g == nil || !g.Has(id) {
		return []string{id}
	}

	dependents, err := g.TransitiveDependents(id)
	if err != nil {
		return []string{id}
	}
	set := make(map[string]bool, len(dependents)+1)
	set[id] = true
	for _, d := range dependents {
		set[d] = true
	}
	return graph.Restrict(graph.StopOrder(g.StartOrder()), set)
}

// stopOrder returns every module of the current graph in stop order.
func (o *Orchestrator) stopOrder() []string {
	g := o.currentGraph()
	if g == nil {
		return nil
	}
	return graph.StopOrder(g.StartOrder())
}

// directDependents scans the registry, so it reflects modules registered
// since the graph was last built.
func (o *Orchestrator) directDependents(id string) []string {
	out := make([]string, 0)
	o.modules.Each(func(other string, e *moduleEntry) {
		if other != id && slices.Contains(e.descriptor.Dependencies, id) {
			out = append(out, other)
		}
	})
	return out
}

// rebuildGraph builds the graph from the registry. On success it becomes
// the current graph; on failure the previous graph is kept so stop and
// shutdown keep working.
func (o *Orchestrator) rebuildGraph() (*graph.Graph, error) {
	g, err := graph.Build(o.nodes())
	if err != nil {
		return nil, err
	}
	o.mu.Lock()
	o.graph = g
	o.mu.Unlock()
	return g, nil
}

// pruneGraph drops id from the current graph. Used when the registry holds
// modules that do not resolve yet, so a full rebuild is not possible.
func (o *Orchestrator) pruneGraph(id string) error {
	prev := o.currentGraph()
	if prev == nil || !prev.Has(id) {
		return nil
	}
	nodes := make([]graph.Node, 0, prev.Len())
	for _, other := range prev.IDs() {
		if other == id {
			continue
		}
		deps, err := prev.Dependencies(other)
		if err != nil {
			return err
		}
		nodes = append(nodes, graph.Node{ID: other, Dependencies: deps})
	}
	g, err := graph.Build(nodes)
	if err != nil {
		return fmt.Errorf("prune %s from dependency graph: %w", id, err)
	}
	o.mu.Lock()
	o.graph = g
	o.mu.Unlock()
	return nil
}

func (o *Orchestrator) currentGraph() *graph.Graph {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.graph
}

func (o *Orchestrator) nodes() []graph.Node {
	nodes := make([]graph.Node, 0, o.modules.Len())
	o.modules.Each(func(id string, e *moduleEntry) {
		nodes = append(nodes, graph.Node{ID: id, Dependencies: e.descriptor.Dependencies})
	})
	return nodes
}
