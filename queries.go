package modactivator

import (
	"context"
	"fmt"

	"github.com/GoCodeAlone/modactivator/graph"
	"github.com/GoCodeAlone/modactivator/health"
	"github.com/GoCodeAlone/modactivator/lifecycle"
)

// ModuleInfo is a point-in-time view of one registered module.
type ModuleInfo struct {
	ID           string          `json:"id"`
	Dependencies []string        `json:"dependencies"`
	Dependents   []string        `json:"dependents"`
	State        lifecycle.State `json:"state"`
	Calls        CallRecord      `json:"calls"`
}

// State returns the current state of id. Unregistered modules report
// Unloaded and false.
func (o *Orchestrator) State(id string) (lifecycle.State, bool) {
	return o.tracker.Get(id)
}

// States returns the state of every registered module.
func (o *Orchestrator) States() map[string]lifecycle.State {
	return o.tracker.Snapshot()
}

// Descriptor returns a copy of the descriptor registered under id.
func (o *Orchestrator) Descriptor(id string) (ModuleDescriptor, bool) {
	e, ok := o.modules.Get(id)
	if !ok {
		return ModuleDescriptor{}, false
	}
	return e.descriptor.clone(), true
}

// Modules returns the registered module ids in registration order.
func (o *Orchestrator) Modules() []string {
	return o.modules.IDs()
}

// Module returns a view of a single module.
func (o *Orchestrator) Module(id string) (ModuleInfo, bool) {
	desc, ok := o.Descriptor(id)
	if !ok {
		return ModuleInfo{}, false
	}
	state, _ := o.tracker.Get(id)
	deps := desc.Dependencies
	if deps == nil {
		deps = []string{}
	}
	return ModuleInfo{
		ID:           id,
		Dependencies: deps,
		Dependents:   o.directDependents(id),
		State:        state,
		Calls:        o.recorder.Record(id),
	}, true
}

// StartOrder builds the graph from the current registry and returns its
// start order. Unloaded modules are not part of it.
func (o *Orchestrator) StartOrder() ([]string, error) {
	g, err := graph.Build(o.nodes())
	if err != nil {
		return nil, err
	}
	return g.StartOrder(), nil
}

// StopOrder is the exact reverse of StartOrder.
func (o *Orchestrator) StopOrder() ([]string, error) {
	start, err := o.StartOrder()
	if err != nil {
		return nil, err
	}
	return graph.StopOrder(start), nil
}

// Dependents returns every module that directly or transitively depends on
// id, in start order.
func (o *Orchestrator) Dependents(id string) ([]string, error) {
	if !o.modules.Has(id) {
		return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, id)
	}
	g, err := graph.Build(o.nodes())
	if err != nil {
		return nil, err
	}
	return g.TransitiveDependents(id)
}

// CallCount returns how many times hook was invoked for id.
func (o *Orchestrator) CallCount(id string, hook Hook) int {
	return o.recorder.Count(id, hook)
}

// CallRecord returns the hook summaries of id. Records survive unload.
func (o *Orchestrator) CallRecord(id string) CallRecord {
	return o.recorder.Record(id)
}

// CallRecords returns the hook summaries of every module ever invoked.
func (o *Orchestrator) CallRecords() map[string]CallRecord {
	return o.recorder.Records()
}

// Recorder returns the call recorder.
func (o *Orchestrator) Recorder() *CallRecorder {
	return o.recorder
}

// Health runs every module health check.
func (o *Orchestrator) Health(ctx context.Context) (*health.AggregatedStatus, error) {
	return o.health.CheckAll(ctx)
}

// HealthAggregator exposes the aggregator holding one check per module, so
// hosts can add their own checks or status change callbacks.
func (o *Orchestrator) HealthAggregator() *health.Aggregator {
	return o.health
}
