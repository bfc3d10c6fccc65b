package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/GoCodeAlone/modactivator"
)

// Static errors for plan handling
var (
	ErrUnsupportedPlanFormat = errors.New("unsupported plan format")
	ErrEmptyPlan             = errors.New("plan declares no modules")
	ErrUnknownFailHook       = errors.New("unknown fail_hook")
	ErrSimulatedFailure      = errors.New("simulated hook failure")
)

// Plan is a dry-run description of modules and their dependencies. It is
// not a module artifact manifest: modules are simulated.
type Plan struct {
	Modules []PlanModule `yaml:"modules" toml:"modules"`
}

// PlanModule is one simulated module.
type PlanModule struct {
	ID        string   `yaml:"id" toml:"id"`
	DependsOn []string `yaml:"depends_on" toml:"depends_on"`

	// FailHook names a hook the simulated activator fails.
	FailHook string `yaml:"fail_hook,omitempty" toml:"fail_hook,omitempty"`
}

// LoadPlan reads a YAML or TOML plan, chosen by file extension.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}

	var plan Plan
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &plan)
	case ".toml":
		err = toml.Unmarshal(data, &plan)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlanFormat, filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("parse plan %s: %w", path, err)
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return &plan, nil
}

// Validate checks hook names. Dependency problems are reported by the
// orchestrator when it builds the graph.
func (p *Plan) Validate() error {
	if len(p.Modules) == 0 {
		return ErrEmptyPlan
	}
	for _, m := range p.Modules {
		if m.FailHook != "" && !slices.Contains(modactivator.Hooks, modactivator.Hook(m.FailHook)) {
			return fmt.Errorf("%w %q for module %s", ErrUnknownFailHook, m.FailHook, m.ID)
		}
	}
	return nil
}

// Orchestrator registers every planned module with a simulated activator
// that writes one line per hook to trace.
func (p *Plan) Orchestrator(trace io.Writer, opts ...modactivator.Option) (*modactivator.Orchestrator, error) {
	orch, err := modactivator.New(opts...)
	if err != nil {
		return nil, err
	}
	var mu sync.Mutex
	for _, m := range p.Modules {
		a := &simulatedActivator{id: m.ID, failHook: modactivator.Hook(m.FailHook), out: trace, mu: &mu}
		if err := orch.Register(modactivator.ModuleDescriptor{ID: m.ID, Dependencies: m.DependsOn}, a); err != nil {
			return nil, err
		}
	}
	return orch, nil
}

type simulatedActivator struct {
	id       string
	failHook modactivator.Hook
	out      io.Writer
	mu       *sync.Mutex
}

func (a *simulatedActivator) hook(h modactivator.Hook) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if h == a.failHook {
		fmt.Fprintf(a.out, "  %s.%s FAILED\n", a.id, h)
		return fmt.Errorf("%w: %s.%s", ErrSimulatedFailure, a.id, h)
	}
	fmt.Fprintf(a.out, "  %s.%s\n", a.id, h)
	return nil
}

func (a *simulatedActivator) WillStart(context.Context) error {
	return a.hook(modactivator.HookWillStart)
}
func (a *simulatedActivator) Started(context.Context) error { return a.hook(modactivator.HookStarted) }
func (a *simulatedActivator) WillStop(context.Context) error {
	return a.hook(modactivator.HookWillStop)
}
func (a *simulatedActivator) Stopped(context.Context) error { return a.hook(modactivator.HookStopped) }
