package modactivator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/GoCodeAlone/modactivator/graph"
	"github.com/GoCodeAlone/modactivator/lifecycle"
)

// Orchestrator errors
var (
	// Registration errors
	ErrEmptyModuleID           = errors.New("module id is empty")
	ErrActivatorNil            = errors.New("activator is nil")
	ErrModuleAlreadyRegistered = errors.New("module already registered")
	ErrModuleNotFound          = errors.New("module not found")
	ErrModuleInUse             = errors.New("module is required by other modules")

	// Dependency resolution errors
	ErrCircularDependency      = graph.ErrCyclicDependency
	ErrModuleDependencyMissing = graph.ErrUnresolvedDependency

	// Hook errors
	ErrHookFailed   = errors.New("lifecycle hook failed")
	ErrHookPanicked = errors.New("lifecycle hook panicked")
	ErrUnknownHook  = errors.New("unknown lifecycle hook")

	// Internal consistency errors
	ErrIllegalTransition = lifecycle.ErrIllegalTransition
)

// HookFailure records a single hook of a single module that returned an
// error or panicked.
type HookFailure struct {
	Module string
	Hook   Hook
	Cause  error
}

func (e *HookFailure) Error() string {
	return fmt.Sprintf("%s: module %q hook %s: %v", ErrHookFailed, e.Module, e.Hook, e.Cause)
}

func (e *HookFailure) Is(target error) bool {
	return target == ErrHookFailed
}

func (e *HookFailure) Unwrap() error {
	return e.Cause
}

// ModuleInUseError is returned when unloading a module that other registered
// modules still declare as a dependency.
type ModuleInUseError struct {
	Module     string
	Dependents []string
}

func (e *ModuleInUseError) Error() string {
	return fmt.Sprintf("%s: %q is required by %s", ErrModuleInUse, e.Module, strings.Join(e.Dependents, ", "))
}

func (e *ModuleInUseError) Is(target error) bool {
	return target == ErrModuleInUse
}

// IsErrCircularDependency reports whether err is a dependency cycle.
func IsErrCircularDependency(err error) bool {
	return errors.Is(err, ErrCircularDependency)
}

// IsErrModuleDependencyMissing reports whether err is an unresolved dependency.
func IsErrModuleDependencyMissing(err error) bool {
	return errors.Is(err, ErrModuleDependencyMissing)
}

// IsHookFailure reports whether err is (or wraps) a hook failure.
func IsHookFailure(err error) bool {
	return errors.Is(err, ErrHookFailed)
}
