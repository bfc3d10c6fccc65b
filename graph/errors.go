package graph

import (
	"errors"
	"fmt"
	"strings"
)

// Static errors for graph package
var (
	ErrUnresolvedDependency = errors.New("unresolved dependency")
	ErrCyclicDependency     = errors.New("circular dependency detected")
	ErrDuplicateModule      = errors.New("duplicate module id")
	ErrEmptyModuleID        = errors.New("module id is empty")
	ErrUnknownModule        = errors.New("module is not part of the graph")
)

// UnresolvedDependencyError reports a declared dependency with no matching module.
type UnresolvedDependencyError struct {
	Module  string
	Missing string
}

func (e *UnresolvedDependencyError) Error() string {
	return fmt.Sprintf("%s: module %q depends on non-existent module %q", ErrUnresolvedDependency, e.Module, e.Missing)
}

func (e *UnresolvedDependencyError) Is(target error) bool {
	return target == ErrUnresolvedDependency
}

// CyclicDependencyError carries the full cycle. The first member is repeated
// at the end, e.g. [a b c a].
type CyclicDependencyError struct {
	Cycle []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("%s: cycle: %s", ErrCyclicDependency, strings.Join(e.Cycle, " -> "))
}

func (e *CyclicDependencyError) Is(target error) bool {
	return target == ErrCyclicDependency
}
