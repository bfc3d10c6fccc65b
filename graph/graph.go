// Package graph builds the module dependency graph and computes start order,
// stop order and cascading-stop sets over it.
//
// Modules are stored in an arena: every module id maps to a dense index and
// edges are slices of indices. There are no pointers between nodes, so the
// graph can be rebuilt cheaply whenever the module set changes.
package graph

import "fmt"

// Node is the input to Build: a module id and the ids it depends on.
type Node struct {
	ID           string
	Dependencies []string
}

// Graph is an immutable, validated dependency graph. It is guaranteed to be
// acyclic and every edge points at a known node.
type Graph struct {
	ids        []string
	index      map[string]int
	deps       [][]int // deps[i] are the modules i depends on, in declared order
	dependents [][]int // dependents[i] are the modules that depend on i
	order      []int   // topological start order
}

const (
	white = iota // not visited
	gray         // on the current DFS path
	black        // finished
)

// Build validates nodes and returns the resulting graph. It has no side
// effects; the same input always yields the same graph and the same order.
func Build(nodes []Node) (*Graph, error) {
	g := &Graph{
		ids:        make([]string, 0, len(nodes)),
		index:      make(map[string]int, len(nodes)),
		deps:       make([][]int, len(nodes)),
		dependents: make([][]int, len(nodes)),
	}

	for _, n := range nodes {
		if n.ID == "" {
			return nil, ErrEmptyModuleID
		}
		if _, exists := g.index[n.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateModule, n.ID)
		}
		g.index[n.ID] = len(g.ids)
		g.ids = append(g.ids, n.ID)
	}

	for i, n := range nodes {
		seen := make(map[int]bool, len(n.Dependencies))
		for _, dep := range n.Dependencies {
			j, ok := g.index[dep]
			if !ok {
				return nil, &UnresolvedDependencyError{Module: n.ID, Missing: dep}
			}
			if seen[j] {
				continue
			}
			seen[j] = true
			g.deps[i] = append(g.deps[i], j)
			g.dependents[j] = append(g.dependents[j], i)
		}
	}

	order, err := g.sort()
	if err != nil {
		return nil, err
	}
	g.order = order
	return g, nil
}

// sort runs a three-color depth-first traversal. Roots are taken in
// registration order and dependencies in declared order, so the resulting
// post-order is deterministic. A back-edge to a gray node is a cycle.
func (g *Graph) sort() ([]int, error) {
	color := make([]int, len(g.ids))
	order := make([]int, 0, len(g.ids))
	path := make([]int, 0, len(g.ids))

	var visit func(int) error
	visit = func(n int) error {
		color[n] = gray
		path = append(path, n)

		for _, d := range g.deps[n] {
			switch color[d] {
			case gray:
				return &CyclicDependencyError{Cycle: g.cycleFrom(path, d)}
			case white:
				if err := visit(d); err != nil {
					return err
				}
			}
		}

		path = path[:len(path)-1]
		color[n] = black
		order = append(order, n)
		return nil
	}

	for n := range g.ids {
		if color[n] != white {
			continue
		}
		if err := visit(n); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// cycleFrom extracts the cycle closed by a back-edge to start. The path
// holds the gray nodes in visit order, so the cycle is the path suffix
// beginning at start, closed by start again.
func (g *Graph) cycleFrom(path []int, start int) []string {
	i := len(path) - 1
	for i >= 0 && path[i] != start {
		i--
	}
	cycle := make([]string, 0, len(path)-i+1)
	for _, n := range path[i:] {
		cycle = append(cycle, g.ids[n])
	}
	return append(cycle, g.ids[start])
}

// Len returns the number of modules in the graph.
func (g *Graph) Len() int {
	return len(g.ids)
}

// Has reports whether id is a node of the graph.
func (g *Graph) Has(id string) bool {
	_, ok := g.index[id]
	return ok
}

// IDs returns the module ids in registration order.
func (g *Graph) IDs() []string {
	out := make([]string, len(g.ids))
	copy(out, g.ids)
	return out
}

// Dependencies returns the direct dependencies of id in declared order.
func (g *Graph) Dependencies(id string) ([]string, error) {
	i, ok := g.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModule, id)
	}
	return g.names(g.deps[i]), nil
}

// Dependents returns the modules that directly depend on id.
func (g *Graph) Dependents(id string) ([]string, error) {
	i, ok := g.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModule, id)
	}
	return g.names(g.dependents[i]), nil
}

func (g *Graph) names(idx []int) []string {
	out := make([]string, 0, len(idx))
	for _, i := range idx {
		out = append(out, g.ids[i])
	}
	return out
}
