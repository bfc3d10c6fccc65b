package graph

import (
	"fmt"
	"slices"
)

// StartOrder returns every module such that for each edge A depends-on B,
// B comes before A. Ties are broken by registration order.
func (g *Graph) StartOrder() []string {
	return g.names(g.order)
}

// StopOrder returns the exact reverse of a start order: a module started
// after its prerequisites is stopped before them.
func StopOrder(start []string) []string {
	out := slices.Clone(start)
	slices.Reverse(out)
	return out
}

// TransitiveDependents returns every module that directly or indirectly
// depends on id, in start order. The module itself is not included.
func (g *Graph) TransitiveDependents(id string) ([]string, error) {
	root, ok := g.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModule, id)
	}

	reached := make([]bool, len(g.ids))
	queue := []int{root}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, d := range g.dependents[n] {
			if reached[d] {
				continue
			}
			reached[d] = true
			queue = append(queue, d)
		}
	}

	out := make([]string, 0)
	for _, n := range g.order {
		if reached[n] && n != root {
			out = append(out, g.ids[n])
		}
	}
	return out, nil
}

// Restrict filters order down to the members of set, keeping order.
func Restrict(order []string, set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for _, id := range order {
		if set[id] {
			out = append(out, id)
		}
	}
	return out
}
