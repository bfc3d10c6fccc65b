package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chain() []Node {
	return []Node{
		{ID: "module1"},
		{ID: "module2", Dependencies: []string{"module1"}},
		{ID: "module3", Dependencies: []string{"module2"}},
	}
}

func TestBuild(t *testing.T) {
	t.Run("should_order_chain_dependencies_first", func(t *testing.T) {
		g, err := Build(chain())
		require.NoError(t, err)
		assert.Equal(t, []string{"module1", "module2", "module3"}, g.StartOrder())
		assert.Equal(t, 3, g.Len())
	})

	t.Run("should_order_regardless_of_registration_order", func(t *testing.T) {
		g, err := Build([]Node{
			{ID: "api", Dependencies: []string{"cache", "database"}},
			{ID: "auth", Dependencies: []string{"database", "logger"}},
			{ID: "logger"},
			{ID: "cache", Dependencies: []string{"database"}},
			{ID: "database"},
		})
		require.NoError(t, err)

		order := g.StartOrder()
		pos := make(map[string]int, len(order))
		for i, id := range order {
			pos[id] = i
		}
		assert.Less(t, pos["database"], pos["cache"])
		assert.Less(t, pos["cache"], pos["api"])
		assert.Less(t, pos["database"], pos["auth"])
		assert.Less(t, pos["logger"], pos["auth"])
	})

	t.Run("should_be_deterministic", func(t *testing.T) {
		nodes := []Node{
			{ID: "c"}, {ID: "a"}, {ID: "b"},
			{ID: "d", Dependencies: []string{"b", "a"}},
		}
		first, err := Build(nodes)
		require.NoError(t, err)
		for range 20 {
			again, err := Build(nodes)
			require.NoError(t, err)
			assert.Equal(t, first.StartOrder(), again.StartOrder())
		}
		assert.Equal(t, []string{"c", "a", "b", "d"}, first.StartOrder())
	})

	t.Run("should_report_unresolved_dependency", func(t *testing.T) {
		_, err := Build([]Node{{ID: "web", Dependencies: []string{"database"}}})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnresolvedDependency)

		var unresolved *UnresolvedDependencyError
		require.True(t, errors.As(err, &unresolved))
		assert.Equal(t, "web", unresolved.Module)
		assert.Equal(t, "database", unresolved.Missing)
	})

	t.Run("should_report_full_cycle", func(t *testing.T) {
		_, err := Build([]Node{
			{ID: "root"},
			{ID: "a", Dependencies: []string{"root", "b"}},
			{ID: "b", Dependencies: []string{"c"}},
			{ID: "c", Dependencies: []string{"a"}},
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrCyclicDependency)

		var cyclic *CyclicDependencyError
		require.True(t, errors.As(err, &cyclic))
		assert.Equal(t, []string{"a", "b", "c", "a"}, cyclic.Cycle)
		assert.Contains(t, err.Error(), "a -> b -> c -> a")
	})

	t.Run("should_treat_self_dependency_as_cycle", func(t *testing.T) {
		_, err := Build([]Node{{ID: "loop", Dependencies: []string{"loop"}}})
		var cyclic *CyclicDependencyError
		require.True(t, errors.As(err, &cyclic))
		assert.Equal(t, []string{"loop", "loop"}, cyclic.Cycle)
	})

	t.Run("should_reject_duplicates_and_empty_ids", func(t *testing.T) {
		_, err := Build([]Node{{ID: "a"}, {ID: "a"}})
		assert.ErrorIs(t, err, ErrDuplicateModule)

		_, err = Build([]Node{{ID: ""}})
		assert.ErrorIs(t, err, ErrEmptyModuleID)
	})

	t.Run("should_collapse_repeated_dependencies", func(t *testing.T) {
		g, err := Build([]Node{{ID: "a"}, {ID: "b", Dependencies: []string{"a", "a"}}})
		require.NoError(t, err)
		deps, err := g.Dependencies("b")
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, deps)
		dependents, err := g.Dependents("a")
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, dependents)
	})
}

func TestScheduler(t *testing.T) {
	g, err := Build(chain())
	require.NoError(t, err)

	t.Run("stop_order_is_exact_reverse", func(t *testing.T) {
		assert.Equal(t, []string{"module3", "module2", "module1"}, StopOrder(g.StartOrder()))
		assert.Equal(t, []string{"module1", "module2", "module3"}, g.StartOrder(), "input must not be mutated")
	})

	t.Run("transitive_dependents", func(t *testing.T) {
		deps, err := g.TransitiveDependents("module1")
		require.NoError(t, err)
		assert.Equal(t, []string{"module2", "module3"}, deps)

		deps, err = g.TransitiveDependents("module3")
		require.NoError(t, err)
		assert.Empty(t, deps)

		_, err = g.TransitiveDependents("missing")
		assert.ErrorIs(t, err, ErrUnknownModule)
	})

	t.Run("transitive_dependents_through_diamond", func(t *testing.T) {
		d, err := Build([]Node{
			{ID: "base"},
			{ID: "left", Dependencies: []string{"base"}},
			{ID: "right", Dependencies: []string{"base"}},
			{ID: "top", Dependencies: []string{"left", "right"}},
			{ID: "other"},
		})
		require.NoError(t, err)
		deps, err := d.TransitiveDependents("base")
		require.NoError(t, err)
		assert.Equal(t, []string{"left", "right", "top"}, deps)
	})

	t.Run("restrict_keeps_order", func(t *testing.T) {
		out := Restrict(StopOrder(g.StartOrder()), map[string]bool{"module1": true, "module3": true})
		assert.Equal(t, []string{"module3", "module1"}, out)
	})
}
