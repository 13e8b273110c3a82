// SPDX-License-Identifier: MPL-2.0

package dag

import (
	"errors"
	"slices"
	"testing"
)

// edge is a dependency edge: from must be ordered before to.
type edge struct{ from, to string }

func TestTopologicalSort(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		nodes []string
		edges []edge
		// before lists pairs that must keep their relative order.
		before []edge
		want   []string
	}{
		{name: "empty"},
		{name: "single module", nodes: []string{"entry.js"}, want: []string{"entry.js"}},
		{
			name:  "chain",
			edges: []edge{{"leaf.js", "util.js"}, {"util.js", "entry.js"}},
			want:  []string{"leaf.js", "util.js", "entry.js"},
		},
		{
			name: "shared dependency",
			edges: []edge{
				{"leaf.js", "util.js"}, {"leaf.js", "math.js"},
				{"util.js", "entry.js"}, {"math.js", "entry.js"},
			},
			before: []edge{{"leaf.js", "util.js"}, {"leaf.js", "math.js"}, {"util.js", "entry.js"}, {"math.js", "entry.js"}},
		},
		{
			name:   "disconnected",
			nodes:  []string{"a.js", "b.js"},
			edges:  []edge{{"dep.js", "main.js"}},
			before: []edge{{"dep.js", "main.js"}},
		},
		{
			name:  "duplicate edges collapse",
			edges: []edge{{"dep.js", "main.js"}, {"dep.js", "main.js"}},
			want:  []string{"dep.js", "main.js"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g := New[string]()
			for _, n := range tt.nodes {
				g.AddNode(n)
			}
			for _, e := range tt.edges {
				g.AddEdge(e.from, e.to)
			}

			order, err := g.TopologicalSort()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(order) != g.Len() {
				t.Errorf("ordered %d of %d nodes: %v", len(order), g.Len(), order)
			}
			if tt.want != nil && !slices.Equal(order, tt.want) {
				t.Errorf("order = %v, want %v", order, tt.want)
			}
			for _, p := range tt.before {
				if slices.Index(order, p.from) > slices.Index(order, p.to) {
					t.Errorf("%s must precede %s in %v", p.from, p.to, order)
				}
			}
		})
	}
}

func TestTopologicalSort_Cycles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		edges    []edge
		minCycle int
	}{
		{"self import", []edge{{"a.js", "a.js"}}, 1},
		{"mutual imports", []edge{{"a.js", "b.js"}, {"b.js", "a.js"}}, 2},
		{"three modules", []edge{{"a.js", "b.js"}, {"b.js", "c.js"}, {"c.js", "a.js"}}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g := New[string]()
			for _, e := range tt.edges {
				g.AddEdge(e.from, e.to)
			}
			_, err := g.TopologicalSort()
			var cycleErr *CycleError
			if !errors.As(err, &cycleErr) {
				t.Fatalf("expected *CycleError, got %T: %v", err, err)
			}
			if len(cycleErr.Cycle) < tt.minCycle {
				t.Errorf("cycle %v has fewer than %d nodes", cycleErr.Cycle, tt.minCycle)
			}
		})
	}
}

func TestCycleError_Message(t *testing.T) {
	t.Parallel()

	err := &CycleError{Cycle: []string{"0", "1", "2"}}
	if got, want := err.Error(), "dependency cycle detected: 0 -> 1 -> 2"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestTopologicalSort_ModuleIDs(t *testing.T) {
	t.Parallel()
	// Edges point from a dependency to its importer: 0 imports 1 and 2, 1 imports 2.
	g := New[int]()
	g.AddNode(0)
	g.AddEdge(1, 0)
	g.AddEdge(2, 0)
	g.AddEdge(2, 1)

	order, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(order, []int{2, 1, 0}) {
		t.Errorf("expected [2 1 0], got %v", order)
	}
	if g.Len() != 3 {
		t.Errorf("expected 3 nodes, got %d", g.Len())
	}
}

func TestTopologicalSort_PartialOrderOnCycle(t *testing.T) {
	t.Parallel()
	g := New[int]()
	g.AddEdge(3, 0)
	g.AddEdge(1, 2)
	g.AddEdge(2, 1)

	order, err := g.TopologicalSort()
	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected *CycleError, got %v", err)
	}
	if !slices.Equal(cycleErr.Cycle, []string{"1", "2"}) {
		t.Errorf("expected cycle [1 2], got %v", cycleErr.Cycle)
	}
	if !slices.Equal(order, []int{3, 0}) {
		t.Errorf("expected the acyclic part [3 0] to be ordered, got %v", order)
	}
}
