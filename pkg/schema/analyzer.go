package schema

import "sync"

// Analyzer answers boxing questions over a containment graph.
//
// MustIndirect is a pure function of the graph. Ancestors additionally
// memoizes one closure table per target message; the memo is guarded so an
// Analyzer may be shared between goroutines.
type Analyzer struct {
	graph *Graph

	mu        sync.Mutex
	rev       map[string][]string
	ancestors map[string]map[string][]string
}

// NewAnalyzer returns an analyzer over g.
func NewAnalyzer(g *Graph) *Analyzer {
	return &Analyzer{
		graph:     g,
		ancestors: make(map[string]map[string][]string),
	}
}

// Graph returns the analyzed graph.
func (a *Analyzer) Graph() *Graph { return a.graph }

// MustIndirect reports whether to is reachable from from, following
// containment edges. Paths of length zero count: a message always reaches
// itself, so a directly self-recursive field must box.
//
// The search is depth-first with a visited set scoped to the call, so cycles
// elsewhere in the graph cannot loop it and results do not depend on call
// order.
func (a *Analyzer) MustIndirect(from, to string) bool {
	return a.hasPath(from, to, make(map[string]bool))
}

func (a *Analyzer) hasPath(from, to string, visited map[string]bool) bool {
	if visited[from] {
		return false
	}
	if from == to {
		return true
	}
	visited[from] = true

	for _, dep := range a.graph.Edges(from) {
		if a.hasPath(dep, to, visited) {
			return true
		}
	}
	return false
}

// FieldBoxed reports whether field f of message container must be stored
// behind a pointer. Only singular message fields can box; the field is boxed
// when its target transitively contains the container.
func (a *Analyzer) FieldBoxed(container string, f Field) bool {
	if !f.IsMessageRef() {
		return false
	}
	return a.MustIndirect(f.Type.Ref, container)
}

// Ancestors returns every message that transitively contains to, mapped to
// the witness path from that message down to to. The target is always its own
// ancestor with path [to].
//
// Uses BFS over the reversed graph, so each returned path is a shortest one.
// The returned map is shared; callers must not modify it.
func (a *Analyzer) Ancestors(to string) map[string][]string {
	a.mu.Lock()
	defer a.mu.Unlock()

	if closure, ok := a.ancestors[to]; ok {
		return closure
	}
	if a.rev == nil {
		a.rev = a.graph.reverse()
	}

	// result maps ancestor -> path from ancestor to target
	result := map[string][]string{
		to: {to},
	}
	queue := []string{to}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, parent := range a.rev[current] {
			if _, seen := result[parent]; seen {
				continue
			}
			currentPath := result[current]
			path := make([]string, 0, len(currentPath)+1)
			path = append(path, parent)
			path = append(path, currentPath...)
			result[parent] = path
			queue = append(queue, parent)
		}
	}

	a.ancestors[to] = result
	return result
}

// Path returns a containment path from from to to, or nil when to is not
// reachable.
func (a *Analyzer) Path(from, to string) []string {
	path, ok := a.Ancestors(to)[from]
	if !ok {
		return nil
	}
	out := make([]string, len(path))
	copy(out, path)
	return out
}
