package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/featuregraph/internal/ir"
)

// CycleWarning reports a set of declared links that form a cycle. Such a
// definition cannot be built because every link edit is guarded.
type CycleWarning struct {
	Path    []string `json:"path"`    // Cycle path: ["Pad", "Sketch", "Pad"]
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "error"
}

// AnalyzeCycles finds every cycle among the declared links of spec.
//
// The algorithm:
//  1. Build the object -> link target graph in declaration order
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 or a self-link as a cycle
//
// Warnings are ordered by the declaration of the first object on their path.
// Links to undeclared objects are ignored; Validate reports them.
func AnalyzeCycles(spec *ir.DocumentSpec) []CycleWarning {
	graph := buildLinkGraph(spec)
	warnings := []CycleWarning{}
	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			warnings = append(warnings, cycleSCCToWarning(scc, graph))
		}
	}
	slices.SortFunc(warnings, func(a, b CycleWarning) int {
		return graph.index[a.Path[0]] - graph.index[b.Path[0]]
	})
	return warnings
}

// linkGraph keeps nodes in declaration order so traversal is deterministic.
type linkGraph struct {
	nodes []string
	index map[string]int
	edges map[string][]string
}

func buildLinkGraph(spec *ir.DocumentSpec) *linkGraph {
	g := &linkGraph{
		index: make(map[string]int, len(spec.Objects)),
		edges: make(map[string][]string, len(spec.Objects)),
	}
	for _, obj := range spec.Objects {
		if _, dup := g.index[obj.Name]; dup {
			continue
		}
		g.index[obj.Name] = len(g.nodes)
		g.nodes = append(g.nodes, obj.Name)
	}
	for _, obj := range spec.Objects {
		seen := make(map[string]bool)
		for _, prop := range obj.LinkNames() {
			for _, target := range obj.Links[prop] {
				if _, ok := g.index[target]; !ok || seen[target] {
					continue
				}
				seen[target] = true
				g.edges[obj.Name] = append(g.edges[obj.Name], target)
			}
		}
	}
	return g
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, g *linkGraph) bool {
	for _, neighbor := range g.edges[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Single-node SCCs without self-loops are NOT cycles.
func tarjanSCC(g *linkGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.edges[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// Root of an SCC: pop it.
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range g.nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

// cycleSCCToWarning converts an SCC to a CycleWarning. The path starts at
// the earliest declared member.
func cycleSCCToWarning(scc []string, g *linkGraph) CycleWarning {
	if len(scc) == 1 {
		name := scc[0]
		return CycleWarning{
			Path:    []string{name, name},
			Message: fmt.Sprintf("%s links to itself", name),
			Level:   "error",
		}
	}

	path := reconstructCyclePath(scc, g)
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("link cycle: %s", strings.Join(path, " -> ")),
		Level:   "error",
	}
}

// reconstructCyclePath returns the shortest cycle through the earliest
// declared member of scc, found by breadth-first search inside the SCC.
func reconstructCyclePath(scc []string, g *linkGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}

	members := make(map[string]bool, len(scc))
	start := scc[0]
	for _, node := range scc {
		members[node] = true
		if g.index[node] < g.index[start] {
			start = node
		}
	}

	parent := map[string]string{start: start}
	queue := []string{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range g.edges[current] {
			if next == start {
				var path []string
				for n := current; ; n = parent[n] {
					path = append(path, n)
					if n == start {
						break
					}
				}
				slices.Reverse(path)
				return append(path, start)
			}
			if _, seen := parent[next]; !seen && members[next] {
				parent[next] = current
				queue = append(queue, next)
			}
		}
	}
	return []string{start}
}
