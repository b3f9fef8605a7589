package constraint

import (
	"fmt"
	"sort"
	"strings"
)

// CycleWarning describes one reference cycle among filter entities.
type CycleWarning struct {
	Path    []string `json:"path"`    // Cycle path: ["a", "b", "a"]
	Message string   `json:"message"` // Human-readable description
}

// AnalyzeCycles reports every reference cycle in an entity table.
//
// Compile only ever finds the first cycle on the path it is expanding;
// this is the whole-table view used by `layerq filters check`.
//
// The algorithm:
//  1. Build entity → referenced entity graph from apply-filter nodes
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1, or a self-reference, as a cycle
//
// References to ids absent from the table are ignored here; see
// DanglingReferences. Output is sorted for stable reporting.
func AnalyzeCycles(table Table) []CycleWarning {
	if len(table) == 0 {
		return []CycleWarning{}
	}

	graph := buildReferenceGraph(table)
	sccs := tarjanSCC(graph, table.IDs())

	warnings := []CycleWarning{}
	for _, scc := range sccs {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			warnings = append(warnings, cycleSCCToWarning(scc, graph))
		}
	}

	sort.Slice(warnings, func(i, j int) bool {
		return warnings[i].Path[0] < warnings[j].Path[0]
	})
	return warnings
}

// DanglingReferences maps entity id → referenced ids missing from table.
// Every entry would compile to UNKNOWN_FILTER.
func DanglingReferences(table Table) map[string][]string {
	dangling := make(map[string][]string)
	for _, id := range table.IDs() {
		for _, ref := range references(table[id].Filter) {
			if _, ok := table[ref]; !ok {
				dangling[id] = append(dangling[id], ref)
			}
		}
	}
	return dangling
}

// referenceGraph maps entity id → ids of entities it references.
type referenceGraph map[string][]string

func buildReferenceGraph(table Table) referenceGraph {
	graph := make(referenceGraph, len(table))
	for _, id := range table.IDs() {
		graph[id] = []string{}
		for _, ref := range references(table[id].Filter) {
			if _, ok := table[ref]; ok {
				graph[id] = append(graph[id], ref)
			}
		}
	}
	return graph
}

// references lists the distinct entity ids a tree references, in
// first-seen order.
func references(n Node) []string {
	var refs []string
	seen := make(map[string]bool)
	var walk func(Node)
	walk = func(n Node) {
		switch node := n.(type) {
		case Block:
			for _, child := range node.Children {
				walk(child)
			}
		case ApplyFilter:
			if !seen[node.FilterID] {
				seen[node.FilterID] = true
				refs = append(refs, node.FilterID)
			}
		}
	}
	walk(n)
	return refs
}

func hasSelfLoop(node string, graph referenceGraph) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components. Nodes are visited in
// the given order so results are deterministic.
func tarjanSCC(graph referenceGraph, order []string) [][]string {
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

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

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
			sort.Strings(scc)
			sccs = append(sccs, scc)
		}
	}

	for _, node := range order {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

func cycleSCCToWarning(scc []string, graph referenceGraph) CycleWarning {
	if len(scc) == 1 {
		id := scc[0]
		return CycleWarning{
			Path:    []string{id, id},
			Message: fmt.Sprintf("Self-referencing filter: %s → %s", id, id),
		}
	}

	path := reconstructCyclePath(scc, graph)
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("Filter reference cycle: %s", strings.Join(path, " → ")),
	}
}

// reconstructCyclePath walks edges inside the SCC from its first
// (lowest) member until it returns to it.
func reconstructCyclePath(scc []string, graph referenceGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}

	sccSet := make(map[string]bool)
	for _, node := range scc {
		sccSet[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if sccSet[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}

		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}

	return path
}
