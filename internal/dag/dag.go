// Package dag provides a directed acyclic graph over load-order constraints.
// It supports cycle detection with path reporting, topological sorting, and
// grouping nodes into sequential load levels.
package dag

import (
	"fmt"
	"sort"
)

// Node is a single entry in the graph, identified by its tree path.
type Node struct {
	// ID is the unique identifier (root-relative path)
	ID string
	// Data holds arbitrary node data
	Data any
}

// Graph is a directed acyclic graph of load-order constraints.
// An edge from A to B means B must load after A.
type Graph struct {
	nodes      map[string]*Node
	dependents map[string][]string // prerequisite -> entries that load after it
	deps       map[string][]string // entry -> its prerequisites
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:      make(map[string]*Node),
		dependents: make(map[string][]string),
		deps:       make(map[string][]string),
	}
}

// AddNode adds a node, updating its data if it already exists.
func (g *Graph) AddNode(id string, data any) {
	if n, ok := g.nodes[id]; ok {
		n.Data = data
		return
	}
	g.nodes[id] = &Node{ID: id, Data: data}
	g.dependents[id] = []string{}
	g.deps[id] = []string{}
}

// AddEdge records that after must load once before has loaded.
func (g *Graph) AddEdge(before, after string) error {
	if _, ok := g.nodes[before]; !ok {
		return fmt.Errorf("node %q does not exist", before)
	}
	if _, ok := g.nodes[after]; !ok {
		return fmt.Errorf("node %q does not exist", after)
	}
	if before == after {
		return fmt.Errorf("self-loop detected: %s", before)
	}

	if !contains(g.dependents[before], after) {
		g.dependents[before] = append(g.dependents[before], after)
	}
	if !contains(g.deps[after], before) {
		g.deps[after] = append(g.deps[after], before)
	}
	return nil
}

// Node returns a node by ID.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Dependencies returns the prerequisites of a node.
func (g *Graph) Dependencies(id string) []string {
	return g.deps[id]
}

// Dependents returns the entries that load after a node.
func (g *Graph) Dependents(id string) []string {
	return g.dependents[id]
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, after := range g.dependents {
		count += len(after)
	}
	return count
}

// HasCycle reports whether the graph contains a cycle, along with the cycle path.
func (g *Graph) HasCycle() (bool, []string) {
	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	cameFrom := make(map[string]string)

	var cyclePath []string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		visited[id] = true
		onStack[id] = true

		for _, next := range g.dependents[id] {
			if !visited[next] {
				cameFrom[next] = id
				if dfs(next) {
					return true
				}
			} else if onStack[next] {
				// Walk back to reconstruct the cycle
				cyclePath = []string{next}
				for cur := id; cur != next; cur = cameFrom[cur] {
					cyclePath = append([]string{cur}, cyclePath...)
				}
				cyclePath = append([]string{next}, cyclePath...)
				return true
			}
		}

		onStack[id] = false
		return false
	}

	for id := range g.nodes {
		if !visited[id] {
			if dfs(id) {
				return true, cyclePath
			}
		}
	}
	return false, nil
}

// TopologicalSort returns nodes with every prerequisite before its dependents.
// Returns an error if the graph contains a cycle.
func (g *Graph) TopologicalSort() ([]*Node, error) {
	if cyclic, path := g.HasCycle(); cyclic {
		return nil, fmt.Errorf("cycle detected: %v", path)
	}

	visited := make(map[string]bool)
	var sorted []*Node

	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, dep := range g.deps[id] {
			visit(dep)
		}
		sorted = append(sorted, g.nodes[id])
	}

	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		visit(id)
	}
	return sorted, nil
}

// Levels groups nodes by load level: level 0 has no prerequisites, and every
// node at level N has all prerequisites at levels below N.
func (g *Graph) Levels() ([][]string, error) {
	if cyclic, path := g.HasCycle(); cyclic {
		return nil, fmt.Errorf("cycle detected: %v", path)
	}

	assigned := make(map[string]int)

	var levelOf func(id string) int
	levelOf = func(id string) int {
		if lvl, ok := assigned[id]; ok {
			return lvl
		}
		deps := g.deps[id]
		if len(deps) == 0 {
			assigned[id] = 0
			return 0
		}
		max := 0
		for _, dep := range deps {
			if l := levelOf(dep); l > max {
				max = l
			}
		}
		assigned[id] = max + 1
		return max + 1
	}

	maxLevel := 0
	for id := range g.nodes {
		if l := levelOf(id); l > maxLevel {
			maxLevel = l
		}
	}

	levels := make([][]string, maxLevel+1)
	for id, lvl := range assigned {
		levels[lvl] = append(levels[lvl], id)
	}
	for i := range levels {
		sort.Strings(levels[i])
	}
	return levels, nil
}

// Roots returns nodes with no prerequisites.
func (g *Graph) Roots() []string {
	var roots []string
	for id := range g.nodes {
		if len(g.deps[id]) == 0 {
			roots = append(roots, id)
		}
	}
	sort.Strings(roots)
	return roots
}

// Leaves returns nodes with no dependents.
func (g *Graph) Leaves() []string {
	var leaves []string
	for id := range g.nodes {
		if len(g.dependents[id]) == 0 {
			leaves = append(leaves, id)
		}
	}
	sort.Strings(leaves)
	return leaves
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
