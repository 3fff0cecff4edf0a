// Package graph provides dependency ordering for module sequences.
//
// It records which module requires which, and answers two questions the
// loader needs before evaluating anything: is there an order in which every
// requirement is loaded first, and if not, which modules form a cycle.
package graph

import "sort"

// Graph is a directed graph of module names. An edge a -> b means a
// requires b. Not safe for concurrent mutation.
type Graph struct {
	nodes    []string
	index    map[string]int
	requires map[string][]string
}

// New creates an empty graph
func New() *Graph {
	return &Graph{
		index:    make(map[string]int),
		requires: make(map[string][]string),
	}
}

// AddNode registers name. Adding a name twice reports false.
func (g *Graph) AddNode(name string) bool {
	if _, ok := g.index[name]; ok {
		return false
	}
	g.index[name] = len(g.nodes)
	g.nodes = append(g.nodes, name)
	return true
}

// Has reports whether name was added
func (g *Graph) Has(name string) bool {
	_, ok := g.index[name]
	return ok
}

// AddEdge records that from requires to. Both nodes must already exist.
func (g *Graph) AddEdge(from, to string) {
	g.requires[from] = append(g.requires[from], to)
}

// Requires returns the direct requirements of name
func (g *Graph) Requires(name string) []string {
	out := make([]string, len(g.requires[name]))
	copy(out, g.requires[name])
	return out
}

// Nodes returns names in insertion order
func (g *Graph) Nodes() []string {
	out := make([]string, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Sort returns a topological order in which every node follows its
// requirements. Ties keep insertion order, so an already valid sequence
// sorts to itself. ok is false when the graph has a cycle.
func (g *Graph) Sort() (order []string, ok bool) {
	pending := make(map[string]int, len(g.nodes))
	dependents := make(map[string][]string, len(g.nodes))
	for _, n := range g.nodes {
		for _, r := range g.requires[n] {
			if !g.Has(r) {
				continue
			}
			pending[n]++
			dependents[r] = append(dependents[r], n)
		}
	}

	var ready []string
	for _, n := range g.nodes {
		if pending[n] == 0 {
			ready = append(ready, n)
		}
	}

	for len(ready) > 0 {
		g.byIndex(ready)
		n := ready[0]
		ready = ready[1:]
		order = append(order, n)
		for _, d := range dependents[n] {
			pending[d]--
			if pending[d] == 0 {
				ready = append(ready, d)
			}
		}
	}

	return order, len(order) == len(g.nodes)
}

func (g *Graph) byIndex(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		return g.index[names[i]] < g.index[names[j]]
	})
}

// Cycles returns every node that sits on a dependency cycle, in insertion
// order.
func (g *Graph) Cycles() []string {
	const (
		white = iota
		grey
		black
	)
	color := make(map[string]int, len(g.nodes))
	onCycle := make(map[string]bool)
	var stack []string

	var visit func(n string)
	visit = func(n string) {
		color[n] = grey
		stack = append(stack, n)
		for _, r := range g.requires[n] {
			if !g.Has(r) {
				continue
			}
			switch color[r] {
			case white:
				visit(r)
			case grey:
				for i := len(stack) - 1; i >= 0; i-- {
					onCycle[stack[i]] = true
					if stack[i] == r {
						break
					}
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[n] = black
	}

	for _, n := range g.nodes {
		if color[n] == white {
			visit(n)
		}
	}

	var out []string
	for _, n := range g.nodes {
		if onCycle[n] {
			out = append(out, n)
		}
	}
	return out
}
