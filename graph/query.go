package graph

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/albertocavalcante/go-bundle/bundle"
)

// Get returns the node for a required name, or nil if not found.
func (g *Graph) Get(name string) *Node {
	return g.Nodes[name]
}

// GetByPackage returns the nodes whose selected package has the given
// package name. A package providing several names yields several nodes.
func (g *Graph) GetByPackage(pkg string) []*Node {
	var nodes []*Node
	for _, name := range g.Order {
		if n := g.Nodes[name]; n.Package.Name == pkg {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// Contains returns true if the graph contains the required name.
func (g *Graph) Contains(name string) bool {
	_, ok := g.Nodes[name]
	return ok
}

// Neighbors returns the names sharing a contract with name.
func (g *Graph) Neighbors(name string) []string {
	if node := g.Nodes[name]; node != nil {
		return node.Neighbors
	}
	return nil
}

// Declarers returns the names whose package declares the contract, in
// selection order.
func (g *Graph) Declarers(contractName string) []string {
	var names []string
	for _, name := range g.Order {
		if _, ok := g.Nodes[name].Contracts[contractName]; ok {
			names = append(names, name)
		}
	}
	return names
}

// Links returns the edges touching name.
func (g *Graph) Links(name string) []Edge {
	var edges []Edge
	for _, e := range g.Edges {
		if e.From == name || e.To == name {
			edges = append(edges, e)
		}
	}
	return edges
}

// Path finds the shortest chain of shared contracts from one package to
// another. Returns nil if no path exists.
func (g *Graph) Path(from, to string) []string {
	if g.Nodes[from] == nil || g.Nodes[to] == nil {
		return nil
	}
	if from == to {
		return []string{from}
	}

	type queueItem struct {
		name string
		path []string
	}

	visited := map[string]bool{from: true}
	queue := []queueItem{{name: from, path: []string{from}}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, next := range g.Nodes[current.name].Neighbors {
			if visited[next] {
				continue
			}
			path := append(slices.Clone(current.path), next)
			if next == to {
				return path
			}
			visited[next] = true
			queue = append(queue, queueItem{name: next, path: path})
		}
	}

	return nil
}

// Components returns the groups of packages connected through shared
// contracts. Each group is sorted and groups are ordered by their first name.
func (g *Graph) Components() [][]string {
	visited := make(map[string]bool, len(g.Nodes))
	var components [][]string

	for _, start := range slices.Sorted(maps.Keys(g.Nodes)) {
		if visited[start] {
			continue
		}
		var group []string
		stack := []string{start}
		visited[start] = true
		for len(stack) > 0 {
			name := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			group = append(group, name)
			for _, next := range g.Nodes[name].Neighbors {
				if !visited[next] {
					visited[next] = true
					stack = append(stack, next)
				}
			}
		}
		slices.Sort(group)
		components = append(components, group)
	}
	return components
}

// Explain returns a detailed explanation of why a package is in the bundle.
func (g *Graph) Explain(name string) (*Explanation, error) {
	node := g.Nodes[name]
	if node == nil {
		return nil, fmt.Errorf("package %q not found in graph", name)
	}

	return &Explanation{
		Name:      name,
		Package:   node.Package,
		Selection: node.Selection,
		Links:     g.Links(name),
		Summary:   g.summarize(node),
	}, nil
}

func (g *Graph) summarize(node *Node) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s is served by %s", node.Name, node.Package)
	if sel := node.Selection; sel != nil {
		if sel.Strategy != "" {
			fmt.Fprintf(&b, " (%s, round %d): %s", sel.Strategy, sel.Round, sel.DecidingFactor)
		}
		if evicted := len(sel.Candidates) - 1; evicted > 0 {
			fmt.Fprintf(&b, "; %d earlier selection(s) evicted", evicted)
		}
	}
	if len(node.Neighbors) > 0 {
		fmt.Fprintf(&b, "; agrees with %s", strings.Join(node.Neighbors, ", "))
	}
	return b.String()
}

// Stats returns statistics about the graph.
func (g *Graph) Stats() Stats {
	stats := Stats{
		Packages:   len(g.Nodes),
		Edges:      len(g.Edges),
		Contracts:  len(g.Contracts),
		Components: len(g.Components()),
	}
	for _, node := range g.Nodes {
		if node.IsTrigger {
			stats.Triggers++
		}
		if len(node.Neighbors) == 0 {
			stats.Isolated++
		}
	}
	for _, s := range g.Steps {
		if s.Kind == bundle.StepLower {
			stats.Downgrades++
			stats.Evictions += len(s.Removed)
		}
	}
	return stats
}
