package graph

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/albertocavalcante/go-bundle/bundle"
)

// Build creates a Graph from a resolved selection. order is the selection
// order reported by the bundle; names missing from it are appended sorted.
// steps is the resolution trace and may be nil.
func Build(selected map[string]bundle.Package, order []string, steps []bundle.Step) *Graph {
	g := &Graph{
		Nodes:     make(map[string]*Node, len(selected)),
		Contracts: make(map[string]string),
		Steps:     slices.Clone(steps),
	}

	seen := make(map[string]bool, len(selected))
	for _, name := range order {
		if _, ok := selected[name]; ok && !seen[name] {
			seen[name] = true
			g.Order = append(g.Order, name)
		}
	}
	for _, name := range slices.Sorted(maps.Keys(selected)) {
		if !seen[name] {
			g.Order = append(g.Order, name)
		}
	}

	for _, name := range g.Order {
		p := selected[name]
		node := &Node{
			Name:      name,
			Package:   bundle.RefOf(p),
			Contracts: p.Contracts().Values(),
		}
		g.Nodes[name] = node
		maps.Copy(g.Contracts, node.Contracts)
	}

	g.buildEdges()
	g.buildSelections()
	return g
}

func (g *Graph) buildEdges() {
	names := slices.Sorted(maps.Keys(g.Nodes))
	for i, a := range names {
		for _, b := range names[i+1:] {
			shared := sharedContracts(g.Nodes[a].Contracts, g.Nodes[b].Contracts)
			if len(shared) == 0 {
				continue
			}
			g.Edges = append(g.Edges, Edge{From: a, To: b, Contracts: shared})
			g.Nodes[a].Neighbors = append(g.Nodes[a].Neighbors, b)
			g.Nodes[b].Neighbors = append(g.Nodes[b].Neighbors, a)
		}
	}
	for _, n := range g.Nodes {
		slices.Sort(n.Neighbors)
	}
}

func sharedContracts(a, b map[string]string) []string {
	var shared []string
	for name := range a {
		if _, ok := b[name]; ok {
			shared = append(shared, name)
		}
	}
	slices.Sort(shared)
	return shared
}

// buildSelections replays the trace to attach candidate histories.
func (g *Graph) buildSelections() {
	current := make(map[string]bundle.Ref)
	history := make(map[string][]Candidate)
	lastStep := make(map[string]bundle.Step)

	for _, s := range g.Steps {
		if s.Kind == bundle.StepLower {
			for _, removed := range s.Removed {
				for name, ref := range current {
					if ref != removed {
						continue
					}
					cands := history[name]
					cands[len(cands)-1].RejectionReason = fmt.Sprintf(
						"evicted in round %d when %s was lowered to %s", s.Round, s.Name, s.Package)
					delete(current, name)
				}
			}
		}
		history[s.Name] = append(history[s.Name], Candidate{
			Package:  s.Package,
			Round:    s.Round,
			Strategy: s.Kind,
		})
		current[s.Name] = s.Package
		lastStep[s.Name] = s
	}

	for name, node := range g.Nodes {
		info := &SelectionInfo{
			SelectedVersion: node.Package.Version,
			Candidates:      history[name],
		}
		if n := len(info.Candidates); n > 0 && info.Candidates[n-1].Package == node.Package {
			info.Candidates[n-1].Selected = true
		}
		if s, ok := lastStep[name]; ok {
			info.Strategy = s.Kind
			info.Round = s.Round
			info.DecidingFactor = decidingFactor(s, node)
			node.IsTrigger = s.Kind == bundle.StepTrigger
		} else {
			info.DecidingFactor = "selected without a recorded trace"
		}
		node.Selection = info
	}
}

func decidingFactor(s bundle.Step, node *Node) string {
	switch s.Kind {
	case bundle.StepTrigger:
		return "requested as a trigger package"
	case bundle.StepAccept:
		return fmt.Sprintf("highest version agreeing with bundle contracts {%s}", formatContracts(s.Contracts))
	case bundle.StepLower:
		f := fmt.Sprintf("lowered bundle contracts to {%s}", formatContracts(node.Contracts))
		if len(s.Removed) > 0 {
			evicted := make([]string, len(s.Removed))
			for i, r := range s.Removed {
				evicted[i] = r.String()
			}
			f += ", evicting " + strings.Join(evicted, ", ")
		}
		return f
	case bundle.StepOutOfContract:
		return "highest version; shares no contract with the bundle"
	default:
		return string(s.Kind)
	}
}

// formatContracts renders contracts as "a=1, b=2" sorted by name.
func formatContracts(contracts map[string]string) string {
	parts := make([]string, 0, len(contracts))
	for _, name := range slices.Sorted(maps.Keys(contracts)) {
		parts = append(parts, name+"="+contracts[name])
	}
	return strings.Join(parts, ", ")
}
