package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/albertocavalcante/go-bundle/bundle"
)

const separatorWidth = 60

// jsonGraph is the serialized form of a Graph.
type jsonGraph struct {
	Contracts map[string]string `json:"contracts"`
	Packages  []jsonNode        `json:"packages"`
	Edges     []Edge            `json:"edges"`
	Stats     Stats             `json:"stats"`
}

type jsonNode struct {
	Name           string            `json:"name"`
	Package        string            `json:"package"`
	Version        string            `json:"version"`
	Contracts      map[string]string `json:"contracts,omitempty"`
	Trigger        bool              `json:"trigger,omitempty"`
	Strategy       string            `json:"strategy,omitempty"`
	Round          int               `json:"round"`
	DecidingFactor string            `json:"deciding_factor,omitempty"`
	Evicted        []jsonCandidate   `json:"evicted,omitempty"`
}

type jsonCandidate struct {
	Package string `json:"package"`
	Round   int    `json:"round"`
	Reason  string `json:"reason,omitempty"`
}

// ToJSON outputs the graph as indented JSON. Packages appear in selection
// order.
func (g *Graph) ToJSON() ([]byte, error) {
	out := jsonGraph{
		Contracts: g.Contracts,
		Packages:  make([]jsonNode, 0, len(g.Order)),
		Edges:     g.Edges,
		Stats:     g.Stats(),
	}
	if out.Edges == nil {
		out.Edges = []Edge{}
	}
	for _, name := range g.Order {
		node := g.Nodes[name]
		jn := jsonNode{
			Name:      name,
			Package:   node.Package.Name,
			Version:   node.Package.Version,
			Contracts: node.Contracts,
			Trigger:   node.IsTrigger,
		}
		if sel := node.Selection; sel != nil {
			jn.Strategy = string(sel.Strategy)
			jn.Round = sel.Round
			jn.DecidingFactor = sel.DecidingFactor
			for _, c := range sel.Candidates {
				if c.Selected {
					continue
				}
				jn.Evicted = append(jn.Evicted, jsonCandidate{
					Package: c.Package.String(),
					Round:   c.Round,
					Reason:  c.RejectionReason,
				})
			}
		}
		out.Packages = append(out.Packages, jn)
	}
	return json.MarshalIndent(out, "", "  ")
}

// ToDOT outputs the graph in Graphviz DOT format. Edges are undirected and
// labeled with the shared contracts.
func (g *Graph) ToDOT() string {
	var buf bytes.Buffer

	buf.WriteString("graph contracts {\n")
	buf.WriteString("  node [shape=box];\n\n")

	for _, name := range g.Order {
		node := g.Nodes[name]
		label := fmt.Sprintf("%s\\n%s", name, node.Package)
		attrs := fmt.Sprintf(`label="%s"`, label) //nolint:gocritic // DOT format requires this quote style
		if node.IsTrigger {
			attrs += ", style=bold"
		}
		if node.Selection != nil && node.Selection.Strategy == bundle.StepLower {
			attrs += ", color=orange"
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", name, attrs)
	}

	buf.WriteString("\n")

	for _, e := range g.Edges {
		fmt.Fprintf(&buf, "  %q -- %q [label=%q];\n", e.From, e.To, edgeLabel(g, e))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func edgeLabel(g *Graph, e Edge) string {
	parts := make([]string, len(e.Contracts))
	for i, c := range e.Contracts {
		parts[i] = c + "=" + g.Nodes[e.From].Contracts[c]
	}
	return strings.Join(parts, "\n")
}

// ToText outputs a human-readable text representation of the graph.
func (g *Graph) ToText() string {
	var buf bytes.Buffer

	buf.WriteString("Contract Graph\n")
	buf.WriteString(strings.Repeat("=", separatorWidth) + "\n\n")

	stats := g.Stats()
	fmt.Fprintf(&buf, "Packages: %d\n", stats.Packages)
	fmt.Fprintf(&buf, "Contracts: %d\n", stats.Contracts)
	fmt.Fprintf(&buf, "Links: %d\n", stats.Edges)
	if stats.Triggers > 0 {
		fmt.Fprintf(&buf, "Triggers: %d\n", stats.Triggers)
	}
	if stats.Downgrades > 0 {
		fmt.Fprintf(&buf, "Downgrades: %d (%d evicted)\n", stats.Downgrades, stats.Evictions)
	}
	buf.WriteString("\n")

	if len(g.Contracts) > 0 {
		fmt.Fprintf(&buf, "Bundle contracts: %s\n\n", formatContracts(g.Contracts))
	}

	buf.WriteString("Packages:\n")
	for _, name := range g.Order {
		node := g.Nodes[name]
		line := fmt.Sprintf("  %s -> %s", name, node.Package)
		if node.IsTrigger {
			line += " (trigger)"
		}
		if len(node.Contracts) > 0 {
			line += fmt.Sprintf(" {%s}", formatContracts(node.Contracts))
		}
		buf.WriteString(line + "\n")
	}

	if len(g.Edges) > 0 {
		buf.WriteString("\nLinks:\n")
		for _, e := range g.Edges {
			buf.WriteString("  " + e.String() + "\n")
		}
	}

	return buf.String()
}

// ToExplainText outputs a human-readable explanation for a required name.
func (g *Graph) ToExplainText(name string) (string, error) {
	explanation, err := g.Explain(name)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Explanation for: %s (%s)\n", explanation.Name, explanation.Package)
	buf.WriteString(strings.Repeat("=", separatorWidth) + "\n\n")

	if sel := explanation.Selection; sel != nil {
		buf.WriteString("Selection:\n")
		fmt.Fprintf(&buf, "  Selected version: %s\n", sel.SelectedVersion)
		if sel.Strategy != "" {
			fmt.Fprintf(&buf, "  Strategy: %s (round %d)\n", sel.Strategy, sel.Round)
		}
		fmt.Fprintf(&buf, "  Deciding factor: %s\n", sel.DecidingFactor)

		if len(sel.Candidates) > 1 {
			buf.WriteString("\n  History:\n")
			for _, c := range sel.Candidates {
				status := "  "
				if c.Selected {
					status = "✓ "
				}
				fmt.Fprintf(&buf, "    %s%s - %s in round %d\n", status, c.Package, c.Strategy, c.Round)
				if c.RejectionReason != "" {
					fmt.Fprintf(&buf, "      %s\n", c.RejectionReason)
				}
			}
		}
	}

	if len(explanation.Links) > 0 {
		buf.WriteString("\nShared contracts:\n")
		for _, e := range explanation.Links {
			peer := e.To
			if peer == name {
				peer = e.From
			}
			fmt.Fprintf(&buf, "  %s: %s\n", peer, edgeLabelInline(g, name, e))
		}
	}

	return buf.String(), nil
}

func edgeLabelInline(g *Graph, name string, e Edge) string {
	parts := make([]string, len(e.Contracts))
	for i, c := range e.Contracts {
		parts[i] = c + "=" + g.Nodes[name].Contracts[c]
	}
	return strings.Join(parts, ", ")
}
