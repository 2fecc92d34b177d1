package graph

import (
	"fmt"
	"strings"

	"github.com/albertocavalcante/go-bundle/bundle"
)

// Graph represents a resolved bundle as a contract graph.
type Graph struct {
	// Nodes contains all selected packages, keyed by required name.
	Nodes map[string]*Node

	// Order lists the required names in selection order.
	Order []string

	// Edges link packages that declare a common contract, sorted by
	// endpoint names.
	Edges []Edge

	// Contracts is the merged contract set of the bundle.
	Contracts map[string]string

	// Steps is the resolution trace the graph was built from.
	Steps []bundle.Step
}

// Node represents a selected package.
type Node struct {
	// Name is the required name the package was selected for.
	Name string

	// Package identifies the selected package.
	Package bundle.Ref

	// Contracts are the contracts the package declares.
	Contracts map[string]string

	// Neighbors are the names of packages sharing a contract with this
	// one, sorted.
	Neighbors []string

	// Selection explains how the package was selected.
	Selection *SelectionInfo

	// IsTrigger is true if the package was requested as a trigger.
	IsTrigger bool
}

// Edge links two packages through the contracts they both declare.
// From sorts before To.
type Edge struct {
	From      string   `json:"from"`
	To        string   `json:"to"`
	Contracts []string `json:"contracts"`
}

// SelectionInfo explains why a particular package was selected.
type SelectionInfo struct {
	// Strategy is the kind of step that placed the final package.
	Strategy bundle.StepKind

	// Round is the round of that step.
	Round int

	// SelectedVersion is the version that was selected.
	SelectedVersion string

	// Candidates are all packages placed for this name, in trace order.
	Candidates []Candidate

	// DecidingFactor explains what determined the selection.
	DecidingFactor string
}

// Candidate is a package that was placed for a required name at some point
// of the resolution.
type Candidate struct {
	// Package identifies the candidate.
	Package bundle.Ref

	// Round is the round in which it was placed.
	Round int

	// Strategy is how it was placed.
	Strategy bundle.StepKind

	// Selected indicates the candidate is part of the final bundle.
	Selected bool

	// RejectionReason explains why the candidate was evicted.
	RejectionReason string
}

// Explanation provides a detailed explanation of why a package is in the bundle.
type Explanation struct {
	// Name is the required name being explained.
	Name string

	// Package is the selected package.
	Package bundle.Ref

	// Selection explains how the package was selected.
	Selection *SelectionInfo

	// Links are the edges touching this package.
	Links []Edge

	// Summary is a one-paragraph account of the selection.
	Summary string
}

// Stats summarizes a graph.
type Stats struct {
	Packages   int `json:"packages"`
	Edges      int `json:"edges"`
	Contracts  int `json:"contracts"`
	Triggers   int `json:"triggers"`
	Downgrades int `json:"downgrades"`
	Evictions  int `json:"evictions"`
	Isolated   int `json:"isolated"`
	Components int `json:"components"`
}

// String returns a human-readable representation of the edge.
func (e Edge) String() string {
	return fmt.Sprintf("%s -- %s (%s)", e.From, e.To, strings.Join(e.Contracts, ", "))
}
