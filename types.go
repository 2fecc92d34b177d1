package gobundle

import (
	"github.com/albertocavalcante/go-bundle/bundle"
	"github.com/albertocavalcante/go-bundle/graph"
)

// Request describes one resolution.
type Request struct {
	// Deps lists the required package names. Duplicates are ignored.
	Deps []string

	// Repository is the pool of candidate packages.
	Repository []bundle.Package

	// Triggers are packages that must appear in the bundle exactly as given.
	Triggers []bundle.Ref
}

// Result contains the resolved bundle.
type Result struct {
	// Packages holds one entry per required name, in declaration order
	// with trigger-only names last.
	Packages []SelectedPackage `json:"packages"`

	// Contracts is the merged contract set of the bundle.
	Contracts map[string]string `json:"contracts"`

	// Steps is the resolution trace.
	Steps []bundle.Step `json:"steps"`

	// Summary provides aggregate statistics about the resolution.
	Summary Summary `json:"summary"`

	// Warnings contains non-fatal issues encountered during resolution.
	// For example, yanked release warnings when YankedWarn is used.
	Warnings []string `json:"warnings,omitempty"`

	selected map[string]bundle.Package
	order    []string
}

// SelectedPackage is the package chosen for one required name.
type SelectedPackage struct {
	// Name is the required name.
	Name string `json:"name"`

	// Package is the name of the selected package. It differs from Name
	// when the package provides Name.
	Package string `json:"package"`

	// Version is the selected version.
	Version string `json:"version"`

	// Contracts are the contracts the selected package declares.
	Contracts map[string]string `json:"contracts,omitempty"`

	// Trigger is true when the package was requested as a trigger.
	Trigger bool `json:"trigger,omitempty"`

	// Yanked indicates the release was withdrawn by its publisher.
	Yanked bool `json:"yanked,omitempty"`

	// Labels carries release labels through to the caller.
	Labels map[string]string `json:"labels,omitempty"`
}

// Ref returns the selected package reference.
func (p SelectedPackage) Ref() bundle.Ref {
	return bundle.Ref{Name: p.Package, Version: p.Version}
}

// Summary provides statistics about a resolution.
type Summary struct {
	// Total is the number of selected packages.
	Total int `json:"total"`

	// Triggers is the number of trigger packages.
	Triggers int `json:"triggers"`

	// Downgrades counts lowering steps.
	Downgrades int `json:"downgrades"`

	// Evictions counts packages removed by downgrades.
	Evictions int `json:"evictions"`

	// Rounds is the number of selection rounds.
	Rounds int `json:"rounds"`

	// Yanked counts selected yanked releases.
	Yanked int `json:"yanked,omitempty"`
}

// Get returns the package selected for a required name.
func (r *Result) Get(name string) (SelectedPackage, bool) {
	for _, p := range r.Packages {
		if p.Name == name {
			return p, true
		}
	}
	return SelectedPackage{}, false
}

// Graph builds the contract graph of the bundle.
func (r *Result) Graph() *graph.Graph {
	return graph.Build(r.selected, r.order, r.Steps)
}

// YankedBehavior controls how yanked releases are handled during resolution.
type YankedBehavior int

const (
	// YankedExclude never selects a yanked release unless it is a trigger.
	YankedExclude YankedBehavior = iota

	// YankedAllow treats yanked releases like any other.
	YankedAllow

	// YankedWarn allows yanked releases but adds a warning to the result
	// for each one selected.
	YankedWarn
)

// String returns the flag spelling of the behavior.
func (b YankedBehavior) String() string {
	switch b {
	case YankedExclude:
		return "exclude"
	case YankedAllow:
		return "allow"
	case YankedWarn:
		return "warn"
	default:
		return "unknown"
	}
}

// ParseYankedBehavior parses "exclude", "allow" or "warn".
func ParseYankedBehavior(s string) (YankedBehavior, bool) {
	switch s {
	case "exclude", "":
		return YankedExclude, true
	case "allow":
		return YankedAllow, true
	case "warn":
		return YankedWarn, true
	default:
		return 0, false
	}
}
