package bundle

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/albertocavalcante/go-bundle/contract"
	"github.com/albertocavalcante/go-bundle/version"
)

// Package is one concrete version of a named package as seen by the
// resolver. Implementations must be immutable.
type Package interface {
	// Name is the package name. Many versions share a name.
	Name() string

	// Version orders versions of the same name.
	Version() string

	// Contracts returns the contracts this version offers.
	Contracts() contract.Set

	// IsMicroservice reports whether this row implements the required name.
	IsMicroservice(name string) bool

	// ContractsIntersection returns the sorted names this package shares
	// with contracts.
	ContractsIntersection(contracts contract.Set) []string

	// IsContractLowerThan reports whether this package declares c.Name with
	// a value strictly lower than c.Value.
	IsContractLowerThan(c contract.Contract) bool

	// IsAnyContractHigher reports whether any contract of this package is
	// strictly higher than the same-named contract in contracts.
	IsAnyContractHigher(contracts contract.Set) bool
}

// Ref identifies a package version by name and version.
type Ref struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// RefOf returns the Ref of p.
func RefOf(p Package) Ref {
	return Ref{Name: p.Name(), Version: p.Version()}
}

// String returns the ref as "name@version".
func (r Ref) String() string {
	return r.Name + "@" + r.Version
}

// Matches reports whether p has the ref's name and an equal version.
func (r Ref) Matches(p Package) bool {
	return p.Name() == r.Name && version.Equal(p.Version(), r.Version)
}

// ParseRef parses "name@version".
func ParseRef(s string) (Ref, error) {
	name, ver, ok := strings.Cut(strings.TrimSpace(s), "@")
	if !ok || name == "" || ver == "" {
		return Ref{}, fmt.Errorf("invalid package ref %q: expected name@version", s)
	}
	if _, err := version.Parse(ver); err != nil {
		return Ref{}, fmt.Errorf("invalid package ref %q: %w", s, err)
	}
	return Ref{Name: name, Version: ver}, nil
}

// ReleaseSpec describes a Release to construct.
type ReleaseSpec struct {
	Name    string
	Version string

	// Provides lists additional required names this release implements.
	Provides []string

	// Contracts maps contract names to values.
	Contracts map[string]string

	// Yanked marks a release that should normally not be selected.
	Yanked bool

	// Labels are free-form metadata carried through to results.
	Labels map[string]string
}

// Release is the standard immutable Package implementation.
type Release struct {
	name      string
	version   string
	provides  []string
	contracts contract.Set
	yanked    bool
	labels    map[string]string
}

// NewRelease builds a Release from spec. All slices and maps are copied.
func NewRelease(spec ReleaseSpec) *Release {
	return &Release{
		name:      spec.Name,
		version:   spec.Version,
		provides:  slices.Clone(spec.Provides),
		contracts: contract.FromMap(spec.Contracts),
		yanked:    spec.Yanked,
		labels:    maps.Clone(spec.Labels),
	}
}

func (r *Release) Name() string    { return r.name }
func (r *Release) Version() string { return r.version }

// Contracts returns a copy of the release's contracts.
func (r *Release) Contracts() contract.Set { return r.contracts.Clone() }

// Provides returns the additional names this release implements.
func (r *Release) Provides() []string { return slices.Clone(r.provides) }

// Yanked reports whether the release was withdrawn by its publisher.
func (r *Release) Yanked() bool { return r.yanked }

// Labels returns a copy of the release labels.
func (r *Release) Labels() map[string]string { return maps.Clone(r.labels) }

// Spec returns a ReleaseSpec equivalent to r.
func (r *Release) Spec() ReleaseSpec {
	return ReleaseSpec{
		Name:      r.name,
		Version:   r.version,
		Provides:  r.Provides(),
		Contracts: r.contracts.Values(),
		Yanked:    r.yanked,
		Labels:    r.Labels(),
	}
}

func (r *Release) String() string {
	return r.name + "@" + r.version
}

func (r *Release) IsMicroservice(name string) bool {
	return r.name == name || slices.Contains(r.provides, name)
}

func (r *Release) ContractsIntersection(contracts contract.Set) []string {
	return r.contracts.Intersection(contracts)
}

func (r *Release) IsContractLowerThan(c contract.Contract) bool {
	own, ok := r.contracts[c.Name]
	return ok && own.IsLowerThan(c)
}

func (r *Release) IsAnyContractHigher(contracts contract.Set) bool {
	for name, own := range r.contracts {
		if other, ok := contracts[name]; ok && own.IsHigherThan(other) {
			return true
		}
	}
	return false
}

// Yankable is implemented by packages that can be withdrawn.
type Yankable interface {
	Yanked() bool
}

// IsYanked reports whether p implements Yankable and is yanked.
func IsYanked(p Package) bool {
	y, ok := p.(Yankable)
	return ok && y.Yanked()
}

// SortRepository sorts repo in place highest version first. Equal versions
// are ordered by name and then keep their original relative order.
func SortRepository(repo []Package) {
	slices.SortStableFunc(repo, func(a, b Package) int {
		if c := version.Compare(b.Version(), a.Version()); c != 0 {
			return c
		}
		return strings.Compare(a.Name(), b.Name())
	})
}

// IsPackagesContractsGraphResolvable reports whether no two packages
// disagree on the value of a contract they both declare.
func IsPackagesContractsGraphResolvable(packages []Package) bool {
	return len(conflictingContracts(packages)) == 0
}

// conflictingContracts returns the sorted contract names on which at least
// two of packages disagree.
func conflictingContracts(packages []Package) []string {
	seen := make(contract.Set)
	conflicts := make(map[string]bool)
	for _, p := range packages {
		for name, c := range p.Contracts() {
			prev, ok := seen[name]
			if !ok {
				seen[name] = c
				continue
			}
			if !prev.Equal(c) {
				conflicts[name] = true
			}
		}
	}
	return slices.Sorted(maps.Keys(conflicts))
}

// refs returns the refs of packages in order.
func refs(packages []Package) []Ref {
	out := make([]Ref, len(packages))
	for i, p := range packages {
		out[i] = RefOf(p)
	}
	return out
}
