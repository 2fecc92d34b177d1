package gobundle

import (
	"slices"
	"strings"

	"github.com/albertocavalcante/go-bundle/bundle"
	"github.com/albertocavalcante/go-bundle/version"
)

// PackageChange represents an added or removed required name in a bundle diff.
type PackageChange struct {
	// Name is the required name.
	Name string `json:"name"`

	// Package is the selected package reference.
	Package bundle.Ref `json:"package"`
}

// PackageUpgrade represents a changed selection for a required name that
// is present in both bundles.
type PackageUpgrade struct {
	// Name is the required name.
	Name string `json:"name"`

	// Old is the selection in the old bundle.
	Old bundle.Ref `json:"old"`

	// New is the selection in the new bundle.
	New bundle.Ref `json:"new"`
}

// ContractChange represents a bundle contract whose value changed.
type ContractChange struct {
	Name string `json:"name"`
	Old  string `json:"old,omitempty"`
	New  string `json:"new,omitempty"`
}

// BundleDiff describes the differences between two resolved bundles.
//
// Example usage:
//
//	before, _ := Resolve(ctx, oldReq)
//	after, _ := Resolve(ctx, newReq)
//	diff := DiffBundles(before, after)
//
//	if !diff.IsEmpty() {
//	    fmt.Printf("Changes: %d added, %d removed, %d upgraded, %d downgraded\n",
//	        len(diff.Added), len(diff.Removed), len(diff.Upgraded), len(diff.Downgraded))
//	}
type BundleDiff struct {
	// Added contains required names present in new but not in old.
	Added []PackageChange `json:"added,omitempty"`

	// Removed contains required names present in old but not in new.
	Removed []PackageChange `json:"removed,omitempty"`

	// Upgraded contains names where the new version is higher.
	Upgraded []PackageUpgrade `json:"upgraded,omitempty"`

	// Downgraded contains names where the new version is lower.
	Downgraded []PackageUpgrade `json:"downgraded,omitempty"`

	// Replaced contains names now served by a different package.
	Replaced []PackageUpgrade `json:"replaced,omitempty"`

	// Contracts lists bundle contracts that were added, removed or changed.
	Contracts []ContractChange `json:"contracts,omitempty"`
}

// IsEmpty returns true if the bundles select the same packages and agree
// on every contract.
func (d *BundleDiff) IsEmpty() bool {
	return d.TotalChanges() == 0 && len(d.Contracts) == 0
}

// TotalChanges returns the number of changed selections.
func (d *BundleDiff) TotalChanges() int {
	return len(d.Added) + len(d.Removed) + len(d.Upgraded) + len(d.Downgraded) + len(d.Replaced)
}

// DiffBundles computes the difference between two resolution results.
// Either argument may be nil and is then treated as an empty bundle.
// Versions are compared with version.Compare, so "1.10" is an upgrade
// from "1.9". Results are sorted by required name.
func DiffBundles(old, new *Result) *BundleDiff {
	diff := &BundleDiff{}

	oldPackages := selections(old)
	newPackages := selections(new)

	for name, now := range newPackages {
		before, existed := oldPackages[name]
		switch {
		case !existed:
			diff.Added = append(diff.Added, PackageChange{Name: name, Package: now})
		case before.Name != now.Name:
			diff.Replaced = append(diff.Replaced, PackageUpgrade{Name: name, Old: before, New: now})
		default:
			switch c := version.Compare(now.Version, before.Version); {
			case c > 0:
				diff.Upgraded = append(diff.Upgraded, PackageUpgrade{Name: name, Old: before, New: now})
			case c < 0:
				diff.Downgraded = append(diff.Downgraded, PackageUpgrade{Name: name, Old: before, New: now})
			}
		}
	}

	for name, before := range oldPackages {
		if _, ok := newPackages[name]; !ok {
			diff.Removed = append(diff.Removed, PackageChange{Name: name, Package: before})
		}
	}

	diff.Contracts = diffContracts(contractsOf(old), contractsOf(new))

	sortChanges(diff.Added)
	sortChanges(diff.Removed)
	sortUpgrades(diff.Upgraded)
	sortUpgrades(diff.Downgraded)
	sortUpgrades(diff.Replaced)

	return diff
}

func selections(r *Result) map[string]bundle.Ref {
	out := make(map[string]bundle.Ref)
	if r == nil {
		return out
	}
	for _, p := range r.Packages {
		out[p.Name] = p.Ref()
	}
	return out
}

func contractsOf(r *Result) map[string]string {
	if r == nil {
		return nil
	}
	return r.Contracts
}

func diffContracts(old, new map[string]string) []ContractChange {
	var changes []ContractChange
	for name, value := range new {
		if prev, ok := old[name]; !ok || !version.Equal(prev, value) {
			changes = append(changes, ContractChange{Name: name, Old: old[name], New: value})
		}
	}
	for name, value := range old {
		if _, ok := new[name]; !ok {
			changes = append(changes, ContractChange{Name: name, Old: value})
		}
	}
	slices.SortFunc(changes, func(a, b ContractChange) int { return strings.Compare(a.Name, b.Name) })
	return changes
}

func sortChanges(changes []PackageChange) {
	slices.SortFunc(changes, func(a, b PackageChange) int { return strings.Compare(a.Name, b.Name) })
}

func sortUpgrades(upgrades []PackageUpgrade) {
	slices.SortFunc(upgrades, func(a, b PackageUpgrade) int { return strings.Compare(a.Name, b.Name) })
}
