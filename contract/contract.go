// Package contract models the named, ordered constraint values that a
// package version declares, such as an API level or a schema level.
//
// Contract values are ordered with the version package, so "10" is higher
// than "9" and "2.1" is higher than "2".
package contract

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/albertocavalcante/go-bundle/version"
)

// Contract is a single named constraint value.
type Contract struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// New returns a Contract with the given name and value.
func New(name, value string) Contract {
	return Contract{Name: name, Value: value}
}

// String returns the contract as "name=value".
func (c Contract) String() string {
	return c.Name + "=" + c.Value
}

// Compare orders c against other by value.
// Contracts with different names are not comparable and compare as 0.
func (c Contract) Compare(other Contract) int {
	if c.Name != other.Name {
		return 0
	}
	return version.Compare(c.Value, other.Value)
}

// Equal reports whether both contracts carry the same name and value.
func (c Contract) Equal(other Contract) bool {
	return c.Name == other.Name && version.Equal(c.Value, other.Value)
}

// IsLowerThan reports whether c is strictly lower than other.
// It is false when the names differ.
func (c Contract) IsLowerThan(other Contract) bool {
	return c.Name == other.Name && version.Compare(c.Value, other.Value) < 0
}

// IsHigherThan reports whether c is strictly higher than other.
// It is false when the names differ.
func (c Contract) IsHigherThan(other Contract) bool {
	return c.Name == other.Name && version.Compare(c.Value, other.Value) > 0
}

// Validate checks that the contract has a name and a parseable value.
func (c Contract) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("contract name cannot be empty")
	}
	if _, err := version.Parse(c.Value); err != nil {
		return fmt.Errorf("contract %q: %w", c.Name, err)
	}
	return nil
}

// Set maps contract names to contracts. The map key always equals the
// contract's Name.
type Set map[string]Contract

// NewSet builds a Set from contracts. Later duplicates overwrite earlier ones.
func NewSet(contracts ...Contract) Set {
	s := make(Set, len(contracts))
	for _, c := range contracts {
		s[c.Name] = c
	}
	return s
}

// FromMap builds a Set from a name -> value map.
func FromMap(values map[string]string) Set {
	s := make(Set, len(values))
	for name, value := range values {
		s[name] = Contract{Name: name, Value: value}
	}
	return s
}

// Values returns the set as a name -> value map.
func (s Set) Values() map[string]string {
	out := make(map[string]string, len(s))
	for name, c := range s {
		out[name] = c.Value
	}
	return out
}

// Names returns the contract names in sorted order.
func (s Set) Names() []string {
	return slices.Sorted(maps.Keys(s))
}

// Get returns the contract with the given name.
func (s Set) Get(name string) (Contract, bool) {
	c, ok := s[name]
	return c, ok
}

// Clone returns a shallow copy of the set.
func (s Set) Clone() Set {
	if s == nil {
		return Set{}
	}
	return maps.Clone(s)
}

// Merge copies every contract of other into s, overwriting contracts with
// the same name.
func (s Set) Merge(other Set) {
	maps.Copy(s, other)
}

// Intersection returns the sorted names declared by both s and other.
func (s Set) Intersection(other Set) []string {
	var names []string
	for name := range s {
		if _, ok := other[name]; ok {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// Conflicts returns the sorted names declared by both sets with different
// values.
func (s Set) Conflicts(other Set) []string {
	var names []string
	for _, name := range s.Intersection(other) {
		if !s[name].Equal(other[name]) {
			names = append(names, name)
		}
	}
	return names
}

// AgreesWith reports whether s and other carry equal values for every
// contract name they share.
func (s Set) AgreesWith(other Set) bool {
	return len(s.Conflicts(other)) == 0
}

// String renders the set as "a=1, b=2" in name order.
func (s Set) String() string {
	parts := make([]string, 0, len(s))
	for _, name := range s.Names() {
		parts = append(parts, s[name].String())
	}
	return strings.Join(parts, ", ")
}
