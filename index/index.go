// Package index loads package repositories from index files.
//
// An index lists every available version of every package together with
// the contracts it declares. Three formats are supported and detected by
// file name:
//
//   - Starlark (*.star, *.bzl, INDEX): one package(...) call per version
//   - JSON (*.json): {"packages": [{"name": ..., "version": ...}]}
//   - YAML (*.yaml, *.yml): the same shape as JSON
//
// A Starlark index looks like:
//
//	package(
//	    name = "api",
//	    version = "2.1.0",
//	    provides = ["gateway"],
//	    contracts = {"proto": "5", "schema": 12},
//	    labels = {"team": "core"},
//	)
//
// Every entry is validated: names must be lowercase package names,
// versions and contract values must parse, and a name@version pair may
// appear only once.
package index

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/albertocavalcante/go-bundle/bundle"
	"github.com/albertocavalcante/go-bundle/contract"
	"github.com/albertocavalcante/go-bundle/version"
)

// Entry is one package version of an index.
type Entry struct {
	Name      string            `json:"name" yaml:"name"`
	Version   string            `json:"version" yaml:"version"`
	Provides  []string          `json:"provides,omitempty" yaml:"provides,omitempty"`
	Contracts map[string]string `json:"contracts,omitempty" yaml:"contracts,omitempty"`
	Yanked    bool              `json:"yanked,omitempty" yaml:"yanked,omitempty"`
	Labels    map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`

	// Line is the source line of the entry when known.
	Line int `json:"-" yaml:"-"`
}

// Ref returns the entry's name@version reference.
func (e Entry) Ref() bundle.Ref {
	return bundle.Ref{Name: e.Name, Version: e.Version}
}

// Release converts the entry to a bundle release.
func (e Entry) Release() *bundle.Release {
	return bundle.NewRelease(bundle.ReleaseSpec{
		Name:      e.Name,
		Version:   e.Version,
		Provides:  e.Provides,
		Contracts: e.Contracts,
		Yanked:    e.Yanked,
		Labels:    e.Labels,
	})
}

func (e Entry) location() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: ", e.Line)
	}
	return ""
}

// Index is a parsed repository snapshot.
type Index struct {
	// Source is the file the index was read from, if any.
	Source string

	// Entries are the package versions in file order.
	Entries []Entry
}

// Format identifies an index file format.
type Format int

const (
	FormatStarlark Format = iota
	FormatJSON
	FormatYAML
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	default:
		return "starlark"
	}
}

// DetectFormat picks the format from a file name. Unknown extensions are
// read as Starlark.
func DetectFormat(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatStarlark
	}
}

// LoadFile reads and validates an index file.
func LoadFile(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	return Parse(path, data)
}

// Parse decodes data in the format detected from filename and validates
// the result.
func Parse(filename string, data []byte) (*Index, error) {
	var (
		idx *Index
		err error
	)
	switch DetectFormat(filename) {
	case FormatJSON:
		idx, err = ParseJSON(data)
	case FormatYAML:
		idx, err = ParseYAML(data)
	default:
		idx, err = ParseStarlark(filename, data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	idx.Source = filename
	if err := idx.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return idx, nil
}

// Validate checks every entry and reports all problems at once.
func (i *Index) Validate() error {
	var errs []error

	for n, e := range i.Entries {
		loc := e.location()
		if loc == "" {
			loc = fmt.Sprintf("entry %d: ", n)
		}
		if err := ValidateName(e.Name); err != nil {
			errs = append(errs, fmt.Errorf("%s%w", loc, err))
		}
		if e.Version == "" {
			errs = append(errs, fmt.Errorf("%s%s: version cannot be empty", loc, e.Name))
		} else if _, err := version.Parse(e.Version); err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", loc, e.Name, err))
		}
		for _, p := range e.Provides {
			if err := ValidateName(p); err != nil {
				errs = append(errs, fmt.Errorf("%s%s provides: %w", loc, e.Ref(), err))
			}
		}
		for _, name := range slices.Sorted(maps.Keys(e.Contracts)) {
			if err := contract.New(name, e.Contracts[name]).Validate(); err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", loc, e.Ref(), err))
			}
		}

		if first, dup := duplicateOf(i.Entries[:n], e); dup {
			errs = append(errs, fmt.Errorf("%sduplicate package %s (first declared as entry %d)", loc, e.Ref(), first))
		}
	}

	return errors.Join(errs...)
}

// duplicateOf returns the position of an earlier entry with e's name and
// an equal version.
func duplicateOf(earlier []Entry, e Entry) (int, bool) {
	for n, prev := range earlier {
		if prev.Name == e.Name && version.Equal(prev.Version, e.Version) {
			return n, true
		}
	}
	return 0, false
}

// Releases converts every entry to a bundle release.
func (i *Index) Releases() []*bundle.Release {
	out := make([]*bundle.Release, len(i.Entries))
	for n, e := range i.Entries {
		out[n] = e.Release()
	}
	return out
}

// Repository returns the entries as a resolver repository.
func (i *Index) Repository() []bundle.Package {
	out := make([]bundle.Package, len(i.Entries))
	for n, e := range i.Entries {
		out[n] = e.Release()
	}
	return out
}

// Lookup finds the entry matching ref.
func (i *Index) Lookup(ref bundle.Ref) (Entry, bool) {
	for _, e := range i.Entries {
		if e.Name == ref.Name && version.Equal(e.Version, ref.Version) {
			return e, true
		}
	}
	return Entry{}, false
}

// Versions returns the versions of a package, highest first.
func (i *Index) Versions(name string) []string {
	var versions []string
	for _, e := range i.Entries {
		if e.Name == name {
			versions = append(versions, e.Version)
		}
	}
	version.SortDescending(versions)
	return versions
}

// Names returns every name a package can be required by, sorted. Provided
// names are included.
func (i *Index) Names() []string {
	var names []string
	for _, e := range i.Entries {
		names = append(names, e.Name)
		names = append(names, e.Provides...)
	}
	slices.Sort(names)
	return slices.Compact(names)
}
