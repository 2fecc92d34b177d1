package index

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/albertocavalcante/go-bundle/bundle"
)

var wantEntries = []Entry{
	{Name: "api", Version: "2.0.0", Contracts: map[string]string{"proto": "5"}},
	{Name: "api", Version: "1.0.0", Contracts: map[string]string{"proto": "3"}, Labels: map[string]string{"team": "core"}},
	{Name: "worker", Version: "1.4.0", Provides: []string{"jobs"}, Contracts: map[string]string{"proto": "3", "db": "7"}},
	{Name: "worker", Version: "1.5.0", Contracts: map[string]string{"proto": "3", "db": "8"}, Yanked: true},
}

func TestLoadFile_Formats(t *testing.T) {
	for _, file := range []string{"packages.star", "packages.json", "packages.yaml"} {
		t.Run(file, func(t *testing.T) {
			idx, err := LoadFile(filepath.Join("testdata", file))
			if err != nil {
				t.Fatalf("LoadFile() error = %v", err)
			}
			opts := []cmp.Option{
				cmpopts.IgnoreFields(Entry{}, "Line"),
				cmpopts.EquateEmpty(),
			}
			if diff := cmp.Diff(wantEntries, idx.Entries, opts...); diff != "" {
				t.Errorf("entries mismatch (-want +got):\n%s", diff)
			}
			if idx.Source != filepath.Join("testdata", file) {
				t.Errorf("Source = %q", idx.Source)
			}
		})
	}
}

func TestLoadFile_Lines(t *testing.T) {
	tests := []struct {
		file string
		want []int
	}{
		{"packages.star", []int{6, 12, 19, 26}},
		{"packages.yaml", []int{2, 6, 12, 18}},
		{"packages.json", []int{0, 0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			idx, err := LoadFile(filepath.Join("testdata", tt.file))
			if err != nil {
				t.Fatalf("LoadFile() error = %v", err)
			}
			got := make([]int, len(idx.Entries))
			for i, e := range idx.Entries {
				got[i] = e.Line
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("lines mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join("testdata", "nope.star")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		filename string
		want     Format
	}{
		{"index.json", FormatJSON},
		{"INDEX.JSON", FormatJSON},
		{"index.yaml", FormatYAML},
		{"index.yml", FormatYAML},
		{"index.star", FormatStarlark},
		{"defs.bzl", FormatStarlark},
		{"INDEX", FormatStarlark},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := DetectFormat(tt.filename); got != tt.want {
				t.Errorf("DetectFormat(%q) = %v, want %v", tt.filename, got, tt.want)
			}
		})
	}
}

func TestParseStarlark_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "syntax error",
			content: `package(name = "api"`,
			wantErr: "parse starlark",
		},
		{
			name:    "positional argument",
			content: `package("api", version = "1")`,
			wantErr: "keyword arguments only",
		},
		{
			name:    "unknown argument",
			content: `package(name = "api", version = "1", deps = [])`,
			wantErr: "unexpected argument deps",
		},
		{
			name:    "version not scalar",
			content: `package(name = "api", version = ["1"])`,
			wantErr: "version must be a string",
		},
		{
			name:    "contracts not a dict",
			content: `package(name = "api", version = "1", contracts = "proto=3")`,
			wantErr: "contracts: expected dict",
		},
		{
			name:    "error carries line",
			content: "\n\npackage(name = \"api\", version = \"1\", labels = [\"x\"])",
			wantErr: "line 3:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseStarlark("INDEX", []byte(tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseStarlark_IgnoresOtherCalls(t *testing.T) {
	content := `
module(name = "not_a_package")
native.package(name = "also_not")
package(name = "api", version = "1")
`
	idx, err := ParseStarlark("INDEX", []byte(content))
	if err != nil {
		t.Fatalf("ParseStarlark() error = %v", err)
	}
	if len(idx.Entries) != 1 || idx.Entries[0].Name != "api" {
		t.Errorf("unexpected entries %+v", idx.Entries)
	}
}

func TestParseJSON_UnknownField(t *testing.T) {
	_, err := ParseJSON([]byte(`{"packages": [{"name": "api", "version": "1", "deps": []}]}`))
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestParseYAML_Empty(t *testing.T) {
	idx, err := ParseYAML(nil)
	if err != nil {
		t.Fatalf("ParseYAML(nil) error = %v", err)
	}
	if len(idx.Entries) != 0 {
		t.Errorf("expected no entries, got %d", len(idx.Entries))
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
		wantErr []string
	}{
		{
			name:    "valid",
			entries: []Entry{{Name: "api", Version: "1.0"}, {Name: "api", Version: "2.0"}},
		},
		{
			name:    "bad name",
			entries: []Entry{{Name: "API", Version: "1"}},
			wantErr: []string{`entry 0: invalid package name "API"`},
		},
		{
			name:    "empty version",
			entries: []Entry{{Name: "api"}},
			wantErr: []string{"api: version cannot be empty"},
		},
		{
			name:    "bad version",
			entries: []Entry{{Name: "api", Version: "1..2"}},
			wantErr: []string{"empty release identifier"},
		},
		{
			name:    "bad provided name",
			entries: []Entry{{Name: "api", Version: "1", Provides: []string{"Gateway"}}},
			wantErr: []string{"api@1 provides"},
		},
		{
			name:    "bad contract",
			entries: []Entry{{Name: "api", Version: "1", Contracts: map[string]string{"": "1"}}},
			wantErr: []string{"contract name cannot be empty"},
		},
		{
			name: "duplicate with equal version",
			entries: []Entry{
				{Name: "api", Version: "1.0"},
				{Name: "worker", Version: "1.0"},
				{Name: "api", Version: "1.0+build.7", Line: 9},
			},
			wantErr: []string{"line 9: duplicate package api@1.0+build.7 (first declared as entry 0)"},
		},
		{
			name: "all problems reported",
			entries: []Entry{
				{Name: "API", Version: "1"},
				{Name: "api", Version: ""},
			},
			wantErr: []string{"invalid package name", "version cannot be empty"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := (&Index{Entries: tt.entries}).Validate()
			if len(tt.wantErr) == 0 {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() expected error")
			}
			for _, want := range tt.wantErr {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("error %q missing %q", err, want)
				}
			}
		})
	}
}

func TestParse_ValidatesAndNamesFile(t *testing.T) {
	_, err := Parse("bad.json", []byte(`{"packages": [{"name": "API", "version": "1"}]}`))
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.HasPrefix(err.Error(), "bad.json: ") {
		t.Errorf("error %q should be prefixed with the file name", err)
	}
}

func TestIndexQueries(t *testing.T) {
	idx, err := LoadFile(filepath.Join("testdata", "packages.star"))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if diff := cmp.Diff([]string{"api", "jobs", "worker"}, idx.Names()); diff != "" {
		t.Errorf("Names mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"1.5.0", "1.4.0"}, idx.Versions("worker")); diff != "" {
		t.Errorf("Versions mismatch (-want +got):\n%s", diff)
	}

	e, ok := idx.Lookup(bundle.Ref{Name: "api", Version: "1.0.0"})
	if !ok || e.Labels["team"] != "core" {
		t.Errorf("Lookup(api@1.0.0) = %+v, %v", e, ok)
	}
	if _, ok := idx.Lookup(bundle.Ref{Name: "api", Version: "3"}); ok {
		t.Error("Lookup(api@3) should fail")
	}

	repo := idx.Repository()
	if len(repo) != 4 {
		t.Fatalf("Repository() has %d packages, want 4", len(repo))
	}
	if !bundle.IsYanked(repo[3]) {
		t.Error("worker@1.5.0 should be yanked")
	}
	if !repo[2].IsMicroservice("jobs") {
		t.Error("worker@1.4.0 should provide jobs")
	}
	if got := len(idx.Releases()); got != 4 {
		t.Errorf("Releases() has %d entries, want 4", got)
	}
}

func TestRepositoryResolves(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "INDEX")
	content := `
package(name = "api", version = "2", contracts = {"proto": "5"})
package(name = "api", version = "1", contracts = {"proto": "3"})
package(name = "worker", version = "1", contracts = {"proto": "3"})
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	idx, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	b, err := bundle.New([]string{"api", "worker"}, idx.Repository(), nil)
	if err != nil {
		t.Fatalf("bundle.New() error = %v", err)
	}
	got, err := b.Calculate()
	if err != nil {
		t.Fatalf("Calculate() error = %v", err)
	}
	if v := got["api"].Version(); v != "1" {
		t.Errorf("api resolved to %s, want 1", v)
	}
}
