package buildutil

import (
	"testing"

	"github.com/bazelbuild/buildtools/build"
	"github.com/google/go-cmp/cmp"
)

func parseCall(t *testing.T, content string) *build.CallExpr {
	t.Helper()
	f, err := build.ParseDefault("INDEX", []byte(content))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(f.Stmt) == 0 {
		t.Fatal("no statements parsed")
	}
	call, ok := f.Stmt[0].(*build.CallExpr)
	if !ok {
		t.Fatalf("expected CallExpr, got %T", f.Stmt[0])
	}
	return call
}

func TestString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		attrName string
		want     string
	}{
		{"named string attribute", `package(name = "api")`, "name", "api"},
		{"missing attribute", `package(version = "1")`, "name", ""},
		{"non-string attribute", `package(version = 2)`, "version", ""},
		{"positional argument is not named", `package("api")`, "name", ""},
		{"multiple attributes", `package(name = "api", version = "2.1", yanked = True)`, "version", "2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			call := parseCall(t, tt.input)
			if got := String(call, tt.attrName); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestScalar(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{"string", `package(v = "1.2")`, "1.2", true},
		{"integer", `package(v = 7)`, "7", true},
		{"identifier", `package(v = True)`, "", false},
		{"list", `package(v = ["1"])`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rhs, ok := Attr(parseCall(t, tt.input), "v")
			if !ok {
				t.Fatal("Attr() found nothing")
			}
			got, ok := Scalar(rhs)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Scalar() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestBool(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		attrName string
		want     bool
	}{
		{"True value", `package(yanked = True)`, "yanked", true},
		{"False value", `package(yanked = False)`, "yanked", false},
		{"missing attribute", `package(other = True)`, "yanked", false},
		{"string instead of bool", `package(yanked = "True")`, "yanked", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			call := parseCall(t, tt.input)
			if got := Bool(call, tt.attrName); got != tt.want {
				t.Errorf("Bool() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStringList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		attrName string
		want     []string
	}{
		{"simple string list", `package(provides = ["a", "b", "c"])`, "provides", []string{"a", "b", "c"}},
		{"empty list", `package(provides = [])`, "provides", []string{}},
		{"missing attribute", `package(other = ["x"])`, "provides", nil},
		{"not a list", `package(provides = "single")`, "provides", nil},
		{"mixed types skips non-strings", `package(provides = ["a", 1, "b"])`, "provides", []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StringList(parseCall(t, tt.input), tt.attrName)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("StringList() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStringDict(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    map[string]string
		wantErr bool
	}{
		{
			name:  "string values",
			input: `package(contracts = {"api": "3", "schema": "12"})`,
			want:  map[string]string{"api": "3", "schema": "12"},
		},
		{
			name:  "number values",
			input: `package(contracts = {"api": 3})`,
			want:  map[string]string{"api": "3"},
		},
		{
			name:  "empty dict",
			input: `package(contracts = {})`,
			want:  map[string]string{},
		},
		{
			name:  "missing attribute",
			input: `package(name = "api")`,
			want:  nil,
		},
		{
			name:    "not a dict",
			input:   `package(contracts = ["api"])`,
			wantErr: true,
		},
		{
			name:    "non-string key",
			input:   `package(contracts = {1: "3"})`,
			wantErr: true,
		},
		{
			name:    "list value",
			input:   `package(contracts = {"api": ["3"]})`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := StringDict(parseCall(t, tt.input), "contracts")
			if (err != nil) != tt.wantErr {
				t.Fatalf("StringDict() error = %v, wantErr %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("StringDict() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFuncName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple function", `package()`, "package"},
		{"function with args", `package(name = "api")`, "package"},
		{"method call", `native.package(name = "api")`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FuncName(parseCall(t, tt.input)); got != tt.want {
				t.Errorf("FuncName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsFuncCall(t *testing.T) {
	call := parseCall(t, `package(name = "api")`)

	if !IsFuncCall(call, "package") {
		t.Error(`IsFuncCall(call, "package") = false, want true`)
	}
	if IsFuncCall(call, "module") {
		t.Error(`IsFuncCall(call, "module") = true, want false`)
	}
}
