package index

import (
	"errors"
	"fmt"

	"github.com/bazelbuild/buildtools/build"

	"github.com/albertocavalcante/go-bundle/internal/buildutil"
)

// packageFunc is the Starlark function declaring one package version.
const packageFunc = "package"

// knownAttrs are the arguments accepted by package().
var knownAttrs = map[string]bool{
	"name":      true,
	"version":   true,
	"provides":  true,
	"contracts": true,
	"yanked":    true,
	"labels":    true,
}

// ParseStarlark decodes a Starlark index. Top-level package() calls become
// entries; load statements, assignments and other calls are ignored.
// The result is not validated.
func ParseStarlark(filename string, data []byte) (*Index, error) {
	f, err := build.ParseDefault(filename, data)
	if err != nil {
		return nil, fmt.Errorf("parse starlark: %w", err)
	}

	idx := &Index{}
	var errs []error
	for _, stmt := range f.Stmt {
		call, ok := stmt.(*build.CallExpr)
		if !ok || !buildutil.IsFuncCall(call, packageFunc) {
			continue
		}
		entry, err := entryFromCall(call)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		idx.Entries = append(idx.Entries, entry)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return idx, nil
}

func entryFromCall(call *build.CallExpr) (Entry, error) {
	start, _ := call.Span()
	entry := Entry{
		Name:     buildutil.String(call, "name"),
		Provides: buildutil.StringList(call, "provides"),
		Yanked:   buildutil.Bool(call, "yanked"),
		Line:     start.Line,
	}
	fail := func(err error) (Entry, error) {
		return Entry{}, fmt.Errorf("line %d: %w", start.Line, err)
	}

	for _, arg := range call.List {
		assign, ok := arg.(*build.AssignExpr)
		if !ok {
			return fail(errors.New("package() takes keyword arguments only"))
		}
		lhs, ok := assign.LHS.(*build.Ident)
		if !ok || !knownAttrs[lhs.Name] {
			return fail(fmt.Errorf("package() got an unexpected argument %s", build.FormatString(assign.LHS)))
		}
	}

	if rhs, ok := buildutil.Attr(call, "version"); ok {
		v, ok := buildutil.Scalar(rhs)
		if !ok {
			return fail(fmt.Errorf("version must be a string, got %T", rhs))
		}
		entry.Version = v
	}

	var err error
	if entry.Contracts, err = buildutil.StringDict(call, "contracts"); err != nil {
		return fail(err)
	}
	if entry.Labels, err = buildutil.StringDict(call, "labels"); err != nil {
		return fail(err)
	}
	return entry, nil
}
