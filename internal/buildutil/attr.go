// Package buildutil provides utilities for extracting attributes from
// buildtools AST nodes.
package buildutil

import (
	"fmt"

	"github.com/bazelbuild/buildtools/build"
)

// Attr returns the expression assigned to a named argument of call.
func Attr(call *build.CallExpr, name string) (build.Expr, bool) {
	for _, arg := range call.List {
		assign, ok := arg.(*build.AssignExpr)
		if !ok {
			continue
		}
		if lhs, ok := assign.LHS.(*build.Ident); ok && lhs.Name == name {
			return assign.RHS, true
		}
	}
	return nil, false
}

// String extracts a string attribute from a function call by name.
// Returns empty string if the attribute is not found or not a string.
func String(call *build.CallExpr, name string) string {
	rhs, ok := Attr(call, name)
	if !ok {
		return ""
	}
	if str, ok := rhs.(*build.StringExpr); ok {
		return str.Value
	}
	return ""
}

// Scalar converts a string or number literal to its text.
func Scalar(expr build.Expr) (string, bool) {
	switch e := expr.(type) {
	case *build.StringExpr:
		return e.Value, true
	case *build.LiteralExpr:
		return e.Token, true
	default:
		return "", false
	}
}

// Bool extracts a boolean attribute from a function call by name.
// Returns false if the attribute is not found or not a boolean identifier.
func Bool(call *build.CallExpr, name string) bool {
	rhs, ok := Attr(call, name)
	if !ok {
		return false
	}
	ident, ok := rhs.(*build.Ident)
	return ok && ident.Name == "True"
}

// StringList extracts a list of strings attribute from a function call by name.
// Returns nil if the attribute is not found or not a list.
// Non-string elements in the list are silently skipped.
func StringList(call *build.CallExpr, name string) []string {
	rhs, ok := Attr(call, name)
	if !ok {
		return nil
	}
	list, ok := rhs.(*build.ListExpr)
	if !ok {
		return nil
	}
	result := make([]string, 0, len(list.List))
	for _, elem := range list.List {
		if str, ok := elem.(*build.StringExpr); ok {
			result = append(result, str.Value)
		}
	}
	return result
}

// StringDict extracts a dict attribute whose keys are strings and whose
// values are strings or number literals. A missing attribute yields nil.
// Any other key or value type is an error.
func StringDict(call *build.CallExpr, name string) (map[string]string, error) {
	rhs, ok := Attr(call, name)
	if !ok {
		return nil, nil
	}
	dict, ok := rhs.(*build.DictExpr)
	if !ok {
		return nil, fmt.Errorf("%s: expected dict, got %T", name, rhs)
	}
	result := make(map[string]string, len(dict.List))
	for _, kv := range dict.List {
		key, ok := kv.Key.(*build.StringExpr)
		if !ok {
			return nil, fmt.Errorf("%s: keys must be strings, got %T", name, kv.Key)
		}
		value, ok := Scalar(kv.Value)
		if !ok {
			return nil, fmt.Errorf("%s[%q]: expected string or number, got %T", name, key.Value, kv.Value)
		}
		result[key.Value] = value
	}
	return result, nil
}

// FuncName returns the function name from a CallExpr.
// Returns empty string if the call is not a simple function call
// (e.g., method calls like foo.bar()).
func FuncName(call *build.CallExpr) string {
	if ident, ok := call.X.(*build.Ident); ok {
		return ident.Name
	}
	return ""
}

// IsFuncCall returns true if the call is for the specified function name.
func IsFuncCall(call *build.CallExpr, name string) bool {
	return FuncName(call) == name
}
