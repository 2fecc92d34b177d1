package index

import (
	"fmt"
	"regexp"
)

// Package names must match: [a-z]([a-z0-9._-]*[a-z0-9])?
var packageNameRegex = regexp.MustCompile(`^[a-z]([a-z0-9._-]*[a-z0-9])?$`)

// ValidateName checks a package or provided name.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("package name cannot be empty")
	}
	if !packageNameRegex.MatchString(name) {
		return fmt.Errorf("invalid package name %q: must match pattern [a-z]([a-z0-9._-]*[a-z0-9])?", name)
	}
	return nil
}
