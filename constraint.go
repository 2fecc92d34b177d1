package gobundle

import "github.com/Masterminds/semver/v3"

// satisfies reports whether ver meets c. A nil constraint admits every
// version; a non-semantic version never satisfies a constraint.
func satisfies(c *semver.Constraints, ver string) bool {
	if c == nil {
		return true
	}
	v, err := semver.NewVersion(ver)
	if err != nil {
		return false
	}
	return c.Check(v)
}
