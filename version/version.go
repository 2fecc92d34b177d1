// Package version parses and orders package versions and contract values.
//
// A version has the form RELEASE[-PRERELEASE][+BUILD]:
//   - RELEASE: dot-separated identifiers (alphanumeric, no hyphens)
//   - PRERELEASE: dot-separated identifiers (alphanumeric and hyphens allowed)
//   - BUILD: accepted but ignored for ordering
//
// Contract values use the same grammar, so an API level "5" and a schema
// level "2.1" are ordered exactly like package versions.
//
// Ordering rules:
//   - The empty version sorts BEFORE everything (an unversioned row never
//     outranks a real release)
//   - Release identifiers are compared left to right; a shorter list that is a
//     prefix of a longer one sorts first ("1.0" < "1.0.0")
//   - A prerelease sorts BEFORE the same release without prerelease
//   - Digits-only identifiers sort before alphanumeric ones and compare
//     numerically; alphanumeric identifiers compare lexicographically
package version

import (
	"cmp"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

// The BUILD part is matched but not captured since it never affects ordering.
var versionPattern = regexp.MustCompile(
	`^(?P<release>[a-zA-Z0-9.]+)(?:-(?P<prerelease>[a-zA-Z0-9.-]+))?(?:\+[a-zA-Z0-9.-]+)?$`,
)

// Identifier is one dot-separated segment of a version.
type Identifier struct {
	IsDigitsOnly bool
	AsNumber     uint64 // Only valid if IsDigitsOnly
	AsString     string
}

// ParseIdentifier creates an Identifier from a string segment.
func ParseIdentifier(s string) Identifier {
	if s == "" {
		return Identifier{AsString: s}
	}

	allDigits := true
	for _, r := range s {
		if !unicode.IsDigit(r) {
			allDigits = false
			break
		}
	}

	if allDigits {
		num, err := strconv.ParseUint(s, 10, 64)
		if err == nil {
			return Identifier{IsDigitsOnly: true, AsNumber: num, AsString: s}
		}
	}

	return Identifier{IsDigitsOnly: false, AsString: s}
}

// CompareIdentifiers orders two identifiers.
// Digits-only identifiers sort first and compare numerically.
func CompareIdentifiers(a, b Identifier) int {
	if a.IsDigitsOnly != b.IsDigitsOnly {
		if a.IsDigitsOnly {
			return -1
		}
		return 1
	}

	if a.IsDigitsOnly {
		return cmp.Compare(a.AsNumber, b.AsNumber)
	}

	return strings.Compare(a.AsString, b.AsString)
}

// ParsedVersion represents a parsed version.
type ParsedVersion struct {
	Release    []Identifier
	Prerelease []Identifier
	Normalized string
	IsEmpty    bool
}

// Parse parses a version string into its components.
func Parse(s string) (ParsedVersion, error) {
	if s == "" {
		return ParsedVersion{IsEmpty: true, Normalized: ""}, nil
	}

	match := versionPattern.FindStringSubmatch(s)
	if match == nil {
		return ParsedVersion{}, &ParseError{Version: s, Message: "does not match version pattern"}
	}

	releaseStr := match[1]
	prereleaseStr := match[2]

	var release []Identifier
	for _, part := range strings.Split(releaseStr, ".") {
		if part == "" {
			return ParsedVersion{}, &ParseError{Version: s, Message: "empty release identifier"}
		}
		release = append(release, ParseIdentifier(part))
	}

	var prerelease []Identifier
	if prereleaseStr != "" {
		for _, part := range strings.Split(prereleaseStr, ".") {
			prerelease = append(prerelease, ParseIdentifier(part))
		}
	}

	normalized := releaseStr
	if prereleaseStr != "" {
		normalized = releaseStr + "-" + prereleaseStr
	}

	return ParsedVersion{
		Release:    release,
		Prerelease: prerelease,
		Normalized: normalized,
	}, nil
}

// Valid reports whether s parses as a version.
func Valid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// ParseError represents a version parsing error.
type ParseError struct {
	Version string
	Message string
}

func (e *ParseError) Error() string {
	return "bad version " + e.Version + ": " + e.Message
}

// Compare compares two version strings.
// Returns -1 if a < b, 0 if a == b, 1 if a > b.
//
// Strings that do not parse fall back to lexicographic comparison so that
// the ordering stays total.
func Compare(a, b string) int {
	va, errA := Parse(a)
	vb, errB := Parse(b)

	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}

	if va.IsEmpty != vb.IsEmpty {
		if va.IsEmpty {
			return -1
		}
		return 1
	}
	if va.IsEmpty && vb.IsEmpty {
		return 0
	}

	if c := compareIdentifierLists(va.Release, vb.Release); c != 0 {
		return c
	}

	aIsPre := len(va.Prerelease) > 0
	bIsPre := len(vb.Prerelease) > 0
	if aIsPre != bIsPre {
		if aIsPre {
			return -1
		}
		return 1
	}

	return compareIdentifierLists(va.Prerelease, vb.Prerelease)
}

// Equal reports whether a and b order as the same version.
// Build metadata is ignored, so "1.0+a" equals "1.0+b".
func Equal(a, b string) bool {
	return Compare(a, b) == 0
}

func compareIdentifierLists(a, b []Identifier) int {
	minLen := min(len(a), len(b))

	for i := range minLen {
		if c := CompareIdentifiers(a[i], b[i]); c != 0 {
			return c
		}
	}

	return cmp.Compare(len(a), len(b))
}

// Sort sorts a slice of version strings in ascending order.
func Sort(versions []string) {
	slices.SortStableFunc(versions, Compare)
}

// SortDescending sorts a slice of version strings highest first.
func SortDescending(versions []string) {
	slices.SortStableFunc(versions, func(a, b string) int { return Compare(b, a) })
}

// Max returns the higher of two versions.
func Max(a, b string) string {
	if Compare(a, b) >= 0 {
		return a
	}
	return b
}
