package bundle

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Sentinel errors matched by *Error through errors.Is.
var (
	// ErrNotFound indicates a trigger package is missing from the repository.
	ErrNotFound = errors.New("package not found")

	// ErrIncompatibleTriggers indicates the trigger packages disagree on a
	// shared contract or repeat a package name.
	ErrIncompatibleTriggers = errors.New("trigger packages have no valid contracts graph")

	// ErrNoValidContractsGraph indicates no package can extend the bundle.
	ErrNoValidContractsGraph = errors.New("no valid contracts graph")

	// ErrTriggerRemovalConflict indicates a downgrade would remove a trigger
	// package.
	ErrTriggerRemovalConflict = errors.New("downgrade would remove a trigger package")
)

// ErrorKind classifies resolution failures.
type ErrorKind string

const (
	KindNotFound               ErrorKind = "not_found"
	KindIncompatibleTriggers   ErrorKind = "incompatible_triggers"
	KindNoValidContractsGraph  ErrorKind = "no_valid_contracts_graph"
	KindTriggerRemovalConflict ErrorKind = "trigger_removal_conflict"
)

// Error is a fatal resolution failure together with the state that caused
// it. Only the fields relevant to Kind are set.
type Error struct {
	Kind    ErrorKind
	Message string

	// Requested is the trigger ref that could not be found.
	Requested Ref

	// Repository lists every package of the repository (NotFound only).
	Repository []Ref

	// Triggers are the trigger packages of the resolution.
	Triggers []Ref

	// Conflicts are contract names with disagreeing values.
	Conflicts []string

	// Remaining are the required names still unresolved.
	Remaining []string

	// OutOfContract maps required names to the deferred candidates found
	// in the last scan.
	OutOfContract map[string]Ref

	// Bundle is the selection at the time of failure, keyed by required name.
	Bundle map[string]Ref

	// Removed are packages a downgrade would have removed.
	Removed []Ref
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches the sentinel error of the error's kind.
func (e *Error) Is(target error) bool {
	switch e.Kind {
	case KindNotFound:
		return target == ErrNotFound
	case KindIncompatibleTriggers:
		return target == ErrIncompatibleTriggers
	case KindNoValidContractsGraph:
		return target == ErrNoValidContractsGraph
	case KindTriggerRemovalConflict:
		return target == ErrTriggerRemovalConflict
	}
	return false
}

// Diagnostic renders the message followed by every populated field.
func (e *Error) Diagnostic() string {
	var b strings.Builder
	b.WriteString(e.Message)
	b.WriteString("\n")

	if e.Requested != (Ref{}) {
		fmt.Fprintf(&b, "  requested: %s\n", e.Requested)
	}
	writeRefs(&b, "triggers", e.Triggers)
	if len(e.Conflicts) > 0 {
		fmt.Fprintf(&b, "  conflicting contracts: %s\n", strings.Join(e.Conflicts, ", "))
	}
	if len(e.Remaining) > 0 {
		fmt.Fprintf(&b, "  remaining: %s\n", strings.Join(e.Remaining, ", "))
	}
	writeRefMap(&b, "out of current contracts", e.OutOfContract)
	writeRefMap(&b, "bundle", e.Bundle)
	writeRefs(&b, "removed", e.Removed)
	writeRefs(&b, "repository", e.Repository)

	return b.String()
}

func writeRefs(b *strings.Builder, title string, refs []Ref) {
	if len(refs) == 0 {
		return
	}
	parts := make([]string, len(refs))
	for i, r := range refs {
		parts[i] = r.String()
	}
	fmt.Fprintf(b, "  %s: %s\n", title, strings.Join(parts, ", "))
}

func writeRefMap(b *strings.Builder, title string, m map[string]Ref) {
	if m == nil {
		return
	}
	if len(m) == 0 {
		fmt.Fprintf(b, "  %s: (none)\n", title)
		return
	}
	parts := make([]string, 0, len(m))
	for _, name := range slices.Sorted(maps.Keys(m)) {
		parts = append(parts, name+" -> "+m[name].String())
	}
	fmt.Fprintf(b, "  %s: %s\n", title, strings.Join(parts, ", "))
}
