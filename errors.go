package gobundle

import (
	"errors"

	"github.com/albertocavalcante/go-bundle/bundle"
)

// Sentinel errors for resolution failures. Errors returned by Resolve match
// them with errors.Is; use errors.As with *bundle.Error for the details.
var (
	// ErrNotFound indicates a trigger package is missing from the repository.
	ErrNotFound = bundle.ErrNotFound

	// ErrIncompatibleTriggers indicates the trigger packages contradict each other.
	ErrIncompatibleTriggers = bundle.ErrIncompatibleTriggers

	// ErrNoValidContractsGraph indicates no consistent bundle exists.
	ErrNoValidContractsGraph = bundle.ErrNoValidContractsGraph

	// ErrTriggerRemovalConflict indicates a downgrade would evict a trigger package.
	ErrTriggerRemovalConflict = bundle.ErrTriggerRemovalConflict

	// ErrInvalidConstraint indicates a malformed WithConstraint option.
	ErrInvalidConstraint = errors.New("invalid version constraint")
)
