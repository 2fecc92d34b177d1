// Package bundle implements contract-aware bundle resolution.
//
// Given a list of required package names, a repository of concrete package
// versions and an optional list of trigger packages, a Bundle selects exactly
// one version per required name such that every contract declared by more
// than one selected package carries the same value everywhere.
//
// # Algorithm Overview
//
// Resolution is a greedy fixed point. Trigger packages are placed first and
// are never downgraded or removed. Each following round recomputes the merged
// contracts of the current selection and adds exactly one more package:
//
//  1. Required names are scanned in declaration order, and for each name the
//     repository rows implementing it are scanned highest version first.
//  2. A row that shares contracts with the bundle and agrees on all of them is
//     accepted immediately.
//  3. A row that offers a lower value for a shared contract is a lowering
//     candidate. If the current name produced one, the lowest is selected and
//     every selected package declaring a higher contract value is removed.
//     Removal of a trigger package is fatal.
//  4. A row that shares no contract with the bundle is deferred. When no
//     name could be accepted or lowered, the deferred row of the first name
//     in declaration order is selected.
//  5. If nothing can be selected the resolution fails.
//
// Removed names become unresolved again and are picked up by later rounds.
//
// # Determinism
//
// The repository is sorted highest version first before resolution and the
// merged contracts are rebuilt in selection order every round, so the same
// inputs always produce the same bundle.
//
// # Failures
//
// All failures are fatal and reported as *Error values that match one of
// ErrNotFound, ErrIncompatibleTriggers, ErrNoValidContractsGraph or
// ErrTriggerRemovalConflict with errors.Is. Each carries a snapshot of the
// state that made resolution impossible.
package bundle
