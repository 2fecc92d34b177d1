package bundle

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/albertocavalcante/go-bundle/contract"
)

// Options tune a Bundle.
type Options struct {
	// LazyConsistency skips the agreement check that runs after every
	// round. Conflicts introduced by a downgrade are then only noticed by
	// later candidate checks, and the merged contracts resolve them
	// last-writer-wins in selection order.
	LazyConsistency bool

	// MaxRounds bounds the number of selection rounds. Zero selects
	// (len(deps)+1) * (len(repo)+1).
	MaxRounds int

	// OnStep is called after every change to the bundle. A non-nil error
	// aborts the resolution and is returned wrapped.
	OnStep func(Step) error

	// Admit filters candidates per required name. Rejected rows are never
	// considered for that name. Trigger packages bypass the filter.
	Admit func(name string, p Package) bool
}

// Option configures a Bundle.
type Option func(*Options)

// WithLazyConsistency disables the per-round agreement check.
func WithLazyConsistency() Option {
	return func(o *Options) { o.LazyConsistency = true }
}

// WithMaxRounds bounds the number of selection rounds.
func WithMaxRounds(n int) Option {
	return func(o *Options) { o.MaxRounds = n }
}

// WithStepHook registers fn to observe every step.
func WithStepHook(fn func(Step) error) Option {
	return func(o *Options) { o.OnStep = fn }
}

// WithCandidateFilter restricts the candidates considered for each
// required name.
func WithCandidateFilter(admit func(name string, p Package) bool) Option {
	return func(o *Options) { o.Admit = admit }
}

// Bundle resolves one dependency set against a repository.
//
// A Bundle is not safe for concurrent use. Packages are shared read-only,
// so separate Bundles may resolve concurrently over the same repository.
type Bundle struct {
	deps     []string
	repo     []Package
	triggers []Package
	opts     Options

	// packages maps required names to the selected package; order keeps the
	// selection order used to merge contracts.
	packages        map[string]Package
	order           []string
	triggerKeys     map[string]bool
	bundleContracts contract.Set
	steps           []Step
}

// New prepares a Bundle. deps are de-duplicated keeping the first
// occurrence, repo is copied and sorted highest version first, and every
// trigger ref must match a repository package exactly. Trigger names that
// are not in deps are appended to it.
func New(deps []string, repo []Package, triggers []Ref, opts ...Option) (*Bundle, error) {
	b := &Bundle{
		repo: slices.Clone(repo),
	}
	for _, opt := range opts {
		opt(&b.opts)
	}
	SortRepository(b.repo)

	seen := make(map[string]bool, len(deps))
	for _, d := range deps {
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		b.deps = append(b.deps, d)
	}

	for _, ref := range triggers {
		p, err := b.findTriggerPackage(ref)
		if err != nil {
			return nil, err
		}
		b.triggers = append(b.triggers, p)
		if !seen[p.Name()] {
			seen[p.Name()] = true
			b.deps = append(b.deps, p.Name())
		}
	}

	return b, nil
}

// findTriggerPackage scans the repository for an exact match of ref.
func (b *Bundle) findTriggerPackage(ref Ref) (Package, error) {
	for _, p := range b.repo {
		if ref.Matches(p) {
			return p, nil
		}
	}
	return nil, &Error{
		Kind:       KindNotFound,
		Message:    fmt.Sprintf("package %s not found in packages repository", ref),
		Requested:  ref,
		Repository: refs(b.repo),
	}
}

// Deps returns the effective required names in resolution order.
func (b *Bundle) Deps() []string {
	return slices.Clone(b.deps)
}

// Triggers returns the resolved trigger packages.
func (b *Bundle) Triggers() []Package {
	return slices.Clone(b.triggers)
}

// Trace returns the steps of the last Calculate call, including a failed one.
func (b *Bundle) Trace() []Step {
	return slices.Clone(b.steps)
}

// Contracts returns the merged contracts of the current selection.
func (b *Bundle) Contracts() contract.Set {
	return b.mergedContracts()
}

// Order returns the required names in the order their packages were selected.
func (b *Bundle) Order() []string {
	return slices.Clone(b.order)
}

// Calculate runs the resolution and returns the selected package for every
// required name. It may be called repeatedly; each call starts from scratch
// and yields the same result.
func (b *Bundle) Calculate() (map[string]Package, error) {
	b.reset()

	if err := b.checkTriggers(); err != nil {
		return nil, err
	}
	for _, t := range b.triggers {
		if err := b.seedTrigger(t.Name(), t); err != nil {
			return nil, err
		}
	}
	// A trigger also serves every other required name it provides, so no
	// other version of it can be selected for those names.
	for _, d := range b.deps {
		if _, ok := b.packages[d]; ok {
			continue
		}
		for _, t := range b.triggers {
			if !t.IsMicroservice(d) {
				continue
			}
			if err := b.seedTrigger(d, t); err != nil {
				return nil, err
			}
			break
		}
	}

	maxRounds := b.opts.MaxRounds
	if maxRounds <= 0 {
		maxRounds = (len(b.deps) + 1) * (len(b.repo) + 1)
	}

	for round := 1; ; round++ {
		b.updateBundleContracts()
		if !b.opts.LazyConsistency {
			if err := b.checkConsistency(); err != nil {
				return nil, err
			}
		}

		rest := b.restPackagesToFind()
		if len(rest) == 0 {
			return b.selection(), nil
		}
		if round > maxRounds {
			return nil, &Error{
				Kind:      KindNoValidContractsGraph,
				Message:   fmt.Sprintf("no valid contracts graph: resolution did not settle after %d rounds", maxRounds),
				Triggers:  refs(b.triggers),
				Remaining: rest,
				Bundle:    b.snapshot(),
			}
		}

		step, err := b.findNextPackage(rest)
		if err != nil {
			return nil, err
		}
		step.Round = round
		if err := b.record(step); err != nil {
			return nil, err
		}
	}
}

func (b *Bundle) seedTrigger(key string, t Package) error {
	b.add(key, t)
	b.triggerKeys[key] = true
	return b.record(Step{Kind: StepTrigger, Name: key, Package: RefOf(t)})
}

// IsTrigger reports whether the required name is served by a trigger
// package in the last Calculate call.
func (b *Bundle) IsTrigger(name string) bool {
	return b.triggerKeys[name]
}

func (b *Bundle) reset() {
	b.packages = make(map[string]Package, len(b.deps))
	b.order = b.order[:0]
	b.triggerKeys = make(map[string]bool, len(b.triggers))
	b.bundleContracts = contract.Set{}
	b.steps = nil
}

// checkTriggers validates that the trigger packages form a valid contracts
// graph and name distinct packages.
func (b *Bundle) checkTriggers() error {
	names := make(map[string]bool, len(b.triggers))
	var duplicates []string
	for _, t := range b.triggers {
		if names[t.Name()] {
			duplicates = append(duplicates, t.Name())
		}
		names[t.Name()] = true
	}

	conflicts := conflictingContracts(b.triggers)
	if len(conflicts) == 0 && len(duplicates) == 0 {
		return nil
	}

	msg := fmt.Sprintf("trigger packages %s have no valid contracts graph", joinRefs(refs(b.triggers)))
	if len(duplicates) > 0 {
		msg += fmt.Sprintf(": several versions of %s", strings.Join(duplicates, ", "))
	}
	return &Error{
		Kind:      KindIncompatibleTriggers,
		Message:   msg,
		Triggers:  refs(b.triggers),
		Conflicts: conflicts,
	}
}

// checkConsistency verifies that the current selection agrees on every
// shared contract.
func (b *Bundle) checkConsistency() error {
	selected := make([]Package, 0, len(b.order))
	for _, key := range b.order {
		selected = append(selected, b.packages[key])
	}
	conflicts := conflictingContracts(selected)
	if len(conflicts) == 0 {
		return nil
	}
	return &Error{
		Kind: KindNoValidContractsGraph,
		Message: fmt.Sprintf("no valid contracts graph: selected packages disagree on %s",
			strings.Join(conflicts, ", ")),
		Triggers:  refs(b.triggers),
		Conflicts: conflicts,
		Remaining: b.restPackagesToFind(),
		Bundle:    b.snapshot(),
	}
}

// restPackagesToFind returns the required names without a selected package,
// in declaration order.
func (b *Bundle) restPackagesToFind() []string {
	var rest []string
	for _, d := range b.deps {
		if _, ok := b.packages[d]; !ok {
			rest = append(rest, d)
		}
	}
	return rest
}

// updateBundleContracts rebuilds the merged contracts from scratch.
func (b *Bundle) updateBundleContracts() {
	b.bundleContracts = b.mergedContracts()
}

func (b *Bundle) mergedContracts() contract.Set {
	merged := make(contract.Set)
	for _, key := range b.order {
		merged.Merge(b.packages[key].Contracts())
	}
	return merged
}

// findNextPackage adds exactly one package for one of rest.
func (b *Bundle) findNextPackage(rest []string) (Step, error) {
	sc := newScan()
	before := b.bundleContracts.Values()

	for _, name := range rest {
		for _, p := range b.repo {
			if !p.IsMicroservice(name) || !b.admits(name, p) {
				continue
			}
			if sc.classify(name, p, b.bundleContracts) == candidateAccepted {
				b.add(name, p)
				return Step{Kind: StepAccept, Name: name, Package: RefOf(p), Contracts: before}, nil
			}
		}

		if low, ok := sc.loweringFor(name); ok {
			removed, err := b.removePackagesWithHigherContractsThan(low)
			if err != nil {
				return Step{}, err
			}
			b.add(name, low)
			return Step{Kind: StepLower, Name: name, Package: RefOf(low), Removed: removed, Contracts: before}, nil
		}
	}

	if name, p, ok := sc.selectOutOfContract(rest); ok {
		b.add(name, p)
		return Step{Kind: StepOutOfContract, Name: name, Package: RefOf(p), Contracts: before}, nil
	}

	return Step{}, &Error{
		Kind: KindNoValidContractsGraph,
		Message: fmt.Sprintf("no valid contracts graph for %s with bundle contracts {%s}",
			strings.Join(rest, ", "), b.bundleContracts),
		Triggers:      refs(b.triggers),
		Remaining:     rest,
		OutOfContract: sc.outOfContractRefs(),
		Bundle:        b.snapshot(),
	}
}

// removePackagesWithHigherContractsThan drops every selected package that
// declares a contract higher than low's. Nothing is removed when one of
// them is a trigger package.
func (b *Bundle) removePackagesWithHigherContractsThan(low Package) ([]Ref, error) {
	lowContracts := low.Contracts()

	var doomed []string
	var blocked []Ref
	for _, key := range b.order {
		p := b.packages[key]
		if !p.IsAnyContractHigher(lowContracts) {
			continue
		}
		doomed = append(doomed, key)
		if b.triggerKeys[key] && !slices.Contains(blocked, RefOf(p)) {
			blocked = append(blocked, RefOf(p))
		}
	}

	if len(blocked) > 0 {
		return nil, &Error{
			Kind: KindTriggerRemovalConflict,
			Message: fmt.Sprintf("no tree resolve with trigger packages %s: there is no appropriate package with specified package contracts (lowering to %s would remove %s)",
				joinRefs(refs(b.triggers)), RefOf(low), joinRefs(blocked)),
			Triggers:  refs(b.triggers),
			Removed:   blocked,
			Remaining: b.restPackagesToFind(),
			Bundle:    b.snapshot(),
		}
	}

	removed := make([]Ref, 0, len(doomed))
	for _, key := range doomed {
		removed = append(removed, RefOf(b.packages[key]))
		b.remove(key)
	}
	return removed, nil
}

func (b *Bundle) admits(name string, p Package) bool {
	return b.opts.Admit == nil || b.opts.Admit(name, p)
}

func (b *Bundle) add(key string, p Package) {
	if _, ok := b.packages[key]; !ok {
		b.order = append(b.order, key)
	}
	b.packages[key] = p
}

func (b *Bundle) remove(key string) {
	delete(b.packages, key)
	b.order = slices.DeleteFunc(b.order, func(k string) bool { return k == key })
}

func (b *Bundle) record(step Step) error {
	b.steps = append(b.steps, step)
	if b.opts.OnStep == nil {
		return nil
	}
	if err := b.opts.OnStep(step); err != nil {
		return fmt.Errorf("resolution aborted at round %d: %w", step.Round, err)
	}
	return nil
}

func (b *Bundle) selection() map[string]Package {
	return maps.Clone(b.packages)
}

func (b *Bundle) snapshot() map[string]Ref {
	out := make(map[string]Ref, len(b.packages))
	for k, p := range b.packages {
		out[k] = RefOf(p)
	}
	return out
}

func joinRefs(rs []Ref) string {
	parts := make([]string, len(rs))
	for i, r := range rs {
		parts[i] = r.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
