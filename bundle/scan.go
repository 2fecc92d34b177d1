package bundle

import (
	"github.com/albertocavalcante/go-bundle/contract"
	"github.com/albertocavalcante/go-bundle/version"
)

// scan accumulates the deferred and lowering candidates of a single
// findNextPackage call. A fresh scan is created for every round.
type scan struct {
	// outOfContract holds the highest candidate per required name that
	// shares no contract with the bundle.
	outOfContract map[string]Package

	// lowering is the most restrictive lowering candidate seen so far and
	// loweringName the required name it was found for.
	lowering     Package
	loweringName string
}

func newScan() *scan {
	return &scan{outOfContract: make(map[string]Package)}
}

// rememberOutOfContract keeps p unless a higher version is already held.
func (s *scan) rememberOutOfContract(name string, p Package) {
	existing, ok := s.outOfContract[name]
	if ok && version.Compare(p.Version(), existing.Version()) <= 0 {
		return
	}
	s.outOfContract[name] = p
}

// rememberLowering records p as the lowering candidate for contract c
// unless the current candidate is at least as low on c.
func (s *scan) rememberLowering(name string, p Package, c string) {
	if s.lowering == nil {
		s.lowering, s.loweringName = p, name
		return
	}
	held, ok := s.lowering.Contracts()[c]
	if !ok {
		return
	}
	if p.IsContractLowerThan(held) {
		s.lowering, s.loweringName = p, name
	}
}

// loweringFor returns the lowering candidate if it was found for name.
func (s *scan) loweringFor(name string) (Package, bool) {
	if s.lowering == nil || s.loweringName != name {
		return nil, false
	}
	return s.lowering, true
}

// selectOutOfContract returns the deferred candidate of the first name in
// rest that has one.
func (s *scan) selectOutOfContract(rest []string) (string, Package, bool) {
	for _, name := range rest {
		if p, ok := s.outOfContract[name]; ok {
			return name, p, true
		}
	}
	return "", nil, false
}

func (s *scan) outOfContractRefs() map[string]Ref {
	out := make(map[string]Ref, len(s.outOfContract))
	for name, p := range s.outOfContract {
		out[name] = RefOf(p)
	}
	return out
}

// candidateClass is the outcome of checking one candidate against the
// bundle contracts.
type candidateClass int

const (
	candidateRejected candidateClass = iota
	candidateAccepted
	candidateOutOfContract
)

// classify checks p against committed and feeds the scan accumulator.
// Lowering candidates are reported as rejected; the scan keeps them.
func (s *scan) classify(name string, p Package, committed contract.Set) candidateClass {
	intersection := p.ContractsIntersection(committed)
	if len(intersection) == 0 {
		s.rememberOutOfContract(name, p)
		return candidateOutOfContract
	}

	offered := p.Contracts()
	failed := make(map[string]bool, len(intersection))
	for _, c := range intersection {
		failed[c] = true
	}
	for _, c := range intersection {
		own := offered[c]
		bundled := committed[c]
		if own.Equal(bundled) {
			delete(failed, c)
			continue
		}
		if own.IsLowerThan(bundled) {
			s.rememberLowering(name, p, c)
		}
	}

	if len(failed) == 0 {
		return candidateAccepted
	}
	return candidateRejected
}
