package bundle

// StepKind describes how a package entered the bundle.
type StepKind string

const (
	// StepTrigger places a trigger package.
	StepTrigger StepKind = "trigger"

	// StepAccept adds a package agreeing with every shared contract.
	StepAccept StepKind = "accept"

	// StepLower adds a lowering candidate and removes the packages whose
	// contracts were higher.
	StepLower StepKind = "lower"

	// StepOutOfContract adds a package sharing no contract with the bundle.
	StepOutOfContract StepKind = "out_of_contract"
)

// Step records one change to the bundle.
type Step struct {
	// Round is the resolution round, 0 for trigger placement.
	Round int `json:"round"`

	Kind StepKind `json:"kind"`

	// Name is the required name the package was selected for.
	Name string `json:"name"`

	Package Ref `json:"package"`

	// Removed lists packages dropped by a lowering step.
	Removed []Ref `json:"removed,omitempty"`

	// Contracts is the merged bundle contracts the step was decided against.
	Contracts map[string]string `json:"contracts,omitempty"`
}
