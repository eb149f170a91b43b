package workflow

import (
	"errors"
	"time"
)

type InstanceStatus string

const (
	StatusRunning   InstanceStatus = "running"
	StatusCompleted InstanceStatus = "completed"
	StatusFailed    InstanceStatus = "failed"
	StatusCancelled InstanceStatus = "cancelled"
)

type StepType string

const (
	StepTypeTask StepType = "task"
	StepTypeEnd  StepType = "end"
)

type HistoryAction string

const (
	ActionStart    HistoryAction = "start"
	ActionAdvance  HistoryAction = "advance"
	ActionComplete HistoryAction = "complete"
	ActionCancel   HistoryAction = "cancel"
)

// Step is one entry in a definition's ordered step list.
type Step struct {
	ID           string
	DefinitionID string
	Name         string
	Code         string
	Type         StepType
	Sequence     int
	TimeoutHours int
}

// Definition is a named, versioned workflow template. Steps are ordered by
// Sequence; it is immutable once an instance references it.
type Definition struct {
	ID        string
	Name      string
	Version   int
	IsActive  bool
	Steps     []Step
	CreatedAt time.Time
}

// Configuration binds a (device type, customer tier, service type) triple to
// a definition. A nil DeviceTypeID or CustomerTier matches any value of that
// dimension. ID is a monotonically assigned integer so rank ties break on
// the lowest ID.
type Configuration struct {
	ID           int64
	DefinitionID string
	DeviceTypeID *string
	CustomerTier *string
	ServiceType  string
	IsActive     bool
}

// Instance is one run of a definition for a case.
type Instance struct {
	ID            string
	DefinitionID  string
	CaseID        string
	CurrentStepID string
	Status        InstanceStatus
	Variables     map[string]any
	StartedAt     time.Time
	CompletedAt   *time.Time
}

// HistoryEntry is the append-only audit record of a state transition.
// FromStepID is nil for the start entry; ToStepID is nil for cancellation.
type HistoryEntry struct {
	ID         string
	InstanceID string
	FromStepID *string
	ToStepID   *string
	Action     HistoryAction
	Metadata   map[string]any
	CreatedAt  time.Time
}

var (
	ErrNoConfiguration      = errors.New("no matching workflow configuration")
	ErrDefinitionHasNoSteps = errors.New("workflow definition has no steps")
	ErrStepMismatch         = errors.New("step is not the instance's current step")
	ErrInstanceTerminal     = errors.New("instance is in a terminal state")
	ErrUnknownStep          = errors.New("step does not exist in definition")
)

// Terminal reports whether an instance accepts further transitions.
func (s InstanceStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// FirstStep returns the step with the lowest sequence.
func (d Definition) FirstStep() (Step, bool) {
	if len(d.Steps) == 0 {
		return Step{}, false
	}
	first := d.Steps[0]
	for _, step := range d.Steps[1:] {
		if step.Sequence < first.Sequence {
			first = step
		}
	}
	return first, true
}

// StepByID looks a step up in the definition's step list.
func (d Definition) StepByID(id string) (Step, bool) {
	for _, step := range d.Steps {
		if step.ID == id {
			return step, true
		}
	}
	return Step{}, false
}

// NextStep returns the successor of the given step by declared order, or
// false when the step terminates the workflow (an end step, or no step with
// a higher sequence exists).
func (d Definition) NextStep(stepID string) (Step, bool) {
	current, ok := d.StepByID(stepID)
	if !ok || current.Type == StepTypeEnd {
		return Step{}, false
	}
	var next Step
	found := false
	for _, step := range d.Steps {
		if step.Sequence <= current.Sequence {
			continue
		}
		if !found || step.Sequence < next.Sequence {
			next = step
			found = true
		}
	}
	return next, found
}
