package repair

import (
	"errors"
	"strings"
	"time"
)

type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

type CaseStatus string

const (
	StatusOpen       CaseStatus = "open"
	StatusInProgress CaseStatus = "in_progress"
	StatusCompleted  CaseStatus = "completed"
	StatusCancelled  CaseStatus = "cancelled"
)

// Case is the repair case row owned by the case service. The workflow/SLA
// core reads its scalar inputs and writes back the attachment foreign keys.
type Case struct {
	ID                 string
	CaseNumber         string
	CustomerID         string
	DeviceID           string
	ServiceType        string
	Priority           Priority
	Status             CaseStatus
	WorkflowInstanceID *string
	SLAID              *string
	CreatedAt          time.Time
}

type Device struct {
	ID           string
	DeviceTypeID string
}

type Customer struct {
	ID   string
	Tier string
}

var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInternal        = errors.New("internal error")
)

// ParsePriority normalizes a raw priority string. Unknown values fall back
// to medium so that a malformed priority never blocks case creation.
func ParsePriority(raw string) Priority {
	switch Priority(strings.ToLower(strings.TrimSpace(raw))) {
	case PriorityUrgent:
		return PriorityUrgent
	case PriorityHigh:
		return PriorityHigh
	case PriorityMedium:
		return PriorityMedium
	case PriorityLow:
		return PriorityLow
	default:
		return PriorityMedium
	}
}

// Terminal reports whether a case no longer participates in SLA monitoring.
func (s CaseStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}
