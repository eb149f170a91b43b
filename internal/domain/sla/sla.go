package sla

import (
	"time"

	"repairdesk/internal/domain/repair"
)

// Record tracks the per-case deadline and breach state. DueDate is fixed at
// creation; the monitor only ever moves IsBreached and WarningSent forward.
type Record struct {
	ID              string
	CaseID          string
	Priority        repair.Priority
	CreatedAt       time.Time
	DueDate         time.Time
	IsBreached      bool
	WarningSent     bool
	EscalationLevel int
}

type EventType string

const (
	EventBreached  EventType = "sla.breached"
	EventWarning   EventType = "sla.warning"
	EventEscalated EventType = "sla.escalated"
)

// Event is emitted by the monitor for the notification sink to act on.
type Event struct {
	Type            EventType
	CaseID          string
	SLAID           string
	DueDate         time.Time
	EscalationLevel int
	OccurredAt      time.Time
}

// allowance is the hours-to-deadline lookup per priority.
var allowance = map[repair.Priority]time.Duration{
	repair.PriorityUrgent: 4 * time.Hour,
	repair.PriorityHigh:   24 * time.Hour,
	repair.PriorityMedium: 72 * time.Hour,
	repair.PriorityLow:    168 * time.Hour,
}

// Allowance returns the time-to-deadline for a priority. Unknown priorities
// get medium's allowance.
func Allowance(priority repair.Priority) time.Duration {
	if d, ok := allowance[priority]; ok {
		return d
	}
	return allowance[repair.PriorityMedium]
}

// DueDate derives the deadline from the case priority at creation time. Pure
// function of its inputs; it never reads the wall clock.
func DueDate(priority repair.Priority, createdAt time.Time) time.Time {
	return createdAt.Add(Allowance(priority))
}

// NewRecord builds the SLA record persisted alongside a freshly created case.
func NewRecord(id, caseID string, priority repair.Priority, createdAt time.Time) Record {
	return Record{
		ID:        id,
		CaseID:    caseID,
		Priority:  priority,
		CreatedAt: createdAt,
		DueDate:   DueDate(priority, createdAt),
	}
}

// Breached reports whether the deadline has passed at the given instant.
func (r Record) Breached(now time.Time) bool {
	return now.After(r.DueDate)
}

// InWarningWindow reports whether the elapsed share of the allowance has
// reached warnFraction without the deadline having passed yet. A fraction
// outside (0, 1] disables the window.
func (r Record) InWarningWindow(now time.Time, warnFraction float64) bool {
	if warnFraction <= 0 || warnFraction > 1 {
		return false
	}
	if r.Breached(now) {
		return false
	}
	total := r.DueDate.Sub(r.CreatedAt)
	if total <= 0 {
		return false
	}
	elapsed := now.Sub(r.CreatedAt)
	return float64(elapsed) >= warnFraction*float64(total)
}
