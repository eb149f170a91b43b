package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"repairdesk/internal/domain/sla"
)

// EventPublisher delivers SLA events to the external notification sink. The
// monitor only publishes; delivery to people is someone else's job.
type EventPublisher interface {
	Publish(ctx context.Context, event sla.Event) error
}

// DefaultWarnFraction is the share of the allowance that has to elapse
// before a warning is raised.
const DefaultWarnFraction = 0.8

// SLAMonitor scans open SLA records and flags warnings, breaches and
// escalations. It is schedule-agnostic: callers pass now, an external
// scheduler decides the cadence.
type SLAMonitor struct {
	Store        Store
	Publisher    EventPublisher
	WarnFraction float64
	Logger       *zap.Logger
}

type ScanFailure struct {
	SLAID string
	Err   error
}

type ScanResult struct {
	Scanned  int
	Events   []sla.Event
	Failures []ScanFailure
}

func NewSLAMonitor(store Store, publisher EventPublisher, logger *zap.Logger) *SLAMonitor {
	return &SLAMonitor{
		Store:        store,
		Publisher:    publisher,
		WarnFraction: DefaultWarnFraction,
		Logger:       logger,
	}
}

// Scan processes every open record independently: a failure on one record is
// logged and reported but never aborts the rest. Each record's update is its
// own small transaction, so a slow scan never blocks case creation or step
// completion. Breach detection is monotonic; a second scan with the same
// clock produces no new events.
func (m *SLAMonitor) Scan(ctx context.Context, now time.Time) (ScanResult, error) {
	records, err := m.Store.Repos().SLAs.ListOpen(ctx)
	if err != nil {
		return ScanResult{}, err
	}
	result := ScanResult{Scanned: len(records)}
	for _, record := range records {
		events, err := m.processRecord(ctx, record, now)
		if err != nil {
			m.Logger.Error("sla scan: record failed",
				zap.String("sla_id", record.ID),
				zap.String("case_id", record.CaseID),
				zap.Error(err))
			result.Failures = append(result.Failures, ScanFailure{SLAID: record.ID, Err: err})
			continue
		}
		for _, event := range events {
			if m.Publisher != nil {
				if err := m.Publisher.Publish(ctx, event); err != nil {
					m.Logger.Error("sla scan: publish failed",
						zap.String("sla_id", record.ID),
						zap.String("event", string(event.Type)),
						zap.Error(err))
				}
			}
			result.Events = append(result.Events, event)
		}
	}
	return result, nil
}

// processRecord persists the state change first; events are only reported
// once the guarded update actually claimed the transition, so concurrent
// scanners never double-emit.
func (m *SLAMonitor) processRecord(ctx context.Context, record sla.Record, now time.Time) ([]sla.Event, error) {
	var events []sla.Event
	err := m.Store.WithinTx(ctx, func(r Repositories) error {
		switch {
		case !record.IsBreached && record.Breached(now):
			level, claimed, err := r.SLAs.MarkBreached(ctx, record.ID)
			if err != nil {
				return err
			}
			if !claimed {
				return nil
			}
			events = append(events,
				sla.Event{
					Type:            sla.EventBreached,
					CaseID:          record.CaseID,
					SLAID:           record.ID,
					DueDate:         record.DueDate,
					EscalationLevel: level,
					OccurredAt:      now,
				},
				sla.Event{
					Type:            sla.EventEscalated,
					CaseID:          record.CaseID,
					SLAID:           record.ID,
					DueDate:         record.DueDate,
					EscalationLevel: level,
					OccurredAt:      now,
				})
		case !record.WarningSent && record.InWarningWindow(now, m.WarnFraction):
			claimed, err := r.SLAs.MarkWarningSent(ctx, record.ID)
			if err != nil {
				return err
			}
			if !claimed {
				return nil
			}
			events = append(events, sla.Event{
				Type:            sla.EventWarning,
				CaseID:          record.CaseID,
				SLAID:           record.ID,
				DueDate:         record.DueDate,
				EscalationLevel: record.EscalationLevel,
				OccurredAt:      now,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}
