package notify

import (
	"context"

	"go.uber.org/zap"

	"repairdesk/internal/domain/sla"
)

// LogPublisher is the fallback sink when no delivery transport is
// configured: events end up in the service log only.
type LogPublisher struct {
	Logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{Logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, event sla.Event) error {
	p.Logger.Info("sla event",
		zap.String("type", string(event.Type)),
		zap.String("case_id", event.CaseID),
		zap.String("sla_id", event.SLAID),
		zap.Time("due_date", event.DueDate),
		zap.Int("escalation_level", event.EscalationLevel))
	return nil
}
