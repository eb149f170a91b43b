package usecase

import (
	"context"
	"time"

	"repairdesk/internal/domain/repair"
	"repairdesk/internal/domain/sla"
	"repairdesk/internal/domain/workflow"
)

type CaseRepository interface {
	Create(ctx context.Context, c repair.Case) (repair.Case, error)
	Get(ctx context.Context, caseID string) (repair.Case, error)
	List(ctx context.Context, filter CaseListFilter) ([]repair.Case, error)
	AttachWorkflow(ctx context.Context, caseID, instanceID string) error
	AttachSLA(ctx context.Context, caseID, slaID string) error
}

type DefinitionRepository interface {
	Create(ctx context.Context, def workflow.Definition) (workflow.Definition, error)
	Get(ctx context.Context, definitionID string) (workflow.Definition, error)
}

type ConfigurationRepository interface {
	Create(ctx context.Context, cfg workflow.Configuration) (workflow.Configuration, error)
	List(ctx context.Context) ([]workflow.Configuration, error)
	// ListCandidates returns active configurations for the service type whose
	// referenced definition is also active. Ranking happens in Go, not SQL.
	ListCandidates(ctx context.Context, serviceType string) ([]workflow.Configuration, error)
}

type InstanceRepository interface {
	Create(ctx context.Context, inst workflow.Instance) (workflow.Instance, error)
	Get(ctx context.Context, instanceID string) (workflow.Instance, error)
	GetByCase(ctx context.Context, caseID string) (workflow.Instance, error)
	// AdvanceStep moves current_step_id forward only if the instance is still
	// running on fromStepID. Returns false when the guard did not match.
	AdvanceStep(ctx context.Context, instanceID, fromStepID, toStepID string, variables map[string]any) (bool, error)
	// Complete terminates the instance only if it is still running on
	// fromStepID. Returns false when the guard did not match.
	Complete(ctx context.Context, instanceID, fromStepID string, variables map[string]any, completedAt time.Time) (bool, error)
	// Cancel is a no-op returning false when the instance is already terminal.
	Cancel(ctx context.Context, instanceID string) (bool, error)
}

type HistoryRepository interface {
	Append(ctx context.Context, entry workflow.HistoryEntry) (workflow.HistoryEntry, error)
	ListByInstance(ctx context.Context, instanceID string) ([]workflow.HistoryEntry, error)
}

type SLARepository interface {
	Create(ctx context.Context, record sla.Record) (sla.Record, error)
	Get(ctx context.Context, slaID string) (sla.Record, error)
	// ListOpen returns records whose case is not completed or cancelled.
	ListOpen(ctx context.Context) ([]sla.Record, error)
	// MarkBreached flips is_breached and bumps escalation_level, only once:
	// returns the new escalation level and false if already breached.
	MarkBreached(ctx context.Context, slaID string) (int, bool, error)
	// MarkWarningSent flips warning_sent once; false if already sent.
	MarkWarningSent(ctx context.Context, slaID string) (bool, error)
}

type LookupRepository interface {
	DeviceTypeID(ctx context.Context, deviceID string) (string, error)
	CustomerTier(ctx context.Context, customerID string) (string, error)
}

// Repositories bundles every repository over one querier, either the pool or
// a single open transaction.
type Repositories struct {
	Cases          CaseRepository
	Definitions    DefinitionRepository
	Configurations ConfigurationRepository
	Instances      InstanceRepository
	History        HistoryRepository
	SLAs           SLARepository
	Lookups        LookupRepository
}

// Store hands out repositories and scopes them to transactions. The
// composition root owns the underlying pool lifecycle.
type Store interface {
	Repos() Repositories
	WithinTx(ctx context.Context, fn func(Repositories) error) error
}

type CaseListFilter struct {
	Status   string
	Priority string
	Limit    int
}
