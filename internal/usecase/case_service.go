package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"repairdesk/internal/domain/repair"
	"repairdesk/internal/domain/sla"
	"repairdesk/internal/domain/workflow"
)

// Warnings surfaced on the create-case response when workflow attachment
// takes a soft path. The two cases stay distinct: in the first no
// configuration matched at all, in the second a configuration matched but
// its definition declares no steps.
const (
	WarningNoConfiguration = "case created, no workflow attached"
	WarningNoSteps         = "workflow attached but not started"
)

// ErrNoWorkflowAttached is returned by workflow operations on a case that
// was created without a matching configuration.
var ErrNoWorkflowAttached = errors.New("case has no workflow attached")

// CaseService is the composition root of the workflow/SLA core: it wires the
// configuration resolver, the instance manager and the SLA calculator into
// the case-creation transaction.
type CaseService struct {
	Store    Store
	Workflow *WorkflowService
	Clock    func() time.Time
}

type CreateCaseInput struct {
	CaseNumber  string
	CustomerID  string
	DeviceID    string
	ServiceType string
	Priority    string
}

// CreateCaseResult always carries the created case and its SLA record; the
// instance is absent and Warning set when workflow attachment took a soft
// path.
type CreateCaseResult struct {
	Case     repair.Case
	Instance *workflow.Instance
	SLA      sla.Record
	Warning  string
}

type CaseView struct {
	Case     repair.Case
	Instance *workflow.Instance
	SLA      *sla.Record
}

func NewCaseService(store Store, wf *WorkflowService) *CaseService {
	return &CaseService{Store: store, Workflow: wf, Clock: time.Now}
}

func (in CreateCaseInput) validate() error {
	if strings.TrimSpace(in.CaseNumber) == "" ||
		strings.TrimSpace(in.CustomerID) == "" ||
		strings.TrimSpace(in.DeviceID) == "" ||
		strings.TrimSpace(in.ServiceType) == "" {
		return repair.ErrInvalidArgument
	}
	return nil
}

// CreateCase inserts the case and attaches workflow and SLA state in one
// atomic transaction. "No matching configuration" and "definition has no
// steps" are expected soft paths that leave the case committed with a
// warning; any other failure rolls the whole transaction back, case row
// included, so no case ever exists without a coherent SLA record.
func (s *CaseService) CreateCase(ctx context.Context, input CreateCaseInput) (CreateCaseResult, error) {
	if err := input.validate(); err != nil {
		return CreateCaseResult{}, err
	}
	priority := repair.ParsePriority(input.Priority)

	var result CreateCaseResult
	err := s.Store.WithinTx(ctx, func(r Repositories) error {
		created, err := r.Cases.Create(ctx, repair.Case{
			CaseNumber:  strings.TrimSpace(input.CaseNumber),
			CustomerID:  input.CustomerID,
			DeviceID:    input.DeviceID,
			ServiceType: input.ServiceType,
			Priority:    priority,
			Status:      repair.StatusOpen,
			CreatedAt:   s.Clock(),
		})
		if err != nil {
			return err
		}
		result.Case = created

		deviceTypeID, err := r.Lookups.DeviceTypeID(ctx, created.DeviceID)
		if err != nil {
			return err
		}
		customerTier, err := r.Lookups.CustomerTier(ctx, created.CustomerID)
		if err != nil {
			return err
		}

		instance, warning, err := s.attachWorkflow(ctx, r, created, deviceTypeID, customerTier)
		if err != nil {
			return err
		}
		result.Instance = instance
		result.Warning = warning
		if instance != nil {
			result.Case.WorkflowInstanceID = &instance.ID
		}

		record, err := r.SLAs.Create(ctx, sla.NewRecord("", created.ID, priority, created.CreatedAt))
		if err != nil {
			return err
		}
		if err := r.Cases.AttachSLA(ctx, created.ID, record.ID); err != nil {
			return err
		}
		result.SLA = record
		result.Case.SLAID = &record.ID
		return nil
	})
	if err != nil {
		return CreateCaseResult{}, err
	}
	return result, nil
}

// attachWorkflow resolves the best-matching configuration and starts an
// instance. The soft paths come back as a warning with a nil instance; only
// unexpected failures return an error.
func (s *CaseService) attachWorkflow(ctx context.Context, r Repositories, c repair.Case, deviceTypeID, customerTier string) (*workflow.Instance, string, error) {
	candidates, err := r.Configurations.ListCandidates(ctx, c.ServiceType)
	if err != nil {
		return nil, "", err
	}
	cfg, err := workflow.SelectConfiguration(candidates, deviceTypeID, customerTier, c.ServiceType)
	if errors.Is(err, workflow.ErrNoConfiguration) {
		return nil, WarningNoConfiguration, nil
	}
	if err != nil {
		return nil, "", err
	}
	instance, err := s.Workflow.StartIn(ctx, r, cfg.DefinitionID, c.ID)
	if errors.Is(err, workflow.ErrDefinitionHasNoSteps) {
		return nil, WarningNoSteps, nil
	}
	if err != nil {
		return nil, "", err
	}
	if err := r.Cases.AttachWorkflow(ctx, c.ID, instance.ID); err != nil {
		return nil, "", err
	}
	return &instance, "", nil
}

// GetCase returns the case together with its workflow and SLA state, read
// back from storage.
func (s *CaseService) GetCase(ctx context.Context, caseID string) (CaseView, error) {
	r := s.Store.Repos()
	c, err := r.Cases.Get(ctx, caseID)
	if err != nil {
		return CaseView{}, err
	}
	view := CaseView{Case: c}
	if c.WorkflowInstanceID != nil {
		instance, err := r.Instances.Get(ctx, *c.WorkflowInstanceID)
		if err != nil && !errors.Is(err, repair.ErrNotFound) {
			return CaseView{}, err
		}
		if err == nil {
			view.Instance = &instance
		}
	}
	if c.SLAID != nil {
		record, err := r.SLAs.Get(ctx, *c.SLAID)
		if err != nil && !errors.Is(err, repair.ErrNotFound) {
			return CaseView{}, err
		}
		if err == nil {
			view.SLA = &record
		}
	}
	return view, nil
}

func (s *CaseService) ListCases(ctx context.Context, filter CaseListFilter) ([]repair.Case, error) {
	return s.Store.Repos().Cases.List(ctx, filter)
}
