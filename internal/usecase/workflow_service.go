package usecase

import (
	"context"
	"time"

	"repairdesk/internal/domain/workflow"
)

// WorkflowService creates and advances workflow instances. Every state
// transition rides one transaction together with its history entry, so no
// transition is ever visible without an audit record.
type WorkflowService struct {
	Store Store
	Clock func() time.Time
}

func NewWorkflowService(store Store) *WorkflowService {
	return &WorkflowService{Store: store, Clock: time.Now}
}

// StartIn instantiates a run of the definition for the case inside the
// caller's transaction. The instance begins on the definition's first step
// with a single start history entry (from = nil).
func (s *WorkflowService) StartIn(ctx context.Context, r Repositories, definitionID, caseID string) (workflow.Instance, error) {
	def, err := r.Definitions.Get(ctx, definitionID)
	if err != nil {
		return workflow.Instance{}, err
	}
	first, ok := def.FirstStep()
	if !ok {
		return workflow.Instance{}, workflow.ErrDefinitionHasNoSteps
	}
	inst, err := r.Instances.Create(ctx, workflow.Instance{
		DefinitionID:  def.ID,
		CaseID:        caseID,
		CurrentStepID: first.ID,
		Status:        workflow.StatusRunning,
		Variables:     map[string]any{},
		StartedAt:     s.Clock(),
	})
	if err != nil {
		return workflow.Instance{}, err
	}
	_, err = r.History.Append(ctx, workflow.HistoryEntry{
		InstanceID: inst.ID,
		FromStepID: nil,
		ToStepID:   &inst.CurrentStepID,
		Action:     workflow.ActionStart,
		CreatedAt:  s.Clock(),
	})
	if err != nil {
		return workflow.Instance{}, err
	}
	return inst, nil
}

// Start runs StartIn in its own transaction.
func (s *WorkflowService) Start(ctx context.Context, definitionID, caseID string) (workflow.Instance, error) {
	var inst workflow.Instance
	err := s.Store.WithinTx(ctx, func(r Repositories) error {
		var err error
		inst, err = s.StartIn(ctx, r, definitionID, caseID)
		return err
	})
	return inst, err
}

// CompleteStep validates that stepID is the instance's current step and
// moves the instance forward: to the next step by declared order, or to
// completed when the step ends the workflow. The step update is a guarded
// write, so of two concurrent attempts exactly one succeeds and the other
// observes ErrStepMismatch with nothing overwritten.
func (s *WorkflowService) CompleteStep(ctx context.Context, instanceID, stepID string, result map[string]any) (workflow.Instance, error) {
	var out workflow.Instance
	err := s.Store.WithinTx(ctx, func(r Repositories) error {
		inst, err := r.Instances.Get(ctx, instanceID)
		if err != nil {
			return err
		}
		if inst.Status.Terminal() {
			return workflow.ErrInstanceTerminal
		}
		if inst.CurrentStepID != stepID {
			return workflow.ErrStepMismatch
		}
		def, err := r.Definitions.Get(ctx, inst.DefinitionID)
		if err != nil {
			return err
		}
		step, ok := def.StepByID(stepID)
		if !ok {
			return workflow.ErrUnknownStep
		}
		variables := mergeStepResult(inst.Variables, step.Code, result)

		next, hasNext := def.NextStep(stepID)
		if hasNext {
			moved, err := r.Instances.AdvanceStep(ctx, inst.ID, stepID, next.ID, variables)
			if err != nil {
				return err
			}
			if !moved {
				return workflow.ErrStepMismatch
			}
			_, err = r.History.Append(ctx, workflow.HistoryEntry{
				InstanceID: inst.ID,
				FromStepID: &step.ID,
				ToStepID:   &next.ID,
				Action:     workflow.ActionAdvance,
				Metadata:   result,
				CreatedAt:  s.Clock(),
			})
			if err != nil {
				return err
			}
			inst.CurrentStepID = next.ID
			inst.Variables = variables
			out = inst
			return nil
		}

		completedAt := s.Clock()
		moved, err := r.Instances.Complete(ctx, inst.ID, stepID, variables, completedAt)
		if err != nil {
			return err
		}
		if !moved {
			return workflow.ErrStepMismatch
		}
		_, err = r.History.Append(ctx, workflow.HistoryEntry{
			InstanceID: inst.ID,
			FromStepID: &step.ID,
			Action:     workflow.ActionComplete,
			Metadata:   result,
			CreatedAt:  completedAt,
		})
		if err != nil {
			return err
		}
		inst.Status = workflow.StatusCompleted
		inst.CompletedAt = &completedAt
		inst.Variables = variables
		out = inst
		return nil
	})
	return out, err
}

// Cancel moves a running instance to cancelled. Cancelling an instance that
// is already terminal is a no-op, not an error, and appends no history.
func (s *WorkflowService) Cancel(ctx context.Context, instanceID, reason string) error {
	return s.Store.WithinTx(ctx, func(r Repositories) error {
		inst, err := r.Instances.Get(ctx, instanceID)
		if err != nil {
			return err
		}
		if inst.Status.Terminal() {
			return nil
		}
		cancelled, err := r.Instances.Cancel(ctx, inst.ID)
		if err != nil {
			return err
		}
		if !cancelled {
			// lost the race to another terminal transition
			return nil
		}
		_, err = r.History.Append(ctx, workflow.HistoryEntry{
			InstanceID: inst.ID,
			FromStepID: &inst.CurrentStepID,
			Action:     workflow.ActionCancel,
			Metadata:   map[string]any{"reason": reason},
			CreatedAt:  s.Clock(),
		})
		return err
	})
}

// GetInstance reads the current instance state. No in-memory copy is kept
// across requests; storage is the single source of truth.
func (s *WorkflowService) GetInstance(ctx context.Context, instanceID string) (workflow.Instance, error) {
	return s.Store.Repos().Instances.Get(ctx, instanceID)
}

// History returns the append-only transition log of an instance.
func (s *WorkflowService) History(ctx context.Context, instanceID string) ([]workflow.HistoryEntry, error) {
	return s.Store.Repos().History.ListByInstance(ctx, instanceID)
}

func mergeStepResult(variables map[string]any, stepCode string, result map[string]any) map[string]any {
	merged := make(map[string]any, len(variables)+1)
	for k, v := range variables {
		merged[k] = v
	}
	if len(result) > 0 {
		merged[stepCode] = result
	}
	return merged
}
