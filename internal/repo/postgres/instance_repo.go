package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"repairdesk/internal/domain/repair"
	"repairdesk/internal/domain/workflow"
)

type InstanceRepo struct {
	DB Querier
}

func (r *InstanceRepo) Create(ctx context.Context, inst workflow.Instance) (workflow.Instance, error) {
	if r == nil || r.DB == nil {
		return workflow.Instance{}, fmt.Errorf("db not configured")
	}
	variables, err := json.Marshal(inst.Variables)
	if err != nil {
		return workflow.Instance{}, err
	}
	query := `
INSERT INTO workflow_instances (definition_id, case_id, current_step_id, status, variables, started_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`
	row := r.DB.QueryRow(ctx, query,
		inst.DefinitionID,
		inst.CaseID,
		inst.CurrentStepID,
		string(inst.Status),
		variables,
		inst.StartedAt,
	)
	if err := row.Scan(&inst.ID); err != nil {
		if isUniqueViolation(err) {
			// a running instance already exists for this case
			return workflow.Instance{}, repair.ErrConflict
		}
		return workflow.Instance{}, err
	}
	return inst, nil
}

func (r *InstanceRepo) Get(ctx context.Context, instanceID string) (workflow.Instance, error) {
	if r == nil || r.DB == nil {
		return workflow.Instance{}, fmt.Errorf("db not configured")
	}
	query := `
SELECT id, definition_id, case_id, current_step_id, status, variables, started_at, completed_at
FROM workflow_instances
WHERE id = $1`
	return scanInstance(r.DB.QueryRow(ctx, query, instanceID))
}

func (r *InstanceRepo) GetByCase(ctx context.Context, caseID string) (workflow.Instance, error) {
	if r == nil || r.DB == nil {
		return workflow.Instance{}, fmt.Errorf("db not configured")
	}
	query := `
SELECT id, definition_id, case_id, current_step_id, status, variables, started_at, completed_at
FROM workflow_instances
WHERE case_id = $1
ORDER BY started_at DESC
LIMIT 1`
	return scanInstance(r.DB.QueryRow(ctx, query, caseID))
}

// AdvanceStep only moves the instance when it is still running on
// fromStepID; a concurrent transition makes the guard miss and the caller
// observes a step mismatch instead of silently overwriting state.
func (r *InstanceRepo) AdvanceStep(ctx context.Context, instanceID, fromStepID, toStepID string, variables map[string]any) (bool, error) {
	if r == nil || r.DB == nil {
		return false, fmt.Errorf("db not configured")
	}
	encoded, err := json.Marshal(variables)
	if err != nil {
		return false, err
	}
	query := `
UPDATE workflow_instances
SET current_step_id = $3, variables = $4
WHERE id = $1 AND status = 'running' AND current_step_id = $2`
	tag, err := r.DB.Exec(ctx, query, instanceID, fromStepID, toStepID, encoded)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *InstanceRepo) Complete(ctx context.Context, instanceID, fromStepID string, variables map[string]any, completedAt time.Time) (bool, error) {
	if r == nil || r.DB == nil {
		return false, fmt.Errorf("db not configured")
	}
	encoded, err := json.Marshal(variables)
	if err != nil {
		return false, err
	}
	query := `
UPDATE workflow_instances
SET status = 'completed', variables = $3, completed_at = $4
WHERE id = $1 AND status = 'running' AND current_step_id = $2`
	tag, err := r.DB.Exec(ctx, query, instanceID, fromStepID, encoded, completedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *InstanceRepo) Cancel(ctx context.Context, instanceID string) (bool, error) {
	if r == nil || r.DB == nil {
		return false, fmt.Errorf("db not configured")
	}
	query := `
UPDATE workflow_instances
SET status = 'cancelled', completed_at = now()
WHERE id = $1 AND status = 'running'`
	tag, err := r.DB.Exec(ctx, query, instanceID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func scanInstance(row pgx.Row) (workflow.Instance, error) {
	var inst workflow.Instance
	var status string
	var variables []byte
	if err := row.Scan(
		&inst.ID,
		&inst.DefinitionID,
		&inst.CaseID,
		&inst.CurrentStepID,
		&status,
		&variables,
		&inst.StartedAt,
		&inst.CompletedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return workflow.Instance{}, repair.ErrNotFound
		}
		return workflow.Instance{}, err
	}
	inst.Status = workflow.InstanceStatus(status)
	if len(variables) > 0 {
		_ = json.Unmarshal(variables, &inst.Variables)
	}
	return inst, nil
}
