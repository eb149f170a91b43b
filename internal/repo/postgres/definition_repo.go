package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"repairdesk/internal/domain/repair"
	"repairdesk/internal/domain/workflow"
)

type DefinitionRepo struct {
	DB Querier
}

func (r *DefinitionRepo) Create(ctx context.Context, def workflow.Definition) (workflow.Definition, error) {
	if r == nil || r.DB == nil {
		return workflow.Definition{}, fmt.Errorf("db not configured")
	}
	query := `
INSERT INTO workflow_definitions (name, version, is_active)
VALUES ($1, $2, $3)
RETURNING id, created_at`
	row := r.DB.QueryRow(ctx, query, def.Name, def.Version, def.IsActive)
	if err := row.Scan(&def.ID, &def.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return workflow.Definition{}, repair.ErrConflict
		}
		return workflow.Definition{}, err
	}
	steps := make([]workflow.Step, 0, len(def.Steps))
	for _, step := range def.Steps {
		step.DefinitionID = def.ID
		stepQuery := `
INSERT INTO workflow_steps (definition_id, name, code, step_type, sequence, timeout_hours)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`
		row := r.DB.QueryRow(ctx, stepQuery,
			step.DefinitionID, step.Name, step.Code, string(step.Type), step.Sequence, step.TimeoutHours)
		if err := row.Scan(&step.ID); err != nil {
			return workflow.Definition{}, err
		}
		steps = append(steps, step)
	}
	def.Steps = steps
	return def, nil
}

func (r *DefinitionRepo) Get(ctx context.Context, definitionID string) (workflow.Definition, error) {
	if r == nil || r.DB == nil {
		return workflow.Definition{}, fmt.Errorf("db not configured")
	}
	query := `
SELECT id, name, version, is_active, created_at
FROM workflow_definitions
WHERE id = $1`
	var def workflow.Definition
	if err := r.DB.QueryRow(ctx, query, definitionID).Scan(
		&def.ID, &def.Name, &def.Version, &def.IsActive, &def.CreatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return workflow.Definition{}, repair.ErrNotFound
		}
		return workflow.Definition{}, err
	}
	stepsQuery := `
SELECT id, definition_id, name, code, step_type, sequence, timeout_hours
FROM workflow_steps
WHERE definition_id = $1
ORDER BY sequence ASC`
	rows, err := r.DB.Query(ctx, stepsQuery, def.ID)
	if err != nil {
		return workflow.Definition{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var step workflow.Step
		var stepType string
		if err := rows.Scan(
			&step.ID, &step.DefinitionID, &step.Name, &step.Code,
			&stepType, &step.Sequence, &step.TimeoutHours,
		); err != nil {
			return workflow.Definition{}, err
		}
		step.Type = workflow.StepType(stepType)
		def.Steps = append(def.Steps, step)
	}
	if rows.Err() != nil {
		return workflow.Definition{}, rows.Err()
	}
	return def, nil
}
