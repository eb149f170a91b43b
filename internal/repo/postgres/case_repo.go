package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"repairdesk/internal/domain/repair"
	"repairdesk/internal/usecase"
)

type CaseRepo struct {
	DB Querier
}

func (r *CaseRepo) Create(ctx context.Context, c repair.Case) (repair.Case, error) {
	if r == nil || r.DB == nil {
		return repair.Case{}, fmt.Errorf("db not configured")
	}
	query := `
INSERT INTO repair_cases (case_number, customer_id, device_id, service_type, priority, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`
	row := r.DB.QueryRow(ctx, query,
		c.CaseNumber,
		c.CustomerID,
		c.DeviceID,
		c.ServiceType,
		string(c.Priority),
		string(c.Status),
		c.CreatedAt,
	)
	if err := row.Scan(&c.ID); err != nil {
		if isUniqueViolation(err) {
			return repair.Case{}, repair.ErrConflict
		}
		return repair.Case{}, err
	}
	return c, nil
}

func (r *CaseRepo) Get(ctx context.Context, caseID string) (repair.Case, error) {
	if r == nil || r.DB == nil {
		return repair.Case{}, fmt.Errorf("db not configured")
	}
	query := `
SELECT id, case_number, customer_id, device_id, service_type, priority, status,
       workflow_instance_id, sla_id, created_at
FROM repair_cases
WHERE id = $1`
	return scanCase(r.DB.QueryRow(ctx, query, caseID))
}

func (r *CaseRepo) List(ctx context.Context, filter usecase.CaseListFilter) ([]repair.Case, error) {
	if r == nil || r.DB == nil {
		return nil, fmt.Errorf("db not configured")
	}
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := `
SELECT id, case_number, customer_id, device_id, service_type, priority, status,
       workflow_instance_id, sla_id, created_at
FROM repair_cases
WHERE ($1 = '' OR status = $1)
  AND ($2 = '' OR priority = $2)
ORDER BY created_at DESC
LIMIT $3`
	rows, err := r.DB.Query(ctx, query, filter.Status, filter.Priority, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []repair.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *CaseRepo) AttachWorkflow(ctx context.Context, caseID, instanceID string) error {
	if r == nil || r.DB == nil {
		return fmt.Errorf("db not configured")
	}
	tag, err := r.DB.Exec(ctx,
		`UPDATE repair_cases SET workflow_instance_id = $2 WHERE id = $1`, caseID, instanceID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repair.ErrNotFound
	}
	return nil
}

func (r *CaseRepo) AttachSLA(ctx context.Context, caseID, slaID string) error {
	if r == nil || r.DB == nil {
		return fmt.Errorf("db not configured")
	}
	tag, err := r.DB.Exec(ctx,
		`UPDATE repair_cases SET sla_id = $2 WHERE id = $1`, caseID, slaID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repair.ErrNotFound
	}
	return nil
}

func scanCase(row pgx.Row) (repair.Case, error) {
	var c repair.Case
	var priority, status string
	if err := row.Scan(
		&c.ID,
		&c.CaseNumber,
		&c.CustomerID,
		&c.DeviceID,
		&c.ServiceType,
		&priority,
		&status,
		&c.WorkflowInstanceID,
		&c.SLAID,
		&c.CreatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return repair.Case{}, repair.ErrNotFound
		}
		return repair.Case{}, err
	}
	c.Priority = repair.Priority(priority)
	c.Status = repair.CaseStatus(status)
	return c, nil
}
