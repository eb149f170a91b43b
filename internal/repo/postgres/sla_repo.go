package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"repairdesk/internal/domain/repair"
	"repairdesk/internal/domain/sla"
)

type SLARepo struct {
	DB Querier
}

func (r *SLARepo) Create(ctx context.Context, record sla.Record) (sla.Record, error) {
	if r == nil || r.DB == nil {
		return sla.Record{}, fmt.Errorf("db not configured")
	}
	query := `
INSERT INTO sla_records (case_id, priority, created_at, due_date, is_breached, warning_sent, escalation_level)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`
	row := r.DB.QueryRow(ctx, query,
		record.CaseID,
		string(record.Priority),
		record.CreatedAt,
		record.DueDate,
		record.IsBreached,
		record.WarningSent,
		record.EscalationLevel,
	)
	if err := row.Scan(&record.ID); err != nil {
		if isUniqueViolation(err) {
			return sla.Record{}, repair.ErrConflict
		}
		return sla.Record{}, err
	}
	return record, nil
}

func (r *SLARepo) Get(ctx context.Context, slaID string) (sla.Record, error) {
	if r == nil || r.DB == nil {
		return sla.Record{}, fmt.Errorf("db not configured")
	}
	query := `
SELECT id, case_id, priority, created_at, due_date, is_breached, warning_sent, escalation_level
FROM sla_records
WHERE id = $1`
	return scanSLA(r.DB.QueryRow(ctx, query, slaID))
}

// ListOpen selects records whose case is still live. Ordered by due date so
// the records closest to breach are handled first.
func (r *SLARepo) ListOpen(ctx context.Context) ([]sla.Record, error) {
	if r == nil || r.DB == nil {
		return nil, fmt.Errorf("db not configured")
	}
	query := `
SELECT s.id, s.case_id, s.priority, s.created_at, s.due_date, s.is_breached, s.warning_sent, s.escalation_level
FROM sla_records s
JOIN repair_cases c ON c.id = s.case_id
WHERE c.status NOT IN ('completed', 'cancelled')
ORDER BY s.due_date ASC`
	rows, err := r.DB.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []sla.Record
	for rows.Next() {
		record, err := scanSLA(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// MarkBreached claims the breach transition at most once; a record that is
// already breached stays untouched and reports claimed = false.
func (r *SLARepo) MarkBreached(ctx context.Context, slaID string) (int, bool, error) {
	if r == nil || r.DB == nil {
		return 0, false, fmt.Errorf("db not configured")
	}
	query := `
UPDATE sla_records
SET is_breached = true, escalation_level = escalation_level + 1
WHERE id = $1 AND is_breached = false
RETURNING escalation_level`
	var level int
	if err := r.DB.QueryRow(ctx, query, slaID).Scan(&level); err != nil {
		if err == pgx.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, err
	}
	return level, true, nil
}

func (r *SLARepo) MarkWarningSent(ctx context.Context, slaID string) (bool, error) {
	if r == nil || r.DB == nil {
		return false, fmt.Errorf("db not configured")
	}
	query := `
UPDATE sla_records
SET warning_sent = true
WHERE id = $1 AND warning_sent = false`
	tag, err := r.DB.Exec(ctx, query, slaID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func scanSLA(row pgx.Row) (sla.Record, error) {
	var record sla.Record
	var priority string
	if err := row.Scan(
		&record.ID,
		&record.CaseID,
		&priority,
		&record.CreatedAt,
		&record.DueDate,
		&record.IsBreached,
		&record.WarningSent,
		&record.EscalationLevel,
	); err != nil {
		if err == pgx.ErrNoRows {
			return sla.Record{}, repair.ErrNotFound
		}
		return sla.Record{}, err
	}
	record.Priority = repair.Priority(priority)
	return record, nil
}
