package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"repairdesk/internal/domain/workflow"
)

// HistoryRepo is append-only: entries are never updated or deleted.
type HistoryRepo struct {
	DB Querier
}

func (r *HistoryRepo) Append(ctx context.Context, entry workflow.HistoryEntry) (workflow.HistoryEntry, error) {
	if r == nil || r.DB == nil {
		return workflow.HistoryEntry{}, fmt.Errorf("db not configured")
	}
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return workflow.HistoryEntry{}, err
	}
	query := `
INSERT INTO workflow_state_history (instance_id, from_step_id, to_step_id, action, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`
	row := r.DB.QueryRow(ctx, query,
		entry.InstanceID,
		entry.FromStepID,
		entry.ToStepID,
		string(entry.Action),
		metadata,
		entry.CreatedAt,
	)
	if err := row.Scan(&entry.ID); err != nil {
		return workflow.HistoryEntry{}, err
	}
	return entry, nil
}

func (r *HistoryRepo) ListByInstance(ctx context.Context, instanceID string) ([]workflow.HistoryEntry, error) {
	if r == nil || r.DB == nil {
		return nil, fmt.Errorf("db not configured")
	}
	query := `
SELECT id, instance_id, from_step_id, to_step_id, action, metadata, created_at
FROM workflow_state_history
WHERE instance_id = $1
ORDER BY created_at ASC, id ASC`
	rows, err := r.DB.Query(ctx, query, instanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []workflow.HistoryEntry
	for rows.Next() {
		var entry workflow.HistoryEntry
		var action string
		var metadata []byte
		if err := rows.Scan(
			&entry.ID,
			&entry.InstanceID,
			&entry.FromStepID,
			&entry.ToStepID,
			&action,
			&metadata,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		entry.Action = workflow.HistoryAction(action)
		if len(metadata) > 0 {
			_ = json.Unmarshal(metadata, &entry.Metadata)
		}
		out = append(out, entry)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
