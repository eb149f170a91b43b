package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"repairdesk/internal/domain/workflow"
)

type ConfigurationRepo struct {
	DB Querier
}

func (r *ConfigurationRepo) Create(ctx context.Context, cfg workflow.Configuration) (workflow.Configuration, error) {
	if r == nil || r.DB == nil {
		return workflow.Configuration{}, fmt.Errorf("db not configured")
	}
	query := `
INSERT INTO workflow_configurations (definition_id, device_type_id, customer_tier, service_type, is_active)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`
	row := r.DB.QueryRow(ctx, query,
		cfg.DefinitionID, cfg.DeviceTypeID, cfg.CustomerTier, cfg.ServiceType, cfg.IsActive)
	if err := row.Scan(&cfg.ID); err != nil {
		return workflow.Configuration{}, err
	}
	return cfg, nil
}

func (r *ConfigurationRepo) List(ctx context.Context) ([]workflow.Configuration, error) {
	if r == nil || r.DB == nil {
		return nil, fmt.Errorf("db not configured")
	}
	query := `
SELECT id, definition_id, device_type_id, customer_tier, service_type, is_active
FROM workflow_configurations
ORDER BY id ASC`
	rows, err := r.DB.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectConfigurations(rows)
}

// ListCandidates pre-filters on service type and active flags; the
// specificity ranking itself lives in workflow.SelectConfiguration, not in
// SQL. The query orders by id so candidate order is stable regardless.
func (r *ConfigurationRepo) ListCandidates(ctx context.Context, serviceType string) ([]workflow.Configuration, error) {
	if r == nil || r.DB == nil {
		return nil, fmt.Errorf("db not configured")
	}
	query := `
SELECT c.id, c.definition_id, c.device_type_id, c.customer_tier, c.service_type, c.is_active
FROM workflow_configurations c
JOIN workflow_definitions d ON d.id = c.definition_id
WHERE c.service_type = $1 AND c.is_active AND d.is_active
ORDER BY c.id ASC`
	rows, err := r.DB.Query(ctx, query, serviceType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectConfigurations(rows)
}

func collectConfigurations(rows pgx.Rows) ([]workflow.Configuration, error) {
	var out []workflow.Configuration
	for rows.Next() {
		var cfg workflow.Configuration
		if err := rows.Scan(
			&cfg.ID,
			&cfg.DefinitionID,
			&cfg.DeviceTypeID,
			&cfg.CustomerTier,
			&cfg.ServiceType,
			&cfg.IsActive,
		); err != nil {
			return nil, err
		}
		out = append(out, cfg)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
