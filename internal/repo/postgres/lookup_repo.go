package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"repairdesk/internal/domain/repair"
)

// LookupRepo is the point-lookup collaborator for device and customer
// scalars; the core never orchestrates anything through those services
// beyond a read by ID.
type LookupRepo struct {
	DB Querier
}

func (r *LookupRepo) DeviceTypeID(ctx context.Context, deviceID string) (string, error) {
	if r == nil || r.DB == nil {
		return "", fmt.Errorf("db not configured")
	}
	var deviceTypeID string
	err := r.DB.QueryRow(ctx,
		`SELECT device_type_id FROM devices WHERE id = $1`, deviceID).Scan(&deviceTypeID)
	if err == pgx.ErrNoRows {
		return "", repair.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return deviceTypeID, nil
}

func (r *LookupRepo) CustomerTier(ctx context.Context, customerID string) (string, error) {
	if r == nil || r.DB == nil {
		return "", fmt.Errorf("db not configured")
	}
	var tier *string
	err := r.DB.QueryRow(ctx,
		`SELECT tier FROM customers WHERE id = $1`, customerID).Scan(&tier)
	if err == pgx.ErrNoRows {
		return "", repair.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	if tier == nil {
		return "", nil
	}
	return *tier, nil
}
