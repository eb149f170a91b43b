package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"repairdesk/internal/config"
	"repairdesk/internal/usecase"
)

// Querier is the subset of pgx satisfied by both *pgxpool.Pool and pgx.Tx,
// so every repository runs unchanged inside or outside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	Pool *pgxpool.Pool
}

func NewStore(cfg config.Config) (*Store, error) {
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, fmt.Errorf("POSTGRES_DSN is required")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	if s == nil || s.Pool == nil {
		return
	}
	s.Pool.Close()
}

func (s *Store) Repos() usecase.Repositories {
	return reposOver(s.Pool)
}

// WithinTx runs fn's repository calls inside one transaction; any error
// rolls everything back.
func (s *Store) WithinTx(ctx context.Context, fn func(usecase.Repositories) error) error {
	if s == nil || s.Pool == nil {
		return fmt.Errorf("db not configured")
	}
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := fn(reposOver(tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func reposOver(q Querier) usecase.Repositories {
	return usecase.Repositories{
		Cases:          &CaseRepo{DB: q},
		Definitions:    &DefinitionRepo{DB: q},
		Configurations: &ConfigurationRepo{DB: q},
		Instances:      &InstanceRepo{DB: q},
		History:        &HistoryRepo{DB: q},
		SLAs:           &SLARepo{DB: q},
		Lookups:        &LookupRepo{DB: q},
	}
}

// isUniqueViolation reports a postgres unique_violation error.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
