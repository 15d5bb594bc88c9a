package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"impactx/internal/oracle/models"
	id "impactx/pkg/domain"
	"impactx/pkg/platform/sentinel"
)

// PostgresStore persists the oracle registry in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const oracleColumns = `id, name, weight, status, registered_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, oracle *models.Oracle) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO oracles (`+oracleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`, string(oracle.ID), oracle.Name, oracle.Weight, string(oracle.Status), oracle.RegisteredAt, oracle.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert oracle: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, oracleID id.OracleID) (*models.Oracle, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+oracleColumns+` FROM oracles WHERE id = $1`, string(oracleID))
	o, err := scanOracle(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find oracle: %w", err)
	}
	return o, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Oracle, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+oracleColumns+` FROM oracles ORDER BY registered_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list oracles: %w", err)
	}
	defer rows.Close()

	var out []*models.Oracle
	for rows.Next() {
		o, err := scanOracle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan oracle: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate oracles: %w", err)
	}
	return out, nil
}

// Execute locks the oracle row with SELECT ... FOR UPDATE for the duration
// of validate and mutate.
func (s *PostgresStore) Execute(ctx context.Context, oracleID id.OracleID, validate func(*models.Oracle) error, mutate func(*models.Oracle)) (*models.Oracle, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin oracle tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `SELECT `+oracleColumns+` FROM oracles WHERE id = $1 FOR UPDATE`, string(oracleID))
	o, err := scanOracle(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("lock oracle: %w", err)
	}
	if err := validate(o); err != nil {
		return nil, err
	}
	mutate(o)

	_, err = tx.ExecContext(ctx, `
		UPDATE oracles SET name = $2, weight = $3, status = $4, updated_at = $5 WHERE id = $1
	`, string(o.ID), o.Name, o.Weight, string(o.Status), o.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update oracle: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit oracle tx: %w", err)
	}
	return o, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOracle(row rowScanner) (*models.Oracle, error) {
	var (
		o      models.Oracle
		oid    string
		status string
	)
	if err := row.Scan(&oid, &o.Name, &o.Weight, &status, &o.RegisteredAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	o.ID = id.OracleID(oid)
	o.Status = models.OracleStatus(status)
	return &o, nil
}
