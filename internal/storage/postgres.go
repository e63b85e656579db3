// Package storage is the thin read-only adapter onto the external
// employee record system: a Postgres table owned by another service,
// from which this engine only ever reads active employees and writes
// back an aggregate embedding as an operational audit trail.
package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/fingerprint-id/engine/internal/config"
	"github.com/fingerprint-id/engine/internal/models"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(cfg config.DatabaseConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const employeeColumns = `
	id_empleado, nombre, activo,
	imagen1, imagen2, imagen3, imagen4,
	template1, template2, template3, template4,
	updated_at`

// ListActiveEmployees returns every employee with activo = true, along
// with their four image and four template slots.
func (s *PostgresStore) ListActiveEmployees(ctx context.Context) ([]models.EmployeeRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+employeeColumns+` FROM empleados WHERE activo = true ORDER BY id_empleado`)
	if err != nil {
		return nil, fmt.Errorf("list active employees: %w", err)
	}
	defer rows.Close()

	var out []models.EmployeeRecord
	for rows.Next() {
		rec, err := scanEmployeeRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// GetEmployee returns a single employee by id, or nil if not found.
func (s *PostgresStore) GetEmployee(ctx context.Context, id string) (*models.EmployeeRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+employeeColumns+` FROM empleados WHERE id_empleado = $1`, id)

	rec, err := scanEmployeeRow(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get employee %s: %w", id, err)
	}
	return &rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployeeRow(row rowScanner) (models.EmployeeRecord, error) {
	var rec models.EmployeeRecord
	err := row.Scan(
		&rec.ID, &rec.Name, &rec.Active,
		&rec.Images[0], &rec.Images[1], &rec.Images[2], &rec.Images[3],
		&rec.Templates[0], &rec.Templates[1], &rec.Templates[2], &rec.Templates[3],
		&rec.UpdatedAt,
	)
	return rec, err
}

// PersistEmbedding writes an employee's aggregate embedding back as an
// audit trail. It is never read back for matching decisions — the
// in-memory index is the sole authority there.
func (s *PostgresStore) PersistEmbedding(ctx context.Context, employeeID string, embedding []float32) error {
	vec := pgvector.NewVector(embedding)
	_, err := s.pool.Exec(ctx,
		`UPDATE empleados SET embedding = $1 WHERE id_empleado = $2`, vec, employeeID)
	if err != nil {
		return fmt.Errorf("persist embedding for %s: %w", employeeID, err)
	}
	return nil
}
