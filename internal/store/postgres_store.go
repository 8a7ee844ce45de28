package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/grievance-portal/internal/domain"
	apperrors "github.com/spec-kit/grievance-portal/pkg/util/errorutil"
)

// PostgresStore persists grievances in a relational table. Mutations touch a
// single row; the seed rows are inserted when the table is empty.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const grievanceColumns = `
        id, title, description, category, employee_name, employee_email,
        status, assigned_to, created_at, updated_at, comments, attachments`

// LoadAll returns every row sorted by id, seeding the table if empty.
func (s *PostgresStore) LoadAll(ctx context.Context) ([]domain.Grievance, error) {
	if err := s.ensureSeeded(ctx); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `SELECT`+grievanceColumns+` FROM grievances ORDER BY id`)
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	defer rows.Close()
	return scanGrievances(rows)
}

// Get returns one row by id.
func (s *PostgresStore) Get(ctx context.Context, id string) (*domain.Grievance, error) {
	if err := s.ensureSeeded(ctx); err != nil {
		return nil, err
	}
	var g domain.Grievance
	err := s.pool.QueryRow(ctx, `SELECT`+grievanceColumns+` FROM grievances WHERE id=$1`, id).Scan(
		&g.ID, &g.Title, &g.Description, &g.Category, &g.EmployeeName, &g.EmployeeEmail,
		&g.Status, &g.AssignedTo, &g.CreatedAt, &g.UpdatedAt, &g.Comments, &g.Attachments,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewNotFound("grievance", map[string]any{"id": id})
	}
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	return &g, nil
}

// Append persists a new row.
func (s *PostgresStore) Append(ctx context.Context, g *domain.Grievance) error {
	if err := s.ensureSeeded(ctx); err != nil {
		return err
	}
	return s.insert(ctx, g)
}

// Save overwrites an existing row in full.
func (s *PostgresStore) Save(ctx context.Context, g *domain.Grievance) error {
	const query = `
        UPDATE grievances SET title=$1, description=$2, category=$3,
            employee_name=$4, employee_email=$5, status=$6, assigned_to=$7,
            created_at=$8, updated_at=$9, comments=$10, attachments=$11
        WHERE id=$12`
	cmd, err := s.pool.Exec(ctx, query,
		g.Title, g.Description, g.Category,
		g.EmployeeName, g.EmployeeEmail, g.Status, g.AssignedTo,
		g.CreatedAt, g.UpdatedAt, g.Comments, g.Attachments,
		g.ID,
	)
	if err != nil {
		return apperrors.NewStoreUnavailable(err)
	}
	if cmd.RowsAffected() == 0 {
		return apperrors.NewNotFound("grievance", map[string]any{"id": g.ID})
	}
	return nil
}

func (s *PostgresStore) insert(ctx context.Context, g *domain.Grievance) error {
	const query = `
        INSERT INTO grievances (id, title, description, category, employee_name,
            employee_email, status, assigned_to, created_at, updated_at, comments, attachments)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`
	_, err := s.pool.Exec(ctx, query,
		g.ID, g.Title, g.Description, g.Category, g.EmployeeName,
		g.EmployeeEmail, g.Status, g.AssignedTo, g.CreatedAt, g.UpdatedAt, g.Comments, g.Attachments,
	)
	if err != nil {
		return apperrors.NewStoreUnavailable(err)
	}
	return nil
}

func (s *PostgresStore) ensureSeeded(ctx context.Context) error {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM grievances`).Scan(&count); err != nil {
		return apperrors.NewStoreUnavailable(err)
	}
	if count > 0 {
		return nil
	}
	seed := SeedGrievances(time.Now())
	for i := range seed {
		if err := s.insert(ctx, &seed[i]); err != nil {
			return err
		}
	}
	return nil
}

func scanGrievances(rows pgx.Rows) ([]domain.Grievance, error) {
	var result []domain.Grievance
	for rows.Next() {
		var g domain.Grievance
		if err := rows.Scan(
			&g.ID, &g.Title, &g.Description, &g.Category, &g.EmployeeName, &g.EmployeeEmail,
			&g.Status, &g.AssignedTo, &g.CreatedAt, &g.UpdatedAt, &g.Comments, &g.Attachments,
		); err != nil {
			return nil, apperrors.NewStoreUnavailable(err)
		}
		result = append(result, g)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	return result, nil
}
