package directory

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/grievance-portal/internal/domain"
	apperrors "github.com/spec-kit/grievance-portal/pkg/util/errorutil"
)

// PostgresDirectory reads the roster from the directory_users table, seeding
// it when empty.
type PostgresDirectory struct {
	pool *pgxpool.Pool
}

// NewPostgresDirectory creates a Postgres-backed directory.
func NewPostgresDirectory(pool *pgxpool.Pool) *PostgresDirectory {
	return &PostgresDirectory{pool: pool}
}

// LoadAll returns every directory row.
func (d *PostgresDirectory) LoadAll(ctx context.Context) ([]domain.User, error) {
	if err := d.ensureSeeded(ctx); err != nil {
		return nil, err
	}
	rows, err := d.pool.Query(ctx, `SELECT name, email, role FROM directory_users ORDER BY email`)
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.Name, &u.Email, &u.Role); err != nil {
			return nil, apperrors.NewStoreUnavailable(err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	return users, nil
}

// FindByEmail resolves one user by case-insensitive email.
func (d *PostgresDirectory) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := d.ensureSeeded(ctx); err != nil {
		return nil, err
	}
	var u domain.User
	err := d.pool.QueryRow(ctx,
		`SELECT name, email, role FROM directory_users WHERE LOWER(email)=LOWER($1)`,
		strings.TrimSpace(email),
	).Scan(&u.Name, &u.Email, &u.Role)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewNotFound("user", map[string]any{"email": email})
	}
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	return &u, nil
}

// Admins returns all admin users.
func (d *PostgresDirectory) Admins(ctx context.Context) ([]domain.User, error) {
	users, err := d.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	admins := make([]domain.User, 0, 2)
	for _, u := range users {
		if u.IsAdmin() {
			admins = append(admins, u)
		}
	}
	return admins, nil
}

func (d *PostgresDirectory) ensureSeeded(ctx context.Context) error {
	var count int
	if err := d.pool.QueryRow(ctx, `SELECT COUNT(*) FROM directory_users`).Scan(&count); err != nil {
		return apperrors.NewStoreUnavailable(err)
	}
	if count > 0 {
		return nil
	}
	for _, u := range seedUsers {
		if _, err := d.pool.Exec(ctx,
			`INSERT INTO directory_users (name, email, role) VALUES ($1,$2,$3)`,
			u.Name, u.Email, u.Role,
		); err != nil {
			return apperrors.NewStoreUnavailable(err)
		}
	}
	return nil
}
