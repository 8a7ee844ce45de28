package directory

import (
	"context"

	"github.com/spec-kit/grievance-portal/internal/domain"
)

// Directory resolves users from a read-only roster. It is never mutated by
// this system.
type Directory interface {
	// LoadAll returns every known user.
	LoadAll(ctx context.Context) ([]domain.User, error)
	// FindByEmail resolves a user by case-insensitive email, or a NOT_FOUND
	// domain error.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// Admins returns all users carrying the admin role.
	Admins(ctx context.Context) ([]domain.User, error)
}

// AdminNames extracts display names from an admin list, for assignment pickers.
func AdminNames(admins []domain.User) []string {
	names := make([]string, 0, len(admins))
	for _, u := range admins {
		names = append(names, u.Name)
	}
	return names
}
