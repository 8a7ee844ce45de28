package directory

import (
	"context"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/grievance-portal/internal/domain"
	apperrors "github.com/spec-kit/grievance-portal/pkg/util/errorutil"
)

// adminPartition is the fixed partition holding admin rows: email -> name.
const adminPartition = "grievance:admins"

// RedisDirectory resolves users from a key-value table that stores only the
// admin roster. Any email not listed resolves to an employee whose display
// name is derived from the email local part. Admins never fail lookup, so the
// directory is effectively open to the whole tenant.
type RedisDirectory struct {
	client *redis.Client
}

// NewRedisDirectory creates a key-value table backed directory.
func NewRedisDirectory(client *redis.Client) *RedisDirectory {
	return &RedisDirectory{client: client}
}

// LoadAll returns the admin roster; employees are resolved on demand only.
func (d *RedisDirectory) LoadAll(ctx context.Context) ([]domain.User, error) {
	return d.Admins(ctx)
}

// FindByEmail resolves a user. Listed emails are admins; everyone else is an
// employee named after the email local part.
func (d *RedisDirectory) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	needle := strings.ToLower(strings.TrimSpace(email))
	if needle == "" {
		return nil, apperrors.NewNotFound("user", map[string]any{"email": email})
	}
	name, err := d.client.HGet(ctx, adminPartition, needle).Result()
	if err == redis.Nil {
		return &domain.User{
			Name:  DisplayNameFromEmail(needle),
			Email: needle,
			Role:  domain.RoleEmployee,
		}, nil
	}
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	if name == "" {
		name = DisplayNameFromEmail(needle)
	}
	return &domain.User{Name: name, Email: needle, Role: domain.RoleAdmin}, nil
}

// Admins returns all admin rows sorted by email.
func (d *RedisDirectory) Admins(ctx context.Context) ([]domain.User, error) {
	raw, err := d.client.HGetAll(ctx, adminPartition).Result()
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	admins := make([]domain.User, 0, len(raw))
	for email, name := range raw {
		if name == "" {
			name = DisplayNameFromEmail(email)
		}
		admins = append(admins, domain.User{Name: name, Email: email, Role: domain.RoleAdmin})
	}
	sort.Slice(admins, func(i, j int) bool { return admins[i].Email < admins[j].Email })
	return admins, nil
}

// DisplayNameFromEmail title-cases the local part of an email address.
func DisplayNameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if local == "" {
		return email
	}
	parts := strings.FieldsFunc(local, func(r rune) bool { return r == '.' || r == '_' || r == '-' })
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + strings.ToLower(p[1:])
	}
	return strings.Join(parts, " ")
}
