package auth

import (
	"context"
	"strings"

	"github.com/spec-kit/grievance-portal/internal/directory"
	"github.com/spec-kit/grievance-portal/internal/domain"
	apperrors "github.com/spec-kit/grievance-portal/pkg/util/errorutil"
)

// StaticAuthenticator resolves identity from the user directory with a plain
// email lookup. No credential is involved; the directory is the allow-list.
type StaticAuthenticator struct {
	dir directory.Directory
}

// NewStaticAuthenticator builds a directory-backed authenticator.
func NewStaticAuthenticator(dir directory.Directory) *StaticAuthenticator {
	return &StaticAuthenticator{dir: dir}
}

// Authenticate resolves the email against the directory. Unknown emails fail
// with UNAUTHORIZED rather than NOT_FOUND so the response does not reveal
// roster membership semantics.
func (a *StaticAuthenticator) Authenticate(ctx context.Context, email string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperrors.NewValidationError("email required", nil)
	}
	user, err := a.dir.FindByEmail(ctx, email)
	if err != nil {
		if apperrors.IsCode(err, "NOT_FOUND") {
			return nil, apperrors.NewUnauthorized("email not found in directory")
		}
		return nil, err
	}
	return user, nil
}
