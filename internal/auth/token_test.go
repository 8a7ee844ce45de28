package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/grievance-portal/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", 30)
	user := domain.User{Name: "Alice Johnson", Email: "alice@company.com", Role: domain.RoleAdmin}

	token, expiresAt, err := tm.GenerateToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.WithinDuration(t, time.Now().Add(30*time.Minute), expiresAt, 5*time.Second)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	require.Equal(t, user.Name, claims.Name)
	require.Equal(t, user.Email, claims.Email)
	require.Equal(t, domain.RoleAdmin, claims.Role)
	require.Equal(t, user.Email, claims.Subject)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenManager("secret-a", 30)
	verifier := NewTokenManager("secret-b", 30)

	token, _, err := issuer.GenerateToken(domain.User{Email: "bob@company.com", Role: domain.RoleEmployee})
	require.NoError(t, err)

	_, err = verifier.ParseToken(token)
	require.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	tm := NewTokenManager("test-secret", 30)
	_, err := tm.ParseToken("not.a.token")
	require.Error(t, err)
}
