package directory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/grievance-portal/internal/domain"
	apperrors "github.com/spec-kit/grievance-portal/pkg/util/errorutil"
)

func newTestDirectory(t *testing.T) *CSVDirectory {
	t.Helper()
	return NewCSVDirectory(filepath.Join(t.TempDir(), "users.csv"))
}

func TestCSVDirectorySeedsRosterOnFirstUse(t *testing.T) {
	d := newTestDirectory(t)
	users, err := d.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 8)
}

func TestCSVDirectoryFindByEmailIsCaseInsensitive(t *testing.T) {
	d := newTestDirectory(t)
	user, err := d.FindByEmail(context.Background(), "ALICE@company.COM")
	require.NoError(t, err)
	require.Equal(t, "Alice Johnson", user.Name)
	require.True(t, user.IsAdmin())
}

func TestCSVDirectoryUnknownEmailIsNotFound(t *testing.T) {
	d := newTestDirectory(t)
	_, err := d.FindByEmail(context.Background(), "nobody@company.com")
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestCSVDirectoryAdmins(t *testing.T) {
	d := newTestDirectory(t)
	admins, err := d.Admins(context.Background())
	require.NoError(t, err)
	require.Len(t, admins, 2)
	require.ElementsMatch(t, []string{"Alice Johnson", "Admin Two"}, AdminNames(admins))
	for _, u := range admins {
		require.Equal(t, domain.RoleAdmin, u.Role)
	}
}

func TestDisplayNameFromEmail(t *testing.T) {
	cases := map[string]string{
		"charlie@company.com":      "Charlie",
		"dana.lee@company.com":     "Dana Lee",
		"evan_kim@company.com":     "Evan Kim",
		"fiona-patel@company.com":  "Fiona Patel",
		"GRACE.MILLER@company.com": "Grace Miller",
		"@company.com":             "@company.com",
	}
	for email, want := range cases {
		require.Equal(t, want, DisplayNameFromEmail(email), email)
	}
}
