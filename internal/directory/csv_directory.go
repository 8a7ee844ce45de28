package directory

import (
	"context"
	"encoding/csv"
	"os"
	"strings"
	"sync"

	"github.com/spec-kit/grievance-portal/internal/domain"
	apperrors "github.com/spec-kit/grievance-portal/pkg/util/errorutil"
)

var userColumns = []string{"name", "email", "role"}

// seedUsers are the default directory rows: two admins and six employees.
var seedUsers = []domain.User{
	{Name: "Alice Johnson", Email: "alice@company.com", Role: domain.RoleAdmin},
	{Name: "Admin Two", Email: "admin2@company.com", Role: domain.RoleAdmin},
	{Name: "Bob Smith", Email: "bob@company.com", Role: domain.RoleEmployee},
	{Name: "Charlie Davis", Email: "charlie@company.com", Role: domain.RoleEmployee},
	{Name: "Dana Lee", Email: "dana@company.com", Role: domain.RoleEmployee},
	{Name: "Evan Kim", Email: "evan@company.com", Role: domain.RoleEmployee},
	{Name: "Fiona Patel", Email: "fiona@company.com", Role: domain.RoleEmployee},
	{Name: "Grace Miller", Email: "grace@company.com", Role: domain.RoleEmployee},
}

// CSVDirectory reads the roster from a name,email,role file, auto-created
// with seed rows when absent.
type CSVDirectory struct {
	path string

	mu    sync.Mutex
	cache []domain.User
}

// NewCSVDirectory creates a file-backed directory at path.
func NewCSVDirectory(path string) *CSVDirectory {
	return &CSVDirectory{path: path}
}

// LoadAll returns every directory row.
func (d *CSVDirectory) LoadAll(ctx context.Context) ([]domain.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	users, err := d.loadLocked(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.User, len(users))
	copy(out, users)
	return out, nil
}

// FindByEmail resolves one user by case-insensitive email.
func (d *CSVDirectory) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	users, err := d.loadLocked(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(email))
	for i := range users {
		if strings.ToLower(users[i].Email) == needle {
			u := users[i]
			return &u, nil
		}
	}
	return nil, apperrors.NewNotFound("user", map[string]any{"email": email})
}

// Admins returns all admin users.
func (d *CSVDirectory) Admins(ctx context.Context) ([]domain.User, error) {
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

func (d *CSVDirectory) loadLocked(ctx context.Context) ([]domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	if d.cache != nil {
		return d.cache, nil
	}
	if err := d.ensureFileLocked(); err != nil {
		return nil, err
	}

	f, err := os.Open(d.path)
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = len(userColumns)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}

	users := make([]domain.User, 0, len(records))
	for i, record := range records {
		if i == 0 {
			continue
		}
		users = append(users, domain.User{
			Name:  record[0],
			Email: record[1],
			Role:  domain.Role(record[2]),
		})
	}
	d.cache = users
	return users, nil
}

func (d *CSVDirectory) ensureFileLocked() error {
	if _, err := os.Stat(d.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return apperrors.NewStoreUnavailable(err)
	}

	f, err := os.Create(d.path)
	if err != nil {
		return apperrors.NewStoreUnavailable(err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write(userColumns); err != nil {
		return apperrors.NewStoreUnavailable(err)
	}
	for _, u := range seedUsers {
		if err := writer.Write([]string{u.Name, u.Email, string(u.Role)}); err != nil {
			return apperrors.NewStoreUnavailable(err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return apperrors.NewStoreUnavailable(err)
	}
	return nil
}
