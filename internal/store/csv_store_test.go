package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/grievance-portal/internal/domain"
	apperrors "github.com/spec-kit/grievance-portal/pkg/util/errorutil"
)

func newTestCSVStore(t *testing.T) *CSVStore {
	t.Helper()
	return NewCSVStore(filepath.Join(t.TempDir(), "grievances.csv"))
}

func TestCSVStoreInitializesWithSeedRows(t *testing.T) {
	s := newTestCSVStore(t)
	rows, err := s.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 4)

	counts := map[domain.GrievanceStatus]int{}
	for _, g := range rows {
		counts[g.Status]++
	}
	require.Equal(t, 2, counts[domain.StatusOpen])
	require.Equal(t, 1, counts[domain.StatusWIP])
	require.Equal(t, 1, counts[domain.StatusClosed])
}

func TestCSVStoreAppendRoundTrip(t *testing.T) {
	s := newTestCSVStore(t)
	ctx := context.Background()

	now := time.Date(2025, 9, 1, 9, 0, 0, 0, time.Local)
	g := &domain.Grievance{
		ID:            "GRV_005",
		Title:         "Broken chair",
		Description:   "Chair in bay B1 has a broken wheel.",
		Category:      domain.CategoryFacilities,
		EmployeeName:  "Evan Kim",
		EmployeeEmail: "evan@company.com",
		Status:        domain.StatusOpen,
		CreatedAt:     now,
		UpdatedAt:     now,
		Attachments:   []string{"grievances/chair-1", "grievances/chair-2"},
	}
	require.NoError(t, s.Append(ctx, g))

	got, err := s.Get(ctx, "GRV_005")
	require.NoError(t, err)
	require.Equal(t, g.Title, got.Title)
	require.Equal(t, g.Description, got.Description)
	require.Equal(t, g.Category, got.Category)
	require.Equal(t, g.EmployeeEmail, got.EmployeeEmail)
	require.Equal(t, domain.StatusOpen, got.Status)
	require.Empty(t, got.AssignedTo)
	require.True(t, got.CreatedAt.Equal(now))
	require.True(t, got.UpdatedAt.Equal(now))
	require.Equal(t, g.Attachments, got.Attachments)
}

func TestCSVStoreReadAfterWriteConsistency(t *testing.T) {
	s := newTestCSVStore(t)
	ctx := context.Background()

	// warm the cache
	_, err := s.LoadAll(ctx)
	require.NoError(t, err)

	g, err := s.Get(ctx, "GRV_003")
	require.NoError(t, err)
	g.Status = domain.StatusWIP
	g.UpdatedAt = time.Now()
	require.NoError(t, s.Save(ctx, g))

	got, err := s.Get(ctx, "GRV_003")
	require.NoError(t, err)
	require.Equal(t, domain.StatusWIP, got.Status)
}

func TestCSVStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grievances.csv")
	ctx := context.Background()

	first := NewCSVStore(path)
	now := time.Date(2025, 9, 1, 9, 0, 0, 0, time.Local)
	require.NoError(t, first.Append(ctx, &domain.Grievance{
		ID: "GRV_005", Title: "Parking", Category: domain.CategoryOther,
		EmployeeName: "Dana Lee", EmployeeEmail: "dana@company.com",
		Status: domain.StatusOpen, CreatedAt: now, UpdatedAt: now,
	}))

	second := NewCSVStore(path)
	rows, err := second.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 5)
}

func TestCSVStoreRewriteLeavesOnlyTheStoreFile(t *testing.T) {
	dir := t.TempDir()
	s := NewCSVStore(filepath.Join(dir, "grievances.csv"))
	ctx := context.Background()

	now := time.Date(2025, 9, 1, 9, 0, 0, 0, time.Local)
	require.NoError(t, s.Append(ctx, &domain.Grievance{
		ID: "GRV_005", Title: "Keycard lost", Category: domain.CategoryOther,
		EmployeeName: "Evan Kim", EmployeeEmail: "evan@company.com",
		Status: domain.StatusOpen, CreatedAt: now, UpdatedAt: now,
	}))
	g, err := s.Get(ctx, "GRV_005")
	require.NoError(t, err)
	g.Status = domain.StatusClosed
	require.NoError(t, s.Save(ctx, g))

	// The rename-based rewrite must leave no temp files behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "grievances.csv", entries[0].Name())

	rows, err := NewCSVStore(filepath.Join(dir, "grievances.csv")).LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 5)
}

func TestCSVStoreSaveUnknownIDIsNotFound(t *testing.T) {
	s := newTestCSVStore(t)
	err := s.Save(context.Background(), &domain.Grievance{ID: "GRV_999"})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestCSVStoreGetUnknownIDIsNotFound(t *testing.T) {
	s := newTestCSVStore(t)
	_, err := s.Get(context.Background(), "GRV_999")
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestCSVStorePreservesCommentBlob(t *testing.T) {
	s := newTestCSVStore(t)
	ctx := context.Background()

	g, err := s.Get(ctx, "GRV_001")
	require.NoError(t, err)
	g.Comments = g.Comments + "\n[2025-09-01 10:30] Alice Johnson: Parts ordered."
	require.NoError(t, s.Save(ctx, g))

	got, err := s.Get(ctx, "GRV_001")
	require.NoError(t, err)
	entries := domain.ParseComments(got.Comments)
	require.Len(t, entries, 2)
	require.Equal(t, "Technician scheduled for Friday.", entries[0].Text)
	require.Equal(t, "Parts ordered.", entries[1].Text)
}
