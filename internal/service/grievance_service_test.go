package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/grievance-portal/internal/domain"
	"github.com/spec-kit/grievance-portal/internal/events"
	"github.com/spec-kit/grievance-portal/internal/store"
	apperrors "github.com/spec-kit/grievance-portal/pkg/util/errorutil"
)

var (
	admin     = domain.User{Name: "Alice Johnson", Email: "alice.johnson@company.com", Role: domain.RoleAdmin}
	charlie   = domain.User{Name: "Charlie Davis", Email: "charlie@company.com", Role: domain.RoleEmployee}
	bystander = domain.User{Name: "Grace Kim", Email: "grace@company.com", Role: domain.RoleEmployee}
)

func newTestService(t *testing.T, deps GrievanceDependencies) *GrievanceService {
	t.Helper()
	if deps.Store == nil {
		deps.Store = store.NewCSVStore(filepath.Join(t.TempDir(), "grievances.csv"))
	}
	return NewGrievanceService(deps)
}

func TestCreateAssignsSequentialIDs(t *testing.T) {
	svc := newTestService(t, GrievanceDependencies{})
	ctx := context.Background()

	first, err := svc.Create(ctx, charlie, CreateInput{Title: "Chair broken", Category: domain.CategoryFacilities})
	require.NoError(t, err)
	require.Equal(t, "GRV_005", first.ID)

	second, err := svc.Create(ctx, charlie, CreateInput{Title: "Monitor flicker", Category: domain.CategoryIT})
	require.NoError(t, err)
	require.Equal(t, "GRV_006", second.ID)
}

func TestCreateRejectsBlankTitle(t *testing.T) {
	s := store.NewCSVStore(filepath.Join(t.TempDir(), "grievances.csv"))
	svc := newTestService(t, GrievanceDependencies{Store: s})
	ctx := context.Background()

	_, err := svc.Create(ctx, charlie, CreateInput{Title: "   ", Category: domain.CategoryIT})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	rows, err := s.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 4)
}

func TestCreateRejectsUnknownCategory(t *testing.T) {
	svc := newTestService(t, GrievanceDependencies{})
	_, err := svc.Create(context.Background(), charlie, CreateInput{Title: "x", Category: "Gardening"})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestCreateDefaults(t *testing.T) {
	at := time.Date(2025, 9, 1, 10, 30, 0, 0, time.UTC)
	svc := newTestService(t, GrievanceDependencies{Now: func() time.Time { return at }})

	g, err := svc.Create(context.Background(), charlie, CreateInput{
		Title:       "  Badge reader down  ",
		Description: "Entrance badge reader beeps red.",
		Category:    domain.CategoryFacilities,
	})
	require.NoError(t, err)
	require.Equal(t, "Badge reader down", g.Title)
	require.Equal(t, domain.StatusOpen, g.Status)
	require.Empty(t, g.AssignedTo)
	require.Equal(t, charlie.Name, g.EmployeeName)
	require.Equal(t, charlie.Email, g.EmployeeEmail)
	require.True(t, g.CreatedAt.Equal(at))
	require.True(t, g.UpdatedAt.Equal(g.CreatedAt))
}

func TestCreateSurvivesFailingSubscriber(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	dispatcher.Subscribe(events.EventGrievanceCreated, func(context.Context, events.Event) error {
		return apperrors.NewInternalError(nil)
	})
	svc := newTestService(t, GrievanceDependencies{Dispatcher: dispatcher})

	g, err := svc.Create(context.Background(), charlie, CreateInput{Title: "Mail outage", Category: domain.CategoryIT})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), g.ID)
	require.NoError(t, err)
	require.Equal(t, "Mail outage", got.Title)
}

func TestUpdateAppendsCommentsInOrder(t *testing.T) {
	at := time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)
	svc := newTestService(t, GrievanceDependencies{Now: func() time.Time { return at }})
	ctx := context.Background()

	_, err := svc.Update(ctx, charlie, "GRV_002", UpdateInput{Comment: "first note"})
	require.Error(t, err, "creator cannot comment on a closed ticket")

	g, err := svc.Update(ctx, admin, "GRV_002", UpdateInput{Comment: "reopening review"})
	require.NoError(t, err)
	g, err = svc.Update(ctx, admin, g.ID, UpdateInput{Comment: "review done"})
	require.NoError(t, err)

	comments := domain.ParseComments(g.Comments)
	require.Len(t, comments, 3)
	require.Equal(t, "Processed on 2025-09-20. Funds transferred.", comments[0].Text)
	require.Equal(t, "reopening review", comments[1].Text)
	require.Equal(t, "Alice Johnson", comments[1].Author)
	require.Equal(t, "review done", comments[2].Text)
}

func TestUpdateCreatorMayCommentOnOpenTicketOnly(t *testing.T) {
	svc := newTestService(t, GrievanceDependencies{})
	ctx := context.Background()

	g, err := svc.Update(ctx, charlie, "GRV_002", UpdateInput{Comment: "any news?"})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "FORBIDDEN"))
	require.Nil(t, g)

	own, err := svc.Create(ctx, charlie, CreateInput{Title: "Desk lamp", Category: domain.CategoryFacilities})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, charlie, own.ID, UpdateInput{Comment: "bulb model is E27"})
	require.NoError(t, err)
	require.Contains(t, updated.Comments, "bulb model is E27")

	status := domain.StatusClosed
	_, err = svc.Update(ctx, charlie, own.ID, UpdateInput{Status: &status})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "FORBIDDEN"))
}

func TestUpdateBystanderIsReadOnly(t *testing.T) {
	svc := newTestService(t, GrievanceDependencies{})
	_, err := svc.Update(context.Background(), bystander, "GRV_003", UpdateInput{Comment: "me too"})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "FORBIDDEN"))
}

func TestUpdateRejectsEmptyPatch(t *testing.T) {
	svc := newTestService(t, GrievanceDependencies{})
	_, err := svc.Update(context.Background(), admin, "GRV_003", UpdateInput{Comment: "   "})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestUpdateRejectsInvalidStatus(t *testing.T) {
	svc := newTestService(t, GrievanceDependencies{})
	status := domain.GrievanceStatus("Paused")
	_, err := svc.Update(context.Background(), admin, "GRV_003", UpdateInput{Status: &status})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestUpdateUnknownTicketIsNotFound(t *testing.T) {
	svc := newTestService(t, GrievanceDependencies{})
	_, err := svc.Update(context.Background(), admin, "GRV_404", UpdateInput{Comment: "hello"})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestUpdateOptimisticConflict(t *testing.T) {
	base := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)
	current := base
	svc := newTestService(t, GrievanceDependencies{Now: func() time.Time { return current }})
	ctx := context.Background()

	g, err := svc.Get(ctx, "GRV_003")
	require.NoError(t, err)
	seen := g.UpdatedAt

	current = base.Add(time.Minute)
	assignee := "Admin Two"
	_, err = svc.Update(ctx, admin, g.ID, UpdateInput{AssignedTo: &assignee})
	require.NoError(t, err)

	status := domain.StatusClosed
	_, err = svc.Update(ctx, admin, g.ID, UpdateInput{Status: &status, ExpectedUpdatedAt: &seen})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "CONFLICT"))

	fresh, err := svc.Get(ctx, g.ID)
	require.NoError(t, err)
	retry := fresh.UpdatedAt
	_, err = svc.Update(ctx, admin, g.ID, UpdateInput{Status: &status, ExpectedUpdatedAt: &retry})
	require.NoError(t, err)
}

func TestUpdateAcceptsEchoedTimestampToken(t *testing.T) {
	// Real clock: rows persist second precision, so the token handed back to
	// the client must round-trip through a reload without a spurious conflict.
	svc := newTestService(t, GrievanceDependencies{})
	ctx := context.Background()

	assignee := "Alice Johnson"
	g, err := svc.Update(ctx, admin, "GRV_003", UpdateInput{AssignedTo: &assignee})
	require.NoError(t, err)

	token := g.UpdatedAt
	status := domain.StatusWIP
	updated, err := svc.Update(ctx, admin, "GRV_003", UpdateInput{Status: &status, ExpectedUpdatedAt: &token})
	require.NoError(t, err)
	require.Equal(t, domain.StatusWIP, updated.Status)
}

func TestUpdatePublishesStatusAndCommentEvents(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	var seen []events.EventType
	record := func(_ context.Context, e events.Event) error {
		seen = append(seen, e.Type)
		return nil
	}
	dispatcher.Subscribe(events.EventGrievanceUpdated, record)
	dispatcher.Subscribe(events.EventCommentAdded, record)

	svc := newTestService(t, GrievanceDependencies{Dispatcher: dispatcher})
	status := domain.StatusWIP
	_, err := svc.Update(context.Background(), admin, "GRV_003", UpdateInput{
		Status:  &status,
		Comment: "picking this up",
	})
	require.NoError(t, err)
	require.Equal(t, []events.EventType{events.EventGrievanceUpdated, events.EventCommentAdded}, seen)
}

func TestListEmployeeSeesOwnRowsOnly(t *testing.T) {
	svc := newTestService(t, GrievanceDependencies{})
	ctx := context.Background()

	rows, err := svc.List(ctx, charlie, ListFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "GRV_002", rows[0].ID)

	all, err := svc.List(ctx, admin, ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
}

func TestListSortsLatestFirst(t *testing.T) {
	svc := newTestService(t, GrievanceDependencies{})
	rows, err := svc.List(context.Background(), admin, ListFilter{})
	require.NoError(t, err)
	require.Equal(t, "GRV_004", rows[0].ID)
	require.Equal(t, "GRV_001", rows[3].ID)
}

func TestListStatusFilter(t *testing.T) {
	svc := newTestService(t, GrievanceDependencies{})
	ctx := context.Background()

	open, err := svc.List(ctx, admin, ListFilter{Status: "Open"})
	require.NoError(t, err)
	require.Len(t, open, 2)

	all, err := svc.List(ctx, admin, ListFilter{Status: "All"})
	require.NoError(t, err)
	require.Len(t, all, 4)
}

func TestListQuerySearchesSubmitterColumnsForAdminsOnly(t *testing.T) {
	svc := newTestService(t, GrievanceDependencies{})
	ctx := context.Background()

	byName, err := svc.List(ctx, admin, ListFilter{Query: "charlie"})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	require.Equal(t, "GRV_002", byName[0].ID)

	// The employee view never matches on submitter identity.
	own, err := svc.List(ctx, charlie, ListFilter{Query: "charlie"})
	require.NoError(t, err)
	require.Empty(t, own)

	byTitle, err := svc.List(ctx, charlie, ListFilter{Query: "reimbursement"})
	require.NoError(t, err)
	require.Len(t, byTitle, 1)
}

func TestStatsCountsVisibleRows(t *testing.T) {
	svc := newTestService(t, GrievanceDependencies{})
	ctx := context.Background()

	stats, err := svc.Stats(ctx, admin)
	require.NoError(t, err)
	require.Equal(t, Stats{Total: 4, Open: 2, WIP: 1, Closed: 1}, stats)

	mine, err := svc.Stats(ctx, charlie)
	require.NoError(t, err)
	require.Equal(t, Stats{Total: 1, Closed: 1}, mine)
}
