package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/grievance-portal/internal/domain"
	"github.com/spec-kit/grievance-portal/internal/events"
	"github.com/spec-kit/grievance-portal/internal/store"
	apperrors "github.com/spec-kit/grievance-portal/pkg/util/errorutil"
)

// GrievanceService coordinates ticket workflows over the record store.
type GrievanceService struct {
	store      store.GrievanceStore
	dispatcher events.Dispatcher
	opTimeout  time.Duration
	now        func() time.Time
}

// GrievanceDependencies bundles collaborators for the service.
type GrievanceDependencies struct {
	Store      store.GrievanceStore
	Dispatcher events.Dispatcher
	OpTimeout  time.Duration
	Now        func() time.Time
}

// CreateInput describes ticket creation payload.
type CreateInput struct {
	Title       string
	Description string
	Category    domain.GrievanceCategory
	Attachments []string
}

// UpdateInput is the partial field map an update may carry. Comment is
// appended to the log, never replacing it. ExpectedUpdatedAt, when set,
// enables the optimistic concurrency check.
type UpdateInput struct {
	Status            *domain.GrievanceStatus
	AssignedTo        *string
	Comment           string
	ExpectedUpdatedAt *time.Time
}

// ListFilter captures listing parameters. Status empty or "All" means no
// status filtering.
type ListFilter struct {
	Status string
	Query  string
}

// Stats are the per-status ticket counts.
type Stats struct {
	Total  int
	Open   int
	WIP    int
	Closed int
}

// NewGrievanceService constructs the service.
func NewGrievanceService(deps GrievanceDependencies) *GrievanceService {
	opTimeout := deps.OpTimeout
	if opTimeout <= 0 {
		opTimeout = 5 * time.Second
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &GrievanceService{
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		opTimeout:  opTimeout,
		now:        now,
	}
}

// Create validates the input, assigns the next sequential id, and appends the
// new ticket. The notification fan-out is best-effort and never rolls back
// the create.
func (s *GrievanceService) Create(ctx context.Context, submitter domain.User, input CreateInput) (*domain.Grievance, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title required", nil)
	}
	if !domain.ValidCategory(input.Category) {
		return nil, apperrors.NewValidationError("invalid category", map[string]any{"category": input.Category})
	}

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	existing, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	now := s.timestamp()
	g := &domain.Grievance{
		ID:            store.NextID(existing),
		Title:         title,
		Description:   strings.TrimSpace(input.Description),
		Category:      input.Category,
		EmployeeName:  submitter.Name,
		EmployeeEmail: submitter.Email,
		Status:        domain.StatusOpen,
		AssignedTo:    "",
		CreatedAt:     now,
		UpdatedAt:     now,
		Attachments:   input.Attachments,
	}

	if err := s.store.Append(ctx, g); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventGrievanceCreated,
		TicketID: g.ID,
		Actor:    submitter,
		Payload:  events.GrievanceCreatedPayload{Grievance: *g},
	})
	return g, nil
}

// Update applies a partial patch to an existing ticket after checking the
// actor's permissions. UpdatedAt is always bumped.
func (s *GrievanceService) Update(ctx context.Context, actor domain.User, id string, input UpdateInput) (*domain.Grievance, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	g, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	perms := PermissionsFor(g, actor)
	if !perms.Mutable() {
		return nil, apperrors.NewForbidden("no mutation rights on this grievance")
	}

	comment := strings.TrimSpace(input.Comment)
	if input.Status != nil && !perms.ChangeStatus {
		return nil, apperrors.NewForbidden("status changes require the admin role")
	}
	if input.AssignedTo != nil && !perms.ChangeAssignee {
		return nil, apperrors.NewForbidden("assignment changes require the admin role")
	}
	if comment != "" && !perms.AddComment {
		return nil, apperrors.NewForbidden("commenting is closed for this grievance")
	}
	if input.Status == nil && input.AssignedTo == nil && comment == "" {
		return nil, apperrors.NewValidationError("empty update", nil)
	}
	if input.Status != nil && !domain.ValidStatus(*input.Status) {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": *input.Status})
	}

	// Rows persist second-precision timestamps, so the token is compared at
	// that grain; a finer echo from a prior response must not trip the check.
	if input.ExpectedUpdatedAt != nil &&
		!g.UpdatedAt.Truncate(time.Second).Equal(input.ExpectedUpdatedAt.Truncate(time.Second)) {
		return nil, apperrors.NewConflict("grievance was modified by another actor", map[string]any{
			"id":         g.ID,
			"updated_at": g.UpdatedAt,
		})
	}

	oldStatus := g.Status
	oldAssigned := g.AssignedTo
	now := s.timestamp()

	if input.Status != nil {
		g.Status = *input.Status
	}
	if input.AssignedTo != nil {
		g.AssignedTo = strings.TrimSpace(*input.AssignedTo)
	}
	if comment != "" {
		g.Comments = domain.AppendComment(g.Comments, now, actor.Name, comment)
	}
	g.UpdatedAt = now

	if err := s.store.Save(ctx, g); err != nil {
		return nil, err
	}

	if g.Status != oldStatus || g.AssignedTo != oldAssigned {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventGrievanceUpdated,
			TicketID: g.ID,
			Actor:    actor,
			Payload: events.GrievanceUpdatedPayload{
				OldStatus:     oldStatus,
				NewStatus:     g.Status,
				OldAssignedTo: oldAssigned,
				NewAssignedTo: g.AssignedTo,
			},
		})
	}
	if comment != "" {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventCommentAdded,
			TicketID: g.ID,
			Actor:    actor,
			Payload: events.CommentAddedPayload{
				Author:  actor.Name,
				Preview: stringPreview(comment, 120),
			},
		})
	}
	return g, nil
}

// Get returns one ticket. Any authenticated caller may read.
func (s *GrievanceService) Get(ctx context.Context, id string) (*domain.Grievance, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	return s.store.Get(ctx, id)
}

// List returns the actor-visible tickets, filtered and sorted latest first.
// Admins see all rows; employees only their own submissions.
func (s *GrievanceService) List(ctx context.Context, actor domain.User, filter ListFilter) ([]domain.Grievance, error) {
	rows, err := s.visibleRows(ctx, actor)
	if err != nil {
		return nil, err
	}

	filtered := rows[:0]
	for _, g := range rows {
		if !matchesStatus(&g, filter.Status) {
			continue
		}
		if !matchesQuery(&g, filter.Query, actor.IsAdmin()) {
			continue
		}
		filtered = append(filtered, g)
	}

	sort.Slice(filtered, func(i, j int) bool { return filtered[i].ID > filtered[j].ID })
	return filtered, nil
}

// Stats computes the per-status counts over the actor-visible rows.
func (s *GrievanceService) Stats(ctx context.Context, actor domain.User) (Stats, error) {
	rows, err := s.visibleRows(ctx, actor)
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{Total: len(rows)}
	for _, g := range rows {
		switch g.Status {
		case domain.StatusOpen:
			stats.Open++
		case domain.StatusWIP:
			stats.WIP++
		case domain.StatusClosed:
			stats.Closed++
		}
	}
	return stats, nil
}

func (s *GrievanceService) visibleRows(ctx context.Context, actor domain.User) ([]domain.Grievance, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	rows, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	if actor.IsAdmin() {
		return rows, nil
	}
	mine := rows[:0]
	for _, g := range rows {
		if strings.EqualFold(g.EmployeeEmail, actor.Email) {
			mine = append(mine, g)
		}
	}
	return mine, nil
}

func matchesStatus(g *domain.Grievance, status string) bool {
	status = strings.TrimSpace(status)
	if status == "" || strings.EqualFold(status, "All") {
		return true
	}
	return strings.EqualFold(string(g.Status), status)
}

// matchesQuery searches case-insensitively across the displayed columns. The
// submitter columns are only searched in the admin view, matching the portal.
func matchesQuery(g *domain.Grievance, query string, includeSubmitter bool) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	fields := []string{
		g.Title, g.Description, string(g.Category), g.AssignedTo, string(g.Status),
	}
	if includeSubmitter {
		fields = append(fields, g.EmployeeName, g.EmployeeEmail)
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), query) {
			return true
		}
	}
	return false
}

// timestamp returns the clock reading at the precision the stores persist.
// Stamping rows any finer would make an echoed updated_at token unequal to the
// reloaded row.
func (s *GrievanceService) timestamp() time.Time {
	return s.now().Truncate(time.Second)
}

func (s *GrievanceService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
