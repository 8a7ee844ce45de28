package service

import (
	"context"
	"fmt"
	"html"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/grievance-portal/internal/directory"
	"github.com/spec-kit/grievance-portal/internal/domain"
	"github.com/spec-kit/grievance-portal/internal/events"
	"github.com/spec-kit/grievance-portal/internal/notify"
)

// NotificationService fans out email notifications for domain events. All
// sends are best-effort: failures are logged and never reach the operation
// that triggered them.
type NotificationService struct {
	dispatcher events.Dispatcher
	notifier   notify.Notifier
	dir        directory.Directory
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, notifier notify.Notifier, dir directory.Directory, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		notifier:   notifier,
		dir:        dir,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventGrievanceCreated, n.handleGrievanceCreated)
	n.dispatcher.Subscribe(events.EventGrievanceUpdated, n.handleGrievanceUpdated)
	n.dispatcher.Subscribe(events.EventCommentAdded, n.handleCommentAdded)
}

func (n *NotificationService) handleGrievanceCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("GrievanceCreated", zap.String("ticket_id", event.TicketID))
	payload, ok := event.Payload.(events.GrievanceCreatedPayload)
	if !ok {
		return nil
	}
	g := payload.Grievance

	recipients, err := n.creationRecipients(ctx, g)
	if err != nil {
		n.logger.Warn("notification recipients unavailable", zap.Error(err))
		return nil
	}

	subject := fmt.Sprintf("New Grievance %s: %s", g.ID, g.Title)
	if err := n.notifier.Notify(ctx, recipients, subject, creationEmailBody(&g)); err != nil {
		n.logger.Warn("notification send failed",
			zap.String("ticket_id", g.ID),
			zap.Strings("recipients", recipients),
			zap.Error(err))
	}
	return nil
}

func (n *NotificationService) handleGrievanceUpdated(ctx context.Context, event events.Event) error {
	n.logger.Info("GrievanceUpdated", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleCommentAdded(ctx context.Context, event events.Event) error {
	n.logger.Info("CommentAdded", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return nil
}

// creationRecipients is every directory admin plus the submitter, deduplicated.
func (n *NotificationService) creationRecipients(ctx context.Context, g domain.Grievance) ([]string, error) {
	admins, err := n.dir.Admins(ctx)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	var recipients []string
	add := func(email string) {
		email = strings.ToLower(strings.TrimSpace(email))
		if email == "" {
			return
		}
		if _, dup := seen[email]; dup {
			return
		}
		seen[email] = struct{}{}
		recipients = append(recipients, email)
	}
	for _, admin := range admins {
		add(admin.Email)
	}
	add(g.EmployeeEmail)
	return recipients, nil
}

func creationEmailBody(g *domain.Grievance) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("<h2>Grievance %s</h2>", html.EscapeString(g.ID)))
	b.WriteString(fmt.Sprintf("<p><b>Title:</b> %s</p>", html.EscapeString(g.Title)))
	b.WriteString(fmt.Sprintf("<p><b>Category:</b> %s</p>", html.EscapeString(string(g.Category))))
	b.WriteString(fmt.Sprintf("<p><b>Submitted by:</b> %s (%s)</p>",
		html.EscapeString(g.EmployeeName), html.EscapeString(g.EmployeeEmail)))
	b.WriteString(fmt.Sprintf("<p>%s</p>", html.EscapeString(g.Description)))
	return b.String()
}
