package events

import (
	"time"

	"github.com/spec-kit/grievance-portal/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventGrievanceCreated EventType = "grievance_created"
	EventGrievanceUpdated EventType = "grievance_updated"
	EventCommentAdded     EventType = "grievance_comment_added"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     domain.User `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// GrievanceCreatedPayload payload.
type GrievanceCreatedPayload struct {
	Grievance domain.Grievance `json:"grievance"`
}

// GrievanceUpdatedPayload payload.
type GrievanceUpdatedPayload struct {
	OldStatus     domain.GrievanceStatus `json:"old_status"`
	NewStatus     domain.GrievanceStatus `json:"new_status"`
	OldAssignedTo string                 `json:"old_assigned_to"`
	NewAssignedTo string                 `json:"new_assigned_to"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	Author  string `json:"author"`
	Preview string `json:"preview"`
}
