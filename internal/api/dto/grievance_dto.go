package dto

import (
	"time"

	"github.com/spec-kit/grievance-portal/internal/domain"
)

// CreateGrievanceRequest payload.
type CreateGrievanceRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// UpdateGrievanceRequest is the partial patch an admin or creator may apply.
type UpdateGrievanceRequest struct {
	Status            *string    `json:"status"`
	AssignedTo        *string    `json:"assigned_to"`
	Comment           string     `json:"comment"`
	ExpectedUpdatedAt *time.Time `json:"expected_updated_at"`
}

// GrievanceSummary response.
type GrievanceSummary struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Category      string    `json:"category"`
	EmployeeName  string    `json:"employee_name"`
	EmployeeEmail string    `json:"employee_email"`
	Status        string    `json:"status"`
	AssignedTo    string    `json:"assigned_to"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CommentResponse is one parsed entry of the comment log, in stored
// (chronological ascending) order.
type CommentResponse struct {
	Timestamp string `json:"timestamp"`
	Author    string `json:"author"`
	Text      string `json:"text"`
}

// GrievanceDetailResponse provides full ticket info.
type GrievanceDetailResponse struct {
	GrievanceSummary
	Description string            `json:"description"`
	Comments    []CommentResponse `json:"comments"`
	Attachments int               `json:"attachments"`
	Permissions PermissionsDTO    `json:"permissions"`
}

// PermissionsDTO mirrors the actor's mutation rights for the view layer.
type PermissionsDTO struct {
	ChangeStatus   bool `json:"change_status"`
	ChangeAssignee bool `json:"change_assignee"`
	AddComment     bool `json:"add_comment"`
}

// StatsResponse carries the per-status ticket counts.
type StatsResponse struct {
	Total  int `json:"total"`
	Open   int `json:"open"`
	WIP    int `json:"wip"`
	Closed int `json:"closed"`
}

// NewGrievanceSummary maps the domain aggregate to its summary view.
func NewGrievanceSummary(g *domain.Grievance) GrievanceSummary {
	return GrievanceSummary{
		ID:            g.ID,
		Title:         g.Title,
		Category:      string(g.Category),
		EmployeeName:  g.EmployeeName,
		EmployeeEmail: g.EmployeeEmail,
		Status:        string(g.Status),
		AssignedTo:    g.AssignedTo,
		CreatedAt:     g.CreatedAt,
		UpdatedAt:     g.UpdatedAt,
	}
}
