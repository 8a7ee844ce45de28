package service

import (
	"strings"

	"github.com/spec-kit/grievance-portal/internal/domain"
)

// Permissions is the per-request mutation rights of one actor on one ticket.
// It is a pure function of (ticket status, ticket submitter, actor identity,
// actor role) and is never persisted.
type Permissions struct {
	ChangeStatus   bool
	ChangeAssignee bool
	AddComment     bool
}

// Mutable reports whether the actor may change anything at all.
func (p Permissions) Mutable() bool {
	return p.ChangeStatus || p.ChangeAssignee || p.AddComment
}

// PermissionsFor evaluates the permission matrix: an admin may change status,
// assignee, and comment at any ticket state; the creator may comment only
// while the ticket is not Closed; any other employee is read-only.
func PermissionsFor(g *domain.Grievance, actor domain.User) Permissions {
	if actor.Role == domain.RoleAdmin {
		return Permissions{ChangeStatus: true, ChangeAssignee: true, AddComment: true}
	}
	if isCreator(g, actor) && g.Status != domain.StatusClosed {
		return Permissions{AddComment: true}
	}
	return Permissions{}
}

func isCreator(g *domain.Grievance, actor domain.User) bool {
	return strings.EqualFold(g.EmployeeEmail, actor.Email)
}
