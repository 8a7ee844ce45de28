package domain

import "time"

// GrievanceStatus enumerates lifecycle states for grievances.
type GrievanceStatus string

const (
	StatusOpen   GrievanceStatus = "Open"
	StatusWIP    GrievanceStatus = "WIP"
	StatusClosed GrievanceStatus = "Closed"
)

// Statuses lists all valid statuses in lifecycle order.
var Statuses = []GrievanceStatus{StatusOpen, StatusWIP, StatusClosed}

// ValidStatus reports whether s is a known status.
func ValidStatus(s GrievanceStatus) bool {
	for _, candidate := range Statuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// GrievanceCategory enumerates ticket categories.
type GrievanceCategory string

const (
	CategoryIT         GrievanceCategory = "IT"
	CategoryFacilities GrievanceCategory = "Facilities"
	CategoryFinance    GrievanceCategory = "Finance"
	CategoryHR         GrievanceCategory = "HR"
	CategoryOther      GrievanceCategory = "Other"
)

// Categories lists all valid categories.
var Categories = []GrievanceCategory{
	CategoryIT, CategoryFacilities, CategoryFinance, CategoryHR, CategoryOther,
}

// ValidCategory reports whether c is a known category.
func ValidCategory(c GrievanceCategory) bool {
	for _, candidate := range Categories {
		if candidate == c {
			return true
		}
	}
	return false
}

// Grievance is the sole aggregate: one employee-reported issue record.
// Comments is a newline-joined append-only log (see comment.go). Attachments
// holds opaque storage references assigned at creation and never mutated.
type Grievance struct {
	ID            string
	Title         string
	Description   string
	Category      GrievanceCategory
	EmployeeName  string
	EmployeeEmail string
	Status        GrievanceStatus
	AssignedTo    string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Comments      string
	Attachments   []string
}
