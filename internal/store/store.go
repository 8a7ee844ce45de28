package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spec-kit/grievance-portal/internal/domain"
)

// GrievanceStore is the durable holder of all grievance rows, abstracting over
// the physical backing (flat file, key-value table, or relational table).
// Implementations must surface backing-medium failures as STORE_UNAVAILABLE
// domain errors and must guarantee read-after-write consistency within a
// single process. No cross-process consistency is guaranteed.
type GrievanceStore interface {
	// LoadAll returns every row, lazily initializing the backing with the
	// fixed layout and seed rows if absent. An empty store is not an error.
	LoadAll(ctx context.Context) ([]domain.Grievance, error)
	// Get returns one row by id, or a NOT_FOUND domain error.
	Get(ctx context.Context, id string) (*domain.Grievance, error)
	// Append persists a new row.
	Append(ctx context.Context, g *domain.Grievance) error
	// Save overwrites an existing row in full (last write wins), or returns
	// a NOT_FOUND domain error when the id is unknown.
	Save(ctx context.Context, g *domain.Grievance) error
}

const idPrefix = "GRV_"

// NextID computes the next sequential ticket id: max numeric suffix across the
// existing set plus one, zero-padded. Malformed ids are ignored. Deterministic
// for a given input set; collision-safe only under the single-writer model.
func NextID(existing []domain.Grievance) string {
	max := 0
	for _, g := range existing {
		n, ok := numericSuffix(g.ID)
		if ok && n > max {
			max = n
		}
	}
	return fmt.Sprintf("%s%03d", idPrefix, max+1)
}

func numericSuffix(id string) (int, bool) {
	raw := strings.TrimPrefix(strings.TrimSpace(id), idPrefix)
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// SeedGrievances returns the default rows written when a store is first
// initialized: four sample tickets covering the status spread.
func SeedGrievances(now time.Time) []domain.Grievance {
	return []domain.Grievance{
		{
			ID:            "GRV_001",
			Title:         "Office AC not working",
			Description:   "AC is not cooling properly in bay A3. It's affecting productivity.",
			Category:      domain.CategoryFacilities,
			EmployeeName:  "Bob Smith",
			EmployeeEmail: "bob@company.com",
			Status:        domain.StatusWIP,
			AssignedTo:    "Alice Johnson",
			CreatedAt:     now,
			UpdatedAt:     now,
			Comments:      "Technician scheduled for Friday.",
		},
		{
			ID:            "GRV_002",
			Title:         "Reimbursement delay",
			Description:   "Travel reimbursement for Chennai trip pending for 3 weeks, affecting personal finances.",
			Category:      domain.CategoryFinance,
			EmployeeName:  "Charlie Davis",
			EmployeeEmail: "charlie@company.com",
			Status:        domain.StatusClosed,
			AssignedTo:    "Admin Two",
			CreatedAt:     now,
			UpdatedAt:     now,
			Comments:      "Processed on 2025-09-20. Funds transferred.",
		},
		{
			ID:            "GRV_003",
			Title:         "Laptop running slow",
			Description:   "System is sluggish, applications freeze frequently, possibly disk issue. Need a check-up.",
			Category:      domain.CategoryIT,
			EmployeeName:  "Alice Johnson",
			EmployeeEmail: "alice@company.com",
			Status:        domain.StatusOpen,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
		{
			ID:            "GRV_004",
			Title:         "Printer in Marketing not working",
			Description:   "Printer on the 3rd floor (Marketing department) is showing an error and not printing.",
			Category:      domain.CategoryIT,
			EmployeeName:  "Dana Lee",
			EmployeeEmail: "dana@company.com",
			Status:        domain.StatusOpen,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
	}
}
