package audit

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for audit record persistence
type Repository interface {
	// Save appends a record to the trail
	Save(ctx context.Context, record *Record) error

	// FindAll returns records matching the filter, newest first
	FindAll(ctx context.Context, filter Filter) ([]*Record, int64, error)

	// DeleteForCompany wipes the trail of a single company
	DeleteForCompany(ctx context.Context, companyID uuid.UUID) (int64, error)

	// DeleteAll wipes the entire trail
	DeleteAll(ctx context.Context) (int64, error)
}

// Filter contains filter options for querying the audit trail
type Filter struct {
	ActorID   *uuid.UUID
	CompanyID *uuid.UUID
	Action    string
	Page      int
	PageSize  int
}

// NewFilter creates a filter with default pagination
func NewFilter() Filter {
	return Filter{Page: 1, PageSize: 50}
}

// Offset returns the offset for pagination
func (f Filter) Offset() int {
	if f.Page <= 0 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// Limit returns the limit for pagination
func (f Filter) Limit() int {
	if f.PageSize <= 0 {
		return 50
	}
	if f.PageSize > 200 {
		return 200
	}
	return f.PageSize
}
