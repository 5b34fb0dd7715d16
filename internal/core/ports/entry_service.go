package ports

import (
	"context"
	"time"

	"github.com/ledgerly/finance-tracker/internal/core/domain"
)

// CreateEntryInput carries a new entry as received from the transport layer.
type CreateEntryInput struct {
	UserID      string
	Date        time.Time
	Time        string
	Type        string
	Category    string
	Amount      float64
	Description string
}

// UpdateEntryInput carries a partial update. Nil fields are left untouched.
type UpdateEntryInput struct {
	UserID      string
	EntryID     string
	Date        *time.Time
	Time        *string
	Type        *string
	Category    *string
	Amount      *float64
	Description *string
}

// MonthlyReportInput carries the raw path and query values of the monthly report.
type MonthlyReportInput struct {
	UserID      string
	Year        string
	Month       string
	Type        string
	Category    string
	Description string
	SortOrder   string
}

// YearSummary is twelve zero-filled month buckets plus yearly totals.
type YearSummary struct {
	Year         int
	Months       []domain.MonthTotals
	Earnings     float64
	Expenditures float64
}

// EntryService defines the use cases over a user's entries.
type EntryService interface {
	Create(ctx context.Context, in CreateEntryInput) (*domain.Entry, error)
	List(ctx context.Context, userID string) ([]*domain.Entry, error)
	Update(ctx context.Context, in UpdateEntryInput) (*domain.Entry, error)
	Delete(ctx context.Context, userID, entryID string) error
	Monthly(ctx context.Context, in MonthlyReportInput) ([]*domain.Entry, error)
	YearSummary(ctx context.Context, userID, year string) (*YearSummary, error)
}
