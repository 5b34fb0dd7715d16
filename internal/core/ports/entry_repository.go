package ports

import (
	"context"
	"time"

	"github.com/ledgerly/finance-tracker/internal/core/domain"
)

// RangeFilter carries the parameters of a date-range listing. UserID is
// mandatory and always applied.
type RangeFilter struct {
	UserID      string
	From        time.Time // inclusive
	To          time.Time // inclusive
	Type        string    // optional: exact match
	Category    string    // optional: case-insensitive exact match
	Description string    // optional: case-insensitive substring
	Ascending   bool      // sort by date
}

// EntryRepository persists entries. Every method is scoped by the owner's user id.
type EntryRepository interface {
	Create(ctx context.Context, e *domain.Entry) error
	ListByUser(ctx context.Context, userID string) ([]*domain.Entry, error)
	// Update applies patch to the entry only if it belongs to userID and
	// returns the updated entry, or domain.ErrEntryNotFound.
	Update(ctx context.Context, userID, entryID string, patch domain.EntryPatch) (*domain.Entry, error)
	Delete(ctx context.Context, userID, entryID string) error
	ListInRange(ctx context.Context, filter RangeFilter) ([]*domain.Entry, error)
	// MonthlyTotals sums earnings and expenditures per month within [from, to].
	MonthlyTotals(ctx context.Context, userID string, from, to time.Time) ([]domain.MonthTotals, error)
}
