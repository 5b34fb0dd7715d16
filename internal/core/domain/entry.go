package domain

import (
	"strings"
	"time"
)

// EntryType distinguishes money coming in from money going out.
type EntryType string

const (
	TypeEarning EntryType = "earning"
	TypeExpense EntryType = "expense"
)

// Valid reports whether t is one of the known entry types.
func (t EntryType) Valid() bool {
	return t == TypeEarning || t == TypeExpense
}

// Entry is a single dated earning or expense owned by exactly one user.
type Entry struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Date        time.Time `json:"date"`
	Time        string    `json:"time,omitempty"`
	Type        EntryType `json:"type"`
	Category    string    `json:"category"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// EntryPatch carries a partial update. Nil fields are left untouched.
type EntryPatch struct {
	Date        *time.Time
	Time        *string
	Type        *EntryType
	Category    *string
	Amount      *float64
	Description *string
}

// Empty reports whether the patch changes nothing.
func (p EntryPatch) Empty() bool {
	return p.Date == nil && p.Time == nil && p.Type == nil &&
		p.Category == nil && p.Amount == nil && p.Description == nil
}

// SuggestedCategories is the vocabulary offered to clients per entry type.
// The server accepts any non-empty category.
var SuggestedCategories = map[EntryType][]string{
	TypeExpense: {
		"Other Expense",
		"EMI Expense",
		"Bills",
		"Rent",
		"Food Expense",
		"Groceries",
		"Travel",
	},
	TypeEarning: {
		"Salary",
		"Freelance",
		"Business Revenue",
		"Investments",
		"Other Revenue",
	},
}

var monthNames = map[string]time.Month{}

func init() {
	for m := time.January; m <= time.December; m++ {
		name := strings.ToLower(m.String())
		monthNames[name] = m
		monthNames[name[:3]] = m
	}
}

// ParseMonth resolves an English month name, full or three-letter, in any case.
func ParseMonth(name string) (time.Month, bool) {
	m, ok := monthNames[strings.ToLower(strings.TrimSpace(name))]
	return m, ok
}

// MonthRange returns the first and last instants of the month, both inclusive:
// [first day 00:00:00, last day 23:59:59] in UTC.
func MonthRange(year int, month time.Month) (time.Time, time.Time) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0).Add(-time.Second)
	return from, to
}

// YearRange returns [Jan 1 00:00:00, Dec 31 23:59:59] of year in UTC.
func YearRange(year int) (time.Time, time.Time) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0).Add(-time.Second)
	return from, to
}

// MonthTotals aggregates one month of a user's entries.
type MonthTotals struct {
	Month        time.Month
	Earnings     float64
	Expenditures float64
}

// Balance is earnings minus expenditures.
func (m MonthTotals) Balance() float64 {
	return m.Earnings - m.Expenditures
}
