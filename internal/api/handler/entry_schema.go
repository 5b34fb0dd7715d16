package handler

import "time"

// --- Request types ---

type createEntryRequest struct {
	Date        string   `json:"date"        validate:"required"`
	Time        string   `json:"time"`
	Type        string   `json:"type"        validate:"required,oneof=earning expense"`
	Category    string   `json:"category"    validate:"required"`
	Amount      *float64 `json:"amount"      validate:"required,gte=0"`
	Description string   `json:"description"`
}

// updateEntryRequest is a partial update: absent fields stay untouched.
type updateEntryRequest struct {
	Date        *string  `json:"date"`
	Time        *string  `json:"time"`
	Type        *string  `json:"type"        validate:"omitempty,oneof=earning expense"`
	Category    *string  `json:"category"`
	Amount      *float64 `json:"amount"      validate:"omitempty,gte=0"`
	Description *string  `json:"description"`
}

// --- Response types ---
// Kept separate from the domain types so the JSON contract does not follow
// internal changes.

type entryResponse struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Date        time.Time `json:"date"`
	Time        string    `json:"time,omitempty"`
	Type        string    `json:"type"`
	Category    string    `json:"category"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type monthTotalsResponse struct {
	Month        string  `json:"month"`
	Earnings     float64 `json:"earnings"`
	Expenditures float64 `json:"expenditures"`
	Balance      float64 `json:"balance"`
}

type yearSummaryResponse struct {
	Year         int                   `json:"year"`
	Months       []monthTotalsResponse `json:"months"`
	Earnings     float64               `json:"earnings"`
	Expenditures float64               `json:"expenditures"`
	Balance      float64               `json:"balance"`
}

type categoriesResponse struct {
	Expense []string `json:"expense"`
	Earning []string `json:"earning"`
}
