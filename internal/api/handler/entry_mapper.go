package handler

import (
	"time"

	"github.com/ledgerly/finance-tracker/internal/core/domain"
	"github.com/ledgerly/finance-tracker/internal/core/ports"
)

// dateLayouts are the accepted forms of an entry date.
var dateLayouts = []string{"2006-01-02", time.RFC3339}

// --- Request → Service input ---

func toCreateInput(req createEntryRequest, userID string) (ports.CreateEntryInput, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return ports.CreateEntryInput{}, err
	}
	var amount float64
	if req.Amount != nil {
		amount = *req.Amount
	}
	return ports.CreateEntryInput{
		UserID:      userID,
		Date:        date,
		Time:        req.Time,
		Type:        req.Type,
		Category:    req.Category,
		Amount:      amount,
		Description: req.Description,
	}, nil
}

func toUpdateInput(req updateEntryRequest, userID, entryID string) (ports.UpdateEntryInput, error) {
	in := ports.UpdateEntryInput{
		UserID:      userID,
		EntryID:     entryID,
		Time:        req.Time,
		Type:        req.Type,
		Category:    req.Category,
		Amount:      req.Amount,
		Description: req.Description,
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			return ports.UpdateEntryInput{}, err
		}
		in.Date = &date
	}
	return in, nil
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, domain.NewValidationError("date must be YYYY-MM-DD or RFC 3339")
}

// --- Service result → HTTP response ---

func toEntryResponse(e *domain.Entry) entryResponse {
	return entryResponse{
		ID:          e.ID,
		UserID:      e.UserID,
		Date:        e.Date.UTC(),
		Time:        e.Time,
		Type:        string(e.Type),
		Category:    e.Category,
		Amount:      e.Amount,
		Description: e.Description,
		CreatedAt:   e.CreatedAt.UTC(),
		UpdatedAt:   e.UpdatedAt.UTC(),
	}
}

func toEntryResponses(entries []*domain.Entry) []entryResponse {
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryResponse(e))
	}
	return out
}

func toYearSummaryResponse(s *ports.YearSummary) yearSummaryResponse {
	resp := yearSummaryResponse{
		Year:         s.Year,
		Months:       make([]monthTotalsResponse, 0, len(s.Months)),
		Earnings:     s.Earnings,
		Expenditures: s.Expenditures,
		Balance:      s.Earnings - s.Expenditures,
	}
	for _, m := range s.Months {
		resp.Months = append(resp.Months, monthTotalsResponse{
			Month:        m.Month.String(),
			Earnings:     m.Earnings,
			Expenditures: m.Expenditures,
			Balance:      m.Balance(),
		})
	}
	return resp
}
