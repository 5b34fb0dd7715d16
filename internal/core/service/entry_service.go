package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ledgerly/finance-tracker/internal/core/domain"
	"github.com/ledgerly/finance-tracker/internal/core/ports"
)

const (
	minYear = 1970
	maxYear = 9999
)

// timeOfDayLayouts are the accepted forms of an entry's optional time of day.
var timeOfDayLayouts = []string{"3:04 PM", "3:04PM", "15:04"}

type EntryService struct {
	repo   ports.EntryRepository
	logger zerolog.Logger
	now    func() time.Time
}

func NewEntryService(repo ports.EntryRepository, logger zerolog.Logger) *EntryService {
	return &EntryService{repo: repo, logger: logger, now: time.Now}
}

// Create validates and stores a new entry owned by in.UserID.
func (s *EntryService) Create(ctx context.Context, in ports.CreateEntryInput) (*domain.Entry, error) {
	if in.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	if in.Date.IsZero() {
		return nil, domain.NewValidationError("date is required")
	}
	entryType := domain.EntryType(in.Type)
	if !entryType.Valid() {
		return nil, domain.NewValidationError("type must be one of: earning expense")
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		return nil, domain.NewValidationError("category is required")
	}
	if in.Amount < 0 {
		return nil, domain.NewValidationError("amount must be non-negative")
	}
	tod, err := normalizeTimeOfDay(in.Time)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	entry := &domain.Entry{
		UserID:      in.UserID,
		Date:        in.Date.UTC(),
		Time:        tod,
		Type:        entryType,
		Category:    category,
		Amount:      in.Amount,
		Description: strings.TrimSpace(in.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.Error().Err(err).Str("user_id", in.UserID).Msg("failed to create entry")
		return nil, err
	}

	s.logger.Info().Str("entry_id", entry.ID).Str("user_id", in.UserID).Str("type", string(entryType)).Msg("entry created")
	return entry, nil
}

// List returns every entry owned by userID, newest first.
func (s *EntryService) List(ctx context.Context, userID string) ([]*domain.Entry, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	entries, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*domain.Entry{}
	}
	return entries, nil
}

// Update replaces the supplied fields of an entry owned by in.UserID.
func (s *EntryService) Update(ctx context.Context, in ports.UpdateEntryInput) (*domain.Entry, error) {
	if in.UserID == "" {
		return nil, domain.ErrUnauthorized
	}

	var patch domain.EntryPatch
	if in.Date != nil {
		if in.Date.IsZero() {
			return nil, domain.NewValidationError("date must not be empty")
		}
		d := in.Date.UTC()
		patch.Date = &d
	}
	if in.Time != nil {
		tod, err := normalizeTimeOfDay(*in.Time)
		if err != nil {
			return nil, err
		}
		patch.Time = &tod
	}
	if in.Type != nil {
		t := domain.EntryType(*in.Type)
		if !t.Valid() {
			return nil, domain.NewValidationError("type must be one of: earning expense")
		}
		patch.Type = &t
	}
	if in.Category != nil {
		c := strings.TrimSpace(*in.Category)
		if c == "" {
			return nil, domain.NewValidationError("category must not be empty")
		}
		patch.Category = &c
	}
	if in.Amount != nil {
		if *in.Amount < 0 {
			return nil, domain.NewValidationError("amount must be non-negative")
		}
		patch.Amount = in.Amount
	}
	if in.Description != nil {
		d := strings.TrimSpace(*in.Description)
		patch.Description = &d
	}
	if patch.Empty() {
		return nil, domain.NewValidationError("no fields to update")
	}

	entry, err := s.repo.Update(ctx, in.UserID, in.EntryID, patch)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("entry_id", in.EntryID).Str("user_id", in.UserID).Msg("entry updated")
	return entry, nil
}

func (s *EntryService) Delete(ctx context.Context, userID, entryID string) error {
	if userID == "" {
		return domain.ErrUnauthorized
	}
	if err := s.repo.Delete(ctx, userID, entryID); err != nil {
		return err
	}
	s.logger.Info().Str("entry_id", entryID).Str("user_id", userID).Msg("entry deleted")
	return nil
}

// Monthly lists the caller's entries dated within the named month. No match
// yields an empty, non-nil slice.
func (s *EntryService) Monthly(ctx context.Context, in ports.MonthlyReportInput) ([]*domain.Entry, error) {
	if in.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	year, err := parseYear(in.Year)
	if err != nil {
		return nil, err
	}
	month, ok := domain.ParseMonth(in.Month)
	if !ok {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid month %q", in.Month))
	}
	if in.Type != "" && !domain.EntryType(in.Type).Valid() {
		return nil, domain.NewValidationError("type must be one of: earning expense")
	}

	ascending := true
	switch strings.ToLower(in.SortOrder) {
	case "", "asc":
	case "desc":
		ascending = false
	default:
		return nil, domain.NewValidationError("sortOrder must be one of: asc desc")
	}

	from, to := domain.MonthRange(year, month)
	entries, err := s.repo.ListInRange(ctx, ports.RangeFilter{
		UserID:      in.UserID,
		From:        from,
		To:          to,
		Type:        in.Type,
		Category:    strings.TrimSpace(in.Category),
		Description: strings.TrimSpace(in.Description),
		Ascending:   ascending,
	})
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*domain.Entry{}
	}
	return entries, nil
}

// YearSummary totals the caller's entries per month of year. Months without
// entries are reported as zero.
func (s *EntryService) YearSummary(ctx context.Context, userID, year string) (*ports.YearSummary, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	y, err := parseYear(year)
	if err != nil {
		return nil, err
	}

	from, to := domain.YearRange(y)
	totals, err := s.repo.MonthlyTotals(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	summary := &ports.YearSummary{Year: y, Months: make([]domain.MonthTotals, 12)}
	for i := range summary.Months {
		summary.Months[i].Month = time.Month(i + 1)
	}
	for _, t := range totals {
		if t.Month < time.January || t.Month > time.December {
			continue
		}
		m := &summary.Months[t.Month-1]
		m.Earnings += t.Earnings
		m.Expenditures += t.Expenditures
	}
	for _, m := range summary.Months {
		summary.Earnings += m.Earnings
		summary.Expenditures += m.Expenditures
	}
	return summary, nil
}

func parseYear(raw string) (int, error) {
	year, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || year < minYear || year > maxYear {
		return 0, domain.NewValidationError(fmt.Sprintf("invalid year %q", raw))
	}
	return year, nil
}

// normalizeTimeOfDay accepts "h:mm AM/PM" or "HH:MM" and returns it in
// "h:mm AM/PM" form. Empty input stays empty.
func normalizeTimeOfDay(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	for _, layout := range timeOfDayLayouts {
		if t, err := time.Parse(layout, strings.ToUpper(raw)); err == nil {
			return t.Format("3:04 PM"), nil
		}
	}
	return "", domain.NewValidationError(fmt.Sprintf("invalid time %q, expected h:mm AM/PM", raw))
}
