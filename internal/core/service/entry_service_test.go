package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ledgerly/finance-tracker/internal/core/domain"
	"github.com/ledgerly/finance-tracker/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repository
// ---------------------------------------------------------------------------

type stubEntryRepo struct {
	byID       map[string]*domain.Entry
	nextID     int
	lastFilter ports.RangeFilter
	failWith   error
}

func newStubEntryRepo() *stubEntryRepo {
	return &stubEntryRepo{byID: make(map[string]*domain.Entry)}
}

func (r *stubEntryRepo) Create(_ context.Context, e *domain.Entry) error {
	if r.failWith != nil {
		return r.failWith
	}
	r.nextID++
	e.ID = fmt.Sprintf("entry-%d", r.nextID)
	clone := *e
	r.byID[e.ID] = &clone
	return nil
}

func (r *stubEntryRepo) ListByUser(_ context.Context, userID string) ([]*domain.Entry, error) {
	var out []*domain.Entry
	for _, e := range r.byID {
		if e.UserID == userID {
			clone := *e
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

// Update and Delete enforce ownership the way the Mongo filter does.
func (r *stubEntryRepo) Update(_ context.Context, userID, entryID string, p domain.EntryPatch) (*domain.Entry, error) {
	e, ok := r.byID[entryID]
	if !ok || e.UserID != userID {
		return nil, domain.ErrEntryNotFound
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Time != nil {
		e.Time = *p.Time
	}
	if p.Type != nil {
		e.Type = *p.Type
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	clone := *e
	return &clone, nil
}

func (r *stubEntryRepo) Delete(_ context.Context, userID, entryID string) error {
	e, ok := r.byID[entryID]
	if !ok || e.UserID != userID {
		return domain.ErrEntryNotFound
	}
	delete(r.byID, entryID)
	return nil
}

func (r *stubEntryRepo) ListInRange(_ context.Context, f ports.RangeFilter) ([]*domain.Entry, error) {
	r.lastFilter = f
	var out []*domain.Entry
	for _, e := range r.byID {
		if e.UserID != f.UserID || e.Date.Before(f.From) || e.Date.After(f.To) {
			continue
		}
		if f.Type != "" && string(e.Type) != f.Type {
			continue
		}
		if f.Category != "" && !strings.EqualFold(e.Category, f.Category) {
			continue
		}
		if f.Description != "" && !strings.Contains(strings.ToLower(e.Description), strings.ToLower(f.Description)) {
			continue
		}
		clone := *e
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		if f.Ascending {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

func (r *stubEntryRepo) MonthlyTotals(_ context.Context, userID string, from, to time.Time) ([]domain.MonthTotals, error) {
	buckets := map[time.Month]*domain.MonthTotals{}
	for _, e := range r.byID {
		if e.UserID != userID || e.Date.Before(from) || e.Date.After(to) {
			continue
		}
		b, ok := buckets[e.Date.Month()]
		if !ok {
			b = &domain.MonthTotals{Month: e.Date.Month()}
			buckets[e.Date.Month()] = b
		}
		if e.Type == domain.TypeEarning {
			b.Earnings += e.Amount
		} else {
			b.Expenditures += e.Amount
		}
	}
	var out []domain.MonthTotals
	for _, b := range buckets {
		out = append(out, *b)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newTestEntryService(repo *stubEntryRepo) *EntryService {
	return NewEntryService(repo, zerolog.Nop())
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mustCreate(t *testing.T, svc *EntryService, in ports.CreateEntryInput) *domain.Entry {
	t.Helper()
	e, err := svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("Create(%+v) returned error: %v", in, err)
	}
	return e
}

func strPtr(s string) *string { return &s }

// ---------------------------------------------------------------------------
// Create / List
// ---------------------------------------------------------------------------

func TestEntryService_Create_Success(t *testing.T) {
	repo := newStubEntryRepo()
	svc := newTestEntryService(repo)

	e := mustCreate(t, svc, ports.CreateEntryInput{
		UserID:      "u1",
		Date:        date(2024, time.March, 5),
		Time:        "09:30",
		Type:        "expense",
		Category:    " Rent ",
		Amount:      500,
		Description: "march rent",
	})

	if e.ID == "" {
		t.Fatal("expected an id to be assigned")
	}
	if e.UserID != "u1" {
		t.Errorf("expected owner u1, got %s", e.UserID)
	}
	if e.Category != "Rent" {
		t.Errorf("expected trimmed category, got %q", e.Category)
	}
	if e.Time != "9:30 AM" {
		t.Errorf("expected normalized time 9:30 AM, got %q", e.Time)
	}
	if e.CreatedAt.IsZero() || !e.CreatedAt.Equal(e.UpdatedAt) {
		t.Errorf("expected createdAt == updatedAt on creation, got %v / %v", e.CreatedAt, e.UpdatedAt)
	}
}

func TestEntryService_Create_Validation(t *testing.T) {
	svc := newTestEntryService(newStubEntryRepo())
	base := ports.CreateEntryInput{UserID: "u1", Date: date(2024, 1, 1), Type: "earning", Category: "Salary", Amount: 10}

	tests := []struct {
		name   string
		mutate func(*ports.CreateEntryInput)
	}{
		{"missing date", func(in *ports.CreateEntryInput) { in.Date = time.Time{} }},
		{"bad type", func(in *ports.CreateEntryInput) { in.Type = "gift" }},
		{"empty category", func(in *ports.CreateEntryInput) { in.Category = "  " }},
		{"negative amount", func(in *ports.CreateEntryInput) { in.Amount = -1 }},
		{"bad time", func(in *ports.CreateEntryInput) { in.Time = "25:99" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.mutate(&in)
			_, err := svc.Create(context.Background(), in)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}

	if _, err := svc.Create(context.Background(), ports.CreateEntryInput{Date: date(2024, 1, 1), Type: "earning", Category: "x"}); err != domain.ErrUnauthorized {
		t.Fatalf("missing owner: expected ErrUnauthorized, got %v", err)
	}
}

func TestEntryService_Create_ZeroAmountAllowed(t *testing.T) {
	svc := newTestEntryService(newStubEntryRepo())
	e := mustCreate(t, svc, ports.CreateEntryInput{UserID: "u1", Date: date(2024, 1, 1), Type: "expense", Category: "Bills"})
	if e.Amount != 0 {
		t.Fatalf("expected zero amount, got %v", e.Amount)
	}
}

func TestEntryService_Create_RepoError(t *testing.T) {
	repo := newStubEntryRepo()
	repo.failWith = errors.New("connection reset")
	svc := newTestEntryService(repo)

	_, err := svc.Create(context.Background(), ports.CreateEntryInput{UserID: "u1", Date: date(2024, 1, 1), Type: "expense", Category: "Bills"})
	if err == nil || err.Error() != "connection reset" {
		t.Fatalf("expected repo error to propagate, got %v", err)
	}
}

func TestEntryService_List_ScopedToOwner(t *testing.T) {
	svc := newTestEntryService(newStubEntryRepo())
	mustCreate(t, svc, ports.CreateEntryInput{UserID: "alice", Date: date(2024, 1, 1), Type: "expense", Category: "Food Expense", Amount: 5})
	mustCreate(t, svc, ports.CreateEntryInput{UserID: "alice", Date: date(2024, 2, 1), Type: "earning", Category: "Salary", Amount: 50})
	mustCreate(t, svc, ports.CreateEntryInput{UserID: "bob", Date: date(2024, 1, 1), Type: "expense", Category: "Rent", Amount: 500})

	entries, err := svc.List(context.Background(), "alice")
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	for _, e := range entries {
		if e.UserID != "alice" {
			t.Errorf("leaked entry of %s", e.UserID)
		}
	}

	empty, err := svc.List(context.Background(), "carol")
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", empty)
	}
}

// ---------------------------------------------------------------------------
// Update / Delete
// ---------------------------------------------------------------------------

func TestEntryService_Update(t *testing.T) {
	svc := newTestEntryService(newStubEntryRepo())
	e := mustCreate(t, svc, ports.CreateEntryInput{UserID: "u1", Date: date(2024, 1, 1), Type: "expense", Category: "Bills", Amount: 20})

	amount := 35.5
	updated, err := svc.Update(context.Background(), ports.UpdateEntryInput{
		UserID:      "u1",
		EntryID:     e.ID,
		Amount:      &amount,
		Description: strPtr("electricity"),
		Time:        strPtr("7:05 pm"),
	})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Amount != 35.5 || updated.Description != "electricity" {
		t.Errorf("fields not applied: %+v", updated)
	}
	if updated.Time != "7:05 PM" {
		t.Errorf("expected normalized time, got %q", updated.Time)
	}
	if updated.Category != "Bills" {
		t.Errorf("untouched field changed: %q", updated.Category)
	}
}

func TestEntryService_Update_Errors(t *testing.T) {
	svc := newTestEntryService(newStubEntryRepo())
	e := mustCreate(t, svc, ports.CreateEntryInput{UserID: "alice", Date: date(2024, 1, 1), Type: "expense", Category: "Bills", Amount: 20})

	if _, err := svc.Update(context.Background(), ports.UpdateEntryInput{UserID: "alice", EntryID: e.ID}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("empty patch: expected ErrValidation, got %v", err)
	}
	if _, err := svc.Update(context.Background(), ports.UpdateEntryInput{UserID: "alice", EntryID: e.ID, Type: strPtr("refund")}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("bad type: expected ErrValidation, got %v", err)
	}

	// Another user's id behaves exactly like a missing one.
	if _, err := svc.Update(context.Background(), ports.UpdateEntryInput{UserID: "bob", EntryID: e.ID, Category: strPtr("Rent")}); err != domain.ErrEntryNotFound {
		t.Errorf("cross-tenant update: expected ErrEntryNotFound, got %v", err)
	}
	if _, err := svc.Update(context.Background(), ports.UpdateEntryInput{UserID: "alice", EntryID: "entry-404", Category: strPtr("Rent")}); err != domain.ErrEntryNotFound {
		t.Errorf("missing entry: expected ErrEntryNotFound, got %v", err)
	}
}

func TestEntryService_Delete(t *testing.T) {
	svc := newTestEntryService(newStubEntryRepo())
	e := mustCreate(t, svc, ports.CreateEntryInput{UserID: "alice", Date: date(2024, 1, 1), Type: "expense", Category: "Bills", Amount: 20})

	if err := svc.Delete(context.Background(), "bob", e.ID); err != domain.ErrEntryNotFound {
		t.Fatalf("cross-tenant delete: expected ErrEntryNotFound, got %v", err)
	}
	if err := svc.Delete(context.Background(), "alice", e.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if err := svc.Delete(context.Background(), "alice", e.ID); err != domain.ErrEntryNotFound {
		t.Fatalf("second delete: expected ErrEntryNotFound, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Monthly report
// ---------------------------------------------------------------------------

func seedMonth(t *testing.T, svc *EntryService) {
	t.Helper()
	mustCreate(t, svc, ports.CreateEntryInput{UserID: "u1", Date: date(2024, 2, 10), Type: "expense", Category: "Groceries", Amount: 40, Description: "Weekly shop"})
	mustCreate(t, svc, ports.CreateEntryInput{UserID: "u1", Date: date(2024, 2, 1), Type: "earning", Category: "Salary", Amount: 1000})
	mustCreate(t, svc, ports.CreateEntryInput{UserID: "u1", Date: time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC), Type: "expense", Category: "Rent", Amount: 700})
	mustCreate(t, svc, ports.CreateEntryInput{UserID: "u1", Date: date(2024, 3, 1), Type: "expense", Category: "Rent", Amount: 700})
	mustCreate(t, svc, ports.CreateEntryInput{UserID: "u2", Date: date(2024, 2, 15), Type: "expense", Category: "Rent", Amount: 900})
}

func TestEntryService_Monthly_RangeAndOrder(t *testing.T) {
	repo := newStubEntryRepo()
	svc := newTestEntryService(repo)
	seedMonth(t, svc)

	entries, err := svc.Monthly(context.Background(), ports.MonthlyReportInput{UserID: "u1", Year: "2024", Month: "February"})
	if err != nil {
		t.Fatalf("Monthly returned error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 February entries, got %d", len(entries))
	}
	if !entries[0].Date.Equal(date(2024, 2, 1)) {
		t.Errorf("expected ascending order by default, first is %v", entries[0].Date)
	}
	if !repo.lastFilter.To.Equal(time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC)) {
		t.Errorf("unexpected range end %v", repo.lastFilter.To)
	}

	desc, err := svc.Monthly(context.Background(), ports.MonthlyReportInput{UserID: "u1", Year: "2024", Month: "feb", SortOrder: "desc"})
	if err != nil {
		t.Fatalf("Monthly returned error: %v", err)
	}
	if !desc[0].Date.After(desc[len(desc)-1].Date) {
		t.Errorf("expected descending order")
	}
}

func TestEntryService_Monthly_Filters(t *testing.T) {
	svc := newTestEntryService(newStubEntryRepo())
	seedMonth(t, svc)

	got, err := svc.Monthly(context.Background(), ports.MonthlyReportInput{UserID: "u1", Year: "2024", Month: "February", Type: "expense", Category: "groceries"})
	if err != nil {
		t.Fatalf("Monthly returned error: %v", err)
	}
	if len(got) != 1 || got[0].Category != "Groceries" {
		t.Fatalf("expected only the groceries entry, got %+v", got)
	}

	got, err = svc.Monthly(context.Background(), ports.MonthlyReportInput{UserID: "u1", Year: "2024", Month: "February", Description: "SHOP"})
	if err != nil {
		t.Fatalf("Monthly returned error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected description substring match, got %d entries", len(got))
	}
}

func TestEntryService_Monthly_Empty(t *testing.T) {
	svc := newTestEntryService(newStubEntryRepo())
	seedMonth(t, svc)

	got, err := svc.Monthly(context.Background(), ports.MonthlyReportInput{UserID: "u1", Year: "2023", Month: "July"})
	if err != nil {
		t.Fatalf("Monthly returned error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestEntryService_Monthly_Validation(t *testing.T) {
	svc := newTestEntryService(newStubEntryRepo())

	tests := []ports.MonthlyReportInput{
		{UserID: "u1", Year: "2024", Month: "Smarch"},
		{UserID: "u1", Year: "twenty", Month: "May"},
		{UserID: "u1", Year: "1969", Month: "May"},
		{UserID: "u1", Year: "2024", Month: "May", SortOrder: "sideways"},
		{UserID: "u1", Year: "2024", Month: "May", Type: "gift"},
	}
	for _, in := range tests {
		if _, err := svc.Monthly(context.Background(), in); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("Monthly(%+v): expected ErrValidation, got %v", in, err)
		}
	}
}

// ---------------------------------------------------------------------------
// Year summary
// ---------------------------------------------------------------------------

func TestEntryService_YearSummary(t *testing.T) {
	svc := newTestEntryService(newStubEntryRepo())
	seedMonth(t, svc)

	sum, err := svc.YearSummary(context.Background(), "u1", "2024")
	if err != nil {
		t.Fatalf("YearSummary returned error: %v", err)
	}
	if len(sum.Months) != 12 {
		t.Fatalf("expected 12 buckets, got %d", len(sum.Months))
	}
	feb := sum.Months[1]
	if feb.Month != time.February || feb.Earnings != 1000 || feb.Expenditures != 740 {
		t.Errorf("unexpected February bucket: %+v", feb)
	}
	if sum.Months[0].Earnings != 0 || sum.Months[0].Expenditures != 0 {
		t.Errorf("expected January to be zero-filled, got %+v", sum.Months[0])
	}
	if sum.Earnings != 1000 || sum.Expenditures != 1440 {
		t.Errorf("unexpected yearly totals: %v / %v", sum.Earnings, sum.Expenditures)
	}

	if _, err := svc.YearSummary(context.Background(), "u1", "abc"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation for bad year, got %v", err)
	}
}

func TestNormalizeTimeOfDay(t *testing.T) {
	tests := map[string]string{
		"":         "",
		"9:30 am":  "9:30 AM",
		"12:00PM":  "12:00 PM",
		"18:45":    "6:45 PM",
		" 00:05 ":  "12:05 AM",
		"11:59 PM": "11:59 PM",
	}
	for in, want := range tests {
		got, err := normalizeTimeOfDay(in)
		if err != nil {
			t.Errorf("normalizeTimeOfDay(%q) returned error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("normalizeTimeOfDay(%q) = %q, want %q", in, got, want)
		}
	}

	for _, bad := range []string{"noon", "13:00 PM", "9.30"} {
		if _, err := normalizeTimeOfDay(bad); err == nil {
			t.Errorf("normalizeTimeOfDay(%q): expected error", bad)
		}
	}
}
