package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ledgerly/finance-tracker/internal/api/metrics"
	"github.com/ledgerly/finance-tracker/internal/core/domain"
	"github.com/ledgerly/finance-tracker/internal/core/ports"
)

// ReportHandler serves the read-only aggregations over a user's entries.
type ReportHandler struct {
	service ports.EntryService
}

func NewReportHandler(service ports.EntryService) *ReportHandler {
	return &ReportHandler{service: service}
}

// Monthly handles GET /api/monthly/:year/:month.
//
// @Summary      Entries of one month
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        year         path   int     true   "Year, e.g. 2025"
// @Param        month        path   string  true   "Month name, e.g. January or Jan"
// @Param        type         query  string  false  "earning or expense"
// @Param        category     query  string  false  "Category, case-insensitive exact match"
// @Param        description  query  string  false  "Description substring, case-insensitive"
// @Param        sortOrder    query  string  false  "asc (default) or desc"
// @Success      200          {array}   entryResponse
// @Failure      400          {object}  errorResponse
// @Failure      401          {object}  errorResponse
// @Router       /api/monthly/{year}/{month} [get]
func (h *ReportHandler) Monthly(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	start := time.Now()
	entries, err := h.service.Monthly(c.Request().Context(), ports.MonthlyReportInput{
		UserID:      userID,
		Year:        c.Param("year"),
		Month:       c.Param("month"),
		Type:        c.QueryParam("type"),
		Category:    c.QueryParam("category"),
		Description: c.QueryParam("description"),
		SortOrder:   c.QueryParam("sortOrder"),
	})
	metrics.ReportQueryDuration.WithLabelValues("monthly").Observe(time.Since(start).Seconds())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEntryResponses(entries))
}

// Summary handles GET /api/summary/:year.
//
// @Summary      Per-month totals of one year
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        year  path      int  true  "Year, e.g. 2025"
// @Success      200   {object}  yearSummaryResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /api/summary/{year} [get]
func (h *ReportHandler) Summary(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	start := time.Now()
	summary, err := h.service.YearSummary(c.Request().Context(), userID, c.Param("year"))
	metrics.ReportQueryDuration.WithLabelValues("summary").Observe(time.Since(start).Seconds())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toYearSummaryResponse(summary))
}

// Categories handles GET /api/categories.
//
// @Summary      Suggested categories
// @Tags         reports
// @Produce      json
// @Success      200  {object}  categoriesResponse
// @Router       /api/categories [get]
func (h *ReportHandler) Categories(c echo.Context) error {
	return c.JSON(http.StatusOK, categoriesResponse{
		Expense: domain.SuggestedCategories[domain.TypeExpense],
		Earning: domain.SuggestedCategories[domain.TypeEarning],
	})
}
