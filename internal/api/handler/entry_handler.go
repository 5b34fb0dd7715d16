package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ledgerly/finance-tracker/internal/api/metrics"
	"github.com/ledgerly/finance-tracker/internal/core/ports"
)

// EntryHandler handles HTTP requests for the caller's earnings and expenses.
type EntryHandler struct {
	service ports.EntryService
}

func NewEntryHandler(service ports.EntryService) *EntryHandler {
	return &EntryHandler{service: service}
}

// Create handles POST /api/expenses.
//
// @Summary      Add an entry
// @Tags         entries
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createEntryRequest  true  "Entry details"
// @Success      201   {object}  entryResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/expenses [post]
func (h *EntryHandler) Create(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req createEntryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	in, err := toCreateInput(req, userID)
	if err != nil {
		return err
	}

	entry, err := h.service.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}

	metrics.EntryMutationsTotal.WithLabelValues("create").Inc()
	metrics.EntryAmountTotal.WithLabelValues(string(entry.Type)).Add(entry.Amount)
	return c.JSON(http.StatusCreated, toEntryResponse(entry))
}

// List handles GET /api/expenses.
//
// @Summary      List the caller's entries
// @Tags         entries
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   entryResponse
// @Failure      401  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /api/expenses [get]
func (h *EntryHandler) List(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	entries, err := h.service.List(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEntryResponses(entries))
}

// Update handles PUT /api/expenses/:id.
//
// @Summary      Update an entry
// @Tags         entries
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string              true  "Entry id"
// @Param        body  body      updateEntryRequest  true  "Fields to change"
// @Success      200   {object}  entryResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/expenses/{id} [put]
func (h *EntryHandler) Update(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req updateEntryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	in, err := toUpdateInput(req, userID, c.Param("id"))
	if err != nil {
		return err
	}

	entry, err := h.service.Update(c.Request().Context(), in)
	if err != nil {
		return err
	}

	metrics.EntryMutationsTotal.WithLabelValues("update").Inc()
	return c.JSON(http.StatusOK, toEntryResponse(entry))
}

// Delete handles DELETE /api/expenses/:id.
//
// @Summary      Delete an entry
// @Tags         entries
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Entry id"
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/expenses/{id} [delete]
func (h *EntryHandler) Delete(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), userID, c.Param("id")); err != nil {
		return err
	}

	metrics.EntryMutationsTotal.WithLabelValues("delete").Inc()
	return c.JSON(http.StatusOK, messageResponse{Message: "Entry deleted successfully"})
}
