package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/timeledger-api/internal/application/billing"
	"github.com/jhoicas/timeledger-api/internal/application/dto"
)

// TimeEntryHandler maneja los registros de tiempo (protegido).
type TimeEntryHandler struct {
	entries *billing.TimeEntryStore
}

// NewTimeEntryHandler construye el handler.
func NewTimeEntryHandler(entries *billing.TimeEntryStore) *TimeEntryHandler {
	return &TimeEntryHandler{entries: entries}
}

// Create godoc
// @Summary      Registrar horas trabajadas
// @Tags         time-entries
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateTimeEntryRequest  true  "matter_id, hours (> 0), work_date (YYYY-MM-DD), description"
// @Success      201   {object}  dto.TimeEntryResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/time-entries [post]
func (h *TimeEntryHandler) Create(c *fiber.Ctx) error {
	firmID := GetFirmID(c)
	if firmID == "" {
		return unauthorized(c)
	}
	var in dto.CreateTimeEntryRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	e, err := h.entries.Create(c.Context(), firmID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(billing.ToTimeEntryResponse(e))
}

// GetByID godoc
// @Summary      Obtener un registro de tiempo
// @Tags         time-entries
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del registro"
// @Success      200  {object}  dto.TimeEntryResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/time-entries/{id} [get]
func (h *TimeEntryHandler) GetByID(c *fiber.Ctx) error {
	firmID := GetFirmID(c)
	if firmID == "" {
		return unauthorized(c)
	}
	e, err := h.entries.GetByID(c.Context(), firmID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(billing.ToTimeEntryResponse(e))
}

// Update godoc
// @Summary      Editar un registro sin facturar
// @Tags         time-entries
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true  "ID del registro"
// @Param        body  body  dto.UpdateTimeEntryRequest  true  "hours, work_date, description"
// @Success      200   {object}  dto.TimeEntryResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse  "registro ya facturado"
// @Router       /api/time-entries/{id} [put]
func (h *TimeEntryHandler) Update(c *fiber.Ctx) error {
	firmID := GetFirmID(c)
	if firmID == "" {
		return unauthorized(c)
	}
	var in dto.UpdateTimeEntryRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	e, err := h.entries.Update(c.Context(), firmID, c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(billing.ToTimeEntryResponse(e))
}

// Delete godoc
// @Summary      Eliminar un registro sin facturar
// @Tags         time-entries
// @Security     Bearer
// @Param        id   path  string  true  "ID del registro"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse  "registro ya facturado"
// @Router       /api/time-entries/{id} [delete]
func (h *TimeEntryHandler) Delete(c *fiber.Ctx) error {
	firmID := GetFirmID(c)
	if firmID == "" {
		return unauthorized(c)
	}
	if err := h.entries.Delete(c.Context(), firmID, c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListUnbilled godoc
// @Summary      Registros sin facturar de un asunto
// @Description  Ordenados por fecha de trabajo descendente.
// @Tags         matters
// @Security     Bearer
// @Produce      json
// @Param        matterId  path  string  true  "ID del asunto"
// @Success      200  {object}  dto.TimeEntryListResponse
// @Router       /api/matters/{matterId}/time-entries/unbilled [get]
func (h *TimeEntryHandler) ListUnbilled(c *fiber.Ctx) error {
	firmID := GetFirmID(c)
	if firmID == "" {
		return unauthorized(c)
	}
	list, err := h.entries.ListUnbilled(c.Context(), firmID, c.Params("matterId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(billing.ToTimeEntryList(list))
}
