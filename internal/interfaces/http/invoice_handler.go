package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/timeledger-api/internal/application/billing"
	"github.com/jhoicas/timeledger-api/internal/application/dto"
	"github.com/jhoicas/timeledger-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// InvoiceHandler maneja las peticiones HTTP de facturación (protegido).
type InvoiceHandler struct {
	ledger *billing.LedgerUseCase
}

// NewInvoiceHandler construye el handler.
func NewInvoiceHandler(ledger *billing.LedgerUseCase) *InvoiceHandler {
	return &InvoiceHandler{ledger: ledger}
}

// Create godoc
// @Summary      Facturar registros de tiempo
// @Description  Construye una factura draft con los registros indicados y los marca facturados en una sola transacción.
// @Tags         invoices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateInvoiceRequest  true  "matter_id, client_id, time_entry_ids, hourly_rate opcional"
// @Success      201   {object}  dto.InvoiceResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse  "registro inexistente, de otro asunto o ya facturado"
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/invoices [post]
func (h *InvoiceHandler) Create(c *fiber.Ctx) error {
	firmID := GetFirmID(c)
	if firmID == "" {
		return unauthorized(c)
	}
	var in dto.CreateInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	inv, err := h.ledger.CreateInvoiceFromEntries(c.Context(), firmID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(billing.ToInvoiceResponse(inv))
}

// GetByID godoc
// @Summary      Obtener una factura con sus líneas
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la factura"
// @Success      200  {object}  dto.InvoiceResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *fiber.Ctx) error {
	firmID := GetFirmID(c)
	if firmID == "" {
		return unauthorized(c)
	}
	inv, err := h.ledger.GetInvoice(c.Context(), firmID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(billing.ToInvoiceResponse(inv))
}

// ChangeStatus godoc
// @Summary      Cambiar el estado de una factura
// @Description  draft→sent, sent→paid, draft|sent→void. Anular libera los registros de tiempo.
// @Tags         invoices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                          true  "ID de la factura"
// @Param        body  body  dto.ChangeInvoiceStatusRequest  true  "status: sent | paid | void"
// @Success      200   {object}  dto.InvoiceResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse  "transición no permitida"
// @Router       /api/invoices/{id}/status [post]
func (h *InvoiceHandler) ChangeStatus(c *fiber.Ctx) error {
	firmID := GetFirmID(c)
	if firmID == "" {
		return unauthorized(c)
	}
	var in dto.ChangeInvoiceStatusRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	to, ok := entity.ParseInvoiceStatus(strings.ToLower(strings.TrimSpace(in.Status)))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code:    "VALIDATION",
			Message: "status debe ser sent, paid o void",
			Details: map[string]string{"status": in.Status},
		})
	}
	inv, err := h.ledger.ChangeStatus(c.Context(), firmID, c.Params("id"), to)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(billing.ToInvoiceResponse(inv))
}

// Void godoc
// @Summary      Anular una factura
// @Description  Pasa la factura a void y devuelve sus registros de tiempo a sin facturar, atómicamente.
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la factura"
// @Success      200  {object}  dto.InvoiceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse  "factura pagada o ya anulada"
// @Router       /api/invoices/{id}/void [post]
func (h *InvoiceHandler) Void(c *fiber.Ctx) error {
	firmID := GetFirmID(c)
	if firmID == "" {
		return unauthorized(c)
	}
	inv, err := h.ledger.VoidInvoice(c.Context(), firmID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(billing.ToInvoiceResponse(inv))
}

// History godoc
// @Summary      Historial de facturas de un asunto
// @Description  Incluye las anuladas. Orden: fecha de emisión descendente.
// @Tags         matters
// @Security     Bearer
// @Produce      json
// @Param        matterId  path  string  true  "ID del asunto"
// @Success      200  {object}  dto.InvoiceListResponse
// @Router       /api/matters/{matterId}/invoices [get]
func (h *InvoiceHandler) History(c *fiber.Ctx) error {
	firmID := GetFirmID(c)
	if firmID == "" {
		return unauthorized(c)
	}
	list, err := h.ledger.InvoiceHistory(c.Context(), firmID, c.Params("matterId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(billing.ToInvoiceList(list))
}

// UnbilledTotal godoc
// @Summary      Total pendiente de facturar de un asunto
// @Tags         matters
// @Security     Bearer
// @Produce      json
// @Param        matterId  path   string  true   "ID del asunto"
// @Param        rate      query  string  false  "Tarifa por hora; vacío = tarifa de la firma"
// @Success      200  {object}  dto.UnbilledTotalResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/matters/{matterId}/unbilled-total [get]
func (h *InvoiceHandler) UnbilledTotal(c *fiber.Ctx) error {
	firmID := GetFirmID(c)
	if firmID == "" {
		return unauthorized(c)
	}
	var rate *decimal.Decimal
	if raw := strings.TrimSpace(c.Query("rate")); raw != "" {
		r, err := decimal.NewFromString(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Code:    "INVALID_RATE",
				Message: "rate debe ser un número decimal",
				Details: map[string]string{"rate": raw},
			})
		}
		rate = &r
	}
	total, err := h.ledger.UnbilledTotal(c.Context(), firmID, c.Params("matterId"), rate)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(total)
}
