package http

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/timeledger-api/internal/application/dto"
	"github.com/jhoicas/timeledger-api/internal/domain"
)

// writeError traduce un error de dominio a status + dto.ErrorResponse.
func writeError(c *fiber.Ctx, err error) error {
	status, body := errorResponse(err)
	return c.Status(status).JSON(body)
}

func errorResponse(err error) (int, dto.ErrorResponse) {
	var (
		conflict   *domain.ConflictError
		transition *domain.IllegalTransitionError
		state      *domain.InvalidStateError
	)
	switch {
	case errors.As(err, &conflict):
		return fiber.StatusConflict, dto.ErrorResponse{
			Code:    "CONFLICT",
			Message: "un registro de tiempo no puede facturarse",
			Details: map[string]string{"entry_id": conflict.EntryID, "reason": conflict.Reason},
		}
	case errors.As(err, &transition):
		return fiber.StatusConflict, dto.ErrorResponse{
			Code:    "ILLEGAL_TRANSITION",
			Message: "transición de estado no permitida",
			Details: map[string]string{
				"invoice_id": transition.InvoiceID,
				"from":       transition.From,
				"to":         transition.To,
				"terminal":   strconv.FormatBool(transition.Terminal),
			},
		}
	case errors.As(err, &state):
		return fiber.StatusConflict, dto.ErrorResponse{
			Code:    "INVALID_STATE",
			Message: "el registro ya está facturado",
			Details: map[string]string{"entry_id": state.EntryID, "invoice_id": state.InvoiceID},
		}
	case errors.Is(err, domain.ErrEmptySelection):
		return fiber.StatusBadRequest, dto.ErrorResponse{Code: "EMPTY_SELECTION", Message: domain.ErrEmptySelection.Error()}
	case errors.Is(err, domain.ErrInvalidRate):
		return fiber.StatusBadRequest, dto.ErrorResponse{Code: "INVALID_RATE", Message: err.Error()}
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()}
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"}
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado al recurso"}
	case errors.Is(err, domain.ErrDuplicate):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "DUPLICATE", Message: "el recurso ya existe"}
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()}
	case errors.Is(err, domain.ErrTransient):
		return fiber.StatusServiceUnavailable, dto.ErrorResponse{Code: "TRANSIENT", Message: "error transitorio, reintente"}
	}
	return fiber.StatusInternalServerError, dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()}
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}
