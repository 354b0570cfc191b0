package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Cilindros-api/internal/application/dto"
	"github.com/jhoicas/Cilindros-api/internal/domain"
)

// writeError traduce errores de dominio a status HTTP + dto.ErrorResponse.
// El orden importa: un PostingError envuelve la causa real y se clasifica por ella.
func writeError(c *fiber.Ctx, err error) error {
	status, code := classify(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		msg = "error interno"
	}
	out := dto.ErrorResponse{Code: code, Message: msg}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		out.Field, out.LineNo = verr.Field, verr.LineNo
	}
	var perr *domain.PostingError
	if errors.As(err, &perr) && out.LineNo == 0 {
		out.LineNo = perr.LineNo
	}
	return c.Status(status).JSON(out)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInsufficientStock):
		return fiber.StatusConflict, "INSUFFICIENT_STOCK"
	case errors.Is(err, domain.ErrStatusTransition):
		return fiber.StatusConflict, "INVALID_STATUS"
	case errors.Is(err, domain.ErrNotModifiable):
		return fiber.StatusBadRequest, "NOT_MODIFIABLE"
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrDuplicate):
		return fiber.StatusConflict, "CONFLICT"
	default:
		return fiber.StatusInternalServerError, "INTERNAL"
	}
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
}
