package serverutils

import (
	"errors"

	"clinical-intelligence-be/pkg/clinical"
	"clinical-intelligence-be/pkg/clinical/orgconfig"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns errors returned by handlers into the JSON error envelope.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		code, message := StatusFor(err)
		return ctx.Status(code).JSON(ErrorResponse(code, message))
	}
}

// StatusFor maps domain errors onto HTTP status codes.
func StatusFor(err error) (int, string) {
	var fe *fiber.Error
	var ve *ValidationError
	switch {
	case errors.As(err, &fe):
		return fe.Code, fe.Message
	case errors.As(err, &ve):
		return fiber.StatusBadRequest, ve.Error()
	case errors.Is(err, orgconfig.ErrUnknownOrganization):
		return fiber.StatusNotFound, err.Error()
	case errors.Is(err, clinical.ErrGenerationUnavailable), errors.Is(err, clinical.ErrRetrievalUnavailable):
		return fiber.StatusServiceUnavailable, err.Error()
	default:
		return fiber.StatusInternalServerError, err.Error()
	}
}
