package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/pos-api/internal/application/dto"
	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/pkg/validator"
)

type errorMapping struct {
	target error
	status int
	code   string
}

// Orden importante: los sentinels específicos antes que los genéricos.
var errorMappings = []errorMapping{
	{errInvalidBody, fiber.StatusBadRequest, "INVALID_BODY"},
	{errInvalidParams, fiber.StatusBadRequest, "INVALID_PARAMS"},
	{domain.ErrUserNotFound, fiber.StatusNotFound, "USER_NOT_FOUND"},
	{domain.ErrProductNotFound, fiber.StatusNotFound, "PRODUCT_NOT_FOUND"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrPhoneAlreadyExists, fiber.StatusConflict, "PHONE_EXISTS"},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE"},
	{domain.ErrConflict, fiber.StatusConflict, "CONFLICT"},
	{domain.ErrInvalidCredentials, fiber.StatusUnauthorized, "INVALID_CREDENTIALS"},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
	{domain.ErrInvalidOTP, fiber.StatusBadRequest, "INVALID_OTP"},
	{domain.ErrTooManyAttempts, fiber.StatusTooManyRequests, "TOO_MANY_ATTEMPTS"},
	{domain.ErrInactiveUser, fiber.StatusForbidden, "INACTIVE_USER"},
	{domain.ErrScopeMismatch, fiber.StatusForbidden, "SCOPE_MISMATCH"},
	{domain.ErrNoShop, fiber.StatusForbidden, "NO_SHOP"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
}

// writeError traduce un error de dominio a la respuesta HTTP. Los errores no reconocidos se
// registran y salen como 500 con un mensaje genérico.
func writeError(c *fiber.Ctx, err error) error {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code: "VALIDATION", Message: "datos inválidos", Fields: ve.Fields,
		})
	}
	var se *domain.StockError
	if errors.As(err, &se) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code:    "INSUFFICIENT_STOCK",
			Message: se.Error(),
			Fields:  map[string]string{se.ProductID: "disponible " + se.Available + ", solicitado " + se.Requested},
		})
	}
	if errors.Is(err, domain.ErrInvalidInput) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return c.Status(m.status).JSON(dto.ErrorResponse{Code: m.code, Message: m.target.Error()})
		}
	}
	log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error interno")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno del servidor"})
}

var (
	errInvalidBody   = errors.New("cuerpo inválido")
	errInvalidParams = errors.New("parámetros de consulta inválidos")
)

// parseBody decodifica el JSON y valida los tags `validate`. El error va directo a writeError.
func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return errInvalidBody
	}
	return validator.ValidateStruct(out)
}

// parseQuery como parseBody, para los parámetros de consulta.
func parseQuery(c *fiber.Ctx, out interface{}) error {
	if err := c.QueryParser(out); err != nil {
		return errInvalidParams
	}
	return validator.ValidateStruct(out)
}

// paramID lee un parámetro de ruta que debe ser UUID. Un id mal formado no puede existir: 404.
func paramID(c *fiber.Ctx, name string) (string, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return "", domain.ErrNotFound
	}
	return id.String(), nil
}
