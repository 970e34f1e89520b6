package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-api/internal/application/dto"
	"github.com/jhoicas/pos-api/internal/domain/entity"
)

// LocalActive indica si la cuenta de la sesión tiene la suscripción al día.
const LocalActive = "is_active"

// sessionLoader es el contrato mínimo del middleware; lo implementa *usecase.AccessService.
type sessionLoader interface {
	Session(ctx context.Context, userID string) (*entity.User, error)
}

// SessionMiddleware relee el usuario de la BD en cada petición: la tienda y el estado de la
// cuenta pueden haber cambiado desde que se emitió el token. Va después de AuthMiddleware.
//
//   - 401 si el usuario ya no existe.
//   - 503 si la BD no responde.
func SessionMiddleware(loader sessionLoader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := GetUserID(c)
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "user_id no encontrado en el token"})
		}
		user, err := loader.Session(c.UserContext(), userID)
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Code: "SESSION_CHECK_FAILED", Message: "no se pudo verificar la sesión, intente más tarde",
			})
		}
		if user == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "el usuario ya no existe"})
		}
		c.Locals(LocalShopID, user.ShopID)
		c.Locals(LocalRole, user.Role)
		c.Locals(LocalActive, user.IsActive)
		return c.Next()
	}
}

// RequireActive rechaza con 403 a las cuentas desactivadas por falta de pago.
// Va después de SessionMiddleware.
func RequireActive() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if active, _ := c.Locals(LocalActive).(bool); !active {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code: "INACTIVE_USER", Message: "cuenta inactiva: recargue saldo para continuar",
			})
		}
		return c.Next()
	}
}
