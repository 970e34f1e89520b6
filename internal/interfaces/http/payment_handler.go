package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-api/internal/application/billing"
	"github.com/jhoicas/pos-api/internal/application/dto"
)

// PaymentHandler saldo y cobros de la suscripción del usuario de la sesión.
type PaymentHandler struct {
	uc *billing.SubscriptionUseCase
}

// NewPaymentHandler construye el handler.
func NewPaymentHandler(uc *billing.SubscriptionUseCase) *PaymentHandler {
	return &PaymentHandler{uc: uc}
}

// TopUp godoc
// @Summary      Recargar saldo
// @Description  Si la cuenta estaba inactiva y el saldo cubre la cuota, se cobra y se reactiva.
// @Tags         payments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TopUpRequest  true  "amount > 0"
// @Success      200   {object}  dto.TopUpResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/payments/topup [post]
func (h *PaymentHandler) TopUp(c *fiber.Ctx) error {
	var in dto.TopUpRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.TopUp(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Historial de cobros
// @Tags         payments
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite"  default(20)
// @Param        offset  query  int  false  "Offset"  default(0)
// @Success      200  {array}  dto.PaymentResponse
// @Router       /api/payments [get]
func (h *PaymentHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := parseQuery(c, &page); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.ListPayments(c.UserContext(), GetUserID(c), page)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
