package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-api/internal/application/analytics"
	"github.com/jhoicas/pos-api/internal/application/dto"
)

// AnalyticsHandler reporte de ventas de la tienda (o del usuario sin tienda).
type AnalyticsHandler struct {
	uc *analytics.ReportUseCase
}

// NewAnalyticsHandler construye el handler.
func NewAnalyticsHandler(uc *analytics.ReportUseCase) *AnalyticsHandler {
	return &AnalyticsHandler{uc: uc}
}

// Report godoc
// @Summary      Reporte de ventas
// @Description  Serie temporal con ceros rellenos, ventas por hora, medios de pago, ranking de
// @Description  productos y KPIs. Fechas en la zona horaria del reporte.
// @Tags         analytics
// @Security     Bearer
// @Produce      json
// @Param        start     query  string  false  "Inicio (YYYY-MM-DD). Default: hace 6 días."
// @Param        end       query  string  false  "Fin inclusive (YYYY-MM-DD). Default: hoy."
// @Param        group_by  query  string  false  "day | week | month"  default(day)
// @Param        shop_id   query  string  false  "Debe coincidir con la tienda de la sesión"
// @Success      200  {object}  dto.AnalyticsResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/analytics [get]
func (h *AnalyticsHandler) Report(c *fiber.Ctx) error {
	var in dto.AnalyticsRequest
	if err := parseQuery(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Report(c.UserContext(), GetShopID(c), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
