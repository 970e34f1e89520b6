package dto

import "github.com/shopspring/decimal"

// AnalyticsRequest parámetros de GET /api/analytics.
type AnalyticsRequest struct {
	Start   string `query:"start"`    // YYYY-MM-DD en la zona del reporte; por defecto hace 6 días
	End     string `query:"end"`      // YYYY-MM-DD inclusive; por defecto hoy
	GroupBy string `query:"group_by"` // day | week | month; otro valor cae en day
	ShopID  string `query:"shop_id"`  // opcional; debe coincidir con la tienda de la sesión
}

// TimePointDTO una cubeta de la serie temporal. TS en RFC3339 con la zona del reporte.
type TimePointDTO struct {
	TS      string          `json:"ts"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int             `json:"orders"`
}

// HourPointDTO ventas por hora local (0..23).
type HourPointDTO struct {
	Hour    int             `json:"hour"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int             `json:"orders"`
}

// PaymentBreakdownDTO monto por medio de pago (Card, Cash, Debt, Mixed).
type PaymentBreakdownDTO struct {
	Method string          `json:"method"`
	Amount decimal.Decimal `json:"amount"`
}

// ProductPerfDTO producto del ranking por ingreso.
type ProductPerfDTO struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Qty     decimal.Decimal `json:"qty"`
	Revenue decimal.Decimal `json:"revenue"`
}

// AnalyticsResponse reporte completo. Las claves camelCase son las que consume la app móvil.
type AnalyticsResponse struct {
	Timeseries  []TimePointDTO        `json:"timeseries"`
	ByHour      []HourPointDTO        `json:"byHour"`
	Payments    []PaymentBreakdownDTO `json:"payments"`
	TopProducts []ProductPerfDTO      `json:"topProducts"`
	Discounts   decimal.Decimal       `json:"discounts"`
	Refunds     decimal.Decimal       `json:"refunds"`
	GrossSales  decimal.Decimal       `json:"grossSales"`
	NetSales    decimal.Decimal       `json:"netSales"`
	Orders      int                   `json:"orders"`
	Profit      decimal.Decimal       `json:"profit"`
	CostOfGoods decimal.Decimal       `json:"costOfGoods"`
}
