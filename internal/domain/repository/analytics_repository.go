package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// AnalyticsScope restringe las consultas a una tienda o, si ShopID está vacío, a un usuario.
type AnalyticsScope struct {
	ShopID string
	UserID string
}

// SalesSummary KPIs agregados del período.
type SalesSummary struct {
	GrossSales      decimal.Decimal // Σ total_price de ventas completadas
	Discounts       decimal.Decimal // Σ descuentos de líneas de ventas completadas
	Refunds         decimal.Decimal // Σ total_price de ventas devueltas
	CostOfGoods     decimal.Decimal // Σ cost_total de ventas completadas
	CompletedProfit decimal.Decimal
	RefundedProfit  decimal.Decimal
	Orders          int
}

// BucketRow agregado de ventas completadas por cubeta de tiempo (inicio de la cubeta en tz local).
type BucketRow struct {
	Bucket  time.Time
	Revenue decimal.Decimal
	Orders  int
}

// HourRow agregado por hora local del día (0..23).
type HourRow struct {
	Hour    int
	Revenue decimal.Decimal
	Orders  int
}

// PaymentRow monto por medio de pago.
type PaymentRow struct {
	Method string
	Amount decimal.Decimal
}

// TopProductRow ranking de productos por ingreso.
type TopProductRow struct {
	ProductID string
	Name      string
	Quantity  decimal.Decimal
	Revenue   decimal.Decimal
}

// AnalyticsRepository consultas de solo lectura para el reporte de ventas.
// from/to delimitan [from, to) en UTC; tz es el nombre IANA usado para agrupar.
type AnalyticsRepository interface {
	GetSummary(ctx context.Context, scope AnalyticsScope, from, to time.Time) (SalesSummary, error)
	GetTimeSeries(ctx context.Context, scope AnalyticsScope, from, to time.Time, groupBy, tz string) ([]BucketRow, error)
	GetByHour(ctx context.Context, scope AnalyticsScope, from, to time.Time, tz string) ([]HourRow, error)
	GetPaymentBreakdown(ctx context.Context, scope AnalyticsScope, from, to time.Time) ([]PaymentRow, error)
	GetTopProducts(ctx context.Context, scope AnalyticsScope, from, to time.Time, limit int) ([]TopProductRow, error)
}
