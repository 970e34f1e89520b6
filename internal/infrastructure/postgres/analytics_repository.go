package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/pos-api/internal/domain/repository"
)

var _ repository.AnalyticsRepository = (*AnalyticsRepo)(nil)

// AnalyticsRepo consultas de solo lectura para el reporte de ventas.
// Los ingresos de serie, hora, medio de pago y ranking son netos de descuentos de línea
// y solo cuentan ventas completadas.
type AnalyticsRepo struct {
	q Querier
}

// NewAnalyticsRepository construye el adaptador de analítica.
func NewAnalyticsRepository(q Querier) *AnalyticsRepo {
	return &AnalyticsRepo{q: q}
}

// scopeFilter devuelve la condición de ámbito sobre el alias t y su argumento ($1).
func scopeFilter(scope repository.AnalyticsScope) (string, any) {
	if scope.ShopID != "" {
		return "t.shop_id = $1", scope.ShopID
	}
	return "t.user_id = $1", scope.UserID
}

// GetSummary KPIs del período. Ventas devueltas restan vía Refunds y RefundedProfit.
func (r *AnalyticsRepo) GetSummary(ctx context.Context, scope repository.AnalyticsScope, from, to time.Time) (repository.SalesSummary, error) {
	cond, arg := scopeFilter(scope)
	query := `
	SELECT
	    COALESCE(SUM(t.total_price) FILTER (WHERE t.status = 'completed'), 0) AS gross_sales,
	    COALESCE(SUM(t.discount)    FILTER (WHERE t.status = 'completed'), 0) AS discounts,
	    COALESCE(SUM(t.total_price) FILTER (WHERE t.status = 'refunded'),  0) AS refunds,
	    COALESCE(SUM(t.cost_total)  FILTER (WHERE t.status = 'completed'), 0) AS cost_of_goods,
	    COALESCE(SUM(t.profit)      FILTER (WHERE t.status = 'completed'), 0) AS completed_profit,
	    COALESCE(SUM(t.profit)      FILTER (WHERE t.status = 'refunded'),  0) AS refunded_profit,
	    COUNT(*)                    FILTER (WHERE t.status = 'completed')     AS orders
	FROM transactions t
	WHERE ` + cond + `
	  AND t.created_at >= $2 AND t.created_at < $3`

	var s repository.SalesSummary
	err := r.q.QueryRow(ctx, query, arg, from, to).Scan(
		&s.GrossSales, &s.Discounts, &s.Refunds, &s.CostOfGoods,
		&s.CompletedProfit, &s.RefundedProfit, &s.Orders,
	)
	if err != nil {
		return repository.SalesSummary{}, fmt.Errorf("analytics.GetSummary: %w", err)
	}
	return s, nil
}

// GetTimeSeries agrupa por día, semana (lunes) o mes en la zona tz.
// Bucket es la hora local sin zona; el caso de uso la cruza por fecha.
func (r *AnalyticsRepo) GetTimeSeries(ctx context.Context, scope repository.AnalyticsScope, from, to time.Time, groupBy, tz string) ([]repository.BucketRow, error) {
	cond, arg := scopeFilter(scope)
	query := `
	SELECT
	    date_trunc($4, t.created_at AT TIME ZONE $5) AS bucket,
	    SUM(t.total_price - t.discount)               AS revenue,
	    COUNT(*)                                      AS orders
	FROM transactions t
	WHERE ` + cond + `
	  AND t.status = 'completed'
	  AND t.created_at >= $2 AND t.created_at < $3
	GROUP BY bucket
	ORDER BY bucket`

	rows, err := r.q.Query(ctx, query, arg, from, to, groupBy, tz)
	if err != nil {
		return nil, fmt.Errorf("analytics.GetTimeSeries: %w", err)
	}
	defer rows.Close()

	var out []repository.BucketRow
	for rows.Next() {
		var row repository.BucketRow
		if err := rows.Scan(&row.Bucket, &row.Revenue, &row.Orders); err != nil {
			return nil, fmt.Errorf("analytics.GetTimeSeries scan: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// GetByHour agrupa por hora local del día.
func (r *AnalyticsRepo) GetByHour(ctx context.Context, scope repository.AnalyticsScope, from, to time.Time, tz string) ([]repository.HourRow, error) {
	cond, arg := scopeFilter(scope)
	query := `
	SELECT
	    EXTRACT(HOUR FROM t.created_at AT TIME ZONE $4)::int AS hour,
	    SUM(t.total_price - t.discount)                      AS revenue,
	    COUNT(*)                                             AS orders
	FROM transactions t
	WHERE ` + cond + `
	  AND t.status = 'completed'
	  AND t.created_at >= $2 AND t.created_at < $3
	GROUP BY hour
	ORDER BY hour`

	rows, err := r.q.Query(ctx, query, arg, from, to, tz)
	if err != nil {
		return nil, fmt.Errorf("analytics.GetByHour: %w", err)
	}
	defer rows.Close()

	var out []repository.HourRow
	for rows.Next() {
		var row repository.HourRow
		if err := rows.Scan(&row.Hour, &row.Revenue, &row.Orders); err != nil {
			return nil, fmt.Errorf("analytics.GetByHour scan: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// GetPaymentBreakdown monto cobrado por medio de pago.
func (r *AnalyticsRepo) GetPaymentBreakdown(ctx context.Context, scope repository.AnalyticsScope, from, to time.Time) ([]repository.PaymentRow, error) {
	cond, arg := scopeFilter(scope)
	query := `
	SELECT t.payment_type, SUM(t.total_price - t.discount) AS amount
	FROM transactions t
	WHERE ` + cond + `
	  AND t.status = 'completed'
	  AND t.created_at >= $2 AND t.created_at < $3
	GROUP BY t.payment_type`

	rows, err := r.q.Query(ctx, query, arg, from, to)
	if err != nil {
		return nil, fmt.Errorf("analytics.GetPaymentBreakdown: %w", err)
	}
	defer rows.Close()

	var out []repository.PaymentRow
	for rows.Next() {
		var row repository.PaymentRow
		if err := rows.Scan(&row.Method, &row.Amount); err != nil {
			return nil, fmt.Errorf("analytics.GetPaymentBreakdown scan: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// GetTopProducts ranking de productos por ingreso neto de línea.
func (r *AnalyticsRepo) GetTopProducts(ctx context.Context, scope repository.AnalyticsScope, from, to time.Time, limit int) ([]repository.TopProductRow, error) {
	cond, arg := scopeFilter(scope)
	query := `
	SELECT
	    i.product_id,
	    COALESCE(p.name, '')                                 AS name,
	    SUM(i.quantity)                                      AS qty,
	    SUM(i.quantity * i.price_at_sale - i.discount)       AS revenue
	FROM transactions t
	JOIN transaction_items i ON i.transaction_id = t.id
	LEFT JOIN products     p ON p.id            = i.product_id
	WHERE ` + cond + `
	  AND t.status = 'completed'
	  AND t.created_at >= $2 AND t.created_at < $3
	GROUP BY i.product_id, p.name
	ORDER BY revenue DESC, name
	LIMIT $4`

	rows, err := r.q.Query(ctx, query, arg, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("analytics.GetTopProducts: %w", err)
	}
	defer rows.Close()

	var out []repository.TopProductRow
	for rows.Next() {
		var row repository.TopProductRow
		if err := rows.Scan(&row.ProductID, &row.Name, &row.Quantity, &row.Revenue); err != nil {
			return nil, fmt.Errorf("analytics.GetTopProducts scan: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
