// Package analytics contiene el caso de uso del reporte de ventas de una tienda.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-api/internal/application/dto"
	"github.com/jhoicas/pos-api/internal/domain"
	domainanalytics "github.com/jhoicas/pos-api/internal/domain/analytics"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
)

const (
	dateLayout       = "2006-01-02"
	defaultTopN      = 20
	defaultRangeDays = 7
	maxDailyDays     = 366
	maxCoarseYears   = 5
)

var paymentLabels = map[string]string{
	entity.PaymentTypeCard:  "Card",
	entity.PaymentTypeCash:  "Cash",
	entity.PaymentTypeDebt:  "Debt",
	entity.PaymentTypeMixed: "Mixed",
}

// ReportUseCase genera el reporte de ventas: KPIs, serie temporal rellena con ceros,
// histograma por hora, medios de pago y ranking de productos.
//
// Fuente de datos: AnalyticsRepository (consultas read-only).
type ReportUseCase struct {
	analyticsRepo repository.AnalyticsRepository
	loc           *time.Location
	topN          int
	now           func() time.Time
}

// NewReportUseCase construye el caso de uso. loc define los días y horas del reporte.
func NewReportUseCase(analyticsRepo repository.AnalyticsRepository, loc *time.Location, topN int) *ReportUseCase {
	if loc == nil {
		loc = time.UTC
	}
	if topN <= 0 {
		topN = defaultTopN
	}
	return &ReportUseCase{analyticsRepo: analyticsRepo, loc: loc, topN: topN, now: time.Now}
}

// Report construye el AnalyticsResponse para la tienda de la sesión (o el usuario si no tiene tienda).
//
// Cinco consultas en paralelo:
//  1. GetSummary          → KPIs
//  2. GetTimeSeries       → Timeseries
//  3. GetByHour           → ByHour
//  4. GetPaymentBreakdown → Payments
//  5. GetTopProducts      → TopProducts
func (uc *ReportUseCase) Report(ctx context.Context, shopID, userID string, in dto.AnalyticsRequest) (*dto.AnalyticsResponse, error) {
	if in.ShopID != "" && in.ShopID != shopID {
		return nil, domain.ErrScopeMismatch
	}
	scope := repository.AnalyticsScope{ShopID: shopID}
	if shopID == "" {
		scope.UserID = userID
	}

	groupBy := domainanalytics.NormalizeGroupBy(in.GroupBy)
	startDay, endDay, err := uc.parseRange(in.Start, in.End, groupBy)
	if err != nil {
		return nil, err
	}
	from, to := domainanalytics.DayRange(startDay, endDay, uc.loc)
	tz := uc.loc.String()

	// ── Goroutines para paralelizar las consultas ──────────────────────────────
	type summaryResult struct {
		v   repository.SalesSummary
		err error
	}
	type seriesResult struct {
		v   []repository.BucketRow
		err error
	}
	type hourResult struct {
		v   []repository.HourRow
		err error
	}
	type paymentResult struct {
		v   []repository.PaymentRow
		err error
	}
	type topResult struct {
		v   []repository.TopProductRow
		err error
	}

	summaryCh := make(chan summaryResult, 1)
	seriesCh := make(chan seriesResult, 1)
	hourCh := make(chan hourResult, 1)
	paymentCh := make(chan paymentResult, 1)
	topCh := make(chan topResult, 1)

	go func() {
		v, err := uc.analyticsRepo.GetSummary(ctx, scope, from, to)
		summaryCh <- summaryResult{v, err}
	}()
	go func() {
		v, err := uc.analyticsRepo.GetTimeSeries(ctx, scope, from, to, groupBy, tz)
		seriesCh <- seriesResult{v, err}
	}()
	go func() {
		v, err := uc.analyticsRepo.GetByHour(ctx, scope, from, to, tz)
		hourCh <- hourResult{v, err}
	}()
	go func() {
		v, err := uc.analyticsRepo.GetPaymentBreakdown(ctx, scope, from, to)
		paymentCh <- paymentResult{v, err}
	}()
	go func() {
		v, err := uc.analyticsRepo.GetTopProducts(ctx, scope, from, to, uc.topN)
		topCh <- topResult{v, err}
	}()

	summary := <-summaryCh
	series := <-seriesCh
	hours := <-hourCh
	payments := <-paymentCh
	top := <-topCh

	if summary.err != nil {
		return nil, fmt.Errorf("analytics: resumen: %w", summary.err)
	}
	if series.err != nil {
		return nil, fmt.Errorf("analytics: serie temporal: %w", series.err)
	}
	if hours.err != nil {
		return nil, fmt.Errorf("analytics: por hora: %w", hours.err)
	}
	if payments.err != nil {
		return nil, fmt.Errorf("analytics: medios de pago: %w", payments.err)
	}
	if top.err != nil {
		return nil, fmt.Errorf("analytics: top productos: %w", top.err)
	}

	s := summary.v
	return &dto.AnalyticsResponse{
		Timeseries:  uc.fillSeries(series.v, groupBy, startDay, endDay),
		ByHour:      fillHours(hours.v),
		Payments:    labelPayments(payments.v),
		TopProducts: toProductPerf(top.v),
		Discounts:   s.Discounts,
		Refunds:     s.Refunds,
		GrossSales:  s.GrossSales,
		NetSales:    s.GrossSales.Sub(s.Discounts).Sub(s.Refunds),
		Orders:      s.Orders,
		Profit:      s.CompletedProfit.Sub(s.RefundedProfit),
		CostOfGoods: s.CostOfGoods,
	}, nil
}

// parseRange interpreta start/end (YYYY-MM-DD, inclusive) en la zona del reporte.
// Sin fechas: los últimos 7 días terminando hoy. El rango admite como mucho 366 días
// agrupando por día y 5 años agrupando por semana o mes.
func (uc *ReportUseCase) parseRange(start, end, groupBy string) (time.Time, time.Time, error) {
	ve := &domain.ValidationError{}
	endDay := domainanalytics.StartOfDay(uc.now(), uc.loc)
	if end != "" {
		t, err := time.ParseInLocation(dateLayout, end, uc.loc)
		if err != nil {
			ve.Add("end", "formato esperado YYYY-MM-DD")
		}
		endDay = t
	}
	startDay := endDay.AddDate(0, 0, -(defaultRangeDays - 1))
	if start != "" {
		t, err := time.ParseInLocation(dateLayout, start, uc.loc)
		if err != nil {
			ve.Add("start", "formato esperado YYYY-MM-DD")
		}
		startDay = t
	}
	if ve.HasErrors() {
		return time.Time{}, time.Time{}, ve
	}
	if startDay.After(endDay) {
		return time.Time{}, time.Time{}, domain.NewValidationError("start", "no puede ser posterior a end")
	}
	if groupBy == domainanalytics.GroupByDay {
		if startDay.Before(endDay.AddDate(0, 0, -(maxDailyDays - 1))) {
			return time.Time{}, time.Time{}, domain.NewValidationError("start", fmt.Sprintf("con group_by=day el rango no puede superar %d días", maxDailyDays))
		}
	} else if startDay.Before(endDay.AddDate(-maxCoarseYears, 0, 0)) {
		return time.Time{}, time.Time{}, domain.NewValidationError("start", fmt.Sprintf("el rango no puede superar %d años", maxCoarseYears))
	}
	return startDay, endDay, nil
}

// fillSeries devuelve una entrada por cubeta del rango, con ceros donde no hubo ventas.
func (uc *ReportUseCase) fillSeries(rows []repository.BucketRow, groupBy string, startDay, endDay time.Time) []dto.TimePointDTO {
	byKey := make(map[string]repository.BucketRow, len(rows))
	for _, r := range rows {
		byKey[domainanalytics.Key(r.Bucket)] = r
	}
	buckets := domainanalytics.Buckets(groupBy, startDay, endDay, uc.loc)
	out := make([]dto.TimePointDTO, 0, len(buckets))
	for _, b := range buckets {
		p := dto.TimePointDTO{TS: b.Format(time.RFC3339), Revenue: decimal.Zero}
		if r, ok := byKey[domainanalytics.Key(b)]; ok {
			p.Revenue = r.Revenue
			p.Orders = r.Orders
		}
		out = append(out, p)
	}
	return out
}

// fillHours devuelve siempre 24 entradas (0..23).
func fillHours(rows []repository.HourRow) []dto.HourPointDTO {
	out := make([]dto.HourPointDTO, 24)
	for h := range out {
		out[h] = dto.HourPointDTO{Hour: h, Revenue: decimal.Zero}
	}
	for _, r := range rows {
		if r.Hour < 0 || r.Hour > 23 {
			continue
		}
		out[r.Hour].Revenue = out[r.Hour].Revenue.Add(r.Revenue)
		out[r.Hour].Orders += r.Orders
	}
	return out
}

// labelPayments traduce el medio de pago a su etiqueta y ordena por monto descendente.
func labelPayments(rows []repository.PaymentRow) []dto.PaymentBreakdownDTO {
	out := make([]dto.PaymentBreakdownDTO, 0, len(rows))
	for _, r := range rows {
		label, ok := paymentLabels[r.Method]
		if !ok {
			label = r.Method
		}
		out = append(out, dto.PaymentBreakdownDTO{Method: label, Amount: r.Amount})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Method < out[j].Method
	})
	return out
}

func toProductPerf(rows []repository.TopProductRow) []dto.ProductPerfDTO {
	out := make([]dto.ProductPerfDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.ProductPerfDTO{ID: r.ProductID, Name: r.Name, Qty: r.Quantity, Revenue: r.Revenue})
	}
	return out
}
