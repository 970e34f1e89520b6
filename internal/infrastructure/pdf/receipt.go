// Package pdf genera el recibo imprimible de una venta.
//
// Layout (ancho A4, una columna):
//
//	┌──────────────────────────────────────────┐
//	│  Tienda + dirección   │  N° venta + fecha  │
//	│  ──────────────────────────────────────  │
//	│  Producto | Cant. | Precio | Desc. | Total │
//	│  ──────────────────────────────────────  │
//	│  Subtotal / Descuento / TOTAL / Pago       │
//	└──────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jhoicas/pos-api/internal/application/sales"
	"github.com/jhoicas/pos-api/internal/domain/entity"
)

var _ sales.ReceiptRenderer = (*ReceiptRenderer)(nil)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorRed     = &props.Color{Red: 170, Green: 30, Blue: 30}
)

var paymentLabels = map[string]string{
	entity.PaymentTypeCash:  "Efectivo",
	entity.PaymentTypeCard:  "Tarjeta",
	entity.PaymentTypeDebt:  "Crédito",
	entity.PaymentTypeMixed: "Mixto",
}

// ReceiptRenderer implementa sales.ReceiptRenderer con Maroto v2.
type ReceiptRenderer struct {
	printer  *message.Printer
	currency string
}

// NewReceiptRenderer construye el generador. currency se imprime tras cada monto (ej. "so'm").
func NewReceiptRenderer(lang language.Tag, currency string) *ReceiptRenderer {
	return &ReceiptRenderer{printer: message.NewPrinter(lang), currency: currency}
}

// RenderReceipt genera el PDF y devuelve sus bytes.
func (r *ReceiptRenderer) RenderReceipt(_ context.Context, shop *entity.Shop, tx *entity.Transaction) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(12).WithRightMargin(12).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Recibo "+shortID(tx.ID), true).
		WithAuthor(shop.Name, true).
		Build()

	m := maroto.New(cfg)
	m.AddRows(r.headerRow(shop, tx))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(itemsHeaderRow())
	m.AddRows(r.itemRows(tx.Items)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(r.totalsRow(tx))
	if tx.Status != entity.TransactionStatusCompleted {
		m.AddRows(row.New(10).Add(col.New(12).Add(
			text.New(strings.ToUpper(tx.Status), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Center, Color: colorRed, Top: 2,
			}),
		)))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar recibo: %w", err)
	}
	return doc.GetBytes(), nil
}

func (r *ReceiptRenderer) headerRow(shop *entity.Shop, tx *entity.Transaction) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(shop.Name, props.Text{Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1}),
			text.New(nonEmpty(shop.Location, "-"), props.Text{Size: 9, Top: 9, Color: colorGray}),
		),
		col.New(5).Add(
			text.New("RECIBO DE VENTA", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New("N° "+shortID(tx.ID), props.Text{Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7}),
			text.New(tx.CreatedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

func itemsHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2,
		}))
	}
	return row.New(8).Add(
		h("Producto", 5, align.Left),
		h("Cant.", 1, align.Center),
		h("Precio", 2, align.Right),
		h("Desc.", 2, align.Right),
		h("Total", 2, align.Right),
	)
}

func (r *ReceiptRenderer) itemRows(items []entity.TransactionItem) []core.Row {
	rows := make([]core.Row, 0, len(items))
	for _, it := range items {
		name := nonEmpty(it.ProductName, shortID(it.ProductID))
		rows = append(rows, row.New(7).Add(
			col.New(5).Add(text.New(name, props.Text{Size: 8, Top: 1})),
			col.New(1).Add(text.New(it.Quantity.String(), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New(r.money(it.PriceAtSale), props.Text{Size: 8, Align: align.Right, Top: 1})),
			col.New(2).Add(text.New(r.money(it.Discount), props.Text{Size: 8, Align: align.Right, Top: 1})),
			col.New(2).Add(text.New(r.money(it.LineTotal()), props.Text{Size: 8, Align: align.Right, Top: 1})),
		))
	}
	return rows
}

func (r *ReceiptRenderer) totalsRow(tx *entity.Transaction) core.Row {
	label := func(s string, bold bool) core.Component {
		p := props.Text{Size: 9, Align: align.Right, Right: 2}
		if bold {
			p.Style, p.Size, p.Color = fontstyle.Bold, 10, colorPrimary
		}
		return text.New(s, p)
	}
	value := func(s string, bold bool) core.Component {
		p := props.Text{Size: 9, Align: align.Right}
		if bold {
			p.Style, p.Size, p.Color = fontstyle.Bold, 10, colorPrimary
		}
		return text.New(s, p)
	}
	payment := paymentLabels[tx.PaymentType]
	if payment == "" {
		payment = tx.PaymentType
	}
	return row.New(26).Add(
		col.New(6),
		col.New(3).Add(
			label("Subtotal:", false),
			label("Descuento:", false),
			label("TOTAL:", true),
			label("Pago:", false),
		),
		col.New(3).Add(
			value(r.money(tx.TotalPrice), false),
			value(r.money(tx.Discount), false),
			value(r.money(tx.TotalPrice.Sub(tx.Discount)), true),
			value(payment, false),
		),
	)
}

// money formatea con separador de miles según el idioma y dos decimales solo si hacen falta.
func (r *ReceiptRenderer) money(d decimal.Decimal) string {
	d = d.Round(2)
	whole := d.Truncate(0)
	s := r.printer.Sprintf("%d", whole.IntPart())
	if cents := d.Sub(whole).Abs().Shift(2).IntPart(); cents != 0 {
		s += fmt.Sprintf(",%02d", cents)
	}
	if d.IsNegative() && whole.IsZero() {
		s = "-" + s
	}
	if r.currency != "" {
		s += " " + r.currency
	}
	return s
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// shortID primeros 8 caracteres del UUID.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
