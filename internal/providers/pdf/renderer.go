// Package pdf renders branded quote documents with maroto.
package pdf

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	quotedomain "github.com/smallbiznis/cotiza/internal/quote/domain"
	"go.uber.org/zap"
)

type Renderer struct {
	log *zap.Logger
}

func New(log *zap.Logger) quotedomain.DocumentRenderer {
	return &Renderer{log: log.Named("providers.pdf")}
}

// RenderQuoteDocument builds one branded document: the template's identity
// in the header, the lines priced at the requested slot, and that slot's
// totals block. Lines without a price in the slot show their cost basis.
func (r *Renderer) RenderQuoteDocument(ctx context.Context, req quotedomain.RenderRequest) ([]byte, error) {
	accent := parseAccent(req.Template.AccentHex)

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Pagina {current} de {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	if len(req.Logo) > 0 {
		m.AddRow(24,
			image.NewFromBytesCol(3, req.Logo, logoExtension(req.Logo), props.Rect{
				Center:  false,
				Percent: 90,
			}),
			col.New(6).Add(
				text.New(req.Template.Name, props.Text{Size: 16, Style: fontstyle.Bold, Color: &accent}),
				text.New(req.Template.City, props.Text{Top: 8, Size: 9}),
			),
			col.New(3),
		)
	} else {
		m.AddRow(24,
			col.New(9).Add(
				text.New(req.Template.Name, props.Text{Size: 16, Style: fontstyle.Bold, Color: &accent}),
				text.New(req.Template.City, props.Text{Top: 8, Size: 9}),
			),
			col.New(3),
		)
	}

	m.AddRow(10,
		text.NewCol(8, "Cotizacion "+folio(req.Quote), props.Text{
			Size:  13,
			Style: fontstyle.Bold,
		}),
		text.NewCol(4, sentDate(req.Quote), props.Text{Size: 9, Align: align.Right, Top: 2}),
	)

	if req.Quote.CustomerName != "" || req.Quote.CustomerEmail != "" {
		m.AddRow(16,
			col.New(8).Add(
				text.New("Cliente", props.Text{Style: fontstyle.Bold, Size: 9}),
				text.New(req.Quote.CustomerName, props.Text{Top: 4, Size: 9}),
				text.New(req.Quote.CustomerEmail, props.Text{Top: 8, Size: 9}),
			),
			col.New(4),
		)
	}

	m.AddRow(8,
		text.NewCol(5, "Concepto", props.Text{Style: fontstyle.Bold, Size: 9, Color: &accent}),
		text.NewCol(2, "Cantidad", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Color: &accent}),
		text.NewCol(2, "Precio unitario", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Color: &accent}),
		text.NewCol(3, "Importe", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Color: &accent}),
	)
	m.AddRow(2, line.NewCol(12, props.Line{Color: &accent}))

	for _, item := range req.Items {
		name := item.Name
		if item.Unit != "" {
			name = fmt.Sprintf("%s (%s)", item.Name, item.Unit)
		}
		m.AddRow(8,
			text.NewCol(5, name, props.Text{Size: 9}),
			text.NewCol(2, strconv.Itoa(item.Quantity), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, money(linePrice(item, req.Slot)), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(3, money(lineSubtotal(item, req.Slot)), props.Text{Size: 9, Align: align.Right}),
		)
	}

	subtotal, tax, total := slotTotals(req.Quote, req.Slot)
	m.AddRow(2, col.New(12))
	m.AddRow(7,
		col.New(7),
		text.NewCol(2, "Subtotal", props.Text{Size: 9}),
		text.NewCol(3, money(subtotal), props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(7,
		col.New(7),
		text.NewCol(2, "IVA "+req.Quote.TaxPct.StringFixed(2)+"%", props.Text{Size: 9}),
		text.NewCol(3, money(tax), props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(8,
		col.New(7),
		text.NewCol(2, "Total", props.Text{Style: fontstyle.Bold, Size: 10, Color: &accent}),
		text.NewCol(3, money(total), props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: &accent}),
	)

	if req.Template.Conditions != "" {
		m.AddRow(6, col.New(12))
		m.AddRow(14,
			col.New(12).Add(
				text.New("Condiciones", props.Text{Style: fontstyle.Bold, Size: 8}),
				text.New(req.Template.Conditions, props.Text{Top: 4, Size: 8}),
			),
		)
	}
	if req.Template.Footer != "" {
		m.AddRow(10,
			text.NewCol(12, req.Template.Footer, props.Text{Size: 8, Align: align.Center, Top: 4}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate quote document: %w", err)
	}
	return doc.GetBytes(), nil
}

func folio(q quotedomain.Quote) string {
	if q.Folio != nil {
		return *q.Folio
	}
	return q.ID.String()
}

func sentDate(q quotedomain.Quote) string {
	if q.SentAt == nil {
		return ""
	}
	return q.SentAt.Format("02/01/2006")
}

func linePrice(item quotedomain.QuoteItem, slot int) decimal.Decimal {
	if p := item.Prices.At(slot); p != nil {
		return *p
	}
	return item.UnitCost
}

func lineSubtotal(item quotedomain.QuoteItem, slot int) decimal.Decimal {
	if s := item.Subtotals.At(slot); s != nil {
		return *s
	}
	return decimal.Zero
}

func slotTotals(q quotedomain.Quote, slot int) (subtotal, tax, total decimal.Decimal) {
	for _, t := range q.Totals {
		if t.Slot == slot {
			return t.Subtotal, t.Tax, t.Total
		}
	}
	return decimal.Zero, decimal.Zero, decimal.Zero
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// parseAccent turns a #RRGGBB string into a maroto color, falling back to
// a dark slate when the value is malformed.
func parseAccent(hex string) props.Color {
	fallback := props.Color{Red: 15, Green: 23, Blue: 42}
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) != 6 {
		return fallback
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return fallback
	}
	return props.Color{
		Red:   int(v >> 16 & 0xFF),
		Green: int(v >> 8 & 0xFF),
		Blue:  int(v & 0xFF),
	}
}

func logoExtension(data []byte) extension.Type {
	if len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return extension.Jpg
	}
	return extension.Png
}
