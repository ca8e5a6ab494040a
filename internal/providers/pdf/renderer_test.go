package pdf

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/cotiza/internal/catalog/domain"
	quotedomain "github.com/smallbiznis/cotiza/internal/quote/domain"
	"github.com/smallbiznis/cotiza/internal/quote/pricing"
	templatedomain "github.com/smallbiznis/cotiza/internal/template/domain"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestRenderQuoteDocument(t *testing.T) {
	node, err := snowflake.NewNode(4)
	require.NoError(t, err)

	folio := "COT-01HTEST"
	sentAt := time.Date(2026, 4, 15, 10, 0, 0, 0, time.UTC)
	quote := quotedomain.Quote{
		ID:           node.Generate(),
		Folio:        &folio,
		Kind:         catalogdomain.KindProduct,
		Status:       quotedomain.StatusSent,
		CustomerName: "Constructora Rivera",
		TaxPct:       dec("16"),
		SlotCount:    2,
		Totals: pricing.SlotTotals{
			{Slot: 1, Subtotal: dec("295"), Tax: dec("47.20"), Total: dec("342.20"), Margin: dec("45")},
			{Slot: 2, Subtotal: decimal.Zero, Tax: decimal.Zero, Total: decimal.Zero, Margin: decimal.Zero},
		},
		SentAt: &sentAt,
	}
	items := []quotedomain.QuoteItem{
		{
			ID: node.Generate(), Name: "Bomba centrifuga", Unit: "pieza",
			UnitCost: dec("100"), Quantity: 2,
			Margins:   pricing.DecimalSlots{decPtr("20"), nil},
			Prices:    pricing.DecimalSlots{decPtr("120"), nil},
			Subtotals: pricing.DecimalSlots{decPtr("240"), decPtr("200")},
		},
		{
			ID: node.Generate(), Name: "Valvula de bola",
			UnitCost: dec("50"), Quantity: 1,
			Margins:   pricing.DecimalSlots{decPtr("10"), nil},
			Prices:    pricing.DecimalSlots{decPtr("55"), nil},
			Subtotals: pricing.DecimalSlots{decPtr("55"), decPtr("50")},
		},
	}
	tmpl := templatedomain.Template{
		ID: node.Generate(), Slot: 1, Name: "Suministros del Norte",
		Slug: "suministros-del-norte", City: "Monterrey",
		Footer: "Precios en MXN", AccentHex: "#1D4ED8",
		Conditions: "Vigencia 15 dias naturales.", Active: true,
	}

	r := New(zap.NewNop())
	data, err := r.RenderQuoteDocument(context.Background(), quotedomain.RenderRequest{
		Quote: quote, Items: items, Slot: 1, Template: tmpl,
	})
	require.NoError(t, err)
	require.NotEmpty(t, data)
	require.Equal(t, "%PDF", string(data[:4]))

	// Slot 2 renders too; unpriced lines fall back to cost on the page.
	data, err = r.RenderQuoteDocument(context.Background(), quotedomain.RenderRequest{
		Quote: quote, Items: items, Slot: 2, Template: tmpl,
	})
	require.NoError(t, err)
	require.Equal(t, "%PDF", string(data[:4]))
}

func TestParseAccent(t *testing.T) {
	require.Equal(t, props.Color{Red: 29, Green: 78, Blue: 216}, parseAccent("#1D4ED8"))
	require.Equal(t, props.Color{Red: 29, Green: 78, Blue: 216}, parseAccent("1d4ed8"))

	fallback := props.Color{Red: 15, Green: 23, Blue: 42}
	require.Equal(t, fallback, parseAccent(""))
	require.Equal(t, fallback, parseAccent("#12"))
	require.Equal(t, fallback, parseAccent("#ZZZZZZ"))
}
