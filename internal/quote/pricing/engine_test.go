package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestRound2HalfAwayFromZero(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1.005", "1.01"},
		{"1.004", "1.00"},
		{"-1.005", "-1.01"},
		{"2.675", "2.68"},
		{"10", "10"},
	}
	for _, tc := range cases {
		require.True(t, Round2(dec(tc.in)).Equal(dec(tc.want)), "Round2(%s)", tc.in)
	}
}

func TestComputeItemTwoSlots(t *testing.T) {
	margins := DecimalSlots{decPtr("20"), nil}

	figures, err := ComputeItem(dec("100"), 2, margins)
	require.NoError(t, err)

	require.True(t, figures.Prices.At(1).Equal(dec("120")))
	require.Nil(t, figures.Prices.At(2))
	require.True(t, figures.Subtotals.At(1).Equal(dec("240")))
	require.True(t, figures.Subtotals.At(2).Equal(dec("200")), "null margin books cost basis")
}

func TestComputeItemRoundsBeforeMultiplying(t *testing.T) {
	// 33.33 * 1.15 = 38.3295 -> price 38.33 -> subtotal 114.99, not 114.9885.
	margins := DecimalSlots{decPtr("15")}

	figures, err := ComputeItem(dec("33.33"), 3, margins)
	require.NoError(t, err)
	require.True(t, figures.Prices.At(1).Equal(dec("38.33")))
	require.True(t, figures.Subtotals.At(1).Equal(dec("114.99")))
}

func TestComputeItemValidation(t *testing.T) {
	_, err := ComputeItem(dec("10"), 0, DecimalSlots{decPtr("10")})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = ComputeItem(dec("-1"), 1, DecimalSlots{decPtr("10")})
	require.ErrorIs(t, err, ErrInvalidCost)

	_, err = ComputeItem(dec("10.123"), 1, DecimalSlots{decPtr("10")})
	require.ErrorIs(t, err, ErrInvalidCost)

	_, err = ComputeItem(dec("10"), 1, DecimalSlots{decPtr("-5")})
	require.ErrorIs(t, err, ErrInvalidMargin)
}

func TestValidCostIgnoresTrailingZeros(t *testing.T) {
	require.True(t, ValidCost(dec("10.100")))
	require.True(t, ValidCost(dec("10.10")))
	require.True(t, ValidCost(dec("7.000")))
	require.True(t, ValidCost(dec("0")))
	require.False(t, ValidCost(dec("10.101")))
	require.False(t, ValidCost(dec("-0.01")))

	figures, err := ComputeItem(dec("10.100"), 2, DecimalSlots{decPtr("10")})
	require.NoError(t, err)
	require.True(t, figures.Prices.At(1).Equal(dec("11.11")))
}

func TestComputeItemZeroMarginIsExplicit(t *testing.T) {
	figures, err := ComputeItem(dec("50"), 2, DecimalSlots{decPtr("0")})
	require.NoError(t, err)
	require.NotNil(t, figures.Prices.At(1))
	require.True(t, figures.Prices.At(1).Equal(dec("50")))
	require.True(t, figures.Subtotals.At(1).Equal(dec("100")))
}

func TestComputeItemIdempotent(t *testing.T) {
	margins := DecimalSlots{decPtr("17.5"), nil, decPtr("0")}

	first, err := ComputeItem(dec("99.99"), 7, margins)
	require.NoError(t, err)
	second, err := ComputeItem(dec("99.99"), 7, margins)
	require.NoError(t, err)

	for k := 1; k <= 3; k++ {
		if first.Prices.At(k) == nil {
			require.Nil(t, second.Prices.At(k))
		} else {
			require.True(t, first.Prices.At(k).Equal(*second.Prices.At(k)))
		}
		require.True(t, first.Subtotals.At(k).Equal(*second.Subtotals.At(k)))
	}
}

func TestComputeTotalsWorkedScenario(t *testing.T) {
	// Item A: cost 100, qty 2, slot1 margin 20, slot2 null.
	itemA, err := ComputeItem(dec("100"), 2, DecimalSlots{decPtr("20"), nil})
	require.NoError(t, err)
	// Item B: cost 50, qty 1, slot1 margin 10, slot2 null.
	itemB, err := ComputeItem(dec("50"), 1, DecimalSlots{decPtr("10"), nil})
	require.NoError(t, err)

	totals := ComputeTotals([]ItemFacts{
		{Cost: dec("100"), Qty: 2, Prices: itemA.Prices, Subtotals: itemA.Subtotals},
		{Cost: dec("50"), Qty: 1, Prices: itemB.Prices, Subtotals: itemB.Subtotals},
	}, dec("16"), 2)

	require.Len(t, totals, 2)

	require.True(t, totals[0].Subtotal.Equal(dec("295")))
	require.True(t, totals[0].Tax.Equal(dec("47.20")))
	require.True(t, totals[0].Total.Equal(dec("342.20")))
	// Profit: (120-100)*2 + (55-50)*1 = 45.
	require.True(t, totals[0].Margin.Equal(dec("45")))

	// Slot 2 has no priced lines; cost-basis fallbacks stay on the items.
	require.True(t, totals[1].Subtotal.IsZero())
	require.True(t, totals[1].Tax.IsZero())
	require.True(t, totals[1].Total.IsZero())
	require.True(t, totals[1].Margin.IsZero())
}

func TestComputeTotalsMixedSlotCoverage(t *testing.T) {
	// Only item A prices slot 2; item B's cost basis must not bleed in.
	itemA, err := ComputeItem(dec("200"), 1, DecimalSlots{decPtr("10"), decPtr("25")})
	require.NoError(t, err)
	itemB, err := ComputeItem(dec("80"), 3, DecimalSlots{decPtr("5"), nil})
	require.NoError(t, err)

	totals := ComputeTotals([]ItemFacts{
		{Cost: dec("200"), Qty: 1, Prices: itemA.Prices, Subtotals: itemA.Subtotals},
		{Cost: dec("80"), Qty: 3, Prices: itemB.Prices, Subtotals: itemB.Subtotals},
	}, dec("16"), 2)

	// Slot 1: 220 + 84*3 = 472.
	require.True(t, totals[0].Subtotal.Equal(dec("472")))
	// Slot 2: only item A's 250.
	require.True(t, totals[1].Subtotal.Equal(dec("250")))
	require.True(t, totals[1].Tax.Equal(dec("40")))
	require.True(t, totals[1].Total.Equal(dec("290")))
	require.True(t, totals[1].Margin.Equal(dec("50")))
}

func TestComputeTotalsEmptyQuote(t *testing.T) {
	totals := ComputeTotals(nil, dec("16"), 3)
	require.Len(t, totals, 3)
	for _, slot := range totals {
		require.True(t, slot.Subtotal.IsZero())
		require.True(t, slot.Tax.IsZero())
		require.True(t, slot.Total.IsZero())
		require.True(t, slot.Margin.IsZero())
	}
}

func TestValidateMargins(t *testing.T) {
	require.NoError(t, ValidateMargins(DecimalSlots{decPtr("10"), nil}, 2))
	require.ErrorIs(t, ValidateMargins(DecimalSlots{decPtr("10")}, 2), ErrSlotMismatch)
	require.ErrorIs(t, ValidateMargins(DecimalSlots{decPtr("-1"), nil}, 2), ErrInvalidMargin)
}

func TestDecimalSlotsRoundTrip(t *testing.T) {
	slots := DecimalSlots{decPtr("12.5"), nil, decPtr("0")}

	value, err := slots.Value()
	require.NoError(t, err)

	var decoded DecimalSlots
	require.NoError(t, decoded.Scan(value))
	require.Len(t, decoded, 3)
	require.True(t, decoded.At(1).Equal(dec("12.5")))
	require.Nil(t, decoded.At(2))
	require.True(t, decoded.At(3).Equal(dec("0")))
}

func TestDecimalSlotsResize(t *testing.T) {
	slots := DecimalSlots{decPtr("5"), decPtr("10")}

	grown := slots.Resize(4)
	require.Len(t, grown, 4)
	require.True(t, grown.At(1).Equal(dec("5")))
	require.Nil(t, grown.At(3))

	shrunk := slots.Resize(1)
	require.Len(t, shrunk, 1)
	require.True(t, shrunk.At(1).Equal(dec("5")))
}
