package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
	ErrInvalidCost     = errors.New("cost must be non-negative with at most 2 decimals")
	ErrInvalidMargin   = errors.New("margin must be non-negative")
	ErrSlotMismatch    = errors.New("margin slot count mismatch")
)

var oneHundred = decimal.NewFromInt(100)

// ItemFigures carries the computed per-slot money for one quote line.
type ItemFigures struct {
	Prices    DecimalSlots
	Subtotals DecimalSlots
}

// ComputeItem derives the per-slot unit prices and line totals for one
// item. For slot k with margin m: price = Round2(cost * (1 + m/100)) and
// subtotal = Round2(price * qty). A nil margin leaves the price unset and
// books the line at cost basis, so every slot's column always sums.
// The computation is pure: same inputs, same figures.
func ComputeItem(cost decimal.Decimal, qty int, margins DecimalSlots) (ItemFigures, error) {
	if qty < 1 {
		return ItemFigures{}, ErrInvalidQuantity
	}
	if !ValidCost(cost) {
		return ItemFigures{}, ErrInvalidCost
	}

	quantity := decimal.NewFromInt(int64(qty))
	costBasis := Round2(cost.Mul(quantity))

	figures := ItemFigures{
		Prices:    NewSlots(len(margins)),
		Subtotals: NewSlots(len(margins)),
	}
	for i, margin := range margins {
		if margin == nil {
			subtotal := costBasis
			figures.Subtotals[i] = &subtotal
			continue
		}
		if !ValidMargin(*margin) {
			return ItemFigures{}, ErrInvalidMargin
		}
		factor := decimal.NewFromInt(1).Add(margin.Div(oneHundred))
		price := Round2(cost.Mul(factor))
		subtotal := Round2(price.Mul(quantity))
		figures.Prices[i] = &price
		figures.Subtotals[i] = &subtotal
	}
	return figures, nil
}

// ItemFacts is the stored per-line state the aggregate step consumes.
type ItemFacts struct {
	Cost      decimal.Decimal
	Qty       int
	Prices    DecimalSlots
	Subtotals DecimalSlots
}

// ComputeTotals folds the lines into per-slot aggregates. Only lines that
// carry a unit price in slot k contribute to that slot: Subtotal is the
// pre-tax sum of their line totals, Tax applies taxPct on it, Total adds
// the two, and Margin is the aggregate profit over cost. A slot with no
// priced lines is all zeros; the cost-basis fallback on the line itself
// never leaks into the aggregate.
func ComputeTotals(items []ItemFacts, taxPct decimal.Decimal, slots int) SlotTotals {
	if slots < 0 {
		slots = 0
	}
	totals := make(SlotTotals, slots)
	taxRate := taxPct.Div(oneHundred)

	for k := 0; k < slots; k++ {
		subtotal := decimal.Zero
		margin := decimal.Zero
		for _, item := range items {
			price := item.Prices.At(k + 1)
			if price == nil {
				continue
			}
			if lineTotal := item.Subtotals.At(k + 1); lineTotal != nil {
				subtotal = subtotal.Add(*lineTotal)
			}
			quantity := decimal.NewFromInt(int64(item.Qty))
			margin = margin.Add(price.Sub(item.Cost).Mul(quantity))
		}
		subtotal = Round2(subtotal)
		tax := Round2(subtotal.Mul(taxRate))
		totals[k] = SlotTotal{
			Slot:     k + 1,
			Subtotal: subtotal,
			Tax:      tax,
			Total:    Round2(subtotal.Add(tax)),
			Margin:   Round2(margin),
		}
	}
	return totals
}

// ValidateMargins checks a user-provided margin array against the active
// slot count.
func ValidateMargins(margins DecimalSlots, slots int) error {
	if len(margins) != slots {
		return ErrSlotMismatch
	}
	for _, margin := range margins {
		if margin == nil {
			continue
		}
		if !ValidMargin(*margin) {
			return ErrInvalidMargin
		}
	}
	return nil
}
