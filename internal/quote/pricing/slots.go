package pricing

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// DecimalSlots is a slot-indexed array of nullable decimals, stored as a
// JSON array. Index 0 holds slot 1. A nil entry means "not set": for
// margins it marks a slot without margin, for prices it marks a slot whose
// unit price is undefined.
type DecimalSlots []*decimal.Decimal

// Value implements driver.Valuer.
func (s DecimalSlots) Value() (driver.Value, error) {
	if s == nil {
		s = DecimalSlots{}
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan implements sql.Scanner.
func (s *DecimalSlots) Scan(value any) error {
	if value == nil {
		*s = DecimalSlots{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for DecimalSlots", value)
	}
	if len(raw) == 0 {
		*s = DecimalSlots{}
		return nil
	}
	return json.Unmarshal(raw, s)
}

// At returns the decimal for 1-based slot k, nil when unset or out of range.
func (s DecimalSlots) At(slot int) *decimal.Decimal {
	if slot < 1 || slot > len(s) {
		return nil
	}
	return s[slot-1]
}

// NewSlots returns an all-nil array sized for n slots.
func NewSlots(n int) DecimalSlots {
	return make(DecimalSlots, n)
}

// Resize grows or truncates the array to n slots, keeping existing values.
func (s DecimalSlots) Resize(n int) DecimalSlots {
	if n < 0 {
		n = 0
	}
	out := make(DecimalSlots, n)
	copy(out, s)
	return out
}

// SlotTotal is the aggregate for one margin slot.
type SlotTotal struct {
	Slot     int             `json:"slot"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
	Margin   decimal.Decimal `json:"margin"`
}

// SlotTotals is the per-slot aggregate array, stored as a JSON array.
type SlotTotals []SlotTotal

// Value implements driver.Valuer.
func (t SlotTotals) Value() (driver.Value, error) {
	if t == nil {
		t = SlotTotals{}
	}
	raw, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan implements sql.Scanner.
func (t *SlotTotals) Scan(value any) error {
	if value == nil {
		*t = SlotTotals{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("unsupported type for SlotTotals")
	}
	if len(raw) == 0 {
		*t = SlotTotals{}
		return nil
	}
	return json.Unmarshal(raw, t)
}
