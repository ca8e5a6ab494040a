// Package domain contains the read-only reporting types.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

var ErrInvalidRange = errors.New("invalid report range")

// Preset names a reporting window relative to now.
type Preset string

const (
	Preset7d     Preset = "7d"
	Preset30d    Preset = "30d"
	PresetMonth  Preset = "month"
	PresetCustom Preset = "custom"
)

// Range is a half-open window [From, To).
type Range struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// ResolveRange turns a preset into a concrete window. Custom requires
// explicit bounds with from before to.
func ResolveRange(preset Preset, from, to, now time.Time) (Range, error) {
	switch preset {
	case Preset7d:
		return Range{From: now.AddDate(0, 0, -7), To: now}, nil
	case Preset30d:
		return Range{From: now.AddDate(0, 0, -30), To: now}, nil
	case PresetMonth:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return Range{From: start, To: now}, nil
	case PresetCustom:
		if from.IsZero() || to.IsZero() || !from.Before(to) {
			return Range{}, ErrInvalidRange
		}
		return Range{From: from, To: to}, nil
	default:
		return Range{}, ErrInvalidRange
	}
}

// SlotRevenue aggregates sent-quote money for one margin slot.
type SlotRevenue struct {
	Slot     int             `json:"slot"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
	Margin   decimal.Decimal `json:"margin"`
}

// QuoteOverview is the headline quoting report for a window.
type QuoteOverview struct {
	Range         Range          `json:"range"`
	CountByStatus map[string]int `json:"count_by_status"`
	SentCount     int            `json:"sent_count"`
	SentPerSlot   []SlotRevenue  `json:"sent_per_slot"`
}

// TopProduct ranks a catalog product by quoted volume.
type TopProduct struct {
	ProductID snowflake.ID `json:"product_id"`
	Name      string       `json:"name"`
	Units     int          `json:"units"`
	Quotes    int          `json:"quotes"`
}

// OrderStats summarizes the purchase order pipeline for a window.
type OrderStats struct {
	Range         Range          `json:"range"`
	CountByStatus map[string]int `json:"count_by_status"`
	ItemsApproved int            `json:"items_approved"`
	ItemsRejected int            `json:"items_rejected"`
	ItemsPending  int            `json:"items_pending"`
}

// LoginActivity summarizes authentication traffic for a window.
type LoginActivity struct {
	Range         Range `json:"range"`
	Attempts      int   `json:"attempts"`
	Successes     int   `json:"successes"`
	Failures      int   `json:"failures"`
	DistinctUsers int   `json:"distinct_users"`
}

type Service interface {
	QuoteOverview(ctx context.Context, rng Range) (*QuoteOverview, error)
	TopProducts(ctx context.Context, rng Range, limit int) ([]TopProduct, error)
	OrderStats(ctx context.Context, rng Range) (*OrderStats, error)
	LoginActivity(ctx context.Context, rng Range) (*LoginActivity, error)
}
