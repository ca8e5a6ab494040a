// Package domain contains core types for the quote service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	authdomain "github.com/smallbiznis/cotiza/internal/auth/domain"
	catalogdomain "github.com/smallbiznis/cotiza/internal/catalog/domain"
	"github.com/smallbiznis/cotiza/internal/quote/pricing"
)

// Status is the quote lifecycle state.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusSent     Status = "sent"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// DocsStatus tracks the branded-document rendering step, which is durable
// state separate from the lifecycle: a quote is sent the moment its totals
// commit, documents catch up afterwards.
type DocsStatus string

const (
	DocsNone    DocsStatus = "none"
	DocsPending DocsStatus = "pending"
	DocsReady   DocsStatus = "ready"
	DocsFailed  DocsStatus = "failed"
)

// Actor identifies who is performing an operation.
type Actor struct {
	ID   snowflake.ID
	Role authdomain.Role
}

// IsAdmin reports whether the actor holds the elevated role.
func (a Actor) IsAdmin() bool { return a.Role == authdomain.RoleAdmin }

// Quote is the aggregate root. SlotCount is fixed at creation from the
// active branding templates and sizes every slot-indexed array below it.
type Quote struct {
	ID            snowflake.ID         `gorm:"primaryKey"`
	Folio         *string              `gorm:"type:text"`
	Kind          catalogdomain.Kind   `gorm:"type:text;not null"`
	Status        Status               `gorm:"type:text;not null;default:'draft';index"`
	CustomerName  string               `gorm:"column:customer_name;type:text;not null;default:''"`
	CustomerEmail string               `gorm:"column:customer_email;type:text;not null;default:''"`
	CustomerPhone string               `gorm:"column:customer_phone;type:text;not null;default:''"`
	Notes         string               `gorm:"type:text;not null;default:''"`
	TaxPct        decimal.Decimal      `gorm:"column:tax_pct;type:numeric(5,2);not null"`
	SlotCount     int                  `gorm:"column:slots;not null;default:0"`
	Totals        pricing.SlotTotals   `gorm:"type:jsonb;not null;default:'[]'"`
	DocsStatus    DocsStatus           `gorm:"column:docs_status;type:text;not null;default:'none'"`
	DocsError     string               `gorm:"column:docs_error;type:text;not null;default:''"`
	OwnerID       snowflake.ID         `gorm:"column:owner_id;not null;index"`
	SentAt        *time.Time           `gorm:"column:sent_at"`
	CreatedAt     time.Time            `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time            `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Quote) TableName() string { return "quotes" }

// Slots is the margin column count this quote was created with.
func (q Quote) Slots() int { return q.SlotCount }

// QuoteItem is one line on a quote. Name, description, unit and cost are
// snapshots captured when the item was added; later catalog edits never
// reprice existing quotes. Margins holds one optional percentage per slot,
// prices and subtotals are derived from it.
type QuoteItem struct {
	ID          snowflake.ID         `gorm:"primaryKey"`
	QuoteID     snowflake.ID         `gorm:"column:quote_id;not null;index"`
	Kind        catalogdomain.Kind   `gorm:"type:text;not null"`
	SubjectID   snowflake.ID         `gorm:"column:subject_id;not null"`
	Name        string               `gorm:"type:text;not null"`
	Description string               `gorm:"type:text;not null;default:''"`
	Unit        string               `gorm:"type:text;not null;default:''"`
	UnitCost    decimal.Decimal      `gorm:"column:unit_cost;type:numeric(14,2);not null"`
	Quantity    int                  `gorm:"not null"`
	Position    int                  `gorm:"not null;default:0"`
	Margins     pricing.DecimalSlots `gorm:"type:jsonb;not null;default:'[]'"`
	Prices      pricing.DecimalSlots `gorm:"type:jsonb;not null;default:'[]'"`
	Subtotals   pricing.DecimalSlots `gorm:"type:jsonb;not null;default:'[]'"`
	CreatedAt   time.Time            `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time            `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (QuoteItem) TableName() string { return "quote_items" }

// QuoteDocument links a rendered branded document to its quote and slot.
type QuoteDocument struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	QuoteID    snowflake.ID `gorm:"column:quote_id;not null;uniqueIndex:idx_quote_documents_quote_slot,priority:1"`
	Slot       int          `gorm:"not null;uniqueIndex:idx_quote_documents_quote_slot,priority:2"`
	BlobID     snowflake.ID `gorm:"column:blob_id;not null"`
	RenderedAt time.Time    `gorm:"column:rendered_at;not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (QuoteDocument) TableName() string { return "quote_documents" }
