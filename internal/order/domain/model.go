// Package domain contains core types for the purchase order service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	authdomain "github.com/smallbiznis/cotiza/internal/auth/domain"
)

// Status is the order lifecycle state. An order becomes partially_approved
// as soon as any item is resolved and settles on approved or rejected only
// when every item landed on the same side.
type Status string

const (
	StatusDraft             Status = "draft"
	StatusSent              Status = "sent"
	StatusPartiallyApproved Status = "partially_approved"
	StatusApproved          Status = "approved"
	StatusRejected          Status = "rejected"
)

// ItemStatus is the per-item approval state.
type ItemStatus string

const (
	ItemPending  ItemStatus = "pending"
	ItemApproved ItemStatus = "approved"
	ItemRejected ItemStatus = "rejected"
)

// Actor identifies who is performing an operation.
type Actor struct {
	ID   snowflake.ID
	Role authdomain.Role
}

// IsAdmin reports whether the actor holds the elevated role.
func (a Actor) IsAdmin() bool { return a.Role == authdomain.RoleAdmin }

// Order is the purchase order aggregate root.
type Order struct {
	ID           snowflake.ID    `gorm:"primaryKey"`
	Folio        *string         `gorm:"type:text"`
	Status       Status          `gorm:"type:text;not null;default:'draft';index"`
	SupplierName string          `gorm:"column:supplier_name;type:text;not null;default:''"`
	Notes        string          `gorm:"type:text;not null;default:''"`
	Total        decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	ProgressPct  decimal.Decimal `gorm:"column:progress_pct;type:numeric(5,2);not null;default:0"`
	OwnerID      snowflake.ID    `gorm:"column:owner_id;not null;index"`
	SentAt       *time.Time      `gorm:"column:sent_at"`
	ResolvedAt   *time.Time      `gorm:"column:resolved_at"`
	CreatedAt    time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Order) TableName() string { return "orders" }

// OrderItem is one product line. Name and cost are snapshots from the
// catalog at add time. Evidence is the supporting scan or photo required
// on every line before the order can be sent for approval.
type OrderItem struct {
	ID             snowflake.ID    `gorm:"primaryKey"`
	OrderID        snowflake.ID    `gorm:"column:order_id;not null;uniqueIndex:idx_order_items_order_product,priority:1"`
	ProductID      snowflake.ID    `gorm:"column:product_id;not null;uniqueIndex:idx_order_items_order_product,priority:2"`
	Name           string          `gorm:"type:text;not null"`
	UnitCost       decimal.Decimal `gorm:"column:unit_cost;type:numeric(14,2);not null"`
	Quantity       int             `gorm:"not null"`
	Subtotal       decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Status         ItemStatus      `gorm:"type:text;not null;default:'pending'"`
	Reason         string          `gorm:"type:text;not null;default:''"`
	EvidenceBlobID *snowflake.ID   `gorm:"column:evidence_blob_id"`
	ResolvedBy     *snowflake.ID   `gorm:"column:resolved_by"`
	ResolvedAt     *time.Time      `gorm:"column:resolved_at"`
	CreatedAt      time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (OrderItem) TableName() string { return "order_items" }
