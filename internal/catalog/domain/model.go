// Package domain contains core types for the catalog service.
package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Kind distinguishes the two catalog branches. Quotes carry items of a
// single kind.
type Kind string

const (
	KindProduct Kind = "product"
	KindService Kind = "service"
)

// ParseKind normalizes a raw kind string.
func ParseKind(raw string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(raw))) {
	case KindProduct:
		return KindProduct, true
	case KindService:
		return KindService, true
	default:
		return "", false
	}
}

// Category groups products or services for browsing and reports.
type Category struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	Kind      Kind         `gorm:"type:text;not null;uniqueIndex:idx_categories_kind_slug,priority:1"`
	Name      string       `gorm:"type:text;not null"`
	Slug      string       `gorm:"type:text;not null;uniqueIndex:idx_categories_kind_slug,priority:2"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Category) TableName() string { return "categories" }

// Product is a sellable good. Cost is the reference acquisition cost used
// as the pricing basis when the product is quoted; quotes snapshot it at
// item-add time and never read it again.
type Product struct {
	ID          snowflake.ID    `gorm:"primaryKey"`
	CategoryID  *snowflake.ID   `gorm:"column:category_id;index"`
	SKU         string          `gorm:"column:sku;type:text;not null;uniqueIndex"`
	Name        string          `gorm:"type:text;not null"`
	Description string          `gorm:"type:text;not null;default:''"`
	Unit        string          `gorm:"type:text;not null;default:'pieza'"`
	Cost        decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Active      bool            `gorm:"not null;default:true"`
	CreatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Product) TableName() string { return "products" }

// ServiceItem is a sellable service, the non-goods catalog branch.
type ServiceItem struct {
	ID          snowflake.ID    `gorm:"primaryKey"`
	CategoryID  *snowflake.ID   `gorm:"column:category_id;index"`
	Code        string          `gorm:"type:text;not null;uniqueIndex"`
	Name        string          `gorm:"type:text;not null"`
	Description string          `gorm:"type:text;not null;default:''"`
	Cost        decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Active      bool            `gorm:"not null;default:true"`
	CreatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ServiceItem) TableName() string { return "services" }

// Subject is the display snapshot a quote item captures when added. The
// quote keeps its own copy of cost and quantity afterwards.
type Subject struct {
	Kind        Kind            `json:"kind"`
	ID          snowflake.ID    `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Unit        string          `json:"unit"`
	Cost        decimal.Decimal `json:"cost"`
	Active      bool            `json:"active"`
}
