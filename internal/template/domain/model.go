// Package domain contains core types for branding templates.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Template is a branded company profile. Its slot index ties it to one
// margin column on every quote: slot k of the pricing engine is rendered
// with the branding of the template holding slot k.
type Template struct {
	ID         snowflake.ID  `gorm:"primaryKey"`
	Slot       int           `gorm:"not null;uniqueIndex"`
	Name       string        `gorm:"type:text;not null"`
	Slug       string        `gorm:"type:text;not null;uniqueIndex"`
	City       string        `gorm:"type:text;not null;default:''"`
	Footer     string        `gorm:"type:text;not null;default:''"`
	AccentHex  string        `gorm:"column:accent_hex;type:text;not null;default:'#0F172A'"`
	Conditions string        `gorm:"type:text;not null;default:''"`
	LogoBlobID *snowflake.ID `gorm:"column:logo_blob_id"`
	Active     bool          `gorm:"not null;default:true"`
	CreatedAt  time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Template) TableName() string { return "templates" }
