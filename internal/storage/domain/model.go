// Package domain contains types for the blob store.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Blob is an opaque stored object: rendered documents, order evidence,
// branding logos.
type Blob struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	Filename    string       `gorm:"type:text;not null"`
	ContentType string       `gorm:"column:content_type;type:text;not null;default:'application/octet-stream'"`
	SizeBytes   int64        `gorm:"column:size_bytes;not null"`
	Data        []byte       `gorm:"type:bytea;not null"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Blob) TableName() string { return "blobs" }
