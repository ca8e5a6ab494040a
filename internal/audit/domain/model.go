// Package domain contains types for the append-only audit log.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Event is one immutable audit entry. Events are never updated or
// deleted.
type Event struct {
	ID         snowflake.ID      `gorm:"primaryKey"`
	ActorID    *snowflake.ID     `gorm:"column:actor_id;index"`
	Action     string            `gorm:"type:text;not null"`
	ObjectType string            `gorm:"column:object_type;type:text;not null;index:idx_audit_events_object,priority:1"`
	ObjectID   string            `gorm:"column:object_id;type:text;not null;default:'';index:idx_audit_events_object,priority:2"`
	Detail     datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"`
	CreatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP;index"`
}

// TableName sets the database table name.
func (Event) TableName() string { return "audit_events" }
