// Package domain contains core types for the auth service.
package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Role is the coarse-grained role assigned to a user account.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleVentas     Role = "ventas"
	RoleCompras    Role = "compras"
	RoleUnassigned Role = "unassigned"
)

// ParseRole normalizes a raw role string, falling back to unassigned.
func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleVentas:
		return RoleVentas, true
	case RoleCompras:
		return RoleCompras, true
	case RoleUnassigned:
		return RoleUnassigned, true
	default:
		return RoleUnassigned, false
	}
}

// User represents a system user account.
type User struct {
	ID           snowflake.ID `gorm:"primaryKey"`
	Email        string       `gorm:"type:text;not null;uniqueIndex"`
	DisplayName  string       `gorm:"column:display_name;type:text;not null"`
	PasswordHash *string      `gorm:"column:password_hash;type:text"`
	Role         Role         `gorm:"type:text;not null;default:'unassigned'"`
	IsDefault    bool         `gorm:"column:is_default"`
	Disabled     bool         `gorm:"column:disabled"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

// IsAdmin reports whether the account carries the elevated role.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// Session represents a persisted login session.
type Session struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	UserID    snowflake.ID `gorm:"column:user_id;not null;index"`
	TokenHash string       `gorm:"column:token_hash;type:text;not null;uniqueIndex"`
	IP        string       `gorm:"column:ip;type:text"`
	UserAgent string       `gorm:"column:user_agent;type:text"`
	ExpiresAt time.Time    `gorm:"column:expires_at;not null;index"`
	RevokedAt *time.Time   `gorm:"column:revoked_at"`
	CreatedAt time.Time    `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Session) TableName() string { return "sessions" }

// LoginEvent records a login attempt for the activity report.
type LoginEvent struct {
	ID        snowflake.ID  `gorm:"primaryKey"`
	UserID    *snowflake.ID `gorm:"column:user_id;index"`
	Email     string        `gorm:"type:text;not null"`
	Success   bool          `gorm:"not null"`
	IP        string        `gorm:"column:ip;type:text"`
	UserAgent string        `gorm:"column:user_agent;type:text"`
	CreatedAt time.Time     `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (LoginEvent) TableName() string { return "login_events" }
