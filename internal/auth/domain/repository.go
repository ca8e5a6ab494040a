package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, user *User) error
	FindOne(ctx context.Context, user User) (*User, error)
	FindByID(ctx context.Context, id snowflake.ID) (*User, error)
	List(ctx context.Context) ([]User, error)
	UpdateFields(ctx context.Context, id snowflake.ID, fields map[string]any) error
}

type SessionRepository interface {
	CreateSession(ctx context.Context, session *Session) error
	GetSessionByTokenHash(ctx context.Context, tokenHash string) (*Session, error)
	RevokeSession(ctx context.Context, sessionID snowflake.ID, revokedAt time.Time) error
	RevokeUserSessions(ctx context.Context, userID snowflake.ID, revokedAt time.Time) error
}

type LoginEventRepository interface {
	RecordLogin(ctx context.Context, event *LoginEvent) error
}
