package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*User, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, rawToken string) error
	Authenticate(ctx context.Context, rawToken string) (*User, *Session, error)
	ChangePassword(ctx context.Context, userID snowflake.ID, newPassword string) error
	UpdateRole(ctx context.Context, userID snowflake.ID, role Role) (*User, error)
	SetDisabled(ctx context.Context, userID snowflake.ID, disabled bool) error
	GetUser(ctx context.Context, userID snowflake.ID) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

type CreateUserRequest struct {
	Email       string
	Password    string
	DisplayName string
	Role        Role
}

type LoginRequest struct {
	Email     string
	Password  string
	UserAgent string
	IPAddress string
}

type LoginResult struct {
	User      *User
	RawToken  string
	ExpiresAt time.Time
	SessionID snowflake.ID
}
