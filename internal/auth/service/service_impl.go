package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/cotiza/internal/auth/domain"
	"github.com/smallbiznis/cotiza/internal/auth/password"
	"github.com/smallbiznis/cotiza/internal/clock"
	"go.uber.org/zap"
)

const (
	sessionTokenBytes = 32
	sessionTTL        = 7 * 24 * time.Hour

	minPasswordLength = 8
)

type Service struct {
	log      *zap.Logger
	repo     domain.Repository
	sessions domain.SessionRepository
	loginLog domain.LoginEventRepository
	genID    *snowflake.Node
	clock    clock.Clock
}

func New(log *zap.Logger, repo domain.Repository, sessions domain.SessionRepository, loginLog domain.LoginEventRepository, genID *snowflake.Node, clk clock.Clock) domain.Service {
	return &Service{
		log:      log.Named("auth.service"),
		repo:     repo,
		sessions: sessions,
		loginLog: loginLog,
		genID:    genID,
		clock:    clk,
	}
}

func (s *Service) CreateUser(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if len(strings.TrimSpace(req.Password)) < minPasswordLength {
		return nil, domain.ErrInvalidCredentials
	}

	if _, err := s.repo.FindOne(ctx, domain.User{Email: email}); err == nil {
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = domain.RoleUnassigned
	}
	if _, ok := domain.ParseRole(string(role)); !ok {
		return nil, domain.ErrInvalidRole
	}

	hashed, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = defaultDisplayName(email)
	}
	now := s.clock.Now()
	user := &domain.User{
		ID:           s.genID.Generate(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: &hashed,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResult, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if strings.TrimSpace(req.Password) == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindOne(ctx, domain.User{Email: email})
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.recordLogin(ctx, nil, email, false, req)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if user.Disabled {
		s.recordLogin(ctx, &user.ID, email, false, req)
		return nil, domain.ErrUserDisabled
	}
	if user.PasswordHash == nil || !password.Verify(req.Password, *user.PasswordHash) {
		s.recordLogin(ctx, &user.ID, email, false, req)
		return nil, domain.ErrInvalidCredentials
	}

	rawToken, err := newSessionToken()
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	session := &domain.Session{
		ID:        s.genID.Generate(),
		UserID:    user.ID,
		TokenHash: hashToken(rawToken),
		IP:        strings.TrimSpace(req.IPAddress),
		UserAgent: strings.TrimSpace(req.UserAgent),
		ExpiresAt: now.Add(sessionTTL),
		CreatedAt: now,
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	s.recordLogin(ctx, &user.ID, email, true, req)

	return &domain.LoginResult{
		User:      user,
		RawToken:  rawToken,
		ExpiresAt: session.ExpiresAt,
		SessionID: session.ID,
	}, nil
}

func (s *Service) Logout(ctx context.Context, rawToken string) error {
	token := strings.TrimSpace(rawToken)
	if token == "" {
		return domain.ErrInvalidSession
	}

	session, err := s.sessions.GetSessionByTokenHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return domain.ErrInvalidSession
		}
		return err
	}

	return s.sessions.RevokeSession(ctx, session.ID, s.clock.Now())
}

func (s *Service) Authenticate(ctx context.Context, rawToken string) (*domain.User, *domain.Session, error) {
	token := strings.TrimSpace(rawToken)
	if token == "" {
		return nil, nil, domain.ErrInvalidSession
	}

	session, err := s.sessions.GetSessionByTokenHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, nil, domain.ErrInvalidSession
		}
		return nil, nil, err
	}

	now := s.clock.Now()
	if session.RevokedAt != nil {
		return nil, nil, domain.ErrSessionRevoked
	}
	if now.After(session.ExpiresAt) {
		return nil, nil, domain.ErrSessionExpired
	}

	user, err := s.repo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, nil, err
	}
	if user.Disabled {
		return nil, nil, domain.ErrUserDisabled
	}

	return user, session, nil
}

func (s *Service) ChangePassword(ctx context.Context, userID snowflake.ID, newPassword string) error {
	if len(strings.TrimSpace(newPassword)) < minPasswordLength {
		return domain.ErrInvalidCredentials
	}

	if _, err := s.repo.FindByID(ctx, userID); err != nil {
		return err
	}

	hashed, err := password.Hash(newPassword)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	return s.repo.UpdateFields(ctx, userID, map[string]any{
		"password_hash": hashed,
		"is_default":    false,
		"updated_at":    now,
	})
}

func (s *Service) UpdateRole(ctx context.Context, userID snowflake.ID, role domain.Role) (*domain.User, error) {
	parsed, ok := domain.ParseRole(string(role))
	if !ok {
		return nil, domain.ErrInvalidRole
	}

	if _, err := s.repo.FindByID(ctx, userID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if err := s.repo.UpdateFields(ctx, userID, map[string]any{
		"role":       parsed,
		"updated_at": now,
	}); err != nil {
		return nil, err
	}

	s.log.Info("user role updated",
		zap.String("user_id", userID.String()),
		zap.String("role", string(parsed)),
	)

	return s.repo.FindByID(ctx, userID)
}

func (s *Service) SetDisabled(ctx context.Context, userID snowflake.ID, disabled bool) error {
	if _, err := s.repo.FindByID(ctx, userID); err != nil {
		return err
	}

	now := s.clock.Now()
	if err := s.repo.UpdateFields(ctx, userID, map[string]any{
		"disabled":   disabled,
		"updated_at": now,
	}); err != nil {
		return err
	}
	if disabled {
		return s.sessions.RevokeUserSessions(ctx, userID, now)
	}
	return nil
}

func (s *Service) GetUser(ctx context.Context, userID snowflake.ID) (*domain.User, error) {
	return s.repo.FindByID(ctx, userID)
}

func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.repo.List(ctx)
}

func (s *Service) recordLogin(ctx context.Context, userID *snowflake.ID, email string, success bool, req domain.LoginRequest) {
	event := &domain.LoginEvent{
		ID:        s.genID.Generate(),
		UserID:    userID,
		Email:     email,
		Success:   success,
		IP:        strings.TrimSpace(req.IPAddress),
		UserAgent: strings.TrimSpace(req.UserAgent),
		CreatedAt: s.clock.Now(),
	}
	if err := s.loginLog.RecordLogin(ctx, event); err != nil {
		s.log.Warn("record login event", zap.Error(err))
	}
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(addr.Address)), nil
}

func defaultDisplayName(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) > 0 && strings.TrimSpace(parts[0]) != "" {
		return strings.TrimSpace(parts[0])
	}
	return email
}

func newSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
