package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"

	"github.com/pawkart/backend/internal/common"
	"github.com/pawkart/backend/internal/pricing"
	"github.com/pawkart/backend/internal/repo"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 30 * 24 * time.Hour
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid email or password")
	ErrEmailTaken         = errors.New("auth: email already registered")
	ErrInvalidRefresh     = errors.New("auth: invalid refresh token")
)

// Service handles account registration and session lifecycle. Passwords
// are hashed with argon2id; refresh tokens are stored hashed and rotated
// on every use.
type Service struct {
	users      repo.UsersRepo
	sessions   repo.SessionsRepo
	tokens     TokenService
	refreshTTL time.Duration
	now        func() time.Time
}

// Config configures the auth service.
type Config struct {
	Users      repo.UsersRepo
	Sessions   repo.SessionsRepo
	Tokens     TokenService
	RefreshTTL time.Duration
	Now        func() time.Time
}

func NewService(cfg Config) *Service {
	refreshTTL := cfg.RefreshTTL
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	tokens := cfg.Tokens
	if tokens.AccessTTL <= 0 {
		tokens.AccessTTL = defaultAccessTTL
	}
	tokens.Now = now
	return &Service{
		users:      cfg.Users,
		sessions:   cfg.Sessions,
		tokens:     tokens,
		refreshTTL: refreshTTL,
		now:        now,
	}
}

// User is the client-safe projection of an account.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	CustomerType string    `json:"customerType"`
	CreatedAt    time.Time `json:"createdAt"`
}

// LoginResult bundles the token pair issued on login.
type LoginResult struct {
	User          User      `json:"user"`
	AccessToken   string    `json:"accessToken"`
	RefreshToken  string    `json:"refreshToken"`
	AccessExpiry  time.Time `json:"accessExpiresAt"`
	RefreshExpiry time.Time `json:"refreshExpiresAt"`
}

// RefreshResult is the rotated token pair from a refresh call.
type RefreshResult struct {
	AccessToken   string    `json:"accessToken"`
	AccessExpiry  time.Time `json:"accessExpiresAt"`
	RefreshToken  string    `json:"refreshToken"`
	RefreshExpiry time.Time `json:"refreshExpiresAt"`
}

// Register creates an account. New accounts always start as regular
// customers; subscription status is granted separately.
func (s *Service) Register(ctx context.Context, name, email, password string) (User, error) {
	name = strings.TrimSpace(name)
	normalized := common.NormalizeEmail(email)
	if name == "" || normalized == "" {
		return User{}, fmt.Errorf("%w: name and email are required", ErrInvalidCredentials)
	}
	if len(password) < 8 {
		return User{}, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidCredentials)
	}
	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	if _, err := s.users.GetByEmail(ctx, normalized); err == nil {
		return User{}, ErrEmailTaken
	}
	id, err := s.users.Create(ctx, repo.User{
		Name:         name,
		Email:        normalized,
		PasswordHash: hash,
		CustomerType: pricing.CustomerRegular,
		Role:         "customer",
	})
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return User{ID: id, Name: name, Email: normalized, CustomerType: string(pricing.CustomerRegular), CreatedAt: s.now()}, nil
}

// Login verifies credentials and issues a token pair.
func (s *Service) Login(ctx context.Context, email, password, userAgent, ip string) (LoginResult, error) {
	normalized := common.NormalizeEmail(email)
	if normalized == "" || password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}
	u, err := s.users.GetByEmail(ctx, normalized)
	if err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}
	ok, err := argon2id.ComparePasswordAndHash(password, u.PasswordHash)
	if err != nil || !ok {
		return LoginResult{}, ErrInvalidCredentials
	}

	access, accessExpiry, err := s.tokens.Sign(u.ID, string(u.CustomerType))
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, refreshExpiry, err := s.issueRefresh(ctx, u.ID, userAgent, ip)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{
		User:          toUser(u),
		AccessToken:   access,
		RefreshToken:  refresh,
		AccessExpiry:  accessExpiry,
		RefreshExpiry: refreshExpiry,
	}, nil
}

// Refresh rotates the refresh token and issues a fresh access token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (RefreshResult, error) {
	token := strings.TrimSpace(refreshToken)
	if token == "" {
		return RefreshResult{}, ErrInvalidRefresh
	}
	hashed := hashRefreshToken(token)
	session, err := s.sessions.GetByTokenHash(ctx, hashed)
	if err != nil {
		return RefreshResult{}, ErrInvalidRefresh
	}
	if s.now().After(session.ExpiresAt) {
		_ = s.sessions.DeleteByTokenHash(ctx, hashed)
		return RefreshResult{}, ErrInvalidRefresh
	}
	u, err := s.users.Get(ctx, session.UserID)
	if err != nil {
		_ = s.sessions.DeleteByTokenHash(ctx, hashed)
		return RefreshResult{}, ErrInvalidRefresh
	}

	access, accessExpiry, err := s.tokens.Sign(u.ID, string(u.CustomerType))
	if err != nil {
		return RefreshResult{}, fmt.Errorf("sign access token: %w", err)
	}
	newToken, err := generateToken(48)
	if err != nil {
		return RefreshResult{}, err
	}
	refreshExpiry := s.now().Add(s.refreshTTL)
	if err := s.sessions.Rotate(ctx, session.ID, hashRefreshToken(newToken), refreshExpiry); err != nil {
		_ = s.sessions.DeleteByTokenHash(ctx, hashed)
		return RefreshResult{}, fmt.Errorf("rotate session: %w", err)
	}
	return RefreshResult{
		AccessToken:   access,
		AccessExpiry:  accessExpiry,
		RefreshToken:  newToken,
		RefreshExpiry: refreshExpiry,
	}, nil
}

// Logout revokes the refresh token. Unknown tokens are a no-op.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	token := strings.TrimSpace(refreshToken)
	if token == "" {
		return nil
	}
	return s.sessions.DeleteByTokenHash(ctx, hashRefreshToken(token))
}

// Me returns the authenticated user's profile.
func (s *Service) Me(ctx context.Context, userID string) (User, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return User{}, err
	}
	return toUser(u), nil
}

// ParseAccessToken exposes token verification to the middleware.
func (s *Service) ParseAccessToken(token string) (string, error) {
	return s.tokens.Parse(token)
}

func (s *Service) issueRefresh(ctx context.Context, userID, userAgent, ip string) (string, time.Time, error) {
	token, err := generateToken(48)
	if err != nil {
		return "", time.Time{}, err
	}
	expiresAt := s.now().Add(s.refreshTTL)
	if err := s.sessions.Create(ctx, userID, hashRefreshToken(token), userAgent, ip, expiresAt); err != nil {
		return "", time.Time{}, fmt.Errorf("create session: %w", err)
	}
	return token, expiresAt, nil
}

func toUser(u repo.User) User {
	return User{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		CustomerType: string(u.CustomerType),
		CreatedAt:    u.CreatedAt,
	}
}

func generateToken(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashRefreshToken(token string) string {
	return common.Sha256Hex(token)
}
