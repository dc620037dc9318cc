package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/congo-pay/gemwallet/internal/user"
)

// Authenticator checks user credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, id, pin string) (user.User, error)
	Exists(ctx context.Context, id string) (bool, error)
}

// Service issues and rotates token pairs.
type Service struct {
	users      Authenticator
	tokens     *Tokens
	refresh    RefreshStore
	refreshTTL time.Duration
	logger     *slog.Logger
}

// NewService wires the auth service.
func NewService(users Authenticator, tokens *Tokens, refresh RefreshStore, refreshTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{users: users, tokens: tokens, refresh: refresh, refreshTTL: refreshTTL, logger: logger}
}

// TokenPair is returned by Login and Refresh.
type TokenPair struct {
	UserID       string `json:"user_id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Login validates the PIN of userID and issues a token pair.
func (s *Service) Login(ctx context.Context, userID, pin string) (TokenPair, error) {
	u, err := s.users.Authenticate(ctx, userID, pin)
	if err != nil {
		return TokenPair{}, err
	}
	return s.issue(ctx, u.ID)
}

// Refresh exchanges a refresh token for a new pair. The old refresh token is revoked.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	if refreshToken == "" {
		return TokenPair{}, ErrUnknownRefreshToken
	}
	userID, err := s.refresh.Lookup(ctx, refreshToken)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.refresh.Revoke(ctx, refreshToken); err != nil {
		// lost a race with a concurrent refresh or logout
		return TokenPair{}, err
	}
	ok, err := s.users.Exists(ctx, userID)
	if err != nil {
		return TokenPair{}, err
	}
	if !ok {
		return TokenPair{}, ErrUnknownRefreshToken
	}
	return s.issue(ctx, userID)
}

// Logout revokes a refresh token. Unknown tokens are not an error.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	err := s.refresh.Revoke(ctx, refreshToken)
	if errors.Is(err, ErrUnknownRefreshToken) {
		return nil
	}
	return err
}

// Verify parses an access token and returns the user id it was issued to.
func (s *Service) Verify(token string) (string, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (s *Service) issue(ctx context.Context, userID string) (TokenPair, error) {
	access, exp, err := s.tokens.Issue(userID)
	if err != nil {
		return TokenPair{}, err
	}
	refresh := uuid.NewString()
	if err := s.refresh.Save(ctx, refresh, userID, s.refreshTTL); err != nil {
		s.logger.Error("store refresh token", "user_id", userID, "error", err)
		return TokenPair{}, err
	}
	return TokenPair{
		UserID:       userID,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(time.Until(exp).Round(time.Second).Seconds()),
	}, nil
}
