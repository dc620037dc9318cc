package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/congo-pay/gemwallet/internal/wallet"
)

var (
	// ErrInvalidUserID is returned for ids shorter than MinIDLength.
	ErrInvalidUserID = fmt.Errorf("user id must be at least %d characters", MinIDLength)
	// ErrInvalidPIN is returned when a PIN is too short at registration.
	ErrInvalidPIN = errors.New("PIN must be at least 4 digits")
	// ErrInvalidName is returned when firstname or lastname is blank.
	ErrInvalidName = errors.New("firstname and lastname are required")
	// ErrInvalidCredentials is returned when a user id and PIN do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidateID checks the shape of a user id before it reaches storage.
func ValidateID(id string) error {
	if len(strings.TrimSpace(id)) < MinIDLength {
		return ErrInvalidUserID
	}
	return nil
}

// Service manages users and the lifecycle of their wallets.
type Service struct {
	repo    Repository
	wallets *wallet.Service
	logger  *slog.Logger
}

// NewService creates a new user service.
func NewService(repo Repository, wallets *wallet.Service, logger *slog.Logger) *Service {
	return &Service{repo: repo, wallets: wallets, logger: logger}
}

// Register creates a user with a hashed PIN and opens its wallet.
func (s *Service) Register(ctx context.Context, reg Registration) (Profile, error) {
	reg.Firstname = strings.TrimSpace(reg.Firstname)
	reg.Lastname = strings.TrimSpace(reg.Lastname)
	if reg.Firstname == "" || reg.Lastname == "" {
		return Profile{}, ErrInvalidName
	}
	if len(reg.PIN) < 4 {
		return Profile{}, ErrInvalidPIN
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.PIN), bcrypt.DefaultCost)
	if err != nil {
		return Profile{}, err
	}

	u := User{
		ID:        uuid.NewString(),
		Firstname: reg.Firstname,
		Lastname:  reg.Lastname,
		PINHash:   hash,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return Profile{}, err
	}

	w, err := s.wallets.Open(ctx, u.ID)
	if err != nil {
		if delErr := s.repo.Delete(context.WithoutCancel(ctx), u.ID); delErr != nil {
			s.logger.Error("remove user after wallet failure", "user_id", u.ID, "error", delErr)
		}
		return Profile{}, err
	}

	s.logger.Info("user registered", "user_id", u.ID, "wallet_id", w.ID)
	return Profile{User: u, Wallet: w}, nil
}

// Get returns a user together with its wallet.
func (s *Service) Get(ctx context.Context, id string) (Profile, error) {
	if err := ValidateID(id); err != nil {
		return Profile{}, err
	}
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	w, err := s.wallets.Get(ctx, id)
	if err != nil {
		return Profile{}, fmt.Errorf("wallet of %s: %w", id, err)
	}
	return Profile{User: u, Wallet: w}, nil
}

// List returns every user with its wallet. Users whose wallet is missing are skipped.
func (s *Service) List(ctx context.Context) ([]Profile, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	profiles := make([]Profile, 0, len(users))
	for _, u := range users {
		w, err := s.wallets.Get(ctx, u.ID)
		if errors.Is(err, wallet.ErrNotFound) {
			s.logger.Warn("user without wallet", "user_id", u.ID)
			continue
		}
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, Profile{User: u, Wallet: w})
	}
	return profiles, nil
}

// Delete removes the wallet first and then the user.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}
	if err := s.wallets.Close(ctx, id); err != nil && !errors.Is(err, wallet.ErrNotFound) {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Authenticate verifies a user id and PIN pair.
func (s *Service) Authenticate(ctx context.Context, id, pin string) (User, error) {
	if err := ValidateID(id); err != nil {
		return User{}, ErrInvalidCredentials
	}
	u, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	if err := bcrypt.CompareHashAndPassword(u.PINHash, []byte(pin)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

// Exists reports whether a user id is registered.
func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}
