package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/gemwallet/internal/logging"
	"github.com/congo-pay/gemwallet/internal/user"
	"github.com/congo-pay/gemwallet/internal/wallet"
)

type fixture struct {
	svc   *Service
	mr    *miniredis.Miniredis
	users *user.Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cache.Close() })

	users := user.NewService(user.NewMemoryRepository(), wallet.NewService(wallet.NewMemoryStore()), logging.Discard())
	tokens := NewTokens("test-secret", "gemwallet", time.Minute)
	svc := NewService(users, tokens, NewRedisRefreshStore(cache), 24*time.Hour, logging.Discard())
	return fixture{svc: svc, mr: mr, users: users}
}

func (f fixture) register(t *testing.T) string {
	t.Helper()
	profile, err := f.users.Register(context.Background(), user.Registration{Firstname: "Ada", Lastname: "Lovelace", PIN: "1234"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return profile.User.ID
}

func TestLoginIssuesVerifiableTokens(t *testing.T) {
	f := newFixture(t)
	id := f.register(t)

	pair, err := f.svc.Login(context.Background(), id, "1234")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	subject, err := f.svc.Verify(pair.AccessToken)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if subject != id {
		t.Fatalf("expected subject %s, got %s", id, subject)
	}

	key := refreshKeyPrefix + pair.RefreshToken
	if got, err := f.mr.Get(key); err != nil || got != id {
		t.Fatalf("refresh token not stored: %q %v", got, err)
	}
	if ttl := f.mr.TTL(key); ttl != 24*time.Hour {
		t.Fatalf("expected 24h ttl, got %s", ttl)
	}
}

func TestLoginRejectsWrongPIN(t *testing.T) {
	f := newFixture(t)
	id := f.register(t)

	if _, err := f.svc.Login(context.Background(), id, "0000"); !errors.Is(err, user.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	f := newFixture(t)
	id := f.register(t)
	ctx := context.Background()

	pair, err := f.svc.Login(ctx, id, "1234")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	next, err := f.svc.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if next.RefreshToken == pair.RefreshToken {
		t.Fatalf("refresh token should rotate")
	}
	if _, err := f.svc.Refresh(ctx, pair.RefreshToken); !errors.Is(err, ErrUnknownRefreshToken) {
		t.Fatalf("old refresh token should be revoked, got %v", err)
	}
}

func TestRefreshExpires(t *testing.T) {
	f := newFixture(t)
	id := f.register(t)
	ctx := context.Background()

	pair, err := f.svc.Login(ctx, id, "1234")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	f.mr.FastForward(25 * time.Hour)
	if _, err := f.svc.Refresh(ctx, pair.RefreshToken); !errors.Is(err, ErrUnknownRefreshToken) {
		t.Fatalf("expected expired refresh token, got %v", err)
	}
}

func TestLogoutRevokes(t *testing.T) {
	f := newFixture(t)
	id := f.register(t)
	ctx := context.Background()

	pair, err := f.svc.Login(ctx, id, "1234")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := f.svc.Logout(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if f.mr.Exists(refreshKeyPrefix + pair.RefreshToken) {
		t.Fatalf("refresh token still stored after logout")
	}
	if err := f.svc.Logout(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("second logout should be a no-op, got %v", err)
	}
}

func TestTokensRejectTamperingAndExpiry(t *testing.T) {
	tokens := NewTokens("secret-a", "gemwallet", time.Minute)
	signed, _, err := tokens.Issue("user-000000001")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	other := NewTokens("secret-b", "gemwallet", time.Minute)
	if _, err := other.Parse(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected signature failure, got %v", err)
	}

	tokens.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := tokens.Parse(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expiry failure, got %v", err)
	}
}

func TestMemoryRefreshStore(t *testing.T) {
	store := NewMemoryRefreshStore()
	ctx := context.Background()

	if err := store.Save(ctx, "tok", "user-000000001", time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}
	if id, err := store.Lookup(ctx, "tok"); err != nil || id != "user-000000001" {
		t.Fatalf("lookup: %q %v", id, err)
	}
	if err := store.Revoke(ctx, "tok"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := store.Lookup(ctx, "tok"); !errors.Is(err, ErrUnknownRefreshToken) {
		t.Fatalf("expected unknown token, got %v", err)
	}
}

func TestHandlerLoginStatus(t *testing.T) {
	f := newFixture(t)
	id := f.register(t)
	app := fiber.New()
	app.Post("/login", NewHandler(f.svc).Login)

	cases := map[string]int{
		`{"user_id":"` + id + `","pin":"1234"}`: http.StatusOK,
		`{"user_id":"` + id + `","pin":"9999"}`: http.StatusUnauthorized,
	}
	for body, want := range cases {
		req := httptest.NewRequest(fiber.MethodPost, "/login", strings.NewReader(body))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		if resp.StatusCode != want {
			t.Fatalf("body %s: expected %d, got %d", body, want, resp.StatusCode)
		}
	}
}
