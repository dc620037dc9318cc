package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// UserIDLocal is the fiber.Ctx local holding the authenticated user id.
const UserIDLocal = "user_id"

// TokenVerifier resolves an access token into the user id it was issued to.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// JWTAuth returns a middleware that validates bearer access tokens.
func JWTAuth(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		scheme, token, ok := strings.Cut(authz, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		userID, err := verifier.Verify(strings.TrimSpace(token))
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}
		c.Locals(UserIDLocal, userID)
		return c.Next()
	}
}

// SelfOnly rejects requests whose :userId path parameter is not the authenticated user.
func SelfOnly(c *fiber.Ctx) error {
	uid, _ := c.Locals(UserIDLocal).(string)
	if uid == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthenticated")
	}
	if c.Params("userId") != uid {
		return fiber.NewError(http.StatusForbidden, "cannot act on another user's wallet")
	}
	return c.Next()
}
