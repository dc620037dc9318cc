package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/gemwallet/internal/auth"
)

// RegisterAuthRoutes wires login, refresh and logout. Extra handlers run before login only.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, loginGuards ...fiber.Handler) {
	group := r.Group("/auth")
	group.Post("/login", append(loginGuards, h.Login)...)
	group.Post("/refresh", h.Refresh)
	group.Post("/logout", h.Logout)
}
