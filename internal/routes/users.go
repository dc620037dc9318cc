package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/gemwallet/internal/user"
)

// RegisterUserRoutes wires user management endpoints.
func RegisterUserRoutes(r fiber.Router, h *user.Handler) {
	group := r.Group("/users")
	group.Post("/", h.Register)
	group.Get("/", h.List)
	group.Get("/:userId", user.ValidateIDParam, h.Get)
	group.Delete("/:userId", user.ValidateIDParam, h.Delete)
}
