package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/gemwallet/internal/transfer"
)

// RegisterTransferRoutes wires the transfer endpoint behind optional idempotency.
func RegisterTransferRoutes(r fiber.Router, h *transfer.Handler, idempotency fiber.Handler) {
	if idempotency != nil {
		r.Post("/transfers", idempotency, h.Create)
		return
	}
	r.Post("/transfers", h.Create)
}
