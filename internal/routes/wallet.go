package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/gemwallet/internal/middleware"
	"github.com/congo-pay/gemwallet/internal/user"
	"github.com/congo-pay/gemwallet/internal/wallet"
)

// RegisterWalletRoutes wires wallet mutation endpoints. Callers may only credit their own wallet.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler) {
	r.Post("/users/:userId/credit", user.ValidateIDParam, middleware.SelfOnly, h.Credit)
}
