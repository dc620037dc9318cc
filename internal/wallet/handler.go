package wallet

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type creditRequest struct {
	Currency string `json:"currency"`
	Amount   int64  `json:"amount"`
}

// Response is the API rendering of a wallet.
type Response struct {
	ID           string `json:"wallet_id"`
	UserID       string `json:"user_id"`
	HardCurrency int64  `json:"hardCurrency"`
	SoftCurrency int64  `json:"softCurrency"`
}

// NewResponse renders a wallet for API payloads.
func NewResponse(w Wallet) Response {
	return Response{
		ID:           w.ID,
		UserID:       w.UserID,
		HardCurrency: w.HardCurrency,
		SoftCurrency: w.SoftCurrency,
	}
}

// Credit adds balance to the wallet of the user in the path.
func (h *Handler) Credit(c *fiber.Ctx) error {
	var req creditRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	w, err := h.service.Credit(c.UserContext(), c.Params("userId"), Currency(req.Currency), req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrInvalidCurrency), errors.Is(err, ErrBalanceOverflow):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrNotFound):
			return fiber.NewError(http.StatusNotFound, err.Error())
		case errors.Is(err, ErrLockNotAvailable):
			return fiber.NewError(http.StatusConflict, "wallet busy, retry later")
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"data": NewResponse(w)})
}
