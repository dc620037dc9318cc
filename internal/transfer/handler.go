package transfer

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/gemwallet/internal/wallet"
)

// Handler exposes the transfer endpoint.
type Handler struct {
	service *Service
}

// NewHandler constructs a transfer handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type transferRequest struct {
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
}

// Create moves currency from the authenticated sender to the receiver.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.SenderID == "" || req.ReceiverID == "" || req.Currency == "" {
		return fiber.NewError(http.StatusBadRequest, "sender_id, receiver_id, amount and currency are required")
	}
	if uid, _ := c.Locals("user_id").(string); uid != "" && uid != req.SenderID {
		return fiber.NewError(http.StatusForbidden, "sender must be the authenticated user")
	}

	err := h.service.Transfer(c.UserContext(), Request{
		Currency:    wallet.Currency(req.Currency),
		GiverID:     req.SenderID,
		RecipientID: req.ReceiverID,
		Amount:      req.Amount,
	})
	if err != nil {
		return fiber.NewError(StatusFor(err), err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"data": true})
}

// StatusFor maps a transfer failure to an HTTP status code.
func StatusFor(err error) int {
	switch KindOf(err) {
	case KindInvalidCurrency, KindInvalidAmount, KindSelfTransfer, KindInsufficientFunds, KindBalanceOverflow:
		return http.StatusBadRequest
	case KindUserInfoUnavailable:
		return http.StatusNotFound
	case KindLockAcquisitionFailed:
		return http.StatusConflict
	case KindMaxRetryExceeded:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
