package user

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/gemwallet/internal/wallet"
)

// Handler exposes user endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a user HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type registerRequest struct {
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	PIN       string `json:"pin"`
}

type profileResponse struct {
	ID        string          `json:"id"`
	Firstname string          `json:"firstname"`
	Lastname  string          `json:"lastname"`
	Wallet    wallet.Response `json:"wallet"`
}

func newProfileResponse(p Profile) profileResponse {
	return profileResponse{
		ID:        p.User.ID,
		Firstname: p.User.Firstname,
		Lastname:  p.User.Lastname,
		Wallet:    wallet.NewResponse(p.Wallet),
	}
}

// Register handles user onboarding.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	profile, err := h.service.Register(c.UserContext(), Registration{Firstname: req.Firstname, Lastname: req.Lastname, PIN: req.PIN})
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": newProfileResponse(profile)})
}

// List returns all users.
func (h *Handler) List(c *fiber.Ctx) error {
	profiles, err := h.service.List(c.UserContext())
	if err != nil {
		return mapError(err)
	}
	out := make([]profileResponse, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, newProfileResponse(p))
	}
	return c.JSON(fiber.Map{"data": out})
}

// Get returns one user by the :userId path parameter.
func (h *Handler) Get(c *fiber.Ctx) error {
	profile, err := h.service.Get(c.UserContext(), c.Params("userId"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(fiber.Map{"data": newProfileResponse(profile)})
}

// Delete removes a user and its wallet.
func (h *Handler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("userId")); err != nil {
		return mapError(err)
	}
	return c.JSON(fiber.Map{"data": true})
}

// ValidateIDParam rejects requests whose :userId path parameter is malformed.
func ValidateIDParam(c *fiber.Ctx) error {
	if err := ValidateID(c.Params("userId")); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.Next()
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidUserID), errors.Is(err, ErrInvalidPIN), errors.Is(err, ErrInvalidName):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound), errors.Is(err, wallet.ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrExists):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, wallet.ErrLockNotAvailable):
		return fiber.NewError(http.StatusConflict, "wallet busy, retry later")
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
