package profile

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/nutrisnap-backend/internal/identity"
	"github.com/ahmetcoskunkizilkaya/nutrisnap-backend/internal/validation"
	"github.com/gofiber/fiber/v2"
)

type UpdateProfileRequest struct {
	FullName string `json:"full_name" validate:"required,min=1,max=120"`
}

type ProfileHandler struct {
	service *ProfileService
}

func NewProfileHandler(service *ProfileService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

func (h *ProfileHandler) Get(c *fiber.Ctx) error {
	claims, err := identity.GetClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": true, "message": "Invalid user ID"})
	}

	user, err := h.service.GetOrCreate(c.UserContext(), claims)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": true, "message": "Failed to load profile"})
	}
	return c.JSON(user)
}

func (h *ProfileHandler) Update(c *fiber.Ctx) error {
	claims, err := identity.GetClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": true, "message": "Invalid user ID"})
	}

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": "Invalid request body"})
	}
	if err := validation.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": err.Error()})
	}

	if _, err := h.service.GetOrCreate(c.UserContext(), claims); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": true, "message": "Failed to load profile"})
	}

	user, err := h.service.UpdateFullName(c.UserContext(), claims.UserID, req.FullName)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidFullName):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": err.Error()})
		case errors.Is(err, ErrProfileNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": true, "message": err.Error()})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": true, "message": "Failed to update profile"})
		}
	}
	return c.JSON(user)
}
