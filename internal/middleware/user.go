package middleware

import (
	"log/slog"
	"sync"

	"github.com/ahmetcoskunkizilkaya/nutrisnap-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/nutrisnap-backend/internal/identity"
	"github.com/ahmetcoskunkizilkaya/nutrisnap-backend/internal/models"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EnsureUser creates the users row for the token subject on first contact so
// owned rows always have a parent. Must run after JWTProtected.
func EnsureUser(db *gorm.DB) fiber.Handler {
	var seen sync.Map

	return func(c *fiber.Ctx) error {
		claims, err := identity.GetClaims(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error:   true,
				Message: "Unauthorized: invalid token subject",
			})
		}
		if _, ok := seen.Load(claims.UserID); ok {
			return c.Next()
		}

		user := models.User{ID: claims.UserID, Email: claims.Email, FullName: claims.FullName}
		err = db.WithContext(c.UserContext()).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
			Create(&user).Error
		if err != nil {
			slog.Error("failed to ensure user row", "user_id", claims.UserID.String(), "error", err.Error())
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error:   true,
				Message: "Internal server error",
			})
		}

		seen.Store(claims.UserID, struct{}{})
		return c.Next()
	}
}
