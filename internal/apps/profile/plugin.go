package profile

import (
	"github.com/ahmetcoskunkizilkaya/nutrisnap-backend/internal/config"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ProfilePlugin struct{}

func New() *ProfilePlugin {
	return &ProfilePlugin{}
}

func (p *ProfilePlugin) ID() string { return "profile" }

// Models is empty: users is a shared table migrated at startup.
func (p *ProfilePlugin) Models() []interface{} {
	return nil
}

func (p *ProfilePlugin) RegisterRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config) {
	handler := NewProfileHandler(NewProfileService(db))

	router.Get("/profile", handler.Get)
	router.Put("/profile", handler.Update)
}
