package cli

import (
	"fmt"

	"github.com/ahmetcoskunkizilkaya/nutrisnap-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/nutrisnap-backend/internal/database"
	"gorm.io/gorm"
)

// Context is shared by every command.
type Context struct {
	Config *config.Config

	// OpenDB connects lazily so commands that never touch storage work
	// without database credentials.
	OpenDB func(cfg *config.Config) (*gorm.DB, error)

	db *gorm.DB
}

func (c *Context) DB() (*gorm.DB, error) {
	if c.db != nil {
		return c.db, nil
	}
	open := c.OpenDB
	if open == nil {
		open = connectPostgres
	}
	db, err := open(c.Config)
	if err != nil {
		return nil, err
	}
	c.db = db
	return db, nil
}

func connectPostgres(cfg *config.Config) (*gorm.DB, error) {
	if err := database.Connect(cfg); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return database.DB, nil
}
