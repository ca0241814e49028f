package cli

import (
	"fmt"
	"io"

	"github.com/ahmetcoskunkizilkaya/nutrisnap-backend/internal/apps/nutrition"
	"github.com/ahmetcoskunkizilkaya/nutrisnap-backend/internal/apps/profile"
	"github.com/ahmetcoskunkizilkaya/nutrisnap-backend/internal/database"
)

type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx *Context, out io.Writer) error {
	db, err := ctx.DB()
	if err != nil {
		return err
	}

	if err := database.MigrateShared(db); err != nil {
		return fmt.Errorf("shared migration: %w", err)
	}
	fmt.Fprintln(out, "migrated shared models")

	for _, p := range []interface {
		ID() string
		Models() []interface{}
	}{nutrition.NewWithProvider(nil), profile.New()} {
		if err := database.MigrateModels(db, p.Models()); err != nil {
			return fmt.Errorf("%s migration: %w", p.ID(), err)
		}
		fmt.Fprintf(out, "migrated %s (%d models)\n", p.ID(), len(p.Models()))
	}
	return nil
}
