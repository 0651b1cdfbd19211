package commands

import (
	"context"

	"filevault/internal/platform/database"
)

type MigrateCmd struct {
	Command string `arg:"" optional:"" default:"up" enum:"up,down,status" help:"Migration command (up, down, status)."`
}

func (c *MigrateCmd) Run(ctx context.Context, globals *Globals) error {
	_, log, db, err := bootstrap(ctx, globals)
	if err != nil {
		return err
	}
	defer db.Close()

	log.Info().Str("command", c.Command).Msg("Running migrations")
	if err := database.Migrate(ctx, db, c.Command); err != nil {
		return err
	}
	log.Info().Str("command", c.Command).Msg("Migrations finished")
	return nil
}
