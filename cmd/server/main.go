package main

import (
	"context"

	"filevault/cmd/server/internal/commands"

	"github.com/alecthomas/kong"
)

var (
	version = "dev"
	cli     struct {
		EnvFile []string            `help:"dotenv files to load before reading the environment." default:".env" type:"path"`
		Version kong.VersionFlag    `help:"Print version and exit."`
		Serve   commands.ServeCmd   `cmd:"" default:"1" help:"Start the HTTP API server."`
		Migrate commands.MigrateCmd `cmd:"" help:"Run database migrations."`
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("filevault"),
		kong.Description("User accounts and file metadata API."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{EnvFiles: cli.EnvFile, Version: version})
	cmd.FatalIfErrorf(err)
}
