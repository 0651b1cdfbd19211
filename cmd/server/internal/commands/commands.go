package commands

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"filevault/internal/platform/config"
	"filevault/internal/platform/database"
	"filevault/internal/platform/logger"

	"github.com/rs/zerolog"
)

type Globals struct {
	EnvFiles []string
	Version  string
}

// bootstrap loads configuration, builds the logger and opens the database.
// Callers own the returned *sql.DB.
func bootstrap(ctx context.Context, globals *Globals) (*config.Config, zerolog.Logger, *sql.DB, error) {
	cfg, err := config.Load(globals.EnvFiles...)
	if err != nil {
		return nil, zerolog.Nop(), nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.Setup(!cfg.IsProduction(), cfg.LogLevel)

	db, err := database.Connect(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		return nil, log, nil, err
	}
	return cfg, log, db, nil
}

func configureHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    8 * 1024, // 8KiB
	}
}
