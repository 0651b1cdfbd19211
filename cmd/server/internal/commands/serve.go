package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"filevault/internal/api"
	"filevault/internal/api/handler"
	"filevault/internal/app/service"
	"filevault/internal/common/security"
	"filevault/internal/domain/repository"
	"filevault/internal/platform/cache"
	"filevault/internal/platform/database"
)

type ServeCmd struct {
	AutoMigrate     bool          `help:"Apply pending migrations before serving." env:"AUTO_MIGRATE"`
	ShutdownTimeout time.Duration `help:"Grace period for in-flight requests on shutdown." default:"15s"`
}

func (c *ServeCmd) Run(ctx context.Context, globals *Globals) error {
	cfg, log, db, err := bootstrap(ctx, globals)
	if err != nil {
		return err
	}
	defer db.Close()

	log.Info().Str("version", globals.Version).Str("env", cfg.Env).Msg("Starting server")

	if c.AutoMigrate {
		if err := database.Migrate(ctx, db, "up"); err != nil {
			return err
		}
		log.Info().Msg("Database migrations completed")
	}

	tokens, err := security.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.JWTTTL)
	if err != nil {
		return fmt.Errorf("token issuer: %w", err)
	}

	userRepo := repository.NewPgUserRepository(db)
	if cfg.CacheEnabled() {
		rdb, err := cache.Connect(ctx, cache.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, user cache disabled")
		} else {
			defer rdb.Close()
			userRepo = repository.NewCachedUserRepository(userRepo, rdb, cfg.UserCacheTTL)
			log.Info().Str("addr", cfg.RedisAddr).Msg("User cache enabled")
		}
	}
	fileRepo := repository.NewPgFileRepository(db)

	authService := service.NewAuthService(userRepo, security.NewPasswordHasher(cfg.BcryptCost), tokens)
	fileService := service.NewFileService(fileRepo, cfg.UploadRoot)

	router := api.NewRouter(api.RouterConfig{
		Logger:         log,
		DB:             db,
		AuthService:    authService,
		FileService:    fileService,
		Tokens:         tokens,
		Cookie:         handler.CookieConfig{Name: cfg.CookieName, Secure: cfg.IsProduction()},
		RequestTimeout: cfg.RequestTimeout,
	})

	server := configureHTTPServer(":"+cfg.APIPort, router)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("Listening for HTTP connections")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", server.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), c.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info().Msg("Server stopped")
	return nil
}
