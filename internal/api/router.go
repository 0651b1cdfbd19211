package api

import (
	"context"
	"net/http"
	"time"

	"filevault/internal/api/handler"
	"filevault/internal/api/middleware"
	"filevault/internal/app/service"
	"filevault/internal/common"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

const defaultRequestTimeout = 30 * time.Second

type Pinger interface {
	PingContext(ctx context.Context) error
}

type RouterConfig struct {
	Logger         zerolog.Logger
	DB             Pinger
	AuthService    *service.AuthService
	FileService    *service.FileService
	Tokens         middleware.TokenVerifier
	Cookie         handler.CookieConfig
	RequestTimeout time.Duration
}

func NewRouter(cfg RouterConfig) http.Handler {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RealIP)
	r.Use(hlog.NewHandler(cfg.Logger))
	r.Use(hlog.RequestIDHandler("req_id", "X-Request-Id"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(timeout))

	r.Get("/health", healthHandler(cfg.DB))

	authHandler := handler.NewAuthHandler(cfg.AuthService, cfg.Tokens, cfg.Cookie)
	r.Route("/auth", authHandler.RegisterRoutes)

	fileHandler := handler.NewFileHandler(cfg.FileService, cfg.Tokens, cfg.Cookie.Name)
	r.Route("/files", fileHandler.RegisterRoutes)

	return r
}

func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				hlog.FromRequest(r).Warn().Err(err).Msg("health check: database unreachable")
				common.RespondWithError(w, http.StatusServiceUnavailable, "Database unavailable")
				return
			}
		}
		w.Write([]byte("OK"))
	}
}
