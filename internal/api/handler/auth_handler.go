package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"filevault/internal/api/middleware"
	"filevault/internal/app/service"
	"filevault/internal/common"

	"github.com/go-chi/chi/v5"
)

type CookieConfig struct {
	Name   string
	Secure bool
}

type AuthHandler struct {
	authService *service.AuthService
	verifier    middleware.TokenVerifier
	cookie      CookieConfig
}

func NewAuthHandler(authService *service.AuthService, verifier middleware.TokenVerifier, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{authService: authService, verifier: verifier, cookie: cookie}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/register", h.register)
	r.Post("/login", h.login)
	r.Post("/logout", h.logout)

	r.Group(func(protected chi.Router) {
		protected.Use(middleware.Authenticator(h.verifier, h.cookie.Name))
		protected.Get("/profile", h.profile)
		protected.Get("/me", h.me)
	})
}

type profileResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	user, err := h.authService.Register(r.Context(), req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, user)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	res, err := h.authService.Login(r.Context(), req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    res.Token,
		Path:     "/",
		Expires:  res.ExpiresAt,
		MaxAge:   int(res.TTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteStrictMode,
	})
	common.RespondWithMessage(w, http.StatusOK, "Login successful")
}

// logout only clears the cookie; the token itself stays valid until it
// expires.
func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteStrictMode,
	})
	common.RespondWithMessage(w, http.StatusOK, "Logged out successfully")
}

func (h *AuthHandler) profile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	common.RespondWithJSON(w, http.StatusOK, profileResponse{
		ID:    claims.Subject,
		Email: claims.Email,
		Role:  string(claims.Role),
	})
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	user, err := h.authService.CurrentUser(r.Context(), claims.Subject)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, user)
}
