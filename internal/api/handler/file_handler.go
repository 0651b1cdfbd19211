package handler

import (
	"encoding/json"
	"net/http"

	"filevault/internal/api/middleware"
	"filevault/internal/app/service"
	"filevault/internal/common"

	"github.com/go-chi/chi/v5"
)

type FileHandler struct {
	fileService *service.FileService
	verifier    middleware.TokenVerifier
	cookieName  string
}

func NewFileHandler(fs *service.FileService, verifier middleware.TokenVerifier, cookieName string) *FileHandler {
	return &FileHandler{fileService: fs, verifier: verifier, cookieName: cookieName}
}

// RegisterRoutes mounts the file routes; every one of them requires a session.
func (h *FileHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator(h.verifier, h.cookieName))
	r.Post("/", h.createFile)
	r.Get("/", h.listFiles)
	r.Get("/{fileID}", h.getFile)
	r.Delete("/{fileID}", h.deleteFile)
}

func (h *FileHandler) createFile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req service.CreateFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	f, err := h.fileService.Create(r.Context(), claims.Subject, req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, f)
}

func (h *FileHandler) listFiles(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	files, err := h.fileService.List(r.Context(), claims.Subject)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, files)
}

func (h *FileHandler) getFile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	f, err := h.fileService.Get(r.Context(), claims.Subject, chi.URLParam(r, "fileID"))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, f)
}

func (h *FileHandler) deleteFile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.fileService.Delete(r.Context(), claims.Subject, chi.URLParam(r, "fileID")); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
