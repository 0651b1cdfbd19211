package service

import (
	"context"
	"fmt"
	"path"
	"strings"

	"filevault/internal/common"
	"filevault/internal/domain/model"
	"filevault/internal/domain/repository"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/rs/zerolog"
)

type FileService struct {
	fileRepo   repository.FileRepository
	uploadRoot string
}

func NewFileService(fileRepo repository.FileRepository, uploadRoot string) *FileService {
	return &FileService{fileRepo: fileRepo, uploadRoot: uploadRoot}
}

type CreateFileRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

func (r CreateFileRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Type, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Size, validation.Min(int64(0))),
	)
}

func (s *FileService) Create(ctx context.Context, ownerID string, req CreateFileRequest) (*model.File, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	f := &model.File{
		ID:         id,
		Name:       req.Name,
		Type:       req.Type,
		Size:       req.Size,
		Path:       s.storagePath(ownerID, id, req.Name),
		UploadedBy: ownerID,
	}

	created, err := s.fileRepo.Create(ctx, f)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("owner_id", ownerID).Msg("file metadata insert failed")
		return nil, fmt.Errorf("create file: %w", err)
	}
	return created, nil
}

func (s *FileService) List(ctx context.Context, ownerID string) ([]model.File, error) {
	files, err := s.fileRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("owner_id", ownerID).Msg("file list failed")
		return nil, fmt.Errorf("list files: %w", err)
	}
	return files, nil
}

func (s *FileService) Get(ctx context.Context, ownerID, fileID string) (*model.File, error) {
	if err := uuid.Validate(fileID); err != nil {
		return nil, common.NewPublicError(common.ErrBadRequest, "Invalid file id")
	}
	f, err := s.fileRepo.FindByID(ctx, ownerID, fileID)
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	return f, nil
}

func (s *FileService) Delete(ctx context.Context, ownerID, fileID string) error {
	if err := uuid.Validate(fileID); err != nil {
		return common.NewPublicError(common.ErrBadRequest, "Invalid file id")
	}
	if err := s.fileRepo.Delete(ctx, ownerID, fileID); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	zerolog.Ctx(ctx).Info().Str("owner_id", ownerID).Str("file_id", fileID).Msg("file deleted")
	return nil
}

// storagePath is <root>/<owner>/<file id>-<slugged stem><ext>. The id prefix
// keeps paths unique; the slug keeps them filesystem-safe.
func (s *FileService) storagePath(ownerID, fileID, name string) string {
	ext := ""
	if e := slug.Make(path.Ext(name)); e != "" {
		ext = "." + e
	}
	stem := slug.Make(strings.TrimSuffix(name, path.Ext(name)))
	if stem == "" {
		stem = "file"
	}
	return path.Join(s.uploadRoot, ownerID, fileID+"-"+stem+ext)
}
