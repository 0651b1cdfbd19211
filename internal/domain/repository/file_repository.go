package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"filevault/internal/common"
	"filevault/internal/domain/model"
)

// FileRepository stores file metadata. Every read and delete is scoped to the
// owning user; another user's file behaves as if it did not exist.
type FileRepository interface {
	Create(ctx context.Context, file *model.File) (*model.File, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.File, error)
	FindByID(ctx context.Context, ownerID, id string) (*model.File, error)
	Delete(ctx context.Context, ownerID, id string) error
}

type pgFileRepository struct {
	db *sql.DB
}

func NewPgFileRepository(db *sql.DB) FileRepository {
	return &pgFileRepository{db: db}
}

const fileColumns = `id, name, type, size, path, uploaded_at, updated_at, uploaded_by`

func (r *pgFileRepository) Create(ctx context.Context, f *model.File) (*model.File, error) {
	query := `INSERT INTO file (id, name, type, size, path, uploaded_by)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING uploaded_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, f.ID, f.Name, f.Type, f.Size, f.Path, f.UploadedBy).
		Scan(&f.UploadedAt, &f.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("pgFileRepository.Create: %w", mapPostgresError(err))
	}
	return f, nil
}

func (r *pgFileRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.File, error) {
	query := `SELECT ` + fileColumns + ` FROM file WHERE uploaded_by = $1 ORDER BY uploaded_at DESC, id`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("pgFileRepository.ListByOwner: %w", mapPostgresError(err))
	}
	defer rows.Close()

	files := []model.File{}
	for rows.Next() {
		var f model.File
		if err := rows.Scan(&f.ID, &f.Name, &f.Type, &f.Size, &f.Path, &f.UploadedAt, &f.UpdatedAt, &f.UploadedBy); err != nil {
			return nil, fmt.Errorf("pgFileRepository.ListByOwner scan: %w", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgFileRepository.ListByOwner rows: %w", err)
	}
	return files, nil
}

func (r *pgFileRepository) FindByID(ctx context.Context, ownerID, id string) (*model.File, error) {
	query := `SELECT ` + fileColumns + ` FROM file WHERE id = $1 AND uploaded_by = $2`
	f := &model.File{}
	err := r.db.QueryRowContext(ctx, query, id, ownerID).
		Scan(&f.ID, &f.Name, &f.Type, &f.Size, &f.Path, &f.UploadedAt, &f.UpdatedAt, &f.UploadedBy)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgFileRepository.FindByID: %w", mapPostgresError(err))
	}
	return f, nil
}

func (r *pgFileRepository) Delete(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM file WHERE id = $1 AND uploaded_by = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("pgFileRepository.Delete: %w", mapPostgresError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgFileRepository.Delete rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
