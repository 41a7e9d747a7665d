package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/classroom-api/internal/models"
)

const fileColumns = `id, name, path, class_id, user_id, type, created_at, updated_at`

// FileRepository stores uploaded file metadata.
type FileRepository struct {
	db *sqlx.DB
}

// NewFileRepository constructs a FileRepository.
func NewFileRepository(db *sqlx.DB) *FileRepository {
	return &FileRepository{db: db}
}

// Create inserts file metadata.
func (r *FileRepository) Create(ctx context.Context, file *models.File) error {
	const query = `INSERT INTO files (` + fileColumns + `) VALUES (:id, :name, :path, :class_id, :user_id, :type, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, file); err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	return nil
}

// FindByID fetches a file by id.
func (r *FileRepository) FindByID(ctx context.Context, id string) (*models.File, error) {
	const query = `SELECT ` + fileColumns + ` FROM files WHERE id = $1`
	var file models.File
	if err := r.db.GetContext(ctx, &file, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find file: %w", err)
	}
	return &file, nil
}

// ListByClass returns files of a class, oldest first.
func (r *FileRepository) ListByClass(ctx context.Context, classID string) ([]models.File, error) {
	const query = `SELECT ` + fileColumns + ` FROM files WHERE class_id = $1 ORDER BY created_at`
	var files []models.File
	if err := r.db.SelectContext(ctx, &files, query, classID); err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	return files, nil
}

// Update persists name and type changes.
func (r *FileRepository) Update(ctx context.Context, file *models.File) error {
	const query = `UPDATE files SET name = :name, type = :type, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, file)
	if err != nil {
		return fmt.Errorf("update file: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes file metadata. Submissions referencing it are left alone.
func (r *FileRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM files WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
