package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/classroom-api/internal/models"
)

const classColumns = `id, name, teacher_id, students, created_at, updated_at`

// ClassRepository stores classes and their rosters.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a ClassRepository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// Create inserts a class.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	const query = `INSERT INTO classes (` + classColumns + `) VALUES (:id, :name, :teacher_id, :students, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// FindByID fetches a class by id.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	const query = `SELECT ` + classColumns + ` FROM classes WHERE id = $1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find class: %w", err)
	}
	return &class, nil
}

// ListByTeacher returns classes taught by teacherID.
func (r *ClassRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.Class, error) {
	const query = `SELECT ` + classColumns + ` FROM classes WHERE teacher_id = $1 ORDER BY created_at`
	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query, teacherID); err != nil {
		return nil, fmt.Errorf("list classes by teacher: %w", err)
	}
	return classes, nil
}

// ListByStudent returns classes whose roster contains studentID.
func (r *ClassRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Class, error) {
	const query = `SELECT ` + classColumns + ` FROM classes WHERE $1 = ANY(students) ORDER BY created_at`
	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query, studentID); err != nil {
		return nil, fmt.Errorf("list classes by student: %w", err)
	}
	return classes, nil
}

// AddStudent appends studentID to the roster unless already present. It
// reports whether the roster changed.
func (r *ClassRepository) AddStudent(ctx context.Context, classID, studentID string, updatedAt time.Time) (bool, error) {
	const query = `UPDATE classes SET students = array_append(students, $2::text), updated_at = $3 WHERE id = $1 AND NOT ($2 = ANY(students))`
	res, err := r.db.ExecContext(ctx, query, classID, studentID, updatedAt)
	if err != nil {
		return false, fmt.Errorf("add student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("add student: %w", err)
	}
	return affected > 0, nil
}
