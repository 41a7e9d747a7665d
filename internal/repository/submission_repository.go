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

const submissionColumns = `id, student_id, assignment_id, file, grade, feedback, created_at, updated_at`

// SubmissionRepository stores student submissions.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository constructs a SubmissionRepository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Create inserts a submission.
func (r *SubmissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	const query = `INSERT INTO submissions (` + submissionColumns + `) VALUES (:id, :student_id, :assignment_id, :file, :grade, :feedback, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, submission); err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

// FindByID fetches a submission by id.
func (r *SubmissionRepository) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	const query = `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`
	var submission models.Submission
	if err := r.db.GetContext(ctx, &submission, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find submission: %w", err)
	}
	return &submission, nil
}

// ListByStudent returns a student's submissions, newest first.
func (r *SubmissionRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Submission, error) {
	const query = `SELECT ` + submissionColumns + ` FROM submissions WHERE student_id = $1 ORDER BY created_at DESC`
	var submissions []models.Submission
	if err := r.db.SelectContext(ctx, &submissions, query, studentID); err != nil {
		return nil, fmt.Errorf("list submissions by student: %w", err)
	}
	return submissions, nil
}

// ListByAssignment returns every submission for an assignment file.
func (r *SubmissionRepository) ListByAssignment(ctx context.Context, assignmentID string) ([]models.Submission, error) {
	const query = `SELECT ` + submissionColumns + ` FROM submissions WHERE assignment_id = $1 ORDER BY created_at`
	var submissions []models.Submission
	if err := r.db.SelectContext(ctx, &submissions, query, assignmentID); err != nil {
		return nil, fmt.Errorf("list submissions by assignment: %w", err)
	}
	return submissions, nil
}

// UpdateGrade stores a grade and feedback.
func (r *SubmissionRepository) UpdateGrade(ctx context.Context, id string, grade float64, feedback string, updatedAt time.Time) error {
	const query = `UPDATE submissions SET grade = $2, feedback = $3, updated_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, grade, feedback, updatedAt)
	if err != nil {
		return fmt.Errorf("update grade: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Gradebook lists submissions of every assignment in a class with student and
// assignment names. Submissions whose student was deleted keep an empty name.
func (r *SubmissionRepository) Gradebook(ctx context.Context, classID string) ([]models.GradebookRow, error) {
	const query = `SELECT s.student_id, COALESCE(u.name, '') AS student_name, s.assignment_id, f.name AS assignment_name, s.grade, s.feedback, s.created_at
FROM submissions s
JOIN files f ON f.id = s.assignment_id
LEFT JOIN users u ON u.id = s.student_id
WHERE f.class_id = $1
ORDER BY student_name, f.created_at`
	var rows []models.GradebookRow
	if err := r.db.SelectContext(ctx, &rows, query, classID); err != nil {
		return nil, fmt.Errorf("load gradebook: %w", err)
	}
	return rows, nil
}
