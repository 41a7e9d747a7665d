package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/models"
	appErrors "github.com/noah-isme/classroom-api/pkg/errors"
)

type submissionRepository interface {
	FindByID(ctx context.Context, id string) (*models.Submission, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Submission, error)
	ListByAssignment(ctx context.Context, assignmentID string) ([]models.Submission, error)
	UpdateGrade(ctx context.Context, id string, grade float64, feedback string, updatedAt time.Time) error
}

type fileReader interface {
	FindByID(ctx context.Context, id string) (*models.File, error)
}

// SubmissionService lists and grades submissions.
type SubmissionService struct {
	submissions submissionRepository
	files       fileReader
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewSubmissionService constructs a SubmissionService.
func NewSubmissionService(submissions submissionRepository, files fileReader, validate *validator.Validate, logger *zap.Logger) *SubmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SubmissionService{submissions: submissions, files: files, validator: validate, logger: logger}
}

// Mine lists the caller's own submissions.
func (s *SubmissionService) Mine(ctx context.Context, claims *models.JWTClaims) ([]models.Submission, error) {
	subs, err := s.submissions.ListByStudent(ctx, claims.UserID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list submissions")
	}
	if subs == nil {
		subs = []models.Submission{}
	}
	return subs, nil
}

// ListForAssignment returns the submissions of an assignment to its uploader.
func (s *SubmissionService) ListForAssignment(ctx context.Context, claims *models.JWTClaims, fileID string) ([]models.Submission, error) {
	if _, err := s.ownedAssignment(ctx, claims, fileID); err != nil {
		return nil, err
	}
	subs, err := s.submissions.ListByAssignment(ctx, fileID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list submissions")
	}
	if subs == nil {
		subs = []models.Submission{}
	}
	return subs, nil
}

// Grade records a grade and feedback. Only the teacher who uploaded the
// assignment may grade it.
func (s *SubmissionService) Grade(ctx context.Context, claims *models.JWTClaims, submissionID string, req dto.GradeSubmissionRequest) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid grade payload")
	}
	if err := requireID("submissionId", submissionID); err != nil {
		return nil, err
	}
	sub, err := s.submissions.FindByID(ctx, submissionID)
	if err != nil {
		return nil, notFoundOr(err, "Submission not found", "failed to load submission")
	}
	if _, err := s.ownedAssignment(ctx, claims, sub.AssignmentID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.submissions.UpdateGrade(ctx, sub.ID, *req.Grade, req.Feedback, now); err != nil {
		return nil, notFoundOr(err, "Submission not found", "failed to grade submission")
	}
	grade := *req.Grade
	sub.Grade = &grade
	sub.Feedback = req.Feedback
	sub.UpdatedAt = now

	s.logger.Info("submission graded", zap.String("submission_id", sub.ID), zap.Float64("grade", grade))
	return sub, nil
}

func (s *SubmissionService) ownedAssignment(ctx context.Context, claims *models.JWTClaims, fileID string) (*models.File, error) {
	if err := requireID("fileId", fileID); err != nil {
		return nil, err
	}
	file, err := s.files.FindByID(ctx, fileID)
	if err != nil {
		return nil, notFoundOr(err, "Assignment not found", "failed to load assignment")
	}
	if file.UserID != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "You are not authorized to view submissions for this assignment")
	}
	return file, nil
}
