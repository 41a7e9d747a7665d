package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/classroom-api/internal/models"
	appErrors "github.com/noah-isme/classroom-api/pkg/errors"
	"github.com/noah-isme/classroom-api/pkg/export"
)

type gradebookRepository interface {
	Gradebook(ctx context.Context, classID string) ([]models.GradebookRow, error)
}

type renderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

// ExportResult is a rendered gradebook ready to stream.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
}

var gradebookHeaders = []string{"Student", "Student ID", "Assignment", "Grade", "Feedback", "Submitted At"}

// ExportService renders class gradebooks as CSV or PDF.
type ExportService struct {
	classes   classReader
	gradebook gradebookRepository
	renderers map[string]renderer
	logger    *zap.Logger
}

// NewExportService constructs an ExportService with the CSV and PDF renderers.
func NewExportService(classes classReader, submissions gradebookRepository, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		classes:   classes,
		gradebook: submissions,
		renderers: map[string]renderer{
			"csv": export.NewCSVExporter(),
			"pdf": export.NewPDFExporter(),
		},
		logger: logger,
	}
}

// Gradebook renders every submission of the class for its teacher.
func (s *ExportService) Gradebook(ctx context.Context, claims *models.JWTClaims, classID, format string) (*ExportResult, error) {
	format = strings.ToLower(format)
	if format == "" {
		format = "csv"
	}
	r, ok := s.renderers[format]
	if !ok {
		return nil, fieldError("format", "unsupported export format", "must be one of csv, pdf")
	}
	if err := requireID("classId", classID); err != nil {
		return nil, err
	}
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		return nil, notFoundOr(err, "class not found", "failed to load class")
	}
	if class.TeacherID != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the class teacher can export grades")
	}

	rows, err := s.gradebook.Gradebook(ctx, classID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load gradebook")
	}

	data := export.Dataset{Title: "Gradebook - " + class.Name, Headers: gradebookHeaders}
	for _, row := range rows {
		grade := ""
		if row.Grade != nil {
			grade = strconv.FormatFloat(*row.Grade, 'f', -1, 64)
		}
		data.Rows = append(data.Rows, map[string]string{
			"Student":      row.StudentName,
			"Student ID":   row.StudentID,
			"Assignment":   row.AssignmentName,
			"Grade":        grade,
			"Feedback":     row.Feedback,
			"Submitted At": row.SubmittedAt.UTC().Format(time.RFC3339),
		})
	}

	body, err := r.Render(data)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render gradebook")
	}
	s.logger.Info("gradebook exported", zap.String("class_id", classID), zap.String("format", format), zap.Int("rows", len(rows)))
	return &ExportResult{
		Filename:    fmt.Sprintf("gradebook-%s.%s", classID, r.Extension()),
		ContentType: r.ContentType(),
		Body:        body,
	}, nil
}
