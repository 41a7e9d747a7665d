package service

import (
	"bytes"
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-api/internal/models"
	appErrors "github.com/noah-isme/classroom-api/pkg/errors"
)

func newExportFixture() *ExportService {
	classes := newMockClassRepo(&models.Class{ID: classID, Name: "Biology", TeacherID: teacherID})
	subs := newMockSubmissionRepo()
	subs.gradebook = []models.GradebookRow{
		{StudentID: studentID, StudentName: "Aline", AssignmentName: "Cells", Grade: floatPtr(92), Feedback: "Great", SubmittedAt: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)},
		{StudentID: studentID, StudentName: "Aline", AssignmentName: "Genes", SubmittedAt: time.Date(2024, 3, 8, 9, 0, 0, 0, time.UTC)},
	}
	return NewExportService(classes, subs, nil)
}

func TestGradebookCSV(t *testing.T) {
	svc := newExportFixture()

	result, err := svc.Gradebook(context.Background(), teacherClaims(), classID, "")
	require.NoError(t, err)
	assert.Equal(t, "gradebook-"+classID+".csv", result.Filename)
	assert.Contains(t, result.ContentType, "text/csv")

	body := string(result.Body)
	assert.Contains(t, body, "Student,Student ID,Assignment,Grade,Feedback,Submitted At")
	assert.Contains(t, body, "Aline,"+studentID+",Cells,92,Great,2024-03-01T09:00:00Z")
	assert.Contains(t, body, "Aline,"+studentID+",Genes,,,2024-03-08T09:00:00Z")
}

func TestGradebookPDF(t *testing.T) {
	svc := newExportFixture()

	result, err := svc.Gradebook(context.Background(), teacherClaims(), classID, "PDF")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, bytes.HasPrefix(result.Body, []byte("%PDF")))
}

func TestGradebookRules(t *testing.T) {
	svc := newExportFixture()

	_, err := svc.Gradebook(context.Background(), teacherClaims(), classID, "xlsx")
	assert.Contains(t, appErrors.FromError(err).Details, "format")

	other := &models.JWTClaims{UserID: otherID, Role: models.RoleTeacher}
	_, err = svc.Gradebook(context.Background(), other, classID, "csv")
	assert.Equal(t, http.StatusForbidden, appErrors.FromError(err).Status)

	_, err = svc.Gradebook(context.Background(), teacherClaims(), missingID, "csv")
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
}
