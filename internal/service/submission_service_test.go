package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/models"
	appErrors "github.com/noah-isme/classroom-api/pkg/errors"
)

const (
	assignmentID = "9d0e8c11-2a3b-4c5d-8e9f-000000000001"
	submissionID = "9d0e8c11-2a3b-4c5d-8e9f-000000000002"
)

func newSubmissionFixture() (*SubmissionService, *mockSubmissionRepo) {
	files := newMockFileRepo(&models.File{ID: assignmentID, ClassID: classID, UserID: teacherID, Type: models.FileTypeAssignment})
	subs := newMockSubmissionRepo(&models.Submission{
		ID:           submissionID,
		StudentID:    studentID,
		AssignmentID: assignmentID,
		File:         "uploads/1-answer.pdf",
		CreatedAt:    time.Now().UTC(),
	})
	return NewSubmissionService(subs, files, nil, nil), subs
}

func floatPtr(v float64) *float64 { return &v }

func TestGradeSubmission(t *testing.T) {
	svc, subs := newSubmissionFixture()

	sub, err := svc.Grade(context.Background(), teacherClaims(), submissionID, dto.GradeSubmissionRequest{Grade: floatPtr(87.5), Feedback: "Good work"})
	require.NoError(t, err)
	require.NotNil(t, sub.Grade)
	assert.Equal(t, 87.5, *sub.Grade)
	assert.Equal(t, "Good work", sub.Feedback)
	assert.Equal(t, 87.5, *subs.subs[submissionID].Grade)
}

func TestGradeSubmissionRules(t *testing.T) {
	svc, _ := newSubmissionFixture()

	_, err := svc.Grade(context.Background(), teacherClaims(), submissionID, dto.GradeSubmissionRequest{Grade: floatPtr(101)})
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)

	_, err = svc.Grade(context.Background(), teacherClaims(), submissionID, dto.GradeSubmissionRequest{})
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)

	other := &models.JWTClaims{UserID: otherID, Role: models.RoleTeacher}
	_, err = svc.Grade(context.Background(), other, submissionID, dto.GradeSubmissionRequest{Grade: floatPtr(50)})
	assert.Equal(t, http.StatusForbidden, appErrors.FromError(err).Status)

	_, err = svc.Grade(context.Background(), teacherClaims(), missingID, dto.GradeSubmissionRequest{Grade: floatPtr(50)})
	assert.Equal(t, "Submission not found", appErrors.FromError(err).Message)
}

func TestListSubmissions(t *testing.T) {
	svc, _ := newSubmissionFixture()

	mine, err := svc.Mine(context.Background(), studentClaims())
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	none, err := svc.Mine(context.Background(), &models.JWTClaims{UserID: otherID, Role: models.RoleStudent})
	require.NoError(t, err)
	assert.NotNil(t, none)

	all, err := svc.ListForAssignment(context.Background(), teacherClaims(), assignmentID)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = svc.ListForAssignment(context.Background(), studentClaims(), assignmentID)
	assert.Equal(t, http.StatusForbidden, appErrors.FromError(err).Status)
}
