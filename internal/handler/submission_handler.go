package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/pkg/i18n"
	"github.com/noah-isme/classroom-api/pkg/response"
)

type submissionService interface {
	Mine(ctx context.Context, claims *models.JWTClaims) ([]models.Submission, error)
	ListForAssignment(ctx context.Context, claims *models.JWTClaims, fileID string) ([]models.Submission, error)
	Grade(ctx context.Context, claims *models.JWTClaims, submissionID string, req dto.GradeSubmissionRequest) (*models.Submission, error)
}

// SubmissionHandler exposes submission listing and grading.
type SubmissionHandler struct {
	submissions submissionService
}

// NewSubmissionHandler constructs a submission handler.
func NewSubmissionHandler(submissions submissionService) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions}
}

// Mine godoc
// @Summary List my submissions
// @Tags Submissions
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /submissions/mine [get]
func (h *SubmissionHandler) Mine(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	subs, err := h.submissions.Mine(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, subs, map[string]interface{}{"count": len(subs)})
}

// ListForAssignment godoc
// @Summary List submissions for an assignment
// @Tags Submissions
// @Security BearerAuth
// @Produce json
// @Param fileId path string true "Assignment file ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /submissions/assignment/{fileId} [get]
func (h *SubmissionHandler) ListForAssignment(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	subs, err := h.submissions.ListForAssignment(c.Request.Context(), claims, c.Param("fileId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, subs, map[string]interface{}{"count": len(subs)})
}

// Grade godoc
// @Summary Grade a submission
// @Tags Submissions
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param submissionId path string true "Submission ID"
// @Param payload body dto.GradeSubmissionRequest true "Grade payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /submissions/{submissionId}/grade [put]
func (h *SubmissionHandler) Grade(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.GradeSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid grade payload"))
		return
	}

	sub, err := h.submissions.Grade(c.Request.Context(), claims, c.Param("submissionId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusOK, sub, i18n.T(c, "submission.graded"))
}
