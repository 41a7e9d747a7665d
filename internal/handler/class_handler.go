package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/internal/service"
	"github.com/noah-isme/classroom-api/pkg/i18n"
	"github.com/noah-isme/classroom-api/pkg/response"
)

type classService interface {
	Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateClassRequest) (*models.Class, error)
	List(ctx context.Context, claims *models.JWTClaims) ([]models.Class, error)
	Get(ctx context.Context, claims *models.JWTClaims, classID string) (*models.Class, error)
	AddStudent(ctx context.Context, claims *models.JWTClaims, classID string, req dto.AddStudentRequest) (*models.Class, error)
}

type gradebookExporter interface {
	Gradebook(ctx context.Context, claims *models.JWTClaims, classID, format string) (*service.ExportResult, error)
}

// ClassHandler exposes class and enrollment endpoints.
type ClassHandler struct {
	classes  classService
	exporter gradebookExporter
}

// NewClassHandler constructs a class handler.
func NewClassHandler(classes classService, exporter gradebookExporter) *ClassHandler {
	return &ClassHandler{classes: classes, exporter: exporter}
}

// Create godoc
// @Summary Create class
// @Tags Classes
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body dto.CreateClassRequest true "Class payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /classes [post]
func (h *ClassHandler) Create(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid class payload"))
		return
	}

	class, err := h.classes.Create(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, class, i18n.T(c, "class.created"))
}

// List godoc
// @Summary List classes
// @Description Classes taught by a teacher or attended by a student
// @Tags Classes
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /classes [get]
func (h *ClassHandler) List(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	classes, err := h.classes.List(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, classes, map[string]interface{}{"count": len(classes)})
}

// Get godoc
// @Summary Get class
// @Tags Classes
// @Security BearerAuth
// @Produce json
// @Param classId path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{classId} [get]
func (h *ClassHandler) Get(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	class, err := h.classes.Get(c.Request.Context(), claims, c.Param("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, class, nil)
}

// AddStudent godoc
// @Summary Enroll student
// @Tags Classes
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param classId path string true "Class ID"
// @Param payload body dto.AddStudentRequest true "Enrollment payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{classId}/students [post]
func (h *ClassHandler) AddStudent(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.AddStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid enrollment payload"))
		return
	}

	class, err := h.classes.AddStudent(c.Request.Context(), claims, c.Param("classId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusOK, class, i18n.T(c, "class.studentAdded"))
}

// ExportGrades godoc
// @Summary Export gradebook
// @Tags Classes
// @Security BearerAuth
// @Produce text/csv
// @Produce application/pdf
// @Param classId path string true "Class ID"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /classes/{classId}/grades/export [get]
func (h *ClassHandler) ExportGrades(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	result, err := h.exporter.Gradebook(c.Request.Context(), claims, c.Param("classId"), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Body)
}
