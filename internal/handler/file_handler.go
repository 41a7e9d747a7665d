package handler

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"os"
	"path"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/internal/service"
	appErrors "github.com/noah-isme/classroom-api/pkg/errors"
	"github.com/noah-isme/classroom-api/pkg/i18n"
	"github.com/noah-isme/classroom-api/pkg/response"
)

type fileService interface {
	Upload(ctx context.Context, claims *models.JWTClaims, req dto.UploadFileRequest, blob *service.Blob) (*models.File, error)
	Update(ctx context.Context, claims *models.JWTClaims, fileID string, req dto.UpdateFileRequest) (*models.File, error)
	Delete(ctx context.Context, claims *models.JWTClaims, fileID string) error
	ListByClass(ctx context.Context, claims *models.JWTClaims, classID string) ([]models.FileView, error)
	Submit(ctx context.Context, claims *models.JWTClaims, classID string, req dto.SubmitAssignmentRequest, blob *service.Blob) (*models.Submission, error)
	Download(ctx context.Context, fileID, token string) (*models.File, *os.File, error)
}

// FileHandler exposes upload, management and download endpoints.
type FileHandler struct {
	files fileService
}

// NewFileHandler constructs a file handler.
func NewFileHandler(files fileService) *FileHandler {
	return &FileHandler{files: files}
}

// Upload godoc
// @Summary Upload a class file
// @Description Teachers upload a resource or assignment; processing progress is broadcast on the socket
// @Tags Files
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param name formData string true "Display name"
// @Param classId formData string true "Class ID"
// @Param type formData string true "resource or assignment"
// @Param file formData file true "File"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /files/upload [post]
func (h *FileHandler) Upload(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.UploadFileRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, bindError(err, "invalid upload payload"))
		return
	}

	blob, closeBlob, err := formBlob(c, "file")
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closeBlob()

	file, err := h.files.Upload(c.Request.Context(), claims, req, blob)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, file, i18n.T(c, "file.uploaded"))
}

// Update godoc
// @Summary Update a file
// @Tags Files
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param fileId path string true "File ID"
// @Param payload body dto.UpdateFileRequest true "File payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /files/{fileId} [put]
func (h *FileHandler) Update(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.UpdateFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid file payload"))
		return
	}

	file, err := h.files.Update(c.Request.Context(), claims, c.Param("fileId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusOK, file, i18n.T(c, "file.updated"))
}

// Delete godoc
// @Summary Delete a file
// @Tags Files
// @Security BearerAuth
// @Produce json
// @Param fileId path string true "File ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /files/{fileId} [delete]
func (h *FileHandler) Delete(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	if err := h.files.Delete(c.Request.Context(), claims, c.Param("fileId")); err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusOK, gin.H{"id": c.Param("fileId")}, i18n.T(c, "file.deleted"))
}

// ListByClass godoc
// @Summary List class files
// @Description Files of a class with signed download links
// @Tags Files
// @Security BearerAuth
// @Produce json
// @Param classId path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /files/{classId} [get]
func (h *FileHandler) ListByClass(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	files, err := h.files.ListByClass(c.Request.Context(), claims, c.Param("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, files, map[string]interface{}{"count": len(files)})
}

// Submit godoc
// @Summary Submit an assignment
// @Tags Files
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param classId path string true "Class ID"
// @Param assignmentId formData string true "Assignment file ID"
// @Param assignment formData file true "Submission"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /files/submit/{classId} [post]
func (h *FileHandler) Submit(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.SubmitAssignmentRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, bindError(err, "invalid submission payload"))
		return
	}

	blob, closeBlob, err := formBlob(c, "assignment")
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closeBlob()

	submission, err := h.files.Submit(c.Request.Context(), claims, c.Param("classId"), req, blob)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, submission, i18n.T(c, "submission.created"))
}

// Download godoc
// @Summary Download a file
// @Description Streams a file through a signed, expiring link
// @Tags Files
// @Produce octet-stream
// @Param fileId path string true "File ID"
// @Param token query string true "Signed token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /downloads/{fileId} [get]
func (h *FileHandler) Download(c *gin.Context) {
	file, blob, err := h.files.Download(c.Request.Context(), c.Param("fileId"), c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer blob.Close()

	info, err := blob.Stat()
	if err != nil {
		response.Error(c, appErrors.Internal(err, "failed to stat file"))
		return
	}

	c.Header("Cache-Control", "private, no-store")
	c.DataFromReader(http.StatusOK, info.Size(), "application/octet-stream", blob, map[string]string{
		"Content-Disposition": `attachment; filename="` + downloadName(file) + `"`,
	})
}

// formBlob reads an optional multipart file. A missing part yields a nil blob.
func formBlob(c *gin.Context, field string) (*service.Blob, func(), error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, func() {}, nil
		}
		return nil, nil, bindError(err, "invalid multipart payload")
	}
	body, err := header.Open()
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to read upload")
	}
	return blobFromHeader(header, body), func() { _ = body.Close() }, nil
}

func blobFromHeader(header *multipart.FileHeader, body multipart.File) *service.Blob {
	return &service.Blob{
		Name:        header.Filename,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
		Body:        body,
	}
}

// downloadName keeps the stored extension on the display name.
func downloadName(file *models.File) string {
	name := file.Name
	if ext := path.Ext(file.Path); ext != "" && path.Ext(name) != ext {
		name += ext
	}
	return sanitizeHeaderValue(name)
}

func sanitizeHeaderValue(v string) string {
	out := make([]rune, 0, len(v))
	for _, r := range v {
		if r == '"' || r == '\\' || r < 0x20 || r == 0x7f {
			r = '_'
		}
		out = append(out, r)
	}
	return string(out)
}
