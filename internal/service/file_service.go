package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/models"
	appErrors "github.com/noah-isme/classroom-api/pkg/errors"
	"github.com/noah-isme/classroom-api/pkg/jobs"
	"github.com/noah-isme/classroom-api/pkg/storage"
)

type fileRepository interface {
	Create(ctx context.Context, file *models.File) error
	FindByID(ctx context.Context, id string) (*models.File, error)
	ListByClass(ctx context.Context, classID string) ([]models.File, error)
	Update(ctx context.Context, file *models.File) error
	Delete(ctx context.Context, id string) error
}

type classReader interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

type submissionCreator interface {
	Create(ctx context.Context, submission *models.Submission) error
}

type blobStorage interface {
	Save(originalName string, r io.Reader) (string, int64, error)
	Open(storedPath string) (*os.File, error)
	Delete(storedPath string) error
}

type uploadQueue interface {
	Enqueue(ctx context.Context, job jobs.Job) error
}

type downloadSigner interface {
	Generate(fileID, storedPath string) (string, time.Time, error)
	Verify(fileID, token string) (string, error)
}

type enqueueRecorder interface {
	RecordEnqueue(accepted bool)
}

// Blob is an uploaded file body with its client supplied metadata.
type Blob struct {
	Name        string
	Size        int64
	ContentType string
	Body        io.Reader
}

// FileConfig tunes upload limits and download links.
type FileConfig struct {
	APIPrefix    string
	MaxFileSize  int64
	AllowedMIMEs []string
}

// FileService implements uploads, file management, submissions and downloads.
type FileService struct {
	files       fileRepository
	classes     classReader
	submissions submissionCreator
	storage     blobStorage
	queue       uploadQueue
	signer      downloadSigner
	metrics     enqueueRecorder
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         FileConfig
}

// FileServiceDeps groups the collaborators of FileService.
type FileServiceDeps struct {
	Files       fileRepository
	Classes     classReader
	Submissions submissionCreator
	Storage     blobStorage
	Queue       uploadQueue
	Signer      downloadSigner
	Metrics     enqueueRecorder
	Validator   *validator.Validate
	Logger      *zap.Logger
}

// NewFileService constructs a FileService.
func NewFileService(deps FileServiceDeps, cfg FileConfig) *FileService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api"
	}
	return &FileService{
		files:       deps.Files,
		classes:     deps.Classes,
		submissions: deps.Submissions,
		storage:     deps.Storage,
		queue:       deps.Queue,
		signer:      deps.Signer,
		metrics:     deps.Metrics,
		validator:   deps.Validator,
		logger:      deps.Logger,
		cfg:         cfg,
	}
}

// Upload stores a teacher's file, records it and enqueues the progress job.
// A queue failure is logged and does not fail the upload.
func (s *FileService) Upload(ctx context.Context, claims *models.JWTClaims, req dto.UploadFileRequest, blob *Blob) (*models.File, error) {
	if err := requireTeacher(claims); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Caused(appErrors.ErrMissingFields, err)
	}
	if err := notBlank(appErrors.ErrMissingFields, "name", req.Name); err != nil {
		return nil, err
	}
	if blob == nil {
		return nil, appErrors.WithDetails(appErrors.ErrNoFile, map[string]string{"file": "file is required"})
	}
	if err := s.checkBlob(blob); err != nil {
		return nil, err
	}
	if err := requireID("classId", req.ClassID); err != nil {
		return nil, err
	}

	class, err := s.classes.FindByID(ctx, req.ClassID)
	if err != nil {
		return nil, notFoundOr(err, "class not found", "failed to load class")
	}
	if class.TeacherID != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "You are not the teacher of this class")
	}

	path, size, err := s.storage.Save(blob.Name, blob.Body)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to store file")
	}

	now := time.Now().UTC()
	file := &models.File{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Path:      path,
		ClassID:   class.ID,
		UserID:    claims.UserID,
		Type:      models.FileType(req.Type),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.files.Create(ctx, file); err != nil {
		s.removeBlob(path)
		return nil, appErrors.Internal(err, "failed to save file")
	}

	s.logger.Info("file uploaded",
		zap.String("file_id", file.ID),
		zap.String("class_id", file.ClassID),
		zap.Int64("bytes", size),
	)
	s.enqueue(ctx, file)
	return file, nil
}

func (s *FileService) enqueue(ctx context.Context, file *models.File) {
	job, err := jobs.NewJob(models.UploadJobName, models.UploadJob{FileID: file.ID, FilePath: file.Path})
	if err == nil {
		err = s.queue.Enqueue(ctx, job)
	}
	if s.metrics != nil {
		s.metrics.RecordEnqueue(err == nil)
	}
	if err != nil {
		s.logger.Warn("upload job not enqueued", zap.String("file_id", file.ID), zap.Error(err))
	}
}

// Update renames a file or changes its type. Only the uploader may do so.
func (s *FileService) Update(ctx context.Context, claims *models.JWTClaims, fileID string, req dto.UpdateFileRequest) (*models.File, error) {
	file, err := s.ownedFile(ctx, claims, fileID, "You are not authorized to update this file")
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid file payload")
	}

	if req.Name != nil {
		if err := notBlank(appErrors.ErrValidation, "name", *req.Name); err != nil {
			return nil, err
		}
		file.Name = *req.Name
	}
	if req.Type != nil {
		file.Type = models.FileType(*req.Type)
	}
	file.UpdatedAt = time.Now().UTC()

	if err := s.files.Update(ctx, file); err != nil {
		return nil, notFoundOr(err, "File not found", "failed to update file")
	}
	return file, nil
}

// Delete removes a file record and its blob. Submissions are kept.
func (s *FileService) Delete(ctx context.Context, claims *models.JWTClaims, fileID string) error {
	file, err := s.ownedFile(ctx, claims, fileID, "You are not authorized to delete this file")
	if err != nil {
		return err
	}
	if err := s.files.Delete(ctx, file.ID); err != nil {
		return notFoundOr(err, "File not found", "failed to delete file")
	}
	s.removeBlob(file.Path)
	return nil
}

// ListByClass returns the files of a class with signed download links.
func (s *FileService) ListByClass(ctx context.Context, claims *models.JWTClaims, classID string) ([]models.FileView, error) {
	if err := requireID("classId", classID); err != nil {
		return nil, err
	}
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		return nil, notFoundOr(err, "class not found", "failed to load class")
	}
	if !class.CanAccess(claims.UserID) {
		return nil, appErrors.ErrNotEnrolled
	}

	files, err := s.files.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list files")
	}
	if len(files) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "No files found for this class")
	}

	views := make([]models.FileView, 0, len(files))
	for _, f := range files {
		view := models.FileView{File: f}
		token, expiresAt, err := s.signer.Generate(f.ID, f.Path)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to sign download link")
		}
		view.DownloadURL = fmt.Sprintf("%s/downloads/%s?token=%s", s.cfg.APIPrefix, f.ID, url.QueryEscape(token))
		view.ExpiresAt = expiresAt
		views = append(views, view)
	}
	return views, nil
}

// Submit stores a student's answer to an assignment of a class they attend.
func (s *FileService) Submit(ctx context.Context, claims *models.JWTClaims, classID string, req dto.SubmitAssignmentRequest, blob *Blob) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Caused(appErrors.ErrMissingFields, err)
	}
	if blob == nil {
		return nil, appErrors.WithDetails(appErrors.ErrNoAssignmentFile, map[string]string{"assignment": "assignment file is required"})
	}
	if err := s.checkBlob(blob); err != nil {
		return nil, err
	}
	if err := requireID("classId", classID); err != nil {
		return nil, err
	}
	if err := requireID("assignmentId", req.AssignmentID); err != nil {
		return nil, err
	}

	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		return nil, notFoundOr(err, "class not found", "failed to load class")
	}
	if !class.HasStudent(claims.UserID) {
		return nil, appErrors.ErrNotEnrolled
	}

	assignment, err := s.files.FindByID(ctx, req.AssignmentID)
	if err != nil {
		return nil, notFoundOr(err, "Assignment not found", "failed to load assignment")
	}
	if assignment.ClassID != class.ID || assignment.Type != models.FileTypeAssignment {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "Assignment not found")
	}

	path, _, err := s.storage.Save(blob.Name, blob.Body)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to store submission")
	}

	now := time.Now().UTC()
	submission := &models.Submission{
		ID:           uuid.NewString(),
		StudentID:    claims.UserID,
		AssignmentID: assignment.ID,
		File:         path,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.submissions.Create(ctx, submission); err != nil {
		s.removeBlob(path)
		return nil, appErrors.Internal(err, "failed to save submission")
	}
	s.logger.Info("assignment submitted", zap.String("submission_id", submission.ID), zap.String("assignment_id", assignment.ID))
	return submission, nil
}

// Download resolves a signed link to an open blob. The caller closes it.
func (s *FileService) Download(ctx context.Context, fileID, token string) (*models.File, *os.File, error) {
	if err := requireID("fileId", fileID); err != nil {
		return nil, nil, err
	}
	if token == "" {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "download token required")
	}
	path, err := s.signer.Verify(fileID, token)
	if err != nil {
		return nil, nil, appErrors.Caused(appErrors.ErrBadDownloadLink, err)
	}

	file, err := s.files.FindByID(ctx, fileID)
	if err != nil {
		return nil, nil, notFoundOr(err, "File not found", "failed to load file")
	}
	if file.Path != path {
		return nil, nil, appErrors.ErrBadDownloadLink
	}

	blob, err := s.storage.Open(file.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, storage.ErrOutsideRoot) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "File not found")
		}
		return nil, nil, appErrors.Internal(err, "failed to open file")
	}
	return file, blob, nil
}

func (s *FileService) ownedFile(ctx context.Context, claims *models.JWTClaims, fileID, forbidden string) (*models.File, error) {
	if err := requireID("fileId", fileID); err != nil {
		return nil, err
	}
	file, err := s.files.FindByID(ctx, fileID)
	if err != nil {
		return nil, notFoundOr(err, "File not found", "failed to load file")
	}
	if file.UserID != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, forbidden)
	}
	return file, nil
}

func (s *FileService) checkBlob(blob *Blob) error {
	if s.cfg.MaxFileSize > 0 && blob.Size > s.cfg.MaxFileSize {
		return fieldError("file", "file too large", fmt.Sprintf("file must be at most %d bytes", s.cfg.MaxFileSize))
	}
	if len(s.cfg.AllowedMIMEs) == 0 {
		return nil
	}
	mediaType, _, err := mime.ParseMediaType(blob.ContentType)
	if err != nil || !containsString(s.cfg.AllowedMIMEs, mediaType) {
		return fieldError("file", "file type not allowed", "allowed types: "+strings.Join(s.cfg.AllowedMIMEs, ", "))
	}
	return nil
}

func (s *FileService) removeBlob(path string) {
	if err := s.storage.Delete(path); err != nil {
		s.logger.Warn("failed to remove stored blob", zap.String("path", path), zap.Error(err))
	}
}
