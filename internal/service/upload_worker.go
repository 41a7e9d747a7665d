package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/pkg/jobs"
	"github.com/noah-isme/classroom-api/pkg/observability"
)

// Broadcaster publishes an event to every connected listener.
type Broadcaster interface {
	Broadcast(event string, payload interface{}) error
}

type jobOutcomeRecorder interface {
	RecordJobOutcome(success bool, enqueued time.Time)
}

var uploadStatuses = []string{
	models.StatusProcessingStarted,
	models.StatusProcessingInProgress,
	models.StatusProcessingComplete,
}

// UploadWorker consumes upload jobs and emits their progress. It performs no
// file I/O; the blob is already stored when the job is enqueued.
type UploadWorker struct {
	broadcaster  Broadcaster
	validator    *validator.Validate
	logger       *zap.Logger
	metrics      jobOutcomeRecorder
	onTransition func(jobID string, state models.UploadState)
}

// NewUploadWorker constructs the worker. metrics may be nil.
func NewUploadWorker(broadcaster Broadcaster, validate *validator.Validate, logger *zap.Logger, metrics jobOutcomeRecorder) *UploadWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UploadWorker{broadcaster: broadcaster, validator: validate, logger: logger, metrics: metrics}
}

// OnTransition registers a hook called on every state change.
func (w *UploadWorker) OnTransition(fn func(jobID string, state models.UploadState)) {
	w.onTransition = fn
}

// Handle runs one job. It returns nil only after all three progress events
// were published; on error no further events are sent. A panic is recorded as
// a failed transition and returned as an error.
func (w *UploadWorker) Handle(ctx context.Context, job jobs.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = w.fail(job.ID, fmt.Errorf("upload job %s panicked: %v", job.ID, r))
		}
	}()
	w.transition(job.ID, models.UploadReceived)

	var payload models.UploadJob
	if err := job.Decode(&payload); err != nil {
		return w.fail(job.ID, err)
	}

	w.transition(job.ID, models.UploadProcessing)
	if err := w.validator.Struct(payload); err != nil {
		return w.fail(job.ID, fmt.Errorf("invalid upload job: %w", err))
	}
	w.logger.Sugar().Infow("processing upload", "job_id", job.ID, "file_id", payload.FileID, "file_path", payload.FilePath)

	w.transition(job.ID, models.UploadEmittingProgress)
	for _, status := range uploadStatuses {
		progress := models.UploadProgress{FileID: payload.FileID, Status: status}
		if err := w.broadcaster.Broadcast(models.EventFileUploadProgress, progress); err != nil {
			return w.fail(job.ID, fmt.Errorf("emit %q for file %s: %w", status, payload.FileID, err))
		}
	}

	w.transition(job.ID, models.UploadComplete)
	return nil
}

// Completed is the queue's success hook.
func (w *UploadWorker) Completed(job jobs.Job) {
	w.logger.Sugar().Infow("upload job completed", "job_id", job.ID)
	if w.metrics != nil {
		w.metrics.RecordJobOutcome(true, job.Enqueued)
	}
}

// Failed is the queue's failure hook. The job is dropped.
func (w *UploadWorker) Failed(job jobs.Job, err error) {
	w.logger.Sugar().Errorw("upload job failed", "job_id", job.ID, "error", err)
	observability.CaptureWithTags(err, map[string]string{"job_id": job.ID, "job": job.Name})
	if w.metrics != nil {
		w.metrics.RecordJobOutcome(false, job.Enqueued)
	}
}

func (w *UploadWorker) fail(jobID string, err error) error {
	w.transition(jobID, models.UploadFailed)
	return err
}

func (w *UploadWorker) transition(jobID string, state models.UploadState) {
	w.logger.Debug("upload job state", zap.String("job_id", jobID), zap.String("state", string(state)))
	if w.onTransition != nil {
		w.onTransition(jobID, state)
	}
}
