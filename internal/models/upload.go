package models

// UploadJobName names jobs on the upload queue.
const UploadJobName = "processUpload"

// EventFileUploadProgress is the broadcast event carrying UploadProgress.
const EventFileUploadProgress = "fileUploadProgress"

// Progress statuses, emitted in this order for every upload job.
const (
	StatusProcessingStarted    = "Processing started"
	StatusProcessingInProgress = "Processing in progress"
	StatusProcessingComplete   = "Processing complete"
)

// UploadJob is the queue payload created for every persisted File.
type UploadJob struct {
	FileID   string `json:"fileId" validate:"required"`
	FilePath string `json:"filePath" validate:"required"`
}

// UploadProgress is broadcast to every connected listener.
type UploadProgress struct {
	FileID string `json:"fileId"`
	Status string `json:"status"`
}

// UploadState is a step of the upload worker's state machine.
type UploadState string

const (
	UploadReceived         UploadState = "RECEIVED"
	UploadProcessing       UploadState = "PROCESSING"
	UploadEmittingProgress UploadState = "EMITTING_PROGRESS"
	UploadComplete         UploadState = "COMPLETE"
	UploadFailed           UploadState = "FAILED"
)
