package models

import "time"

// MetricsSnapshot summarises process health for the /health endpoint.
type MetricsSnapshot struct {
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	UploadsEnqueued          uint64    `json:"uploadsEnqueued"`
	UploadsRejected          uint64    `json:"uploadsRejected"`
	UploadJobsCompleted      uint64    `json:"uploadJobsCompleted"`
	UploadJobsFailed         uint64    `json:"uploadJobsFailed"`
	RealtimeListeners        int64     `json:"realtimeListeners"`
	BroadcastsDropped        uint64    `json:"broadcastsDropped"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}
