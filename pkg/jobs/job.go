package jobs

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrUnavailable is returned by Enqueue when the job could not be accepted.
	ErrUnavailable = errors.New("queue unavailable")
	// ErrClosed is returned by a backend once it has been closed.
	ErrClosed = errors.New("queue backend closed")
)

// Job represents a queued background task.
type Job struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Payload  json.RawMessage `json:"payload"`
	Enqueued time.Time       `json:"enqueued"`

	// malformed is set by a backend that dequeued an entry it could not
	// decode; the queue reports it as a failure without running the handler.
	malformed error
}

// NewJob encodes payload as JSON and assigns a fresh id.
func NewJob(name string, payload interface{}) (Job, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Job{}, fmt.Errorf("encode %s payload: %w", name, err)
	}
	return Job{ID: uuid.NewString(), Name: name, Payload: raw}, nil
}

// Decode unmarshals the payload into dst.
func (j Job) Decode(dst interface{}) error {
	if len(j.Payload) == 0 {
		return fmt.Errorf("job %s has no payload", j.ID)
	}
	if err := json.Unmarshal(j.Payload, dst); err != nil {
		return fmt.Errorf("decode job %s: %w", j.ID, err)
	}
	return nil
}
