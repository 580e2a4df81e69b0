package async

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Job is one text submission awaiting recognition. Threshold <= 0 means the
// service default applies.
type Job struct {
	OwnerID     uuid.UUID
	Text        string
	AutoCreate  bool
	Threshold   float64
	SubmittedAt time.Time
	TraceID     string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
