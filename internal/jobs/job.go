// Package jobs schedules render jobs: admission control across direct and
// queued renders, a FIFO pending queue, progress fan-out to subscribers and
// one-shot artifact download.
package jobs

import (
	"errors"
	"fmt"
	"math"
	"time"

	javaprint "github.com/alnah/go-javaprint"
	"github.com/alnah/go-javaprint/internal/archive"
)

// Sentinel errors.
var (
	ErrCapacity          = errors.New("server is at capacity")
	ErrNotFound          = errors.New("job not found")
	ErrNotReady          = errors.New("job is not finished")
	ErrInvalidTransition = errors.New("invalid job status transition")
	ErrClosed            = errors.New("job manager is shut down")
)

// GenericFailureMessage replaces the message of errors not caused by the
// client.
const GenericFailureMessage = "Failed to generate PDF."

const shutdownMessage = "Server is shutting down."

// Status is a job's lifecycle state.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Terminal reports whether s is final.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusError
}

// canTransition allows pending -> running -> done|error, plus pending ->
// error for jobs dropped at shutdown.
func canTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusRunning || to == StatusError
	case StatusRunning:
		return to == StatusDone || to == StatusError
	}
	return false
}

// Progress is a job's file counter.
type Progress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
	Percent   int `json:"percent"`
}

// NewProgress computes the rounded percentage; it is 0 when total is 0.
func NewProgress(completed, total int) Progress {
	p := Progress{Completed: completed, Total: total}
	if total > 0 {
		p.Percent = int(math.Round(100 * float64(completed) / float64(total)))
	}
	return p
}

// EventType names a progress stream event.
type EventType string

const (
	EventProgress EventType = "progress"
	EventDone     EventType = "done"
	EventFailed   EventType = "failed"
)

// Event is one message on a job's progress stream.
type Event struct {
	Type        EventType
	Progress    Progress
	Filename    string
	ContentType string
	Error       string
}

// Terminal reports whether e ends the stream.
func (e Event) Terminal() bool {
	return e.Type == EventDone || e.Type == EventFailed
}

// Info is a snapshot of a job.
type Info struct {
	ID         string    `json:"id"`
	Status     Status    `json:"status"`
	Progress   Progress  `json:"progress"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	StartedAt  time.Time `json:"startedAt,omitzero"`
	FinishedAt time.Time `json:"finishedAt,omitzero"`
}

// Work is the input of one job.
type Work struct {
	Upload   *archive.Upload
	Settings *javaprint.RenderSettings
}

type job struct {
	id        string
	status    Status
	completed int
	total     int
	artifact  *javaprint.Artifact
	errMsg    string
	subs      map[*Subscription]struct{}
	timer     *time.Timer
	work      Work

	created  time.Time
	started  time.Time
	finished time.Time
}

func (j *job) transition(to Status) error {
	if !canTransition(j.status, to) {
		return fmt.Errorf("%w: job %s: %s -> %s", ErrInvalidTransition, j.id, j.status, to)
	}
	j.status = to
	return nil
}

func (j *job) progress() Progress {
	return NewProgress(j.completed, j.total)
}

// terminalEvent is the event a subscriber of a finished job receives.
func (j *job) terminalEvent() Event {
	if j.status == StatusDone {
		return Event{
			Type:        EventDone,
			Progress:    j.progress(),
			Filename:    j.artifact.Filename,
			ContentType: j.artifact.ContentType,
		}
	}
	return Event{Type: EventFailed, Progress: j.progress(), Error: j.errMsg}
}

func (j *job) info() Info {
	return Info{
		ID:         j.id,
		Status:     j.status,
		Progress:   j.progress(),
		Error:      j.errMsg,
		CreatedAt:  j.created,
		StartedAt:  j.started,
		FinishedAt: j.finished,
	}
}
