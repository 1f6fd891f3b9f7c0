package model

import (
	"time"
)

// JobState is the lifecycle state of a transcription job.
type JobState string

const (
	JobQueued     JobState = "queued"
	JobProcessing JobState = "processing"
	JobCompleted  JobState = "completed"
	JobFailed     JobState = "failed"
	JobTimedOut   JobState = "timed_out"
)

// Terminal reports whether no further transition can occur from s.
func (s JobState) Terminal() bool {
	switch s {
	case JobCompleted, JobFailed, JobTimedOut:
		return true
	}
	return false
}

// TranscriptionJob is one server-side transcription task tracked by the
// overlay. It exists from submit (or resume of a found in-progress job) until
// it reaches a terminal state, at which point it leaves the active set.
type TranscriptionJob struct {
	JobID         string    `json:"job_id"`
	MessageID     string    `json:"message_id"`
	StartTime     time.Time `json:"start_time"`
	State         JobState  `json:"state"`
	QueuePosition *int      `json:"queue_position,omitempty"`
}

// ResultStatus is the terminal status recorded for a transcription.
type ResultStatus string

const (
	ResultCompleted ResultStatus = "completed"
	ResultError     ResultStatus = "error"
)

// TranscriptionResult is the cached outcome for one message. Only completed
// results are ever persisted.
type TranscriptionResult struct {
	MessageID string       `json:"message_id"`
	Status    ResultStatus `json:"status"`
	Text      string       `json:"text"`
}
