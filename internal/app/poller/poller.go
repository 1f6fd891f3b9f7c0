package poller

import (
	"context"
	"fmt"
	"time"

	"voicemail-stt/internal/app/model"
	"voicemail-stt/internal/app/stt"
)

// StatusFunc fetches the current server-side status of one job. Satisfied by
// (*stt.Client).GetStatus.
type StatusFunc func(ctx context.Context, jobID string) (*stt.JobStatus, error)

// Update is one observable change of a polled job. Terminal updates carry
// Done=true and are the last update for the job.
type Update struct {
	MessageID     string
	State         model.JobState
	Message       string
	Text          string
	QueuePosition *int
	Done          bool
}

// Tick is the outcome of one status check fed into the transition function.
type Tick struct {
	Status        string
	Text          string
	Err           string
	QueuePosition *int
	TransportErr  error
}

// Expired reports whether the poll budget is exhausted. An elapsed time of
// exactly the budget still allows one last status check; only strictly
// exceeding it forces the timeout.
func Expired(elapsed, budget time.Duration) bool {
	return elapsed > budget
}

// Transition is the pure state machine step: given the current state and one
// tick result it yields the next state and the update to report. It is
// independent of the timer mechanism driving the ticks.
func Transition(state model.JobState, messageID string, tick Tick) (model.JobState, Update) {
	if tick.TransportErr != nil {
		// No automatic retry of the tick itself.
		return model.JobFailed, Update{
			MessageID: messageID,
			State:     model.JobFailed,
			Message:   "communication error with transcription service",
			Done:      true,
		}
	}

	switch tick.Status {
	case "completed":
		return model.JobCompleted, Update{
			MessageID: messageID,
			State:     model.JobCompleted,
			Text:      tick.Text,
			Done:      true,
		}
	case "failed":
		msg := tick.Err
		if msg == "" {
			msg = "transcription failed"
		}
		return model.JobFailed, Update{
			MessageID: messageID,
			State:     model.JobFailed,
			Message:   msg,
			Done:      true,
		}
	case "queued":
		msg := "waiting in queue"
		if tick.QueuePosition != nil {
			msg = fmt.Sprintf("waiting in queue (position %d)", *tick.QueuePosition)
		}
		return model.JobQueued, Update{
			MessageID:     messageID,
			State:         model.JobQueued,
			Message:       msg,
			QueuePosition: tick.QueuePosition,
		}
	case "processing":
		return model.JobProcessing, Update{
			MessageID: messageID,
			State:     model.JobProcessing,
			Message:   "transcription in progress",
		}
	default:
		// Unknown status: keep polling without changing reported state.
		return state, Update{
			MessageID: messageID,
			State:     state,
			Message:   "transcription in progress",
		}
	}
}

// TimeoutUpdate is the forced terminal update when the budget is exceeded,
// regardless of what the server last reported.
func TimeoutUpdate(messageID string) Update {
	return Update{
		MessageID: messageID,
		State:     model.JobTimedOut,
		Message:   "transcription timed out",
		Done:      true,
	}
}

// Poller drives submitted jobs to a terminal state by re-arming delayed
// status checks. One Run call owns one job; transitions for that job are
// strictly sequential because a single goroutine executes the loop.
type Poller struct {
	status   StatusFunc
	interval time.Duration
	budget   time.Duration
}

// New creates a poller with the given status function and timing knobs.
func New(status StatusFunc, interval, budget time.Duration) *Poller {
	return &Poller{
		status:   status,
		interval: interval,
		budget:   budget,
	}
}

// Run polls the job until a terminal state, the budget runs out, or ctx is
// cancelled, reporting every change through notify. The first status check
// runs immediately; later checks are spaced by the poll interval. Run always
// ends with a Done update unless the context was cancelled. The job is taken
// by value: the caller owns the canonical job record and applies updates.
func (p *Poller) Run(ctx context.Context, job model.TranscriptionJob, notify func(Update)) {
	state := job.State
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		if Expired(time.Since(job.StartTime), p.budget) {
			notify(TimeoutUpdate(job.MessageID))
			return
		}

		tick := Tick{}
		status, err := p.status(ctx, job.JobID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			tick.TransportErr = err
		} else {
			tick.Status = status.Status
			tick.Text = status.Text
			tick.Err = status.Error
			tick.QueuePosition = status.QueuePosition
		}

		var update Update
		state, update = Transition(state, job.MessageID, tick)
		notify(update)

		if update.Done {
			return
		}
		timer.Reset(p.interval)
	}
}
