package overlay

import (
	"context"
	"time"

	apperrors "voicemail-stt/internal/app/errors"
	"voicemail-stt/internal/app/model"
	"voicemail-stt/internal/app/poller"
	"voicemail-stt/internal/app/stt"
)

func errNoRecord(messageID string) error {
	return apperrors.Newf("voicemail %s not found in current list", messageID)
}

// RequestTranscription is the explicit user entry point for one voicemail.
// It is idempotent under concurrent calls: while a job for the message is in
// the active set, further requests are no-ops. With force, cached and
// server-side results are bypassed and fresh work always starts; the new
// result overwrites the stored one.
func (s *Session) RequestTranscription(ctx context.Context, rec model.VoicemailRecord, force bool) error {
	messageID := rec.ID

	s.mu.Lock()
	if _, active := s.activeJobs[messageID]; active {
		s.mu.Unlock()
		return nil
	}
	job := &model.TranscriptionJob{
		MessageID: messageID,
		StartTime: time.Now(),
		State:     model.JobQueued,
	}
	s.activeJobs[messageID] = job
	s.mu.Unlock()
	s.metrics.ActiveJobs.Inc()

	s.notify(messageID, StatusLoading, "transcription in progress")

	if !force {
		if res, ok := s.cache.Get(messageID); ok && res.Status == model.ResultCompleted {
			s.removeJob(messageID)
			s.notify(messageID, StatusCompleted, res.Text)
			return nil
		}

		lookup, err := s.stt.Lookup(ctx, s.userUUID, messageID)
		if err != nil {
			s.removeJob(messageID)
			s.metrics.JobsTotal.WithLabelValues("failed").Inc()
			s.notify(messageID, StatusError, "transcription error")
			return err
		}
		if lookup.Found {
			switch lookup.Status {
			case "completed":
				s.storeCompleted(messageID, lookup.Text)
				s.removeJob(messageID)
				s.notify(messageID, StatusCompleted, lookup.Text)
				return nil
			case "queued", "processing":
				// Resume the job found server-side instead of submitting.
				s.startPolling(job, lookup.JobID)
				return nil
			}
		}
	}

	submit, err := s.stt.Submit(ctx, s.userUUID, messageID, s.vm.RecordingURL(messageID), force)
	if err != nil {
		s.removeJob(messageID)
		s.metrics.JobsTotal.WithLabelValues("failed").Inc()
		s.notify(messageID, StatusError, "transcription error")
		return err
	}

	if submit.Cached && submit.Status == "completed" {
		// Result already available server-side; one status fetch for the text.
		status, err := s.stt.GetStatus(ctx, submit.JobID)
		if err != nil {
			s.removeJob(messageID)
			s.metrics.JobsTotal.WithLabelValues("failed").Inc()
			s.notify(messageID, StatusError, "transcription error")
			return err
		}
		s.storeCompleted(messageID, status.Text)
		s.removeJob(messageID)
		s.metrics.JobsTotal.WithLabelValues("completed").Inc()
		s.notify(messageID, StatusCompleted, status.Text)
		return nil
	}

	s.startPolling(job, submit.JobID)
	return nil
}

// RequestByID resolves the record and requests its transcription.
func (s *Session) RequestByID(ctx context.Context, messageID string, force bool) error {
	rec, ok := s.RecordByID(messageID)
	if !ok {
		return errNoRecord(messageID)
	}
	return s.RequestTranscription(ctx, rec, force)
}

// startPolling attaches the server job id and hands the job to a poller
// goroutine. Transitions for one message are strictly sequential because
// exactly one goroutine polls it.
func (s *Session) startPolling(job *model.TranscriptionJob, jobID string) {
	s.mu.Lock()
	job.JobID = jobID
	snapshot := *job
	s.mu.Unlock()

	p := poller.New(s.tickStatus, s.cfg.PollInterval(), s.cfg.PollTimeout())
	go p.Run(s.runCtx, snapshot, s.onPollUpdate)
}

func (s *Session) tickStatus(ctx context.Context, jobID string) (*stt.JobStatus, error) {
	s.metrics.PollTicksTotal.Inc()
	return s.stt.GetStatus(ctx, jobID)
}

// onPollUpdate applies one poller update to the session state and forwards
// it to the observer. Terminal updates remove the job from the active set;
// terminal states are never re-entered.
func (s *Session) onPollUpdate(u poller.Update) {
	s.mu.Lock()
	if job, ok := s.activeJobs[u.MessageID]; ok {
		job.State = u.State
		job.QueuePosition = u.QueuePosition
	}
	s.mu.Unlock()

	switch {
	case u.Done && u.State == model.JobCompleted:
		s.storeCompleted(u.MessageID, u.Text)
		s.removeJob(u.MessageID)
		s.metrics.JobsTotal.WithLabelValues("completed").Inc()
		s.notify(u.MessageID, StatusCompleted, u.Text)
	case u.Done:
		s.removeJob(u.MessageID)
		s.metrics.JobsTotal.WithLabelValues(string(u.State)).Inc()
		s.notify(u.MessageID, StatusError, u.Message)
	default:
		s.notify(u.MessageID, StatusLoading, u.Message)
	}
}

func (s *Session) removeJob(messageID string) {
	s.mu.Lock()
	if _, ok := s.activeJobs[messageID]; ok {
		delete(s.activeJobs, messageID)
		s.metrics.ActiveJobs.Dec()
	}
	s.mu.Unlock()
}
