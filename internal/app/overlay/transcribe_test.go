package overlay

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"voicemail-stt/internal/app/cache"
	apperrors "voicemail-stt/internal/app/errors"
	"voicemail-stt/internal/app/model"
	"voicemail-stt/internal/app/repository/jsonfile"
	"voicemail-stt/internal/app/stt"
)

func TestRequestTranscriptionCacheHit(t *testing.T) {
	api := newFakeSTT()
	s, rec := newTestSession(t, twoVoicemails(), api, nil)
	s.Cache().Set("vm-1", model.TranscriptionResult{
		MessageID: "vm-1",
		Status:    model.ResultCompleted,
		Text:      "bonjour",
	})

	require.NoError(t, s.RequestByID(context.Background(), "vm-1", false))

	ev := rec.waitFor(t, "vm-1", StatusCompleted)
	assert.Equal(t, "bonjour", ev.text)

	lookups, submits := api.counts()
	assert.Zero(t, lookups, "cache hit must not reach the service")
	assert.Zero(t, submits)
	assert.Empty(t, s.ActiveJobs())
}

func TestRequestTranscriptionLookupHit(t *testing.T) {
	api := newFakeSTT()
	api.lookups["vm-1"] = stt.LookupResult{Found: true, Status: "completed", Text: "bonjour"}
	s, rec := newTestSession(t, twoVoicemails(), api, nil)

	require.NoError(t, s.RequestByID(context.Background(), "vm-1", false))

	ev := rec.waitFor(t, "vm-1", StatusCompleted)
	assert.Equal(t, "bonjour", ev.text)

	_, submits := api.counts()
	assert.Zero(t, submits, "an existing transcription must not be re-submitted")

	res, ok := s.Cache().Get("vm-1")
	require.True(t, ok)
	assert.Equal(t, "bonjour", res.Text)
	assert.Empty(t, s.ActiveJobs())
}

func TestRequestTranscriptionResumesInProgressJob(t *testing.T) {
	api := newFakeSTT()
	api.lookups["vm-1"] = stt.LookupResult{Found: true, Status: "processing", JobID: "job-9"}
	api.statuses = []stt.JobStatus{
		{Status: "processing"},
		{Status: "completed", Text: "hello"},
	}
	s, rec := newTestSession(t, twoVoicemails(), api, nil)

	require.NoError(t, s.RequestByID(context.Background(), "vm-1", false))

	ev := rec.waitFor(t, "vm-1", StatusCompleted)
	assert.Equal(t, "hello", ev.text)

	_, submits := api.counts()
	assert.Zero(t, submits, "found in-progress jobs are polled, not re-submitted")
}

func TestRequestTranscriptionFullFlow(t *testing.T) {
	api := newFakeSTT()
	api.submitResult = stt.SubmitResult{JobID: "job-1"}
	api.statuses = []stt.JobStatus{
		{Status: "queued"},
		{Status: "processing"},
		{Status: "completed", Text: "hello"},
	}
	s, rec := newTestSession(t, twoVoicemails(), api, nil)

	require.NoError(t, s.RequestByID(context.Background(), "vm-1", false))

	ev := rec.waitFor(t, "vm-1", StatusCompleted)
	assert.Equal(t, "hello", ev.text)

	res, ok := s.Cache().Get("vm-1")
	require.True(t, ok)
	assert.Equal(t, model.ResultCompleted, res.Status)
	assert.Equal(t, "hello", res.Text)

	require.Eventually(t, func() bool {
		return len(s.ActiveJobs()) == 0
	}, time.Second, 5*time.Millisecond, "terminal jobs leave the active set")
}

func TestRequestTranscriptionIdempotentUnderConcurrency(t *testing.T) {
	api := newFakeSTT()
	api.submitResult = stt.SubmitResult{JobID: "job-1"}
	api.statuses = []stt.JobStatus{{Status: "processing"}}
	s, _ := newTestSession(t, twoVoicemails(), api, nil)

	rec, ok := s.RecordByID("vm-1")
	require.True(t, ok)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.RequestTranscription(context.Background(), rec, false))
		}()
	}
	wg.Wait()

	_, submits := api.counts()
	assert.Equal(t, 1, submits, "concurrent requests for one message submit once")
	assert.Len(t, s.ActiveJobs(), 1)
}

func TestRequestTranscriptionSubmitCachedFastPath(t *testing.T) {
	api := newFakeSTT()
	api.submitResult = stt.SubmitResult{JobID: "job-1", Cached: true, Status: "completed"}
	api.statuses = []stt.JobStatus{{Status: "completed", Text: "hello"}}
	s, rec := newTestSession(t, twoVoicemails(), api, nil)

	require.NoError(t, s.RequestByID(context.Background(), "vm-1", false))

	ev := rec.waitFor(t, "vm-1", StatusCompleted)
	assert.Equal(t, "hello", ev.text)
	assert.Empty(t, s.ActiveJobs(), "a server-cached result needs no polling")
}

func TestRequestTranscriptionForceBypassesCaches(t *testing.T) {
	api := newFakeSTT()
	api.submitResult = stt.SubmitResult{JobID: "job-2"}
	api.statuses = []stt.JobStatus{{Status: "completed", Text: "fresh text"}}
	s, rec := newTestSession(t, twoVoicemails(), api, nil)
	s.Cache().Set("vm-1", model.TranscriptionResult{
		MessageID: "vm-1",
		Status:    model.ResultCompleted,
		Text:      "stale text",
	})

	require.NoError(t, s.RequestByID(context.Background(), "vm-1", true))

	ev := rec.waitFor(t, "vm-1", StatusCompleted)
	assert.Equal(t, "fresh text", ev.text)

	lookups, submits := api.counts()
	assert.Zero(t, lookups, "force skips the existence check")
	assert.Equal(t, 1, submits)
	assert.True(t, api.submitForce)

	res, ok := s.Cache().Get("vm-1")
	require.True(t, ok)
	assert.Equal(t, "fresh text", res.Text, "the new result overwrites the stored one")
}

func TestRequestTranscriptionLookupErrorFails(t *testing.T) {
	api := newFakeSTT()
	api.lookupErr = apperrors.NewTransport("lookup", 500)
	s, rec := newTestSession(t, twoVoicemails(), api, nil)

	err := s.RequestByID(context.Background(), "vm-1", false)
	require.Error(t, err)

	rec.waitFor(t, "vm-1", StatusError)
	_, submits := api.counts()
	assert.Zero(t, submits)
	assert.Empty(t, s.ActiveJobs())
}

func TestRequestTranscriptionSubmitErrorFails(t *testing.T) {
	api := newFakeSTT()
	api.submitErr = apperrors.NewTransport("submit", 500)
	s, rec := newTestSession(t, twoVoicemails(), api, nil)

	err := s.RequestByID(context.Background(), "vm-1", false)
	require.Error(t, err)

	rec.waitFor(t, "vm-1", StatusError)
	assert.Empty(t, s.ActiveJobs())
}

func TestRequestTranscriptionJobFailure(t *testing.T) {
	api := newFakeSTT()
	api.submitResult = stt.SubmitResult{JobID: "job-1"}
	api.statuses = []stt.JobStatus{
		{Status: "processing"},
		{Status: "failed", Error: "audio unreadable"},
	}
	s, rec := newTestSession(t, twoVoicemails(), api, nil)

	require.NoError(t, s.RequestByID(context.Background(), "vm-1", false))

	ev := rec.waitFor(t, "vm-1", StatusError)
	assert.Equal(t, "audio unreadable", ev.text)

	// Failures are never persisted as results.
	_, ok := s.Cache().Get("vm-1")
	assert.False(t, ok)
	require.Eventually(t, func() bool {
		return len(s.ActiveJobs()) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestRequestTranscriptionUnknownMessage(t *testing.T) {
	s, _ := newTestSession(t, twoVoicemails(), newFakeSTT(), nil)

	err := s.RequestByID(context.Background(), "vm-404", false)
	assert.Error(t, err)
}

func TestCompletedResultSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stt-transcriptions.json")

	api := newFakeSTT()
	api.submitResult = stt.SubmitResult{JobID: "job-1"}
	api.statuses = []stt.JobStatus{{Status: "completed", Text: "hello"}}

	s, rec := newTestSession(t, twoVoicemails(), api, jsonfile.NewStore(path))
	require.NoError(t, s.RequestByID(context.Background(), "vm-1", false))
	rec.waitFor(t, "vm-1", StatusCompleted)
	require.NoError(t, s.Close())

	// A fresh session over the same store sees the result without any call.
	reloaded := cache.New(jsonfile.NewStore(path), zap.NewNop().Sugar())
	require.NoError(t, reloaded.Load())

	res, ok := reloaded.Get("vm-1")
	require.True(t, ok)
	assert.Equal(t, model.ResultCompleted, res.Status)
	assert.Equal(t, "hello", res.Text)
}
