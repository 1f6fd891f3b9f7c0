package overlay

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"voicemail-stt/internal/app/cache"
	apperrors "voicemail-stt/internal/app/errors"
	"voicemail-stt/internal/app/model"
	"voicemail-stt/internal/app/repository"
	"voicemail-stt/internal/app/stt"
	"voicemail-stt/internal/config"
)

// mapStore is an in-memory TranscriptionStore for session tests.
type mapStore struct {
	mu      sync.Mutex
	entries map[string]model.TranscriptionResult
}

func newMapStore() *mapStore {
	return &mapStore{entries: map[string]model.TranscriptionResult{}}
}

func (m *mapStore) Load() (map[string]model.TranscriptionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]model.TranscriptionResult, len(m.entries))
	for k, v := range m.entries {
		out[k] = v
	}
	return out, nil
}

func (m *mapStore) Save(entries map[string]model.TranscriptionResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]model.TranscriptionResult, len(entries))
	for k, v := range entries {
		m.entries[k] = v
	}
	return nil
}

func (m *mapStore) Close() error { return nil }

// fakeVoicemail serves a fixed record list.
type fakeVoicemail struct {
	mu      sync.Mutex
	records []model.VoicemailRecord
	listErr error
}

func (f *fakeVoicemail) ListMessages(context.Context) ([]model.VoicemailRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.records, nil
}

func (f *fakeVoicemail) RecordingURL(messageID string) string {
	return "https://pbx.example.com/recording/" + messageID
}

// fakeSTT scripts the transcription service.
type fakeSTT struct {
	mu sync.Mutex

	lookups   map[string]stt.LookupResult
	lookupErr error

	submitResult stt.SubmitResult
	submitErr    error
	submitForce  bool

	statuses    []stt.JobStatus
	statusCalls int

	lookupCalls int
	submitCalls int
}

func newFakeSTT() *fakeSTT {
	return &fakeSTT{lookups: map[string]stt.LookupResult{}}
}

func (f *fakeSTT) Lookup(_ context.Context, _, messageID string) (*stt.LookupResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookupCalls++
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	res, ok := f.lookups[messageID]
	if !ok {
		return &stt.LookupResult{}, nil
	}
	return &res, nil
}

func (f *fakeSTT) Submit(_ context.Context, _, _, _ string, force bool) (*stt.SubmitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitCalls++
	f.submitForce = force
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	res := f.submitResult
	return &res, nil
}

func (f *fakeSTT) GetStatus(context.Context, string) (*stt.JobStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.statusCalls
	if i >= len(f.statuses) {
		i = len(f.statuses) - 1
	}
	f.statusCalls++
	if i < 0 {
		return &stt.JobStatus{Status: "processing"}, nil
	}
	res := f.statuses[i]
	return &res, nil
}

func (f *fakeSTT) counts() (lookups, submits int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lookupCalls, f.submitCalls
}

// event is one observer notification.
type event struct {
	messageID string
	status    UpdateStatus
	text      string
}

// recorder buffers observer notifications for assertions.
type recorder struct {
	ch chan event
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan event, 64)}
}

func (r *recorder) OnTranscriptionUpdate(messageID string, status UpdateStatus, text string) {
	select {
	case r.ch <- event{messageID, status, text}:
	default:
	}
}

// waitFor blocks until an event for messageID with the given status arrives.
func (r *recorder) waitFor(t *testing.T, messageID string, status UpdateStatus) event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-r.ch:
			if ev.messageID == messageID && ev.status == status {
				return ev
			}
		case <-deadline:
			t.Fatalf("no %s event for %s", status, messageID)
		}
	}
}

func testConfig() config.Overlay {
	return config.Overlay{
		PollIntervalMS: 5,
		PollTimeoutMS:  2000,
		ScanDebounceMS: 5,
		ListenAddr:     ":0",
	}
}

func newTestSession(t *testing.T, vm *fakeVoicemail, api *fakeSTT, store repository.TranscriptionStore) (*Session, *recorder) {
	t.Helper()
	if store == nil {
		store = newMapStore()
	}
	rec := newRecorder()
	s := NewSession(Options{
		Config:         testConfig(),
		UserUUID:       "user-1",
		Voicemail:      vm,
		Transcriptions: api,
		Cache:          cache.New(store, zap.NewNop().Sugar()),
		Observer:       rec,
	})
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Init(context.Background()))
	return s, rec
}

func twoVoicemails() *fakeVoicemail {
	return &fakeVoicemail{records: []model.VoicemailRecord{
		{ID: "vm-1", CallerNumber: "1001", DurationSeconds: 45, Timestamp: 200},
		{ID: "vm-2", CallerNumber: "1002", DurationSeconds: 83, Timestamp: 100},
	}}
}

const twoItemSnapshot = `
<div>
  <div data-testid="voicemail-item">
    <span data-testid="caller-number">1001</span>
    <span data-testid="voicemail-duration">45s</span>
  </div>
  <div data-testid="voicemail-item">
    <span data-testid="caller-number">1002</span>
    <span data-testid="voicemail-duration">1m 23s</span>
  </div>
</div>`

func TestInitLoadsVoicemails(t *testing.T) {
	s, _ := newTestSession(t, twoVoicemails(), newFakeSTT(), nil)

	records := s.Voicemails()
	require.Len(t, records, 2)
	assert.Equal(t, "vm-1", records[0].ID)

	rec, ok := s.RecordByID("vm-2")
	require.True(t, ok)
	assert.Equal(t, "1002", rec.CallerNumber)

	_, ok = s.RecordByID("vm-9")
	assert.False(t, ok)
}

func TestScanBindsAndIsIdempotent(t *testing.T) {
	api := newFakeSTT()
	s, _ := newTestSession(t, twoVoicemails(), api, nil)

	bindings, err := s.Scan(twoItemSnapshot)
	require.NoError(t, err)
	require.Len(t, bindings, 2)
	assert.Equal(t, Binding{ItemIndex: 0, MessageID: "vm-1"}, bindings[0])
	assert.Equal(t, Binding{ItemIndex: 1, MessageID: "vm-2"}, bindings[1])

	lookupsAfterFirst, _ := api.counts()
	assert.Equal(t, 2, lookupsAfterFirst, "each fresh binding gets one existence check")

	// Scanning the same snapshot again binds nothing and issues no calls.
	bindings, err = s.Scan(twoItemSnapshot)
	require.NoError(t, err)
	assert.Empty(t, bindings)

	lookupsAfterSecond, submits := api.counts()
	assert.Equal(t, lookupsAfterFirst, lookupsAfterSecond)
	assert.Zero(t, submits)
}

func TestScanSkipsStampedItems(t *testing.T) {
	api := newFakeSTT()
	s, _ := newTestSession(t, twoVoicemails(), api, nil)

	stamped := `
<div>
  <div data-testid="voicemail-item" data-stt-message-id="vm-1">
    <span data-testid="caller-number">1001</span>
    <span data-testid="voicemail-duration">45s</span>
  </div>
  <div data-testid="voicemail-item">
    <span data-testid="caller-number">1002</span>
    <span data-testid="voicemail-duration">1m 23s</span>
  </div>
</div>`

	bindings, err := s.Scan(stamped)
	require.NoError(t, err)
	require.Len(t, bindings, 1)
	assert.Equal(t, "vm-2", bindings[0].MessageID)
}

func TestScanSurfacesCachedTranscription(t *testing.T) {
	api := newFakeSTT()
	s, rec := newTestSession(t, twoVoicemails(), api, nil)
	s.Cache().Set("vm-1", model.TranscriptionResult{
		MessageID: "vm-1",
		Status:    model.ResultCompleted,
		Text:      "bonjour",
	})

	_, err := s.Scan(twoItemSnapshot)
	require.NoError(t, err)

	ev := rec.waitFor(t, "vm-1", StatusCompleted)
	assert.Equal(t, "bonjour", ev.text)

	// The cached record needs no lookup; only vm-2 was checked remotely.
	lookups, _ := api.counts()
	assert.Equal(t, 1, lookups)
}

func TestScanSurfacesServerSideTranscription(t *testing.T) {
	api := newFakeSTT()
	api.lookups["vm-2"] = stt.LookupResult{Found: true, Status: "completed", Text: "bonjour"}
	s, rec := newTestSession(t, twoVoicemails(), api, nil)

	_, err := s.Scan(twoItemSnapshot)
	require.NoError(t, err)

	ev := rec.waitFor(t, "vm-2", StatusCompleted)
	assert.Equal(t, "bonjour", ev.text)

	// Found results are cached for the rest of the session.
	res, ok := s.Cache().Get("vm-2")
	require.True(t, ok)
	assert.Equal(t, "bonjour", res.Text)
}

func TestSweepExistingSwallowsLookupErrors(t *testing.T) {
	api := newFakeSTT()
	api.lookupErr = apperrors.NewTransport("lookup", 502)
	s, _ := newTestSession(t, twoVoicemails(), api, nil)

	s.SweepExisting(context.Background())

	_, submits := api.counts()
	assert.Zero(t, submits)
	assert.Empty(t, s.ActiveJobs())
}

func TestOnHostMutationDebouncesScan(t *testing.T) {
	api := newFakeSTT()
	s, _ := newTestSession(t, twoVoicemails(), api, nil)

	for i := 0; i < 5; i++ {
		s.OnHostMutation(twoItemSnapshot)
	}

	require.Eventually(t, func() bool {
		lookups, _ := api.counts()
		return lookups == 2
	}, time.Second, 5*time.Millisecond, "the burst must coalesce into one scan")
}

func TestReloadKeepsActiveJobsAndDropsBindings(t *testing.T) {
	api := newFakeSTT()
	api.statuses = []stt.JobStatus{{Status: "processing"}}
	api.submitResult = stt.SubmitResult{JobID: "job-1"}
	s, _ := newTestSession(t, twoVoicemails(), api, nil)

	bindings, err := s.Scan(twoItemSnapshot)
	require.NoError(t, err)
	require.Len(t, bindings, 2)

	require.NoError(t, s.RequestByID(context.Background(), "vm-1", false))
	require.Eventually(t, func() bool {
		return len(s.ActiveJobs()) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Reload(context.Background()))

	// Jobs are keyed by message id and survive; bindings do not.
	assert.Len(t, s.ActiveJobs(), 1)
	bindings, err = s.Scan(twoItemSnapshot)
	require.NoError(t, err)
	assert.Len(t, bindings, 2)
}
