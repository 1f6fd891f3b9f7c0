package overlay

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"voicemail-stt/internal/app/cache"
	"voicemail-stt/internal/app/correlate"
	"voicemail-stt/internal/app/metrics"
	"voicemail-stt/internal/app/model"
	"voicemail-stt/internal/app/scan"
	"voicemail-stt/internal/app/stt"
	"voicemail-stt/internal/config"
)

// UpdateStatus is the coarse status reported to the UI-wiring layer.
type UpdateStatus string

const (
	StatusLoading   UpdateStatus = "loading"
	StatusCompleted UpdateStatus = "completed"
	StatusError     UpdateStatus = "error"
)

// Observer receives transcription state changes for display. Calls may come
// from poller goroutines; implementations must be safe for concurrent use.
type Observer interface {
	OnTranscriptionUpdate(messageID string, status UpdateStatus, text string)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(messageID string, status UpdateStatus, text string)

// OnTranscriptionUpdate implements Observer.
func (f ObserverFunc) OnTranscriptionUpdate(messageID string, status UpdateStatus, text string) {
	f(messageID, status, text)
}

// VoicemailAPI is the slice of the voicemail service the session needs.
type VoicemailAPI interface {
	ListMessages(ctx context.Context) ([]model.VoicemailRecord, error)
	RecordingURL(messageID string) string
}

// TranscriptionAPI is the slice of the transcription service the session needs.
type TranscriptionAPI interface {
	Lookup(ctx context.Context, userUUID, messageID string) (*stt.LookupResult, error)
	Submit(ctx context.Context, userUUID, messageID, audioURL string, force bool) (*stt.SubmitResult, error)
	GetStatus(ctx context.Context, jobID string) (*stt.JobStatus, error)
}

// Binding assigns one rendered item index to a voicemail message id. The UI
// layer stamps it onto the element so later scans skip it.
type Binding struct {
	ItemIndex int    `json:"item_index"`
	MessageID string `json:"message_id"`
}

// Options bundles the session dependencies.
type Options struct {
	Config         config.Overlay
	UserUUID       string
	Voicemail      VoicemailAPI
	Transcriptions TranscriptionAPI
	Cache          *cache.Cache
	Observer       Observer
	Metrics        *metrics.Metrics
	Logger         *zap.SugaredLogger
}

// Session owns all overlay state for one host page lifetime: the fetched
// record list, tracked item bindings, the active transcription jobs and the
// result cache. It replaces the ambient globals of a naive rendition with an
// explicitly owned object with Init and Close lifecycle hooks.
type Session struct {
	id       string
	cfg      config.Overlay
	userUUID string
	vm       VoicemailAPI
	stt      TranscriptionAPI
	cache    *cache.Cache
	matcher  correlate.Matcher
	observer Observer
	metrics  *metrics.Metrics
	logger   *zap.SugaredLogger

	runCtx context.Context
	cancel context.CancelFunc
	sched  *scan.Scheduler

	mu         sync.Mutex
	voicemails []model.VoicemailRecord
	tracked    map[string]*model.TrackedItem
	activeJobs map[string]*model.TranscriptionJob
	snapshot   string
}

// NewSession creates a session. Call Init before use and Close on teardown.
func NewSession(opts Options) *Session {
	if opts.Observer == nil {
		opts.Observer = ObserverFunc(func(string, UpdateStatus, string) {})
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Nop()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:         uuid.NewString(),
		cfg:        opts.Config,
		userUUID:   opts.UserUUID,
		vm:         opts.Voicemail,
		stt:        opts.Transcriptions,
		cache:      opts.Cache,
		matcher:    correlate.DefaultChain(),
		observer:   opts.Observer,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
		runCtx:     ctx,
		cancel:     cancel,
		tracked:    make(map[string]*model.TrackedItem),
		activeJobs: make(map[string]*model.TranscriptionJob),
	}
	s.sched = scan.NewScheduler(opts.Config.ScanDebounce(), s.scanNow)
	return s
}

// ID is the unique identifier of this session instance.
func (s *Session) ID() string {
	return s.id
}

// Init loads persisted transcriptions into the cache and fetches the
// voicemail list.
func (s *Session) Init(ctx context.Context) error {
	s.logger.Infow("session starting", "session_id", s.id)
	if err := s.cache.Load(); err != nil {
		return err
	}
	return s.Reload(ctx)
}

// Reload refreshes the voicemail list from the API, replacing the session's
// record snapshot and dropping all item bindings so the next scan rebinds.
// Active jobs survive a reload; they are keyed by message id, not by element.
func (s *Session) Reload(ctx context.Context) error {
	records, err := s.vm.ListMessages(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.voicemails = records
	s.tracked = make(map[string]*model.TrackedItem)
	s.mu.Unlock()

	s.logger.Infow("voicemail list loaded", "count", len(records))
	return nil
}

// Voicemails returns the current record snapshot in fetch order.
func (s *Session) Voicemails() []model.VoicemailRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.VoicemailRecord, len(s.voicemails))
	copy(out, s.voicemails)
	return out
}

// RecordByID finds a record in the current snapshot.
func (s *Session) RecordByID(messageID string) (model.VoicemailRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.voicemails {
		if rec.ID == messageID {
			return rec, true
		}
	}
	return model.VoicemailRecord{}, false
}

// ActiveJobs returns a snapshot of the jobs currently being polled.
func (s *Session) ActiveJobs() []model.TranscriptionJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	jobs := make([]model.TranscriptionJob, 0, len(s.activeJobs))
	for _, job := range s.activeJobs {
		jobs = append(jobs, *job)
	}
	return jobs
}

// Cache exposes the session cache for the bridge API and export.
func (s *Session) Cache() *cache.Cache {
	return s.cache
}

// OnHostMutation records the latest DOM snapshot and arms the debounced
// re-scan. Safe to call arbitrarily often; bursts coalesce into one scan per
// quiet period.
func (s *Session) OnHostMutation(html string) {
	s.mu.Lock()
	s.snapshot = html
	s.mu.Unlock()
	s.sched.Trigger()
}

func (s *Session) scanNow() {
	s.mu.Lock()
	html := s.snapshot
	s.mu.Unlock()
	if html == "" {
		return
	}
	if _, err := s.Scan(html); err != nil {
		s.logger.Warnw("scan failed", "error", err)
	}
}

// Scan enumerates the unprocessed items of a snapshot, correlates each with
// the record list and binds the matches. Re-running it over the same
// snapshot is a no-op: already-bound records and already-stamped elements are
// skipped, so overlapping invocations degrade gracefully. Correlation misses
// are silent; the item stays unprocessed for the next pass.
func (s *Session) Scan(html string) ([]Binding, error) {
	items, err := scan.ParseSnapshot(html)
	if err != nil {
		return nil, err
	}
	s.metrics.ScansTotal.Inc()

	var bindings []Binding
	var fresh []model.VoicemailRecord

	s.mu.Lock()
	records := s.voicemails
	for _, item := range items {
		if item.Processed() {
			continue
		}
		rec, ok := s.matcher.Match(item.Element, records)
		if !ok {
			s.logger.Debugw("no matching record for item", "index", item.Index)
			continue
		}
		if _, bound := s.tracked[rec.ID]; bound {
			// One visible instance per record.
			continue
		}
		s.tracked[rec.ID] = &model.TrackedItem{
			Record:    rec,
			ItemIndex: item.Index,
			Processed: true,
		}
		bindings = append(bindings, Binding{ItemIndex: item.Index, MessageID: rec.ID})
		fresh = append(fresh, rec)
	}
	s.mu.Unlock()

	s.metrics.BindingsTotal.Add(float64(len(bindings)))
	for _, rec := range fresh {
		s.checkExisting(s.runCtx, rec)
	}
	return bindings, nil
}

// SweepExisting checks every record of the current snapshot for an already
// available transcription, cache first, then an opportunistic lookup.
func (s *Session) SweepExisting(ctx context.Context) {
	for _, rec := range s.Voicemails() {
		s.checkExisting(ctx, rec)
	}
}

// checkExisting surfaces an existing completed transcription for one record.
// Lookup failures are swallowed: absence of a transcription is simply "not
// yet transcribed".
func (s *Session) checkExisting(ctx context.Context, rec model.VoicemailRecord) {
	if res, ok := s.cache.Get(rec.ID); ok && res.Status == model.ResultCompleted {
		s.notify(rec.ID, StatusCompleted, res.Text)
		return
	}

	lookup, err := s.stt.Lookup(ctx, s.userUUID, rec.ID)
	if err != nil {
		s.logger.Debugw("lookup failed", "message_id", rec.ID, "error", err)
		return
	}
	if lookup.Found && lookup.Status == "completed" {
		s.storeCompleted(rec.ID, lookup.Text)
		s.notify(rec.ID, StatusCompleted, lookup.Text)
	}
}

func (s *Session) notify(messageID string, status UpdateStatus, text string) {
	s.observer.OnTranscriptionUpdate(messageID, status, text)
}

// storeCompleted records a completed result in the cache and persists it.
func (s *Session) storeCompleted(messageID, text string) {
	s.cache.Set(messageID, model.TranscriptionResult{
		MessageID: messageID,
		Status:    model.ResultCompleted,
		Text:      text,
	})
	if err := s.cache.FlushPersisted(); err != nil {
		s.logger.Warnw("cache persist failed", "error", err)
	}
}

// Close tears the session down: pending scans are cancelled, running pollers
// are abandoned and the cache is flushed to the store.
func (s *Session) Close() error {
	s.sched.Stop()
	s.cancel()
	return s.cache.Close()
}
