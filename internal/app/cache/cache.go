package cache

import (
	"sort"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"voicemail-stt/internal/app/model"
	"voicemail-stt/internal/app/repository"
)

// Cache maps voicemail message ids to their last-known transcription result.
// It is consulted before any new work is issued. Entries never expire within
// a session; completed entries are append-only except on an explicit force
// re-transcription, which overwrites both layers.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]model.TranscriptionResult
	store   repository.TranscriptionStore
	logger  *zap.SugaredLogger
}

// New creates an empty cache backed by store.
func New(store repository.TranscriptionStore, logger *zap.SugaredLogger) *Cache {
	return &Cache{
		entries: make(map[string]model.TranscriptionResult),
		store:   store,
		logger:  logger,
	}
}

// Load merges persisted entries into the in-memory map. Called once at
// session startup, before any scan runs.
func (c *Cache) Load() error {
	persisted, err := c.store.Load()
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for messageID, res := range persisted {
		c.entries[messageID] = res
	}
	c.logger.Debugw("cache loaded", "entries", len(persisted))
	return nil
}

// Get returns the cached result for a message, if any.
func (c *Cache) Get(messageID string) (model.TranscriptionResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	res, ok := c.entries[messageID]
	return res, ok
}

// Set records a result for a message, overwriting any prior entry.
func (c *Cache) Set(messageID string, res model.TranscriptionResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[messageID] = res
}

// FlushPersisted writes only completed entries to the durable store,
// replacing its prior content.
func (c *Cache) FlushPersisted() error {
	c.mu.RLock()
	completed := lo.PickBy(c.entries, func(_ string, res model.TranscriptionResult) bool {
		return res.Status == model.ResultCompleted
	})
	c.mu.RUnlock()

	return c.store.Save(completed)
}

// Completed returns all completed results sorted by message id, for the
// bridge API and the export command.
func (c *Cache) Completed() []model.TranscriptionResult {
	c.mu.RLock()
	defer c.mu.RUnlock()

	results := make([]model.TranscriptionResult, 0, len(c.entries))
	for _, res := range c.entries {
		if res.Status == model.ResultCompleted {
			results = append(results, res)
		}
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].MessageID < results[j].MessageID
	})
	return results
}

// Close flushes and releases the backing store.
func (c *Cache) Close() error {
	if err := c.FlushPersisted(); err != nil {
		c.logger.Warnw("cache flush failed", "error", err)
	}
	return c.store.Close()
}
