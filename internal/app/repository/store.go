package repository

import (
	"voicemail-stt/internal/app/model"
)

// TranscriptionStore is the opaque key-value store the cache persists
// completed transcriptions to. Save replaces prior content entirely (full
// rewrite, not incremental); Load is called once at startup.
type TranscriptionStore interface {
	Load() (map[string]model.TranscriptionResult, error)
	Save(entries map[string]model.TranscriptionResult) error
	Close() error
}
