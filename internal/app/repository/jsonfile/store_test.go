package jsonfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicemail-stt/internal/app/model"
)

func TestLoadMissingFile(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "stt-transcriptions.json"))

	entries, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stt-transcriptions.json")
	store := NewStore(path)

	in := map[string]model.TranscriptionResult{
		"vm-1": {MessageID: "vm-1", Status: model.ResultCompleted, Text: "hello"},
		"vm-2": {MessageID: "vm-2", Status: model.ResultCompleted, Text: "bonjour"},
	}
	require.NoError(t, store.Save(in))

	out, err := NewStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestSaveReplacesContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stt-transcriptions.json")
	store := NewStore(path)

	require.NoError(t, store.Save(map[string]model.TranscriptionResult{
		"vm-1": {MessageID: "vm-1", Status: model.ResultCompleted, Text: "hello"},
	}))
	require.NoError(t, store.Save(map[string]model.TranscriptionResult{
		"vm-2": {MessageID: "vm-2", Status: model.ResultCompleted, Text: "bonjour"},
	}))

	out, err := store.Load()
	require.NoError(t, err)
	require.Len(t, out, 1)
	_, ok := out["vm-2"]
	assert.True(t, ok)
}

func TestSaveCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "store.json")
	store := NewStore(path)

	require.NoError(t, store.Save(map[string]model.TranscriptionResult{}))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewStore(path).Load()
	assert.Error(t, err)
}
