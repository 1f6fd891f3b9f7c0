package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSnapshot = `
<div class="voicemail-list">
  <div data-testid="voicemail-item">
    <span data-testid="caller-number">1001</span>
    <span data-testid="voicemail-duration">45s</span>
  </div>
  <div data-testid="voicemail-item" data-stt-message-id="vm-2">
    <span data-testid="caller-number">1002</span>
    <span data-testid="voicemail-duration">1m 23s</span>
  </div>
  <div data-testid="voicemail-item">
    <span class="caller-number">1003</span>
    <span class="voicemail-duration">2:05</span>
  </div>
  <div data-testid="voicemail-item">
    <span data-testid="caller-number"></span>
    <span data-testid="voicemail-duration">later</span>
  </div>
</div>`

func TestParseSnapshot(t *testing.T) {
	items, err := ParseSnapshot(sampleSnapshot)
	require.NoError(t, err)
	require.Len(t, items, 4)

	assert.Equal(t, 0, items[0].Index)
	assert.False(t, items[0].Processed())
	assert.True(t, items[0].Element.Parsed)
	assert.Equal(t, "1001", items[0].Element.CallerNumber)
	assert.Equal(t, 45, items[0].Element.DurationSeconds)

	// Stamped by a prior scan.
	assert.True(t, items[1].Processed())
	assert.Equal(t, "vm-2", items[1].MessageID)
	assert.Equal(t, 83, items[1].Element.DurationSeconds)

	// Class-based fallback selectors.
	assert.True(t, items[2].Element.Parsed)
	assert.Equal(t, "1003", items[2].Element.CallerNumber)
	assert.Equal(t, 125, items[2].Element.DurationSeconds)

	// Unreadable caller/duration leaves the element unparsed for retry.
	assert.False(t, items[3].Element.Parsed)
}

func TestParseSnapshotNoItems(t *testing.T) {
	items, err := ParseSnapshot(`<div class="unrelated">nothing here</div>`)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		text   string
		want   int
		wantOK bool
	}{
		{"45s", 45, true},
		{"1m", 60, true},
		{"1m 23s", 83, true},
		{"1m23s", 83, true},
		{"1:23", 83, true},
		{"0:07", 7, true},
		{"12:00", 720, true},
		{" 45s ", 45, true},
		{"", 0, false},
		{"later", 0, false},
		{"1:2", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := parseDuration(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
