package model

// FolderState indicates whether a voicemail has been listened to.
type FolderState string

const (
	FolderNew  FolderState = "new"
	FolderRead FolderState = "read"
)

// VoicemailRecord is one stored voice message as returned by the voicemail
// API. Records are immutable once fetched for the session; a refresh replaces
// the whole list.
type VoicemailRecord struct {
	ID              string      `json:"id"`
	CallerName      string      `json:"caller_id_name"`
	CallerNumber    string      `json:"caller_id_num"`
	DurationSeconds int         `json:"duration"`
	Timestamp       int64       `json:"timestamp"`
	Folder          FolderState `json:"folder"`
}

// CorrelationKey is the derived fallback identity used when the UI exposes no
// stable identifier. It is not unique: two voicemails from the same number
// with the same duration collide.
type CorrelationKey struct {
	CallerNumber    string
	DurationSeconds int
}

// Key derives the fingerprint key for a record.
func (r VoicemailRecord) Key() CorrelationKey {
	return CorrelationKey{
		CallerNumber:    r.CallerNumber,
		DurationSeconds: r.DurationSeconds,
	}
}

// TrackedItem binds one rendered UI element to one VoicemailRecord once
// correlated. Processed makes repeated scans idempotent.
type TrackedItem struct {
	Record    VoicemailRecord
	ItemIndex int
	Processed bool
}
