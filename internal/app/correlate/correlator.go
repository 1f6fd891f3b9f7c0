package correlate

import (
	"voicemail-stt/internal/app/model"
)

// Element is one observed, unprocessed UI item as scraped from the host. An
// Index of -1 means the element's position in the rendered list is unknown;
// Parsed is false when caller number or duration could not be read, in which
// case only positional matching can apply.
type Element struct {
	Index           int
	CallerNumber    string
	DurationSeconds int
	Parsed          bool
}

// Matcher resolves one UI element against the fetched record list. Matchers
// are pure functions over the current snapshot; the caller marks items
// processed.
type Matcher interface {
	Match(el Element, records []model.VoicemailRecord) (model.VoicemailRecord, bool)
}

// Positional matches by index in DOM order. Valid only while the displayed
// ordering equals the fetch ordering (descending by time); the host
// reordering or paginating breaks it, which is why it sits in a chain.
type Positional struct{}

// Match implements Matcher.
func (Positional) Match(el Element, records []model.VoicemailRecord) (model.VoicemailRecord, bool) {
	if el.Index < 0 || el.Index >= len(records) {
		return model.VoicemailRecord{}, false
	}
	return records[el.Index], true
}

// Fingerprint matches by the derived (caller number, duration) key. The key
// is not unique: when two records collide, the earliest record in fetch order
// wins, deterministically, which may be the wrong one.
type Fingerprint struct{}

// Match implements Matcher.
func (Fingerprint) Match(el Element, records []model.VoicemailRecord) (model.VoicemailRecord, bool) {
	if !el.Parsed || el.CallerNumber == "" {
		return model.VoicemailRecord{}, false
	}
	byKey := indexByKey(records)
	rec, ok := byKey[model.CorrelationKey{
		CallerNumber:    el.CallerNumber,
		DurationSeconds: el.DurationSeconds,
	}]
	return rec, ok
}

// indexByKey precomputes the fingerprint lookup map. First writer wins so
// collisions resolve to the earliest record in fetch order.
func indexByKey(records []model.VoicemailRecord) map[model.CorrelationKey]model.VoicemailRecord {
	byKey := make(map[model.CorrelationKey]model.VoicemailRecord, len(records))
	for _, rec := range records {
		key := rec.Key()
		if _, exists := byKey[key]; !exists {
			byKey[key] = rec
		}
	}
	return byKey
}

// Chain tries matchers in order of preference and returns the first hit.
type Chain []Matcher

// Match implements Matcher.
func (c Chain) Match(el Element, records []model.VoicemailRecord) (model.VoicemailRecord, bool) {
	if len(records) == 0 {
		return model.VoicemailRecord{}, false
	}
	for _, m := range c {
		if rec, ok := m.Match(el, records); ok {
			return rec, true
		}
	}
	return model.VoicemailRecord{}, false
}

// DefaultChain prefers the stable positional identity and falls back to the
// fingerprint heuristic.
func DefaultChain() Chain {
	return Chain{Positional{}, Fingerprint{}}
}
