package scan

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"voicemail-stt/internal/app/correlate"
)

// Item is one voicemail element found in a host DOM snapshot. MessageID is
// non-empty only when the UI layer has already stamped the element with a
// binding from an earlier scan, which marks it processed.
type Item struct {
	Index     int
	MessageID string
	Element   correlate.Element
}

// Processed reports whether the element was already bound by a prior scan.
func (it Item) Processed() bool {
	return it.MessageID != ""
}

// itemSelector matches the host's voicemail list entries. The host exposes no
// stable per-message identifier on them.
const itemSelector = `[data-testid="voicemail-item"]`

// ParseSnapshot extracts voicemail items from a serialized DOM snapshot in
// rendered order. Elements whose caller number or duration cannot be read are
// returned with Element.Parsed=false so only positional matching applies and
// the item can be retried on the next pass.
func ParseSnapshot(html string) ([]Item, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var items []Item
	doc.Find(itemSelector).Each(func(i int, s *goquery.Selection) {
		item := Item{
			Index:     i,
			MessageID: strings.TrimSpace(s.AttrOr("data-stt-message-id", "")),
			Element: correlate.Element{
				Index: i,
			},
		}

		caller := firstText(s, `[data-testid="caller-number"]`, ".caller-number")
		durText := firstText(s, `[data-testid="voicemail-duration"]`, ".voicemail-duration")
		duration, ok := parseDuration(durText)
		if caller != "" && ok {
			item.Element.CallerNumber = caller
			item.Element.DurationSeconds = duration
			item.Element.Parsed = true
		}

		items = append(items, item)
	})
	return items, nil
}

// firstText returns the trimmed text of the first selector that matches.
func firstText(s *goquery.Selection, selectors ...string) string {
	for _, sel := range selectors {
		if found := s.Find(sel).First(); found.Length() > 0 {
			return strings.TrimSpace(found.Text())
		}
	}
	return ""
}

var (
	clockRe   = regexp.MustCompile(`^(\d+):(\d{2})$`)
	minSecRe  = regexp.MustCompile(`^(\d+)m(?:\s*(\d+)s)?$`)
	secOnlyRe = regexp.MustCompile(`^(\d+)s$`)
)

// parseDuration reads the host's rendered duration formats: "45s", "1m",
// "1m 23s" and "1:23".
func parseDuration(text string) (int, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false
	}

	if m := clockRe.FindStringSubmatch(text); m != nil {
		minutes, _ := strconv.Atoi(m[1])
		seconds, _ := strconv.Atoi(m[2])
		return minutes*60 + seconds, true
	}
	if m := minSecRe.FindStringSubmatch(text); m != nil {
		minutes, _ := strconv.Atoi(m[1])
		seconds := 0
		if m[2] != "" {
			seconds, _ = strconv.Atoi(m[2])
		}
		return minutes*60 + seconds, true
	}
	if m := secOnlyRe.FindStringSubmatch(text); m != nil {
		seconds, _ := strconv.Atoi(m[1])
		return seconds, true
	}
	return 0, false
}
