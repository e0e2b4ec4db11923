package suggestion

import (
	"strings"
	"unicode"

	"github.com/kailas-cloud/protsearch/internal/domain/query"
)

// Segment is a run of suggestion text that either matches the query or not.
// Renderers must escape Text; it is never markup.
type Segment struct {
	Text  string `json:"text"`
	Match bool   `json:"match"`
}

// Highlight splits term into segments marking case-insensitive occurrences of q.
// Offsets are computed on runes so multi-byte names are never cut mid-character.
func Highlight(term, q string) []Segment {
	q = query.Normalize(q)
	if term == "" {
		return nil
	}
	if q == "" {
		return []Segment{{Text: term}}
	}

	tr := []rune(term)
	qr := []rune(q)
	var segs []Segment
	start := 0
	for i := 0; i+len(qr) <= len(tr); {
		if !foldEqual(tr[i:i+len(qr)], qr) {
			i++
			continue
		}
		if i > start {
			segs = append(segs, Segment{Text: string(tr[start:i])})
		}
		segs = append(segs, Segment{Text: string(tr[i : i+len(qr)]), Match: true})
		i += len(qr)
		start = i
	}
	if start < len(tr) {
		segs = append(segs, Segment{Text: string(tr[start:])})
	}
	return segs
}

// plain joins segments back into text.
func plain(segs []Segment) string {
	var b strings.Builder
	for _, s := range segs {
		b.WriteString(s.Text)
	}
	return b.String()
}

func foldEqual(a, b []rune) bool {
	for i := range a {
		if unicode.ToLower(a[i]) != unicode.ToLower(b[i]) {
			return false
		}
	}
	return true
}
