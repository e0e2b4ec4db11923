// Package query holds the user-facing search parameters mirrored into the page URL.
package query

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/kailas-cloud/protsearch/internal/domain"
)

// URL parameter names.
const (
	ParamQuery             = "query"
	ParamK                 = "k"
	ParamFromAnotherSource = "from_another_source"
)

const (
	// DefaultK is the result limit used when none is given.
	DefaultK = 5
	// MaxK is the largest accepted result limit.
	MaxK = 100
)

// Params are the search parameters: query text, result limit and source toggle.
type Params struct {
	Query             string `json:"query"`
	K                 int    `json:"k"`
	FromAnotherSource bool   `json:"from_another_source"`
}

// Default returns the parameters of an empty page.
func Default() Params {
	return Params{K: DefaultK}
}

// FromValues reads parameters from URL values.
// Parsing is lenient: a missing or unusable k keeps the default, a k above maxK is clamped,
// and the source toggle is set only by the literal "true".
func FromValues(v url.Values, defaults Params, maxK int) Params {
	if maxK <= 0 {
		maxK = MaxK
	}
	p := defaults
	if p.K < 1 {
		p.K = DefaultK
	}

	if v.Has(ParamQuery) {
		p.Query = Normalize(v.Get(ParamQuery))
	}
	if raw := strings.TrimSpace(v.Get(ParamK)); raw != "" {
		if k, err := strconv.Atoi(raw); err == nil && k >= 1 {
			p.K = min(k, maxK)
		}
	}
	if v.Has(ParamFromAnotherSource) {
		p.FromAnotherSource = v.Get(ParamFromAnotherSource) == "true"
	}
	return p
}

// Values returns the parameters as URL values. All three keys are always present.
func (p Params) Values() url.Values {
	v := make(url.Values, 3)
	v.Set(ParamQuery, p.Query)
	v.Set(ParamK, strconv.Itoa(p.K))
	v.Set(ParamFromAnotherSource, strconv.FormatBool(p.FromAnotherSource))
	return v
}

// Encode renders the parameters as a query string in query, k, from_another_source order.
func (p Params) Encode() string {
	var b strings.Builder
	b.WriteString(ParamQuery + "=" + url.QueryEscape(p.Query))
	b.WriteString("&" + ParamK + "=" + strconv.Itoa(p.K))
	b.WriteString("&" + ParamFromAnotherSource + "=" + strconv.FormatBool(p.FromAnotherSource))
	return b.String()
}

// Blank reports whether the query is empty or whitespace only.
func (p Params) Blank() bool {
	return strings.TrimSpace(p.Query) == ""
}

// Validate checks the result limit against [1, maxK].
func (p Params) Validate(maxK int) error {
	if maxK <= 0 {
		maxK = MaxK
	}
	if p.K < 1 || p.K > maxK {
		return fmt.Errorf("%w: k must be between 1 and %d, got %d", domain.ErrInvalidParams, maxK, p.K)
	}
	return nil
}

// WithQuery returns a copy with the query replaced by its normalized form.
func (p Params) WithQuery(q string) Params {
	p.Query = Normalize(q)
	return p
}

// Normalize applies NFKC, strips control characters and trims outer whitespace.
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
