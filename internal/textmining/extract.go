package textmining

import "strings"

const (
	maxTickerLen = 5
	// contextWindow is how far (in runes) around a 2-letter candidate we look
	// for trading-related context before accepting it.
	contextWindow = 24
)

// contextTerms mark "stock talk" near a short candidate: a currency sigil,
// Japanese trading jargon, or common exchange/instrument names.
var contextTerms = []string{
	"$", "株", "買", "売", "利確", "損切", "決算", "PTS", "チャート",
	"上げ", "下げ", "ショート", "ロング", "ETF", "NASDAQ", "NYSE",
}

// ExcludeSet holds upper-cased terms that must never be counted as tickers.
type ExcludeSet map[string]struct{}

// NewExcludeSet builds a case-normalized exclusion set.
func NewExcludeSet(terms []string) ExcludeSet {
	set := make(ExcludeSet, len(terms))
	for _, t := range terms {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t != "" {
			set[t] = struct{}{}
		}
	}
	return set
}

// Contains reports whether the canonical ticker is excluded.
func (s ExcludeSet) Contains(ticker string) bool {
	_, ok := s[ticker]
	return ok
}

// Tally is a frequency map that remembers the order in which tickers were
// first seen. The insertion order is what breaks ties when the ranking is
// sorted, so merges must preserve it.
type Tally struct {
	counts map[string]int
	order  []string
}

// NewTally returns an empty tally.
func NewTally() *Tally {
	return &Tally{counts: map[string]int{}}
}

// Add increments the count for a ticker by n.
func (t *Tally) Add(ticker string, n int) {
	if n <= 0 {
		return
	}
	if _, seen := t.counts[ticker]; !seen {
		t.order = append(t.order, ticker)
	}
	t.counts[ticker] += n
}

// Merge folds another tally into this one, keeping first-seen order.
func (t *Tally) Merge(other *Tally) {
	if other == nil {
		return
	}
	for _, ticker := range other.order {
		t.Add(ticker, other.counts[ticker])
	}
}

// Count returns the current count for a ticker.
func (t *Tally) Count(ticker string) int {
	return t.counts[ticker]
}

// Len returns the number of distinct tickers.
func (t *Tally) Len() int {
	return len(t.counts)
}

// Each visits tickers in first-seen order.
func (t *Tally) Each(fn func(ticker string, count int)) {
	for _, ticker := range t.order {
		fn(ticker, t.counts[ticker])
	}
}

// Extract scans plain text for ticker mentions and returns their frequencies.
//
// A candidate is an optional '$' sigil followed by 1-5 uppercase ASCII
// letters, bounded so that `BAR` inside `FOOBAR` or `NVDA123` never matches.
// Short candidates are filtered aggressively: bare single letters are dropped,
// bare two-letter tokens need nearby stock context, while '$'-prefixed tokens
// and 3-5 letter tokens count unconditionally. Excluded terms never count.
//
// Go's regexp has no lookbehind, so the boundary checks are a hand-rolled
// scan: consumed characters are never re-scanned, matching the zero-width
// assertion semantics.
func Extract(text string, exclude ExcludeSet) *Tally {
	runes := []rune(text)
	tally := NewTally()

	for i := 0; i < len(runes); {
		hasDollar := runes[i] == '$'
		start := i
		if hasDollar {
			i++
		}

		// Letters run.
		j := i
		for j < len(runes) && isUpper(runes[j]) {
			j++
		}
		length := j - i

		if length == 0 {
			i = j + 1
			continue
		}

		// Boundary before: the char preceding the candidate (sigil included)
		// must not be uppercase, a digit, or '$'.
		if start > 0 && isBoundaryBreaker(runes[start-1]) {
			i = j
			continue
		}
		// Boundary after: no uppercase letter or digit may follow.
		if length > maxTickerLen || (j < len(runes) && isTailBreaker(runes[j])) {
			i = j
			continue
		}

		ticker := string(runes[i:j])
		i = j

		if exclude.Contains(ticker) {
			continue
		}
		if !hasDollar && length == 1 {
			continue
		}
		if !hasDollar && length == 2 && !hasStockContext(runes, start, j) {
			continue
		}

		tally.Add(ticker, 1)
	}

	return tally
}

// ExtractHTML normalizes an HTML document and extracts tickers from it.
func ExtractHTML(html string, exclude ExcludeSet) *Tally {
	return Extract(Normalize(html), exclude)
}

func hasStockContext(runes []rune, start, end int) bool {
	a := start - contextWindow
	if a < 0 {
		a = 0
	}
	b := end + contextWindow
	if b > len(runes) {
		b = len(runes)
	}
	around := string(runes[a:b])
	for _, term := range contextTerms {
		if strings.Contains(around, term) {
			return true
		}
	}
	return false
}

func isUpper(r rune) bool {
	return r >= 'A' && r <= 'Z'
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isBoundaryBreaker(r rune) bool {
	return isUpper(r) || isDigit(r) || r == '$'
}

func isTailBreaker(r rune) bool {
	return isUpper(r) || isDigit(r)
}
