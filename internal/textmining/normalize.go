package textmining

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

var (
	scriptExpr     = regexp.MustCompile(`(?is)<script.*?</script>`)
	styleExpr      = regexp.MustCompile(`(?is)<style.*?</style>`)
	lineBreakExpr  = regexp.MustCompile(`(?i)<br\s*/?>`)
	blockCloseExpr = regexp.MustCompile(`(?i)</(p|div|li|tr|h[1-9])>`)
	tagExpr        = regexp.MustCompile(`<[^>]+>`)
	numericRefExpr = regexp.MustCompile(`&#([0-9]+);`)
	blankRunExpr   = regexp.MustCompile(`[\t\f\r]+`)
)

var namedEntities = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&nbsp;", " ",
)

// Normalize converts a raw HTML document into plain text suitable for token
// scanning. Script and style bodies are removed entirely so stray uppercase
// runs in JS or CSS are never mistaken for tickers, visual line breaks become
// real newlines so tokens cannot concatenate across them, and a minimal set
// of HTML entities is decoded. Malformed input degrades to a best-effort
// plain-text approximation; nothing here panics.
func Normalize(html string) string {
	text := scriptExpr.ReplaceAllString(html, " ")
	text = styleExpr.ReplaceAllString(text, " ")
	text = lineBreakExpr.ReplaceAllString(text, "\n")
	text = blockCloseExpr.ReplaceAllString(text, "\n")
	text = tagExpr.ReplaceAllString(text, " ")
	text = decodeEntities(text)
	return blankRunExpr.ReplaceAllString(text, " ")
}

func decodeEntities(s string) string {
	s = namedEntities.Replace(s)
	return numericRefExpr.ReplaceAllStringFunc(s, func(ref string) string {
		digits := ref[2 : len(ref)-1]
		code, err := strconv.Atoi(digits)
		if err != nil || code < 0 || code > utf8.MaxRune {
			return " "
		}
		r := rune(code)
		if !utf8.ValidRune(r) {
			return " "
		}
		return string(r)
	})
}
