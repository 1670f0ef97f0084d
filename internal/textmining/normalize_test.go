package textmining

import (
	"strings"
	"testing"
)

func TestNormalizeStripsScriptAndStyle(t *testing.T) {
	t.Parallel()

	html := `<html><head><style>
	.BIG { color: red; }
	</style><script type="text/javascript">
	var NVDA = "FAKE";
	</script></head><body><p>hello</p></body></html>`

	got := Normalize(html)
	if strings.Contains(got, "NVDA") || strings.Contains(got, "FAKE") || strings.Contains(got, "BIG") {
		t.Fatalf("script/style content leaked into output: %q", got)
	}
	if !strings.Contains(got, "hello") {
		t.Fatalf("body text lost: %q", got)
	}
}

func TestNormalizeInsertsLineBreaks(t *testing.T) {
	t.Parallel()

	cases := []string{
		"<div>AAPL</div>BBBB",
		"<p>AAPL</p>BBBB",
		"<li>AAPL</li>BBBB",
		"<tr>AAPL</tr>BBBB",
		"<h3>AAPL</h3>BBBB",
		"AAPL<br>BBBB",
		"AAPL<br/>BBBB",
		"AAPL<br />BBBB",
	}

	for _, html := range cases {
		got := Normalize(html)
		if !strings.Contains(got, "\n") {
			t.Fatalf("Normalize(%q) = %q, expected a newline separator", html, got)
		}
		if strings.Contains(got, "AAPLBBBB") {
			t.Fatalf("Normalize(%q) concatenated tokens: %q", html, got)
		}
	}
}

func TestNormalizeDecodesEntities(t *testing.T) {
	t.Parallel()

	got := Normalize("&amp;&lt;&gt;&quot;&#39;&nbsp;&#65;&#12354;")
	want := `&<>"' A` + "あ"
	if got != want {
		t.Fatalf("entity decode: got %q, want %q", got, want)
	}
}

func TestNormalizeMalformedNumericRefs(t *testing.T) {
	t.Parallel()

	// Out-of-range and surrogate code points degrade to spaces, never panic.
	for _, input := range []string{"&#99999999999;", "&#1114112;", "&#55296;"} {
		if got := Normalize(input); got != " " {
			t.Fatalf("Normalize(%q) = %q, want a single space", input, got)
		}
	}

	// A dangling reference without a semicolon is left as-is.
	if got := Normalize("&#123"); got != "&#123" {
		t.Fatalf("dangling ref altered: %q", got)
	}
}

func TestNormalizeCollapsesBlankRuns(t *testing.T) {
	t.Parallel()

	if got := Normalize("a\t\t\fb\r\nc"); got != "a b \nc" {
		t.Fatalf("blank run collapse: got %q", got)
	}
}

func TestNormalizeIdempotentOnPlainText(t *testing.T) {
	t.Parallel()

	plain := "NVDA is up, $TSLA down.\n株が急騰 AAPL"
	if got := Normalize(plain); got != plain {
		t.Fatalf("Normalize changed plain text: %q -> %q", plain, got)
	}
	once := Normalize("<p>NVDA &amp; TSLA</p>")
	if twice := Normalize(once); twice != once {
		t.Fatalf("Normalize not idempotent: %q -> %q", once, twice)
	}
}
