package fivech

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
	"golang.org/x/time/rate"

	"TickerRadar/internal/ports"
)

const (
	defaultTimeout    = 20 * time.Second
	defaultViewerBase = "https://itest.5ch.net"

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

var metaCharsetExpr = regexp.MustCompile(`(?i)charset=["']?([A-Za-z0-9_\-]+)`)

// Attempt is one entry of the diagnostic trail the fallback chain produces.
// It carries pass/fail metadata only, never fetched body content.
type Attempt struct {
	URL    string
	Status string // HTTP status line on a non-success response
	Err    string // transport error, mutually exclusive with Status
}

func (a Attempt) String() string {
	if a.Err != "" {
		return fmt.Sprintf("%s -> %s", a.URL, a.Err)
	}
	return fmt.Sprintf("%s -> %s", a.URL, a.Status)
}

// FetchError reports that every endpoint variant for a thread failed.
type FetchError struct {
	Attempts []Attempt
}

func (e *FetchError) Error() string {
	outcomes := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		outcomes = append(outcomes, a.String())
	}
	return "all thread endpoints failed: " + strings.Join(outcomes, "; ")
}

// Fetcher retrieves 5ch thread content, working around the origin's
// bot-hostility by trying up to three endpoint variants with
// browser-realistic headers.
type Fetcher struct {
	client     *http.Client
	limiter    *rate.Limiter
	viewerBase string
	logger     *slog.Logger
}

var _ ports.ThreadFetcher = (*Fetcher)(nil)

// NewFetcher wires an HTTP client; a nil client gets a bounded default so a
// hung origin can never stall a whole scheduled run. requestsPerSec spaces
// attempts to stay polite.
func NewFetcher(client *http.Client, requestsPerSec float64, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	if requestsPerSec <= 0 {
		requestsPerSec = 1
	}
	return &Fetcher{
		client:     client,
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSec), 1),
		viewerBase: defaultViewerBase,
		logger:     logger,
	}
}

// FetchThread returns the text content of a thread, trying the original URL,
// the raw-data mirror, and the lightweight viewer in that order. The first
// success wins; total failure yields a *FetchError listing every attempt.
func (f *Fetcher) FetchThread(ctx context.Context, rawURL string) (string, error) {
	ref, err := ParseThreadURL(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse thread url: %w", err)
	}

	variants := []string{rawURL, ref.DatURL(), ref.ViewerURL(f.viewerBase)}

	var attempts []Attempt
	for _, endpoint := range variants {
		if err := f.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit wait: %w", err)
		}

		body, attempt := f.attempt(ctx, endpoint, ref)
		if attempt != nil {
			f.debug("thread endpoint failed", "url", attempt.URL, "status", attempt.Status, "error", attempt.Err)
			attempts = append(attempts, *attempt)
			continue
		}
		return body, nil
	}

	return "", &FetchError{Attempts: attempts}
}

func (f *Fetcher) attempt(ctx context.Context, endpoint string, ref ThreadRef) (string, *Attempt) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", &Attempt{URL: endpoint, Err: err.Error()}
	}

	// Browser-realistic headers. Omitting Referer is a known cause of
	// rejection by the origin.
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ja,en-US;q=0.9,en;q=0.8")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Referer", ref.RefererURL())

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &Attempt{URL: endpoint, Err: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", &Attempt{URL: endpoint, Status: resp.Status}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Attempt{URL: endpoint, Err: fmt.Sprintf("read body: %v", err)}
	}

	text := decodeBody(raw, resp.Header.Get("Content-Type"))
	return extractPosts(text), nil
}

// decodeBody transcodes Shift_JIS/CP932 responses to UTF-8; 5ch boards still
// serve legacy encodings. Charset comes from the Content-Type header or a
// meta tag near the top of the document.
func decodeBody(raw []byte, contentType string) string {
	charset := ""
	if _, params, err := mime.ParseMediaType(contentType); err == nil {
		charset = params["charset"]
	}
	if charset == "" {
		head := raw
		if len(head) > 1024 {
			head = head[:1024]
		}
		if m := metaCharsetExpr.FindSubmatch(head); m != nil {
			charset = string(m[1])
		}
	}

	switch strings.ToLower(charset) {
	case "shift_jis", "shift-jis", "sjis", "x-sjis", "cp932", "windows-31j", "ms932":
		decoded, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), raw)
		if err == nil {
			return string(decoded)
		}
	}
	return string(raw)
}

// extractPosts pulls comment bodies out of the standard 5ch read.cgi markup.
// When the page does not match that structure (dat mirror, viewer variants),
// the whole document is returned and the normalizer deals with it.
func extractPosts(body string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return body
	}

	messages := doc.Find("div.post div.message")
	if messages.Length() == 0 {
		return body
	}

	var posts []string
	messages.Each(func(_ int, sel *goquery.Selection) {
		posts = append(posts, strings.TrimSpace(sel.Text()))
	})
	return strings.Join(posts, "\n")
}

func (f *Fetcher) debug(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}
