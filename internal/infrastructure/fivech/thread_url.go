package fivech

import (
	"fmt"
	"net/url"
	"strings"
)

// ThreadRef is the decomposed identity of one 5ch thread.
type ThreadRef struct {
	Scheme string
	Host   string // e.g. egg.5ch.net
	Server string // short server code, e.g. egg
	Board  string // e.g. stock
	Key    string // thread key, e.g. 1700000001
}

// ParseThreadURL validates a thread URL of the shape
// https://<server>.<domain>/test/read.cgi/<board>/<key>/... and decomposes it.
func ParseThreadURL(raw string) (ThreadRef, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return ThreadRef{}, fmt.Errorf("invalid thread url %s: %w", raw, err)
	}
	if parsed.Host == "" {
		return ThreadRef{}, fmt.Errorf("thread url %s has no host", raw)
	}

	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(segments) < 4 || segments[0] != "test" || segments[1] != "read.cgi" {
		return ThreadRef{}, fmt.Errorf("thread url %s does not match .../test/read.cgi/<board>/<key>", raw)
	}

	board, key := segments[2], segments[3]
	if board == "" || !isNumeric(key) {
		return ThreadRef{}, fmt.Errorf("thread url %s has malformed board/key", raw)
	}

	scheme := parsed.Scheme
	if scheme == "" {
		scheme = "https"
	}

	return ThreadRef{
		Scheme: scheme,
		Host:   parsed.Host,
		Server: strings.SplitN(parsed.Host, ".", 2)[0],
		Board:  board,
		Key:    key,
	}, nil
}

// DatURL is the raw-data mirror for the same thread.
func (r ThreadRef) DatURL() string {
	return fmt.Sprintf("%s://%s/%s/dat/%s.dat", r.Scheme, r.Host, r.Board, r.Key)
}

// ViewerURL is the lightweight itest viewer for the same thread.
func (r ThreadRef) ViewerURL(viewerBase string) string {
	return fmt.Sprintf("%s/%s/test/read.cgi/%s/%s/", strings.TrimSuffix(viewerBase, "/"), r.Server, r.Board, r.Key)
}

// RefererURL is a plausible same-site page to present as the navigation origin.
func (r ThreadRef) RefererURL() string {
	return fmt.Sprintf("%s://%s/%s/", r.Scheme, r.Host, r.Board)
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
