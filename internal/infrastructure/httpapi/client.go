package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"TickerRadar/internal/domain"
	"TickerRadar/internal/ports"
)

// Client pushes a finished snapshot to a remote ingest endpoint, the seam
// between a locally run pipeline and the serving deployment.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

var _ ports.IngestClient = (*Client)(nil)

// NewClient builds an ingest client for the given base URL and bearer token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

// Ingest POSTs the snapshot as JSON. Response bodies of failed calls are not
// included in the returned error; the status line is enough for diagnosis.
func (c *Client) Ingest(ctx context.Context, snapshot domain.RankingSnapshot) error {
	if c.baseURL == "" || c.token == "" {
		return fmt.Errorf("ingest client misconfigured")
	}

	body, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/internal/ingest", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post snapshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("ingest rejected: %s", resp.Status)
	}

	return nil
}
