package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TickerRadar/internal/domain"
)

type memoryRepo struct {
	rankings map[string]domain.RankingSnapshot
	meta     domain.RunMeta
	quotes   []domain.PriceQuote
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rankings: map[string]domain.RankingSnapshot{}}
}

func (m *memoryRepo) SaveRanking(window string, snapshot domain.RankingSnapshot) error {
	m.rankings[window] = snapshot
	return nil
}

func (m *memoryRepo) GetRanking(window string) (domain.RankingSnapshot, error) {
	if snapshot, ok := m.rankings[window]; ok {
		return snapshot, nil
	}
	return domain.EmptySnapshot(window), nil
}

func (m *memoryRepo) SaveRunMeta(meta domain.RunMeta) error {
	m.meta = meta
	return nil
}

func (m *memoryRepo) GetRunMeta() (domain.RunMeta, error) {
	return m.meta, nil
}

func (m *memoryRepo) SavePrices(quotes []domain.PriceQuote) error {
	m.quotes = quotes
	return nil
}

func (m *memoryRepo) GetPrices() ([]domain.PriceQuote, error) {
	return m.quotes, nil
}

func newTestServer(repo *memoryRepo) *httptest.Server {
	s := NewServer(":0", repo, repo, "test-token", nil)
	return httptest.NewServer(s.Routes())
}

func TestHealth(t *testing.T) {
	t.Parallel()

	server := newTestServer(newMemoryRepo())
	defer server.Close()

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGetRankingDefaultsToEmptySnapshot(t *testing.T) {
	t.Parallel()

	server := newTestServer(newMemoryRepo())
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/ranking?window=24h")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	var snapshot domain.RankingSnapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snapshot))
	assert.Equal(t, "24h", snapshot.Window)
	assert.NotNil(t, snapshot.Items)
	assert.Empty(t, snapshot.Items)
}

func TestIngestRequiresBearerToken(t *testing.T) {
	t.Parallel()

	repo := newMemoryRepo()
	server := newTestServer(repo)
	defer server.Close()

	body := `{"window":"24h","items":[{"ticker":"NVDA","count":3}]}`

	for _, header := range []string{"", "Bearer wrong", "Basic test-token"} {
		req, err := http.NewRequest(http.MethodPost, server.URL+"/internal/ingest", strings.NewReader(body))
		require.NoError(t, err)
		if header != "" {
			req.Header.Set("Authorization", header)
		}

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "header %q", header)
	}

	assert.Empty(t, repo.rankings, "nothing may be persisted on auth failure")
}

func TestIngestValidatesPayload(t *testing.T) {
	t.Parallel()

	repo := newMemoryRepo()
	server := newTestServer(repo)
	defer server.Close()

	for _, body := range []string{
		"{not json",
		`{"items":[{"ticker":"NVDA","count":3}]}`,
		`{"window":"24h"}`,
	} {
		req, err := http.NewRequest(http.MethodPost, server.URL+"/internal/ingest", strings.NewReader(body))
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer test-token")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "body %q", body)
	}

	assert.Empty(t, repo.rankings, "nothing may be persisted on validation failure")
}

func TestIngestPersistsSnapshotAndMeta(t *testing.T) {
	t.Parallel()

	repo := newMemoryRepo()
	server := newTestServer(repo)
	defer server.Close()

	body := `{"window":"24h","items":[{"ticker":"TSLA","count":2}],
		"sources":[{"name":"thread-a","url":"https://egg.5ch.net/test/read.cgi/stock/1700000001/"}],
		"commentary":"TSLAに注目が集まっています。","sentiment":{"score":0.4}}`

	req, err := http.NewRequest(http.MethodPost, server.URL+"/internal/ingest", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer test-token")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	saved, ok := repo.rankings["24h"]
	require.True(t, ok)
	require.Len(t, saved.Items, 1)
	assert.Equal(t, "TSLA", saved.Items[0].Ticker)
	assert.Equal(t, "TSLAに注目が集まっています。", saved.Commentary)
	assert.False(t, saved.UpdatedAt.IsZero(), "missing updatedAt defaults to now")
	assert.WithinDuration(t, time.Now().UTC(), saved.UpdatedAt, time.Minute)

	assert.Equal(t, domain.RunSuccess, repo.meta.LastStatus)
}

func TestGetPrices(t *testing.T) {
	t.Parallel()

	repo := newMemoryRepo()
	repo.quotes = []domain.PriceQuote{{Ticker: "NVDA", Price: 130.25, ChangePercent: 1.5}}
	server := newTestServer(repo)
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/prices")
	require.NoError(t, err)
	defer resp.Body.Close()

	var quotes []domain.PriceQuote
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&quotes))
	require.Len(t, quotes, 1)
	assert.Equal(t, "NVDA", quotes[0].Ticker)
}

func TestIngestClientRoundTrip(t *testing.T) {
	t.Parallel()

	repo := newMemoryRepo()
	server := newTestServer(repo)
	defer server.Close()

	client := NewClient(server.URL, "test-token")
	snapshot := domain.RankingSnapshot{
		UpdatedAt: time.Now().UTC(),
		Window:    "24h",
		Items:     []domain.RankingEntry{{Ticker: "NVDA", Count: 5}},
		Sources:   []domain.Source{},
	}
	require.NoError(t, client.Ingest(t.Context(), snapshot))
	assert.Len(t, repo.rankings["24h"].Items, 1)

	bad := NewClient(server.URL, "wrong-token")
	err := bad.Ingest(t.Context(), snapshot)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
