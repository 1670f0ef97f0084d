package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TickerRadar/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})
	return store
}

func TestRankingRoundTrip(t *testing.T) {
	store := openTestStore(t)

	snapshot := domain.RankingSnapshot{
		UpdatedAt: time.Now().UTC().Truncate(time.Second),
		Window:    "24h",
		Items: []domain.RankingEntry{
			{Ticker: "NVDA", Count: 12},
			{Ticker: "TSLA", Count: 7},
		},
		Sources: []domain.Source{{Name: "thread-a", URL: "https://egg.5ch.net/test/read.cgi/stock/1700000001/"}},
	}

	require.NoError(t, store.SaveRanking("24h", snapshot))

	got, err := store.GetRanking("24h")
	require.NoError(t, err)
	assert.Equal(t, snapshot, got)
}

func TestGetRankingMissingWindowReturnsEmptySnapshot(t *testing.T) {
	store := openTestStore(t)

	got, err := store.GetRanking("7d")
	require.NoError(t, err)
	assert.Equal(t, "7d", got.Window)
	assert.NotNil(t, got.Items)
	assert.Empty(t, got.Items)
	assert.NotNil(t, got.Sources)
}

func TestSaveRankingSupersedes(t *testing.T) {
	store := openTestStore(t)

	first := domain.RankingSnapshot{Window: "24h", Items: []domain.RankingEntry{{Ticker: "AMD", Count: 1}}}
	second := domain.RankingSnapshot{Window: "24h", Items: []domain.RankingEntry{{Ticker: "NVDA", Count: 9}}}

	require.NoError(t, store.SaveRanking("24h", first))
	require.NoError(t, store.SaveRanking("24h", second))

	got, err := store.GetRanking("24h")
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "NVDA", got.Items[0].Ticker)
}

func TestRunMetaRoundTrip(t *testing.T) {
	store := openTestStore(t)

	// Absent meta is a zero value, not an error.
	meta, err := store.GetRunMeta()
	require.NoError(t, err)
	assert.True(t, meta.LastRunAt.IsZero())

	want := domain.RunMeta{
		LastRunAt:  time.Now().UTC().Truncate(time.Second),
		LastStatus: domain.RunError,
		LastError:  "all thread endpoints failed",
	}
	require.NoError(t, store.SaveRunMeta(want))

	got, err := store.GetRunMeta()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestPricesRoundTrip(t *testing.T) {
	store := openTestStore(t)

	now := time.Now().UTC().Truncate(time.Second)
	quotes := []domain.PriceQuote{
		{Ticker: "NVDA", Price: 130.25, ChangePercent: 2.1, UpdatedAt: now},
		{Ticker: "TSLA", Price: 244.4, ChangePercent: -1.3, UpdatedAt: now},
	}
	require.NoError(t, store.SavePrices(quotes))

	// Upsert replaces the previous quote for the same ticker.
	require.NoError(t, store.SavePrices([]domain.PriceQuote{
		{Ticker: "NVDA", Price: 131.0, ChangePercent: 2.7, UpdatedAt: now},
	}))

	got, err := store.GetPrices()
	require.NoError(t, err)
	require.Len(t, got, 2)

	byTicker := map[string]domain.PriceQuote{}
	for _, q := range got {
		byTicker[q.Ticker] = q
	}
	assert.Equal(t, 131.0, byTicker["NVDA"].Price)
	assert.Equal(t, 244.4, byTicker["TSLA"].Price)
}
