package storage

import (
	"errors"
	"fmt"

	"github.com/timshannon/badgerhold/v4"

	"TickerRadar/internal/domain"
	"TickerRadar/internal/ports"
)

const metaKey = "meta"

var _ ports.RankingRepository = (*Store)(nil)
var _ ports.PriceRepository = (*Store)(nil)

func rankingKey(window string) string {
	return "ranking:" + window
}

// SaveRanking persists the snapshot for a window, superseding the previous one.
func (s *Store) SaveRanking(window string, snapshot domain.RankingSnapshot) error {
	if err := s.db.Upsert(rankingKey(window), snapshot); err != nil {
		return fmt.Errorf("save ranking %s: %w", window, err)
	}
	return nil
}

// GetRanking returns the latest snapshot for a window. A window that has
// never been written yields a structurally valid empty snapshot, so the read
// path degrades to stale/absent data instead of an error page.
func (s *Store) GetRanking(window string) (domain.RankingSnapshot, error) {
	var snapshot domain.RankingSnapshot
	if err := s.db.Get(rankingKey(window), &snapshot); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return domain.EmptySnapshot(window), nil
		}
		return domain.RankingSnapshot{}, fmt.Errorf("get ranking %s: %w", window, err)
	}
	if snapshot.Items == nil {
		snapshot.Items = []domain.RankingEntry{}
	}
	if snapshot.Sources == nil {
		snapshot.Sources = []domain.Source{}
	}
	return snapshot, nil
}

// SaveRunMeta records the outcome of the most recent pipeline run.
func (s *Store) SaveRunMeta(meta domain.RunMeta) error {
	if err := s.db.Upsert(metaKey, meta); err != nil {
		return fmt.Errorf("save run meta: %w", err)
	}
	return nil
}

// GetRunMeta returns the last recorded run outcome, zero-valued when none.
func (s *Store) GetRunMeta() (domain.RunMeta, error) {
	var meta domain.RunMeta
	if err := s.db.Get(metaKey, &meta); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return domain.RunMeta{}, nil
		}
		return domain.RunMeta{}, fmt.Errorf("get run meta: %w", err)
	}
	return meta, nil
}

// SavePrices upserts the latest quote for each ticker.
func (s *Store) SavePrices(quotes []domain.PriceQuote) error {
	for _, q := range quotes {
		if q.Ticker == "" {
			continue
		}
		if err := s.db.Upsert(q.Ticker, q); err != nil {
			return fmt.Errorf("save price %s: %w", q.Ticker, err)
		}
	}
	return nil
}

// GetPrices returns every stored quote.
func (s *Store) GetPrices() ([]domain.PriceQuote, error) {
	var quotes []domain.PriceQuote
	if err := s.db.Find(&quotes, nil); err != nil {
		return nil, fmt.Errorf("list prices: %w", err)
	}
	return quotes, nil
}
