package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"TickerRadar/internal/ports"
)

// PriceUpdater refreshes market quotes for the configured watchlist plus
// every ticker currently present in the ranking.
type PriceUpdater struct {
	quotes    ports.QuoteProvider
	rankings  ports.RankingRepository
	prices    ports.PriceRepository
	watchlist []string
	window    string
	logger    *slog.Logger
}

// NewPriceUpdater wires the quote provider with both repositories.
func NewPriceUpdater(quotes ports.QuoteProvider, rankings ports.RankingRepository, prices ports.PriceRepository, watchlist []string, window string, logger *slog.Logger) *PriceUpdater {
	return &PriceUpdater{
		quotes:    quotes,
		rankings:  rankings,
		prices:    prices,
		watchlist: watchlist,
		window:    window,
		logger:    logger,
	}
}

// Run fetches and stores quotes once. The ticker set is the watchlist first,
// then ranking tickers in rank order, deduplicated.
func (u *PriceUpdater) Run(ctx context.Context) error {
	if u.quotes == nil || u.prices == nil {
		return nil
	}

	tickers := u.collectTickers()
	if len(tickers) == 0 {
		return nil
	}

	quotes, err := u.quotes.FetchQuotes(ctx, tickers)
	if err != nil {
		return fmt.Errorf("fetch quotes: %w", err)
	}
	if len(quotes) == 0 {
		if u.logger != nil {
			u.logger.Warn("no quotes fetched", "tickers", len(tickers))
		}
		return nil
	}

	if err := u.prices.SavePrices(quotes); err != nil {
		return fmt.Errorf("save prices: %w", err)
	}

	if u.logger != nil {
		u.logger.Info("prices updated", "quotes", len(quotes))
	}
	return nil
}

func (u *PriceUpdater) collectTickers() []string {
	seen := map[string]struct{}{}
	var tickers []string

	add := func(t string) {
		if t == "" {
			return
		}
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		tickers = append(tickers, t)
	}

	for _, t := range u.watchlist {
		add(t)
	}

	if u.rankings != nil {
		snapshot, err := u.rankings.GetRanking(u.window)
		if err != nil {
			if u.logger != nil {
				u.logger.Warn("load ranking for price update failed", "error", err)
			}
		} else {
			for _, item := range snapshot.Items {
				add(item.Ticker)
			}
		}
	}

	return tickers
}
