// Package ports defines the interfaces between the use cases and the
// infrastructure adapters.
package ports

import (
	"context"
	"time"

	"TickerRadar/internal/domain"
)

// ThreadFetcher retrieves the text content of one forum thread.
type ThreadFetcher interface {
	FetchThread(ctx context.Context, url string) (string, error)
}

// RankingRepository persists ranking snapshots and run metadata.
type RankingRepository interface {
	SaveRanking(window string, snapshot domain.RankingSnapshot) error
	GetRanking(window string) (domain.RankingSnapshot, error)
	SaveRunMeta(meta domain.RunMeta) error
	GetRunMeta() (domain.RunMeta, error)
}

// PriceRepository persists market quotes.
type PriceRepository interface {
	SavePrices(quotes []domain.PriceQuote) error
	GetPrices() ([]domain.PriceQuote, error)
}

// QuoteProvider resolves current market quotes for a set of tickers.
type QuoteProvider interface {
	FetchQuotes(ctx context.Context, tickers []string) ([]domain.PriceQuote, error)
}

// Commentator produces a short natural-language commentary for a ranking.
type Commentator interface {
	Comment(ctx context.Context, items []domain.RankingEntry) (string, error)
}

// IngestClient pushes a finished snapshot to a remote serving deployment.
type IngestClient interface {
	Ingest(ctx context.Context, snapshot domain.RankingSnapshot) error
}

// Scheduler runs registered jobs on a recurring schedule.
type Scheduler interface {
	AddJob(spec string, job func(time.Time)) error
	Start()
	Stop(ctx context.Context) error
}
