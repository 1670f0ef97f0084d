package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"TickerRadar/internal/config"
	"TickerRadar/internal/domain"
	"TickerRadar/internal/ports"
	"TickerRadar/internal/textmining"
)

// PipelineDeps wires all driven adapters into the ingest pipeline.
type PipelineDeps struct {
	Fetcher     ports.ThreadFetcher
	Repository  ports.RankingRepository
	Commentator ports.Commentator
	Logger      *slog.Logger
}

// Pipeline implements the fetch -> normalize -> extract -> aggregate workflow.
type Pipeline struct {
	sources     []domain.Source
	exclude     textmining.ExcludeSet
	window      string
	topN        int
	policy      config.FailurePolicy
	fetcher     ports.ThreadFetcher
	repository  ports.RankingRepository
	commentator ports.Commentator
	logger      *slog.Logger

	// Guards against overlapping runs when scheduling does not.
	running sync.Mutex
}

// NewPipeline constructs the orchestration component. The source list and
// exclusion set are fixed for the lifetime of the pipeline; a run never
// mutates them.
func NewPipeline(cfg config.Config, deps PipelineDeps) *Pipeline {
	sources := make([]domain.Source, 0, len(cfg.Sources))
	for _, s := range cfg.Sources {
		sources = append(sources, domain.Source{Name: s.Name, URL: s.URL})
	}

	topN := cfg.Pipeline.TopN
	if topN <= 0 {
		topN = 200
	}

	return &Pipeline{
		sources:     sources,
		exclude:     textmining.NewExcludeSet(cfg.Exclude),
		window:      cfg.Pipeline.Window,
		topN:        topN,
		policy:      cfg.Pipeline.OnSourceError,
		fetcher:     deps.Fetcher,
		repository:  deps.Repository,
		commentator: deps.Commentator,
		logger:      deps.Logger,
	}
}

// Run executes one full ingest cycle and returns the resulting snapshot. Run
// metadata is recorded on success and on failure alike so operators can
// observe staleness. Raw thread bodies are never persisted or logged.
func (p *Pipeline) Run(ctx context.Context, now time.Time) (domain.RankingSnapshot, error) {
	if !p.running.TryLock() {
		return domain.RankingSnapshot{}, fmt.Errorf("ingest run already in progress")
	}
	defer p.running.Unlock()

	snapshot, runErr := p.execute(ctx, now)

	meta := domain.RunMeta{LastRunAt: now.UTC(), LastStatus: domain.RunSuccess}
	if runErr != nil {
		meta.LastStatus = domain.RunError
		meta.LastError = runErr.Error()
	}
	if p.repository != nil {
		if err := p.repository.SaveRunMeta(meta); err != nil {
			p.warn("save run meta failed", "error", err)
		}
	}

	return snapshot, runErr
}

func (p *Pipeline) execute(ctx context.Context, now time.Time) (domain.RankingSnapshot, error) {
	if p.fetcher == nil {
		return domain.RankingSnapshot{}, fmt.Errorf("thread fetcher is not configured")
	}

	global := textmining.NewTally()
	used := make([]domain.Source, 0, len(p.sources))

	for _, src := range p.sources {
		body, err := p.fetcher.FetchThread(ctx, src.URL)
		if err != nil {
			if p.policy == config.PolicyAbort {
				return domain.RankingSnapshot{}, fmt.Errorf("fetch source %s: %w", src.Name, err)
			}
			p.warn("source skipped", "source", src.Name, "error", err)
			continue
		}

		local := textmining.ExtractHTML(body, p.exclude)
		global.Merge(local)
		used = append(used, src)
		p.debug("source processed", "source", src.Name, "tickers", local.Len())
	}

	if len(used) == 0 && len(p.sources) > 0 {
		return domain.RankingSnapshot{}, fmt.Errorf("no source could be fetched")
	}

	snapshot := p.buildSnapshot(global, used, now)

	if p.commentator != nil {
		commentary, err := p.commentator.Comment(ctx, snapshot.Items)
		if err != nil {
			p.warn("commentary skipped", "error", err)
		} else {
			snapshot.Commentary = commentary
		}
	}

	if p.repository != nil {
		if err := p.repository.SaveRanking(p.window, snapshot); err != nil {
			return domain.RankingSnapshot{}, fmt.Errorf("save ranking: %w", err)
		}
	}

	p.debug("ingest run finished", "sources", len(used), "tickers", global.Len())
	return snapshot, nil
}

// buildSnapshot converts the aggregate tally into a ranked, truncated
// snapshot. The sort is stable over first-seen order, which is the documented
// tie-break: two tickers with equal counts keep the order in which they first
// appeared across the source list.
func (p *Pipeline) buildSnapshot(tally *textmining.Tally, used []domain.Source, now time.Time) domain.RankingSnapshot {
	items := make([]domain.RankingEntry, 0, tally.Len())
	tally.Each(func(ticker string, count int) {
		items = append(items, domain.RankingEntry{Ticker: ticker, Count: count})
	})

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Count > items[j].Count
	})
	if len(items) > p.topN {
		items = items[:p.topN]
	}

	return domain.RankingSnapshot{
		UpdatedAt: now.UTC(),
		Window:    p.window,
		Items:     items,
		Sources:   used,
	}
}

func (p *Pipeline) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
