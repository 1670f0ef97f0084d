package domain

import "time"

// Source identifies one monitored forum thread.
type Source struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
}

// RankingEntry is a single row of the mention ranking.
type RankingEntry struct {
	Ticker string `json:"ticker"`
	Count  int    `json:"count"`
}

// RankingSnapshot is the unit of output of one pipeline run. It is immutable
// after creation; the next run supersedes it rather than merging into it.
type RankingSnapshot struct {
	UpdatedAt time.Time      `json:"updatedAt"`
	Window    string         `json:"window"`
	Items     []RankingEntry `json:"items"`
	Sources   []Source       `json:"sources"`

	// Optional enrichment appended by collaborators; absent-tolerant.
	Commentary string `json:"commentary,omitempty"`
}

// RunStatus enumerates terminal states of a pipeline run.
type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunError   RunStatus = "error"
)

// RunMeta records the outcome of the most recent pipeline run so operators
// can observe staleness. Written on success and on failure alike.
type RunMeta struct {
	LastRunAt  time.Time `json:"lastRunAt"`
	LastStatus RunStatus `json:"lastStatus"`
	LastError  string    `json:"lastError,omitempty"`
}

// PriceQuote is the latest market price for one ticker.
type PriceQuote struct {
	Ticker        string    `json:"ticker"`
	Price         float64   `json:"price"`
	ChangePercent float64   `json:"change_percent"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// EmptySnapshot returns a structurally valid zero-value snapshot for a window.
// The read path serves this instead of an error when nothing is stored yet.
func EmptySnapshot(window string) RankingSnapshot {
	return RankingSnapshot{
		Window:  window,
		Items:   []RankingEntry{},
		Sources: []Source{},
	}
}
