package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"TickerRadar/internal/domain"
	"TickerRadar/internal/ports"
)

const defaultBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// YahooClient fetches last close and day change from the Yahoo Finance chart API.
type YahooClient struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

var _ ports.QuoteProvider = (*YahooClient)(nil)

// NewYahooClient creates a reusable quote client.
func NewYahooClient(client *http.Client, logger *slog.Logger) *YahooClient {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &YahooClient{
		baseURL: defaultBaseURL,
		client:  client,
		logger:  logger,
	}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				ChartPreviousClose float64 `json:"chartPreviousClose"`
			} `json:"meta"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
	} `json:"chart"`
}

// FetchQuotes returns quotes for the tickers that could be resolved; tickers
// that fail are skipped so one bad symbol never sinks the whole update.
func (c *YahooClient) FetchQuotes(ctx context.Context, tickers []string) ([]domain.PriceQuote, error) {
	now := time.Now().UTC()

	quotes := make([]domain.PriceQuote, 0, len(tickers))
	for _, ticker := range tickers {
		quote, err := c.fetchOne(ctx, ticker, now)
		if err != nil {
			if ctx.Err() != nil {
				return quotes, ctx.Err()
			}
			if c.logger != nil {
				c.logger.Debug("quote fetch skipped", "ticker", ticker, "error", err)
			}
			continue
		}
		quotes = append(quotes, quote)
	}
	return quotes, nil
}

func (c *YahooClient) fetchOne(ctx context.Context, ticker string, now time.Time) (domain.PriceQuote, error) {
	endpoint := fmt.Sprintf("%s/%s?interval=1d&range=2d", c.baseURL, ticker)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.PriceQuote{}, fmt.Errorf("new request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.PriceQuote{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.PriceQuote{}, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var payload chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.PriceQuote{}, fmt.Errorf("decode response: %w", err)
	}
	if len(payload.Chart.Result) == 0 || len(payload.Chart.Result[0].Indicators.Quote) == 0 {
		return domain.PriceQuote{}, fmt.Errorf("no chart data for %s", ticker)
	}

	result := payload.Chart.Result[0]
	var closes []float64
	for _, v := range result.Indicators.Quote[0].Close {
		if v != nil {
			closes = append(closes, *v)
		}
	}
	if len(closes) == 0 {
		return domain.PriceQuote{}, fmt.Errorf("no close prices for %s", ticker)
	}

	current := closes[len(closes)-1]
	prev := result.Meta.ChartPreviousClose
	if prev == 0 {
		prev = closes[0]
	}

	change := 0.0
	if prev != 0 {
		change = (current - prev) / prev * 100
	}

	return domain.PriceQuote{
		Ticker:        ticker,
		Price:         round2(current),
		ChangePercent: round2(change),
		UpdatedAt:     now,
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
