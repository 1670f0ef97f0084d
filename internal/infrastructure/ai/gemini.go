package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"TickerRadar/internal/domain"
	"TickerRadar/internal/ports"
)

const systemInstruction = `You are a financial analyst covering Japanese retail investor forums.
You receive a ranking of US stock tickers by how often they were mentioned in forum threads over the last day.
Write a short commentary (2-3 sentences, Japanese) on what the mention ranking suggests about retail sentiment.
Do not give investment advice. Do not invent tickers that are not in the ranking.`

// GeminiCommentator generates a short market commentary for a ranking,
// trying a list of models in order until one responds.
type GeminiCommentator struct {
	apiKey string
	models []string
	logger *slog.Logger
}

var _ ports.Commentator = (*GeminiCommentator)(nil)

// NewGeminiCommentator builds a commentator from configuration.
func NewGeminiCommentator(apiKey string, models []string, logger *slog.Logger) *GeminiCommentator {
	return &GeminiCommentator{apiKey: apiKey, models: models, logger: logger}
}

// Comment asks Gemini for a commentary on the ranked items. Every model in
// the configured list is tried in order; the error of the last attempt is
// returned when all of them fail.
func (g *GeminiCommentator) Comment(ctx context.Context, items []domain.RankingEntry) (string, error) {
	if g.apiKey == "" {
		return "", fmt.Errorf("gemini api key is required")
	}
	if len(items) == 0 {
		return "", nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("create gemini client: %w", err)
	}

	prompt, err := buildPrompt(items)
	if err != nil {
		return "", err
	}

	contents := []*genai.Content{
		{Role: "user", Parts: []*genai.Part{{Text: prompt}}},
	}
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemInstruction}}},
		ResponseMIMEType:  "application/json",
		ResponseSchema:    responseSchema(),
	}

	var lastErr error
	for _, model := range g.models {
		resp, err := client.Models.GenerateContent(ctx, model, contents, cfg)
		if err != nil {
			lastErr = fmt.Errorf("model %s: %w", model, err)
			if g.logger != nil {
				g.logger.Debug("gemini model failed, trying next", "model", model, "error", err)
			}
			continue
		}

		commentary, err := parseCommentary(resp.Text())
		if err != nil {
			lastErr = fmt.Errorf("model %s: %w", model, err)
			continue
		}
		return commentary, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no gemini models configured")
	}
	return "", lastErr
}

func buildPrompt(items []domain.RankingEntry) (string, error) {
	top := items
	if len(top) > 20 {
		top = top[:20]
	}
	encoded, err := json.Marshal(top)
	if err != nil {
		return "", fmt.Errorf("marshal ranking: %w", err)
	}
	return "Mention ranking (ticker, count):\n" + string(encoded), nil
}

func parseCommentary(raw string) (string, error) {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, "```json", ""))
	raw = strings.TrimSpace(strings.ReplaceAll(raw, "```", ""))

	var out struct {
		Commentary string `json:"commentary"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return "", fmt.Errorf("unmarshal gemini response: %w", err)
	}
	if out.Commentary == "" {
		return "", fmt.Errorf("empty commentary in gemini response")
	}
	return out.Commentary, nil
}

func responseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"commentary": {Type: genai.TypeString, Description: "Short Japanese commentary on the mention ranking."},
		},
		Required: []string{"commentary"},
	}
}
