// Package gemini implements the model gateway backed by the Gemini
// generateContent REST API.
package gemini

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"log/slog"

	"github.com/fairyhunter13/history-ai-wiki/internal/adapter/ai/tokencount"
	"github.com/fairyhunter13/history-ai-wiki/internal/adapter/observability"
	"github.com/fairyhunter13/history-ai-wiki/internal/config"
	"github.com/fairyhunter13/history-ai-wiki/internal/domain"
)

// Client implements domain.ModelGateway. It is the single choke point for
// every prompt sent upstream: fixed model id and sampling parameters, bounded
// retry with exponential backoff, per-attempt logging and metrics.
type Client struct {
	cfg config.Config
	hc  *http.Client
}

// New constructs a Gemini client with the configured call timeout.
func New(cfg config.Config) *Client {
	return &Client{
		cfg: cfg,
		hc: &http.Client{
			Timeout:   cfg.AICallTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"topP"`
	TopK        int     `json:"topK"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// newBackOff returns the deterministic retry schedule: base delay doubled
// after each failed attempt (1x, 2x, ...), no jitter, capped at maxAttempts
// total attempts.
func (c *Client) newBackOff(ctx domain.Context) backoff.BackOff {
	maxAttempts, baseDelay := c.cfg.GetAIRetryConfig()
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = baseDelay
	expo.Multiplier = 2.0
	expo.RandomizationFactor = 0
	expo.MaxInterval = 8 * baseDelay
	expo.MaxElapsedTime = 0
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return backoff.WithContext(backoff.WithMaxRetries(expo, uint64(maxAttempts-1)), ctx)
}

// GenerateText sends the prompt upstream and returns the response text
// verbatim. An empty payload counts as a failed attempt. Once every attempt
// has failed the last cause is wrapped in domain.ErrGateway.
func (c *Client) GenerateText(ctx domain.Context, prompt string) (string, error) {
	if c.cfg.GeminiAPIKey == "" {
		slog.Error("Gemini API key missing", slog.String("provider", "gemini"))
		return "", fmt.Errorf("%w: GEMINI_API_KEY missing", domain.ErrInvalidArgument)
	}

	body := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature: c.cfg.GenTemperature,
			TopP:        c.cfg.GenTopP,
			TopK:        c.cfg.GenTopK,
		},
	}
	b, _ := json.Marshal(body)
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.cfg.GeminiBaseURL, c.cfg.GeminiModel)

	maxAttempts, _ := c.cfg.GetAIRetryConfig()
	attempt := 0
	var text string
	op := func() error {
		attempt++
		start := time.Now()
		// Recreate request each attempt to avoid reusing consumed bodies
		r, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
		if err != nil {
			return backoff.Permanent(err)
		}
		r.Header.Set("x-goog-api-key", c.cfg.GeminiAPIKey)
		r.Header.Set("Content-Type", "application/json")
		resp, err := c.hc.Do(r)
		observability.AIRequestsTotal.WithLabelValues("gemini", "generate").Inc()
		observability.AIRequestDuration.WithLabelValues("gemini", "generate").Observe(time.Since(start).Seconds())
		if err != nil {
			slog.Warn("gemini call failed", slog.Int("attempt", attempt), slog.Int("max_attempts", maxAttempts), slog.Any("error", err))
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			slog.Warn("gemini response read failed", slog.Int("attempt", attempt), slog.Any("error", err))
			return err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			bodySnippet := string(bodyBytes)
			if len(bodySnippet) > 512 {
				bodySnippet = bodySnippet[:512]
			}
			slog.Warn("gemini non-2xx", slog.Int("attempt", attempt), slog.Int("max_attempts", maxAttempts), slog.Int("status", resp.StatusCode), slog.String("model", c.cfg.GeminiModel), slog.String("body", bodySnippet))
			return fmt.Errorf("generate status %d", resp.StatusCode)
		}
		var out generateResponse
		if err := json.Unmarshal(bodyBytes, &out); err != nil {
			slog.Warn("gemini decode error", slog.Int("attempt", attempt), slog.Any("error", err))
			return err
		}
		if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 || out.Candidates[0].Content.Parts[0].Text == "" {
			slog.Warn("gemini returned empty payload", slog.Int("attempt", attempt), slog.Int("max_attempts", maxAttempts))
			return errors.New("empty response from model")
		}
		text = out.Candidates[0].Content.Parts[0].Text
		promptTokens := tokencount.Estimate(prompt)
		completionTokens := tokencount.Estimate(text)
		observability.AITokensTotal.WithLabelValues("gemini", "prompt").Add(float64(promptTokens))
		observability.AITokensTotal.WithLabelValues("gemini", "completion").Add(float64(completionTokens))
		slog.Debug("gemini call successful",
			slog.Int("attempt", attempt),
			slog.Int("response_length", len(text)),
			slog.Int("prompt_tokens_est", promptTokens),
			slog.Int("completion_tokens_est", completionTokens))
		return nil
	}

	notify := func(err error, wait time.Duration) {
		observability.AIRetriesTotal.WithLabelValues("gemini").Inc()
		slog.Info("retrying gemini call", slog.Duration("wait", wait), slog.Any("error", err))
	}
	if err := backoff.RetryNotify(op, c.newBackOff(ctx), notify); err != nil {
		slog.Error("gemini call failed after retries", slog.Int("attempts", attempt), slog.Any("error", err))
		return "", fmt.Errorf("%w: call failed after %d attempts: %w", domain.ErrGateway, attempt, err)
	}
	return text, nil
}
