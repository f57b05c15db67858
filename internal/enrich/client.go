package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/pocketish/internal/config"
	"github.com/jonesrussell/pocketish/internal/logger"
)

// maxResponseSize limits the completion response body.
const maxResponseSize = 10 * 1024 * 1024 // 10MB

// Backoff parameters for transient failures.
const (
	backoffBase       = 2 * time.Second
	backoffMultiplier = 2.0
	maxBackoff        = 30 * time.Second
)

// Message is one chat message in a completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// completionRequest is the OpenAI-compatible request body.
type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

// completionResponse is the subset of the response body we read.
type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Client calls an OpenAI-compatible chat completions endpoint with
// bounded retries and exponential backoff on transient failures.
type Client struct {
	httpClient  *http.Client
	log         logger.Logger
	baseURL     string
	apiKey      string
	model       string
	maxAttempts int
}

// NewClient creates a completions client from the enrichment config.
// Returns nil when no API key is configured; callers treat a nil client
// as fallback-only mode.
func NewClient(cfg config.EnrichmentConfig, log logger.Logger) *Client {
	if cfg.APIKey == "" {
		return nil
	}

	return &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		log:         log,
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		maxAttempts: cfg.MaxAttempts,
	}
}

// Complete sends the messages and returns the first choice's content.
// Transient failures (rate limits, 5xx, network errors) are retried up
// to the configured attempt count; fatal failures return immediately.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	requestID := uuid.New().String()

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		content, err := c.doRequest(ctx, messages)
		if err == nil {
			return content, nil
		}
		lastErr = err

		if !IsTransient(err) {
			c.log.Warn("enrichment call failed permanently",
				logger.String("request_id", requestID),
				logger.Error(err))
			return "", err
		}
		if attempt == c.maxAttempts {
			break
		}

		backoff := calculateBackoff(attempt)
		c.log.Warn("enrichment call failed, retrying",
			logger.String("request_id", requestID),
			logger.Int("attempt", attempt),
			logger.Duration("backoff", backoff),
			logger.Error(err))

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
	}

	return "", fmt.Errorf("enrichment failed after %d attempts: %w", c.maxAttempts, lastErr)
}

// doRequest executes a single completion request.
func (c *Client) doRequest(ctx context.Context, messages []Message) (string, error) {
	body, marshalErr := json.Marshal(completionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: 0.2,
	})
	if marshalErr != nil {
		return "", NewFatalError(fmt.Errorf("marshal request: %w", marshalErr))
	}

	url := c.baseURL + "/chat/completions"
	req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if reqErr != nil {
		return "", NewFatalError(fmt.Errorf("create request: %w", reqErr))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, doErr := c.httpClient.Do(req)
	if doErr != nil {
		// Network errors are transient.
		return "", NewTransientError(fmt.Errorf("completion request: %w", doErr))
	}
	defer resp.Body.Close()

	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if readErr != nil {
		return "", NewTransientError(fmt.Errorf("read response: %w", readErr))
	}

	if resp.StatusCode != http.StatusOK {
		return "", classifyHTTPError(resp.StatusCode, respBody)
	}

	var parsed completionResponse
	if unmarshalErr := json.Unmarshal(respBody, &parsed); unmarshalErr != nil {
		return "", NewFatalError(fmt.Errorf("parse response: %w", unmarshalErr))
	}
	if len(parsed.Choices) == 0 {
		return "", NewFatalError(fmt.Errorf("response contains no choices"))
	}

	return parsed.Choices[0].Message.Content, nil
}

// classifyHTTPError determines whether an HTTP error is transient or fatal.
func classifyHTTPError(statusCode int, body []byte) error {
	bodyStr := string(body)
	if len(bodyStr) > 200 {
		bodyStr = bodyStr[:200] + "..."
	}

	err := fmt.Errorf("completion API error (status %d): %s", statusCode, bodyStr)

	switch {
	case statusCode == http.StatusTooManyRequests:
		return NewTransientError(err)
	case statusCode >= 500:
		return NewTransientError(err)
	default:
		return NewFatalError(err)
	}
}

// calculateBackoff returns the delay before the next attempt, with
// +/- 25% jitter so retries never synchronize.
func calculateBackoff(attempt int) time.Duration {
	multiplier := 1.0
	for i := 1; i < attempt; i++ {
		multiplier *= backoffMultiplier
	}

	backoff := time.Duration(float64(backoffBase) * multiplier)
	if backoff > maxBackoff {
		backoff = maxBackoff
	}

	jitter := float64(backoff) * 0.25 * (rand.Float64()*2 - 1)
	return backoff + time.Duration(jitter)
}
