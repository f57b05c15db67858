// Package enrich derives a summary, category, and tag suggestions for a
// fetched link. An external completion service does the heavy lifting
// when configured; a deterministic local fallback guarantees the caller
// always receives a usable result.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jonesrussell/pocketish/internal/logger"
)

// Derivation limits.
const (
	// wordsPerMinute is the fixed reading-speed estimate.
	wordsPerMinute = 200
	// fallbackSummaryLen caps the body excerpt used for the fallback summary.
	fallbackSummaryLen = 340
	// maxTags caps the number of suggested tags.
	maxTags = 6
	// maxSuggestedTagLen caps each suggested tag.
	maxSuggestedTagLen = 40
	// maxPromptBodyLen caps how much body text is sent to the service.
	maxPromptBodyLen = 6000
	// fallbackCategory is used when the service proposes nothing usable.
	fallbackCategory = "Other"
)

// Source indicates which path produced an enrichment result.
type Source string

const (
	// SourceModel means the completion service produced the result.
	SourceModel Source = "model"
	// SourceFallback means the deterministic local path produced it.
	SourceFallback Source = "fallback"
)

// Result is a complete enrichment outcome. Summary always starts with
// the reading-time marker, Category is never empty, and Tags holds at
// most six normalized names.
type Result struct {
	Summary  string
	Category string
	Tags     []string
	Source   Source
}

// completer abstracts the completion client for testing.
type completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Engine derives enrichment results. A nil client means fallback-only
// mode: every link still gets a summary and category.
type Engine struct {
	client completer
	log    logger.Logger
}

// NewEngine creates an enrichment engine. Pass a nil client to run in
// fallback-only mode.
func NewEngine(client *Client, log logger.Logger) *Engine {
	e := &Engine{log: log}
	if client != nil {
		e.client = client
	}
	return e
}

// Enrich produces the (summary, category, tags) triple for a link.
// It never fails: service errors and malformed responses degrade to the
// deterministic fallback.
func (e *Engine) Enrich(ctx context.Context, url, title, body string) Result {
	marker := readingTimeMarker(body)

	if e.client == nil {
		return e.fallback(marker, url, title, body)
	}

	content, completeErr := e.client.Complete(ctx, buildMessages(url, title, body, marker))
	if completeErr != nil {
		e.log.Warn("enrichment degraded to fallback",
			logger.String("url", url),
			logger.Error(completeErr))
		return e.fallback(marker, url, title, body)
	}

	parsed, parseErr := parseResult(content)
	if parseErr != nil {
		e.log.Warn("enrichment response unparseable, using fallback",
			logger.String("url", url),
			logger.Error(parseErr))
		return e.fallback(marker, url, title, body)
	}

	return e.guard(parsed, marker, url, title, body)
}

// fallback builds the deterministic result used whenever the service is
// unconfigured, unreachable, or unintelligible.
func (e *Engine) fallback(marker, url, title, body string) Result {
	return Result{
		Summary:  marker + excerpt(body, title, url),
		Category: fallbackCategory,
		Tags:     []string{},
		Source:   SourceFallback,
	}
}

// guard applies the post-parse guardrails so a sloppy service response
// still yields well-formed fields.
func (e *Engine) guard(parsed modelResult, marker, url, title, body string) Result {
	summary := strings.TrimSpace(parsed.Summary)
	if summary == "" {
		summary = marker + excerpt(body, title, url)
	} else if !strings.HasPrefix(summary, marker) {
		summary = marker + summary
	}

	category := strings.TrimSpace(parsed.Category)
	if category == "" {
		category = fallbackCategory
	} else {
		// Caser is stateful, so build one per use.
		category = cases.Title(language.English).String(strings.ToLower(category))
	}

	tags := make([]string, 0, maxTags)
	for _, tag := range parsed.Tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if len(tag) > maxSuggestedTagLen {
			tag = tag[:maxSuggestedTagLen]
		}
		tags = append(tags, tag)
		if len(tags) == maxTags {
			break
		}
	}

	return Result{
		Summary:  summary,
		Category: category,
		Tags:     tags,
		Source:   SourceModel,
	}
}

// modelResult is the structured object the service is asked to return.
type modelResult struct {
	Summary  string   `json:"summary"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

// parseResult parses the service response, repairing fenced or
// prose-wrapped JSON before giving up.
func parseResult(content string) (modelResult, error) {
	var parsed modelResult
	if err := json.Unmarshal([]byte(content), &parsed); err == nil {
		return parsed, nil
	}

	repaired := extractJSON(content)
	if repaired == "" {
		return modelResult{}, fmt.Errorf("no JSON object in response")
	}
	if err := json.Unmarshal([]byte(repaired), &parsed); err != nil {
		return modelResult{}, fmt.Errorf("parse repaired response: %w", err)
	}
	return parsed, nil
}

// buildMessages constructs the chat prompt for the completion service.
func buildMessages(url, title, body, marker string) []Message {
	if len(body) > maxPromptBodyLen {
		body = body[:maxPromptBodyLen]
	}

	system := "You summarize saved web pages. Respond with only a JSON object " +
		`containing "summary" (2-3 sentences), "category" (one or two words), and ` +
		`"tags" (up to 6 short lowercase keywords). Begin the summary with the ` +
		"exact prefix " + fmt.Sprintf("%q.", marker)

	user := fmt.Sprintf("URL: %s\nTitle: %s\n\nPage text:\n%s", url, title, body)

	return []Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}
}

// ReadingTimeMinutes estimates whole minutes to read the text at a
// fixed rate, floored at one minute.
func ReadingTimeMinutes(body string) int {
	words := len(strings.Fields(body))
	minutes := int(math.Round(float64(words) / wordsPerMinute))
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

// readingTimeMarker formats the summary prefix for the body.
func readingTimeMarker(body string) string {
	return fmt.Sprintf("[%d min read] ", ReadingTimeMinutes(body))
}

// excerpt produces the fallback summary text: the start of the body,
// or the title, or the URL when nothing else exists.
func excerpt(body, title, url string) string {
	text := strings.TrimSpace(body)
	if text == "" {
		text = strings.TrimSpace(title)
	}
	if text == "" {
		text = url
	}

	runes := []rune(text)
	if len(runes) > fallbackSummaryLen {
		runes = runes[:fallbackSummaryLen]
	}
	return string(runes) + "…"
}
