// Package worker runs the single processing loop that drives claimed
// links through fetch, extraction, enrichment, and tag writes to a
// terminal status.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonesrussell/pocketish/internal/domain"
	"github.com/jonesrussell/pocketish/internal/enrich"
	"github.com/jonesrussell/pocketish/internal/extract"
	"github.com/jonesrussell/pocketish/internal/fetch"
	"github.com/jonesrussell/pocketish/internal/logger"
)

// LinkQueue defines the queue operations the worker needs.
type LinkQueue interface {
	// ClaimNext atomically claims the oldest queued link, or returns
	// (nil, nil) when the queue is empty.
	ClaimNext(ctx context.Context) (*domain.Link, error)

	// Complete writes final content fields and marks the link ready.
	Complete(ctx context.Context, linkID int64, title, summary, category string) error

	// Fail marks the link as errored.
	Fail(ctx context.Context, linkID int64) error

	// RequeueStale returns links stuck in processing back to the queue.
	RequeueStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

// TagWriter defines the tag operations the worker needs.
type TagWriter interface {
	// ReplaceSystemTags inserts proposed system tags not already present.
	ReplaceSystemTags(ctx context.Context, linkID int64, names []string) error
}

// Fetcher retrieves remote markup.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) fetch.Result
}

// Enricher derives summary, category, and tags.
type Enricher interface {
	Enrich(ctx context.Context, url, title, body string) enrich.Result
}

// Extractor parses markup into the normalized content triple.
type Extractor func(markup, titleHint string) extract.Content

// Config holds worker loop configuration.
type Config struct {
	PollInterval time.Duration
	StaleAfter   time.Duration
}

// Worker polls the queue and processes one link per tick. A failing
// link transitions to error and the loop continues; nothing a single
// link does can stop the loop.
type Worker struct {
	queue     LinkQueue
	tags      TagWriter
	fetcher   Fetcher
	extractor Extractor
	enricher  Enricher
	log       logger.Logger

	pollInterval time.Duration
	staleAfter   time.Duration
	running      bool
	stopChan     chan struct{}
}

// New creates a worker.
func New(
	queue LinkQueue,
	tags TagWriter,
	fetcher Fetcher,
	extractor Extractor,
	enricher Enricher,
	log logger.Logger,
	cfg Config,
) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 15 * time.Minute
	}

	return &Worker{
		queue:        queue,
		tags:         tags,
		fetcher:      fetcher,
		extractor:    extractor,
		enricher:     enricher,
		log:          log,
		pollInterval: cfg.PollInterval,
		staleAfter:   cfg.StaleAfter,
		stopChan:     make(chan struct{}),
	}
}

// Start launches the polling loop. Links stuck in processing from a
// previous run are requeued once before the first tick.
func (w *Worker) Start(ctx context.Context) error {
	if w.running {
		return errors.New("worker is already running")
	}
	w.running = true

	w.log.Info("worker starting",
		logger.Duration("poll_interval", w.pollInterval),
		logger.Duration("stale_after", w.staleAfter))

	requeued, requeueErr := w.queue.RequeueStale(ctx, w.staleAfter)
	if requeueErr != nil {
		w.log.Error("failed to requeue stale links", logger.Error(requeueErr))
	} else if requeued > 0 {
		w.log.Info("requeued stale links", logger.Int64("count", requeued))
	}

	go w.run(ctx)
	return nil
}

// Stop stops the polling loop.
func (w *Worker) Stop() {
	if !w.running {
		return
	}
	w.log.Info("worker stopping")
	close(w.stopChan)
	w.running = false
}

// run is the main polling loop.
func (w *Worker) run(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("worker stopped due to context cancellation")
			return
		case <-w.stopChan:
			w.log.Info("worker stopped")
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

// tick claims at most one link and processes it to a terminal state.
func (w *Worker) tick(ctx context.Context) {
	link, claimErr := w.queue.ClaimNext(ctx)
	if claimErr != nil {
		w.log.Error("failed to claim next link", logger.Error(claimErr))
		return
	}
	if link == nil {
		return
	}

	w.log.Info("processing link",
		logger.Int64("link_id", link.ID),
		logger.String("url", link.URL))

	if processErr := w.process(ctx, link); processErr != nil {
		w.log.Error("link processing failed",
			logger.Int64("link_id", link.ID),
			logger.Error(processErr))
		if failErr := w.queue.Fail(ctx, link.ID); failErr != nil {
			w.log.Error("failed to mark link as errored",
				logger.Int64("link_id", link.ID),
				logger.Error(failErr))
		}
	}
}

// process drives one claimed link through the pipeline. Any returned
// error sends the link to the error status; a panic in any stage is
// converted to an error so the loop survives.
func (w *Worker) process(ctx context.Context, link *domain.Link) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during link processing: %v", r)
		}
	}()

	result := w.fetcher.Fetch(ctx, link.URL)
	content := w.extractor(result.HTML, link.Title)

	// A user-supplied title always wins over the extracted one.
	title := link.Title
	if title == "" {
		title = content.Title
	}

	enriched := w.enricher.Enrich(ctx, link.URL, title, content.Body)

	if tagErr := w.tags.ReplaceSystemTags(ctx, link.ID, enriched.Tags); tagErr != nil {
		return tagErr
	}
	if completeErr := w.queue.Complete(ctx, link.ID, title, enriched.Summary, enriched.Category); completeErr != nil {
		return completeErr
	}

	w.log.Info("link ready",
		logger.Int64("link_id", link.ID),
		logger.String("fetch_outcome", string(result.Outcome)),
		logger.String("enrich_source", string(enriched.Source)))
	return nil
}
