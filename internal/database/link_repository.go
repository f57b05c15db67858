package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/pocketish/internal/domain"
)

// Search result caps (per the query interface contract).
const (
	// DefaultSearchLimit is applied when the caller passes no limit.
	DefaultSearchLimit = 100
	// MaxSearchLimit is the hard cap on search result size.
	MaxSearchLimit = 500
)

// linkColumns is the column list selected for full link rows.
const linkColumns = `id, user_id, url, url_hash, normalized_url, normalized_url_hash,
	       title, summary, category, status, archived_at, created_at, updated_at`

// LinkRepository handles database operations for links, including the
// durable processing queue expressed through the status column.
type LinkRepository struct {
	db *sqlx.DB
}

// NewLinkRepository creates a new link repository.
func NewLinkRepository(db *sqlx.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

// Ping checks database connectivity.
func (r *LinkRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Enqueue inserts a new queued link for the owner. Re-submission of the same
// raw URL by the same owner is idempotent: the existing link id is returned
// with created=false. Returns domain.ErrValidation when the URL is empty
// after trimming.
func (r *LinkRepository) Enqueue(ctx context.Context, userID int64, rawURL, title string) (int64, bool, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return 0, false, fmt.Errorf("%w: url required", domain.ErrValidation)
	}

	normalized := domain.NormalizeURL(rawURL)
	urlHash := domain.HashURL(rawURL)
	normalizedHash := domain.HashURL(normalized)

	if len(title) > domain.MaxTitleLen {
		title = title[:domain.MaxTitleLen]
	}

	insert := `
		INSERT INTO links
			(user_id, url, url_hash, normalized_url, normalized_url_hash, title, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, url_hash) DO NOTHING
		RETURNING id
	`

	var id int64
	scanErr := r.db.QueryRowContext(ctx, insert,
		userID, rawURL, urlHash, normalized, normalizedHash, title, domain.StatusQueued,
	).Scan(&id)

	if scanErr == nil {
		return id, true, nil
	}
	if !errors.Is(scanErr, sql.ErrNoRows) {
		return 0, false, fmt.Errorf("enqueue link: %w", scanErr)
	}

	// Conflict path: the owner already submitted this exact URL.
	query := `SELECT id FROM links WHERE user_id = $1 AND url_hash = $2`
	if getErr := r.db.GetContext(ctx, &id, query, userID, urlHash); getErr != nil {
		return 0, false, fmt.Errorf("lookup existing link: %w", getErr)
	}
	return id, false, nil
}

// ClaimNext atomically transitions the oldest queued link to processing and
// returns it. Returns (nil, nil) when the queue is empty. The claim is a
// single statement, so concurrent callers can never receive the same row.
func (r *LinkRepository) ClaimNext(ctx context.Context) (*domain.Link, error) {
	query := `
		UPDATE links
		SET status = $1, updated_at = NOW()
		WHERE id = (
			SELECT id FROM links
			WHERE status = $2
			ORDER BY created_at, id
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + linkColumns

	var link domain.Link
	err := r.db.GetContext(ctx, &link, query, domain.StatusProcessing, domain.StatusQueued)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim next link: %w", err)
	}

	return &link, nil
}

// Complete writes the final content fields and marks the link ready.
func (r *LinkRepository) Complete(ctx context.Context, linkID int64, title, summary, category string) error {
	if len(title) > domain.MaxTitleLen {
		title = title[:domain.MaxTitleLen]
	}

	query := `
		UPDATE links
		SET title = $1, summary = $2, category = $3, status = $4, updated_at = NOW()
		WHERE id = $5
	`

	if _, err := r.db.ExecContext(ctx, query,
		title, summary, category, domain.StatusReady, linkID,
	); err != nil {
		return fmt.Errorf("complete link: %w", err)
	}
	return nil
}

// Fail marks the link as errored. Used when any stage after claim fails.
func (r *LinkRepository) Fail(ctx context.Context, linkID int64) error {
	query := `UPDATE links SET status = $1, updated_at = NOW() WHERE id = $2`

	if _, err := r.db.ExecContext(ctx, query, domain.StatusError, linkID); err != nil {
		return fmt.Errorf("fail link: %w", err)
	}
	return nil
}

// RequeueStale returns links stuck in processing longer than olderThan back to
// the queue. Run once at worker startup: the single worker restarting is the
// only way processing rows outlive an attempt.
func (r *LinkRepository) RequeueStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	query := `
		UPDATE links
		SET status = $1, updated_at = NOW()
		WHERE status = $2 AND updated_at < NOW() - $3::interval
	`

	interval := fmt.Sprintf("%d seconds", int64(olderThan.Seconds()))
	res, err := r.db.ExecContext(ctx, query, domain.StatusQueued, domain.StatusProcessing, interval)
	if err != nil {
		return 0, fmt.Errorf("requeue stale links: %w", err)
	}

	requeued, rowsErr := res.RowsAffected()
	if rowsErr != nil {
		return 0, fmt.Errorf("requeue stale links: %w", rowsErr)
	}
	return requeued, nil
}

// GetByID returns the owner's link or domain.ErrNotFound.
func (r *LinkRepository) GetByID(ctx context.Context, userID, linkID int64) (*domain.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE id = $1 AND user_id = $2`

	var link domain.Link
	err := r.db.GetContext(ctx, &link, query, linkID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get link: %w", err)
	}

	return &link, nil
}

// SetArchived sets or clears archived_at for the owner's link. Archive state
// is independent of processing status and never interrupts in-flight work.
func (r *LinkRepository) SetArchived(ctx context.Context, userID, linkID int64, archived bool) error {
	query := `
		UPDATE links
		SET archived_at = CASE WHEN $1 THEN NOW() ELSE NULL END, updated_at = NOW()
		WHERE id = $2 AND user_id = $3
	`

	res, err := r.db.ExecContext(ctx, query, archived, linkID, userID)
	if err != nil {
		return fmt.Errorf("set archived: %w", err)
	}

	affected, rowsErr := res.RowsAffected()
	if rowsErr != nil {
		return fmt.Errorf("set archived: %w", rowsErr)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SearchFilter holds the optional filters for Search.
type SearchFilter struct {
	Query        string
	Tag          string
	Category     string
	ShowArchived bool
	Limit        int
}

// Search returns the owner's links newest first, applying the optional
// filters. The result size is clamped to [1, MaxSearchLimit].
func (r *LinkRepository) Search(ctx context.Context, userID int64, filter SearchFilter) ([]*domain.Link, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	var sb strings.Builder
	sb.WriteString(`SELECT DISTINCT l.id, l.user_id, l.url, l.url_hash, l.normalized_url,
	       l.normalized_url_hash, l.title, l.summary, l.category, l.status,
	       l.archived_at, l.created_at, l.updated_at
	FROM links l`)

	args := []any{userID}
	if filter.Tag != "" {
		sb.WriteString(` JOIN link_tags lt ON lt.link_id = l.id`)
	}
	sb.WriteString(` WHERE l.user_id = $1`)

	if !filter.ShowArchived {
		sb.WriteString(` AND l.archived_at IS NULL`)
	}
	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		n := len(args)
		fmt.Fprintf(&sb,
			` AND (l.title ILIKE $%d OR l.url ILIKE $%d OR l.summary ILIKE $%d OR l.category ILIKE $%d)`,
			n, n, n, n)
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		fmt.Fprintf(&sb, ` AND l.category ILIKE $%d`, len(args))
	}
	if filter.Tag != "" {
		args = append(args, domain.NormalizeTagName(filter.Tag))
		fmt.Fprintf(&sb, ` AND lt.name = $%d`, len(args))
	}

	args = append(args, limit)
	fmt.Fprintf(&sb, ` ORDER BY l.created_at DESC LIMIT $%d`, len(args))

	var links []*domain.Link
	if err := r.db.SelectContext(ctx, &links, sb.String(), args...); err != nil {
		return nil, fmt.Errorf("search links: %w", err)
	}

	return links, nil
}
