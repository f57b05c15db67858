package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jonesrussell/pocketish/internal/domain"
)

// pqUniqueViolation is the Postgres error code for unique constraint violations.
const pqUniqueViolation = "23505"

// TagRepository handles database operations for link tags.
// All writes are idempotent: inserting an existing (link, name, origin)
// combination is a no-op, so repeated processing of a link is safe.
type TagRepository struct {
	db *sqlx.DB
}

// NewTagRepository creates a new tag repository.
func NewTagRepository(db *sqlx.DB) *TagRepository {
	return &TagRepository{db: db}
}

// Upsert inserts a tag unless an equivalent one already exists for the link.
// Returns domain.ErrValidation when the name is empty after normalization.
// Losing an insert race to the unique constraint is treated as success.
func (r *TagRepository) Upsert(ctx context.Context, linkID int64, name string, origin domain.TagOrigin) error {
	name = domain.NormalizeTagName(name)
	if name == "" {
		return fmt.Errorf("%w: tag name required", domain.ErrValidation)
	}

	// Case-insensitive dedup for user tags; names are already lowercased,
	// but historical rows may predate normalization.
	exists, existsErr := r.exists(ctx, linkID, name, origin)
	if existsErr != nil {
		return existsErr
	}
	if exists {
		return nil
	}

	insert := `INSERT INTO link_tags (link_id, name, origin) VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, insert, linkID, name, origin); err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return fmt.Errorf("insert tag: %w", err)
	}
	return nil
}

// ReplaceSystemTags inserts the proposed system tags that are not already
// present for the link. Stale system tags are never deleted: past suggestions
// remain as history.
func (r *TagRepository) ReplaceSystemTags(ctx context.Context, linkID int64, names []string) error {
	existing, listErr := r.names(ctx, linkID, domain.OriginSystem)
	if listErr != nil {
		return listErr
	}

	present := make(map[string]bool, len(existing))
	for _, name := range existing {
		present[name] = true
	}

	for _, name := range names {
		name = domain.NormalizeTagName(name)
		if name == "" || present[name] {
			continue
		}
		present[name] = true

		insert := `INSERT INTO link_tags (link_id, name, origin) VALUES ($1, $2, $3)`
		if _, err := r.db.ExecContext(ctx, insert, linkID, name, domain.OriginSystem); err != nil {
			if isUniqueViolation(err) {
				continue
			}
			return fmt.Errorf("insert system tag: %w", err)
		}
	}
	return nil
}

// DeleteUserTag removes a user-origin tag from the link. System tags are
// never deletable through this path.
func (r *TagRepository) DeleteUserTag(ctx context.Context, linkID int64, name string) error {
	name = domain.NormalizeTagName(name)
	if name == "" {
		return fmt.Errorf("%w: tag name required", domain.ErrValidation)
	}

	query := `DELETE FROM link_tags WHERE link_id = $1 AND LOWER(name) = $2 AND origin = $3`
	if _, err := r.db.ExecContext(ctx, query, linkID, name, domain.OriginUser); err != nil {
		return fmt.Errorf("delete user tag: %w", err)
	}
	return nil
}

// Split returns the link's tag names separated by origin.
func (r *TagRepository) Split(ctx context.Context, linkID int64) (userTags, systemTags []string, err error) {
	query := `SELECT name, origin FROM link_tags WHERE link_id = $1 ORDER BY created_at, id`

	rows, queryErr := r.db.QueryContext(ctx, query, linkID)
	if queryErr != nil {
		return nil, nil, fmt.Errorf("list tags: %w", queryErr)
	}
	defer rows.Close()

	userTags = []string{}
	systemTags = []string{}
	for rows.Next() {
		var name string
		var origin domain.TagOrigin
		if scanErr := rows.Scan(&name, &origin); scanErr != nil {
			return nil, nil, fmt.Errorf("scan tag row: %w", scanErr)
		}
		if origin == domain.OriginUser {
			userTags = append(userTags, name)
		} else {
			systemTags = append(systemTags, name)
		}
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, nil, fmt.Errorf("tag rows: %w", rowsErr)
	}

	return userTags, systemTags, nil
}

// Suggest returns distinct tag names used across the owner's links, matching
// the optional prefix, user-contributed names first.
func (r *TagRepository) Suggest(ctx context.Context, userID int64, prefix string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 12
	}

	query := `
		SELECT lt.name
		FROM link_tags lt
		JOIN links l ON l.id = lt.link_id
		WHERE l.user_id = $1 AND lt.name LIKE $2
		GROUP BY lt.name
		ORDER BY MIN(CASE WHEN lt.origin = 'user' THEN 0 ELSE 1 END), lt.name
		LIMIT $3
	`

	var names []string
	pattern := domain.NormalizeTagName(prefix) + "%"
	if err := r.db.SelectContext(ctx, &names, query, userID, pattern, limit); err != nil {
		return nil, fmt.Errorf("suggest tags: %w", err)
	}
	return names, nil
}

// ForLinks loads all tags for the given links in one query, keyed by
// link id. Links without tags get no map entry.
func (r *TagRepository) ForLinks(ctx context.Context, linkIDs []int64) (map[int64][]domain.Tag, error) {
	if len(linkIDs) == 0 {
		return map[int64][]domain.Tag{}, nil
	}

	query := `
		SELECT id, link_id, name, origin, created_at
		FROM link_tags
		WHERE link_id = ANY($1)
		ORDER BY created_at, id
	`

	var tags []domain.Tag
	if err := r.db.SelectContext(ctx, &tags, query, pq.Array(linkIDs)); err != nil {
		return nil, fmt.Errorf("load tags for links: %w", err)
	}

	byLink := make(map[int64][]domain.Tag, len(linkIDs))
	for _, tag := range tags {
		byLink[tag.LinkID] = append(byLink[tag.LinkID], tag)
	}
	return byLink, nil
}

// exists reports whether the link already carries the tag. The match is
// case-insensitive for the user origin.
func (r *TagRepository) exists(ctx context.Context, linkID int64, name string, origin domain.TagOrigin) (bool, error) {
	var query string
	if origin == domain.OriginUser {
		query = `SELECT COUNT(*) FROM link_tags WHERE link_id = $1 AND LOWER(name) = $2 AND origin = $3`
	} else {
		query = `SELECT COUNT(*) FROM link_tags WHERE link_id = $1 AND name = $2 AND origin = $3`
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, linkID, name, origin); err != nil {
		return false, fmt.Errorf("check tag exists: %w", err)
	}
	return count > 0, nil
}

// names returns the tag names for a link and origin.
func (r *TagRepository) names(ctx context.Context, linkID int64, origin domain.TagOrigin) ([]string, error) {
	query := `SELECT name FROM link_tags WHERE link_id = $1 AND origin = $2`

	var names []string
	if err := r.db.SelectContext(ctx, &names, query, linkID, origin); err != nil {
		return nil, fmt.Errorf("list %s tags: %w", origin, err)
	}
	return names, nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint error.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}
