// Package domain contains the core domain models for the link enrichment pipeline.
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"time"
)

// Status represents the processing state of a submitted link.
type Status string

const (
	// StatusQueued indicates the link is waiting to be processed.
	StatusQueued Status = "queued"
	// StatusProcessing indicates the worker has claimed the link.
	StatusProcessing Status = "processing"
	// StatusReady indicates processing finished successfully.
	StatusReady Status = "ready"
	// StatusError indicates processing failed; resubmission is the retry path.
	StatusError Status = "error"
)

// validStatuses maps every recognised Status value to true for O(1) lookup.
var validStatuses = map[Status]bool{
	StatusQueued:     true,
	StatusProcessing: true,
	StatusReady:      true,
	StatusError:      true,
}

// IsValid reports whether s is a recognised link status.
func (s Status) IsValid() bool {
	return validStatuses[s]
}

// TagOrigin identifies who contributed a tag.
type TagOrigin string

const (
	// OriginUser marks a tag submitted by the owning user.
	OriginUser TagOrigin = "user"
	// OriginSystem marks a tag proposed by the enrichment step.
	OriginSystem TagOrigin = "system"
)

// IsValid reports whether o is a recognised tag origin.
func (o TagOrigin) IsValid() bool {
	return o == OriginUser || o == OriginSystem
}

// Field length caps enforced before persistence.
const (
	// MaxTitleLen caps stored link titles.
	MaxTitleLen = 512
	// MaxTagLen caps tag names.
	MaxTagLen = 64
)

// Link is one submitted URL belonging to one owner.
type Link struct {
	ID                int64      `db:"id"                  json:"id"`
	UserID            int64      `db:"user_id"             json:"-"`
	URL               string     `db:"url"                 json:"url"`
	URLHash           string     `db:"url_hash"            json:"-"`
	NormalizedURL     string     `db:"normalized_url"      json:"-"`
	NormalizedURLHash string     `db:"normalized_url_hash" json:"-"`
	Title             string     `db:"title"               json:"title"`
	Summary           string     `db:"summary"             json:"summary"`
	Category          string     `db:"category"            json:"category"`
	Status            Status     `db:"status"              json:"status"`
	ArchivedAt        *time.Time `db:"archived_at"         json:"archived_at,omitempty"`
	CreatedAt         time.Time  `db:"created_at"          json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at"          json:"updated_at"`
}

// Tag is a label attached to a link.
type Tag struct {
	ID        int64     `db:"id"         json:"id"`
	LinkID    int64     `db:"link_id"    json:"-"`
	Name      string    `db:"name"       json:"name"`
	Origin    TagOrigin `db:"origin"     json:"origin"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// User owns links. Only the API-key capture flow is supported here;
// session management lives outside this service.
type User struct {
	ID        int64     `db:"id"         json:"id"`
	Email     string    `db:"email"      json:"email"`
	Name      string    `db:"name"       json:"name"`
	APIKey    string    `db:"api_key"    json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// HashURL returns the full SHA-256 hex digest of rawURL.
func HashURL(rawURL string) string {
	h := sha256.Sum256([]byte(rawURL))
	return hex.EncodeToString(h[:])
}

// NormalizeURL returns the canonical form used for deduplication:
// scheme and host lowercased, default port stripped, fragment dropped,
// path defaulted to "/", query preserved. Unparseable input is returned
// trimmed but otherwise untouched.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme == "" {
		scheme = "http"
	}

	host := strings.ToLower(parsed.Hostname())
	if port := parsed.Port(); port != "" && !isDefaultPort(scheme, port) {
		host = host + ":" + port
	}

	path := parsed.EscapedPath()
	if path == "" {
		path = "/"
	}

	normalized := scheme + "://" + host + path
	if parsed.RawQuery != "" {
		normalized += "?" + parsed.RawQuery
	}
	return normalized
}

func isDefaultPort(scheme, port string) bool {
	return (scheme == "http" && port == "80") || (scheme == "https" && port == "443")
}

// NormalizeTagName trims, lowercases, and caps a tag name.
func NormalizeTagName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if len(name) > MaxTagLen {
		name = name[:MaxTagLen]
	}
	return name
}
