package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/jonesrussell/pocketish/internal/config"
	"github.com/jonesrussell/pocketish/internal/logger"
)

// Outcome classifies the result of a fetch attempt.
type Outcome string

const (
	// OutcomeOK means markup was retrieved.
	OutcomeOK Outcome = "ok"
	// OutcomeBlocked means the URL was refused on SSRF grounds,
	// including DNS resolution failures (fail closed).
	OutcomeBlocked Outcome = "blocked"
	// OutcomeFailed means the request was allowed but did not produce
	// usable markup.
	OutcomeFailed Outcome = "failed"
)

// Transport timeouts independent of the overall request timeout.
const (
	dialTimeout         = 10 * time.Second
	tlsHandshakeTimeout = 10 * time.Second
	idleConnTimeout     = 90 * time.Second
	maxIdleConns        = 10
	maxRedirects        = 5
)

// Result is what a fetch attempt produced. HTML is empty unless
// Outcome is OutcomeOK.
type Result struct {
	HTML    string
	Outcome Outcome
}

// Fetcher performs bounded, SSRF-guarded HTTP GETs. A Fetcher never
// returns an error from Fetch: every failure mode degrades to a Result
// the pipeline can act on.
type Fetcher struct {
	client    *http.Client
	log       logger.Logger
	userAgent string
	maxBytes  int64

	// allowPrivate disables address validation. Tests only.
	allowPrivate bool
}

// NewFetcher creates a fetcher from the fetch configuration.
func NewFetcher(cfg config.FetchConfig, log logger.Logger) *Fetcher {
	f := &Fetcher{
		log:       log,
		userAgent: cfg.UserAgent,
		maxBytes:  cfg.MaxBytes,
	}

	dialer := &net.Dialer{
		Timeout:   dialTimeout,
		KeepAlive: 30 * time.Second,
	}

	// Resolve DNS ourselves and refuse private addresses before any
	// connection happens, so a hostname cannot rebind past ValidateURL.
	safeDialContext := func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, port, splitErr := net.SplitHostPort(addr)
		if splitErr != nil {
			return nil, fmt.Errorf("invalid address: %w", splitErr)
		}

		ips, lookupErr := net.DefaultResolver.LookupIPAddr(ctx, host)
		if lookupErr != nil {
			return nil, &blockedError{reason: fmt.Sprintf("DNS lookup failed: %v", lookupErr)}
		}

		if !f.allowPrivate {
			for _, ipAddr := range ips {
				if IsPrivateIP(ipAddr.IP) {
					return nil, &blockedError{reason: fmt.Sprintf("private address %s", ipAddr.IP)}
				}
			}
		}

		var dialErr error
		for _, ipAddr := range ips {
			conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(ipAddr.IP.String(), port))
			if err == nil {
				return conn, nil
			}
			dialErr = err
		}
		return nil, fmt.Errorf("connect to %s: %w", host, dialErr)
	}

	f.client = &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			DialContext:           safeDialContext,
			TLSHandshakeTimeout:   tlsHandshakeTimeout,
			ResponseHeaderTimeout: cfg.Timeout,
			MaxIdleConns:          maxIdleConns,
			IdleConnTimeout:       idleConnTimeout,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("too many redirects (max %d)", maxRedirects)
			}
			if f.allowPrivate {
				return nil
			}
			if validateErr := ValidateURL(req.URL.String()); validateErr != nil {
				return &blockedError{reason: fmt.Sprintf("redirect blocked: %v", validateErr)}
			}
			return nil
		},
	}

	return f
}

// Fetch retrieves the page at rawURL. Blocked targets, network errors,
// non-2xx statuses, and non-HTML responses all yield an empty-HTML
// Result rather than an error, so one bad link cannot abort a pipeline
// run. Oversized bodies are truncated, not rejected.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) Result {
	if !f.allowPrivate {
		if validateErr := ValidateURL(rawURL); validateErr != nil {
			f.log.Warn("fetch blocked",
				logger.String("url", rawURL),
				logger.String("reason", validateErr.Error()))
			return Result{Outcome: OutcomeBlocked}
		}
	}

	req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if reqErr != nil {
		return Result{Outcome: OutcomeFailed}
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, doErr := f.client.Do(req)
	if doErr != nil {
		outcome := OutcomeFailed
		if isBlocked(doErr) {
			outcome = OutcomeBlocked
		}
		f.log.Warn("fetch failed",
			logger.String("url", rawURL),
			logger.String("outcome", string(outcome)),
			logger.Error(doErr))
		return Result{Outcome: outcome}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= 300 {
		f.log.Warn("fetch returned non-2xx",
			logger.String("url", rawURL),
			logger.Int("status", resp.StatusCode))
		return Result{Outcome: OutcomeFailed}
	}

	if !isHTMLContentType(resp.Header.Get("Content-Type")) {
		f.log.Warn("fetch returned non-HTML content",
			logger.String("url", rawURL),
			logger.String("content_type", resp.Header.Get("Content-Type")))
		return Result{Outcome: OutcomeFailed}
	}

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if readErr != nil {
		f.log.Warn("fetch body read failed",
			logger.String("url", rawURL),
			logger.Error(readErr))
		return Result{Outcome: OutcomeFailed}
	}

	return Result{HTML: string(body), Outcome: OutcomeOK}
}

// blockedError marks failures that must surface as OutcomeBlocked even
// when wrapped by net/http's url.Error.
type blockedError struct {
	reason string
}

func (e *blockedError) Error() string {
	return e.reason
}

func isBlocked(err error) bool {
	var blocked *blockedError
	return errors.As(err, &blocked)
}

// isHTMLContentType accepts HTML-ish content types. An absent header is
// accepted: plenty of small sites serve pages without one.
func isHTMLContentType(contentType string) bool {
	if contentType == "" {
		return true
	}
	contentType = strings.ToLower(contentType)
	return strings.Contains(contentType, "text/html") ||
		strings.Contains(contentType, "application/xhtml+xml") ||
		strings.Contains(contentType, "text/plain")
}
