// Package soda extracts tabular datasets from a Socrata open-data
// endpoint. It owns query construction, the timeout-only retry policy,
// CSV decoding, and the pacing between successive dataset requests.
package soda

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"github.com/petar-djukic/courier/internal/metrics"
	"github.com/petar-djukic/courier/pkg/types"
)

// Socrata resource identifiers for the two consumed datasets.
const (
	inspectionsResource = "43nn-pn8j" // DOHMH restaurant inspection results
	fastFoodResource    = "qgc5-ecnb" // common fast-food chains
)

// maxRetryDelay caps the doubling delay between retry attempts.
const maxRetryDelay = 30 * time.Second

// StatusError reports a non-2xx response from the upstream service.
// Status errors are never retried; only timeouts are assumed transient.
type StatusError struct {
	Resource string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned %d for resource %s", e.Code, e.Resource)
}

// Client fetches datasets from one Socrata host. Build it once and reuse
// it; the HTTP client and rate limiter are shared across calls, so
// successive dataset acquisitions are spaced by the configured sleep
// interval no matter which method issues them.
type Client struct {
	cfg       types.UpstreamConfig
	http      *http.Client
	limiter   *rate.Limiter
	clock     clockwork.Clock
	log       *slog.Logger
	cachePath string
}

// New returns a Client for the configured upstream. cachePath is where
// fast-food names are cached between runs; empty disables caching.
func New(cfg types.UpstreamConfig, cachePath string, clock clockwork.Clock, log *slog.Logger) *Client {
	return &Client{
		cfg:       cfg,
		http:      &http.Client{Timeout: cfg.Timeout},
		limiter:   rate.NewLimiter(rate.Every(cfg.Sleep), 1),
		clock:     clock,
		log:       log,
		cachePath: cachePath,
	}
}

// whereFilter builds the server-side predicate for the inspections
// dataset: a rolling date cutoff plus non-null cuisine and coordinates.
func whereFilter(now time.Time, cutoffYears int) string {
	limit := now.AddDate(0, 0, -cutoffYears*365).Format("2006-01-02T15:04:05")
	return fmt.Sprintf(
		"inspection_date > '%s' AND cuisine IS NOT NULL AND lat IS NOT NULL AND lng IS NOT NULL",
		limit,
	)
}

// Inspections fetches the inspection dataset, aliased to the canonical
// column set and pre-filtered server-side.
func (c *Client) Inspections(ctx context.Context) ([]types.InspectionRow, error) {
	params := url.Values{}
	params.Set("$select",
		"camis AS id,"+
			"dba AS name,"+
			"boro AS borough,"+
			"cuisine_description AS cuisine,"+
			"inspection_date,"+
			"latitude AS lat,"+
			"longitude AS lng")
	params.Set("$where", whereFilter(c.clock.Now(), c.cfg.CutoffYears))
	params.Set("$limit", fmt.Sprint(c.cfg.RowLimit))

	body, err := c.fetch(ctx, inspectionsResource, params)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	rows, err := decodeInspections(body)
	if err != nil {
		return nil, fmt.Errorf("decoding inspections payload: %w", err)
	}
	c.log.Info("inspections extracted", "rows", len(rows))
	return rows, nil
}

// FastFoodNames returns the deduplicated fast-food name list, from the
// local cache when present, otherwise from upstream (writing the cache
// so later runs skip the call).
func (c *Client) FastFoodNames(ctx context.Context) ([]string, error) {
	if c.cachePath != "" {
		names, ok, err := readNameCache(c.cachePath)
		if err != nil {
			return nil, fmt.Errorf("reading fast-food cache: %w", err)
		}
		if ok {
			c.log.Debug("fast-food names served from cache", "path", c.cachePath, "names", len(names))
			return names, nil
		}
	}

	params := url.Values{}
	params.Set("$select", "distinct restaurant AS name")
	params.Set("$limit", fmt.Sprint(c.cfg.RowLimit))

	body, err := c.fetch(ctx, fastFoodResource, params)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	names, err := decodeNames(body)
	if err != nil {
		return nil, fmt.Errorf("decoding fast-food payload: %w", err)
	}

	if c.cachePath != "" {
		if err := writeNameCache(c.cachePath, names); err != nil {
			return nil, fmt.Errorf("writing fast-food cache: %w", err)
		}
	}
	c.log.Info("fast-food names extracted", "names", len(names))
	return names, nil
}

// fetch issues one paced GET for a resource. Timeouts are retried up to
// the configured count with a doubling delay; any other failure, bad
// status included, is returned immediately.
func (c *Client) fetch(ctx context.Context, resource string, params url.Values) (io.ReadCloser, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	if c.cfg.AppToken != "" {
		params.Set("$$app_token", c.cfg.AppToken)
	}
	endpoint := fmt.Sprintf("%s/resource/%s.csv?%s", c.cfg.BaseURL, resource, params.Encode())

	delay := c.cfg.RetryDelay
	var lastErr error
	for attempt := 0; attempt <= c.cfg.Retries; attempt++ {
		if attempt > 0 {
			c.log.Warn("upstream request timed out, retrying",
				"resource", resource, "attempt", attempt, "delay", delay)
			metrics.UpstreamRetriesTotal.WithLabelValues(resource).Inc()
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-c.clock.After(delay):
			}
			delay = min(delay*2, maxRetryDelay)
		}

		body, err := c.get(ctx, endpoint)
		if err == nil {
			metrics.UpstreamRequestsTotal.WithLabelValues(resource, "ok").Inc()
			return body, nil
		}
		if !isTimeout(err) {
			metrics.UpstreamRequestsTotal.WithLabelValues(resource, "error").Inc()
			return nil, err
		}
		lastErr = err
	}
	metrics.UpstreamRequestsTotal.WithLabelValues(resource, "timeout").Inc()
	return nil, fmt.Errorf("resource %s: retries exhausted: %w", resource, lastErr)
}

func (c *Client) get(ctx context.Context, endpoint string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, &StatusError{Resource: endpoint, Code: resp.StatusCode}
	}
	return resp.Body, nil
}

// isTimeout reports whether err is a timeout, the only failure class
// assumed transient.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
