package serpapi

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"hotel_directory/internal/adapters/observability"
	"hotel_directory/internal/domain"
)

const DefaultBaseURL = "https://serpapi.com/search"

// Options are the fixed query parameters sent with every page request.
type Options struct {
	BaseURL      string
	APIKey       string
	CheckInDate  string // YYYY-MM-DD
	CheckOutDate string
	HotelClass   string
	MinRating    string
	Timeout      time.Duration
	Retries      int // extra attempts on 429/5xx and network errors
	RPS          int
}

type Client struct {
	base    string
	hc      *http.Client
	opts    Options
	rl      *rate.Limiter
	retries int
}

var _ domain.SearchClient = (*Client)(nil)

func New(o Options) (*Client, error) {
	if o.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.RPS <= 0 {
		o.RPS = 5
	}
	return &Client{
		base:    o.BaseURL,
		hc:      &http.Client{Timeout: o.Timeout},
		opts:    o,
		rl:      rate.NewLimiter(rate.Limit(o.RPS), o.RPS),
		retries: max(o.Retries, 0),
	}, nil
}

// page is the subset of a google_hotels response the client reads.
type page struct {
	Properties []map[string]any `json:"properties"`
	Pagination struct {
		NextPageToken string `json:"next_page_token"`
	} `json:"serpapi_pagination"`
}

// Listings yields raw property records for term, following continuation
// tokens until max records were yielded, the provider returns no token, or a
// page is empty. A failed page yields one error and ends the sequence.
func (c *Client) Listings(ctx context.Context, term string, max int) iter.Seq2[map[string]any, error] {
	return func(yield func(map[string]any, error) bool) {
		c.walk(ctx, term, max, func(rec map[string]any) bool { return yield(rec, nil) },
			func(err error) { yield(nil, err) })
	}
}

// Search drains Listings. On failure the records collected so far are
// returned together with the error.
func (c *Client) Search(ctx context.Context, term string, max int) (domain.SearchResult, error) {
	res := domain.SearchResult{Listings: []map[string]any{}}
	var failed error
	res.Pages, res.Stop = c.walk(ctx, term, max,
		func(rec map[string]any) bool {
			res.Listings = append(res.Listings, rec)
			return true
		},
		func(err error) { failed = err })
	log.Info().
		Str("query", term).
		Int("listings", len(res.Listings)).
		Int("pages", res.Pages).
		Str("stop", string(res.Stop)).
		Err(failed).
		Msg("search finished")
	return res, failed
}

// walk drives pagination. It returns the number of pages fetched and why it
// stopped; emit returning false stops early as capped.
func (c *Client) walk(ctx context.Context, term string, max int, emit func(map[string]any) bool, fail func(error)) (int, domain.StopReason) {
	if max <= 0 {
		return 0, domain.StopCapped
	}
	var (
		count int
		pages int
		token string
	)
	for {
		var p page
		if err := c.get(ctx, c.pageURL(term, token), &p); err != nil {
			fail(fmt.Errorf("search page %d: %w", pages+1, err))
			return pages, domain.StopFailed
		}
		pages++
		if len(p.Properties) == 0 {
			return pages, domain.StopEmptyPage
		}
		for _, rec := range p.Properties {
			if !emit(rec) {
				return pages, domain.StopCapped
			}
			count++
			if count >= max {
				return pages, domain.StopCapped
			}
		}
		token = p.Pagination.NextPageToken
		if token == "" {
			return pages, domain.StopExhausted
		}
	}
}

func (c *Client) pageURL(term, token string) string {
	q := url.Values{}
	q.Set("engine", "google_hotels")
	q.Set("q", term)
	q.Set("check_in_date", c.opts.CheckInDate)
	q.Set("check_out_date", c.opts.CheckOutDate)
	if c.opts.HotelClass != "" {
		q.Set("hotel_class", c.opts.HotelClass)
	}
	if c.opts.MinRating != "" {
		q.Set("rating", c.opts.MinRating)
	}
	q.Set("api_key", c.opts.APIKey)
	if token != "" {
		q.Set("next_page_token", token)
	}
	return c.base + "?" + q.Encode()
}

// get performs a GET with client-side rate limiting, optional retries, and JSON decode into out.
// Retries on 429 and transient 5xx, honoring Retry-After when provided.
func (c *Client) get(ctx context.Context, url string, out any) error {
	// client-side rate limiting
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for i := 0; i <= c.retries; i++ {
		last := i == c.retries

		// build a fresh request each attempt
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "hotel-directory/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal("serpapi", "search", 0, time.Since(start))
			// network error or context canceled
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if !last && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveExternal("serpapi", "search", resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("decode: %w", err)
			}
			return nil

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			// Prefer server-provided Retry-After; otherwise exponential backoff.
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if !last && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			// read a small error body for diagnostics
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns 200ms, 400ms, 800ms... plus up to 50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
