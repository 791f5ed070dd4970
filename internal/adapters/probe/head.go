// Package probe checks whether remote image URLs still resolve.
package probe

import (
	"context"
	"net/http"
	"time"

	"hotel_directory/internal/adapters/observability"
)

type HeadProber struct{ hc *http.Client }

func New(timeout time.Duration) *HeadProber {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HeadProber{hc: &http.Client{
		Timeout: timeout,
		// A redirect answers for the URL itself; its target is not checked.
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}}
}

// Probe issues a HEAD request and returns its status. Redirects are not
// followed, so a 3xx counts as reachable.
func (p *HeadProber) Probe(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", "hotel-directory/1.0")

	start := time.Now()
	resp, err := p.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("images", "head", 0, time.Since(start))
		return 0, err
	}
	resp.Body.Close()
	observability.ObserveExternal("images", "head", resp.StatusCode, time.Since(start))
	return resp.StatusCode, nil
}
