package opencage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"hotel_directory/internal/adapters/observability"
	"hotel_directory/internal/domain"
)

const DefaultBaseURL = "https://api.opencagedata.com/geocode/v1/json"

// Geocoder resolves coordinates into administrative regions. It neither
// caches nor rate-limits.
type Geocoder struct {
	base string
	key  string
	hc   *http.Client
}

func New(base, key string, timeout time.Duration) *Geocoder {
	if base == "" {
		base = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Geocoder{base: base, key: key, hc: &http.Client{Timeout: timeout}}
}

type response struct {
	Results []struct {
		Components struct {
			City      string `json:"city"`
			Town      string `json:"town"`
			Village   string `json:"village"`
			State     string `json:"state"`
			Province  string `json:"province"`
			Postcode  string `json:"postcode"`
			Country   string `json:"country"`
			Continent string `json:"continent"`
		} `json:"components"`
	} `json:"results"`
}

// Reverse returns the region of the first result. Every failure degrades to
// the zero Region and a warning.
func (g *Geocoder) Reverse(ctx context.Context, lat, lon float64) domain.Region {
	r, err := g.reverse(ctx, lat, lon)
	if err != nil {
		log.Warn().Err(err).Float64("lat", lat).Float64("lon", lon).Msg("reverse geocode failed")
		return domain.Region{}
	}
	return r
}

func (g *Geocoder) reverse(ctx context.Context, lat, lon float64) (domain.Region, error) {
	q := url.Values{}
	// encodes as "lat+lon"
	q.Set("q", strconv.FormatFloat(lat, 'f', -1, 64)+" "+strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("key", g.key)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.base+"?"+q.Encode(), nil)
	if err != nil {
		return domain.Region{}, err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := g.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("opencage", "reverse", 0, time.Since(start))
		return domain.Region{}, err
	}
	defer resp.Body.Close()
	observability.ObserveExternal("opencage", "reverse", resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return domain.Region{}, fmt.Errorf("bad status %d", resp.StatusCode)
	}
	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.Region{}, fmt.Errorf("decode: %w", err)
	}
	if len(body.Results) == 0 {
		return domain.Region{}, fmt.Errorf("no results")
	}

	c := body.Results[0].Components
	city := c.City
	if city == "" {
		city = c.Town
	}
	if city == "" {
		city = c.Village
	}
	return domain.Region{
		Country:    opt(c.Country),
		City:       opt(city),
		State:      opt(c.State),
		Province:   opt(c.Province),
		PostalCode: opt(c.Postcode),
		Continent:  opt(c.Continent),
	}, nil
}

func opt(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
