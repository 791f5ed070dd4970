package opencage_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"

	"hotel_directory/internal/adapters/opencage"
)

const base = "https://geo.test/geocode/v1/json"

func setupHTTPMock(t *testing.T) {
	t.Helper()
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)
}

func register(t *testing.T, status int, body string) {
	t.Helper()
	httpmock.RegisterResponderWithQuery(http.MethodGet, base,
		map[string]string{"q": "41.88 -87.62", "key": "k"},
		httpmock.NewStringResponder(status, body))
}

func str(p *string) string {
	if p == nil {
		return "<nil>"
	}
	return *p
}

func TestReverse_Components(t *testing.T) {
	setupHTTPMock(t)
	register(t, http.StatusOK, `{"results":[{"components":{
		"city":"Chicago","state":"Illinois","postcode":"60601",
		"country":"United States","continent":"North America"}}]}`)

	g := opencage.New(base, "k", time.Second)
	r := g.Reverse(context.Background(), 41.88, -87.62)

	if str(r.City) != "Chicago" || str(r.State) != "Illinois" || str(r.PostalCode) != "60601" ||
		str(r.Country) != "United States" || str(r.Continent) != "North America" {
		t.Fatalf("region: city=%s state=%s zip=%s country=%s continent=%s",
			str(r.City), str(r.State), str(r.PostalCode), str(r.Country), str(r.Continent))
	}
	if r.Province != nil {
		t.Fatalf("absent component must stay nil, got %q", *r.Province)
	}
	if n := httpmock.GetTotalCallCount(); n != 1 {
		t.Fatalf("calls: %d", n)
	}
}

func TestReverse_CityFallback(t *testing.T) {
	cases := map[string]string{
		"town":    `{"results":[{"components":{"town":"Evanston","village":"Ignored"}}]}`,
		"village": `{"results":[{"components":{"village":"Wilmette"}}]}`,
	}
	want := map[string]string{"town": "Evanston", "village": "Wilmette"}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			setupHTTPMock(t)
			register(t, http.StatusOK, body)
			r := opencage.New(base, "k", time.Second).Reverse(context.Background(), 41.88, -87.62)
			if str(r.City) != want[name] {
				t.Fatalf("city: %s", str(r.City))
			}
		})
	}
}

func TestReverse_FailuresYieldZeroRegion(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{"unauthorized", http.StatusUnauthorized, `{}`},
		{"server error", http.StatusInternalServerError, `oops`},
		{"no results", http.StatusOK, `{"results":[]}`},
		{"bad json", http.StatusOK, `{"results":`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setupHTTPMock(t)
			register(t, tc.status, tc.body)
			r := opencage.New(base, "k", time.Second).Reverse(context.Background(), 41.88, -87.62)
			if !r.IsZero() {
				t.Fatalf("expected zero region, got %+v", r)
			}
		})
	}
}

func TestReverse_TransportError(t *testing.T) {
	setupHTTPMock(t) // no responder registered: every request fails
	r := opencage.New(base, "k", time.Second).Reverse(context.Background(), 41.88, -87.62)
	if !r.IsZero() {
		t.Fatalf("expected zero region, got %+v", r)
	}
}
