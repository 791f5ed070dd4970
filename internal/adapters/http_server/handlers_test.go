package httpserver_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	_ "github.com/glebarez/go-sqlite"

	server "hotel_directory/internal/adapters/http_server"
	"hotel_directory/internal/adapters/uploads"
	"hotel_directory/internal/app"
	"hotel_directory/internal/domain"
	mysqlrepo "hotel_directory/internal/storage/mysql"
)

type env struct {
	h      http.Handler
	repo   *mysqlrepo.Repo
	db     *sql.DB
	upload string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	schema, err := os.ReadFile("../../storage/mysql/testdata/sqlite_schema.sql")
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}
	if _, err := db.Exec(string(schema)); err != nil {
		t.Fatalf("apply schema: %v", err)
	}

	repo := mysqlrepo.New(db)
	dir := t.TempDir()
	files, err := uploads.New(dir)
	if err != nil {
		t.Fatalf("uploads: %v", err)
	}
	srv := server.New(5 * time.Second)
	srv.MountHandlers(&server.Handlers{
		Q:         app.NewQueryService(repo, repo, nil, time.Minute),
		C:         app.NewCatalogService(repo, repo, files, nil),
		UploadDir: dir,
	})
	return &env{h: srv.Mux(), repo: repo, db: db, upload: dir}
}

func (e *env) do(t *testing.T, method, path string, body io.Reader, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	for k, v := range header {
		req.Header[k] = v
	}
	rr := httptest.NewRecorder()
	e.h.ServeHTTP(rr, req)
	return rr
}

func (e *env) seedHotel(t *testing.T, token, city string) int64 {
	t.Helper()
	id, _, err := e.repo.UpsertHotel(context.Background(), domain.HotelPatch{
		PropertyToken: token,
		Name:          ptr("Hotel " + token),
		Region:        domain.Region{City: ptr(city), Country: ptr("United States")},
		Tier:          domain.PriceTierLow,
		Rate:          900,
		ImageURLs:     []string{"https://img/" + token + ".jpg"},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return id
}

func ptr[T any](v T) *T { return &v }

type part struct {
	field, filename, content string
}

func multipartBody(t *testing.T, fields map[string]string, parts ...part) (io.Reader, http.Header) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	for _, p := range parts {
		if p.filename == "" {
			_ = mw.WriteField(p.field, p.content)
			continue
		}
		fw, err := mw.CreateFormFile(p.field, p.filename)
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		_, _ = fw.Write([]byte(p.content))
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &buf, http.Header{"Content-Type": {mw.FormDataContentType()}}
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func TestHotels_ListGetETagAndErrors(t *testing.T) {
	e := newEnv(t)
	id := e.seedHotel(t, "a", "Chicago")
	e.seedHotel(t, "b", "Boston")

	rr := e.do(t, "GET", "/v1/hotels?location=chic", nil, nil)
	var hs []domain.Hotel
	if rr.Code != 200 || json.Unmarshal(rr.Body.Bytes(), &hs) != nil || len(hs) != 1 || hs[0].ID != id {
		t.Fatalf("list: %d %s", rr.Code, rr.Body)
	}

	rr = e.do(t, "GET", fmt.Sprintf("/v1/hotels/%d", id), nil, nil)
	etag := rr.Header().Get("ETag")
	if rr.Code != 200 || etag == "" || !strings.Contains(rr.Body.String(), `"price_tier":"low"`) {
		t.Fatalf("get: %d etag=%q %s", rr.Code, etag, rr.Body)
	}
	rr = e.do(t, "GET", fmt.Sprintf("/v1/hotels/%d", id), nil, http.Header{"If-None-Match": {etag}})
	if rr.Code != http.StatusNotModified {
		t.Fatalf("conditional get: %d", rr.Code)
	}

	rr = e.do(t, "GET", "/v1/hotels/999", nil, nil)
	if rr.Code != 404 || rr.Header().Get("Content-Type") != "application/problem+json" {
		t.Fatalf("missing: %d %s", rr.Code, rr.Header().Get("Content-Type"))
	}
	if rr = e.do(t, "GET", "/v1/hotels/abc", nil, nil); rr.Code != 400 {
		t.Fatalf("bad id: %d", rr.Code)
	}
}

func TestReviews_CreateValidateAndCascade(t *testing.T) {
	e := newEnv(t)
	hotelID := e.seedHotel(t, "a", "Chicago")

	rr := e.do(t, "POST", "/v1/users", strings.NewReader(`{"name":"ana"}`), nil)
	var u domain.User
	if rr.Code != 201 || json.Unmarshal(rr.Body.Bytes(), &u) != nil || u.ID == 0 {
		t.Fatalf("create user: %d %s", rr.Code, rr.Body)
	}
	if rr = e.do(t, "POST", "/v1/users", strings.NewReader(`{"name":"  "}`), nil); rr.Code != 400 {
		t.Fatalf("blank user: %d", rr.Code)
	}

	fields := map[string]string{
		"hotel_id":       fmt.Sprint(hotelID),
		"user_id":        fmt.Sprint(u.ID),
		"overall_review": "lovely",
		"room_review":    "quiet",
	}

	// two files, one type
	body, hdr := multipartBody(t, fields,
		part{"images", "a.jpg", "A"}, part{"images", "b.jpg", "B"}, part{field: "image_types", content: "room"})
	if rr = e.do(t, "POST", "/v1/reviews", body, hdr); rr.Code != 400 {
		t.Fatalf("arity: %d %s", rr.Code, rr.Body)
	}
	// unknown type
	body, hdr = multipartBody(t, fields, part{"images", "a.jpg", "A"}, part{field: "image_types", content: "lobby"})
	if rr = e.do(t, "POST", "/v1/reviews", body, hdr); rr.Code != 400 {
		t.Fatalf("enum: %d %s", rr.Code, rr.Body)
	}
	// missing hotel
	missing := map[string]string{"hotel_id": "999", "user_id": fmt.Sprint(u.ID), "overall_review": "x"}
	body, hdr = multipartBody(t, missing, part{"images", "a.jpg", "A"}, part{field: "image_types", content: "food"})
	if rr = e.do(t, "POST", "/v1/reviews", body, hdr); rr.Code != 404 {
		t.Fatalf("missing hotel: %d %s", rr.Code, rr.Body)
	}
	if n := countRows(t, e.db, "reviews"); n != 0 {
		t.Fatalf("rejected reviews left %d rows", n)
	}
	if ents, _ := os.ReadDir(e.upload); len(ents) != 0 {
		t.Fatalf("rejected reviews left %d files", len(ents))
	}

	body, hdr = multipartBody(t, fields, part{"images", "pool.jpg", "POOL"}, part{field: "image_types", content: "setting"})
	rr = e.do(t, "POST", "/v1/reviews", body, hdr)
	var v domain.ReviewView
	if rr.Code != 201 || json.Unmarshal(rr.Body.Bytes(), &v) != nil {
		t.Fatalf("create review: %d %s", rr.Code, rr.Body)
	}
	if v.User.Name != "ana" || v.Hotel.ID != hotelID || len(v.Images) != 1 || v.Images[0].Kind != domain.ReviewImageSetting {
		t.Fatalf("eager load: %+v", v)
	}
	if v.RoomReview == nil || *v.RoomReview != "quiet" || v.FoodReview != nil {
		t.Fatalf("sub-reviews: %+v", v.Review)
	}

	rr = e.do(t, "GET", v.Images[0].URL, nil, nil)
	if rr.Code != 200 || rr.Body.String() != "POOL" {
		t.Fatalf("serve upload: %d %q", rr.Code, rr.Body)
	}

	for _, path := range []string{"/v1/reviews", fmt.Sprintf("/v1/hotels/%d/reviews", hotelID), fmt.Sprintf("/v1/users/%d/reviews", u.ID)} {
		var rs []domain.ReviewView
		rr = e.do(t, "GET", path, nil, nil)
		if rr.Code != 200 || json.Unmarshal(rr.Body.Bytes(), &rs) != nil || len(rs) != 1 {
			t.Fatalf("%s: %d %s", path, rr.Code, rr.Body)
		}
	}

	rr = e.do(t, "DELETE", fmt.Sprintf("/v1/hotels/%d", hotelID), nil, nil)
	if rr.Code != 200 || !strings.Contains(rr.Body.String(), `"name":"Hotel a"`) {
		t.Fatalf("delete hotel: %d %s", rr.Code, rr.Body)
	}
	for _, table := range []string{"hotel_images", "reviews", "review_images"} {
		if n := countRows(t, e.db, table); n != 0 {
			t.Fatalf("%s: %d orphans", table, n)
		}
	}
	if rr = e.do(t, "GET", fmt.Sprintf("/v1/reviews/%d", v.ID), nil, nil); rr.Code != 404 {
		t.Fatalf("review after cascade: %d", rr.Code)
	}

	if rr = e.do(t, "DELETE", fmt.Sprintf("/v1/users/%d", u.ID), nil, nil); rr.Code != 204 {
		t.Fatalf("delete user: %d", rr.Code)
	}
	if rr = e.do(t, "GET", fmt.Sprintf("/v1/users/%d", u.ID), nil, nil); rr.Code != 404 {
		t.Fatalf("deleted user: %d", rr.Code)
	}
}

func TestHealthz(t *testing.T) {
	e := newEnv(t)
	if rr := e.do(t, "GET", "/healthz", nil, nil); rr.Code != 200 || rr.Body.String() != "ok" {
		t.Fatalf("healthz: %d %q", rr.Code, rr.Body)
	}
}

func TestHotels_Create(t *testing.T) {
	e := newEnv(t)
	hdr := http.Header{"Content-Type": {"application/json"}}
	post := func(body string) *httptest.ResponseRecorder {
		return e.do(t, "POST", "/v1/hotels", strings.NewReader(body), hdr)
	}

	rr := post(`{"property_token":"tok-1","name":"Harbor","description":"on the water","address":"1 Pier St",
		"city":"Boston","country":"United States","rate":2400,"price_tier":"high",
		"images":["https://img/1.jpg","https://img/2.jpg"]}`)
	var h domain.Hotel
	if rr.Code != 201 || json.Unmarshal(rr.Body.Bytes(), &h) != nil {
		t.Fatalf("create: %d %s", rr.Code, rr.Body)
	}
	if h.ID == 0 || h.Tier != domain.PriceTierHigh || h.Rate != 2400 || len(h.Images) != 2 || h.City == nil || *h.City != "Boston" {
		t.Fatalf("created hotel: %+v", h)
	}

	// tier is derived when omitted
	rr = post(`{"name":"Inn","description":"d","address":"a","rate":800}`)
	if rr.Code != 201 || !strings.Contains(rr.Body.String(), `"price_tier":"low"`) {
		t.Fatalf("derived tier: %d %s", rr.Code, rr.Body)
	}

	for name, tc := range map[string]struct {
		body string
		code int
	}{
		"unknown tier":   {`{"name":"n","description":"d","address":"a","rate":800,"price_tier":"luxury"}`, 400},
		"tier mismatch":  {`{"name":"n","description":"d","address":"a","rate":800,"price_tier":"high"}`, 400},
		"rate too low":   {`{"name":"n","description":"d","address":"a","rate":100}`, 400},
		"missing rate":   {`{"name":"n","description":"d","address":"a"}`, 400},
		"blank name":     {`{"name":" ","description":"d","address":"a","rate":800}`, 400},
		"unknown field":  {`{"name":"n","description":"d","address":"a","rate":800,"stars":5}`, 400},
		"token in use":   {`{"property_token":"tok-1","name":"n","description":"d","address":"a","rate":800}`, 409},
		"malformed json": {`{"name":`, 400},
	} {
		if rr := post(tc.body); rr.Code != tc.code {
			t.Fatalf("%s: want %d, got %d %s", name, tc.code, rr.Code, rr.Body)
		}
	}
	if n := countRows(t, e.db, "hotels"); n != 2 {
		t.Fatalf("rejected hotels wrote rows: %d", n)
	}
	if n := countRows(t, e.db, "hotel_images"); n != 2 {
		t.Fatalf("hotel images: %d", n)
	}
}
