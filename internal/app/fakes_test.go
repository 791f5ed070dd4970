package app_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"

	"hotel_directory/internal/domain"
)

// ---- fakes ----

type fakeHotelRepo struct {
	mu       sync.Mutex
	ids      map[string]int64
	patches  []domain.HotelPatch
	failWith map[string]error // by property token
	hotels   map[int64]domain.Hotel
	images   []domain.HotelImage
	deleted  []int64
}

func newFakeHotelRepo() *fakeHotelRepo {
	return &fakeHotelRepo{ids: map[string]int64{}, failWith: map[string]error{}, hotels: map[int64]domain.Hotel{}}
}

func (f *fakeHotelRepo) UpsertHotel(ctx context.Context, p domain.HotelPatch) (int64, domain.UpsertOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failWith[p.PropertyToken]; err != nil {
		return 0, 0, err
	}
	f.patches = append(f.patches, p)
	if id, ok := f.ids[p.PropertyToken]; ok {
		return id, domain.Updated, nil
	}
	id := int64(len(f.ids) + 1)
	f.ids[p.PropertyToken] = id
	return id, domain.Inserted, nil
}

func (f *fakeHotelRepo) CreateHotel(ctx context.Context, h domain.Hotel) (domain.Hotel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if h.PropertyToken != nil {
		if _, ok := f.ids[*h.PropertyToken]; ok {
			return domain.Hotel{}, fmt.Errorf("%w: %s", domain.ErrDuplicate, *h.PropertyToken)
		}
	}
	h.ID = int64(len(f.hotels) + len(f.ids) + 1)
	if h.PropertyToken != nil {
		f.ids[*h.PropertyToken] = h.ID
	}
	f.hotels[h.ID] = h
	return h, nil
}

func (f *fakeHotelRepo) DeleteHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.hotels[id]
	if !ok {
		return domain.Hotel{}, fmt.Errorf("hotel %d: %w", id, domain.ErrNotFound)
	}
	delete(f.hotels, id)
	return h, nil
}

func (f *fakeHotelRepo) ListHotelImages(ctx context.Context) ([]domain.HotelImage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.HotelImage(nil), f.images...), nil
}

func (f *fakeHotelRepo) DeleteHotelImages(ctx context.Context, ids []int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	drop := map[int64]bool{}
	for _, id := range ids {
		drop[id] = true
	}
	var keep []domain.HotelImage
	var n int64
	for _, img := range f.images {
		if drop[img.ID] {
			n++
			continue
		}
		keep = append(keep, img)
	}
	f.images = keep
	f.deleted = append(f.deleted, ids...)
	return n, nil
}

func (f *fakeHotelRepo) GetHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.hotels[id]
	if !ok {
		return domain.Hotel{}, fmt.Errorf("hotel %d: %w", id, domain.ErrNotFound)
	}
	return h, nil
}

func (f *fakeHotelRepo) ListHotels(ctx context.Context, location string) ([]domain.Hotel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Hotel{}
	for _, h := range f.hotels {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeReviewRepo struct {
	users   map[int64]domain.User
	reviews []domain.ReviewView
	created []domain.NewReview
	err     error // returned by CreateReview
}

func (f *fakeReviewRepo) CreateUser(ctx context.Context, name string) (domain.User, error) {
	if f.users == nil {
		f.users = map[int64]domain.User{}
	}
	u := domain.User{ID: int64(len(f.users) + 1), Name: name}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeReviewRepo) GetUser(ctx context.Context, id int64) (domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return domain.User{}, fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	return u, nil
}

func (f *fakeReviewRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	out := []domain.User{}
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeReviewRepo) DeleteUser(ctx context.Context, id int64) error {
	if _, ok := f.users[id]; !ok {
		return fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	delete(f.users, id)
	return nil
}

func (f *fakeReviewRepo) CreateReview(ctx context.Context, in domain.NewReview) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.created = append(f.created, in)
	id := int64(len(f.reviews) + 1)
	v := domain.ReviewView{Review: domain.Review{ID: id, HotelID: in.HotelID, UserID: in.UserID, OverallReview: in.OverallReview}}
	for i, u := range in.ImageURLs {
		v.Images = append(v.Images, domain.ReviewImage{ReviewID: id, URL: u, Kind: in.ImageKinds[i]})
	}
	f.reviews = append(f.reviews, v)
	return id, nil
}

func (f *fakeReviewRepo) GetReview(ctx context.Context, id int64) (domain.ReviewView, error) {
	for _, r := range f.reviews {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.ReviewView{}, fmt.Errorf("review %d: %w", id, domain.ErrNotFound)
}

func (f *fakeReviewRepo) ListReviews(ctx context.Context, flt domain.ReviewFilter) ([]domain.ReviewView, error) {
	out := []domain.ReviewView{}
	for _, r := range f.reviews {
		if flt.HotelID != 0 && r.HotelID != flt.HotelID {
			continue
		}
		if flt.UserID != 0 && r.UserID != flt.UserID {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// fakeCache stores JSON like the redis adapter does.
type fakeCache struct {
	mu    sync.Mutex
	store map[string][]byte
	dels  []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	c.dels = append(c.dels, key)
	return nil
}

func (c *fakeCache) deleted(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range c.dels {
		if k == key {
			return true
		}
	}
	return false
}

type fakeGeocoder struct {
	mu     sync.Mutex
	calls  int
	region domain.Region
}

func (g *fakeGeocoder) Reverse(ctx context.Context, lat, lon float64) domain.Region {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return g.region
}

type fakeProber struct {
	status map[string]int
	errs   map[string]error
}

func (p *fakeProber) Probe(ctx context.Context, url string) (int, error) {
	if err := p.errs[url]; err != nil {
		return 0, err
	}
	if s, ok := p.status[url]; ok {
		return s, nil
	}
	return 200, nil
}

type fakeFiles struct {
	saved   []string
	removed []string
}

func (f *fakeFiles) Save(ctx context.Context, ext string, r io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	u := fmt.Sprintf("/uploads/%d%s", len(f.saved)+1, ext)
	f.saved = append(f.saved, u)
	return u, nil
}

func (f *fakeFiles) Remove(ctx context.Context, url string) error {
	f.removed = append(f.removed, url)
	return nil
}

func ptr[T any](v T) *T { return &v }
