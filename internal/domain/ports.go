package domain

import (
	"context"
	"io"
	"iter"
)

type HotelRepository interface {
	// Write paths
	UpsertHotel(ctx context.Context, p HotelPatch) (int64, UpsertOutcome, error)
	CreateHotel(ctx context.Context, h Hotel) (Hotel, error)
	DeleteHotel(ctx context.Context, id int64) (Hotel, error)
	ListHotelImages(ctx context.Context) ([]HotelImage, error)
	DeleteHotelImages(ctx context.Context, ids []int64) (int64, error)

	// Read paths
	GetHotel(ctx context.Context, id int64) (Hotel, error)
	ListHotels(ctx context.Context, location string) ([]Hotel, error)
}

type ReviewRepository interface {
	CreateUser(ctx context.Context, name string) (User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, id int64) error

	CreateReview(ctx context.Context, in NewReview) (int64, error)
	GetReview(ctx context.Context, id int64) (ReviewView, error)
	ListReviews(ctx context.Context, f ReviewFilter) ([]ReviewView, error)
}

type SearchClient interface {
	Listings(ctx context.Context, term string, max int) iter.Seq2[map[string]any, error]
	Search(ctx context.Context, term string, max int) (SearchResult, error)
}

type Geocoder interface {
	// Reverse never fails; an unresolved position yields the zero Region.
	Reverse(ctx context.Context, lat, lon float64) Region
}

type ImageProber interface {
	// Probe returns the HTTP status of a lightweight request for url.
	Probe(ctx context.Context, url string) (int, error)
}

// FileStore keeps uploaded review images.
type FileStore interface {
	// Save stores r under a fresh name keeping ext and returns its public URL path.
	Save(ctx context.Context, ext string, r io.Reader) (string, error)
	Remove(ctx context.Context, url string) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
