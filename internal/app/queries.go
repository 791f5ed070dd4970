package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"hotel_directory/internal/domain"
)

func hotelKey(id int64) string        { return fmt.Sprintf("hotel:%d", id) }
func hotelReviewsKey(id int64) string { return fmt.Sprintf("reviews:hotel:%d", id) }

// invalidateHotel drops every cached read model of one hotel.
func invalidateHotel(ctx context.Context, c domain.Cache, id int64) {
	if c == nil {
		return
	}
	_ = c.Del(ctx, hotelKey(id))
	_ = c.Del(ctx, hotelReviewsKey(id))
}

type QueryService struct {
	hotels   domain.HotelRepository
	reviews  domain.ReviewRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

// NewQueryService builds the read side. c may be nil to disable caching.
func NewQueryService(h domain.HotelRepository, r domain.ReviewRepository, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{hotels: h, reviews: r, cache: c, cacheTTL: ttl}
}

func (s *QueryService) GetHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	key := hotelKey(id)
	var h domain.Hotel
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &h); ok {
			return h, nil
		}
	}
	h, err := s.hotels.GetHotel(ctx, id)
	if err != nil {
		return domain.Hotel{}, err
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, h, int(s.cacheTTL.Seconds()))
	}
	return h, nil
}

func (s *QueryService) ListHotels(ctx context.Context, location string) ([]domain.Hotel, error) {
	return s.hotels.ListHotels(ctx, location)
}

// HotelReviews lists the reviews of an existing hotel.
func (s *QueryService) HotelReviews(ctx context.Context, hotelID int64) ([]domain.ReviewView, error) {
	key := hotelReviewsKey(hotelID)
	var out []domain.ReviewView
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &out); ok {
			return out, nil
		}
	}
	if _, err := s.GetHotel(ctx, hotelID); err != nil {
		return nil, err
	}

	rs, err := s.reviews.ListReviews(ctx, domain.ReviewFilter{HotelID: hotelID})
	if err != nil {
		return nil, err
	}

	// copy slice to avoid aliasing the repo's backing array
	out = make([]domain.ReviewView, len(rs))
	copy(out, rs)

	// optional size guard
	if s.cache != nil {
		if b, _ := json.Marshal(out); len(b) < 1_000_000 {
			_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
		}
	}
	return out, nil
}

// UserReviews lists the reviews written by an existing user.
func (s *QueryService) UserReviews(ctx context.Context, userID int64) ([]domain.ReviewView, error) {
	if _, err := s.reviews.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.reviews.ListReviews(ctx, domain.ReviewFilter{UserID: userID})
}

func (s *QueryService) ListReviews(ctx context.Context) ([]domain.ReviewView, error) {
	return s.reviews.ListReviews(ctx, domain.ReviewFilter{})
}

func (s *QueryService) GetReview(ctx context.Context, id int64) (domain.ReviewView, error) {
	return s.reviews.GetReview(ctx, id)
}

func (s *QueryService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.reviews.ListUsers(ctx)
}

func (s *QueryService) GetUser(ctx context.Context, id int64) (domain.User, error) {
	return s.reviews.GetUser(ctx, id)
}
