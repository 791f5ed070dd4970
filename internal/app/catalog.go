package app

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"hotel_directory/internal/domain"
)

// CatalogService holds the API write paths: hotels, users and reviews.
type CatalogService struct {
	hotels  domain.HotelRepository
	reviews domain.ReviewRepository
	files   domain.FileStore
	cache   domain.Cache
}

func NewCatalogService(h domain.HotelRepository, r domain.ReviewRepository, f domain.FileStore, cache domain.Cache) *CatalogService {
	return &CatalogService{hotels: h, reviews: r, files: f, cache: cache}
}

// Upload is one image file attached to a new review.
type Upload struct {
	Filename string
	Body     io.Reader
}

type ReviewInput struct {
	HotelID       int64
	UserID        int64
	SettingReview *string
	RoomReview    *string
	ServiceReview *string
	FoodReview    *string
	OverallReview string
	Images        []Upload
	ImageTypes    []string
}

// CreateReview validates the input, stores the image files and writes the
// review. Nothing is written when the image and type counts differ or a type
// is unknown; stored files are removed again if the database write fails.
func (s *CatalogService) CreateReview(ctx context.Context, in ReviewInput) (domain.ReviewView, error) {
	if len(in.Images) != len(in.ImageTypes) {
		return domain.ReviewView{}, fmt.Errorf("%w: %d images, %d types", domain.ErrImageArity, len(in.Images), len(in.ImageTypes))
	}
	if strings.TrimSpace(in.OverallReview) == "" {
		return domain.ReviewView{}, fmt.Errorf("%w: overall_review is required", domain.ErrInvalidInput)
	}
	kinds := make([]domain.ReviewImageKind, len(in.ImageTypes))
	for i, t := range in.ImageTypes {
		k, err := domain.ParseReviewImageKind(t)
		if err != nil {
			return domain.ReviewView{}, err
		}
		kinds[i] = k
	}

	urls := make([]string, 0, len(in.Images))
	for _, up := range in.Images {
		u, err := s.files.Save(ctx, filepath.Ext(up.Filename), up.Body)
		if err != nil {
			s.removeFiles(ctx, urls)
			return domain.ReviewView{}, fmt.Errorf("store review image: %w", err)
		}
		urls = append(urls, u)
	}

	id, err := s.reviews.CreateReview(ctx, domain.NewReview{
		HotelID:       in.HotelID,
		UserID:        in.UserID,
		SettingReview: in.SettingReview,
		RoomReview:    in.RoomReview,
		ServiceReview: in.ServiceReview,
		FoodReview:    in.FoodReview,
		OverallReview: in.OverallReview,
		ImageURLs:     urls,
		ImageKinds:    kinds,
	})
	if err != nil {
		s.removeFiles(ctx, urls)
		return domain.ReviewView{}, err
	}
	if s.cache != nil {
		_ = s.cache.Del(ctx, hotelReviewsKey(in.HotelID))
	}
	return s.reviews.GetReview(ctx, id)
}

func (s *CatalogService) removeFiles(ctx context.Context, urls []string) {
	for _, u := range urls {
		if err := s.files.Remove(ctx, u); err != nil {
			log.Warn().Err(err).Str("url", u).Msg("remove review image failed")
		}
	}
}

func (s *CatalogService) CreateUser(ctx context.Context, name string) (domain.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.User{}, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	return s.reviews.CreateUser(ctx, name)
}

// DeleteUser removes a user with their reviews and drops the cached review
// lists of every hotel they reviewed.
func (s *CatalogService) DeleteUser(ctx context.Context, id int64) error {
	rs, err := s.reviews.ListReviews(ctx, domain.ReviewFilter{UserID: id})
	if err != nil {
		return err
	}
	if err := s.reviews.DeleteUser(ctx, id); err != nil {
		return err
	}
	if s.cache != nil {
		for _, r := range rs {
			_ = s.cache.Del(ctx, hotelReviewsKey(r.HotelID))
		}
	}
	return nil
}

// DeleteHotel removes a hotel together with its images and reviews and
// returns the deleted row.
func (s *CatalogService) DeleteHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	h, err := s.hotels.DeleteHotel(ctx, id)
	if err != nil {
		return domain.Hotel{}, err
	}
	invalidateHotel(ctx, s.cache, id)
	return h, nil
}

// HotelInput is a hotel submitted directly through the API.
type HotelInput struct {
	PropertyToken *string `json:"property_token"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Address       string  `json:"address"`
	domain.Region
	// PriceTier is optional; when set it must agree with Rate.
	PriceTier      string   `json:"price_tier"`
	Rate           *int64   `json:"rate"`
	OverallRating  *float64 `json:"overall_rating"`
	LocationRating *float64 `json:"location_rating"`
	Type           *string  `json:"type"`
	Link           *string  `json:"link"`
	Images         []string `json:"images"`
}

// CreateHotel validates and inserts a hotel. The tier is derived from the
// rate, so a rate under the low floor is rejected like an ingested one.
func (s *CatalogService) CreateHotel(ctx context.Context, in HotelInput) (domain.Hotel, error) {
	h := domain.Hotel{
		PropertyToken:  ptrStr(strings.TrimSpace(derefStr(in.PropertyToken))),
		Name:           strings.TrimSpace(in.Name),
		Description:    strings.TrimSpace(in.Description),
		Address:        strings.TrimSpace(in.Address),
		Region:         in.Region,
		OverallRating:  in.OverallRating,
		LocationRating: in.LocationRating,
		Type:           in.Type,
		Link:           in.Link,
	}
	if h.Name == "" || h.Description == "" || h.Address == "" {
		return domain.Hotel{}, fmt.Errorf("%w: name, description and address are required", domain.ErrInvalidInput)
	}
	if in.Rate == nil {
		return domain.Hotel{}, fmt.Errorf("%w: rate is required", domain.ErrInvalidInput)
	}
	rate := float64(*in.Rate)
	tier, err := domain.ClassifyRate(&rate)
	if err != nil {
		return domain.Hotel{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if in.PriceTier != "" {
		given, err := domain.ParsePriceTier(in.PriceTier)
		if err != nil {
			return domain.Hotel{}, err
		}
		if given != tier {
			return domain.Hotel{}, fmt.Errorf("%w: price_tier %s does not match rate %d (%s)", domain.ErrInvalidInput, given, *in.Rate, tier)
		}
	}
	h.Tier, h.Rate = tier, *in.Rate
	for _, u := range in.Images {
		if u = strings.TrimSpace(u); u == "" {
			return domain.Hotel{}, fmt.Errorf("%w: empty image url", domain.ErrInvalidInput)
		}
		h.Images = append(h.Images, domain.HotelImage{URL: u})
	}
	return s.hotels.CreateHotel(ctx, h)
}

func derefStr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
