package domain

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

type User struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Review struct {
	ID            int64   `json:"id"`
	HotelID       int64   `json:"hotel_id"`
	UserID        int64   `json:"user_id"`
	SettingReview *string `json:"setting_review"`
	RoomReview    *string `json:"room_review"`
	ServiceReview *string `json:"service_review"`
	FoodReview    *string `json:"food_review"`
	OverallReview string  `json:"overall_review"`
}

type ReviewImage struct {
	ID       int64           `json:"id"`
	ReviewID int64           `json:"review_id"`
	URL      string          `json:"image_url"`
	Kind     ReviewImageKind `json:"image_type"`
}

// HotelSummary is the slice of a hotel embedded in review responses.
type HotelSummary struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Address     string `json:"address"`
}

// ReviewView is a review with its user, hotel and images eagerly loaded.
type ReviewView struct {
	Review
	User   User          `json:"user"`
	Hotel  HotelSummary  `json:"hotel"`
	Images []ReviewImage `json:"images"`
}

// NewReview is the validated input for review creation. ImageURLs[i] is
// stored with ImageKinds[i].
type NewReview struct {
	HotelID       int64
	UserID        int64
	SettingReview *string
	RoomReview    *string
	ServiceReview *string
	FoodReview    *string
	OverallReview string
	ImageURLs     []string
	ImageKinds    []ReviewImageKind
}

// ReviewFilter selects reviews; zero fields do not filter.
type ReviewFilter struct {
	HotelID int64
	UserID  int64
}

// ReviewImageKind is the category tag of a review image.
type ReviewImageKind uint8

const (
	ReviewImageSetting ReviewImageKind = iota + 1
	ReviewImageRoom
	ReviewImageService
	ReviewImageFood
	ReviewImageOverall
)

var reviewImageKindNames = map[ReviewImageKind]string{
	ReviewImageSetting: "setting",
	ReviewImageRoom:    "room",
	ReviewImageService: "service",
	ReviewImageFood:    "food",
	ReviewImageOverall: "overall",
}

func (k ReviewImageKind) String() string {
	if s, ok := reviewImageKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("ReviewImageKind(%d)", uint8(k))
}

func (k ReviewImageKind) Valid() bool {
	_, ok := reviewImageKindNames[k]
	return ok
}

func ParseReviewImageKind(s string) (ReviewImageKind, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for k, name := range reviewImageKindNames {
		if name == v {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: review image type %q", ErrInvalidEnum, s)
}

func (k ReviewImageKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: review image type %d", ErrInvalidEnum, uint8(k))
	}
	return []byte(k.String()), nil
}

func (k *ReviewImageKind) UnmarshalText(b []byte) error {
	v, err := ParseReviewImageKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

func (k ReviewImageKind) Value() (driver.Value, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: review image type %d", ErrInvalidEnum, uint8(k))
	}
	return k.String(), nil
}

func (k *ReviewImageKind) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return k.UnmarshalText([]byte(v))
	case []byte:
		return k.UnmarshalText(v)
	default:
		return fmt.Errorf("%w: review image type from %T", ErrInvalidEnum, src)
	}
}
