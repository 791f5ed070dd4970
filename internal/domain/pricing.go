package domain

import (
	"database/sql/driver"
	"fmt"
	"math"
	"strings"
)

// PriceTier is the closed set of price classifications derived from a nightly rate.
type PriceTier uint8

const (
	PriceTierLow PriceTier = iota + 1
	PriceTierMid
	PriceTierHigh
)

// Rate floors, inclusive.
const (
	LowTierFloor  = 500
	HighTierFloor = 2000
)

// maxStoredRate is the largest magnitude both float64 and int64 hold exactly.
const maxStoredRate = 1 << 53

var priceTierNames = map[PriceTier]string{
	PriceTierLow:  "low",
	PriceTierMid:  "mid",
	PriceTierHigh: "high",
}

// ClassifyRate maps a nightly rate to its tier. A nil rate and a rate below
// LowTierFloor are distinct failures; neither is defaulted to a tier.
// No band maps to PriceTierMid.
func ClassifyRate(rate *float64) (PriceTier, error) {
	switch {
	case rate == nil:
		return 0, ErrRateMissing
	case *rate >= HighTierFloor:
		return PriceTierHigh, nil
	case *rate >= LowTierFloor:
		return PriceTierLow, nil
	default:
		return 0, fmt.Errorf("%w: %v", ErrRateTooLow, *rate)
	}
}

// StoredRate rounds a provider rate to the integer that is persisted. NaN,
// infinities and magnitudes beyond maxStoredRate carry no usable price and
// are reported as ErrRateMissing.
func StoredRate(rate *float64) (int64, error) {
	if rate == nil {
		return 0, ErrRateMissing
	}
	r := math.Round(*rate)
	if math.IsNaN(r) || math.Abs(r) > maxStoredRate {
		return 0, fmt.Errorf("%w: unusable rate %v", ErrRateMissing, *rate)
	}
	return int64(r), nil
}

// ClassifyStoredRate rounds rate with StoredRate and classifies the result,
// so the tier always agrees with the persisted value.
func ClassifyStoredRate(rate *float64) (int64, PriceTier, error) {
	stored, err := StoredRate(rate)
	if err != nil {
		return 0, 0, err
	}
	f := float64(stored)
	tier, err := ClassifyRate(&f)
	if err != nil {
		return 0, 0, err
	}
	return stored, tier, nil
}

func (t PriceTier) String() string {
	if s, ok := priceTierNames[t]; ok {
		return s
	}
	return fmt.Sprintf("PriceTier(%d)", uint8(t))
}

func (t PriceTier) Valid() bool {
	_, ok := priceTierNames[t]
	return ok
}

func ParsePriceTier(s string) (PriceTier, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for t, name := range priceTierNames {
		if name == v {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: price tier %q", ErrInvalidEnum, s)
}

func (t PriceTier) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: price tier %d", ErrInvalidEnum, uint8(t))
	}
	return []byte(t.String()), nil
}

func (t *PriceTier) UnmarshalText(b []byte) error {
	v, err := ParsePriceTier(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Value stores the tier as its lowercase name.
func (t PriceTier) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: price tier %d", ErrInvalidEnum, uint8(t))
	}
	return t.String(), nil
}

func (t *PriceTier) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return t.UnmarshalText([]byte(v))
	case []byte:
		return t.UnmarshalText(v)
	default:
		return fmt.Errorf("%w: price tier from %T", ErrInvalidEnum, src)
	}
}
