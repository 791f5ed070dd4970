package domain_test

import (
	"testing"

	"hotel_directory/internal/domain"
)

func TestHotelPatch_NewHotelFillsDefaults(t *testing.T) {
	p := domain.HotelPatch{
		PropertyToken: "tok-1",
		Tier:          domain.PriceTierLow,
		Rate:          700,
		ImageURLs:     []string{"https://img/1.jpg", "https://img/2.jpg"},
	}
	h := p.NewHotel()
	if h.Name != domain.DefaultHotelName || h.Description != domain.DefaultDescription || h.Address != domain.DefaultAddress {
		t.Fatalf("defaults not applied: %+v", h)
	}
	if h.PropertyToken == nil || *h.PropertyToken != "tok-1" {
		t.Fatalf("token: %v", h.PropertyToken)
	}
	if len(h.Images) != 2 || h.Images[1].URL != "https://img/2.jpg" {
		t.Fatalf("images: %+v", h.Images)
	}
}

func TestHotelPatch_NewHotelKeepsValues(t *testing.T) {
	name, desc := "Grand", "Nice"
	h := domain.HotelPatch{PropertyToken: "t", Name: &name, Description: &desc}.NewHotel()
	if h.Name != "Grand" || h.Description != "Nice" {
		t.Fatalf("values overwritten by defaults: %+v", h)
	}
}

func TestRegion_IsZero(t *testing.T) {
	if !(domain.Region{}).IsZero() {
		t.Fatal("zero region should report IsZero")
	}
	city := "Paris"
	if (domain.Region{City: &city}).IsZero() {
		t.Fatal("region with city is not zero")
	}
}
