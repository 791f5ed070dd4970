package app

import (
	"strconv"
	"strings"

	"hotel_directory/internal/domain"
)

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns string at path or "".
func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func ptrStr(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// getFloatFlexible: number from several paths (float64/int/json number/string like "8,0").
func getFloatFlexible(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			f := v
			return &f
		case int:
			f := float64(v)
			return &f
		case int64:
			f := float64(v)
			return &f
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

/********** listing mapper **********/

// mapListing normalizes one raw search record. Fields the record does not
// carry stay nil.
func mapListing(rec map[string]any) domain.Listing {
	l := domain.Listing{
		PropertyToken:  ptrStr(lookupStr(rec, "property_token")),
		Name:           ptrStr(lookupStr(rec, "name")),
		Description:    ptrStr(lookupStr(rec, "description")),
		Link:           ptrStr(lookupStr(rec, "link")),
		Type:           ptrStr(lookupStr(rec, "type")),
		Rate:           getFloatFlexible(rec, "total_rate.extracted_lowest"),
		OverallRating:  getFloatFlexible(rec, "overall_rating"),
		LocationRating: getFloatFlexible(rec, "location_rating"),
	}

	lat := getFloatFlexible(rec, "gps_coordinates.latitude")
	lon := getFloatFlexible(rec, "gps_coordinates.longitude")
	if lat != nil && lon != nil {
		l.Coords = &domain.Coords{Lat: *lat, Lon: *lon}
	}

	if raw, ok := lookupAny(rec, "images").([]any); ok {
		for _, it := range raw {
			img, _ := it.(map[string]any)
			if u := lookupStr(img, "original_image"); u != "" {
				l.ImageURLs = append(l.ImageURLs, u)
				continue
			}
			l.DroppedImages++
		}
	}
	return l
}

// toPatch builds the write for a classified listing. The address mirrors the
// listing link, the only location text the search provider returns.
func toPatch(l domain.Listing, rate int64, tier domain.PriceTier, region domain.Region) domain.HotelPatch {
	return domain.HotelPatch{
		PropertyToken:  *l.PropertyToken,
		Name:           l.Name,
		Description:    l.Description,
		Address:        l.Link,
		Link:           l.Link,
		Type:           l.Type,
		Region:         region,
		Tier:           tier,
		Rate:           rate,
		OverallRating:  l.OverallRating,
		LocationRating: l.LocationRating,
		ImageURLs:      l.ImageURLs,
	}
}
