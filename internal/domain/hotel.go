package domain

// Hotel is a stored hotel row. Images are loaded by the read paths only.
type Hotel struct {
	ID             int64        `json:"id"`
	PropertyToken  *string      `json:"property_token"`
	Name           string       `json:"name"`
	Description    string       `json:"description"`
	Address        string       `json:"address"`
	Region                      // flattened: country, city, state, ...
	Tier           PriceTier    `json:"price_tier"`
	Rate           int64        `json:"rate"`
	OverallRating  *float64     `json:"overall_rating"`
	LocationRating *float64     `json:"location_rating"`
	Type           *string      `json:"type"`
	Link           *string      `json:"link"`
	Images         []HotelImage `json:"images"`
}

type HotelImage struct {
	ID      int64  `json:"id"`
	HotelID int64  `json:"hotel_id"`
	URL     string `json:"image_url"`
}

// Region holds the administrative fields resolved from coordinates.
// The zero value means "unknown".
type Region struct {
	Country    *string `json:"country"`
	City       *string `json:"city"`
	State      *string `json:"state"`
	Province   *string `json:"province"`
	PostalCode *string `json:"zip"`
	Continent  *string `json:"continent"`
}

func (r Region) IsZero() bool {
	return r.Country == nil && r.City == nil && r.State == nil &&
		r.Province == nil && r.PostalCode == nil && r.Continent == nil
}

type Coords struct{ Lat, Lon float64 }

// HotelPatch is one normalized listing ready to be written. Nil pointers are
// absent values: an update keeps the stored column, an insert falls back to
// the defaults in NewHotel. Images always replace the stored set.
type HotelPatch struct {
	PropertyToken  string
	Name           *string
	Description    *string
	Address        *string
	Link           *string
	Type           *string
	Region         Region
	Tier           PriceTier
	Rate           int64
	OverallRating  *float64
	LocationRating *float64
	ImageURLs      []string
}

const (
	DefaultHotelName   = "Unknown"
	DefaultDescription = "No description"
	DefaultAddress     = "No address"
)

// NewHotel builds the row inserted on first sight of a property token.
func (p HotelPatch) NewHotel() Hotel {
	tok := p.PropertyToken
	h := Hotel{
		PropertyToken:  &tok,
		Name:           orDefault(p.Name, DefaultHotelName),
		Description:    orDefault(p.Description, DefaultDescription),
		Address:        orDefault(p.Address, DefaultAddress),
		Region:         p.Region,
		Tier:           p.Tier,
		Rate:           p.Rate,
		OverallRating:  p.OverallRating,
		LocationRating: p.LocationRating,
		Type:           p.Type,
		Link:           p.Link,
	}
	for _, u := range p.ImageURLs {
		h.Images = append(h.Images, HotelImage{URL: u})
	}
	return h
}

func orDefault(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}

// UpsertOutcome tells whether a patch created or updated a hotel.
type UpsertOutcome int

const (
	Inserted UpsertOutcome = iota + 1
	Updated
)

func (o UpsertOutcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case Updated:
		return "updated"
	}
	return "unknown"
}
