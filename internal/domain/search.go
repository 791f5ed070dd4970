package domain

// StopReason tells why a paginated search stopped.
type StopReason string

const (
	StopCapped    StopReason = "capped"     // reached the requested maximum
	StopExhausted StopReason = "exhausted"  // provider returned no continuation token
	StopEmptyPage StopReason = "empty_page" // a page carried zero records
	StopFailed    StopReason = "failed"     // a page fetch failed; Listings is partial
)

// SearchResult is the outcome of draining a paginated search. On StopFailed
// the listings collected before the failing page are kept.
type SearchResult struct {
	Listings []map[string]any
	Pages    int
	Stop     StopReason
}

// Listing is one raw search record normalized for ingestion.
type Listing struct {
	PropertyToken  *string
	Name           *string
	Description    *string
	Link           *string
	Type           *string
	Rate           *float64
	OverallRating  *float64
	LocationRating *float64
	Coords         *Coords
	ImageURLs      []string
	DroppedImages  int // image entries without a URL
}
