package app

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"hotel_directory/internal/adapters/observability"
	"hotel_directory/internal/domain"
)

// IngestionService turns raw search records into hotel rows.
type IngestionService struct {
	repo    domain.HotelRepository
	geo     domain.Geocoder
	cache   domain.Cache
	workers int
}

func NewIngestionService(r domain.HotelRepository, g domain.Geocoder, cache domain.Cache, workers int) *IngestionService {
	if workers <= 0 {
		workers = 1
	}
	return &IngestionService{repo: r, geo: g, cache: cache, workers: workers}
}

// RecordResult describes a written record.
type RecordResult struct {
	HotelID int64
	Outcome domain.UpsertOutcome
	Images  int
	Dropped int // image entries without a URL
}

// IngestReport tallies one batch. Every record lands in exactly one of
// Inserted, Updated, the skip counters, Conflicts, Errors or Cancelled.
type IngestReport struct {
	Processed     int `json:"processed"`
	Inserted      int `json:"inserted"`
	Updated       int `json:"updated"`
	NoRate        int `json:"skipped_no_rate"`
	RateTooLow    int `json:"skipped_rate_too_low"`
	NoToken       int `json:"skipped_no_token"`
	Conflicts     int `json:"conflicts"`
	Errors        int `json:"errors"`
	Cancelled     int `json:"cancelled"`
	ImagesStored  int `json:"images_stored"`
	ImagesDropped int `json:"images_dropped"`
}

// outcome maps a record result to its report/metric label.
func outcome(res RecordResult, err error) string {
	switch {
	case err == nil:
		return res.Outcome.String()
	case errors.Is(err, domain.ErrRateMissing):
		return "no_rate"
	case errors.Is(err, domain.ErrRateTooLow):
		return "rate_too_low"
	case errors.Is(err, domain.ErrTokenMissing):
		return "no_token"
	case errors.Is(err, domain.ErrDuplicate):
		return "conflict"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}

func (r *IngestReport) add(res RecordResult, err error) {
	r.Processed++
	switch outcome(res, err) {
	case "inserted":
		r.Inserted++
	case "updated":
		r.Updated++
	case "no_rate":
		r.NoRate++
	case "rate_too_low":
		r.RateTooLow++
	case "no_token":
		r.NoToken++
	case "conflict":
		r.Conflicts++
	case "cancelled":
		r.Cancelled++
	default:
		r.Errors++
	}
	if err == nil {
		r.ImagesStored += res.Images
		r.ImagesDropped += res.Dropped
	}
}

// IngestRecord classifies, geocodes and upserts one raw record. Skips come
// back as ErrRateMissing, ErrRateTooLow or ErrTokenMissing; a lost race on
// the property token as ErrDuplicate.
func (s *IngestionService) IngestRecord(ctx context.Context, rec map[string]any) (RecordResult, error) {
	l := mapListing(rec)

	rate, tier, err := domain.ClassifyStoredRate(l.Rate)
	if err != nil {
		return RecordResult{}, err
	}
	if l.PropertyToken == nil {
		return RecordResult{}, domain.ErrTokenMissing
	}

	// Geocode before the write; no transaction spans network I/O.
	var region domain.Region
	if l.Coords != nil && s.geo != nil {
		region = s.geo.Reverse(ctx, l.Coords.Lat, l.Coords.Lon)
	}

	id, out, err := s.repo.UpsertHotel(ctx, toPatch(l, rate, tier, region))
	if err != nil {
		return RecordResult{}, err
	}
	s.invalidateHotel(ctx, id)

	return RecordResult{HotelID: id, Outcome: out, Images: len(l.ImageURLs), Dropped: l.DroppedImages}, nil
}

// IngestAll processes records independently over a bounded worker pool. A
// failed record never aborts the batch. Records not started when ctx is
// cancelled, and records whose write was cut short by it, count as Cancelled.
func (s *IngestionService) IngestAll(ctx context.Context, records []map[string]any) IngestReport {
	var (
		mu  sync.Mutex
		rep IngestReport
		wg  sync.WaitGroup
	)
	sem := semaphore.NewWeighted(int64(s.workers))

	for i, rec := range records {
		// Acquire may succeed on a done ctx; check first.
		if ctx.Err() != nil || sem.Acquire(ctx, 1) != nil {
			mu.Lock()
			rep.Cancelled += len(records) - i
			mu.Unlock()
			observability.IngestRecords.WithLabelValues("cancelled").Add(float64(len(records) - i))
			break
		}

		wg.Add(1)
		go func(rec map[string]any) {
			defer wg.Done()
			defer sem.Release(1)

			res, err := s.IngestRecord(ctx, rec)
			label := outcome(res, err)
			observability.ObserveIngest(label)

			ev := log.Debug()
			if label == "conflict" || label == "error" {
				ev = log.Warn()
			}
			ev.Str("property_token", lookupStr(rec, "property_token")).
				Int64("hotel_id", res.HotelID).
				Str("outcome", label).
				Err(err).
				Msg("ingest record")

			mu.Lock()
			rep.add(res, err)
			mu.Unlock()
		}(rec)
	}
	wg.Wait()

	log.Info().
		Int("processed", rep.Processed).
		Int("inserted", rep.Inserted).
		Int("updated", rep.Updated).
		Int("no_rate", rep.NoRate).
		Int("rate_too_low", rep.RateTooLow).
		Int("no_token", rep.NoToken).
		Int("conflicts", rep.Conflicts).
		Int("errors", rep.Errors).
		Int("cancelled", rep.Cancelled).
		Int("images_stored", rep.ImagesStored).
		Int("images_dropped", rep.ImagesDropped).
		Msg("ingestion completed")
	return rep
}

func (s *IngestionService) invalidateHotel(ctx context.Context, id int64) {
	invalidateHotel(ctx, s.cache, id)
}
