package app

import (
	"context"
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"hotel_directory/internal/adapters/observability"
	"hotel_directory/internal/domain"
)

// ImageJanitor removes hotel images whose URL no longer resolves.
type ImageJanitor struct {
	repo    domain.HotelRepository
	probe   domain.ImageProber
	cache   domain.Cache
	workers int
}

func NewImageJanitor(r domain.HotelRepository, p domain.ImageProber, cache domain.Cache, workers int) *ImageJanitor {
	if workers <= 0 {
		workers = 1
	}
	return &ImageJanitor{repo: r, probe: p, cache: cache, workers: workers}
}

type JanitorReport struct {
	Checked int   `json:"checked"`
	Removed int64 `json:"removed"`
}

// Sweep probes every stored image URL and deletes the unreachable rows in one
// transaction once probing is done. A probe error or a status >= 400 counts
// as unreachable; there are no retries.
func (j *ImageJanitor) Sweep(ctx context.Context) (JanitorReport, error) {
	imgs, err := j.repo.ListHotelImages(ctx)
	if err != nil {
		return JanitorReport{}, err
	}

	var (
		mu   sync.Mutex
		dead []domain.HotelImage
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.workers)
	for _, img := range imgs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			status, err := j.probe.Probe(gctx, img.URL)
			if gctx.Err() != nil {
				return gctx.Err()
			}
			if err == nil && status < http.StatusBadRequest {
				observability.ObserveJanitor("ok")
				return nil
			}
			observability.ObserveJanitor("unreachable")
			log.Debug().
				Int64("image_id", img.ID).
				Str("url", img.URL).
				Int("status", status).
				Err(err).
				Msg("image unreachable")
			mu.Lock()
			dead = append(dead, img)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return JanitorReport{}, err
	}
	if err := ctx.Err(); err != nil {
		return JanitorReport{}, err
	}

	rep := JanitorReport{Checked: len(imgs)}
	if len(dead) == 0 {
		log.Info().Int("checked", rep.Checked).Msg("image sweep completed")
		return rep, nil
	}

	ids := make([]int64, 0, len(dead))
	hotels := make(map[int64]struct{}, len(dead))
	for _, img := range dead {
		ids = append(ids, img.ID)
		hotels[img.HotelID] = struct{}{}
	}
	if rep.Removed, err = j.repo.DeleteHotelImages(ctx, ids); err != nil {
		return JanitorReport{}, err
	}
	for id := range hotels {
		invalidateHotel(ctx, j.cache, id)
	}

	log.Info().
		Int("checked", rep.Checked).
		Int64("removed", rep.Removed).
		Msg("image sweep completed")
	return rep, nil
}
