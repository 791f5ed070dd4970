package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"hotel_directory/internal/adapters/opencage"
	"hotel_directory/internal/adapters/serpapi"
	"hotel_directory/internal/app"
	"hotel_directory/internal/domain"
	"hotel_directory/internal/shared"
)

func newFetchCommand(cfg *shared.Config) *cobra.Command {
	var (
		query string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Search hotels for a location and upsert them",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("max") {
				limit = cfg.IngestMax
			}
			return runFetch(cmd, cfg, query, limit)
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "search term, e.g. a city (prompted when empty)")
	cmd.Flags().IntVar(&limit, "max", 3000, "maximum number of listings to fetch (default INGEST_MAX)")
	return cmd
}

func runFetch(cmd *cobra.Command, cfg *shared.Config, query string, limit int) error {
	ctx := cmd.Context()
	if query == "" {
		var err error
		if query, err = prompt(cmd.InOrStdin(), cmd.OutOrStdout(), "Enter the search query: "); err != nil {
			return err
		}
		if query == "" {
			return fmt.Errorf("search query is required")
		}
	}

	client, err := serpapi.New(serpapi.Options{
		BaseURL:      cfg.SerpAPIBase,
		APIKey:       cfg.SerpAPIKey,
		CheckInDate:  cfg.CheckInDate,
		CheckOutDate: cfg.CheckOutDate,
		HotelClass:   cfg.HotelClass,
		MinRating:    cfg.MinRating,
		Timeout:      cfg.SearchTimeout,
		Retries:      cfg.SearchRetries,
		RPS:          cfg.SearchRPS,
	})
	if err != nil {
		return fmt.Errorf("search client: %w", err)
	}
	if cfg.OpenCageKey == "" {
		log.Warn().Msg("OPENCAGE_KEY is empty; regions will stay unknown")
	}
	geo := opencage.New(cfg.OpenCageBase, cfg.OpenCageKey, cfg.GeocodeTimeout)

	repo, closeDB, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	log.Info().
		Str("query", query).
		Int("max", limit).
		Int("workers", cfg.IngestWorkers).
		Msg("ingestor starting")

	ing := app.NewIngestionService(repo, geo, newCache(cfg), cfg.IngestWorkers)
	return fetchAndIngest(ctx, client, ing, query, limit, cmd.OutOrStdout())
}

type fetchReport struct {
	Query  string            `json:"query"`
	Pages  int               `json:"pages"`
	Stop   domain.StopReason `json:"stop"`
	Ingest app.IngestReport  `json:"ingest"`
}

// fetchAndIngest drains the search, ingests whatever it returned and prints
// the combined report. A failed search still ingests the partial listings
// but makes the command fail.
func fetchAndIngest(ctx context.Context, search domain.SearchClient, ing *app.IngestionService, query string, limit int, out io.Writer) error {
	res, searchErr := search.Search(ctx, query, limit)
	if searchErr != nil {
		log.Warn().Err(searchErr).Int("listings", len(res.Listings)).Str("stop", string(res.Stop)).Msg("search stopped early")
	}

	rep := fetchReport{Query: query, Pages: res.Pages, Stop: res.Stop, Ingest: ing.IngestAll(ctx, res.Listings)}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return err
	}

	if searchErr != nil || res.Stop == domain.StopFailed {
		return fmt.Errorf("search %s after %d pages: %v", res.Stop, res.Pages, searchErr)
	}
	return nil
}
