package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"hotel_directory/internal/adapters/probe"
	"hotel_directory/internal/app"
	"hotel_directory/internal/shared"
)

func newCleanCommand(cfg *shared.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Delete hotel images whose URL no longer resolves",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(cmd, cfg)
		},
	}
}

func runClean(cmd *cobra.Command, cfg *shared.Config) error {
	repo, closeDB, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	j := app.NewImageJanitor(repo, probe.New(cfg.ProbeTimeout), newCache(cfg), cfg.JanitorWorkers)
	rep, err := j.Sweep(cmd.Context())
	if err != nil {
		return err
	}
	return json.NewEncoder(cmd.OutOrStdout()).Encode(rep)
}
