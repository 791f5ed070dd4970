package main

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"hotel_directory/internal/adapters/observability"
	redisad "hotel_directory/internal/adapters/redis"
	"hotel_directory/internal/domain"
	"hotel_directory/internal/shared"
	mysqlrepo "hotel_directory/internal/storage/mysql"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("ingestor failed")
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var envFile string
	cfg := &shared.Config{}

	cmd := &cobra.Command{
		Use:           "ingestor",
		Short:         "Fetch hotel listings into the directory, or clean dead images",
		SilenceErrors: true,
		SilenceUsage:  true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			shared.LoadDotEnv(envFile)
			*cfg = shared.Load()
			log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)
			observability.Serve(cfg.MetricsAddr, observability.InitRegistry())
			return nil
		},
		// Without a subcommand, ask which job to run.
		RunE: func(cmd *cobra.Command, args []string) error {
			// one buffered reader for both prompts
			cmd.SetIn(bufio.NewReader(cmd.InOrStdin()))
			action, err := prompt(cmd.InOrStdin(), cmd.OutOrStdout(), "Enter 'fetch' to fetch hotels or 'clean' to clean images: ")
			if err != nil {
				return err
			}
			switch strings.ToLower(action) {
			case "fetch":
				return runFetch(cmd, cfg, "", cfg.IngestMax)
			case "clean":
				return runClean(cmd, cfg)
			default:
				return fmt.Errorf("unknown action %q", action)
			}
		},
	}
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	cmd.AddCommand(newFetchCommand(cfg), newCleanCommand(cfg))
	return cmd
}

func prompt(in io.Reader, out io.Writer, msg string) (string, error) {
	fmt.Fprint(out, msg)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func openDB(cfg *shared.Config) (*mysqlrepo.Repo, func(), error) {
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sql.Open: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("db.Ping: %w", err)
	}
	log.Info().Msg("db ping ok")
	return mysqlrepo.New(db), func() { _ = db.Close() }, nil
}

// newCache returns nil when no redis address is configured.
func newCache(cfg *shared.Config) domain.Cache {
	if cfg.RedisAddr == "" {
		return nil
	}
	return redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
}
