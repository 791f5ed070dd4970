package shared

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	CacheTTL    time.Duration

	SerpAPIBase   string
	SerpAPIKey    string
	CheckInDate   string
	CheckOutDate  string
	HotelClass    string
	MinRating     string
	SearchTimeout time.Duration
	SearchRetries int
	SearchRPS     int
	IngestMax     int

	OpenCageBase   string
	OpenCageKey    string
	GeocodeTimeout time.Duration

	ProbeTimeout   time.Duration
	IngestWorkers  int
	JanitorWorkers int
	UploadDir      string
}

// LoadDotEnv reads path (default ".env") into the environment without
// overriding variables that are already set. A missing file is fine.
func LoadDotEnv(path string) {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Str("path", path).Msg("dotenv load failed")
	}
}

func Load() Config {
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		LogLevel:    env("LOG_LEVEL", "info"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ""),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/hotels?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", ""),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),
		CacheTTL:    time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,

		SerpAPIBase:   env("SERPAPI_BASE_URL", "https://serpapi.com/search"),
		SerpAPIKey:    env("SERPAPI_KEY", ""),
		CheckInDate:   env("CHECK_IN_DATE", "2025-10-16"),
		CheckOutDate:  env("CHECK_OUT_DATE", "2025-10-17"),
		HotelClass:    env("HOTEL_CLASS", "5"),
		MinRating:     env("MIN_RATING", "9"),
		SearchTimeout: dur("SEARCH_TIMEOUT", 30*time.Second),
		SearchRetries: atoi("SEARCH_RETRIES", 0),
		SearchRPS:     atoi("SEARCH_RPS", 5),
		IngestMax:     atoi("INGEST_MAX", 3000),

		OpenCageBase:   env("OPENCAGE_BASE_URL", "https://api.opencagedata.com/geocode/v1/json"),
		OpenCageKey:    env("OPENCAGE_KEY", ""),
		GeocodeTimeout: dur("GEOCODE_TIMEOUT", 10*time.Second),

		ProbeTimeout:   dur("PROBE_TIMEOUT", 5*time.Second),
		IngestWorkers:  atoi("INGEST_WORKERS", 8),
		JanitorWorkers: atoi("JANITOR_WORKERS", 16),
		UploadDir:      env("UPLOAD_DIR", "uploads"),
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func atoi(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Warn().Str("key", k).Str("value", v).Msg("not an integer, using default")
	}
	return def
}

// dur accepts Go durations ("30s") or plain seconds ("30").
func dur(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	log.Warn().Str("key", k).Str("value", v).Msg("not a duration, using default")
	return def
}
