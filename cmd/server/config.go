package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ConfabulousDev/resume-insights/internal/storage"
)

const (
	sourcePostgres = "postgres"
	sourceHTTP     = "http"
)

// Config is the server configuration read from the environment.
type Config struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	JWTSecret      string
	AllowedOrigins []string
	IngestAPIKey   string

	RecordSource        string
	DatabaseURL         string
	MigrateOnStart      bool
	AnalyticsServiceURL string
	SourceTimeout       time.Duration

	RedisURL string
	// S3Config is nil when export archiving is disabled.
	S3Config *storage.S3Config

	RateLimitRPS   float64
	RateLimitBurst int
}

// parseConfig builds the server Config from getenv. Every problem is
// reported, not just the first.
func parseConfig(getenv func(string) string) (Config, error) {
	var errs []error
	missing := func(name string) {
		errs = append(errs, fmt.Errorf("missing required env var %s", name))
	}

	c := Config{
		Port:           envInt(getenv, "PORT", 8080, &errs),
		ReadTimeout:    envDuration(getenv, "HTTP_READ_TIMEOUT", 30*time.Second, &errs),
		WriteTimeout:   envDuration(getenv, "HTTP_WRITE_TIMEOUT", 30*time.Second, &errs),
		JWTSecret:      getenv("JWT_SECRET"),
		AllowedOrigins: splitList(getenv("ALLOWED_ORIGINS")),
		IngestAPIKey:   getenv("INGEST_API_KEY"),
		RecordSource:   strings.ToLower(getenv("RECORD_SOURCE")),
		DatabaseURL:    getenv("DATABASE_URL"),
		MigrateOnStart: getenv("MIGRATE_ON_START") == "true",
		SourceTimeout:  envDuration(getenv, "SOURCE_TIMEOUT", 10*time.Second, &errs),
		RedisURL:       getenv("REDIS_URL"),
		RateLimitRPS:   envFloat(getenv, "RATE_LIMIT_RPS", 10, &errs),
		RateLimitBurst: envInt(getenv, "RATE_LIMIT_BURST", 20, &errs),
	}
	c.AnalyticsServiceURL = getenv("ANALYTICS_SERVICE_URL")

	if c.JWTSecret == "" {
		missing("JWT_SECRET")
	} else if len(c.JWTSecret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 32 characters"))
	}

	if c.RecordSource == "" {
		c.RecordSource = sourcePostgres
	}
	switch c.RecordSource {
	case sourcePostgres:
		if c.DatabaseURL == "" {
			missing("DATABASE_URL")
		}
	case sourceHTTP:
		if c.AnalyticsServiceURL == "" {
			missing("ANALYTICS_SERVICE_URL")
		}
	default:
		errs = append(errs, fmt.Errorf("RECORD_SOURCE must be %q or %q, got %q", sourcePostgres, sourceHTTP, c.RecordSource))
	}

	if endpoint := getenv("S3_ENDPOINT"); endpoint != "" {
		s3 := &storage.S3Config{
			Endpoint:        endpoint,
			AccessKeyID:     getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: getenv("AWS_SECRET_ACCESS_KEY"),
			BucketName:      getenv("BUCKET_NAME"),
			UseSSL:          getenv("S3_USE_SSL") != "false",
		}
		if s3.AccessKeyID == "" {
			missing("AWS_ACCESS_KEY_ID")
		}
		if s3.SecretAccessKey == "" {
			missing("AWS_SECRET_ACCESS_KEY")
		}
		if s3.BucketName == "" {
			missing("BUCKET_NAME")
		}
		c.S3Config = s3
	}

	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive"))
	}

	return c, errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envInt(getenv func(string) string, name string, def int, errs *[]error) int {
	v := getenv(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", name, err))
		return def
	}
	return n
}

func envFloat(getenv func(string) string, name string, def float64, errs *[]error) float64 {
	v := getenv(name)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", name, err))
		return def
	}
	return f
}

func envDuration(getenv func(string) string, name string, def time.Duration, errs *[]error) time.Duration {
	v := getenv(name)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", name, err))
		return def
	}
	return d
}
