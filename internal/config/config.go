package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"invex/internal"
)

const dateLayout = "2006-01-02"

type Config struct {
	SourceDir   string
	DestDir     string
	ReportDir   string
	FilterMode  string
	FilterValue string
	MatchUnit   string
	Overwrite   bool
	DateFrom    string
	DateTo      string

	DBPath     string
	RawMailDir string
	LogLevel   string

	GmailClientID     string
	GmailClientSecret string
	GmailRedirectURI  string
	GmailRefreshToken string

	IMAPHost     string
	IMAPPort     int
	IMAPSecure   bool
	IMAPUser     string
	IMAPPassword string
	IMAPMarkSeen bool

	WatchMailProvider    string
	WatchMailLabel       string
	WatchMailIntervalSec int
	WatchMailFetchMax    int
	WatchDebounceMs      int
	WatchAutoReport      bool
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		SourceDir:   getEnv("SOURCE_DIR", ""),
		DestDir:     getEnv("DEST_DIR", filepath.Join(cwd, "out")),
		ReportDir:   getEnv("REPORT_DIR", filepath.Join(cwd, "out", "reports")),
		FilterMode:  getEnv("FILTER_MODE", string(internal.FilterByName)),
		FilterValue: getEnv("FILTER_VALUE", ""),
		MatchUnit:   getEnv("MATCH_UNIT", string(internal.UnitInvoice)),
		Overwrite:   getEnvBool("OVERWRITE", false),
		DateFrom:    getEnv("DATE_FROM", ""),
		DateTo:      getEnv("DATE_TO", ""),

		DBPath:     getEnv("DB_PATH", filepath.Join(cwd, "data", "invex.db")),
		RawMailDir: getEnv("MAIL_RAW_DIR", filepath.Join(cwd, "data", "raw")),
		LogLevel:   getEnv("LOG_LEVEL", "info"),

		GmailClientID:     getEnv("GMAIL_CLIENT_ID", ""),
		GmailClientSecret: getEnv("GMAIL_CLIENT_SECRET", ""),
		GmailRedirectURI:  getEnv("GMAIL_REDIRECT_URI", "https://developers.google.com/oauthplayground"),
		GmailRefreshToken: getEnv("GMAIL_REFRESH_TOKEN", ""),

		IMAPHost:     getEnv("IMAP_HOST", ""),
		IMAPPort:     getEnvInt("IMAP_PORT", 993),
		IMAPSecure:   getEnvBool("IMAP_SECURE", true),
		IMAPUser:     getEnv("IMAP_USER", ""),
		IMAPPassword: getEnv("IMAP_PASSWORD", ""),
		IMAPMarkSeen: getEnvBool("IMAP_MARK_SEEN", false),

		WatchMailProvider:    getEnv("WATCH_MAIL_PROVIDER", ""),
		WatchMailLabel:       getEnv("WATCH_MAIL_LABEL", "INBOX"),
		WatchMailIntervalSec: getEnvInt("WATCH_MAIL_INTERVAL_SEC", 300),
		WatchMailFetchMax:    getEnvInt("WATCH_MAIL_FETCH_MAX", 20),
		WatchDebounceMs:      getEnvInt("WATCH_DEBOUNCE_MS", 1500),
		WatchAutoReport:      getEnvBool("WATCH_AUTO_REPORT", false),
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

// FilterSpec builds the run filter from FILTER_MODE, FILTER_VALUE and the
// optional DATE_FROM/DATE_TO pair. A single bound leaves the other side open.
func (c Config) FilterSpec() (internal.FilterSpec, error) {
	spec := internal.FilterSpec{
		Mode:        internal.FilterMode(strings.ToLower(strings.TrimSpace(c.FilterMode))),
		SearchValue: strings.TrimSpace(c.FilterValue),
	}

	from := strings.TrimSpace(c.DateFrom)
	to := strings.TrimSpace(c.DateTo)
	if from == "" && to == "" {
		return spec, nil
	}

	rng := &internal.DateRange{
		From: time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC),
	}
	if from != "" {
		parsed, err := time.Parse(dateLayout, from)
		if err != nil {
			return internal.FilterSpec{}, fmt.Errorf("invalid DATE_FROM %q: %w", from, err)
		}
		rng.From = parsed
	}
	if to != "" {
		parsed, err := time.Parse(dateLayout, to)
		if err != nil {
			return internal.FilterSpec{}, fmt.Errorf("invalid DATE_TO %q: %w", to, err)
		}
		rng.To = parsed
	}
	spec.DateFilter = rng
	return spec, nil
}

func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
