// Command weather-sim runs the station services against the simulated
// board on a development host.
//
// Flag defaults can come from the environment or a .env file in the
// working directory (WEATHER_LOG_LEVEL, WEATHER_DEVICE).
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	dotenv "github.com/joho/godotenv"
	"github.com/lmittmann/tint"
)

const appName = "weather-sim"

func main() {
	if err := dotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("failed to load .env file: %v", err)
	}
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// envDefault returns $key, or def when unset or blank.
func envDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func newLogger(level slog.Level, jsonLogs bool) *slog.Logger {
	if jsonLogs {
		h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
		return slog.New(h).With("app", appName)
	}
	h := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		AddSource:  true,
		TimeFormat: time.Kitchen,
	})
	return slog.New(h).With("app", appName)
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q (allowed: debug, info, warn, error)", s)
	}
}
