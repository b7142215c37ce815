package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"photomap/internal/config"
)

const (
	logLevelEnvKey  = "PHOTOMAP_LOG_LEVEL"
	logFormatEnvKey = "PHOTOMAP_LOG_FORMAT"

	logFormatText = "text"
	logFormatJSON = "json"
)

// levelChoice records which layer supplied the log level so a bad value
// can be reported against the right knob.
type levelChoice struct {
	raw    string
	origin string
}

// Flag beats env beats config file.
func chooseLogLevel(flagLevel, envLevel, configLevel string) levelChoice {
	for _, c := range []levelChoice{
		{raw: flagLevel, origin: "--log-level"},
		{raw: envLevel, origin: logLevelEnvKey},
		{raw: configLevel, origin: "log_level"},
	} {
		if strings.TrimSpace(c.raw) != "" {
			return c
		}
	}
	return levelChoice{origin: "default"}
}

// configureLoggerForCLI installs the process-wide logger. An invalid flag is
// an error; invalid env or config values fall back to the default level and
// produce a warning line for stderr.
func configureLoggerForCLI(flagLevel, configLevel string) (string, error) {
	choice := chooseLogLevel(flagLevel, os.Getenv(logLevelEnvKey), configLevel)
	logFormat := logFormatFromEnv()

	level, err := parseLogLevel(choice.raw)
	if err == nil {
		slog.SetDefault(newLogger(os.Stderr, level, logFormat))
		return "", nil
	}
	if choice.origin == "--log-level" {
		return "", fmt.Errorf("invalid --log-level %q", flagLevel)
	}

	fallback, _ := parseLogLevel("")
	slog.SetDefault(newLogger(os.Stderr, fallback, logFormat))
	return fmt.Sprintf("warning: invalid %s=%q; defaulting to %s", choice.origin, choice.raw, config.DefaultLogLevel), nil
}

func parseLogLevel(raw string) (slog.Level, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch value {
	case "":
		value = config.DefaultLogLevel
	case "warning":
		value = "warn"
	}

	if numeric, err := strconv.Atoi(value); err == nil {
		return slog.Level(numeric), nil
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", raw)
	}
	return level, nil
}

// logFormatFromEnv selects text output unless json is asked for.
func logFormatFromEnv() string {
	if strings.EqualFold(strings.TrimSpace(os.Getenv(logFormatEnvKey)), logFormatJSON) {
		return logFormatJSON
	}
	return logFormatText
}

func newLogger(w io.Writer, level slog.Level, logFormat string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if logFormat == logFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
