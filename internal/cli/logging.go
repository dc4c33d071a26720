package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

const logLevelEnv = "AGENTBOARD_LOG_LEVEL"

// initLogging installs a text slog handler on w. An empty level falls back
// to AGENTBOARD_LOG_LEVEL, then to info.
func initLogging(level string, w io.Writer) error {
	if strings.TrimSpace(level) == "" {
		level = os.Getenv(logLevelEnv)
	}
	lvl, err := parseLevel(level)
	if err != nil {
		return err
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl, AddSource: lvl <= slog.LevelDebug})
	slog.SetDefault(slog.New(handler))
	return nil
}

func parseLevel(level string) (slog.Level, error) {
	level = strings.TrimSpace(level)
	if level == "" {
		return slog.LevelInfo, nil
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", level)
	}
	return lvl, nil
}
