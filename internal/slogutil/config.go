package slogutil

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/javi11/remotefile/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

type ReplaceAttrFunc func(groups []string, a slog.Attr) slog.Attr

type Config struct {
	Level       slog.Leveler
	ReplaceAttr ReplaceAttrFunc
	Hooks       []Hook
	AddSource   bool
	Writer      io.Writer
}

var defaultConfig = Config{
	Level: defaultLevel(),
}

func mergeConfig(config ...Config) Config {
	if len(config) == 0 {
		return defaultConfig
	}

	cfg := config[0]

	if cfg.Level == nil {
		cfg.Level = defaultConfig.Level
	}

	return cfg
}

func defaultLevel() slog.Leveler {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		return ParseLevel(v)
	}

	return slog.LevelInfo
}

// ParseLevel maps a configured level name to a slog level. Unknown names
// fall back to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogWriter returns the destination described by logConfig: stderr, and when
// a log file is configured, also a lumberjack rotating file.
func LogWriter(logConfig config.LogConfig) io.Writer {
	var writer io.Writer = os.Stderr

	if logConfig.File != "" {
		fileWriter := &lumberjack.Logger{
			Filename:   logConfig.File,
			MaxSize:    logConfig.MaxSize,    // MB
			MaxBackups: logConfig.MaxBackups, // number of old files
			MaxAge:     logConfig.MaxAge,     // days
			Compress:   logConfig.Compress,   // compress old files
		}
		writer = io.MultiWriter(os.Stderr, fileWriter)
	}

	return writer
}

// SetupLogRotation configures slog with log rotation using lumberjack.
// If logConfig.File is empty, it logs to the console only.
// The returned leveler controls the level of the logger afterwards.
func SetupLogRotation(logConfig config.LogConfig) (*slog.Logger, *DynamicLeveler) {
	level := logConfig.Level
	if level == "" {
		level = "info"
	}

	leveler := NewDynamicLeveler(ParseLevel(level))

	handler := NewHandler(Config{
		Level:  leveler,
		Writer: LogWriter(logConfig),
	})

	return slog.New(handler), leveler
}

// LevelUpdater returns a config change callback that applies log.level
// changes to leveler.
func LevelUpdater(leveler *DynamicLeveler) config.ChangeCallback {
	return func(oldConfig, newConfig *config.Config) {
		if newConfig == nil {
			return
		}
		if oldConfig != nil && oldConfig.Log.Level == newConfig.Log.Level {
			return
		}
		leveler.SetLevel(ParseLevel(newConfig.Log.Level))
	}
}
