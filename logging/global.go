// Package logging sets up the process-wide slog logger: human readable text
// on the console and JSON lines in weekly rotating files.
package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/giygas/pediatric-drug-calculator/config"
)

type LoggingService struct {
	Logger *slog.Logger
	file   *RotatingFile
}

var (
	DefaultLoggingService *LoggingService
	mu                    sync.Mutex
)

// Options configures InitLogger
type Options struct {
	Dir            string
	Env            config.Environment
	Level          string // LOG_LEVEL, overrides the environment default on the console
	Verbose        bool
	RetentionWeeks int
	MaxFileSize    int64
}

// parseLogLevel maps a LOG_LEVEL value to a slog level, defaulting to info
func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// GetConsoleLogLevel picks the console level. Tests stay quiet unless run
// verbosely and ignore LOG_LEVEL; verbose elsewhere means debug.
func GetConsoleLogLevel(env config.Environment, logLevel string, verbose bool) slog.Level {
	if env == config.EnvTest {
		if verbose {
			return slog.LevelInfo
		}
		return slog.LevelError
	}
	if verbose {
		return slog.LevelDebug
	}
	if logLevel != "" {
		return parseLogLevel(logLevel)
	}
	if env == config.EnvProduction || env == config.EnvStaging {
		return slog.LevelWarn
	}
	return slog.LevelInfo
}

// GetFileLogLevel is the level of the JSON log files; they keep everything
func GetFileLogLevel() slog.Level {
	return slog.LevelDebug
}

// InitLogger replaces the global logger. If the log directory cannot be
// used, logging continues on the console only.
func InitLogger(opts Options) {
	if opts.MaxFileSize == 0 {
		opts.MaxFileSize = defaultMaxFileSize
	}
	if opts.RetentionWeeks <= 0 {
		opts.RetentionWeeks = 4
	}

	console := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: GetConsoleLogLevel(opts.Env, opts.Level, opts.Verbose),
	})

	svc := &LoggingService{}
	file, err := OpenRotatingFile(opts.Dir, opts.RetentionWeeks, opts.MaxFileSize)
	if err != nil {
		svc.Logger = slog.New(console)
		svc.Logger.Error("File logging disabled", "dir", opts.Dir, "error", err)
	} else {
		svc.file = file
		svc.Logger = slog.New(fanoutHandler{
			console,
			slog.NewJSONHandler(file, &slog.HandlerOptions{Level: GetFileLogLevel()}),
		})
	}

	mu.Lock()
	previous := DefaultLoggingService
	DefaultLoggingService = svc
	mu.Unlock()

	slog.SetDefault(svc.Logger)
	if previous != nil && previous.file != nil {
		_ = previous.file.Close()
	}
}

// Close flushes and closes the log file of the global logger
func Close() error {
	mu.Lock()
	svc := DefaultLoggingService
	mu.Unlock()

	if svc == nil || svc.file == nil {
		return nil
	}
	return svc.file.Close()
}

func logger() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		return slog.Default()
	}
	return DefaultLoggingService.Logger
}

// Package-level functions for direct access

func Info(msg string, args ...any) {
	logger().Log(context.Background(), slog.LevelInfo, msg, args...)
}

func Error(msg string, args ...any) {
	logger().Log(context.Background(), slog.LevelError, msg, args...)
}

func Warn(msg string, args ...any) {
	logger().Log(context.Background(), slog.LevelWarn, msg, args...)
}

func Debug(msg string, args ...any) {
	logger().Log(context.Background(), slog.LevelDebug, msg, args...)
}

// Logger returns the global logger, for middleware and libraries
func Logger() *slog.Logger {
	return logger()
}
