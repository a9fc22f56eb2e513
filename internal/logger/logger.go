package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// FileTimeLayout formats the {current_dt} placeholder of log file names.
const FileTimeLayout = "20060102150405"

var (
	mu      sync.Mutex
	base    zerolog.Logger
	ready   bool
	logFile *os.File
)

// Options configures the global logger.
//
// Fields:
//   - Level: debug|info|warn|error, case-insensitive (default: info).
//   - Pretty: human readable console output instead of JSON.
//   - Dir, Name: optional log file; Name may contain {current_dt}.
type Options struct {
	Level  string
	Pretty bool
	Dir    string
	Name   string
}

// Init configures the global JSON logger from the environment.
//
// Environment variables (optional):
//   - LOG_LEVEL: debug|info|warn|error (default: info)
//   - LOG_PRETTY: true|false (default: false)
func Init() {
	_ = Setup(Options{
		Level:  getenv("LOG_LEVEL", "info"),
		Pretty: strings.EqualFold(getenv("LOG_PRETTY", "false"), "true"),
	})
}

// Setup configures the global logger. When a log file is requested, every
// event is written to stdout and to the file. A previously opened file is closed.
func Setup(opts Options) error {
	mu.Lock()
	defer mu.Unlock()

	zerolog.TimeFieldFormat = time.RFC3339Nano

	var w io.Writer = os.Stdout
	if opts.Pretty {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	closeFile()
	if opts.Name != "" {
		path := FilePath(opts.Dir, opts.Name, time.Now())
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create log dir: %w", err)
			}
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		logFile = f
		w = zerolog.MultiLevelWriter(w, f)
	}

	base = zerolog.New(w).With().Timestamp().Logger().Level(parseLevel(opts.Level))
	ready = true
	return nil
}

// Close flushes and closes the log file opened by Setup, if any.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	closeFile()
}

func closeFile() {
	if logFile != nil {
		_ = logFile.Sync()
		_ = logFile.Close()
		logFile = nil
	}
}

// FilePath resolves the log file path, expanding {current_dt} with now.
func FilePath(dir, name string, now time.Time) string {
	name = strings.ReplaceAll(name, "{current_dt}", now.Format(FileTimeLayout))
	return filepath.Join(dir, name)
}

// L returns the global logger. Init is called on first use when nothing was configured.
func L() *zerolog.Logger {
	mu.Lock()
	initialized := ready
	mu.Unlock()
	if !initialized {
		Init()
	}
	return &base
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error", "err":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
