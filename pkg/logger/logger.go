// Package logger wraps the standard library logger with an optional rotating
// file sink and a bounded ring buffer of recent lines, so a failed bulk query
// can attach its own tail of log output to its diagnostics without the
// caller needing to scrape a log file.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Logger struct {
	*log.Logger
	fileLogger *lumberjack.Logger
	mu         sync.Mutex
	buffer     []string
	maxBuffer  int
}

// Config controls the optional rotating file sink (github.com/natefinch/lumberjack).
type Config struct {
	Enabled    bool
	FilePath   string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

// New returns a stdout-only logger, for callers (tests, one-shot CLI runs)
// that don't need file rotation.
func New() *Logger {
	return &Logger{
		Logger:    log.New(os.Stdout, "", 0),
		buffer:    make([]string, 0, 1000),
		maxBuffer: 1000,
	}
}

// NewWithConfig returns a logger that writes to stdout and, if cfg enables
// it, a rotating file.
func NewWithConfig(cfg *Config) *Logger {
	writers := []io.Writer{os.Stdout}

	var fileLogger *lumberjack.Logger
	if cfg != nil && cfg.Enabled && cfg.FilePath != "" {
		fileLogger = &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		writers = append(writers, fileLogger)
	}

	return &Logger{
		Logger:     log.New(io.MultiWriter(writers...), "", 0),
		fileLogger: fileLogger,
		buffer:     make([]string, 0, 1000),
		maxBuffer:  1000,
	}
}

func (l *Logger) log(level, format string, args ...any) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	line := fmt.Sprintf("[%s] %s: %s", timestamp, level, fmt.Sprintf(format, args...))

	l.mu.Lock()
	l.buffer = append(l.buffer, line)
	if len(l.buffer) > l.maxBuffer {
		l.buffer = l.buffer[len(l.buffer)-l.maxBuffer:]
	}
	l.mu.Unlock()

	l.Printf("%s", line)
}

func (l *Logger) Info(format string, args ...any)  { l.log("INFO", format, args...) }
func (l *Logger) Warn(format string, args ...any)  { l.log("WARN", format, args...) }
func (l *Logger) Error(format string, args ...any) { l.log("ERROR", format, args...) }
func (l *Logger) Debug(format string, args ...any) { l.log("DEBUG", format, args...) }

func (l *Logger) Fatal(format string, args ...any) {
	l.log("FATAL", format, args...)
	os.Exit(1)
}

// RecentLogs returns a copy of the buffered recent lines, for attaching to a
// query's diagnostics.
func (l *Logger) RecentLogs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.buffer))
	copy(out, l.buffer)
	return out
}

func (l *Logger) Close() error {
	if l.fileLogger != nil {
		return l.fileLogger.Close()
	}
	return nil
}

func (l *Logger) LogFilePath() string {
	if l.fileLogger != nil {
		return l.fileLogger.Filename
	}
	return ""
}
