package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"
)

const maxLogSize = 10 * 1024 * 1024

var (
	mu      sync.Mutex
	logFile *os.File
	logPath string
)

// Init initializes the bot logger. An empty dir keeps logging on stderr.
func Init(dir string) error {
	mu.Lock()
	defer mu.Unlock()

	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	if dir == "" {
		return nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	path := filepath.Join(dir, "werewolf.log")

	// Rotate if file is too large
	if info, err := os.Stat(path); err == nil && info.Size() > maxLogSize {
		backupPath := filepath.Join(dir, fmt.Sprintf("werewolf.log.%d", time.Now().Unix()))
		_ = os.Rename(path, backupPath)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	logFile = f
	logPath = path
	log.SetOutput(f)

	LogInfo("Logger initialized, log file: %s", logPath)
	return nil
}

// Close closes the log file and restores stderr output
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		log.SetOutput(os.Stderr)
		_ = logFile.Close()
		logFile = nil
	}
}

// LogInfo logs an info message
func LogInfo(format string, args ...any) {
	log.Printf("[INFO] "+format, args...)
}

// LogError logs an error message
func LogError(format string, args ...any) {
	log.Printf("[ERROR] "+format, args...)
}

// LogPanic logs a panic with stack trace
func LogPanic(r any) {
	log.Printf("[PANIC] %v\n%s", r, debug.Stack())
}

// Recover logs a panic in the calling goroutine instead of crashing the bot.
// Use as `defer logger.Recover("what")`.
func Recover(what string) {
	if r := recover(); r != nil {
		LogError("panic in %s", what)
		LogPanic(r)
	}
}

// GetLogPath returns the current log file path, empty when logging to stderr
func GetLogPath() string {
	mu.Lock()
	defer mu.Unlock()
	return logPath
}
