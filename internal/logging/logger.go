// Package logging provides categorized file-based logging for moodscope.
// Logs are written under <logs dir>/ with one file per category per day.
// When logging is not initialized (the default for library consumers and
// tests), every call is a no-op.
package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Category represents a log category/subsystem.
type Category string

const (
	CategoryBoot      Category = "boot"      // Startup, config load
	CategoryDataset   Category = "dataset"   // Record extraction, splitting
	CategoryEncoder   Category = "encoder"   // Text encoder backends
	CategoryStore     Category = "store"     // Embedding cache
	CategoryTrainer   Category = "trainer"   // Training loop, evaluation
	CategoryThreshold Category = "threshold" // Threshold calibration
	CategoryInference Category = "inference" // Engine load, predict
)

// Log levels.
const (
	LevelDebug = 0
	LevelInfo  = 1
	LevelWarn  = 2
	LevelError = 3
)

// Logger wraps a standard logger with category and file output.
type Logger struct {
	category Category
	logger   *log.Logger
	file     *os.File
}

var (
	loggers   = make(map[Category]*Logger)
	loggersMu sync.RWMutex
	logsDir   string
	logLevel  = LevelInfo
)

// Initialize sets up the logging directory and level. Call once at startup;
// if never called, all loggers are no-ops.
func Initialize(dir, level string) error {
	if dir == "" {
		return fmt.Errorf("logs directory required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	loggersMu.Lock()
	logsDir = dir
	switch level {
	case "debug":
		logLevel = LevelDebug
	case "info", "":
		logLevel = LevelInfo
	case "warn", "warning":
		logLevel = LevelWarn
	case "error":
		logLevel = LevelError
	default:
		loggersMu.Unlock()
		return fmt.Errorf("unknown log level %q", level)
	}
	loggersMu.Unlock()

	Get(CategoryBoot).Info("moodscope logging initialized: dir=%s level=%s", dir, level)
	return nil
}

// Get returns (or creates) a logger for the given category.
// Returns a no-op logger if logging is not initialized.
func Get(category Category) *Logger {
	loggersMu.RLock()
	dir := logsDir
	if l, ok := loggers[category]; ok {
		loggersMu.RUnlock()
		return l
	}
	loggersMu.RUnlock()

	if dir == "" {
		return &Logger{category: category}
	}

	loggersMu.Lock()
	defer loggersMu.Unlock()

	if l, ok := loggers[category]; ok {
		return l
	}

	// Date prefix keeps rotation a matter of deleting old files.
	date := time.Now().Format("2006-01-02")
	logPath := filepath.Join(dir, fmt.Sprintf("%s_%s.log", date, category))

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[logging] Warning: could not open log file %s: %v\n", logPath, err)
		return &Logger{category: category}
	}

	l := &Logger{
		category: category,
		file:     file,
		logger:   log.New(file, "", log.Ldate|log.Ltime|log.Lmicroseconds),
	}
	loggers[category] = l
	return l
}

// Debug logs a debug message (only if level <= debug).
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.logger == nil || logLevel > LevelDebug {
		return
	}
	l.logger.Printf("[DEBUG] %s", fmt.Sprintf(format, args...))
}

// Info logs an informational message (only if level <= info).
func (l *Logger) Info(format string, args ...interface{}) {
	if l.logger == nil || logLevel > LevelInfo {
		return
	}
	l.logger.Printf("[INFO] %s", fmt.Sprintf(format, args...))
}

// Warn logs a warning message (only if level <= warn).
func (l *Logger) Warn(format string, args ...interface{}) {
	if l.logger == nil || logLevel > LevelWarn {
		return
	}
	l.logger.Printf("[WARN] %s", fmt.Sprintf(format, args...))
}

// Error logs an error message (always logged if logger exists).
func (l *Logger) Error(format string, args ...interface{}) {
	if l.logger == nil {
		return
	}
	l.logger.Printf("[ERROR] %s", fmt.Sprintf(format, args...))
}

// CloseAll closes all open log files (call at shutdown).
func CloseAll() {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	for _, l := range loggers {
		if l.file != nil {
			l.file.Close()
		}
	}
	loggers = make(map[Category]*Logger)
	logsDir = ""
}

// =============================================================================
// CONVENIENCE FUNCTIONS - Quick logging without getting a logger first
// =============================================================================

// Dataset logs to the dataset category.
func Dataset(format string, args ...interface{}) {
	Get(CategoryDataset).Info(format, args...)
}

// DatasetDebug logs debug to the dataset category.
func DatasetDebug(format string, args ...interface{}) {
	Get(CategoryDataset).Debug(format, args...)
}

// DatasetWarn logs warning to the dataset category.
func DatasetWarn(format string, args ...interface{}) {
	Get(CategoryDataset).Warn(format, args...)
}

// Encoder logs to the encoder category.
func Encoder(format string, args ...interface{}) {
	Get(CategoryEncoder).Info(format, args...)
}

// EncoderDebug logs debug to the encoder category.
func EncoderDebug(format string, args ...interface{}) {
	Get(CategoryEncoder).Debug(format, args...)
}

// Store logs to the store category.
func Store(format string, args ...interface{}) {
	Get(CategoryStore).Info(format, args...)
}

// StoreDebug logs debug to the store category.
func StoreDebug(format string, args ...interface{}) {
	Get(CategoryStore).Debug(format, args...)
}

// Trainer logs to the trainer category.
func Trainer(format string, args ...interface{}) {
	Get(CategoryTrainer).Info(format, args...)
}

// TrainerDebug logs debug to the trainer category.
func TrainerDebug(format string, args ...interface{}) {
	Get(CategoryTrainer).Debug(format, args...)
}

// TrainerWarn logs warning to the trainer category.
func TrainerWarn(format string, args ...interface{}) {
	Get(CategoryTrainer).Warn(format, args...)
}

// Threshold logs to the threshold category.
func Threshold(format string, args ...interface{}) {
	Get(CategoryThreshold).Info(format, args...)
}

// ThresholdDebug logs debug to the threshold category.
func ThresholdDebug(format string, args ...interface{}) {
	Get(CategoryThreshold).Debug(format, args...)
}

// Inference logs to the inference category.
func Inference(format string, args ...interface{}) {
	Get(CategoryInference).Info(format, args...)
}

// InferenceDebug logs debug to the inference category.
func InferenceDebug(format string, args ...interface{}) {
	Get(CategoryInference).Debug(format, args...)
}

// InferenceError logs error to the inference category.
func InferenceError(format string, args ...interface{}) {
	Get(CategoryInference).Error(format, args...)
}

// =============================================================================
// TIMING HELPERS - For performance logging
// =============================================================================

// Timer helps measure operation duration.
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation.
func StartTimer(category Category, operation string) *Timer {
	return &Timer{category: category, op: operation, start: time.Now()}
}

// Stop ends the timer and logs the duration at debug level.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithInfo ends the timer and logs at info level.
func (t *Timer) StopWithInfo() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Info("%s completed in %v", t.op, elapsed)
	return elapsed
}
