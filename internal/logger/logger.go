// internal/logger/logger.go
package logger

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"sync"

	"k8s.io/klog/v2"
)

// Log levels
const (
	LevelDebug = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	level     = LevelInfo
	mu        sync.RWMutex
	once      sync.Once
	klogFlags = flag.NewFlagSet("klog", flag.ContinueOnError)
)

// Init registers klog flags and routes output to stderr
func Init() {
	once.Do(func() {
		klog.InitFlags(klogFlags)
		_ = klogFlags.Set("logtostderr", "true")
	})
}

// SetOutput sends all log lines to w
func SetOutput(w io.Writer) {
	Init()
	_ = klogFlags.Set("one_output", "true")
	klog.LogToStderr(false)
	klog.SetOutput(w)
}

// SetLevel sets the log level. Debug also raises klog verbosity to 1.
func SetLevel(levelStr string) {
	Init()

	mu.Lock()
	defer mu.Unlock()

	switch strings.ToLower(levelStr) {
	case "debug":
		level = LevelDebug
	case "info":
		level = LevelInfo
	case "warn", "warning":
		level = LevelWarn
	case "error":
		level = LevelError
	default:
		level = LevelInfo
	}

	verbosity := "0"
	if level == LevelDebug {
		verbosity = "1"
	}
	_ = klogFlags.Set("v", verbosity)
}

func enabled(l int) bool {
	mu.RLock()
	defer mu.RUnlock()
	return level <= l
}

// Debug logs a debug message
func Debug(format string, v ...interface{}) {
	if enabled(LevelDebug) {
		klog.V(1).InfoDepth(1, fmt.Sprintf(format, v...))
	}
}

// Info logs an info message
func Info(format string, v ...interface{}) {
	if enabled(LevelInfo) {
		klog.InfoDepth(1, fmt.Sprintf(format, v...))
	}
}

// Warn logs a warning message
func Warn(format string, v ...interface{}) {
	if enabled(LevelWarn) {
		klog.WarningDepth(1, fmt.Sprintf(format, v...))
	}
}

// Error logs an error message
func Error(format string, v ...interface{}) {
	if enabled(LevelError) {
		klog.ErrorDepth(1, fmt.Sprintf(format, v...))
	}
}

// Flush writes any buffered log lines
func Flush() {
	klog.Flush()
}
