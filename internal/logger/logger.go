// Package logger provides centralized logging for gemichat.
// It configures a charmbracelet/log logger shared by every component.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// Logger is the global logger instance used throughout gemichat.
var Logger *log.Logger

// logFile is the file opened by the last Configure call, if any.
var logFile *os.File

func init() {
	Logger = newLogger(os.Stderr, log.InfoLevel)
}

// Options controls where and how much the logger writes.
type Options struct {
	Level    string // debug|info|warn|error|fatal, empty falls back to GEMICHAT_LOG_LEVEL
	File     string // append to this file instead of stderr
	TestMode bool   // deterministic output for tests
	Quiet    bool   // discard output unless File is set (used while the TUI owns the terminal)
}

// Configure sets up the logger based on CLI flags and environment variables.
// CLI flags take precedence over environment variables. A log file opened by an
// earlier call is closed.
func Configure(opts Options) error {
	level := opts.Level
	if level == "" {
		level = strings.ToLower(os.Getenv("GEMICHAT_LOG_LEVEL"))
	}
	if level == "" {
		level = "info"
	}

	var output io.Writer = os.Stderr
	var file *os.File
	switch {
	case opts.File != "":
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return err
		}
		file, output = f, f
	case opts.Quiet:
		output = io.Discard
	}

	parsed := parseLogLevel(level)
	if opts.TestMode {
		parsed = log.InfoLevel
	}
	Logger = newLogger(output, parsed)

	if logFile != nil {
		_ = logFile.Close()
	}
	logFile = file
	return nil
}

func newLogger(w io.Writer, level log.Level) *log.Logger {
	l := log.New(w)
	l.SetTimeFormat("")
	l.SetLevel(level)
	l.SetStyles(styles())
	return l
}

// styles highlights the keys the request path logs most.
func styles() *log.Styles {
	s := log.DefaultStyles()
	s.Keys["route"] = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	s.Keys["status"] = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	s.Keys["error"] = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	s.Values["error"] = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	s.Values["phase"] = lipgloss.NewStyle().Bold(true)
	return s
}

// Component returns a logger that prefixes every line with name. It shares the
// destination and level of the global logger at the time of the call.
func Component(name string) *log.Logger {
	return Logger.WithPrefix(name)
}

// parseLogLevel converts string to log level
func parseLogLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

// Debug logs a debug message with optional key-value pairs.
func Debug(msg interface{}, keyvals ...interface{}) {
	Logger.Debug(msg, keyvals...)
}

// Info logs an info message with optional key-value pairs.
func Info(msg interface{}, keyvals ...interface{}) {
	Logger.Info(msg, keyvals...)
}

// Warn logs a warning message with optional key-value pairs.
func Warn(msg interface{}, keyvals ...interface{}) {
	Logger.Warn(msg, keyvals...)
}

// Error logs an error message with optional key-value pairs.
func Error(msg interface{}, keyvals ...interface{}) {
	Logger.Error(msg, keyvals...)
}

// RequestLifecycle logs a gateway request transition for debugging.
func RequestLifecycle(l *log.Logger, route string, phase string, details ...interface{}) {
	l.Debug("Request lifecycle", append([]interface{}{"route", route, "phase", phase}, details...)...)
}
