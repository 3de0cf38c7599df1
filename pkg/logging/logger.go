/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: logger.go
Description: Logging system for the Akaylee Driver. Structured logrus logging to stderr
(stdout belongs to the target and to progress lines), an optional timestamped log file,
and an asynchronous queue that can be drained on demand so nothing is lost when the
target takes the process down.
*/

package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
)

// LogLevel represents the logging level
type LogLevel string

const (
	LogLevelDebug   LogLevel = "debug"
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warn"
	LogLevelError   LogLevel = "error"
)

// LogFormat represents the logging format
type LogFormat string

const (
	LogFormatJSON   LogFormat = "json"
	LogFormatText   LogFormat = "text"
	LogFormatCustom LogFormat = "custom"
)

const logFilePattern = "akaylee-driver_*.log"

// LoggerConfig holds the configuration for the logger
type LoggerConfig struct {
	Level     LogLevel  `json:"level"`
	Format    LogFormat `json:"format"`
	OutputDir string    `json:"output_dir"` // Empty disables the log file
	MaxFiles  int       `json:"max_files"`
	Timestamp bool      `json:"timestamp"`
	Caller    bool      `json:"caller"`
	Colors    bool      `json:"colors"`

	Output io.Writer `json:"-"` // Console destination, stderr when nil
}

// DefaultLoggerConfig returns the configuration used when none is given
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{
		Level:     LogLevelInfo,
		Format:    LogFormatCustom,
		MaxFiles:  10,
		Timestamp: true,
	}
}

// Validate checks the LoggerConfig for invalid values.
func (c *LoggerConfig) Validate() error {
	if c.OutputDir != "" && c.MaxFiles <= 0 {
		return fmt.Errorf("max_files must be positive")
	}
	switch c.Format {
	case LogFormatJSON, LogFormatText, LogFormatCustom:
		// ok
	default:
		return fmt.Errorf("unsupported log format: %s", c.Format)
	}
	switch c.Level {
	case LogLevelDebug, LogLevelInfo, LogLevelWarning, LogLevelError:
		// ok
	default:
		return fmt.Errorf("unsupported log level: %s", c.Level)
	}
	return nil
}

type logEntry struct {
	level  logrus.Level
	msg    string
	fields logrus.Fields
	flush  chan struct{}
}

// Logger wraps logrus with an async queue and driver-specific helpers
type Logger struct {
	config     *LoggerConfig
	logger     *logrus.Logger
	fileHandle *os.File
	logFile    string
	startTime  time.Time

	logQueue chan logEntry
	quit     chan struct{}
	done     chan struct{}
}

// NewLogger creates a new logger instance
func NewLogger(config *LoggerConfig) (*Logger, error) {
	if config == nil {
		config = DefaultLoggerConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logger config: %w", err)
	}

	l := &Logger{
		config:    config,
		logger:    logrus.New(),
		startTime: time.Now(),
		logQueue:  make(chan logEntry, 1024),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}

	if err := l.setup(); err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}

	go l.runLogQueue()

	return l, nil
}

// setup configures the logger with the given configuration
func (l *Logger) setup() error {
	level, err := logrus.ParseLevel(string(l.config.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.logger.SetLevel(level)
	l.logger.SetReportCaller(l.config.Caller)

	if err := l.setFormatter(); err != nil {
		return err
	}

	console := l.config.Output
	if console == nil {
		console = os.Stderr
	}
	l.logger.SetOutput(console)

	return l.setupFileOutput(console)
}

// setFormatter configures the log formatter
func (l *Logger) setFormatter() error {
	callerPrettyfier := func(f *runtime.Frame) (string, string) {
		return "", fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
	}

	switch l.config.Format {
	case LogFormatJSON:
		l.logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat:  time.RFC3339,
			CallerPrettyfier: callerPrettyfier,
		})

	case LogFormatText:
		l.logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:    l.config.Timestamp,
			TimestampFormat:  time.RFC3339,
			ForceColors:      l.config.Colors,
			DisableColors:    !l.config.Colors,
			CallerPrettyfier: callerPrettyfier,
		})

	case LogFormatCustom:
		l.logger.SetFormatter(&CustomFormatter{
			Timestamp: l.config.Timestamp,
			Caller:    l.config.Caller,
			Colors:    l.config.Colors,
		})

	default:
		return fmt.Errorf("unsupported log format: %s", l.config.Format)
	}

	return nil
}

// setupFileOutput adds a timestamped log file next to the console output
func (l *Logger) setupFileOutput(console io.Writer) error {
	if l.config.OutputDir == "" {
		return nil
	}

	if err := os.MkdirAll(l.config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := fmt.Sprintf("akaylee-driver_%s_%d.log", timestamp, os.Getpid())
	path := filepath.Join(l.config.OutputDir, filename)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	l.fileHandle = file
	l.logFile = path
	l.logger.SetOutput(io.MultiWriter(console, file))

	l.logger.WithFields(logrus.Fields{
		"start_time": l.startTime.Format(time.RFC3339),
		"log_file":   path,
		"level":      l.config.Level,
		"format":     l.config.Format,
	}).Debug("Akaylee Driver logging initialized")

	return nil
}

// cleanup removes the oldest log files beyond MaxFiles
func (l *Logger) cleanup() error {
	if l.config.OutputDir == "" {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(l.config.OutputDir, logFilePattern))
	if err != nil {
		return err
	}

	if len(files) <= l.config.MaxFiles {
		return nil
	}

	modTimes := make(map[string]time.Time, len(files))
	for _, f := range files {
		if stat, err := os.Stat(f); err == nil {
			modTimes[f] = stat.ModTime()
		}
	}
	sort.Slice(files, func(i, j int) bool {
		return modTimes[files[i]].Before(modTimes[files[j]])
	})

	for _, f := range files[:len(files)-l.config.MaxFiles] {
		os.Remove(f)
	}

	return nil
}

// runLogQueue writes queued entries in the background
func (l *Logger) runLogQueue() {
	defer close(l.done)
	for {
		select {
		case entry := <-l.logQueue:
			l.write(entry)
		case <-l.quit:
			l.drain()
			return
		}
	}
}

func (l *Logger) write(entry logEntry) {
	if entry.flush != nil {
		close(entry.flush)
		return
	}
	l.logger.WithFields(entry.fields).Log(entry.level, entry.msg)
}

func (l *Logger) drain() {
	for {
		select {
		case entry := <-l.logQueue:
			l.write(entry)
		default:
			return
		}
	}
}

func (l *Logger) enqueue(entry logEntry) {
	// Closed loggers write synchronously
	select {
	case <-l.done:
		l.write(entry)
		return
	default:
	}
	select {
	case l.logQueue <- entry:
	case <-l.done:
		l.write(entry)
	}
}

// Flush blocks until every entry queued before the call has been written
func (l *Logger) Flush() error {
	select {
	case <-l.done:
		return nil
	default:
	}

	ack := make(chan struct{})
	select {
	case l.logQueue <- logEntry{flush: ack}:
	case <-l.done:
		return nil
	}
	select {
	case <-ack:
	case <-l.done:
	}

	if l.fileHandle != nil {
		return l.fileHandle.Sync()
	}
	return nil
}

// Driver-specific logging methods

// LogExecution logs one invocation of the target
func (l *Logger) LogExecution(source string, size int, duration time.Duration, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields["source"] = source
	fields["size"] = size
	fields["duration"] = duration

	l.Debug("Input executed", fields)
}

// LogSkip logs an input that was not handed to the target
func (l *Logger) LogSkip(source string, err error, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields["source"] = source
	if err != nil {
		fields["error"] = err.Error()
	}

	l.Warning("Input skipped", fields)
}

// LogStats logs the run summary
func (l *Logger) LogStats(executions int64, skipped int64, bytesFed int64, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields["executions"] = executions
	fields["skipped"] = skipped
	fields["bytes_fed"] = bytesFed
	fields["uptime"] = time.Since(l.startTime)

	l.Info("Run summary", fields)
}

// Close drains the queue, closes the log file and prunes old log files
func (l *Logger) Close() error {
	select {
	case <-l.quit:
		return nil
	default:
		close(l.quit)
	}
	<-l.done

	if l.fileHandle != nil {
		l.fileHandle.Close()
	}

	if err := l.cleanup(); err != nil {
		return fmt.Errorf("failed to cleanup log files: %w", err)
	}

	return nil
}

// GetLogger returns the underlying logrus logger
func (l *Logger) GetLogger() *logrus.Logger {
	return l.logger
}

// LogFile returns the path of the current log file, if any
func (l *Logger) LogFile() string {
	return l.logFile
}

// Debug logs a debug message (async)
func (l *Logger) Debug(msg string, fields map[string]interface{}) {
	l.enqueue(logEntry{level: logrus.DebugLevel, msg: msg, fields: fields})
}

// Info logs an info message (async)
func (l *Logger) Info(msg string, fields map[string]interface{}) {
	l.enqueue(logEntry{level: logrus.InfoLevel, msg: msg, fields: fields})
}

// Warning logs a warning message (async)
func (l *Logger) Warning(msg string, fields map[string]interface{}) {
	l.enqueue(logEntry{level: logrus.WarnLevel, msg: msg, fields: fields})
}

// Error logs an error message (async)
func (l *Logger) Error(msg string, fields map[string]interface{}) {
	l.enqueue(logEntry{level: logrus.ErrorLevel, msg: msg, fields: fields})
}
