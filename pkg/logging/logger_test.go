/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: logger_test.go
Description: Tests for the logging system. Covers configuration validation, output
formats, flushing of the async queue, log files and cleanup of old files.
*/

package logging_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/kleascm/akaylee-driver/pkg/logging"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoggerCreation tests logger creation with default and custom configurations
func TestLoggerCreation(t *testing.T) {
	logger, err := logging.NewLogger(nil)
	require.NoError(t, err)
	assert.NotNil(t, logger)
	require.NoError(t, logger.Close())

	var out bytes.Buffer
	logger, err = logging.NewLogger(&logging.LoggerConfig{
		Level:     logging.LogLevelDebug,
		Format:    logging.LogFormatJSON,
		OutputDir: t.TempDir(),
		MaxFiles:  5,
		Output:    &out,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, logger.LogFile())
	require.NoError(t, logger.Close())
}

// TestLoggerConfigValidation tests rejection of bad configurations
func TestLoggerConfigValidation(t *testing.T) {
	_, err := logging.NewLogger(&logging.LoggerConfig{Level: "loud", Format: logging.LogFormatText})
	assert.Error(t, err)

	_, err = logging.NewLogger(&logging.LoggerConfig{Level: logging.LogLevelInfo, Format: "xml"})
	assert.Error(t, err)

	_, err = logging.NewLogger(&logging.LoggerConfig{
		Level:     logging.LogLevelInfo,
		Format:    logging.LogFormatText,
		OutputDir: t.TempDir(),
		MaxFiles:  0,
	})
	assert.Error(t, err)
}

// TestLogFormats tests every output format through the async queue
func TestLogFormats(t *testing.T) {
	formats := []logging.LogFormat{
		logging.LogFormatText,
		logging.LogFormatJSON,
		logging.LogFormatCustom,
	}

	for _, format := range formats {
		t.Run(string(format), func(t *testing.T) {
			var out bytes.Buffer
			logger, err := logging.NewLogger(&logging.LoggerConfig{
				Level:  logging.LogLevelInfo,
				Format: format,
				Output: &out,
			})
			require.NoError(t, err)
			defer logger.Close()

			logger.Info("Test message", map[string]interface{}{
				"test_key": "test_value",
				"number":   42,
			})
			require.NoError(t, logger.Flush())

			assert.Contains(t, out.String(), "Test message")
			assert.Contains(t, out.String(), "test_value")
		})
	}
}

// TestLogLevels tests that entries below the configured level are dropped
func TestLogLevels(t *testing.T) {
	var out bytes.Buffer
	logger, err := logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.LogLevelWarning,
		Format: logging.LogFormatCustom,
		Output: &out,
	})
	require.NoError(t, err)
	defer logger.Close()

	logger.Debug("debug message", nil)
	logger.Info("info message", nil)
	logger.Warning("warning message", nil)
	logger.Error("error message", nil)
	require.NoError(t, logger.Flush())

	assert.NotContains(t, out.String(), "debug message")
	assert.NotContains(t, out.String(), "info message")
	assert.Contains(t, out.String(), "WARNING warning message")
	assert.Contains(t, out.String(), "ERROR error message")
}

// TestDriverSpecificLogging tests the driver helpers and their event tags
func TestDriverSpecificLogging(t *testing.T) {
	var out bytes.Buffer
	logger, err := logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.LogLevelDebug,
		Format: logging.LogFormatCustom,
		Output: &out,
	})
	require.NoError(t, err)
	defer logger.Close()

	logger.LogExecution("corpus/a", 12, 3*time.Millisecond, nil)
	logger.LogSkip("corpus/missing", errors.New("no such file"), nil)
	logger.LogStats(7, 1, 84, map[string]interface{}{"mode": "standalone"})
	require.NoError(t, logger.Flush())

	text := out.String()
	assert.Contains(t, text, "[EXEC] Input executed")
	assert.Contains(t, text, "source=corpus/a")
	assert.Contains(t, text, "[SKIP] Input skipped")
	assert.Contains(t, text, "error=no such file")
	assert.Contains(t, text, "[STATS] Run summary")
	assert.Contains(t, text, "executions=7")
}

// TestWriteAfterClose tests that a closed logger still writes synchronously
func TestWriteAfterClose(t *testing.T) {
	var out bytes.Buffer
	logger, err := logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.LogLevelInfo,
		Format: logging.LogFormatText,
		Output: &out,
	})
	require.NoError(t, err)
	require.NoError(t, logger.Close())
	require.NoError(t, logger.Close())

	logger.Info("late message", nil)
	require.NoError(t, logger.Flush())
	assert.Contains(t, out.String(), "late message")
}

// TestLogFileCleanup tests that Close keeps only MaxFiles log files
func TestLogFileCleanup(t *testing.T) {
	logDir := t.TempDir()
	old := []string{
		"akaylee-driver_2024-01-01_10-00-00_1.log",
		"akaylee-driver_2024-01-01_11-00-00_1.log",
		"akaylee-driver_2024-01-01_12-00-00_1.log",
	}
	for i, name := range old {
		path := filepath.Join(logDir, name)
		require.NoError(t, os.WriteFile(path, []byte("old"), 0644))
		mtime := time.Now().Add(-time.Duration(len(old)-i) * time.Hour)
		require.NoError(t, os.Chtimes(path, mtime, mtime))
	}

	logger, err := logging.NewLogger(&logging.LoggerConfig{
		Level:     logging.LogLevelInfo,
		Format:    logging.LogFormatText,
		OutputDir: logDir,
		MaxFiles:  2,
		Output:    &bytes.Buffer{},
	})
	require.NoError(t, err)
	current := logger.LogFile()
	require.NoError(t, logger.Close())

	files, err := filepath.Glob(filepath.Join(logDir, "akaylee-driver_*.log"))
	require.NoError(t, err)
	assert.Len(t, files, 2)
	assert.Contains(t, files, current)
	assert.NotContains(t, files, filepath.Join(logDir, old[0]))
}

// TestCustomFormatter tests the formatter directly
func TestCustomFormatter(t *testing.T) {
	formatter := &logging.CustomFormatter{}
	entry := &logrus.Entry{
		Logger:  logrus.New(),
		Level:   logrus.InfoLevel,
		Message: "Sanitizer shim configured",
		Data: logrus.Fields{
			"zeta":  1,
			"alpha": []byte{0x01, 0x02},
			"delay": 2 * time.Second,
		},
	}

	out, err := formatter.Format(entry)
	require.NoError(t, err)
	assert.Equal(t, "INFO [SHIM] Sanitizer shim configured alpha=0102 delay=2s zeta=1\n", string(out))
}

// TestCustomFormatterTruncatesOnRuneBoundary tests long multibyte field values
func TestCustomFormatterTruncatesOnRuneBoundary(t *testing.T) {
	formatter := &logging.CustomFormatter{}
	short := strings.Repeat("a", 80)
	long := strings.Repeat("a", 79) + "é" + "tail"

	for _, tc := range []struct {
		value string
		want  string
	}{
		{short, short},
		{long, strings.Repeat("a", 79) + "..."},
		{strings.Repeat("日", 30), strings.Repeat("日", 26) + "..."},
	} {
		entry := &logrus.Entry{
			Logger:  logrus.New(),
			Level:   logrus.InfoLevel,
			Message: "Resolved",
			Data:    logrus.Fields{"path": tc.value},
		}

		out, err := formatter.Format(entry)
		require.NoError(t, err)
		assert.True(t, utf8.Valid(out))
		assert.Equal(t, "INFO Resolved path="+tc.want+"\n", string(out))
	}
}
