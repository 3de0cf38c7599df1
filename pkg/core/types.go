/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: types.go
Description: Core types for the Akaylee Driver. Defines execution modes, read-error
policies, the immutable run configuration, the invocation counter and run statistics
shared by the invoker, the driver entry point and the summary writer.
*/

package core

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

// DefaultMaxLen is the input ceiling used when AFL_DRIVER_MAX_LEN is unset
const DefaultMaxLen = 1 << 20

// MaxLenCeiling is the largest accepted AFL_DRIVER_MAX_LEN
const MaxLenCeiling = 1<<31 - 1

// PersistentBufferSize caps the reusable persistent-mode buffer
const PersistentBufferSize = DefaultMaxLen

// DefaultPersistentIterations is the persistent-loop budget per engine re-entry
const DefaultPersistentIterations = 1000

// Unbounded marks a RunConfig without a -runs cap
const Unbounded = -1

// Mode is the execution mode compiled into a driver binary
type Mode int

const (
	ModeUninitialized Mode = iota
	ModeStandalone
	ModePersistent
	ModeIterator
	ModeLibFuzzer
)

// String returns the mode name used in logs and summaries
func (m Mode) String() string {
	switch m {
	case ModeStandalone:
		return "standalone"
	case ModePersistent:
		return "persistent"
	case ModeIterator:
		return "iterator"
	case ModeLibFuzzer:
		return "libfuzzer"
	default:
		return "uninitialized"
	}
}

// ReadPolicy decides what a read failure on an open input means
type ReadPolicy string

const (
	// ReadPolicyLenient treats a read failure like a missing file: skip and continue
	ReadPolicyLenient ReadPolicy = "lenient"
	// ReadPolicyStrict stops the run with a non-zero exit status
	ReadPolicyStrict ReadPolicy = "strict"
)

// ParseReadPolicy parses a policy name, case-insensitively
func ParseReadPolicy(s string) (ReadPolicy, error) {
	switch ReadPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", ReadPolicyLenient:
		return ReadPolicyLenient, nil
	case ReadPolicyStrict:
		return ReadPolicyStrict, nil
	default:
		return "", fmt.Errorf("unsupported read policy: %s", s)
	}
}

// RunConfig is parsed once at startup and never modified afterwards
type RunConfig struct {
	Runs   int      `json:"runs" yaml:"runs"`       // Invocation cap, Unbounded when negative
	MaxLen int      `json:"max_len" yaml:"max_len"` // Byte ceiling for every buffer
	Paths  []string `json:"paths" yaml:"paths"`     // Positional arguments before expansion
}

// Limited reports whether a -runs cap is in effect
func (c RunConfig) Limited() bool {
	return c.Runs >= 0
}

// ExecutionCounter counts completed invocations
type ExecutionCounter struct {
	n atomic.Int64
}

// Increment records one completed invocation and returns the new count
func (c *ExecutionCounter) Increment() int64 {
	return c.n.Add(1)
}

// Value returns the number of completed invocations
func (c *ExecutionCounter) Value() int64 {
	return c.n.Load()
}

// Reached reports whether the counter hit the cap of cfg
func (c *ExecutionCounter) Reached(cfg RunConfig) bool {
	return cfg.Limited() && c.Value() >= int64(cfg.Runs)
}

// RunStats tracks what happened during one driver run
type RunStats struct {
	SessionID string
	Mode      string
	Sources   int
	Skipped   int64
	BytesFed  int64
	StartTime time.Time
	EndTime   time.Time
	ExitCode  int

	Executions ExecutionCounter
}

// RecordSkip counts an input that could not be loaded
func (s *RunStats) RecordSkip() {
	atomic.AddInt64(&s.Skipped, 1)
}

// RecordBytes adds n to the number of bytes handed to the target
func (s *RunStats) RecordBytes(n int) {
	atomic.AddInt64(&s.BytesFed, int64(n))
}

// Summary is the serializable view of RunStats
type Summary struct {
	SessionID  string        `json:"session_id" yaml:"session_id"`
	Mode       string        `json:"mode" yaml:"mode"`
	Sources    int           `json:"sources" yaml:"sources"`
	Executions int64         `json:"executions" yaml:"executions"`
	Skipped    int64         `json:"skipped" yaml:"skipped"`
	BytesFed   int64         `json:"bytes_fed" yaml:"bytes_fed"`
	StartTime  time.Time     `json:"start_time" yaml:"start_time"`
	Duration   time.Duration `json:"duration" yaml:"duration"`
	ExitCode   int           `json:"exit_code" yaml:"exit_code"`
}

// Snapshot returns a copy suitable for reporting
func (s *RunStats) Snapshot() Summary {
	end := s.EndTime
	if end.IsZero() {
		end = time.Now()
	}
	return Summary{
		SessionID:  s.SessionID,
		Mode:       s.Mode,
		Sources:    s.Sources,
		Executions: s.Executions.Value(),
		Skipped:    atomic.LoadInt64(&s.Skipped),
		BytesFed:   atomic.LoadInt64(&s.BytesFed),
		StartTime:  s.StartTime,
		Duration:   end.Sub(s.StartTime),
		ExitCode:   s.ExitCode,
	}
}
