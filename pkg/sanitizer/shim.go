/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: shim.go
Description: Sanitizer integration shim. Configures fault reporting of whatever
instrumentation layer the binary runs under before the first test invocation:
duplicate reports to a file, flush buffered output when the process dies, and route
reports to stderr. Every capability is optional; a missing one is skipped silently.
*/

package sanitizer

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Instrumentation is a fault-detection layer. Its capabilities are discovered
// through the optional interfaces below.
type Instrumentation interface {
	Name() string
}

// ReportPathSetter duplicates fault reports into a file
type ReportPathSetter interface {
	SetReportPath(path string) error
}

// DeathCallbackSetter runs a callback before the process terminates abnormally
type DeathCallbackSetter interface {
	SetDeathCallback(fn func())
}

// ReportFDSetter routes fault reports to an open descriptor
type ReportFDSetter interface {
	SetReportFD(fd uintptr) error
}

// DeathNotifier is implemented by layers whose death callbacks are triggered by the
// driver itself rather than by a signal handler
type DeathNotifier interface {
	NotifyDeath()
}

// Flusher is buffered output that must reach its destination before the process dies
type Flusher interface {
	Flush() error
}

// FlushFunc adapts a function to Flusher
type FlushFunc func() error

// Flush calls f
func (f FlushFunc) Flush() error { return f() }

// Shim is the process-wide reporting configuration. It is set up once and never reverted.
type Shim struct {
	inst     Instrumentation
	flushers []Flusher
	once     sync.Once

	ReportPath     string // Duplicate report file, empty when not installed
	DeathCallback  bool   // Whether the death callback was installed
	ReportToStderr bool   // Whether reports were routed to stderr
}

// Configure applies the reporting configuration to inst.
// duplicatePath comes from AFL_DRIVER_STDERR_DUPLICATE_FILENAME and may be empty.
func Configure(inst Instrumentation, duplicatePath string, logger logrus.FieldLogger, flushers ...Flusher) *Shim {
	if inst == nil {
		inst = Nop{}
	}
	s := &Shim{inst: inst, flushers: flushers}
	log := logger.WithField("instrumentation", inst.Name())

	if duplicatePath != "" {
		if setter, ok := inst.(ReportPathSetter); ok {
			if err := setter.SetReportPath(duplicatePath); err != nil {
				log.WithError(err).WithField("path", duplicatePath).Warn("Failed to install duplicate report path")
			} else {
				s.ReportPath = duplicatePath
			}
		}
	}

	if setter, ok := inst.(DeathCallbackSetter); ok {
		setter.SetDeathCallback(s.Die)
		s.DeathCallback = true
	}

	// A duplicate path already keeps stderr as the primary destination
	if s.ReportPath == "" {
		if setter, ok := inst.(ReportFDSetter); ok {
			if err := setter.SetReportFD(os.Stderr.Fd()); err != nil {
				log.WithError(err).Warn("Failed to route reports to stderr")
			} else {
				s.ReportToStderr = true
			}
		}
	}

	log.WithFields(logrus.Fields{
		"report_path":      s.ReportPath,
		"death_callback":   s.DeathCallback,
		"report_to_stderr": s.ReportToStderr,
	}).Debug("Sanitizer shim configured")

	return s
}

// Die flushes all registered output. Only the first call has an effect.
func (s *Shim) Die() {
	s.once.Do(func() {
		for _, f := range s.flushers {
			_ = f.Flush()
		}
	})
}

// Instrumentation returns the layer the shim was configured for
func (s *Shim) Instrumentation() Instrumentation {
	return s.inst
}

// Nop is the inert instrumentation used when no fault-detection layer is present
type Nop struct{}

// Name returns "none"
func (Nop) Name() string { return "none" }

// Capabilities lists the optional reporting hooks inst provides
func Capabilities(inst Instrumentation) []string {
	var caps []string
	if _, ok := inst.(ReportPathSetter); ok {
		caps = append(caps, "report-path")
	}
	if _, ok := inst.(DeathCallbackSetter); ok {
		caps = append(caps, "death-callback")
	}
	if _, ok := inst.(ReportFDSetter); ok {
		caps = append(caps, "report-fd")
	}
	return caps
}
