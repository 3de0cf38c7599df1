/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: afl.go
Description: AFL persistent-mode loop for Go harnesses. Mirrors the semantics of
__afl_persistent_loop: the first call arms the iteration budget and returns true. When
persistence is switched on every further call stops the process until a supervisor
resumes it, until the budget is spent. Otherwise the loop runs exactly once per process.
A Go binary carries no fork server, so afl-fuzz alone never resumes a stopped harness
and persistence stays off unless the caller enables it.
*/

package engine

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// aflShmEnv is exported by afl-fuzz to every target it launches
const aflShmEnv = "__AFL_SHM_ID"

// AFLLoop implements interfaces.PersistentEngine
type AFLLoop struct {
	persistent bool
	firstPass  bool
	cycles     uint
	stop       func() error
	logger     logrus.FieldLogger
}

// NewAFLLoop creates a loop that runs one iteration per process
func NewAFLLoop(logger logrus.FieldLogger) *AFLLoop {
	if logger == nil {
		logger = discardLogger()
	}
	return &AFLLoop{
		firstPass: true,
		stop:      stopSelf,
		logger:    logger,
	}
}

// SetPersistent enables stopping between iterations
func (l *AFLLoop) SetPersistent(persistent bool) {
	l.persistent = persistent
}

// SetStopFunc replaces the handshake used between iterations
func (l *AFLLoop) SetStopFunc(stop func() error) {
	l.stop = stop
}

// ManualInit marks the point where a fork server would start. Go harnesses are not
// forked by the driver, so this only records the decision.
func (l *AFLLoop) ManualInit() {
	_, underAFL := os.LookupEnv(aflShmEnv)
	l.logger.WithFields(logrus.Fields{
		"persistent": l.persistent,
		"under_afl":  underAFL,
	}).Debug("AFL manual init")
}

// Loop grants the next iteration
func (l *AFLLoop) Loop(maxIterations uint) bool {
	if l.firstPass {
		l.firstPass = false
		l.cycles = maxIterations
		return l.cycles > 0
	}

	if !l.persistent {
		return false
	}

	if l.cycles > 0 {
		l.cycles--
	}
	if l.cycles == 0 {
		return false
	}

	if err := l.stop(); err != nil {
		l.logger.WithError(err).Error("Failed to hand control back to the supervisor")
		return false
	}
	return true
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
