/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: reporter.go
Description: Reporter implementation for the Akaylee Driver. Forwards invocation and
skip events to the driver's asynchronous logger so every input handed to the target
leaves a trace tagged with the run's fields.
*/

package core

import (
	"time"

	"github.com/kleascm/akaylee-driver/pkg/interfaces"
)

// EventLogger receives driver events. logging.Logger implements it.
type EventLogger interface {
	LogExecution(source string, size int, duration time.Duration, fields map[string]interface{})
	LogSkip(source string, err error, fields map[string]interface{})
}

// LoggerReporter logs driver events through an EventLogger
type LoggerReporter struct {
	logger EventLogger
	fields map[string]interface{}
}

// NewLoggerReporter creates a reporter that adds fields to every event
func NewLoggerReporter(logger EventLogger, fields map[string]interface{}) *LoggerReporter {
	return &LoggerReporter{logger: logger, fields: fields}
}

// OnInputExecuted logs a completed invocation
func (r *LoggerReporter) OnInputExecuted(record *interfaces.InvocationRecord) {
	fields := r.eventFields()
	fields["result"] = record.Result
	fields["sequence"] = record.Sequence
	r.logger.LogExecution(record.Source, record.Size, record.Duration, fields)
}

// OnInputSkipped logs an input that could not be loaded
func (r *LoggerReporter) OnInputSkipped(source string, err error) {
	r.logger.LogSkip(source, err, r.eventFields())
}

// eventFields copies the base fields; the logger writes into the map it is given
func (r *LoggerReporter) eventFields() map[string]interface{} {
	fields := make(map[string]interface{}, len(r.fields)+2)
	for k, v := range r.fields {
		fields[k] = v
	}
	return fields
}
