/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: interfaces.go
Description: Shared interfaces for the Akaylee Driver. Defines the contract between the
driver and the harness it is linked into (the function under test and its optional
initializer), the fuzzing engines that drive the loop, and reporting hooks. Kept in its
own package to break import cycles between execution, engine and driver.
*/

package interfaces

import (
	"time"
)

// Target is the function under test.
// TestOneInput receives a buffer that is only valid for the duration of the call and
// must tolerate an empty buffer. A fault inside TestOneInput is expected to terminate
// the process; the driver never recovers it.
type Target interface {
	TestOneInput(data []byte) int
}

// TargetFunc adapts a plain function to the Target interface
type TargetFunc func(data []byte) int

// TestOneInput calls f(data)
func (f TargetFunc) TestOneInput(data []byte) int {
	return f(data)
}

// Initializer is implemented by targets that need one-time setup.
// Initialize is called exactly once, before the first TestOneInput call, and may
// rewrite the argument vector the driver parses afterwards.
type Initializer interface {
	Initialize(args *[]string) int
}

// PersistentEngine is an AFL-style persistent loop scheduler
type PersistentEngine interface {
	// ManualInit performs deferred engine initialization before the loop starts
	ManualInit()

	// Loop grants one more iteration; maxIterations is the budget per engine re-entry
	Loop(maxIterations uint) bool
}

// InputIterator is a HonggFuzz-style input source.
// Next returns the next input and true, or nil and false once exhausted.
type InputIterator interface {
	Next() ([]byte, bool)
}

// InvocationRecord describes one completed call into the target
type InvocationRecord struct {
	Source   string        // Path of the input, or "<stdin>" / "<engine>"
	Size     int           // Number of bytes handed to the target
	Result   int           // Value returned by TestOneInput
	Sequence int64         // 1-based invocation number
	Duration time.Duration // Wall time spent inside the target
}

// Reporter receives driver events
type Reporter interface {
	// OnInputExecuted is called after the target returned normally
	OnInputExecuted(record *InvocationRecord)

	// OnInputSkipped is called when an input source could not be loaded
	OnInputSkipped(source string, err error)
}
