/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: runtime.go
Description: The Go runtime as an instrumentation layer. Fatal runtime errors and
unrecovered panics are the Go counterpart of sanitizer reports: they can be duplicated
into a file with debug.SetCrashOutput, and the invoker triggers the death callback when
the target unwinds abnormally.
*/

package sanitizer

import (
	"fmt"
	"os"
	"runtime/debug"
	"sync"
)

// GoRuntime exposes every shim capability on top of the Go runtime
type GoRuntime struct {
	mu      sync.Mutex
	onDeath []func()
}

// NewGoRuntime creates the Go runtime instrumentation
func NewGoRuntime() *GoRuntime {
	return &GoRuntime{}
}

// Name returns "go-runtime"
func (r *GoRuntime) Name() string { return "go-runtime" }

// SetReportPath makes the runtime write a copy of every fatal crash report to path
func (r *GoRuntime) SetReportPath(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open report file: %w", err)
	}
	// SetCrashOutput keeps its own duplicate of the descriptor
	defer f.Close()

	if err := debug.SetCrashOutput(f, debug.CrashOptions{}); err != nil {
		return fmt.Errorf("failed to set crash output: %w", err)
	}
	return nil
}

// SetReportFD routes crash reports to fd. Reports reach stderr by default, so
// only other descriptors are installed.
func (r *GoRuntime) SetReportFD(fd uintptr) error {
	if fd == os.Stderr.Fd() {
		return nil
	}
	f := os.NewFile(fd, fmt.Sprintf("fd%d", fd))
	if f == nil {
		return fmt.Errorf("invalid descriptor %d", fd)
	}
	return debug.SetCrashOutput(f, debug.CrashOptions{})
}

// SetDeathCallback registers fn to run when the target dies
func (r *GoRuntime) SetDeathCallback(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onDeath = append(r.onDeath, fn)
}

// NotifyDeath runs the registered death callbacks in registration order
func (r *GoRuntime) NotifyDeath() {
	r.mu.Lock()
	callbacks := append([]func(){}, r.onDeath...)
	r.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}
