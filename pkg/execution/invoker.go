/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: invoker.go
Description: Test invoker for the Akaylee Driver. Runs the mode-specific loop
(persistent, iterator or standalone one-shot), loads each input through the bounded
loader and hands it to the target, strictly one invocation at a time. Faults raised by
the target are never recovered: the death hook flushes buffered output and the fault
keeps unwinding until it takes the process down.
*/

package execution

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/kleascm/akaylee-driver/pkg/core"
	"github.com/kleascm/akaylee-driver/pkg/input"
	"github.com/kleascm/akaylee-driver/pkg/interfaces"
	"github.com/sirupsen/logrus"
)

// Source names used for inputs that do not come from a file
const (
	SourceStdin  = "<stdin>"
	SourceEngine = "<engine>"
)

// ErrFatalRead is returned when the strict read policy stops a run
var ErrFatalRead = errors.New("fatal read failure")

// State is the invoker's position in the mode state machine
type State int

const (
	StateUninitialized State = iota
	StatePersistentLoop
	StateIteratorLoop
	StateStandaloneOneShot
	StateDone
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StatePersistentLoop:
		return "PersistentLoop"
	case StateIteratorLoop:
		return "IteratorLoop"
	case StateStandaloneOneShot:
		return "StandaloneOneShot"
	case StateDone:
		return "Done"
	default:
		return "Uninitialized"
	}
}

// Invoker owns the execution counter and the persistent buffer
type Invoker struct {
	target    interfaces.Target
	loader    *input.Loader
	reporter  interfaces.Reporter
	logger    logrus.FieldLogger
	stats     *core.RunStats
	progress  *bufio.Writer
	deathHook func()
	state     State

	persistentBuf []byte
}

// NewInvoker creates an invoker for target. Progress lines go to progress.
func NewInvoker(target interfaces.Target, loader *input.Loader, progress io.Writer, logger logrus.FieldLogger) *Invoker {
	if progress == nil {
		progress = io.Discard
	}
	return &Invoker{
		target:    target,
		loader:    loader,
		logger:    logger,
		stats:     &core.RunStats{},
		progress:  bufio.NewWriter(progress),
		deathHook: func() {},
		state:     StateUninitialized,
	}
}

// SetReporter sets the event reporter
func (inv *Invoker) SetReporter(reporter interfaces.Reporter) {
	inv.reporter = reporter
}

// SetDeathHook sets the function run when the target unwinds abnormally
func (inv *Invoker) SetDeathHook(hook func()) {
	if hook == nil {
		hook = func() {}
	}
	inv.deathHook = hook
}

// SetStats replaces the statistics sink
func (inv *Invoker) SetStats(stats *core.RunStats) {
	inv.stats = stats
}

// Stats returns the run statistics
func (inv *Invoker) Stats() *core.RunStats {
	return inv.stats
}

// State returns the current state
func (inv *Invoker) State() State {
	return inv.state
}

// FlushProgress writes buffered progress lines
func (inv *Invoker) FlushProgress() error {
	return inv.progress.Flush()
}

// invoke calls the target once and records the completed invocation
func (inv *Invoker) invoke(source string, data []byte) int {
	completed := false
	defer func() {
		if !completed {
			inv.deathHook()
		}
	}()

	start := time.Now()
	result := inv.target.TestOneInput(data)
	completed = true

	seq := inv.stats.Executions.Increment()
	inv.stats.RecordBytes(len(data))
	if inv.reporter != nil {
		inv.reporter.OnInputExecuted(&interfaces.InvocationRecord{
			Source:   source,
			Size:     len(data),
			Result:   result,
			Sequence: seq,
			Duration: time.Since(start),
		})
	}
	return result
}

// skip records an input that could not be loaded and decides whether the run goes on
func (inv *Invoker) skip(source string, err error) error {
	inv.stats.RecordSkip()
	if inv.reporter != nil {
		inv.reporter.OnInputSkipped(source, err)
	}
	if inv.loader.Fatal(err) {
		return fmt.Errorf("%w: %v", ErrFatalRead, err)
	}
	return nil
}

func (inv *Invoker) finish() {
	inv.state = StateDone
	if err := inv.progress.Flush(); err != nil {
		inv.logger.WithError(err).Warn("Failed to flush progress output")
	}
}

// RunStandalone replays sources in order, or standard input once when sources is empty.
// The -runs cap does not apply to the standard input fallback.
func (inv *Invoker) RunStandalone(cfg core.RunConfig, sources []string, stdin io.Reader) error {
	inv.state = StateStandaloneOneShot
	defer inv.finish()

	inv.stats.Sources = len(sources)

	if len(sources) == 0 {
		data, err := inv.loader.LoadStream(stdin)
		if err != nil {
			return inv.skip(SourceStdin, err)
		}
		inv.invoke(SourceStdin, data)
		return nil
	}

	for _, path := range sources {
		if inv.stats.Executions.Reached(cfg) {
			inv.logger.WithField("runs", cfg.Runs).Debug("Run cap reached")
			break
		}

		data, err := inv.loader.Load(path)
		if err != nil {
			if fatal := inv.skip(path, err); fatal != nil {
				return fatal
			}
			continue
		}

		// Flushed before the call: runtime fatal errors skip the death hook
		fmt.Fprintf(inv.progress, "Testing %s (%d bytes)\n", path, len(data))
		if err := inv.progress.Flush(); err != nil {
			inv.logger.WithError(err).Warn("Failed to flush progress output")
		}
		inv.invoke(path, data)
	}

	return nil
}

// RunPersistent feeds standard input to the target once per engine-granted iteration,
// reusing a single buffer of at most core.PersistentBufferSize bytes
func (inv *Invoker) RunPersistent(engine interfaces.PersistentEngine, iterations uint, stdin io.Reader) error {
	inv.state = StatePersistentLoop
	defer inv.finish()

	if inv.persistentBuf == nil {
		inv.persistentBuf = make([]byte, min(inv.loader.MaxLen, core.PersistentBufferSize))
	}

	engine.ManualInit()
	for engine.Loop(iterations) {
		n, err := input.ReadOnce(stdin, inv.persistentBuf)
		if err != nil {
			if fatal := inv.skip(SourceStdin, err); fatal != nil {
				return fatal
			}
			continue
		}
		inv.invoke(SourceStdin, inv.persistentBuf[:n])
	}

	return nil
}

// RunIterator invokes the target once per input yielded by it.
// Inputs longer than MaxLen are clipped.
func (inv *Invoker) RunIterator(it interfaces.InputIterator) error {
	inv.state = StateIteratorLoop
	defer inv.finish()

	for {
		data, ok := it.Next()
		if !ok {
			return nil
		}
		if len(data) > inv.loader.MaxLen {
			data = data[:inv.loader.MaxLen]
		}
		inv.invoke(SourceEngine, data)
	}
}
