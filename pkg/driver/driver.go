/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: driver.go
Description: Process entry point for Akaylee Driver harness binaries. Loads settings,
starts logging, configures the sanitizer shim, runs the harness initializer, resolves the
inputs and dispatches to the execution mode compiled into the binary. The mode is fixed
at build time through build tags (afl, honggfuzz, libfuzzer; standalone otherwise).
*/

package driver

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kleascm/akaylee-driver/pkg/config"
	"github.com/kleascm/akaylee-driver/pkg/core"
	"github.com/kleascm/akaylee-driver/pkg/engine"
	"github.com/kleascm/akaylee-driver/pkg/execution"
	"github.com/kleascm/akaylee-driver/pkg/input"
	"github.com/kleascm/akaylee-driver/pkg/interfaces"
	"github.com/kleascm/akaylee-driver/pkg/logging"
	"github.com/kleascm/akaylee-driver/pkg/sanitizer"
	"github.com/kleascm/akaylee-driver/pkg/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Exit statuses returned by Run
const (
	ExitOK      = 0
	ExitFailure = 1
)

// libFuzzerMismatch is printed when a libFuzzer build is started without libFuzzer
const libFuzzerMismatch = "Error: This binary was built for libFuzzer but is being run directly\n" +
	"Use: ./fuzzer CORPUS_DIR\n"

// BuildMode returns the mode selected by the build tags of this binary
func BuildMode() core.Mode {
	return buildMode
}

// Driver runs one harness. Collaborators default to the real process streams, the
// Go runtime instrumentation and the engines matching the build mode.
type Driver struct {
	target interfaces.Target
	mode   core.Mode

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	engine   interfaces.PersistentEngine
	iterator interfaces.InputIterator
	inst     sanitizer.Instrumentation
	viper    *viper.Viper

	initOnce sync.Once
	stats    *core.RunStats
}

// New creates a driver for target
func New(target interfaces.Target) *Driver {
	return &Driver{
		target: target,
		mode:   BuildMode(),
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		inst:   sanitizer.NewGoRuntime(),
	}
}

// Main runs target with the process arguments and exits with the driver's status.
// It returns only if the target never faults and the run completes.
func Main(target interfaces.Target) {
	os.Exit(New(target).Run(os.Args))
}

// SetMode overrides the build-time mode
func (d *Driver) SetMode(mode core.Mode) {
	d.mode = mode
}

// SetStreams replaces the standard streams; nil keeps the current stream
func (d *Driver) SetStreams(stdin io.Reader, stdout, stderr io.Writer) {
	if stdin != nil {
		d.stdin = stdin
	}
	if stdout != nil {
		d.stdout = stdout
	}
	if stderr != nil {
		d.stderr = stderr
	}
}

// SetPersistentEngine replaces the AFL loop used in persistent mode
func (d *Driver) SetPersistentEngine(engine interfaces.PersistentEngine) {
	d.engine = engine
}

// SetIterator replaces the input iterator used in iterator mode
func (d *Driver) SetIterator(it interfaces.InputIterator) {
	d.iterator = it
}

// SetInstrumentation replaces the fault-detection layer handed to the sanitizer shim
func (d *Driver) SetInstrumentation(inst sanitizer.Instrumentation) {
	d.inst = inst
}

// SetViper sets the viper instance settings are read from
func (d *Driver) SetViper(v *viper.Viper) {
	d.viper = v
}

// Stats returns the statistics of the last run
func (d *Driver) Stats() *core.RunStats {
	return d.stats
}

// Run executes the harness. args is the full argument vector, program name first.
func (d *Driver) Run(args []string) int {
	d.stats = &core.RunStats{
		SessionID: uuid.New().String(),
		Mode:      d.mode.String(),
		StartTime: time.Now(),
	}

	if d.mode == core.ModeLibFuzzer {
		fmt.Fprint(d.stderr, libFuzzerMismatch)
		d.stats.ExitCode = ExitFailure
		return ExitFailure
	}

	v := d.viper
	if v == nil {
		v = config.NewViper()
	}
	settings, err := config.Load(v)
	if err != nil {
		fmt.Fprintf(d.stderr, "Error: invalid driver configuration: %v\n", err)
		d.stats.ExitCode = ExitFailure
		return ExitFailure
	}

	loggerConfig := settings.LoggerConfig()
	loggerConfig.Output = d.stderr
	logger, err := logging.NewLogger(loggerConfig)
	if err != nil {
		fmt.Fprintf(d.stderr, "Error: failed to start logger: %v\n", err)
		d.stats.ExitCode = ExitFailure
		return ExitFailure
	}
	defer logger.Close()
	log := logger.GetLogger().WithField("session", d.stats.SessionID)

	loader := input.NewLoader(settings.MaxLen, settings.ReadPolicy)
	invoker := execution.NewInvoker(d.target, loader, d.stdout, log)
	invoker.SetStats(d.stats)
	invoker.SetReporter(core.NewLoggerReporter(logger, map[string]interface{}{"session": d.stats.SessionID}))

	shim := sanitizer.Configure(d.inst, settings.DuplicateReportPath, log,
		logger,
		sanitizer.FlushFunc(invoker.FlushProgress),
		syncer(d.stdout),
		syncer(d.stderr),
	)
	invoker.SetDeathHook(deathHook(shim))

	d.initialize(&args, log)

	var positional []string
	if len(args) > 1 {
		positional = args[1:]
	}
	cfg := input.ParseArgs(positional, settings.MaxLen)

	log.WithFields(logrus.Fields{
		"mode":            d.mode.String(),
		"max_len":         settings.MaxLen,
		"runs":            cfg.Runs,
		"read_policy":     settings.ReadPolicy,
		"instrumentation": shim.Instrumentation().Name(),
	}).Debug("Driver starting")

	switch d.mode {
	case core.ModePersistent:
		err = invoker.RunPersistent(d.persistentEngine(settings, log), settings.PersistentIterations, d.stdin)
	case core.ModeIterator:
		err = invoker.RunIterator(d.inputIterator(loader.MaxLen, log))
	default:
		sources := input.NewResolver(log).Resolve(cfg.Paths)
		err = invoker.RunStandalone(cfg, sources, d.stdin)
	}

	d.stats.ExitCode = ExitOK
	if err != nil {
		log.WithError(err).Error("Run aborted")
		d.stats.ExitCode = ExitFailure
	}
	d.stats.EndTime = time.Now()

	d.report(settings, logger, log)
	return d.stats.ExitCode
}

// initialize calls the harness initializer at most once per driver
func (d *Driver) initialize(args *[]string, log logrus.FieldLogger) {
	initializer, ok := d.target.(interfaces.Initializer)
	if !ok {
		return
	}
	d.initOnce.Do(func() {
		rc := initializer.Initialize(args)
		log.WithField("result", rc).Debug("Harness initialized")
	})
}

// persistentEngine returns the injected engine or an AFL loop that stops between
// iterations only when AKAYLEE_AFL_PERSISTENT opts in
func (d *Driver) persistentEngine(settings *config.Settings, log logrus.FieldLogger) interfaces.PersistentEngine {
	if d.engine != nil {
		return d.engine
	}
	loop := engine.NewAFLLoop(log)
	loop.SetPersistent(settings.AFLPersistent)
	return loop
}

func (d *Driver) inputIterator(maxLen int, log logrus.FieldLogger) interfaces.InputIterator {
	if d.iterator != nil {
		return d.iterator
	}
	return engine.NewStdinIterator(d.stdin, maxLen, log)
}

// report logs the run summary and writes the summary file when configured
func (d *Driver) report(settings *config.Settings, logger *logging.Logger, log logrus.FieldLogger) {
	summary := d.stats.Snapshot()
	logger.LogStats(summary.Executions, summary.Skipped, summary.BytesFed, map[string]interface{}{
		"session":   summary.SessionID,
		"mode":      summary.Mode,
		"sources":   summary.Sources,
		"exit_code": summary.ExitCode,
	})

	if settings.SummaryDir == "" {
		return
	}
	path, err := utils.WriteRunSummary(settings.SummaryDir, summary.SessionID, settings.SummaryFormat, summary)
	if err != nil {
		log.WithError(err).Warn("Failed to write run summary")
		return
	}
	log.WithField("path", path).Debug("Run summary written")
}

// deathHook returns the function the invoker runs when the target faults. Layers that
// rely on the driver to report death are notified; others handle it themselves.
func deathHook(shim *sanitizer.Shim) func() {
	return func() {
		if n, ok := shim.Instrumentation().(sanitizer.DeathNotifier); ok {
			n.NotifyDeath()
		}
	}
}

// syncer flushes w to stable storage when it is a file
func syncer(w io.Writer) sanitizer.Flusher {
	return sanitizer.FlushFunc(func() error {
		if f, ok := w.(*os.File); ok {
			return f.Sync()
		}
		return nil
	})
}
