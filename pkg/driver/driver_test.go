/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: driver_test.go
Description: End-to-end tests for the driver entry point. Runs real argument vectors
against recording targets with injected streams, engines and environment.
*/

package driver_test

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime/debug"
	"strings"
	"testing"

	"github.com/kleascm/akaylee-driver/pkg/config"
	"github.com/kleascm/akaylee-driver/pkg/core"
	"github.com/kleascm/akaylee-driver/pkg/driver"
	"github.com/kleascm/akaylee-driver/pkg/engine"
	"github.com/kleascm/akaylee-driver/pkg/interfaces"
	"github.com/kleascm/akaylee-driver/pkg/sanitizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fatalHarnessEnv = "AKAYLEE_FATAL_HARNESS"

type recordingTarget struct {
	inputs [][]byte
}

func (t *recordingTarget) TestOneInput(data []byte) int {
	t.inputs = append(t.inputs, append([]byte(nil), data...))
	return 0
}

// initTarget appends extra to the argument vector during initialization
type initTarget struct {
	recordingTarget
	calls int
	extra string
}

func (t *initTarget) Initialize(args *[]string) int {
	t.calls++
	if t.extra != "" {
		*args = append(*args, t.extra)
	}
	return 0
}

type fixedEngine struct {
	grants int
}

func (e *fixedEngine) ManualInit() {}

func (e *fixedEngine) Loop(uint) bool {
	if e.grants == 0 {
		return false
	}
	e.grants--
	return true
}

type harness struct {
	drv    *driver.Driver
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newHarness(target interfaces.Target, stdin string) *harness {
	h := &harness{
		drv:    driver.New(target),
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}
	h.drv.SetMode(core.ModeStandalone)
	h.drv.SetStreams(strings.NewReader(stdin), h.stdout, h.stderr)
	h.drv.SetInstrumentation(sanitizer.Nop{})
	h.drv.SetViper(config.NewViper())
	return h
}

func corpus(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func TestMaxLenFromEnvironment(t *testing.T) {
	t.Setenv(config.EnvMaxLen, "4")
	dir := corpus(t, map[string]string{"ten": "0123456789"})
	path := filepath.Join(dir, "ten")

	target := &recordingTarget{}
	h := newHarness(target, "")

	assert.Equal(t, driver.ExitOK, h.drv.Run([]string{"harness", path}))
	require.Len(t, target.inputs, 1)
	assert.Equal(t, []byte("0123"), target.inputs[0])
	assert.Equal(t, "Testing "+path+" (4 bytes)\n", h.stdout.String())
}

func TestRunsCapUsesFirstSources(t *testing.T) {
	dir := corpus(t, map[string]string{"a": "1", "b": "2", "c": "3", "d": "4", ".hidden": "x"})

	target := &recordingTarget{}
	h := newHarness(target, "")

	assert.Equal(t, driver.ExitOK, h.drv.Run([]string{"harness", "-runs=2", dir}))
	assert.Equal(t, [][]byte{[]byte("1"), []byte("2")}, target.inputs)
	assert.Equal(t, int64(2), h.drv.Stats().Executions.Value())
}

func TestHiddenEntriesNeverInvoked(t *testing.T) {
	dir := corpus(t, map[string]string{"a": "1", "b": "2", ".git": "x", ".swp": "y"})

	target := &recordingTarget{}
	h := newHarness(target, "")

	assert.Equal(t, driver.ExitOK, h.drv.Run([]string{"harness", dir}))
	assert.Len(t, target.inputs, 2)
	assert.NotContains(t, h.stdout.String(), ".git")
	assert.NotContains(t, h.stdout.String(), ".swp")
}

func TestEmptySourceListReadsStdinOnce(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")

	for _, args := range [][]string{
		{"harness"},
		{"harness", "-runs=0"},
		{"harness", "-runs=5", "@@"},
		{"harness", "___FILE___", missing},
	} {
		target := &recordingTarget{}
		h := newHarness(target, "stdin bytes")

		assert.Equal(t, driver.ExitOK, h.drv.Run(args), "args=%v", args)
		require.Len(t, target.inputs, 1, "args=%v", args)
		assert.Equal(t, []byte("stdin bytes"), target.inputs[0])
		assert.Empty(t, h.stdout.String())
	}
}

func TestInitializerRunsOnceBeforeParsing(t *testing.T) {
	dir := corpus(t, map[string]string{"seed": "seeded"})

	target := &initTarget{extra: filepath.Join(dir, "seed")}
	h := newHarness(target, "unused")

	assert.Equal(t, driver.ExitOK, h.drv.Run([]string{"harness"}))
	assert.Equal(t, 1, target.calls)
	require.Len(t, target.inputs, 1)
	assert.Equal(t, []byte("seeded"), target.inputs[0])

	h.drv.SetStreams(strings.NewReader("second"), nil, nil)
	assert.Equal(t, driver.ExitOK, h.drv.Run([]string{"harness"}))
	assert.Equal(t, 1, target.calls)
	assert.Equal(t, []byte("second"), target.inputs[1])
}

func TestReplayIsIdempotent(t *testing.T) {
	dir := corpus(t, map[string]string{"x": "alpha", "y": "", "z": "gamma"})

	first := &recordingTarget{}
	second := &recordingTarget{}
	assert.Equal(t, driver.ExitOK, newHarness(first, "").drv.Run([]string{"harness", dir}))
	assert.Equal(t, driver.ExitOK, newHarness(second, "").drv.Run([]string{"harness", dir}))

	assert.Len(t, first.inputs, 3)
	assert.Equal(t, first.inputs, second.inputs)
}

func TestLibFuzzerMismatch(t *testing.T) {
	target := &recordingTarget{}
	h := newHarness(target, "data")
	h.drv.SetMode(core.ModeLibFuzzer)

	assert.Equal(t, driver.ExitFailure, h.drv.Run([]string{"harness"}))
	assert.Empty(t, target.inputs)
	assert.Contains(t, h.stderr.String(), "Error: This binary was built for libFuzzer but is being run directly")
	assert.Contains(t, h.stderr.String(), "Use: ./fuzzer CORPUS_DIR")
}

func TestPersistentMode(t *testing.T) {
	target := &recordingTarget{}
	h := newHarness(target, "persistent")
	h.drv.SetMode(core.ModePersistent)
	h.drv.SetPersistentEngine(&fixedEngine{grants: 2})

	assert.Equal(t, driver.ExitOK, h.drv.Run([]string{"harness", "-runs=0"}))
	require.Len(t, target.inputs, 2)
	assert.Equal(t, []byte("persistent"), target.inputs[0])
	assert.Empty(t, target.inputs[1])
	assert.Equal(t, "persistent", h.drv.Stats().Mode)
}

func TestPersistentModeOutsideAFL(t *testing.T) {
	target := &recordingTarget{}
	h := newHarness(target, "once")
	h.drv.SetMode(core.ModePersistent)

	loop := engine.NewAFLLoop(nil)
	loop.SetPersistent(false)
	h.drv.SetPersistentEngine(loop)

	assert.Equal(t, driver.ExitOK, h.drv.Run([]string{"harness"}))
	assert.Equal(t, [][]byte{[]byte("once")}, target.inputs)
}

func TestPersistentModeUnderAFLWithoutOptIn(t *testing.T) {
	t.Setenv("__AFL_SHM_ID", "4242")

	target := &recordingTarget{}
	h := newHarness(target, "single")
	h.drv.SetMode(core.ModePersistent)

	assert.Equal(t, driver.ExitOK, h.drv.Run([]string{"harness"}))
	assert.Equal(t, [][]byte{[]byte("single")}, target.inputs)
}

func TestPersistentModeHugeMaxLen(t *testing.T) {
	t.Setenv(config.EnvMaxLen, "9223372036854775807")

	target := &recordingTarget{}
	h := newHarness(target, "tiny")
	h.drv.SetMode(core.ModePersistent)
	h.drv.SetPersistentEngine(&fixedEngine{grants: 1})

	assert.Equal(t, driver.ExitOK, h.drv.Run([]string{"harness"}))
	assert.Equal(t, [][]byte{[]byte("tiny")}, target.inputs)
}

func TestIteratorMode(t *testing.T) {
	target := &recordingTarget{}
	h := newHarness(target, "")
	h.drv.SetMode(core.ModeIterator)
	h.drv.SetIterator(engine.NewSliceIterator([]byte("one"), []byte("two")))

	assert.Equal(t, driver.ExitOK, h.drv.Run([]string{"harness"}))
	assert.Equal(t, [][]byte{[]byte("one"), []byte("two")}, target.inputs)
}

func TestIteratorModeDefaultsToStdin(t *testing.T) {
	target := &recordingTarget{}
	h := newHarness(target, "hf input")
	h.drv.SetMode(core.ModeIterator)

	assert.Equal(t, driver.ExitOK, h.drv.Run([]string{"harness"}))
	assert.Equal(t, [][]byte{[]byte("hf input")}, target.inputs)
}

func TestInvalidConfiguration(t *testing.T) {
	t.Setenv("AKAYLEE_READ_POLICY", "sloppy")

	target := &recordingTarget{}
	h := newHarness(target, "data")

	assert.Equal(t, driver.ExitFailure, h.drv.Run([]string{"harness"}))
	assert.Empty(t, target.inputs)
	assert.Contains(t, h.stderr.String(), "invalid driver configuration")
}

func TestRunSummaryWritten(t *testing.T) {
	summaryDir := t.TempDir()
	t.Setenv("AKAYLEE_SUMMARY_DIR", summaryDir)
	t.Setenv("AKAYLEE_SUMMARY_FORMAT", "yaml")

	h := newHarness(&recordingTarget{}, "abc")
	assert.Equal(t, driver.ExitOK, h.drv.Run([]string{"harness"}))

	files, err := filepath.Glob(filepath.Join(summaryDir, "*.yaml"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Contains(t, filepath.Base(files[0]), h.drv.Stats().SessionID)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "executions: 1")
	assert.Contains(t, string(data), "bytes_fed: 3")
	assert.Contains(t, h.stderr.String(), "Run summary")
}

func TestFaultFlushesProgressAndPropagates(t *testing.T) {
	dir := corpus(t, map[string]string{"1-ok": "fine", "2-bug": "xbugx"})

	target := interfaces.TargetFunc(func(data []byte) int {
		if bytes.Contains(data, []byte("bug")) {
			panic("bug")
		}
		return 0
	})

	h := newHarness(target, "")
	runtime := sanitizer.NewGoRuntime()
	h.drv.SetInstrumentation(runtime)

	assert.Panics(t, func() {
		h.drv.Run([]string{"harness", dir})
	})
	assert.Contains(t, h.stdout.String(), "Testing "+filepath.Join(dir, "1-ok")+" (4 bytes)")
	assert.Contains(t, h.stdout.String(), "Testing "+filepath.Join(dir, "2-bug")+" (5 bytes)")
	assert.Equal(t, int64(1), h.drv.Stats().Executions.Value())
}

func TestBuildModeDefaultsToStandalone(t *testing.T) {
	assert.Equal(t, core.ModeStandalone, driver.BuildMode())
}

// recurse never returns; it grows the stack until the runtime aborts
func recurse(depth int) int {
	var frame [128]byte
	frame[depth%len(frame)] = byte(depth)
	return recurse(depth+1) + int(frame[0])
}

// TestHelperFatalHarness is the body of a child process whose target dies in a
// runtime fatal error, which runs no deferred calls
func TestHelperFatalHarness(t *testing.T) {
	if os.Getenv(fatalHarnessEnv) != "1" {
		t.Skip("helper process only")
	}

	args := []string{"harness"}
	for i, arg := range os.Args {
		if arg == "--" {
			args = append(args, os.Args[i+1:]...)
			break
		}
	}

	debug.SetMaxStack(16 << 20)
	target := interfaces.TargetFunc(func(data []byte) int {
		if bytes.Equal(data, []byte("deep")) {
			return recurse(0)
		}
		return 0
	})

	d := driver.New(target)
	d.SetMode(core.ModeStandalone)
	os.Exit(d.Run(args))
}

func TestFatalErrorKeepsProgressLines(t *testing.T) {
	if testing.Short() {
		t.Skip("spawns a child process")
	}

	dir := corpus(t, map[string]string{"a_ok": "fine", "b_crash": "deep"})

	var stdout, stderr bytes.Buffer
	cmd := exec.Command(os.Args[0], "-test.run=^TestHelperFatalHarness$", "--", dir)
	cmd.Env = append(os.Environ(), fatalHarnessEnv+"=1")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()

	var exitErr *exec.ExitError
	require.True(t, errors.As(err, &exitErr), "err=%v stderr=%s", err, stderr.String())
	assert.NotEqual(t, 0, exitErr.ExitCode())
	assert.Contains(t, stderr.String(), "stack overflow")

	assert.Contains(t, stdout.String(), "Testing "+filepath.Join(dir, "a_ok")+" (4 bytes)\n")
	assert.Contains(t, stdout.String(), "Testing "+filepath.Join(dir, "b_crash")+" (4 bytes)\n")
}
