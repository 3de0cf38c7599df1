/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: check.go
Description: Self-check command. Validates the settings a harness would load, reports
the build mode and the instrumentation capabilities, and probes every output
destination the driver may write to.
*/

package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/kleascm/akaylee-driver/pkg/config"
	"github.com/kleascm/akaylee-driver/pkg/sanitizer"
	"github.com/spf13/cobra"
)

// PerformSelfCheck validates the driver environment
func PerformSelfCheck(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "🔍 Akaylee Driver - Environment Self-Check")
	fmt.Fprintln(out, "==========================================")
	fmt.Fprintln(out)

	settings, err := LoadSettings(cmd)
	if err != nil {
		fmt.Fprintf(out, "🔍 Configuration... ❌ FAILED: %v\n", err)
		return err
	}
	fmt.Fprintln(out, "🔍 Configuration... ✅ PASSED")

	logger, err := SetupLogging(cmd, settings)
	if err != nil {
		return err
	}
	defer logger.Close()

	inst := sanitizer.NewGoRuntime()
	caps := sanitizer.Capabilities(inst)

	fmt.Fprintf(out, "   max_len:         %d\n", settings.MaxLen)
	fmt.Fprintf(out, "   read_policy:     %s\n", settings.ReadPolicy)
	fmt.Fprintf(out, "   iterations:      %d\n", settings.PersistentIterations)
	fmt.Fprintf(out, "   afl_persistent:  %t\n", settings.AFLPersistent)
	fmt.Fprintf(out, "   instrumentation: %s (%s)\n", inst.Name(), strings.Join(caps, ", "))
	fmt.Fprintln(out)

	checks := []struct {
		name     string
		function func(*config.Settings) error
	}{
		{"Duplicate Report Path", checkDuplicateReportPath},
		{"Log Directory", checkLogDirectory},
		{"Summary Directory", checkSummaryDirectory},
	}

	passed := 0
	total := len(checks)

	for _, check := range checks {
		fmt.Fprintf(out, "🔍 %s... ", check.name)
		if err := check.function(settings); err != nil {
			fmt.Fprintf(out, "❌ FAILED: %v\n", err)
			logger.Warning("Self-check failed", map[string]interface{}{
				"check": check.name,
				"error": err.Error(),
			})
		} else {
			fmt.Fprintln(out, "✅ PASSED")
			passed++
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "📊 Results: %d/%d checks passed\n", passed, total)

	if passed == total {
		fmt.Fprintln(out, "✨ All checks passed! Harnesses built with this driver are ready to run.")
		return nil
	}
	fmt.Fprintln(out, "⚠️  Some checks failed. Please address the issues before fuzzing.")
	return fmt.Errorf("%d/%d checks failed", total-passed, total)
}

// checkDuplicateReportPath makes sure crash reports can be duplicated where requested
func checkDuplicateReportPath(settings *config.Settings) error {
	if settings.DuplicateReportPath == "" {
		return nil
	}
	f, err := os.OpenFile(settings.DuplicateReportPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("cannot open %s: %w", settings.DuplicateReportPath, err)
	}
	return f.Close()
}

func checkLogDirectory(settings *config.Settings) error {
	return checkWritableDir(settings.LogDir)
}

func checkSummaryDirectory(settings *config.Settings) error {
	return checkWritableDir(settings.SummaryDir)
}

// checkWritableDir creates dir if needed and writes a probe file into it
func checkWritableDir(dir string) error {
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("cannot create %s: %w", dir, err)
	}
	probe, err := os.CreateTemp(dir, ".akaylee-check-*")
	if err != nil {
		return fmt.Errorf("cannot write to %s: %w", dir, err)
	}
	probe.Close()
	return os.Remove(probe.Name())
}
