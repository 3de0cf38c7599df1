/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: resolve.go
Description: Resolve command. Applies the harness argument rules (-runs=N, wrapper
placeholders, one-level directory expansion) and prints the outcome as YAML.
*/

package commands

import (
	"fmt"

	"github.com/kleascm/akaylee-driver/pkg/core"
	"github.com/kleascm/akaylee-driver/pkg/input"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Resolution is what a standalone harness would do with its arguments
type Resolution struct {
	Runs    string   `yaml:"runs"`
	MaxLen  int      `yaml:"max_len"`
	Stdin   bool     `yaml:"stdin"`
	Sources []string `yaml:"sources"`
}

// ResolveInputs prints the resolution of args
func ResolveInputs(cmd *cobra.Command, args []string) error {
	settings, err := LoadSettings(cmd)
	if err != nil {
		return err
	}

	logger, err := SetupLogging(cmd, settings)
	if err != nil {
		return err
	}
	defer logger.Close()

	cfg := input.ParseArgs(args, settings.MaxLen)
	sources := input.NewResolver(logger.GetLogger()).Resolve(cfg.Paths)

	res := Resolution{
		Runs:    formatRuns(cfg),
		MaxLen:  cfg.MaxLen,
		Stdin:   len(sources) == 0,
		Sources: sources,
	}

	data, err := yaml.Marshal(&res)
	if err != nil {
		return fmt.Errorf("failed to encode resolution: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func formatRuns(cfg core.RunConfig) string {
	if !cfg.Limited() {
		return "unbounded"
	}
	return fmt.Sprintf("%d", cfg.Runs)
}
