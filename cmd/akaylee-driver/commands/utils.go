/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: utils.go
Description: Shared utilities for the Akaylee Driver commands. Loads driver settings
with command-line overrides and sets up logging to the command's error stream.
*/

package commands

import (
	"fmt"

	"github.com/kleascm/akaylee-driver/pkg/config"
	"github.com/kleascm/akaylee-driver/pkg/logging"
	"github.com/spf13/cobra"
)

// LoadSettings reads the driver settings, letting root flags override the environment
func LoadSettings(cmd *cobra.Command) (*config.Settings, error) {
	v := config.NewViper()

	flags := cmd.Root().PersistentFlags()
	if f := flags.Lookup("config"); f != nil && f.Changed {
		v.Set("config", f.Value.String())
	}
	if f := flags.Lookup("log-level"); f != nil && f.Changed {
		v.Set("log_level", f.Value.String())
	}

	settings, err := config.Load(v)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return settings, nil
}

// SetupLogging starts a logger writing to the command's error stream
func SetupLogging(cmd *cobra.Command, settings *config.Settings) (*logging.Logger, error) {
	cfg := settings.LoggerConfig()
	cfg.Output = cmd.ErrOrStderr()

	logger, err := logging.NewLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}
	return logger, nil
}
