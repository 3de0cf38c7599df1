/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: config.go
Description: Driver settings for the Akaylee Driver. Reads the AFL driver knobs and the
Akaylee-specific options from the environment and an optional configuration file using
viper. Environment values override the file; invalid numeric overrides are ignored the
way the classic drivers ignore them.
*/

package config

import (
	"fmt"
	"strings"

	"github.com/kleascm/akaylee-driver/pkg/core"
	"github.com/kleascm/akaylee-driver/pkg/logging"
	"github.com/kleascm/akaylee-driver/pkg/utils"
	"github.com/spf13/viper"
)

// Environment variables understood by the driver
const (
	EnvMaxLen             = "AFL_DRIVER_MAX_LEN"
	EnvDuplicateReport    = "AFL_DRIVER_STDERR_DUPLICATE_FILENAME"
	EnvConfigFile         = "AKAYLEE_CONFIG"
	EnvPrefix             = "AKAYLEE"
	keyMaxLen             = "max_len"
	keyDuplicateReport    = "duplicate_report_path"
	keyLogLevel           = "log_level"
	keyLogFormat          = "log_format"
	keyLogDir             = "log_dir"
	keyLogColors          = "log_colors"
	keyReadPolicy         = "read_policy"
	keyPersistentIters    = "persistent_iterations"
	keyAFLPersistent      = "afl_persistent"
	keySummaryDir         = "summary_dir"
	keySummaryFormat      = "summary_format"
	defaultLogMaxFiles    = 10
	defaultLogLevel       = "info"
	defaultLogFormat      = "custom"
	defaultSummaryFormat  = "json"
	defaultReadPolicyName = "lenient"
)

// Settings is the validated driver configuration
type Settings struct {
	MaxLen               int                 `json:"max_len"`
	DuplicateReportPath  string              `json:"duplicate_report_path"`
	LogLevel             logging.LogLevel    `json:"log_level"`
	LogFormat            logging.LogFormat   `json:"log_format"`
	LogDir               string              `json:"log_dir"`
	LogColors            bool                `json:"log_colors"`
	ReadPolicy           core.ReadPolicy     `json:"read_policy"`
	PersistentIterations uint                `json:"persistent_iterations"`
	AFLPersistent        bool                `json:"afl_persistent"`
	SummaryDir           string              `json:"summary_dir"`
	SummaryFormat        utils.SummaryFormat `json:"summary_format"`
	ConfigFile           string              `json:"config_file,omitempty"`
}

// NewViper returns a viper instance bound to the driver's environment variables
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The AFL knobs keep their historical names
	_ = v.BindEnv(keyMaxLen, EnvMaxLen)
	_ = v.BindEnv(keyDuplicateReport, EnvDuplicateReport)

	v.SetDefault(keyLogLevel, defaultLogLevel)
	v.SetDefault(keyLogFormat, defaultLogFormat)
	v.SetDefault(keyLogColors, false)
	v.SetDefault(keyReadPolicy, defaultReadPolicyName)
	v.SetDefault(keyAFLPersistent, false)
	v.SetDefault(keySummaryFormat, defaultSummaryFormat)

	return v
}

// Load reads the settings. The config file named by AKAYLEE_CONFIG, when set, is read first.
func Load(v *viper.Viper) (*Settings, error) {
	if v == nil {
		v = NewViper()
	}

	configFile := v.GetString("config")
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	policy, err := core.ParseReadPolicy(v.GetString(keyReadPolicy))
	if err != nil {
		return nil, err
	}

	summaryFormat, err := utils.ParseSummaryFormat(v.GetString(keySummaryFormat))
	if err != nil {
		return nil, err
	}

	s := &Settings{
		MaxLen:               min(positiveOr(v.GetString(keyMaxLen), core.DefaultMaxLen), core.MaxLenCeiling),
		DuplicateReportPath:  v.GetString(keyDuplicateReport),
		LogLevel:             logging.LogLevel(strings.ToLower(v.GetString(keyLogLevel))),
		LogFormat:            logging.LogFormat(strings.ToLower(v.GetString(keyLogFormat))),
		LogDir:               v.GetString(keyLogDir),
		LogColors:            v.GetBool(keyLogColors),
		ReadPolicy:           policy,
		PersistentIterations: uint(positiveOr(v.GetString(keyPersistentIters), core.DefaultPersistentIterations)),
		AFLPersistent:        v.GetBool(keyAFLPersistent),
		SummaryDir:           v.GetString(keySummaryDir),
		SummaryFormat:        summaryFormat,
		ConfigFile:           configFile,
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks settings that cannot be repaired by falling back to a default
func (s *Settings) Validate() error {
	if s.MaxLen <= 0 {
		return fmt.Errorf("max_len must be positive")
	}
	if s.MaxLen > core.MaxLenCeiling {
		return fmt.Errorf("max_len must not exceed %d", core.MaxLenCeiling)
	}
	if s.PersistentIterations == 0 {
		return fmt.Errorf("persistent_iterations must be positive")
	}
	return s.LoggerConfig().Validate()
}

// LoggerConfig derives the logger configuration
func (s *Settings) LoggerConfig() *logging.LoggerConfig {
	return &logging.LoggerConfig{
		Level:     s.LogLevel,
		Format:    s.LogFormat,
		OutputDir: s.LogDir,
		MaxFiles:  defaultLogMaxFiles,
		Timestamp: true,
		Colors:    s.LogColors,
	}
}

// positiveOr parses raw like strtol and keeps fallback for non-positive results
func positiveOr(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	v := core.ParseCount(raw)
	if v <= 0 {
		return fallback
	}
	return core.ClampInt(v)
}
