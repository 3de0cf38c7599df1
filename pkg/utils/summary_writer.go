/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: summary_writer.go
Description: Utility for writing run summaries to disk. Each run gets a timestamped
file named after its session, encoded as JSON or YAML, so batch replays can be
compared after the fact.
*/

package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// SummaryFormat selects the encoding of a summary file
type SummaryFormat string

const (
	SummaryJSON SummaryFormat = "json"
	SummaryYAML SummaryFormat = "yaml"
)

// ParseSummaryFormat parses a format name, defaulting to JSON
func ParseSummaryFormat(s string) (SummaryFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return SummaryJSON, nil
	case "yaml", "yml":
		return SummaryYAML, nil
	default:
		return "", fmt.Errorf("unsupported summary format: %s", s)
	}
}

// WriteRunSummary writes result to dir and returns the file path.
// Filename: 2024-06-11_01-30-00_<session>.json
func WriteRunSummary(dir string, sessionID string, format SummaryFormat, result interface{}) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create summary directory: %w", err)
	}

	var (
		data []byte
		err  error
	)
	switch format {
	case SummaryYAML:
		data, err = yaml.Marshal(result)
	default:
		format = SummaryJSON
		data, err = json.MarshalIndent(result, "", "  ")
	}
	if err != nil {
		return "", fmt.Errorf("failed to marshal summary: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := fmt.Sprintf("%s_%s.%s", timestamp, sessionID, format)
	filePath := filepath.Join(dir, filename)

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write summary file: %w", err)
	}

	return filePath, nil
}
