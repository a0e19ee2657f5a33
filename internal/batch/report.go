package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Summary counts results by outcome.
type Summary struct {
	Manifest  string `yaml:"manifest"`
	Timestamp string `yaml:"timestamp"`
	Total     int    `yaml:"total"`
	Rendered  int    `yaml:"rendered"`
	Skipped   int    `yaml:"skipped"`
	Failed    int    `yaml:"failed"`
}

// Report is the YAML document written by SaveToYAML.
type Report struct {
	Summary Summary  `yaml:"summary"`
	Results []Result `yaml:"results"`
}

// Summarize counts results.
func Summarize(manifest string, results []Result) Summary {
	s := Summary{
		Manifest: manifest,
		Total:    len(results),
	}
	for _, r := range results {
		switch {
		case r.Error != "":
			s.Failed++
		case r.Skipped():
			s.Skipped++
		default:
			s.Rendered++
		}
	}
	return s
}

// SaveToYAML writes a report into dir and returns the file path.
func SaveToYAML(dir, manifest string, results []Result) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")

	report := Report{
		Summary: Summarize(manifest, results),
		Results: results,
	}
	report.Summary.Timestamp = timestamp

	base := filepath.Base(manifest)
	base = base[:len(base)-len(filepath.Ext(base))]
	filename := filepath.Join(dir, fmt.Sprintf("%s-%s.yaml", base, timestamp))

	data, err := yaml.Marshal(&report)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write YAML file: %w", err)
	}

	return filename, nil
}
