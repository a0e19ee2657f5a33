package batch

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// Loader reads jobs from a manifest file (JSONL or Parquet).
type Loader struct {
	manifestPath string
}

func NewLoader(manifestPath string) *Loader {
	return &Loader{
		manifestPath: manifestPath,
	}
}

// Load reads every job in the manifest.
func (l *Loader) Load() ([]Job, error) {
	return l.LoadSample(0)
}

// LoadSample reads at most limit jobs. A limit <= 0 reads all of them.
func (l *Loader) LoadSample(limit int) ([]Job, error) {
	ext := strings.ToLower(filepath.Ext(l.manifestPath))

	switch ext {
	case ".parquet":
		return l.loadParquet(limit)
	case ".jsonl", ".json":
		return l.loadJSONL(limit)
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .parquet, .jsonl)", ext)
	}
}

func (l *Loader) loadJSONL(limit int) ([]Job, error) {
	slog.Debug("Opening JSONL manifest", "path", l.manifestPath)

	file, err := os.Open(l.manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest file: %w", err)
	}
	defer file.Close()

	var jobs []Job
	scanner := bufio.NewScanner(file)

	const maxCapacity = 1024 * 1024
	buf := make([]byte, maxCapacity)
	scanner.Buffer(buf, maxCapacity)

	lineNum := 0
	for scanner.Scan() {
		if limit > 0 && len(jobs) >= limit {
			break
		}
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var job Job
		if err := json.Unmarshal([]byte(line), &job); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}
		if job.Image == "" {
			return nil, fmt.Errorf("missing image at line %d", lineNum)
		}

		jobs = append(jobs, job)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading manifest: %w", err)
	}

	slog.Debug("Finished reading JSONL manifest", "jobs", len(jobs), "lines", lineNum)

	return jobs, nil
}

func (l *Loader) loadParquet(limit int) ([]Job, error) {
	slog.Debug("Opening Parquet manifest", "path", l.manifestPath)

	file, err := os.Open(l.manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	slog.Debug("Parquet manifest opened", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	reader := parquet.NewGenericReader[Job](pf)
	defer reader.Close()

	var jobs []Job
	rows := make([]Job, 128)

	for limit <= 0 || len(jobs) < limit {
		n, err := reader.Read(rows)
		if n > 0 {
			if limit > 0 && n > limit-len(jobs) {
				n = limit - len(jobs)
			}
			jobs = append(jobs, rows[:n]...)
		}
		if err != nil {
			break
		}
	}

	slog.Debug("Finished reading Parquet manifest", "jobs", len(jobs))

	return jobs, nil
}
