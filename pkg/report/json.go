// Package report writes group results to disk and to the console.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mohanavadivelu2/automation-framework/pkg/core"
)

// FileName is the name of the JSON report inside the run directory.
const FileName = "report.json"

// WriteJSON writes result to <dir>/report.json and returns the path.
// The file is written to a temp file first and renamed into place, so a
// reader never sees a partial report.
func WriteJSON(dir string, result *core.GroupResult) (string, error) {
	if result == nil {
		return "", fmt.Errorf("write report: nil result")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	path := filepath.Join(dir, FileName)
	if err := atomicWrite(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// ReadJSON loads a report written by WriteJSON.
func ReadJSON(path string) (*core.GroupResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	var result core.GroupResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}
	return &result, nil
}

func atomicWrite(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename report: %w", err)
	}
	return nil
}
