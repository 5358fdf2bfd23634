package session

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/groundupworks/yksp/apk"
)

// SummaryFileName is written into the session directory when a run ends.
const SummaryFileName = "session.json"

// Test case outcomes.
const (
	OutcomePassed = "passed"
	OutcomeFailed = "failed"
	OutcomeError  = "error"
)

type CaseSummary struct {
	Script   string `json:"script"`
	Dir      string `json:"dir"`
	Outcome  string `json:"outcome"`
	Ran      int    `json:"ran"`
	Failures int    `json:"failures"`
	Errors   int    `json:"errors"`
	Message  string `json:"message,omitempty"`
	// DataFiles counts the files extracted from the app data backup, -1 when
	// the download failed or was disabled.
	DataFiles int `json:"dataFiles"`
}

type DeviceSummary struct {
	Serial     string            `json:"serial"`
	State      string            `json:"state"`
	Model      string            `json:"model,omitempty"`
	Dir        string            `json:"dir,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
	Skipped    bool              `json:"skipped,omitempty"`
	Error      string            `json:"error,omitempty"`
	Cases      []CaseSummary     `json:"cases"`
}

type Summary struct {
	ID       string           `json:"id"`
	Dir      string           `json:"dir"`
	Started  time.Time        `json:"started"`
	Finished time.Time        `json:"finished"`
	Package  *apk.PackageInfo `json:"package"`
	Scripts  []string         `json:"scripts"`
	Devices  []DeviceSummary  `json:"devices"`
	Passed   int              `json:"passed"`
	Failed   int              `json:"failed"`
	Archive  string           `json:"archive,omitempty"`
}

// Successful reports whether every test case passed and no device failed
// before running its scripts.
func (s *Summary) Successful() bool {
	return s.Failed == 0
}

// count tallies case outcomes. A device that stopped with an error counts one
// failure for every script it did not run, and at least one.
func (s *Summary) count() {
	s.Passed, s.Failed = 0, 0
	for _, d := range s.Devices {
		for _, c := range d.Cases {
			if c.Outcome == OutcomePassed {
				s.Passed++
			} else {
				s.Failed++
			}
		}
		if d.Skipped || d.Error == "" {
			continue
		}
		s.Failed += max(1, len(s.Scripts)-len(d.Cases))
	}
}

func writeSummary(path string, s *Summary) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session summary: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write session summary: %w", err)
	}
	return nil
}

// ReadSummary loads a session.json.
func ReadSummary(path string) (*Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return &s, nil
}
