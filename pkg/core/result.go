// Package core provides the execution model types shared by the engine packages.
package core

import (
	"time"
)

// Attachment represents an artifact captured while a test case ran
type Attachment struct {
	Name        string `json:"name"`        // Descriptive name: video, screenshot, page_source
	ContentType string `json:"contentType"` // MIME type
	Path        string `json:"path"`        // File path on disk
}

// ContentTypeMP4 is the MIME type of screen recordings.
const ContentTypeMP4 = "video/mp4"

// NewVideoAttachment creates a screen recording attachment
func NewVideoAttachment(path string) Attachment {
	return Attachment{Name: "video", ContentType: ContentTypeMP4, Path: path}
}

// TestCaseResult captures the complete outcome of executing one test case
type TestCaseResult struct {
	// Identity
	ID      string `json:"id"`
	LogPath string `json:"logPath,omitempty"`

	// Status
	Status   Status        `json:"status"`
	Category ErrorCategory `json:"-"`
	Outcome  Outcome       `json:"outcome"`

	// Timing
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`

	// Progress
	TotalCommands    int    `json:"totalCommands"`    // Commands in the expanded stream
	ExecutedCommands int    `json:"executedCommands"` // Commands handed to the validator
	FailedIndex      int    `json:"failedIndex"`      // Index of the failing command, -1 if none
	Cleanup          string `json:"cleanup,omitempty"`
	CleanupExecuted  bool   `json:"cleanupExecuted,omitempty"`

	Attachments []Attachment `json:"attachments,omitempty"`
}

// StatusFor maps an outcome and optional fault to a test case status.
func StatusFor(outcome Outcome, err error) Status {
	switch {
	case err != nil && IsCategory(err, ErrCategoryValidation):
		return StatusSkipped
	case err != nil:
		return StatusErrored
	case outcome.Success:
		return StatusPassed
	default:
		return StatusFailed
	}
}

// GroupResult captures the complete outcome of executing a test case group
type GroupResult struct {
	// Identity
	Name      string `json:"name"`
	RunID     string `json:"runId"`
	OutputDir string `json:"outputDir"` // Per-run log directory

	// Timing
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`

	// Results
	TestCases []TestCaseResult `json:"testCases"`

	// Summary
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Errored int `json:"errored"`
	Skipped int `json:"skipped"`
}

// ComputeSummary calculates test case counts from the TestCases slice
func (g *GroupResult) ComputeSummary() {
	g.Total = len(g.TestCases)
	g.Passed = 0
	g.Failed = 0
	g.Errored = 0
	g.Skipped = 0

	for _, tc := range g.TestCases {
		switch tc.Status {
		case StatusPassed:
			g.Passed++
		case StatusFailed:
			g.Failed++
		case StatusErrored:
			g.Errored++
		case StatusSkipped:
			g.Skipped++
		}
	}
}

// Status aggregates the group status: failed if any case failed or errored,
// skipped if nothing ran, passed otherwise.
func (g *GroupResult) Status() Status {
	if g.Failed > 0 || g.Errored > 0 {
		return StatusFailed
	}
	if g.Passed == 0 {
		return StatusSkipped
	}
	return StatusPassed
}

// Success returns true if no test case failed and at least one passed
func (g *GroupResult) Success() bool {
	return g.Status() == StatusPassed
}
