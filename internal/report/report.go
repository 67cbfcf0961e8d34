// File: internal/report/report.go

// Package report models the outcome of a flow run and serializes it to
// JSON for downstream tooling.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Status of a run or an individual step.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// StepResult records one executed (or skipped) step.
type StepResult struct {
	Index      int    `json:"index"`
	Type       string `json:"type"`
	Detail     string `json:"detail,omitempty"`
	Status     Status `json:"status"`
	DurationMS int64  `json:"duration_ms"`

	// Click-specific fields, omitted for other step types.
	Attempts    int    `json:"attempts,omitempty"`
	Forced      bool   `json:"forced,omitempty"`
	UsedLocator string `json:"used_locator,omitempty"`

	Error string `json:"error,omitempty"`
}

// Run is the complete record of one flow execution.
type Run struct {
	Flow       string       `json:"flow"`
	Engine     string       `json:"engine"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	DurationMS int64        `json:"duration_ms"`
	Status     Status       `json:"status"`
	Steps      []StepResult `json:"steps"`
}

// NewRun starts a run record for the named flow.
func NewRun(flowName, engine string) *Run {
	return &Run{
		Flow:      flowName,
		Engine:    engine,
		StartedAt: time.Now().UTC(),
		Status:    StatusPassed,
		Steps:     []StepResult{},
	}
}

// AddStep appends one step result. A failed step fails the run.
func (r *Run) AddStep(step StepResult) {
	step.Index = len(r.Steps)
	r.Steps = append(r.Steps, step)
	if step.Status == StatusFailed {
		r.Status = StatusFailed
	}
}

// Finish stamps the end time and total duration.
func (r *Run) Finish() {
	r.FinishedAt = time.Now().UTC()
	r.DurationMS = r.FinishedAt.Sub(r.StartedAt).Milliseconds()
}

// Passed reports whether every executed step succeeded.
func (r *Run) Passed() bool {
	return r.Status == StatusPassed
}

// WriteJSON serializes the run to w, optionally indented.
func (r *Run) WriteJSON(w io.Writer, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode run report: %w", err)
	}
	return nil
}

// WriteFile writes the run report to path, creating parent directories
// as needed.
func (r *Run) WriteFile(path string, pretty bool) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()
	return r.WriteJSON(f, pretty)
}

// DefaultPath derives a report filename inside dir from the flow name
// and the run start time.
func (r *Run) DefaultPath(dir string) string {
	stamp := r.StartedAt.Format("20060102-150405")
	return filepath.Join(dir, fmt.Sprintf("%s-%s.json", sanitize(r.Flow), stamp))
}

// sanitize keeps flow names filesystem-safe.
func sanitize(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		case r == ' ':
			out = append(out, '-')
		}
	}
	if len(out) == 0 {
		return "run"
	}
	return string(out)
}
