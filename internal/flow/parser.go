// File: internal/flow/parser.go
package flow

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parse decodes and validates one flow document.
func Parse(data []byte) (*Flow, error) {
	var f Flow
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse flow YAML: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// ParseFile reads and parses a flow file. A flow without an explicit
// name is named after its file.
func ParseFile(path string) (*Flow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read flow file %q: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("flow file %q: %w", path, err)
	}
	if f.Name == "" {
		base := filepath.Base(path)
		f.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return f, nil
}

// Validate checks the structural rules the runner relies on.
func (f *Flow) Validate() error {
	if len(f.Steps) == 0 {
		return fmt.Errorf("flow %q has no steps", f.Name)
	}
	for i, step := range f.Steps {
		if err := step.validate(); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, step.Type(), err)
		}
	}
	return nil
}

func (s *Step) validate() error {
	switch {
	case s.Navigate != nil:
		if s.Navigate.URL == "" {
			return fmt.Errorf("navigate requires a url")
		}
	case s.Click != nil:
		if s.Click.Locator == "" {
			return fmt.Errorf("click requires a locator")
		}
		for _, fb := range s.Click.Fallbacks {
			if fb == "" {
				return fmt.Errorf("click fallbacks must not be empty strings")
			}
		}
		if s.Click.Timeout < 0 {
			return fmt.Errorf("click timeout must not be negative")
		}
		if s.Click.Attempts < 0 {
			return fmt.Errorf("click attempts must not be negative")
		}
	case s.WaitFor != nil:
		if s.WaitFor.Locator == "" {
			return fmt.Errorf("waitFor requires a locator")
		}
	case s.Fill != nil:
		if s.Fill.Locator == "" {
			return fmt.Errorf("fill requires a locator")
		}
	case s.AssertText != nil:
		if s.AssertText.Locator == "" {
			return fmt.Errorf("assertText requires a locator")
		}
		if (s.AssertText.Contains == "") == (s.AssertText.Equals == "") {
			return fmt.Errorf("assertText requires exactly one of contains or equals")
		}
	case s.Screenshot != nil:
		if s.Screenshot.Path == "" {
			return fmt.Errorf("screenshot requires a path")
		}
	case s.Sleep != nil:
		if s.Sleep.Duration <= 0 {
			return fmt.Errorf("sleep requires a positive duration")
		}
	default:
		return fmt.Errorf("empty step")
	}
	return nil
}
