// File: internal/flow/flow.go

// Package flow handles parsing and representation of YAML click-flow
// files. A flow is an ordered list of single-key step mappings, e.g.
//
//	name: export dashboard
//	steps:
//	  - navigate: http://127.0.0.1:8931/mock_website.html
//	  - click:
//	      locator: 'button[name="export"]'
//	      fallbacks: ['#export-btn', '[data-testid="export-button"]']
//	  - assertText:
//	      locator: '#status'
//	      contains: Export
//
// Steps are pure data; the runner decides how to execute them.
package flow

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Flow is one parsed flow document.
type Flow struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// Duration wraps time.Duration with YAML parsing from strings like
// "500ms" or "10s".
type Duration time.Duration

// UnmarshalYAML parses a duration literal.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar like \"500ms\"", node.Line)
	}
	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q: %w", node.Line, node.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// NavigateStep loads a URL.
type NavigateStep struct {
	URL string `yaml:"url"`
}

// UnmarshalYAML accepts either a bare URL scalar or a mapping.
func (n *NavigateStep) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		n.URL = node.Value
		return nil
	}
	type raw NavigateStep
	var r raw
	if err := node.Decode(&r); err != nil {
		return err
	}
	*n = NavigateStep(r)
	return nil
}

// ClickStep clicks an element through the resilient primitive. The
// locator plus its fallbacks form the ordered chain; timeout and
// attempts override the configured defaults when set.
type ClickStep struct {
	Locator   string   `yaml:"locator"`
	Fallbacks []string `yaml:"fallbacks"`
	Timeout   Duration `yaml:"timeout"`
	Attempts  int      `yaml:"attempts"`
}

// UnmarshalYAML accepts either a bare locator scalar or a mapping.
func (c *ClickStep) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		c.Locator = node.Value
		return nil
	}
	type raw ClickStep
	var r raw
	if err := node.Decode(&r); err != nil {
		return err
	}
	*c = ClickStep(r)
	return nil
}

// Chain returns the full ordered locator chain.
func (c *ClickStep) Chain() []string {
	return append([]string{c.Locator}, c.Fallbacks...)
}

// WaitForStep waits until an element is attached.
type WaitForStep struct {
	Locator string   `yaml:"locator"`
	Timeout Duration `yaml:"timeout"`
}

// UnmarshalYAML accepts either a bare locator scalar or a mapping.
func (w *WaitForStep) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		w.Locator = node.Value
		return nil
	}
	type raw WaitForStep
	var r raw
	if err := node.Decode(&r); err != nil {
		return err
	}
	*w = WaitForStep(r)
	return nil
}

// FillStep sets the value of an input element.
type FillStep struct {
	Locator string `yaml:"locator"`
	Value   string `yaml:"value"`
}

// AssertTextStep checks the text content of an element. Exactly one of
// Contains or Equals must be set.
type AssertTextStep struct {
	Locator  string `yaml:"locator"`
	Contains string `yaml:"contains"`
	Equals   string `yaml:"equals"`
}

// ScreenshotStep captures the viewport to a file.
type ScreenshotStep struct {
	Path string `yaml:"path"`
}

// UnmarshalYAML accepts either a bare path scalar or a mapping.
func (s *ScreenshotStep) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		s.Path = node.Value
		return nil
	}
	type raw ScreenshotStep
	var r raw
	if err := node.Decode(&r); err != nil {
		return err
	}
	*s = ScreenshotStep(r)
	return nil
}

// SleepStep pauses the flow.
type SleepStep struct {
	Duration Duration `yaml:"duration"`
}

// UnmarshalYAML accepts either a bare duration scalar or a mapping.
func (s *SleepStep) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return s.Duration.UnmarshalYAML(node)
	}
	type raw SleepStep
	var r raw
	if err := node.Decode(&r); err != nil {
		return err
	}
	*s = SleepStep(r)
	return nil
}

// Step is a single-key union of the supported step kinds.
type Step struct {
	Navigate   *NavigateStep
	Click      *ClickStep
	WaitFor    *WaitForStep
	Fill       *FillStep
	AssertText *AssertTextStep
	Screenshot *ScreenshotStep
	Sleep      *SleepStep
}

// Step kind names as they appear in YAML.
const (
	StepNavigate   = "navigate"
	StepClick      = "click"
	StepWaitFor    = "waitFor"
	StepFill       = "fill"
	StepAssertText = "assertText"
	StepScreenshot = "screenshot"
	StepSleep      = "sleep"
)

// UnmarshalYAML decodes one single-key step mapping.
func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return fmt.Errorf("line %d: each step must be a mapping with exactly one key", node.Line)
	}

	key := node.Content[0].Value
	value := node.Content[1]

	switch key {
	case StepNavigate:
		s.Navigate = &NavigateStep{}
		return value.Decode(s.Navigate)
	case StepClick:
		s.Click = &ClickStep{}
		return value.Decode(s.Click)
	case StepWaitFor:
		s.WaitFor = &WaitForStep{}
		return value.Decode(s.WaitFor)
	case StepFill:
		s.Fill = &FillStep{}
		return value.Decode(s.Fill)
	case StepAssertText:
		s.AssertText = &AssertTextStep{}
		return value.Decode(s.AssertText)
	case StepScreenshot:
		s.Screenshot = &ScreenshotStep{}
		return value.Decode(s.Screenshot)
	case StepSleep:
		s.Sleep = &SleepStep{}
		return value.Decode(s.Sleep)
	default:
		return fmt.Errorf("line %d: unknown step type %q", node.Line, key)
	}
}

// Type returns the step kind name.
func (s *Step) Type() string {
	switch {
	case s.Navigate != nil:
		return StepNavigate
	case s.Click != nil:
		return StepClick
	case s.WaitFor != nil:
		return StepWaitFor
	case s.Fill != nil:
		return StepFill
	case s.AssertText != nil:
		return StepAssertText
	case s.Screenshot != nil:
		return StepScreenshot
	case s.Sleep != nil:
		return StepSleep
	default:
		return "unknown"
	}
}

// Detail returns a short human-readable description for logs and
// reports.
func (s *Step) Detail() string {
	switch {
	case s.Navigate != nil:
		return s.Navigate.URL
	case s.Click != nil:
		return s.Click.Locator
	case s.WaitFor != nil:
		return s.WaitFor.Locator
	case s.Fill != nil:
		return s.Fill.Locator
	case s.AssertText != nil:
		return s.AssertText.Locator
	case s.Screenshot != nil:
		return s.Screenshot.Path
	case s.Sleep != nil:
		return s.Sleep.Duration.Std().String()
	default:
		return ""
	}
}
