// Package script loads declarative UI test scripts. A script is a YAML
// document naming a suite and its tests, each test being a list of steps run
// against the device screen in order.
package script

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/groundupworks/yksp/devices"
)

// Step actions.
const (
	ActionLaunch         = "launch"
	ActionStartActivity  = "start_activity"
	ActionRefresh        = "refresh"
	ActionSaveScreen     = "save_screen"
	ActionSleep          = "sleep"
	ActionFind           = "find"
	ActionTouch          = "touch"
	ActionDrag           = "drag"
	ActionPress          = "press"
	ActionType           = "type"
	ActionAssertCount    = "assert_count"
	ActionRequirePackage = "require_package"
	ActionForEach        = "for_each"
)

// IndexPlaceholder is replaced by the iteration index inside for_each steps.
const IndexPlaceholder = "{index}"

// DefaultDragDuration applies to drag steps without a duration.
const DefaultDragDuration = Duration(500 * time.Millisecond)

var ErrNoScripts = errors.New("no test scripts available")

// Selector picks a view of the current screen by id or by exact text.
type Selector struct {
	ID   string `yaml:"id,omitempty" json:"id,omitempty"`
	Text string `yaml:"text,omitempty" json:"text,omitempty"`
}

func (s Selector) String() string {
	if s.ID != "" {
		return "id=" + s.ID
	}
	return "text=" + s.Text
}

func (s Selector) valid() bool {
	return (s.ID == "") != (s.Text == "")
}

type Step struct {
	Action   string    `yaml:"action"`
	ID       string    `yaml:"id,omitempty"`
	Text     string    `yaml:"text,omitempty"`
	Current  bool      `yaml:"current,omitempty"`
	Activity string    `yaml:"activity,omitempty"`
	Package  string    `yaml:"package,omitempty"`
	Tag      string    `yaml:"tag,omitempty"`
	Sleep    Duration  `yaml:"sleep,omitempty"`
	Duration Duration  `yaml:"duration,omitempty"`
	From     *Selector `yaml:"from,omitempty"`
	To       *Selector `yaml:"to,omitempty"`
	Key      string    `yaml:"key,omitempty"`
	Count    *int      `yaml:"count,omitempty"`
	Message  string    `yaml:"message,omitempty"`
	Steps    []Step    `yaml:"steps,omitempty"`
}

// Selector returns the id/text selector carried directly by the step.
func (s Step) Selector() Selector {
	return Selector{ID: s.ID, Text: s.Text}
}

// WithIndex returns a copy of the step, and of its nested steps, with the
// index placeholder replaced by i.
func (s Step) WithIndex(i int) Step {
	idx := fmt.Sprint(i)
	out := s
	out.Tag = strings.ReplaceAll(s.Tag, IndexPlaceholder, idx)
	out.Text = strings.ReplaceAll(s.Text, IndexPlaceholder, idx)
	out.ID = strings.ReplaceAll(s.ID, IndexPlaceholder, idx)
	out.Message = strings.ReplaceAll(s.Message, IndexPlaceholder, idx)

	if s.Steps != nil {
		out.Steps = make([]Step, len(s.Steps))
		for j, nested := range s.Steps {
			out.Steps[j] = nested.WithIndex(i)
		}
	}
	return out
}

type Test struct {
	Name  string `yaml:"name"`
	Doc   string `yaml:"doc,omitempty"`
	Steps []Step `yaml:"steps"`
}

type Script struct {
	Name  string `yaml:"name"`
	Tests []Test `yaml:"tests"`

	// Path is the file the script was loaded from.
	Path string `yaml:"-"`
}

// BaseName returns the file name of the script without its extension.
func (s *Script) BaseName() string {
	return BaseName(s.Path)
}

// BaseName strips the directory and extension of a script path.
func BaseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// StepError locates an invalid step.
type StepError struct {
	Path string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Parse decodes and validates a script. Unknown fields are rejected.
func Parse(data []byte) (*Script, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Script
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("script is empty")
		}
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Load reads and validates the script at path.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}

	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.Path = path
	if s.Name == "" {
		s.Name = s.BaseName()
	}
	return s, nil
}

// IsScriptFile reports whether name has a script extension.
func IsScriptFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Find lists the script files in dir, sorted by name.
func Find(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoScripts
		}
		return nil, fmt.Errorf("failed to list scripts: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !IsScriptFile(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}

	if len(paths) == 0 {
		return nil, ErrNoScripts
	}
	sort.Strings(paths)
	return paths, nil
}

// Validate checks every test and step of the script and reports the first error.
func (s *Script) Validate() error {
	if len(s.Tests) == 0 {
		return fmt.Errorf("script has no tests")
	}

	seen := make(map[string]bool)
	for i, t := range s.Tests {
		path := fmt.Sprintf("tests[%d]", i)
		if t.Name == "" {
			return &StepError{Path: path, Err: errors.New("test name is required")}
		}
		if seen[t.Name] {
			return &StepError{Path: path, Err: fmt.Errorf("duplicate test name %q", t.Name)}
		}
		seen[t.Name] = true

		if len(t.Steps) == 0 {
			return &StepError{Path: path + " (" + t.Name + ")", Err: errors.New("test has no steps")}
		}
		if err := validateSteps(t.Steps, fmt.Sprintf("%s (%s)", path, t.Name), false); err != nil {
			return err
		}
	}
	return nil
}

func validateSteps(steps []Step, parent string, inLoop bool) error {
	for i, step := range steps {
		path := fmt.Sprintf("%s.steps[%d]", parent, i)
		if err := validateStep(step, inLoop); err != nil {
			return &StepError{Path: path, Err: err}
		}
		if step.Action == ActionForEach {
			if err := validateSteps(step.Steps, path, true); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateStep(s Step, inLoop bool) error {
	if s.Sleep < 0 || s.Duration < 0 {
		return errors.New("durations must not be negative")
	}
	if s.Action != ActionForEach && len(s.Steps) > 0 {
		return fmt.Errorf("action %s does not take nested steps", s.Action)
	}

	switch s.Action {
	case ActionLaunch, ActionRefresh, ActionSaveScreen:
		return nil
	case ActionStartActivity:
		if s.Activity == "" {
			return errors.New("start_activity requires an activity")
		}
	case ActionSleep:
		if s.Duration <= 0 {
			return errors.New("sleep requires a positive duration")
		}
	case ActionFind:
		if !s.Selector().valid() {
			return errors.New("find requires exactly one of id or text")
		}
	case ActionTouch:
		n := 0
		if s.ID != "" {
			n++
		}
		if s.Text != "" {
			n++
		}
		if s.Current {
			n++
		}
		if n != 1 {
			return errors.New("touch requires exactly one of id, text or current")
		}
		if s.Current && !inLoop {
			return errors.New("touch current is only valid inside for_each")
		}
	case ActionDrag:
		if s.From == nil || s.To == nil {
			return errors.New("drag requires from and to")
		}
		if !s.From.valid() || !s.To.valid() {
			return errors.New("drag endpoints require exactly one of id or text")
		}
	case ActionPress:
		if _, err := devices.KeyCode(s.Key); err != nil {
			return err
		}
	case ActionType:
		if s.Text == "" {
			return errors.New("type requires text")
		}
	case ActionAssertCount:
		if !s.Selector().valid() {
			return errors.New("assert_count requires exactly one of id or text")
		}
		if s.Count == nil || *s.Count < 0 {
			return errors.New("assert_count requires a non-negative count")
		}
	case ActionRequirePackage:
		if s.Package == "" {
			return errors.New("require_package requires a package")
		}
	case ActionForEach:
		if !s.Selector().valid() {
			return errors.New("for_each requires exactly one of id or text")
		}
		if len(s.Steps) == 0 {
			return errors.New("for_each requires nested steps")
		}
	case "":
		return errors.New("action is required")
	default:
		return fmt.Errorf("unknown action %q", s.Action)
	}
	return nil
}
