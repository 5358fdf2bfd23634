package testcase

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Test outcomes, as printed in the report.
const (
	StatusOK    = "ok"
	StatusFail  = "FAIL"
	StatusError = "ERROR"
)

const (
	reportSeparator     = "======================================================================"
	reportThinSeparator = "----------------------------------------------------------------------"
)

type TestResult struct {
	Name     string   `json:"name"`
	Doc      string   `json:"doc,omitempty"`
	Status   string   `json:"status"`
	Message  string   `json:"message,omitempty"`
	Duration float64  `json:"duration"`
	Screens  []string `json:"screens,omitempty"`
}

// Result is the outcome of one script run, saved as result.json.
type Result struct {
	Suite    string       `json:"suite"`
	Script   string       `json:"script"`
	Package  string       `json:"package"`
	Serial   string       `json:"serial"`
	Tests    []TestResult `json:"tests"`
	Ran      int          `json:"ran"`
	Failures int          `json:"failures"`
	Errors   int          `json:"errors"`
	Duration float64      `json:"duration"`
}

func (r *Result) Successful() bool {
	return r.Failures == 0 && r.Errors == 0
}

func (r *Result) add(t TestResult) {
	r.Tests = append(r.Tests, t)
	r.Ran++
	switch t.Status {
	case StatusFail:
		r.Failures++
	case StatusError:
		r.Errors++
	}
}

// reporter writes a verbose text report while tests run.
type reporter struct {
	w     io.Writer
	suite string
}

func (r *reporter) describe(name, doc string) string {
	desc := fmt.Sprintf("%s (%s)", name, r.suite)
	if first := firstLine(doc); first != "" {
		desc += "\n" + first
	}
	return desc
}

func (r *reporter) startTest(name, doc string) {
	fmt.Fprintf(r.w, "%s ... ", r.describe(name, doc))
}

func (r *reporter) endTest(status string) {
	fmt.Fprintln(r.w, status)
}

func (r *reporter) summary(result *Result, elapsed time.Duration) {
	for _, t := range result.Tests {
		if t.Status == StatusOK {
			continue
		}
		fmt.Fprintln(r.w)
		fmt.Fprintln(r.w, reportSeparator)
		fmt.Fprintf(r.w, "%s: %s (%s)\n", t.Status, t.Name, r.suite)
		fmt.Fprintln(r.w, reportThinSeparator)
		fmt.Fprintln(r.w, t.Message)
	}

	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, reportThinSeparator)
	noun := "tests"
	if result.Ran == 1 {
		noun = "test"
	}
	fmt.Fprintf(r.w, "Ran %d %s in %.3fs\n\n", result.Ran, noun, elapsed.Seconds())

	if result.Successful() {
		fmt.Fprintln(r.w, "OK")
		return
	}

	var counts []string
	if result.Failures > 0 {
		counts = append(counts, fmt.Sprintf("failures=%d", result.Failures))
	}
	if result.Errors > 0 {
		counts = append(counts, fmt.Sprintf("errors=%d", result.Errors))
	}
	fmt.Fprintf(r.w, "FAILED (%s)\n", strings.Join(counts, ", "))
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
