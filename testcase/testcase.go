// Package testcase runs one UI test script against one device, saving
// screenshots, screen dumps and a text report under a results directory.
package testcase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/groundupworks/yksp/devices"
	"github.com/groundupworks/yksp/script"
	"github.com/groundupworks/yksp/utils"
)

// ResultFileName is written into the root directory after every run.
const ResultFileName = "result.json"

type Runner struct {
	bridge *devices.Bridge
	opts   Options
	sleep  SleepFunc
	now    func() time.Time
}

func NewRunner(bridge *devices.Bridge, opts Options) *Runner {
	return &Runner{
		bridge: bridge,
		opts:   opts,
		sleep:  sleepContext,
		now:    time.Now,
	}
}

// WithSleep replaces the function used for step delays.
func (r *Runner) WithSleep(sleep SleepFunc) *Runner {
	r.sleep = sleep
	return r
}

// Run executes every test of s in order, writing the report to w.
func (r *Runner) Run(ctx context.Context, s *script.Script, w io.Writer) *Result {
	result := &Result{
		Suite:   s.Name,
		Script:  s.Path,
		Package: r.opts.Package,
		Serial:  r.opts.Serial,
		Tests:   []TestResult{},
	}
	rep := &reporter{w: w, suite: s.Name}
	screens := &screenCounter{}

	started := r.now()
	for _, test := range s.Tests {
		rep.startTest(test.Name, test.Doc)
		tr := r.runTest(ctx, test, screens)
		rep.endTest(tr.Status)
		result.add(tr)
	}
	elapsed := r.now().Sub(started)
	result.Duration = elapsed.Seconds()

	rep.summary(result, elapsed)
	return result
}

func (r *Runner) runTest(ctx context.Context, test script.Test, screens *screenCounter) TestResult {
	started := r.now()
	c := newCase(r.opts, r.sleep, screens)
	tr := TestResult{Name: test.Name, Doc: test.Doc, Status: StatusOK}

	utils.Verbose("Running %s", test.Name)
	err := c.SetUp(ctx, r.bridge)
	if err == nil {
		err = c.RunSteps(ctx, test.Steps)
		if terr := c.TearDown(ctx); terr != nil && err == nil {
			err = fmt.Errorf("tear down: %w", terr)
		}
	}

	if err != nil {
		tr.Message = err.Error()
		if IsFailure(err) {
			tr.Status = StatusFail
		} else {
			tr.Status = StatusError
		}
	}
	tr.Screens = c.saved
	tr.Duration = r.now().Sub(started).Seconds()
	return tr
}

// Main prepares the output directories, loads the script and runs it. The
// report goes to root/logs when Logs is set, otherwise to stdout.
func Main(ctx context.Context, bridge *devices.Bridge, opts Options, stdout io.Writer) (*Result, error) {
	return MainWith(ctx, NewRunner(bridge, opts), stdout)
}

func MainWith(ctx context.Context, r *Runner, stdout io.Writer) (*Result, error) {
	opts := r.opts
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	for _, dir := range []string{opts.Screenshots, opts.Screendumps} {
		if err := utils.EnsureDir(filepath.Join(opts.Root, dir)); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	s, err := script.Load(opts.Script)
	if err != nil {
		return nil, err
	}

	out := stdout
	if opts.Logs != "" {
		f, err := os.Create(filepath.Join(opts.Root, opts.Logs))
		if err != nil {
			return nil, fmt.Errorf("failed to create log file: %w", err)
		}
		defer f.Close()
		out = f
	}

	result := r.Run(ctx, s, out)

	if err := WriteResult(filepath.Join(opts.Root, ResultFileName), result); err != nil {
		return result, err
	}
	return result, nil
}

func WriteResult(path string, result *Result) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}

// ReadResult loads a result.json written by WriteResult.
func ReadResult(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return &result, nil
}
