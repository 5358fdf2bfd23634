// Package devicestest provides a scripted command runner for tests that
// exercise code built on devices.Bridge without a real adb.
package devicestest

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/groundupworks/yksp/devices"
)

// Call is one recorded invocation.
type Call struct {
	Name       string
	Args       []string
	Background bool
}

// Line returns the arguments joined by spaces, without the binary name.
func (c Call) Line() string {
	return strings.Join(c.Args, " ")
}

type runRule struct {
	prefix string
	fn     func(args []string) ([]byte, error)
}

type startRule struct {
	prefix   string
	fn       func(args []string, w io.Writer) error
	blocking bool
}

// FakeRunner answers commands by the longest matching argument prefix, the
// latest rule winning ties so tests can override a fixture. Unmatched commands succeed with empty output, unmatched background
// commands block until stopped.
type FakeRunner struct {
	mu         sync.Mutex
	calls      []Call
	runRules   []runRule
	startRules []startRule
	processes  []*FakeProcess
}

func NewFakeRunner() *FakeRunner {
	return &FakeRunner{}
}

// On makes commands starting with prefix print output.
func (f *FakeRunner) On(prefix, output string) *FakeRunner {
	return f.OnFunc(prefix, func([]string) ([]byte, error) {
		return []byte(output), nil
	})
}

// OnError makes commands starting with prefix fail with err after printing output.
func (f *FakeRunner) OnError(prefix, output string, err error) *FakeRunner {
	return f.OnFunc(prefix, func([]string) ([]byte, error) {
		return []byte(output), err
	})
}

// OnFunc computes the result of commands starting with prefix.
func (f *FakeRunner) OnFunc(prefix string, fn func(args []string) ([]byte, error)) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runRules = append(f.runRules, runRule{prefix: prefix, fn: fn})
	return f
}

// OnStart configures background commands starting with prefix. fn runs when
// the command starts and may write to its stdout. Non-blocking processes exit
// right away with the error returned by fn.
func (f *FakeRunner) OnStart(prefix string, blocking bool, fn func(args []string, w io.Writer) error) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startRules = append(f.startRules, startRule{prefix: prefix, fn: fn, blocking: blocking})
	return f
}

func (f *FakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	call := Call{Name: name, Args: append([]string(nil), args...)}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	var match *runRule
	for i := range f.runRules {
		r := &f.runRules[i]
		if strings.HasPrefix(call.Line(), r.prefix) && (match == nil || len(r.prefix) >= len(match.prefix)) {
			match = r
		}
	}
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if match == nil {
		return nil, nil
	}
	return match.fn(call.Args)
}

func (f *FakeRunner) Start(ctx context.Context, w io.Writer, name string, args ...string) (devices.Process, error) {
	call := Call{Name: name, Args: append([]string(nil), args...), Background: true}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	var match *startRule
	for i := range f.startRules {
		r := &f.startRules[i]
		if strings.HasPrefix(call.Line(), r.prefix) && (match == nil || len(r.prefix) >= len(match.prefix)) {
			match = r
		}
	}
	p := &FakeProcess{Call: call, done: make(chan struct{})}
	f.processes = append(f.processes, p)
	f.mu.Unlock()

	blocking := true
	var err error
	if match != nil {
		blocking = match.blocking
		if match.fn != nil {
			err = match.fn(call.Args, w)
		}
	}

	if !blocking {
		p.finish(err, false)
	} else {
		go func() {
			select {
			case <-ctx.Done():
				p.finish(ctx.Err(), true)
			case <-p.done:
			}
		}()
	}

	return p, nil
}

// Calls returns every recorded invocation in order.
func (f *FakeRunner) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Lines returns the argument lines of every recorded invocation.
func (f *FakeRunner) Lines() []string {
	var lines []string
	for _, c := range f.Calls() {
		lines = append(lines, c.Line())
	}
	return lines
}

// Called reports whether any invocation starts with prefix.
func (f *FakeRunner) Called(prefix string) bool {
	for _, c := range f.Calls() {
		if strings.HasPrefix(c.Line(), prefix) {
			return true
		}
	}
	return false
}

// Processes returns the background processes started so far.
func (f *FakeRunner) Processes() []*FakeProcess {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*FakeProcess(nil), f.processes...)
}

// FakeProcess is a background command started through FakeRunner.
type FakeProcess struct {
	Call Call

	once    sync.Once
	done    chan struct{}
	err     error
	stopped bool
}

func (p *FakeProcess) finish(err error, stopped bool) {
	p.once.Do(func() {
		p.err = err
		p.stopped = stopped
		close(p.done)
	})
}

func (p *FakeProcess) Wait() error {
	<-p.done
	return p.err
}

func (p *FakeProcess) Stop() error {
	p.finish(nil, true)
	return nil
}

// Stopped reports whether the process was terminated rather than exiting on its own.
func (p *FakeProcess) Stopped() bool {
	select {
	case <-p.done:
		return p.stopped
	default:
		return false
	}
}

// Exited reports whether the process is no longer running.
func (p *FakeProcess) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}
