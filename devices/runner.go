package devices

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/groundupworks/yksp/utils"
)

// Runner executes external tools (adb, aapt). The exec based implementation is
// used in production, tests substitute a scripted fake.
type Runner interface {
	// Run executes the command to completion and returns stdout.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
	// Start launches the command in the background, streaming stdout to w.
	Start(ctx context.Context, w io.Writer, name string, args ...string) (Process, error)
}

// Process is a command started in the background.
type Process interface {
	// Wait blocks until the process exits. It is safe to call more than once.
	Wait() error
	// Stop terminates the process and everything it spawned.
	Stop() error
}

// CommandError carries the output of a failed command so callers can log it.
type CommandError struct {
	Command string
	Stderr  string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("%s: %v\nOutput: %s", e.Command, e.Err, e.Stderr)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExecRunner runs commands through os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	utils.Verbose("exec: %s %s", name, strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), &CommandError{
			Command: name + " " + strings.Join(args, " "),
			Stderr:  strings.TrimSpace(stderr.String()),
			Err:     err,
		}
	}

	return stdout.Bytes(), nil
}

func (ExecRunner) Start(ctx context.Context, w io.Writer, name string, args ...string) (Process, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = w
	utils.ConfigureDetachedProcAttr(cmd)
	cmd.Cancel = func() error {
		return utils.TerminateProcessGroup(cmd)
	}

	utils.Verbose("exec (background): %s %s", name, strings.Join(args, " "))
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", name, err)
	}

	p := &execProcess{cmd: cmd, done: make(chan struct{})}
	go func() {
		p.err = cmd.Wait()
		close(p.done)
	}()

	return p, nil
}

type execProcess struct {
	cmd  *exec.Cmd
	done chan struct{}
	err  error

	stopOnce sync.Once
	stopErr  error
}

func (p *execProcess) Wait() error {
	<-p.done
	return p.err
}

func (p *execProcess) Stop() error {
	p.stopOnce.Do(func() {
		select {
		case <-p.done:
			return
		default:
		}
		p.stopErr = utils.TerminateProcessGroup(p.cmd)
		<-p.done
	})
	return p.stopErr
}
