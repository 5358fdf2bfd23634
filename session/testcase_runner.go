package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/groundupworks/yksp/devices"
	"github.com/groundupworks/yksp/testcase"
	"github.com/groundupworks/yksp/utils"
)

// TestCaseRunner executes one script against one device. Test failures are
// reported through result.json in the results root, an error means the test
// case could not run at all.
type TestCaseRunner interface {
	RunTestCase(ctx context.Context, opts testcase.Options) error
}

// ExecTestCaseRunner runs `yksp testcase` as a child process so a crashing
// script cannot take the session down.
type ExecTestCaseRunner struct {
	runner     devices.Runner
	executable string
	globalArgs []string
}

// NewExecTestCaseRunner re-executes the current binary. globalArgs are passed
// before the subcommand (--adb, --verbose).
func NewExecTestCaseRunner(runner devices.Runner, globalArgs ...string) (*ExecTestCaseRunner, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to locate executable: %w", err)
	}
	if runner == nil {
		runner = devices.ExecRunner{}
	}
	return &ExecTestCaseRunner{runner: runner, executable: exe, globalArgs: globalArgs}, nil
}

func (r *ExecTestCaseRunner) Command(opts testcase.Options) []string {
	args := append([]string{r.executable}, r.globalArgs...)
	args = append(args, "testcase")
	return append(args, opts.Args()...)
}

func (r *ExecTestCaseRunner) RunTestCase(ctx context.Context, opts testcase.Options) error {
	cmd := r.Command(opts)
	utils.Verbose("Executing test case: %s", strings.Join(cmd, " "))

	output, err := r.runner.Run(ctx, cmd[0], cmd[1:]...)
	if len(output) > 0 {
		utils.Verbose("%s", strings.TrimSpace(string(output)))
	}
	if err == nil {
		return nil
	}

	// exit status 1 means the tests ran and some of them failed
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 && ctx.Err() == nil {
		return nil
	}
	return err
}
