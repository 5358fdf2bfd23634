package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/groundupworks/yksp/cli"
	"github.com/groundupworks/yksp/commands"
	"github.com/groundupworks/yksp/devices"
)

const (
	// interruptedExitCode follows the shell convention for SIGINT.
	interruptedExitCode = 130

	// shutdownGrace bounds the cleanup a cancelled command may still do.
	shutdownGrace = 15 * time.Second
)

func main() {
	// track background processes (logcat, backup) so a signal stops them
	hook := devices.NewShutdownHook()
	commands.SetShutdownHook(hook)

	// setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// run command in goroutine
	done := make(chan error, 1)
	go func() {
		done <- cli.Execute(ctx)
	}()

	// wait for command completion or signal
	select {
	case <-sigChan:
		cancel()
		_ = hook.Shutdown()
		select {
		case <-done:
		case <-time.After(shutdownGrace):
		case <-sigChan:
		}
		os.Exit(interruptedExitCode)
	case err := <-done:
		if err != nil {
			os.Exit(exitCode(err))
		}
	}
}

func exitCode(err error) int {
	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			fmt.Fprintln(os.Stderr, exitErr.Err)
		}
		return exitErr.Code
	}
	fmt.Fprintln(os.Stderr, err)
	return 1
}
