package testcase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/groundupworks/yksp/devices"
	"github.com/groundupworks/yksp/utils"
	"github.com/groundupworks/yksp/viewclient"
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// screenCounter numbers saved screens across every test of a run.
type screenCounter struct {
	next int
}

// Case is the per-test fixture: a connected device and a view client over it.
type Case struct {
	opts    Options
	device  *devices.AndroidDevice
	vc      *viewclient.Client
	sleep   SleepFunc
	screens *screenCounter
	saved   []string
}

func newCase(opts Options, sleep SleepFunc, screens *screenCounter) *Case {
	return &Case{opts: opts, sleep: sleep, screens: screens}
}

// SetUp connects to the device, wakes it and builds the view client.
func (c *Case) SetUp(ctx context.Context, bridge *devices.Bridge) error {
	device, err := bridge.FindDevice(ctx, c.opts.Serial)
	if err != nil {
		return fmt.Errorf("failed to connect to device: %w", err)
	}

	if err := device.Wake(ctx); err != nil {
		return fmt.Errorf("failed to wake device: %w", err)
	}

	c.device = device
	c.vc = viewclient.New(device)
	return nil
}

// TearDown force-stops the app under test.
func (c *Case) TearDown(ctx context.Context) error {
	if c.device == nil {
		return nil
	}
	return c.device.ForceStop(ctx, c.opts.Package)
}

func (c *Case) Device() *devices.AndroidDevice {
	return c.device
}

func (c *Case) ViewClient() *viewclient.Client {
	return c.vc
}

// StartActivity starts pkg/.activity. An empty pkg means the package under test.
func (c *Case) StartActivity(ctx context.Context, activity, pkg string) error {
	if pkg == "" {
		pkg = c.opts.Package
	}
	activity = strings.TrimPrefix(activity, ".")
	return c.device.StartActivity(ctx, fmt.Sprintf("%s/.%s", pkg, activity))
}

// LaunchApp starts the package under test from its launcher entry.
func (c *Case) LaunchApp(ctx context.Context) error {
	return c.device.LaunchApp(ctx, c.opts.Package)
}

// SaveScreen writes a screenshot and a traversal of the refreshed view tree,
// both named after the running screen counter and the optional tag.
func (c *Case) SaveScreen(ctx context.Context, tag string, sleep time.Duration) error {
	if err := c.sleep(ctx, sleep); err != nil {
		return err
	}

	name := strconv.Itoa(c.screens.next)
	if tag != "" {
		name = name + "-" + tag
	}

	png, err := c.device.Screenshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to take screenshot: %w", err)
	}
	shot := filepath.Join(c.opts.Root, c.opts.Screenshots, name+".png")
	if err := os.WriteFile(shot, png, 0o644); err != nil {
		return fmt.Errorf("failed to save screenshot: %w", err)
	}

	if _, err := c.vc.Dump(ctx); err != nil {
		return fmt.Errorf("failed to dump screen: %w", err)
	}
	dump, err := os.Create(filepath.Join(c.opts.Root, c.opts.Screendumps, name+".txt"))
	if err != nil {
		return fmt.Errorf("failed to save screendump: %w", err)
	}
	err = c.vc.Traverse(dump)
	if cerr := dump.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to save screendump: %w", err)
	}

	utils.Verbose("Saved screen %s", name)
	c.saved = append(c.saved, name)
	c.screens.next++
	return nil
}

// RefreshScreen re-dumps the view tree without saving anything.
func (c *Case) RefreshScreen(ctx context.Context, sleep time.Duration) error {
	if err := c.sleep(ctx, sleep); err != nil {
		return err
	}
	if _, err := c.vc.Dump(ctx); err != nil {
		return fmt.Errorf("failed to dump screen: %w", err)
	}
	return nil
}

// Failure marks an unmet expectation, as opposed to an error talking to the device.
type Failure struct {
	Message string
}

func (f *Failure) Error() string {
	return f.Message
}

func Failf(format string, args ...interface{}) error {
	return &Failure{Message: fmt.Sprintf(format, args...)}
}

// IsFailure reports whether err is an assertion failure. Missing views count as failures.
func IsFailure(err error) bool {
	var f *Failure
	return errors.As(err, &f) || errors.Is(err, viewclient.ErrViewNotFound)
}
