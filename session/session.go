// Package session drives a full test run: it finds the APK and the test
// scripts, then installs the app on every attached device and runs each script
// there, collecting logcat output and the app data after every test case.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/groundupworks/yksp/apk"
	"github.com/groundupworks/yksp/config"
	"github.com/groundupworks/yksp/devices"
	"github.com/groundupworks/yksp/script"
	"github.com/groundupworks/yksp/utils"
)

const (
	// DirTimeFormat names session directories after their start time.
	DirTimeFormat = "2006-01-02-15-04-05"

	SerialsFileName    = "serials.txt"
	PropertiesFileName = "device.txt"
	LogcatFileName     = "logcat.txt"
	TestLogFileName    = "testlog.txt"
	BackupFileName     = "data.ab"
	DataDirName        = "data"
	ScreenshotsDirName = "screenshots"
	ScreendumpsDirName = "screendumps"
)

var ErrInvalidScript = errors.New("invalid test script")

var whitespace = regexp.MustCompile(`\s+`)

// IsValidationError reports whether err stopped the session before any
// device work started because an input was missing or invalid.
func IsValidationError(err error) bool {
	return errors.Is(err, apk.ErrNoAPK) ||
		errors.Is(err, apk.ErrInvalidAPK) ||
		errors.Is(err, script.ErrNoScripts) ||
		errors.Is(err, ErrInvalidScript) ||
		errors.Is(err, devices.ErrNoDevices)
}

// DeviceDirName returns "<model>-[<serial>]" with whitespace runs in the
// model replaced by dashes.
func DeviceDirName(model, serial string) string {
	return fmt.Sprintf("%s-[%s]", whitespace.ReplaceAllString(model, "-"), serial)
}

type Session struct {
	id       string
	cfg      *config.Config
	bridge   *devices.Bridge
	tests    TestCaseRunner
	out      io.Writer
	observer Observer
	hook     *devices.ShutdownHook
	workDir  string
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
}

type Option func(*Session)

// WithOutput sets where progress messages are printed, stdout by default.
func WithOutput(w io.Writer) Option {
	return func(s *Session) { s.out = w }
}

func WithObserver(o Observer) Option {
	return func(s *Session) { s.observer = o }
}

// WithShutdownHook registers background processes so an interrupt stops them.
func WithShutdownHook(h *devices.ShutdownHook) Option {
	return func(s *Session) { s.hook = h }
}

// WithWorkDir sets the directory searched for the APK. Relative script and
// result paths are resolved against it too.
func WithWorkDir(dir string) Option {
	return func(s *Session) { s.workDir = dir }
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Session) { s.sleep = sleep }
}

func New(cfg *config.Config, bridge *devices.Bridge, tests TestCaseRunner, opts ...Option) *Session {
	s := &Session{
		id:      uuid.NewString(),
		cfg:     cfg,
		bridge:  bridge,
		tests:   tests,
		out:     os.Stdout,
		workDir: ".",
		now:     time.Now,
		sleep:   sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) printf(format string, args ...interface{}) {
	fmt.Fprintf(s.out, format+"\n", args...)
}

func (s *Session) emit(e Event) {
	if s.observer == nil {
		return
	}
	e.SessionID = s.id
	e.Time = s.now()
	s.observer(e)
}

func (s *Session) path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.workDir, p)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Run executes the whole session. Validation failures (no APK, no scripts, no
// devices) are returned before anything is installed, see IsValidationError.
func (s *Session) Run(ctx context.Context) (*Summary, error) {
	started := s.now()

	s.printf("Scanning for APK...")
	apkName, err := apk.Find(s.workDir)
	if err != nil {
		s.printf("Failed to find APK")
		return nil, err
	}
	apkPath := s.path(apkName)
	s.printf("APK found: %s", apkName)

	s.printf("Inspecting APK...")
	info, err := apk.Inspect(ctx, s.bridge.Runner(), s.cfg.Tools.Aapt, apkPath)
	if err != nil {
		s.printf("Failed to validate APK")
		return nil, err
	}
	s.printf("Package name: %s", info.Name)
	s.printf("Version name: %s", info.VersionName)
	s.printf("Version code: %s", info.VersionCode)

	scripts, err := s.findScripts()
	if err != nil {
		return nil, err
	}

	resultsDir := s.path(s.cfg.Paths.Results)
	if err := utils.EnsureDir(resultsDir); err != nil {
		return nil, fmt.Errorf("failed to create results directory: %w", err)
	}
	sessionDir := filepath.Join(resultsDir, started.Format(DirTimeFormat))
	if err := os.Mkdir(sessionDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	entries, err := s.findDevices(ctx, sessionDir)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		ID:      s.id,
		Dir:     sessionDir,
		Started: started,
		Package: info,
		Devices: []DeviceSummary{},
	}
	for _, sc := range scripts {
		summary.Scripts = append(summary.Scripts, filepath.Base(sc))
	}
	s.emit(Event{Type: EventSessionStarted, Message: sessionDir})

	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}

		if !entry.Online() {
			utils.Warn("Skipping %s, device is %s", entry.Serial, entry.State)
			s.printf("Skipping %s [%s]", entry.Serial, entry.State)
			summary.Devices = append(summary.Devices, DeviceSummary{
				Serial:  entry.Serial,
				State:   entry.State,
				Skipped: true,
				Cases:   []CaseSummary{},
			})
			s.emit(Event{Type: EventDeviceSkipped, Serial: entry.Serial, Message: entry.State})
			continue
		}

		ds := s.runDevice(ctx, info, apkPath, entry, sessionDir, scripts)
		summary.Devices = append(summary.Devices, ds)
	}

	summary.Finished = s.now()
	summary.count()

	summaryPath := filepath.Join(sessionDir, SummaryFileName)
	if err := writeSummary(summaryPath, summary); err != nil {
		return summary, err
	}

	if s.cfg.Session.Archive != "" {
		archive := s.path(s.cfg.Session.Archive)
		s.printf("Bundling results into %s...", archive)
		if err := utils.BundleDirectory(sessionDir, archive); err != nil {
			utils.Error("%v", err)
		} else {
			summary.Archive = archive
			if err := writeSummary(summaryPath, summary); err != nil {
				return summary, err
			}
		}
	}

	s.printf("Test session finished: %d passed, %d failed", summary.Passed, summary.Failed)
	s.emit(Event{Type: EventSessionFinished, Message: fmt.Sprintf("%d passed, %d failed", summary.Passed, summary.Failed)})

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

func (s *Session) findScripts() ([]string, error) {
	s.printf("Scanning for test scripts...")
	scripts, err := script.Find(s.path(s.cfg.Paths.Scripts))
	if err != nil {
		if errors.Is(err, script.ErrNoScripts) {
			s.printf("No test scripts available")
		}
		return nil, err
	}

	for i, path := range scripts {
		s.printf("Script %d: %s", i+1, filepath.Base(path))
		if _, err := script.Load(path); err != nil {
			s.printf("Invalid test script %s: %v", filepath.Base(path), err)
			return nil, fmt.Errorf("%w: %v", ErrInvalidScript, err)
		}
	}
	return scripts, nil
}

func (s *Session) findDevices(ctx context.Context, sessionDir string) ([]devices.DeviceEntry, error) {
	s.printf("Listing devices...")
	listing, err := s.bridge.DevicesOutput(ctx)
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(filepath.Join(sessionDir, SerialsFileName), []byte(listing), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", SerialsFileName, err)
	}

	entries := devices.ParseDevices(listing)
	for i, e := range entries {
		s.printf("Device %d: %s", i+1, e.Serial)
	}

	if len(entries) == 0 {
		s.printf("No devices available")
		return nil, devices.ErrNoDevices
	}
	return entries, nil
}

func (s *Session) runDevice(ctx context.Context, info *apk.PackageInfo, apkPath string, entry devices.DeviceEntry, sessionDir string, scripts []string) DeviceSummary {
	ds := DeviceSummary{Serial: entry.Serial, State: entry.State, Cases: []CaseSummary{}}
	device := s.bridge.Device(entry.Serial)
	s.emit(Event{Type: EventDeviceStarted, Serial: entry.Serial})
	defer func() {
		s.emit(Event{Type: EventDeviceFinished, Serial: entry.Serial, Message: ds.Error})
	}()

	model, err := device.Model(ctx)
	if err != nil {
		utils.Error("%v", err)
		ds.Error = err.Error()
		return ds
	}
	ds.Model = model

	deviceRoot := filepath.Join(sessionDir, DeviceDirName(model, entry.Serial))
	if err := os.Mkdir(deviceRoot, 0o755); err != nil {
		ds.Error = fmt.Sprintf("failed to create device directory: %v", err)
		utils.Error("%s", ds.Error)
		return ds
	}
	ds.Dir = deviceRoot

	props, err := s.collectDeviceProperties(ctx, device, deviceRoot)
	if err != nil {
		utils.Warn("%v", err)
	}
	ds.Properties = props

	s.printf("Installing APK...")
	if err := device.Uninstall(ctx, info.Name); err != nil {
		utils.Verbose("Nothing to uninstall: %v", err)
	}
	if err := device.Install(ctx, apkPath); err != nil {
		s.printf("Failed to install APK on %s", entry.Serial)
		utils.Error("%v", err)
		ds.Error = err.Error()
		return ds
	}

	for i, path := range scripts {
		if ctx.Err() != nil {
			break
		}
		s.printf("Preparing test case %d of %d [%s] on %s [%s]...", i+1, len(scripts), filepath.Base(path), entry.Serial, model)
		cs := s.executeTestCase(ctx, device, info.Name, deviceRoot, path)
		ds.Cases = append(ds.Cases, cs)
	}

	s.printf("Uninstalling application...")
	if err := device.Uninstall(context.WithoutCancel(ctx), info.Name); err != nil {
		utils.Warn("%v", err)
	}
	return ds
}

// collectDeviceProperties saves the full getprop listing and prints the
// manufacturer, model and SDK lines.
func (s *Session) collectDeviceProperties(ctx context.Context, device *devices.AndroidDevice, deviceRoot string) (map[string]string, error) {
	s.printf("Collecting device properties...")
	raw, err := device.RawProperties(ctx)
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(filepath.Join(deviceRoot, PropertiesFileName), []byte(raw), 0o644); err != nil {
		return nil, fmt.Errorf("failed to save device properties: %w", err)
	}

	all := devices.ParseProperties(raw)
	summary := make(map[string]string)
	for _, key := range devices.SummaryProperties {
		if line, ok := all.Line(key); ok {
			s.printf("%s", line)
			summary[key] = all.Get(key)
		}
	}
	return summary, nil
}
