package session

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/groundupworks/yksp/apk"
	"github.com/groundupworks/yksp/config"
	"github.com/groundupworks/yksp/devices"
	"github.com/groundupworks/yksp/devices/devicestest"
	"github.com/groundupworks/yksp/script"
	"github.com/groundupworks/yksp/testcase"
)

const (
	serial = "0123456789ABCDEF"
	pkg    = "com.groundupworks.flyingphotobooth"
)

const captureScript = `name: CaptureTestCase
tests:
  - name: testSingleCapture
    steps:
      - action: launch
      - {action: find, text: PHOTO 1 OF 2}
`

const backupConfirm = `<hierarchy rotation="0">
<node class="android.widget.FrameLayout" package="com.android.backupconfirm" bounds="[0,0][1080,1920]">
<node class="android.widget.Button" resource-id="com.android.backupconfirm:id/button_allow" text="Back up my data" enabled="true" bounds="[600,1700][1000,1800]" />
</node></hierarchy>`

var startedAt = time.Date(2013, 8, 24, 10, 30, 0, 0, time.Local)

type fakeTests struct {
	opts   []testcase.Options
	result testcase.Result
	err    error
}

func (f *fakeTests) RunTestCase(ctx context.Context, opts testcase.Options) error {
	f.opts = append(f.opts, opts)
	if f.err != nil {
		return f.err
	}
	r := f.result
	return testcase.WriteResult(filepath.Join(opts.Root, testcase.ResultFileName), &r)
}

func backupArchive(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("ANDROID BACKUP\n1\n0\nnone\n")

	tw := tar.NewWriter(&buf)
	content := []byte("<map><boolean name=\"first_run\" value=\"false\" /></map>")
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name:     "apps/" + pkg + "/sp/prefs.xml",
		Typeflag: tar.TypeReg,
		Mode:     0o600,
		Size:     int64(len(content)),
	}))
	_, err := tw.Write(content)
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	return buf.Bytes()
}

type harness struct {
	dir    string
	cfg    *config.Config
	runner *devicestest.FakeRunner
	tests  *fakeTests
	out    bytes.Buffer
	events []Event
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		dir:    t.TempDir(),
		cfg:    config.Default(),
		tests:  &fakeTests{result: testcase.Result{Suite: "CaptureTestCase", Ran: 1}},
		runner: devicestest.NewFakeRunner(),
	}

	require.NoError(t, os.WriteFile(filepath.Join(h.dir, "flying-photo-booth.apk"), []byte("PK"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(h.dir, "scripts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, "scripts", "testCapture.yaml"), []byte(captureScript), 0o644))

	archive := backupArchive(t)
	prefix := "-s " + serial + " "
	h.runner.
		On("dump badging", "package: name='"+pkg+"' versionCode='12' versionName='2.1.0'\n").
		On("devices", "List of devices attached\n"+serial+"\tdevice\nemulator-5554\toffline\n\n").
		On(prefix+"shell getprop ro.product.model", "Nexus 5\n").
		On(prefix+"shell getprop", "[ro.product.manufacturer]: [LGE]\n[ro.product.model]: [Nexus 5]\n[ro.build.version.sdk]: [19]\n").
		On(prefix+"install", "Success\n").
		On(prefix+"shell pm clear", "Success\n").
		On(prefix+"exec-out cat", backupConfirm).
		OnStart(prefix+"logcat -v", true, func(args []string, w io.Writer) error {
			_, err := io.WriteString(w, "08-24 10:30:01.000  1234  1234 I ActivityManager: Start proc\n")
			return err
		}).
		OnStart(prefix+"backup -f", false, func(args []string, w io.Writer) error {
			return os.WriteFile(args[4], archive, 0o644)
		})
	return h
}

func (h *harness) session() *Session {
	return New(h.cfg, devices.NewBridge("adb", h.runner), h.tests,
		WithWorkDir(h.dir),
		WithOutput(&h.out),
		WithObserver(func(e Event) { h.events = append(h.events, e) }),
		WithClock(func() time.Time { return startedAt }),
		WithSleep(func(ctx context.Context, d time.Duration) error { return nil }),
	)
}

func TestRun_FullSession(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := newHarness(t)
	hook := devices.NewShutdownHook()
	s := New(h.cfg, devices.NewBridge("adb", h.runner), h.tests,
		WithWorkDir(h.dir),
		WithOutput(&h.out),
		WithShutdownHook(hook),
		WithClock(func() time.Time { return startedAt }),
		WithSleep(func(ctx context.Context, d time.Duration) error { return nil }),
	)

	summary, err := s.Run(context.Background())
	require.NoError(t, err)

	sessionDir := filepath.Join(h.dir, "results", "2013-08-24-10-30-00")
	assert.Equal(t, sessionDir, summary.Dir)
	assert.Equal(t, 1, summary.Passed)
	assert.True(t, summary.Successful())
	assert.Equal(t, s.ID(), summary.ID)

	serials, err := os.ReadFile(filepath.Join(sessionDir, SerialsFileName))
	require.NoError(t, err)
	assert.Equal(t, serial+"\tdevice\nemulator-5554\toffline\n\n", string(serials))

	deviceRoot := filepath.Join(sessionDir, "Nexus-5-["+serial+"]")
	assert.FileExists(t, filepath.Join(deviceRoot, PropertiesFileName))

	dirResults := filepath.Join(deviceRoot, "testCapture")
	assert.FileExists(t, filepath.Join(dirResults, "testCapture.yaml"))
	assert.DirExists(t, filepath.Join(dirResults, DataDirName))

	logcat, err := os.ReadFile(filepath.Join(dirResults, LogcatFileName))
	require.NoError(t, err)
	assert.Contains(t, string(logcat), "ActivityManager")

	prefs := filepath.Join(dirResults, DataDirName, "apps", pkg, "sp", "prefs.xml")
	assert.FileExists(t, prefs)

	require.Len(t, h.tests.opts, 1)
	assert.Equal(t, testcase.Options{
		Package:     pkg,
		Serial:      serial,
		Root:        dirResults,
		Logs:        TestLogFileName,
		Screenshots: ScreenshotsDirName,
		Screendumps: ScreendumpsDirName,
		Script:      filepath.Join(dirResults, "testCapture.yaml"),
	}, h.tests.opts[0])

	require.Len(t, summary.Devices, 2)
	assert.Equal(t, "Nexus 5", summary.Devices[0].Model)
	assert.Equal(t, "19", summary.Devices[0].Properties[devices.PropSDK])
	assert.Equal(t, 1, summary.Devices[0].Cases[0].DataFiles)
	assert.True(t, summary.Devices[1].Skipped)
	assert.False(t, h.runner.Called("-s emulator-5554"))

	lines := h.runner.Lines()
	prefix := "-s " + serial + " "
	assert.Contains(t, lines, prefix+"uninstall "+pkg)
	assert.Contains(t, lines, prefix+"install "+filepath.Join(h.dir, "flying-photo-booth.apk"))
	assert.Contains(t, lines, prefix+"logcat -c")
	assert.Contains(t, lines, prefix+"shell input keyevent KEYCODE_HOME")
	assert.Contains(t, lines, prefix+"shell am force-stop "+BackupConfirmPackage)
	assert.Contains(t, lines, prefix+"shell input tap 800 1750")
	assert.Contains(t, lines, prefix+"shell pm clear "+pkg)
	assert.Equal(t, prefix+"uninstall "+pkg, lines[len(lines)-1])

	for _, p := range h.runner.Processes() {
		assert.True(t, p.Exited(), "%s still running", p.Call.Line())
	}
	assert.Equal(t, 0, hook.Count(), "finished processes must be unregistered")

	out := h.out.String()
	assert.Contains(t, out, "Package name: "+pkg+"\nVersion name: 2.1.0\nVersion code: 12\n")
	assert.Contains(t, out, "Script 1: testCapture.yaml")
	assert.Contains(t, out, "Device 1: "+serial+"\nDevice 2: emulator-5554\n")
	assert.Contains(t, out, "[ro.product.manufacturer]: [LGE]\n[ro.product.model]: [Nexus 5]\n[ro.build.version.sdk]: [19]\n")
	assert.Contains(t, out, "Preparing test case 1 of 1 [testCapture.yaml] on "+serial+" [Nexus 5]...")
	assert.Contains(t, out, "App data downloaded")

	saved, err := ReadSummary(filepath.Join(sessionDir, SummaryFileName))
	require.NoError(t, err)
	assert.Equal(t, summary.ID, saved.ID)
	assert.Equal(t, pkg, saved.Package.Name)
}

func TestRun_Events(t *testing.T) {
	h := newHarness(t)
	_, err := h.session().Run(context.Background())
	require.NoError(t, err)

	var types []string
	for _, e := range h.events {
		types = append(types, e.Type)
	}
	assert.Equal(t, []string{
		EventSessionStarted,
		EventDeviceStarted,
		EventTestCaseStarted,
		EventTestCaseFinished,
		EventDeviceFinished,
		EventDeviceSkipped,
		EventSessionFinished,
	}, types)

	finished := h.events[3]
	require.NotNil(t, finished.Case)
	assert.Equal(t, OutcomePassed, finished.Case.Outcome)
}

func TestRun_BackupNotConfirmed(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := newHarness(t)
	h.runner.On("-s "+serial+" exec-out cat", `<hierarchy rotation="0"><node class="android.widget.FrameLayout" bounds="[0,0][10,10]" /></hierarchy>`)
	h.runner.OnStart("-s "+serial+" backup -f", true, func(args []string, w io.Writer) error {
		return os.WriteFile(args[4], []byte("ANDROID BACKUP\n"), 0o644)
	})
	h.tests.result = testcase.Result{Ran: 2, Failures: 1}

	summary, err := h.session().Run(context.Background())
	require.NoError(t, err)

	cs := summary.Devices[0].Cases[0]
	assert.Equal(t, OutcomeFailed, cs.Outcome)
	assert.Equal(t, -1, cs.DataFiles)
	assert.Equal(t, 1, summary.Failed)
	assert.False(t, summary.Successful())
	assert.NoFileExists(t, filepath.Join(cs.Dir, BackupFileName))
	assert.Contains(t, h.out.String(), "Failed to download app data")

	var backupProc *devicestest.FakeProcess
	for _, p := range h.runner.Processes() {
		if strings.Contains(p.Call.Line(), "backup -f") {
			backupProc = p
		}
	}
	require.NotNil(t, backupProc)
	assert.True(t, backupProc.Stopped())
	assert.True(t, h.runner.Called("-s "+serial+" shell pm clear"))
}

func TestRun_TestCaseCouldNotRun(t *testing.T) {
	h := newHarness(t)
	h.tests.err = errors.New("signal: killed")
	h.cfg.Backup.Disabled = true

	summary, err := h.session().Run(context.Background())
	require.NoError(t, err)

	cs := summary.Devices[0].Cases[0]
	assert.Equal(t, OutcomeError, cs.Outcome)
	assert.Equal(t, "signal: killed", cs.Message)
	assert.False(t, h.runner.Called("-s "+serial+" backup"))
}

func TestRun_InstallFailure(t *testing.T) {
	h := newHarness(t)
	h.runner.On("-s "+serial+" install", "Failure [INSTALL_FAILED_OLDER_SDK]\n")

	summary, err := h.session().Run(context.Background())
	require.NoError(t, err)

	assert.Contains(t, summary.Devices[0].Error, "INSTALL_FAILED_OLDER_SDK")
	assert.Empty(t, h.tests.opts)
	assert.Equal(t, 0, summary.Passed)
	assert.Equal(t, len(summary.Scripts), summary.Failed)
	assert.False(t, summary.Successful())
}

func TestRun_Archive(t *testing.T) {
	h := newHarness(t)
	h.cfg.Session.Archive = "session.zip"

	summary, err := h.session().Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(h.dir, "session.zip"), summary.Archive)
	assert.FileExists(t, summary.Archive)
}

func TestRun_ValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T, h *harness)
		want    error
		message string
	}{
		{
			name: "no apk",
			prepare: func(t *testing.T, h *harness) {
				require.NoError(t, os.Remove(filepath.Join(h.dir, "flying-photo-booth.apk")))
			},
			want:    apk.ErrNoAPK,
			message: "Failed to find APK",
		},
		{
			name: "apk without package line",
			prepare: func(t *testing.T, h *harness) {
				h.runner.On("dump badging", "ERROR: dump failed because no AndroidManifest.xml found\n")
			},
			want:    apk.ErrInvalidAPK,
			message: "Failed to validate APK",
		},
		{
			name: "no scripts",
			prepare: func(t *testing.T, h *harness) {
				require.NoError(t, os.RemoveAll(filepath.Join(h.dir, "scripts")))
			},
			want:    script.ErrNoScripts,
			message: "No test scripts available",
		},
		{
			name: "invalid script",
			prepare: func(t *testing.T, h *harness) {
				require.NoError(t, os.WriteFile(filepath.Join(h.dir, "scripts", "broken.yaml"), []byte("tests: []\n"), 0o644))
			},
			want:    ErrInvalidScript,
			message: "Invalid test script broken.yaml",
		},
		{
			name: "no devices",
			prepare: func(t *testing.T, h *harness) {
				h.runner.On("devices", "List of devices attached\n\n")
			},
			want:    devices.ErrNoDevices,
			message: "No devices available",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			tt.prepare(t, h)

			_, err := h.session().Run(context.Background())
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, IsValidationError(err))
			assert.Contains(t, h.out.String(), tt.message)
			assert.False(t, h.runner.Called("-s "+serial+" install"))
		})
	}
}

func TestDeviceDirName(t *testing.T) {
	tests := []struct {
		model, serial, want string
	}{
		{"Nexus 5", "0123", "Nexus-5-[0123]"},
		{"Galaxy  Nexus\t(GSM)", "abc", "Galaxy-Nexus-(GSM)-[abc]"},
		{"", "emulator-5554", "-[emulator-5554]"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, DeviceDirName(tt.model, tt.serial))
		})
	}
}

func TestExecTestCaseRunner(t *testing.T) {
	runner := devicestest.NewFakeRunner()
	r := &ExecTestCaseRunner{runner: runner, executable: "/usr/local/bin/yksp", globalArgs: []string{"--adb", "/opt/adb"}}
	opts := testcase.Options{Package: pkg, Serial: serial, Root: "/r", Logs: "testlog.txt", Screenshots: "s", Screendumps: "d", Script: "/r/t.yaml"}

	cmd := r.Command(opts)
	assert.Equal(t, "/usr/local/bin/yksp", cmd[0])
	assert.Equal(t, []string{"--adb", "/opt/adb", "testcase", "--package", pkg}, cmd[1:6])
	assert.Equal(t, "/r/t.yaml", cmd[len(cmd)-1])

	require.NoError(t, r.RunTestCase(context.Background(), opts))
	calls := runner.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "/usr/local/bin/yksp", calls[0].Name)

	runner.OnError("--adb", "", errors.New("fork/exec: no such file"))
	assert.Error(t, r.RunTestCase(context.Background(), opts))
}
