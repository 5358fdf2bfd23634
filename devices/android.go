package devices

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

const (
	// remote path used for uiautomator hierarchy dumps
	windowDumpPath = "/sdcard/window_dump.xml"
)

// Point is a screen coordinate in pixels.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// AndroidDevice runs adb commands against a single serial.
type AndroidDevice struct {
	serial string
	bridge *Bridge
}

func (d *AndroidDevice) ID() string {
	return d.serial
}

func (d *AndroidDevice) Platform() string {
	return "android"
}

func (d *AndroidDevice) DeviceType() string {
	if strings.HasPrefix(d.serial, "emulator-") {
		return "emulator"
	}
	return "real"
}

func (d *AndroidDevice) runAdbCommand(ctx context.Context, args ...string) ([]byte, error) {
	cmdArgs := append([]string{"-s", d.serial}, args...)
	return d.bridge.run(ctx, cmdArgs...)
}

func (d *AndroidDevice) startAdbCommand(ctx context.Context, w io.Writer, args ...string) (Process, error) {
	cmdArgs := append([]string{"-s", d.serial}, args...)
	return d.bridge.start(ctx, w, cmdArgs...)
}

// Shell runs a shell command on the device and returns its output.
func (d *AndroidDevice) Shell(ctx context.Context, args ...string) (string, error) {
	output, err := d.runAdbCommand(ctx, append([]string{"shell"}, args...)...)
	return string(output), err
}

// RawProperties returns the unparsed getprop output and refreshes the property cache.
func (d *AndroidDevice) RawProperties(ctx context.Context) (string, error) {
	output, err := d.Shell(ctx, "getprop")
	if err != nil {
		return "", fmt.Errorf("failed to read properties of %s: %w", d.serial, err)
	}

	d.bridge.props.Add(d.serial, ParseProperties(output))
	return output, nil
}

// Properties returns the device properties, cached per serial.
func (d *AndroidDevice) Properties(ctx context.Context) (Properties, error) {
	if props, ok := d.bridge.props.Get(d.serial); ok {
		return props, nil
	}

	if _, err := d.RawProperties(ctx); err != nil {
		return nil, err
	}

	props, _ := d.bridge.props.Get(d.serial)
	return props, nil
}

// Model returns ro.product.model, read directly from the device.
func (d *AndroidDevice) Model(ctx context.Context) (string, error) {
	output, err := d.Shell(ctx, "getprop", PropModel)
	if err != nil {
		return "", fmt.Errorf("failed to read model of %s: %w", d.serial, err)
	}
	return strings.TrimSpace(output), nil
}

// Install installs the apk, replacing nothing: callers uninstall first.
func (d *AndroidDevice) Install(ctx context.Context, apkPath string) error {
	output, err := d.runAdbCommand(ctx, "install", apkPath)
	if err != nil {
		return fmt.Errorf("failed to install %s: %w", apkPath, err)
	}

	if strings.Contains(string(output), "Failure") {
		return fmt.Errorf("failed to install %s: %s", apkPath, strings.TrimSpace(string(output)))
	}

	return nil
}

func (d *AndroidDevice) Uninstall(ctx context.Context, packageName string) error {
	output, err := d.runAdbCommand(ctx, "uninstall", packageName)
	if err != nil {
		return fmt.Errorf("failed to uninstall %s: %w", packageName, err)
	}

	if strings.Contains(string(output), "Failure") {
		return fmt.Errorf("failed to uninstall %s: %s", packageName, strings.TrimSpace(string(output)))
	}

	return nil
}

// ClearData wipes the application data of packageName.
func (d *AndroidDevice) ClearData(ctx context.Context, packageName string) error {
	output, err := d.Shell(ctx, "pm", "clear", packageName)
	if err != nil {
		return fmt.Errorf("failed to clear data of %s: %w", packageName, err)
	}

	if !strings.Contains(output, "Success") {
		return fmt.Errorf("failed to clear data of %s: %s", packageName, strings.TrimSpace(output))
	}

	return nil
}

// PackageInstalled reports whether `pm path` knows the package.
func (d *AndroidDevice) PackageInstalled(ctx context.Context, packageName string) (bool, error) {
	output, err := d.Shell(ctx, "pm", "path", packageName)
	if err != nil {
		// pm exits non-zero for unknown packages on newer releases
		if strings.TrimSpace(output) == "" {
			return false, nil
		}
		return false, err
	}
	return strings.TrimSpace(output) != "", nil
}

func (d *AndroidDevice) ForceStop(ctx context.Context, packageName string) error {
	output, err := d.Shell(ctx, "am", "force-stop", packageName)
	if err != nil {
		return fmt.Errorf("failed to terminate app %s: %w\nOutput: %s", packageName, err, output)
	}

	return nil
}

// LaunchApp starts the launcher activity of packageName.
func (d *AndroidDevice) LaunchApp(ctx context.Context, packageName string) error {
	output, err := d.Shell(ctx, "monkey", "-p", packageName, "-c", "android.intent.category.LAUNCHER", "1")
	if err != nil {
		return fmt.Errorf("failed to launch app %s: %w\nOutput: %s", packageName, err, output)
	}

	if strings.Contains(output, "No activities found") {
		return fmt.Errorf("failed to launch app %s: no launcher activity", packageName)
	}

	return nil
}

// StartActivity starts a component given as package/activity.
func (d *AndroidDevice) StartActivity(ctx context.Context, component string) error {
	output, err := d.Shell(ctx, "am", "start", "-n", component)
	if err != nil {
		return fmt.Errorf("failed to start activity %s: %w", component, err)
	}

	if strings.Contains(output, "Error:") {
		return fmt.Errorf("failed to start activity %s: %s", component, strings.TrimSpace(output))
	}

	return nil
}

// Tap simulates a tap at (x, y) on the Android device.
func (d *AndroidDevice) Tap(ctx context.Context, x, y int) error {
	_, err := d.Shell(ctx, "input", "tap", strconv.Itoa(x), strconv.Itoa(y))
	if err != nil {
		return fmt.Errorf("failed to tap at (%d,%d): %w", x, y, err)
	}

	return nil
}

// Drag moves a finger from one point to another over duration.
func (d *AndroidDevice) Drag(ctx context.Context, from, to Point, duration time.Duration) error {
	ms := strconv.FormatInt(duration.Milliseconds(), 10)
	_, err := d.Shell(ctx, "input", "swipe",
		strconv.Itoa(from.X), strconv.Itoa(from.Y),
		strconv.Itoa(to.X), strconv.Itoa(to.Y), ms)
	if err != nil {
		return fmt.Errorf("failed to drag from %s to %s: %w", from, to, err)
	}

	return nil
}

// PressKey sends a key event. key is a KEYCODE_ name, a numeric code or a
// short alias such as "home" or "back".
func (d *AndroidDevice) PressKey(ctx context.Context, key string) error {
	keycode, err := KeyCode(key)
	if err != nil {
		return err
	}

	output, err := d.Shell(ctx, "input", "keyevent", keycode)
	if err != nil {
		return fmt.Errorf("failed to press %s: %w\nOutput: %s", key, err, output)
	}

	return nil
}

// SendText types text into the focused view.
func (d *AndroidDevice) SendText(ctx context.Context, text string) error {
	_, err := d.Shell(ctx, "input", "text", escapeInputText(text))
	if err != nil {
		return fmt.Errorf("failed to send text: %w", err)
	}
	return nil
}

// Wake turns the screen on. KEYCODE_WAKEUP does nothing when already awake.
func (d *AndroidDevice) Wake(ctx context.Context) error {
	return d.PressKey(ctx, "KEYCODE_WAKEUP")
}

// Screenshot returns the current screen as PNG bytes.
func (d *AndroidDevice) Screenshot(ctx context.Context) ([]byte, error) {
	byteData, err := d.runAdbCommand(ctx, "exec-out", "screencap", "-p")
	if err != nil {
		return nil, fmt.Errorf("failed to take screenshot: %w", err)
	}

	return byteData, nil
}

// DumpHierarchy returns the uiautomator XML of the current window.
func (d *AndroidDevice) DumpHierarchy(ctx context.Context) ([]byte, error) {
	output, err := d.Shell(ctx, "uiautomator", "dump", windowDumpPath)
	if err != nil {
		return nil, fmt.Errorf("failed to dump view hierarchy: %w", err)
	}

	if strings.Contains(output, "ERROR") {
		return nil, fmt.Errorf("failed to dump view hierarchy: %s", strings.TrimSpace(output))
	}

	data, err := d.runAdbCommand(ctx, "exec-out", "cat", windowDumpPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read view hierarchy: %w", err)
	}

	return data, nil
}

// ClearLogcat clears the logcat buffer.
func (d *AndroidDevice) ClearLogcat(ctx context.Context) error {
	if _, err := d.runAdbCommand(ctx, "logcat", "-c"); err != nil {
		return fmt.Errorf("failed to clear logcat: %w", err)
	}
	return nil
}

// StartLogcat streams logcat in the given output format to w until stopped.
func (d *AndroidDevice) StartLogcat(ctx context.Context, w io.Writer, format string) (Process, error) {
	return d.startAdbCommand(ctx, w, "logcat", "-v", format)
}

// StartBackup asks the device to back up packageName into file. The device
// waits for the user to confirm, so the process only completes after the
// confirmation screen is accepted.
func (d *AndroidDevice) StartBackup(ctx context.Context, file, packageName string) (Process, error) {
	return d.startAdbCommand(ctx, io.Discard, "backup", "-f", file, packageName)
}
