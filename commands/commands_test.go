package commands

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groundupworks/yksp/apk"
	"github.com/groundupworks/yksp/config"
	"github.com/groundupworks/yksp/devices"
	"github.com/groundupworks/yksp/devices/devicestest"
)

const serial = "0123456789ABCDEF"

const screen = `<hierarchy rotation="0"><node class="android.widget.FrameLayout" bounds="[0,0][1080,1920]">
<node class="android.widget.Button" resource-id="com.example:id/ok" text="OK" bounds="[0,0][100,100]" />
</node></hierarchy>`

func setupFake(t *testing.T) *devicestest.FakeRunner {
	t.Helper()
	runner := devicestest.NewFakeRunner().
		On("devices", "List of devices attached\n"+serial+"\tdevice\nemulator-5554\toffline\n").
		On("-s "+serial+" shell getprop", "[ro.product.manufacturer]: [LGE]\n[ro.product.model]: [Nexus 5]\n[ro.build.version.sdk]: [19]\n[ro.build.version.release]: [4.4.2]\n[dalvik.vm.heapsize]: [512m]\n").
		On("-s "+serial+" exec-out cat", screen).
		On("-s "+serial+" exec-out screencap -p", "\x89PNG\r\n")

	SetConfig(config.Default())
	SetBridge(devices.NewBridge("adb", runner))
	t.Cleanup(func() {
		SetConfig(config.Default())
	})
	return runner
}

func TestDevicesCommand(t *testing.T) {
	setupFake(t)
	ctx := context.Background()

	resp := DevicesCommand(ctx, false)
	require.Equal(t, "ok", resp.Status)
	list := resp.Data.(map[string]interface{})["devices"].([]DeviceInfo)
	require.Len(t, list, 1)
	assert.Equal(t, DeviceInfo{
		ID: serial, State: "device", Type: "real",
		Manufacturer: "LGE", Model: "Nexus 5", SDK: "19", Release: "4.4.2",
	}, list[0])

	resp = DevicesCommand(ctx, true)
	list = resp.Data.(map[string]interface{})["devices"].([]DeviceInfo)
	require.Len(t, list, 2)
	assert.Equal(t, "emulator", list[1].Type)
	assert.Empty(t, list[1].Model)
}

func TestInfoCommand(t *testing.T) {
	setupFake(t)

	resp := InfoCommand(context.Background(), InfoRequest{})
	require.Equal(t, "ok", resp.Status)
	props := resp.Data.(map[string]interface{})["properties"].(devices.Properties)
	assert.Len(t, props, 3)
	assert.Equal(t, "Nexus 5", props.Get(devices.PropModel))

	resp = InfoCommand(context.Background(), InfoRequest{DeviceID: serial, All: true})
	props = resp.Data.(map[string]interface{})["properties"].(devices.Properties)
	assert.Equal(t, "512m", props.Get("dalvik.vm.heapsize"))
}

func TestInputCommands(t *testing.T) {
	runner := setupFake(t)
	ctx := context.Background()
	prefix := "-s " + serial + " shell input "

	tests := []struct {
		name     string
		run      func() *CommandResponse
		wantLine string
		wantErr  string
	}{
		{
			name:     "tap",
			run:      func() *CommandResponse { return TapCommand(ctx, TapRequest{X: 10, Y: 20}) },
			wantLine: prefix + "tap 10 20",
		},
		{
			name:    "tap negative",
			run:     func() *CommandResponse { return TapCommand(ctx, TapRequest{X: -1, Y: 20}) },
			wantErr: "must be non-negative",
		},
		{
			name:     "long press",
			run:      func() *CommandResponse { return LongPressCommand(ctx, LongPressRequest{X: 5, Y: 6}) },
			wantLine: prefix + "swipe 5 6 5 6 1000",
		},
		{
			name:     "swipe default duration",
			run:      func() *CommandResponse { return SwipeCommand(ctx, SwipeRequest{X1: 1, Y1: 2, X2: 3, Y2: 4}) },
			wantLine: prefix + "swipe 1 2 3 4 500",
		},
		{
			name:     "swipe with duration",
			run:      func() *CommandResponse { return SwipeCommand(ctx, SwipeRequest{X1: 1, Y1: 2, X2: 3, Y2: 4, DurationMs: 250}) },
			wantLine: prefix + "swipe 1 2 3 4 250",
		},
		{
			name:     "button alias",
			run:      func() *CommandResponse { return ButtonCommand(ctx, ButtonRequest{Button: "home"}) },
			wantLine: prefix + "keyevent KEYCODE_HOME",
		},
		{
			name:    "unknown button",
			run:     func() *CommandResponse { return ButtonCommand(ctx, ButtonRequest{Button: "teleport"}) },
			wantErr: "teleport",
		},
		{
			name:     "text",
			run:      func() *CommandResponse { return TextCommand(ctx, TextRequest{Text: "hello world"}) },
			wantLine: prefix + "text hello%sworld",
		},
		{
			name:    "missing device",
			run:     func() *CommandResponse { return TapCommand(ctx, TapRequest{DeviceID: "nope", X: 1, Y: 1}) },
			wantErr: "device not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := tt.run()
			if tt.wantErr != "" {
				assert.Equal(t, "error", resp.Status)
				assert.Contains(t, resp.Error, tt.wantErr)
				return
			}
			assert.Equal(t, "ok", resp.Status, resp.Error)
			assert.Contains(t, runner.Lines(), tt.wantLine)
		})
	}
}

func TestDumpUICommand(t *testing.T) {
	setupFake(t)
	ctx := context.Background()

	resp := DumpUICommand(ctx, DumpUIRequest{Format: "text"})
	require.Equal(t, "ok", resp.Status, resp.Error)
	assert.Contains(t, resp.Data.(DumpUIResponse).Text, "android.widget.Button com.example:id/ok OK (50, 50) 100x100")

	resp = DumpUICommand(ctx, DumpUIRequest{})
	require.Equal(t, "ok", resp.Status)
	views := resp.Data.(DumpUIResponse).Views
	require.Len(t, views, 1)
	assert.Equal(t, "id/no_id/1", views[0].ID)
	assert.Len(t, views[0].Children, 1)

	resp = DumpUICommand(ctx, DumpUIRequest{Format: "xml"})
	assert.Equal(t, "error", resp.Status)
}

func TestScreenshotCommand(t *testing.T) {
	setupFake(t)
	ctx := context.Background()

	resp := ScreenshotCommand(ctx, ScreenshotRequest{OutputPath: "-"})
	require.Equal(t, "ok", resp.Status, resp.Error)
	data := resp.Data.(ScreenshotResponse).Data
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("\x89PNG\r\n")), data)

	out := filepath.Join(t.TempDir(), "screen.png")
	resp = ScreenshotCommand(ctx, ScreenshotRequest{OutputPath: out})
	require.Equal(t, "ok", resp.Status, resp.Error)
	assert.FileExists(t, out)

	resp = ScreenshotCommand(ctx, ScreenshotRequest{Format: "gif"})
	assert.Contains(t, resp.Error, "invalid format 'gif'")
}

func TestAppCommands(t *testing.T) {
	runner := setupFake(t)
	runner.On("-s "+serial+" shell pm clear", "Success\n")
	ctx := context.Background()

	resp := LaunchAppCommand(ctx, AppRequest{PackageName: "com.example"})
	require.Equal(t, "ok", resp.Status, resp.Error)
	assert.True(t, runner.Called("-s "+serial+" shell monkey -p com.example"))

	resp = ClearAppDataCommand(ctx, AppRequest{PackageName: "com.example"})
	require.Equal(t, "ok", resp.Status, resp.Error)

	resp = InstallAppCommand(ctx, AppRequest{})
	assert.Contains(t, resp.Error, "apk path is required")

	runner.On("-s "+serial+" uninstall", "Failure [DELETE_FAILED_INTERNAL_ERROR]\n")
	resp = UninstallAppCommand(ctx, AppRequest{PackageName: "com.example"})
	assert.Contains(t, resp.Error, "DELETE_FAILED_INTERNAL_ERROR")
}

func TestAPKCommand(t *testing.T) {
	runner := setupFake(t)
	runner.On("dump badging", "package: name='com.example' versionCode='3' versionName='1.0'\n")

	resp := APKCommand(context.Background(), APKRequest{Path: "app.apk"})
	require.Equal(t, "ok", resp.Status, resp.Error)
	info := resp.Data.(*apk.PackageInfo)
	assert.Equal(t, "com.example", info.Name)
	assert.Equal(t, "app.apk", info.File)
}

func TestBackupExtractCommand(t *testing.T) {
	resp := BackupExtractCommand(BackupExtractRequest{})
	assert.Equal(t, "error", resp.Status)

	file := filepath.Join(t.TempDir(), "data.ab")
	require.NoError(t, os.WriteFile(file, []byte("not a backup\n"), 0o644))
	resp = BackupExtractCommand(BackupExtractRequest{File: file, Dir: t.TempDir()})
	assert.Contains(t, resp.Error, "not an android backup archive")
}
