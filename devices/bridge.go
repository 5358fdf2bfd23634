package devices

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// StateDevice is the adb state of an attached, authorized device.
const StateDevice = "device"

// propertyCacheSize bounds the getprop cache, one entry per serial.
const propertyCacheSize = 64

var (
	ErrNoDevices      = errors.New("no devices available")
	ErrDeviceNotFound = errors.New("device not found")
)

// DeviceEntry is a single line of `adb devices`.
type DeviceEntry struct {
	Serial string `json:"serial"`
	State  string `json:"state"`
}

// Online reports whether the device can accept commands.
func (e DeviceEntry) Online() bool {
	return e.State == StateDevice
}

// Bridge talks to the adb server through the adb executable.
type Bridge struct {
	path   string
	runner Runner
	props  *lru.Cache[string, Properties]
}

// NewBridge creates a bridge using the adb binary at path. A nil runner uses os/exec.
func NewBridge(path string, runner Runner) *Bridge {
	if path == "" {
		path = "adb"
	}
	if runner == nil {
		runner = ExecRunner{}
	}

	// only fails for a non-positive size
	cache, _ := lru.New[string, Properties](propertyCacheSize)

	return &Bridge{
		path:   path,
		runner: runner,
		props:  cache,
	}
}

// Path returns the adb executable used by the bridge.
func (b *Bridge) Path() string {
	return b.path
}

// Runner returns the command runner, other tools (aapt) share it.
func (b *Bridge) Runner() Runner {
	return b.runner
}

func (b *Bridge) run(ctx context.Context, args ...string) ([]byte, error) {
	return b.runner.Run(ctx, b.path, args...)
}

func (b *Bridge) start(ctx context.Context, w io.Writer, args ...string) (Process, error) {
	return b.runner.Start(ctx, w, b.path, args...)
}

// DevicesOutput returns the raw `adb devices` listing without its header line.
func (b *Bridge) DevicesOutput(ctx context.Context) (string, error) {
	output, err := b.run(ctx, "devices")
	if err != nil {
		return "", fmt.Errorf("failed to run 'adb devices': %w", err)
	}

	var lines []string
	for _, line := range strings.Split(string(output), "\n") {
		if strings.Contains(line, "List of devices") || strings.HasPrefix(line, "* ") {
			continue
		}
		lines = append(lines, line)
	}

	return strings.Join(lines, "\n"), nil
}

// Devices lists every device adb knows about, whatever its state.
func (b *Bridge) Devices(ctx context.Context) ([]DeviceEntry, error) {
	output, err := b.DevicesOutput(ctx)
	if err != nil {
		return nil, err
	}
	return parseAdbDevicesOutput(output), nil
}

// ParseDevices parses an `adb devices` listing, with or without its header.
func ParseDevices(output string) []DeviceEntry {
	return parseAdbDevicesOutput(output)
}

func parseAdbDevicesOutput(output string) []DeviceEntry {
	var entries []DeviceEntry

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "List of devices") || strings.HasPrefix(line, "*") {
			continue
		}

		parts := strings.Fields(line)
		entry := DeviceEntry{Serial: parts[0]}
		if len(parts) > 1 {
			entry.State = parts[1]
		}
		entries = append(entries, entry)
	}

	return entries
}

// Device returns a handle for serial without checking that it is attached.
func (b *Bridge) Device(serial string) *AndroidDevice {
	return &AndroidDevice{serial: serial, bridge: b}
}

// FindDevice returns the online device with the given serial. An empty serial
// auto-selects the only online device.
func (b *Bridge) FindDevice(ctx context.Context, serial string) (*AndroidDevice, error) {
	entries, err := b.Devices(ctx)
	if err != nil {
		return nil, err
	}

	var online []DeviceEntry
	for _, e := range entries {
		if e.Online() {
			online = append(online, e)
		}
	}

	if serial != "" {
		for _, e := range entries {
			if e.Serial != serial {
				continue
			}
			if !e.Online() {
				return nil, fmt.Errorf("device %s is %s", serial, e.State)
			}
			return b.Device(serial), nil
		}
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, serial)
	}

	if len(online) == 0 {
		return nil, ErrNoDevices
	}

	if len(online) > 1 {
		return nil, fmt.Errorf("multiple devices found (%d), please specify --device with one of: %s", len(online), serialList(online))
	}

	return b.Device(online[0].Serial), nil
}

// serialList returns a bracketed, comma-separated list of serials for error messages
func serialList(entries []DeviceEntry) string {
	var ids []string
	for _, e := range entries {
		ids = append(ids, e.Serial)
	}
	return fmt.Sprintf("[%s]", strings.Join(ids, ", "))
}
