package commands

import (
	"context"
	"fmt"
	"sync"

	"github.com/groundupworks/yksp/config"
	"github.com/groundupworks/yksp/devices"
)

// CommandResponse represents a standardized response format for all commands
type CommandResponse struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data interface{}) *CommandResponse {
	return &CommandResponse{
		Status: "ok",
		Data:   data,
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(err error) *CommandResponse {
	return &CommandResponse{
		Status: "error",
		Error:  err.Error(),
	}
}

var (
	mu           sync.RWMutex
	cfg          = config.Default()
	bridge       *devices.Bridge
	shutdownHook *devices.ShutdownHook
)

// SetConfig sets the configuration used by every command. It resets the
// bridge so the configured adb is picked up.
func SetConfig(c *config.Config) {
	mu.Lock()
	defer mu.Unlock()
	cfg = c
	bridge = nil
}

func GetConfig() *config.Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// SetBridge replaces the adb bridge, tests use it to install a fake runner.
func SetBridge(b *devices.Bridge) {
	mu.Lock()
	defer mu.Unlock()
	bridge = b
}

// GetBridge returns the bridge, creating one for the configured adb on first use.
func GetBridge() *devices.Bridge {
	mu.Lock()
	defer mu.Unlock()
	if bridge == nil {
		bridge = devices.NewBridge(cfg.Tools.Adb, nil)
	}
	return bridge
}

// SetShutdownHook sets the global shutdown hook for background processes.
// This should be called once at application startup.
func SetShutdownHook(hook *devices.ShutdownHook) {
	mu.Lock()
	defer mu.Unlock()
	shutdownHook = hook
}

// GetShutdownHook returns the current shutdown hook, nil before SetShutdownHook.
func GetShutdownHook() *devices.ShutdownHook {
	mu.RLock()
	defer mu.RUnlock()
	return shutdownHook
}

// FindDeviceOrAutoSelect finds a device by ID, or auto-selects if deviceID is empty
func FindDeviceOrAutoSelect(ctx context.Context, deviceID string) (*devices.AndroidDevice, error) {
	device, err := GetBridge().FindDevice(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("error finding device: %w", err)
	}
	return device, nil
}
