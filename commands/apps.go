package commands

import (
	"context"
	"fmt"
)

// AppRequest represents the parameters for app-related commands
type AppRequest struct {
	DeviceID    string `json:"deviceId"`
	PackageName string `json:"packageName"`
	// APKPath is only used by install.
	APKPath string `json:"apkPath,omitempty"`
}

func appCommand(ctx context.Context, req AppRequest, verb string, fn func(ctx context.Context, req AppRequest) error) *CommandResponse {
	targetDevice, err := FindDeviceOrAutoSelect(ctx, req.DeviceID)
	if err != nil {
		return NewErrorResponse(err)
	}
	req.DeviceID = targetDevice.ID()

	if err := fn(ctx, req); err != nil {
		return NewErrorResponse(fmt.Errorf("failed to %s app on device %s: %v", verb, targetDevice.ID(), err))
	}

	name := req.PackageName
	if name == "" {
		name = req.APKPath
	}
	return NewSuccessResponse(map[string]interface{}{
		"message": fmt.Sprintf("%s '%s' on device %s", pastTense[verb], name, targetDevice.ID()),
	})
}

var pastTense = map[string]string{
	"launch":    "Launched",
	"terminate": "Terminated",
	"install":   "Installed",
	"uninstall": "Uninstalled",
	"clear":     "Cleared data of",
}

// LaunchAppCommand launches an app on the specified device
func LaunchAppCommand(ctx context.Context, req AppRequest) *CommandResponse {
	if req.PackageName == "" {
		return NewErrorResponse(fmt.Errorf("package name is required"))
	}
	return appCommand(ctx, req, "launch", func(ctx context.Context, req AppRequest) error {
		return GetBridge().Device(req.DeviceID).LaunchApp(ctx, req.PackageName)
	})
}

// TerminateAppCommand force-stops an app on the specified device
func TerminateAppCommand(ctx context.Context, req AppRequest) *CommandResponse {
	if req.PackageName == "" {
		return NewErrorResponse(fmt.Errorf("package name is required"))
	}
	return appCommand(ctx, req, "terminate", func(ctx context.Context, req AppRequest) error {
		return GetBridge().Device(req.DeviceID).ForceStop(ctx, req.PackageName)
	})
}

// InstallAppCommand installs an APK on the specified device
func InstallAppCommand(ctx context.Context, req AppRequest) *CommandResponse {
	if req.APKPath == "" {
		return NewErrorResponse(fmt.Errorf("apk path is required"))
	}
	return appCommand(ctx, req, "install", func(ctx context.Context, req AppRequest) error {
		return GetBridge().Device(req.DeviceID).Install(ctx, req.APKPath)
	})
}

// UninstallAppCommand removes an app from the specified device
func UninstallAppCommand(ctx context.Context, req AppRequest) *CommandResponse {
	if req.PackageName == "" {
		return NewErrorResponse(fmt.Errorf("package name is required"))
	}
	return appCommand(ctx, req, "uninstall", func(ctx context.Context, req AppRequest) error {
		return GetBridge().Device(req.DeviceID).Uninstall(ctx, req.PackageName)
	})
}

// ClearAppDataCommand wipes the data of an app with `pm clear`
func ClearAppDataCommand(ctx context.Context, req AppRequest) *CommandResponse {
	if req.PackageName == "" {
		return NewErrorResponse(fmt.Errorf("package name is required"))
	}
	return appCommand(ctx, req, "clear", func(ctx context.Context, req AppRequest) error {
		return GetBridge().Device(req.DeviceID).ClearData(ctx, req.PackageName)
	})
}
