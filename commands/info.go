package commands

import (
	"context"
	"fmt"
)

// InfoRequest selects the device whose properties are returned
type InfoRequest struct {
	DeviceID string `json:"deviceId"`
	// All returns every property instead of the summary set.
	All bool `json:"all,omitempty"`
}

// InfoCommand returns the getprop properties of a device
func InfoCommand(ctx context.Context, req InfoRequest) *CommandResponse {
	targetDevice, err := FindDeviceOrAutoSelect(ctx, req.DeviceID)
	if err != nil {
		return NewErrorResponse(err)
	}

	props, err := targetDevice.Properties(ctx)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("error getting device info: %v", err))
	}

	if req.All {
		return NewSuccessResponse(map[string]interface{}{
			"id":         targetDevice.ID(),
			"properties": props,
		})
	}

	return NewSuccessResponse(map[string]interface{}{
		"id":         targetDevice.ID(),
		"type":       targetDevice.DeviceType(),
		"properties": props.Summary(),
	})
}
