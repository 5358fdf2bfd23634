package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/groundupworks/yksp/devices"
)

// DefaultSwipeDuration is used when a swipe request carries no duration.
const DefaultSwipeDuration = 500 * time.Millisecond

// LongPressDuration is how long the finger stays down for a long press.
const LongPressDuration = time.Second

// TapRequest represents the parameters for a tap command
type TapRequest struct {
	DeviceID string `json:"deviceId"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
}

// LongPressRequest represents the parameters for a long press command
type LongPressRequest struct {
	DeviceID string `json:"deviceId"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
}

// TextRequest represents the parameters for a text input command
type TextRequest struct {
	DeviceID string `json:"deviceId"`
	Text     string `json:"text"`
}

// ButtonRequest represents the parameters for a button press command
type ButtonRequest struct {
	DeviceID string `json:"deviceId"`
	Button   string `json:"button"`
}

// SwipeRequest represents the parameters for a swipe command
type SwipeRequest struct {
	DeviceID   string `json:"deviceId"`
	X1         int    `json:"x1"`
	Y1         int    `json:"y1"`
	X2         int    `json:"x2"`
	Y2         int    `json:"y2"`
	DurationMs int    `json:"durationMs,omitempty"`
}

// TapCommand performs a tap operation on the specified device
func TapCommand(ctx context.Context, req TapRequest) *CommandResponse {
	if req.X < 0 || req.Y < 0 {
		return NewErrorResponse(fmt.Errorf("x and y coordinates must be non-negative, got x=%d, y=%d", req.X, req.Y))
	}

	targetDevice, err := FindDeviceOrAutoSelect(ctx, req.DeviceID)
	if err != nil {
		return NewErrorResponse(err)
	}

	err = targetDevice.Tap(ctx, req.X, req.Y)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("failed to tap on device %s: %v", targetDevice.ID(), err))
	}

	return NewSuccessResponse(map[string]interface{}{
		"message": fmt.Sprintf("Tapped on device %s at (%d,%d)", targetDevice.ID(), req.X, req.Y),
	})
}

// LongPressCommand holds a finger on one point of the screen
func LongPressCommand(ctx context.Context, req LongPressRequest) *CommandResponse {
	if req.X < 0 || req.Y < 0 {
		return NewErrorResponse(fmt.Errorf("x and y coordinates must be non-negative, got x=%d, y=%d", req.X, req.Y))
	}

	targetDevice, err := FindDeviceOrAutoSelect(ctx, req.DeviceID)
	if err != nil {
		return NewErrorResponse(err)
	}

	p := devices.Point{X: req.X, Y: req.Y}
	err = targetDevice.Drag(ctx, p, p, LongPressDuration)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("failed to long press on device %s: %v", targetDevice.ID(), err))
	}

	return NewSuccessResponse(map[string]interface{}{
		"message": fmt.Sprintf("Long pressed on device %s at (%d,%d)", targetDevice.ID(), req.X, req.Y),
	})
}

// TextCommand sends text input to the specified device
func TextCommand(ctx context.Context, req TextRequest) *CommandResponse {
	if req.Text == "" {
		return NewErrorResponse(fmt.Errorf("text is required"))
	}

	targetDevice, err := FindDeviceOrAutoSelect(ctx, req.DeviceID)
	if err != nil {
		return NewErrorResponse(err)
	}

	err = targetDevice.SendText(ctx, req.Text)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("failed to send text to device %s: %v", targetDevice.ID(), err))
	}

	return NewSuccessResponse(map[string]interface{}{
		"message": fmt.Sprintf("Sent text to device %s", targetDevice.ID()),
	})
}

// ButtonCommand presses a hardware button on the specified device
func ButtonCommand(ctx context.Context, req ButtonRequest) *CommandResponse {
	if req.Button == "" {
		return NewErrorResponse(fmt.Errorf("button name is required"))
	}

	if _, err := devices.KeyCode(req.Button); err != nil {
		return NewErrorResponse(err)
	}

	targetDevice, err := FindDeviceOrAutoSelect(ctx, req.DeviceID)
	if err != nil {
		return NewErrorResponse(err)
	}

	err = targetDevice.PressKey(ctx, req.Button)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("failed to press button on device %s: %v", targetDevice.ID(), err))
	}

	return NewSuccessResponse(map[string]interface{}{
		"message": fmt.Sprintf("Pressed button '%s' on device %s", req.Button, targetDevice.ID()),
	})
}

// SwipeCommand performs a swipe operation on the specified device
func SwipeCommand(ctx context.Context, req SwipeRequest) *CommandResponse {
	if req.DurationMs < 0 {
		return NewErrorResponse(fmt.Errorf("duration must be non-negative, got %d", req.DurationMs))
	}

	targetDevice, err := FindDeviceOrAutoSelect(ctx, req.DeviceID)
	if err != nil {
		return NewErrorResponse(err)
	}

	duration := DefaultSwipeDuration
	if req.DurationMs > 0 {
		duration = time.Duration(req.DurationMs) * time.Millisecond
	}

	from := devices.Point{X: req.X1, Y: req.Y1}
	to := devices.Point{X: req.X2, Y: req.Y2}
	err = targetDevice.Drag(ctx, from, to, duration)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("failed to swipe on device %s: %v", targetDevice.ID(), err))
	}

	return NewSuccessResponse(map[string]interface{}{
		"message": fmt.Sprintf("Swiped on device %s from (%d,%d) to (%d,%d)", targetDevice.ID(), req.X1, req.Y1, req.X2, req.Y2),
	})
}
