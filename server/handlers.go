package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/groundupworks/yksp/commands"
)

// ScreenshotParams represents the parameters for the screenshot request
type ScreenshotParams struct {
	DeviceID string `json:"deviceId"`
	Format   string `json:"format,omitempty"`  // "png" or "jpeg"
	Quality  int    `json:"quality,omitempty"` // 1-100, only used for JPEG
}

type DevicesParams struct {
	All bool `json:"all,omitempty"`
}

type IoTapParams struct {
	DeviceID string `json:"deviceId"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
}

type IoTextParams struct {
	DeviceID string `json:"deviceId"`
	Text     string `json:"text"`
}

type IoButtonParams struct {
	DeviceID string `json:"deviceId"`
	Button   string `json:"button"`
}

func responseData(response *commands.CommandResponse) (interface{}, error) {
	if response.Status == "error" {
		return nil, fmt.Errorf("%s", response.Error)
	}
	return response.Data, nil
}

func responseOK(response *commands.CommandResponse) (interface{}, error) {
	if response.Status == "error" {
		return nil, fmt.Errorf("%s", response.Error)
	}
	return okResponse, nil
}

func handleDevicesList(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p DevicesParams
	if err := decodeParams(params, &p, ""); err != nil {
		return nil, err
	}
	return responseData(commands.DevicesCommand(ctx, p.All))
}

func handleDeviceInfo(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var req commands.InfoRequest
	if err := decodeParams(params, &req, ""); err != nil {
		return nil, err
	}
	return responseData(commands.InfoCommand(ctx, req))
}

func handleAPKInspect(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var req commands.APKRequest
	if err := decodeParams(params, &req, ""); err != nil {
		return nil, err
	}
	return responseData(commands.APKCommand(ctx, req))
}

func handleDumpUI(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var req commands.DumpUIRequest
	if err := decodeParams(params, &req, ""); err != nil {
		return nil, err
	}
	return responseData(commands.DumpUICommand(ctx, req))
}

func handleScreenshot(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var screenshotParams ScreenshotParams
	if err := decodeParams(params, &screenshotParams, ""); err != nil {
		return nil, err
	}

	req := commands.ScreenshotRequest{
		DeviceID:   screenshotParams.DeviceID,
		Format:     screenshotParams.Format,
		Quality:    screenshotParams.Quality,
		OutputPath: "-", // Always return base64 data for server
	}

	response := commands.ScreenshotCommand(ctx, req)
	if response.Status == "error" {
		return nil, fmt.Errorf("%s", response.Error)
	}

	// Convert the response data to the expected server format
	if screenshotResp, ok := response.Data.(commands.ScreenshotResponse); ok {
		return map[string]interface{}{
			"format": screenshotResp.Format,
			"data":   fmt.Sprintf("data:image/%s;base64,%s", screenshotResp.Format, screenshotResp.Data),
		}, nil
	}

	return nil, fmt.Errorf("unexpected response format")
}

func handleIoTap(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p IoTapParams
	if err := decodeParams(params, &p, "deviceId, x, y"); err != nil {
		return nil, err
	}
	return responseOK(commands.TapCommand(ctx, commands.TapRequest{DeviceID: p.DeviceID, X: p.X, Y: p.Y}))
}

func handleIoLongPress(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p IoTapParams
	if err := decodeParams(params, &p, "deviceId, x, y"); err != nil {
		return nil, err
	}
	return responseOK(commands.LongPressCommand(ctx, commands.LongPressRequest{DeviceID: p.DeviceID, X: p.X, Y: p.Y}))
}

func handleIoSwipe(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var req commands.SwipeRequest
	if err := decodeParams(params, &req, "deviceId, x1, y1, x2, y2"); err != nil {
		return nil, err
	}

	// validate that coordinates are provided (x1,y1,x2,y2 must be present)
	var rawParams map[string]interface{}
	if err := json.Unmarshal(params, &rawParams); err != nil {
		return nil, invalidParams("invalid parameters format")
	}

	requiredFields := []string{"x1", "y1", "x2", "y2"}
	for _, field := range requiredFields {
		if _, exists := rawParams[field]; !exists {
			return nil, invalidParams("'%s' is required", field)
		}
	}

	return responseOK(commands.SwipeCommand(ctx, req))
}

func handleIoText(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p IoTextParams
	if err := decodeParams(params, &p, "deviceId, text"); err != nil {
		return nil, err
	}
	return responseOK(commands.TextCommand(ctx, commands.TextRequest{DeviceID: p.DeviceID, Text: p.Text}))
}

func handleIoButton(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p IoButtonParams
	if err := decodeParams(params, &p, "deviceId, button"); err != nil {
		return nil, err
	}
	return responseOK(commands.ButtonCommand(ctx, commands.ButtonRequest{DeviceID: p.DeviceID, Button: p.Button}))
}

func handleAppsLaunch(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var req commands.AppRequest
	if err := decodeParams(params, &req, "deviceId, packageName"); err != nil {
		return nil, err
	}
	return responseData(commands.LaunchAppCommand(ctx, req))
}

func handleAppsTerminate(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var req commands.AppRequest
	if err := decodeParams(params, &req, "deviceId, packageName"); err != nil {
		return nil, err
	}
	return responseData(commands.TerminateAppCommand(ctx, req))
}

func (s *Server) handleShutdown(ctx context.Context, params json.RawMessage) (interface{}, error) {
	s.requestShutdown()
	return okResponse, nil
}
