package commands

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/groundupworks/yksp/utils"
)

// ScreenshotRequest represents the parameters for taking a screenshot
type ScreenshotRequest struct {
	DeviceID   string `json:"deviceId"`
	Format     string `json:"format,omitempty"`     // "png" or "jpeg"
	Quality    int    `json:"quality,omitempty"`    // 1-100, only used for JPEG
	OutputPath string `json:"outputPath,omitempty"` // file path, "-" for stdout, or empty for default naming
}

// ScreenshotResponse represents the response for a screenshot command
type ScreenshotResponse struct {
	Format   string `json:"format"`
	Data     string `json:"data,omitempty"`     // base64 encoded image data
	FilePath string `json:"filePath,omitempty"` // path where file was saved
}

// ScreenshotCommand takes a screenshot of the specified device
func ScreenshotCommand(ctx context.Context, req ScreenshotRequest) *CommandResponse {
	// Set default format
	if req.Format == "" {
		req.Format = utils.FormatPNG
	}

	req.Format = strings.ToLower(req.Format)
	if req.Format != utils.FormatPNG && req.Format != utils.FormatJPEG {
		return NewErrorResponse(fmt.Errorf("invalid format '%s'. Supported formats are 'png' and 'jpeg'", req.Format))
	}

	targetDevice, err := FindDeviceOrAutoSelect(ctx, req.DeviceID)
	if err != nil {
		return NewErrorResponse(err)
	}

	imageBytes, err := targetDevice.Screenshot(ctx)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("error taking screenshot: %v", err))
	}

	imageBytes, err = utils.EncodeScreenshot(imageBytes, req.Format, req.Quality)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("error converting to %s: %v", strings.ToUpper(req.Format), err))
	}

	response := ScreenshotResponse{
		Format: req.Format,
	}

	if req.OutputPath == "-" {
		response.Data = base64.StdEncoding.EncodeToString(imageBytes)
		return NewSuccessResponse(response)
	}

	var finalPath string
	if req.OutputPath != "" {
		finalPath, err = filepath.Abs(req.OutputPath)
		if err != nil {
			return NewErrorResponse(fmt.Errorf("invalid output path: %v", err))
		}
	} else {
		timestamp := time.Now().Format("20060102150405")
		safeDeviceID := strings.ReplaceAll(targetDevice.ID(), ":", "_")
		extension := "png"
		if req.Format == utils.FormatJPEG {
			extension = "jpg"
		}
		fileName := fmt.Sprintf("screenshot-%s-%s.%s", safeDeviceID, timestamp, extension)
		finalPath, err = filepath.Abs("./" + fileName)
		if err != nil {
			return NewErrorResponse(fmt.Errorf("error creating default path: %v", err))
		}
	}

	if err := os.WriteFile(finalPath, imageBytes, 0o600); err != nil {
		return NewErrorResponse(fmt.Errorf("error writing file: %v", err))
	}
	response.FilePath = finalPath

	return NewSuccessResponse(response)
}
