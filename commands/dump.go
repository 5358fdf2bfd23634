package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/groundupworks/yksp/viewclient"
)

// DumpUIRequest represents the parameters for dumping UI tree
type DumpUIRequest struct {
	DeviceID string `json:"deviceId"`
	// Format is "json" (default) for the view tree or "text" for the traversal listing.
	Format string `json:"format,omitempty"`
}

// DumpUIResponse represents the response for a dump UI command
type DumpUIResponse struct {
	Views []*viewclient.View `json:"views,omitempty"`
	Text  string             `json:"text,omitempty"`
}

// DumpUICommand dumps the view hierarchy of the current screen
func DumpUICommand(ctx context.Context, req DumpUIRequest) *CommandResponse {
	format := strings.ToLower(req.Format)
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "text" {
		return NewErrorResponse(fmt.Errorf("invalid format '%s'. Supported formats are 'json' and 'text'", req.Format))
	}

	targetDevice, err := FindDeviceOrAutoSelect(ctx, req.DeviceID)
	if err != nil {
		return NewErrorResponse(err)
	}

	vc := viewclient.New(targetDevice)
	if _, err := vc.Dump(ctx); err != nil {
		return NewErrorResponse(fmt.Errorf("failed to dump UI from device %s: %v", targetDevice.ID(), err))
	}

	if format == "text" {
		var sb strings.Builder
		if err := vc.Traverse(&sb); err != nil {
			return NewErrorResponse(err)
		}
		return NewSuccessResponse(DumpUIResponse{Text: sb.String()})
	}

	return NewSuccessResponse(DumpUIResponse{Views: vc.Roots()})
}
