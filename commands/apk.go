package commands

import (
	"context"
	"fmt"

	"github.com/groundupworks/yksp/apk"
)

// APKRequest names the package file to inspect, empty scans the working directory
type APKRequest struct {
	Path string `json:"path,omitempty"`
}

// APKCommand reads the package name and version of an APK through aapt
func APKCommand(ctx context.Context, req APKRequest) *CommandResponse {
	path := req.Path
	if path == "" {
		found, err := apk.Find(".")
		if err != nil {
			return NewErrorResponse(err)
		}
		path = found
	}

	info, err := apk.Inspect(ctx, GetBridge().Runner(), GetConfig().Tools.Aapt, path)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("failed to inspect %s: %w", path, err))
	}

	return NewSuccessResponse(info)
}
