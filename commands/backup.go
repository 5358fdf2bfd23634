package commands

import (
	"fmt"

	"github.com/groundupworks/yksp/backup"
)

// BackupExtractRequest names an `adb backup` archive and where to unpack it
type BackupExtractRequest struct {
	File string `json:"file"`
	Dir  string `json:"dir"`
}

// BackupExtractCommand unpacks an app data backup
func BackupExtractCommand(req BackupExtractRequest) *CommandResponse {
	if req.File == "" || req.Dir == "" {
		return NewErrorResponse(fmt.Errorf("backup file and destination directory are required"))
	}

	result, err := backup.ExtractFile(req.File, req.Dir)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("failed to extract %s: %w", req.File, err))
	}

	return NewSuccessResponse(result)
}
