package utils

import (
	"fmt"
	"os"

	"github.com/mholt/archiver/v3"
)

// BundleDirectory packs srcDir into a single archive at dest. The format follows
// the extension of dest (.zip, .tar.gz, ...). An existing dest is replaced.
func BundleDirectory(srcDir, dest string) error {
	if !IsDir(srcDir) {
		return fmt.Errorf("not a directory: %s", srcDir)
	}

	if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove existing archive: %w", err)
	}

	if err := archiver.Archive([]string{srcDir}, dest); err != nil {
		return fmt.Errorf("failed to create archive %s: %w", dest, err)
	}

	return nil
}
