package utils

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"image/png"
)

// Screenshot formats. Devices always capture PNG.
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"

	DefaultJPEGQuality = 90
)

// EncodeScreenshot converts a PNG capture into format. PNG data is returned
// as is. A quality outside 1-100 falls back to DefaultJPEGQuality.
func EncodeScreenshot(pngBytes []byte, format string, quality int) ([]byte, error) {
	switch format {
	case FormatPNG:
		return pngBytes, nil
	case FormatJPEG:
	default:
		return nil, fmt.Errorf("unsupported screenshot format '%s'", format)
	}

	if quality < 1 || quality > 100 {
		quality = DefaultJPEGQuality
	}

	img, err := png.Decode(bytes.NewReader(pngBytes))
	if err != nil {
		return nil, fmt.Errorf("screenshot is not a valid PNG: %w", err)
	}

	var jpegBytes bytes.Buffer
	if err := jpeg.Encode(&jpegBytes, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return jpegBytes.Bytes(), nil
}
