package utils

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func screenshotPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 0, 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestEncodeScreenshot(t *testing.T) {
	capture := screenshotPNG(t, 36, 64)

	tests := []struct {
		name    string
		data    []byte
		format  string
		quality int
		wantErr bool
	}{
		{"png passthrough", capture, FormatPNG, 0, false},
		{"jpeg", capture, FormatJPEG, 80, false},
		{"jpeg with out of range quality", capture, FormatJPEG, 250, false},
		{"jpeg from garbage", []byte("error: device offline"), FormatJPEG, 90, true},
		{"unknown format", capture, "gif", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := EncodeScreenshot(tt.data, tt.format, tt.quality)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			if tt.format == FormatPNG {
				assert.Equal(t, tt.data, out)
				return
			}
			img, err := jpeg.Decode(bytes.NewReader(out))
			require.NoError(t, err, "output is not a valid JPEG")
			assert.Equal(t, 36, img.Bounds().Dx())
			assert.Equal(t, 64, img.Bounds().Dy())
		})
	}
}
