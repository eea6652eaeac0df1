package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/georgenoob1234/freshline-brain/internal/models"
)

func encodeTestJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 0, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestCropperSize(t *testing.T) {
	c, err := New(encodeTestJPEG(t, 320, 240))
	require.NoError(t, err)
	w, h := c.Size()
	require.Equal(t, 320, w)
	require.Equal(t, 240, h)
}

func TestCropperCropTruncatesAndEncodes(t *testing.T) {
	c, err := New(encodeTestJPEG(t, 100, 100))
	require.NoError(t, err)

	crop, err := c.Crop(models.BoundingBox{XMin: 10.9, YMin: 10.9, XMax: 50.2, YMax: 50.2})
	require.NoError(t, err)
	require.NotEmpty(t, crop)

	decoded, err := jpeg.Decode(bytes.NewReader(crop))
	require.NoError(t, err)
	bounds := decoded.Bounds()
	require.Equal(t, 40, bounds.Dx())
	require.Equal(t, 40, bounds.Dy())
}

func TestCropperRejectsDegenerateRect(t *testing.T) {
	c, err := New(encodeTestJPEG(t, 50, 50))
	require.NoError(t, err)

	_, err = c.Crop(models.BoundingBox{XMin: 10, YMin: 10, XMax: 200, YMax: 10.5})
	require.Error(t, err)
}
