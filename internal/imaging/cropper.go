// Package imaging decodes a captured image once and produces encoded JPEG
// crops for detected bounding boxes. No ecosystem image library is wired
// here: the stdlib image/jpeg and image/png codecs cover the decode/encode
// contract completely (see DESIGN.md).
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"

	_ "image/png" // register PNG decoding alongside JPEG

	"github.com/georgenoob1234/freshline-brain/internal/models"
)

// Cropper wraps a single decoded raster so repeated crops avoid re-decoding.
type Cropper struct {
	img    image.Image
	width  int
	height int
}

// New decodes the given encoded image bytes exactly once.
func New(encoded []byte) (*Cropper, error) {
	img, _, err := image.Decode(bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("imaging: decode source image: %w", err)
	}
	bounds := img.Bounds()
	return &Cropper{img: img, width: bounds.Dx(), height: bounds.Dy()}, nil
}

// Size returns the decoded image's (width, height) in pixels.
func (c *Cropper) Size() (width, height int) {
	return c.width, c.height
}

// Crop returns JPEG-encoded bytes for the rectangle described by bbox,
// truncating fractional coordinates toward zero and clamping to the
// decoded image's bounds.
func (c *Cropper) Crop(bbox models.BoundingBox) ([]byte, error) {
	xMin, yMin, xMax, yMax := bbox.Rect()
	bounds := c.img.Bounds()

	xMin = clamp(xMin, bounds.Min.X, bounds.Max.X)
	yMin = clamp(yMin, bounds.Min.Y, bounds.Max.Y)
	xMax = clamp(xMax, bounds.Min.X, bounds.Max.X)
	yMax = clamp(yMax, bounds.Min.Y, bounds.Max.Y)
	if xMax <= xMin || yMax <= yMin {
		return nil, fmt.Errorf("imaging: crop rectangle is empty after clamping to image bounds")
	}

	rect := image.Rect(xMin, yMin, xMax, yMax)
	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), c.img, rect.Min, draw.Src)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("imaging: encode crop: %w", err)
	}
	return buf.Bytes(), nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
