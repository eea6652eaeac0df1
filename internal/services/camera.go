package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/georgenoob1234/freshline-brain/internal/models"
	"github.com/georgenoob1234/freshline-brain/internal/transport"
)

// CameraClient triggers captures and downloads the resulting image bytes.
type CameraClient struct {
	c *transport.Client
}

// NewCameraClient constructs a CameraClient against baseURL.
func NewCameraClient(baseURL string, timeout time.Duration) *CameraClient {
	return &CameraClient{c: transport.New(baseURL, timeout)}
}

// Close releases pooled transport resources.
func (c *CameraClient) Close() { c.c.Close() }

type captureWire struct {
	ImageID        string `json:"image_id"`
	ImageURLOrPath string `json:"image_url_or_path"`
	ImagePath      string `json:"image_path"`
	Timestamp      string `json:"timestamp"`
}

// Capture triggers a capture at the given resolution, e.g. "320x320".
func (c *CameraClient) Capture(ctx context.Context, resolution string) (models.CameraCaptureResponse, error) {
	raw, err := c.c.PostJSON(ctx, "/capture", map[string]string{"resolution": resolution})
	if err != nil {
		return models.CameraCaptureResponse{}, err
	}

	var wire captureWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return models.CameraCaptureResponse{}, &transport.Failure{Op: "POST /capture", Cause: fmt.Errorf("decode capture response: %w", err)}
	}
	ts, err := time.Parse(time.RFC3339, wire.Timestamp)
	if err != nil {
		return models.CameraCaptureResponse{}, &transport.Failure{Op: "POST /capture", Cause: fmt.Errorf("parse timestamp %q: %w", wire.Timestamp, err)}
	}

	resp := models.CameraCaptureResponse{
		ImageID:   wire.ImageID,
		ImageURL:  wire.ImageURLOrPath,
		ImagePath: wire.ImagePath,
		Timestamp: ts,
	}
	if err := resp.Validate(); err != nil {
		return models.CameraCaptureResponse{}, &transport.Failure{Op: "POST /capture", Cause: err}
	}
	return resp, nil
}

// FetchImage downloads binary image bytes from a path or URL returned by Capture.
func (c *CameraClient) FetchImage(ctx context.Context, location string) ([]byte, error) {
	return c.c.GetBinary(ctx, location)
}

// SetObserver registers a per-call duration/outcome callback, used to wire
// Prometheus observation without this package depending on metrics types.
func (c *CameraClient) SetObserver(f func(outcome string, d time.Duration)) {
	c.c.SetObserver(f)
}
