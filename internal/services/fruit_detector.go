package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/georgenoob1234/freshline-brain/internal/models"
	"github.com/georgenoob1234/freshline-brain/internal/transport"
)

// FruitDetectorClient uploads a full capture for fruit detection.
type FruitDetectorClient struct {
	c *transport.Client
}

// NewFruitDetectorClient constructs a FruitDetectorClient against baseURL.
func NewFruitDetectorClient(baseURL string, timeout time.Duration) *FruitDetectorClient {
	return &FruitDetectorClient{c: transport.New(baseURL, timeout)}
}

// Close releases pooled transport resources.
func (f *FruitDetectorClient) Close() { f.c.Close() }

// Detect sends the captured image and returns validated fruit detections.
// imgsz selects the inference resolution for primary vs. fallback calls.
func (f *FruitDetectorClient) Detect(ctx context.Context, imageID string, imageBytes []byte, imgsz int) (models.FruitDetections, error) {
	form := map[string]string{"image_id": imageID}
	if imgsz > 0 {
		form["imgsz"] = strconv.Itoa(imgsz)
	}
	files := []transport.MultipartField{{
		FieldName: "file",
		Filename:  "full.jpg",
		Content:   imageBytes,
		MIMEType:  "image/jpeg",
	}}

	raw, err := f.c.PostMultipart(ctx, "/detect-fruits", files, form)
	if err != nil {
		return models.FruitDetections{}, err
	}

	var result models.FruitDetections
	if err := json.Unmarshal(raw, &result); err != nil {
		return models.FruitDetections{}, &transport.Failure{Op: "POST /detect-fruits", Cause: fmt.Errorf("decode fruit detector response: %w", err)}
	}
	if err := result.Validate(); err != nil {
		return models.FruitDetections{}, &transport.Failure{Op: "POST /detect-fruits", Cause: err}
	}
	return result, nil
}

// SetObserver registers a per-call duration/outcome callback.
func (f *FruitDetectorClient) SetObserver(cb func(outcome string, d time.Duration)) {
	f.c.SetObserver(cb)
}
