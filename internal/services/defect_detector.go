package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/georgenoob1234/freshline-brain/internal/models"
	"github.com/georgenoob1234/freshline-brain/internal/transport"
)

// DefectDetectorClient uploads a per-fruit crop for defect analysis.
type DefectDetectorClient struct {
	c *transport.Client
}

// NewDefectDetectorClient constructs a DefectDetectorClient against baseURL.
func NewDefectDetectorClient(baseURL string, timeout time.Duration) *DefectDetectorClient {
	return &DefectDetectorClient{c: transport.New(baseURL, timeout)}
}

// Close releases pooled transport resources.
func (d *DefectDetectorClient) Close() { d.c.Close() }

// Detect uploads a fruit crop and returns its validated defect result.
func (d *DefectDetectorClient) Detect(ctx context.Context, imageID, fruitID string, cropBytes []byte, filename string) (models.DefectDetectionResult, error) {
	files := []transport.MultipartField{{
		FieldName: "image",
		Filename:  filename,
		Content:   cropBytes,
		MIMEType:  "image/jpeg",
	}}
	form := map[string]string{"image_id": imageID, "fruit_id": fruitID}

	raw, err := d.c.PostMultipart(ctx, "/detect-defects", files, form)
	if err != nil {
		return models.DefectDetectionResult{}, err
	}

	var result models.DefectDetectionResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return models.DefectDetectionResult{}, &transport.Failure{Op: "POST /detect-defects", Cause: fmt.Errorf("decode defect detector response: %w", err)}
	}
	if err := result.Validate(fruitID); err != nil {
		return models.DefectDetectionResult{}, &transport.Failure{Op: "POST /detect-defects", Cause: err}
	}
	return result, nil
}

// SetObserver registers a per-call duration/outcome callback.
func (d *DefectDetectorClient) SetObserver(f func(outcome string, d time.Duration)) {
	d.c.SetObserver(f)
}
