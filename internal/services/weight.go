// Package services implements the thin request/response client adapters for
// the six downstream collaborators: weight, camera, fruit-detector,
// defect-detector, UI-publisher, and main-server-publisher.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/georgenoob1234/freshline-brain/internal/models"
	"github.com/georgenoob1234/freshline-brain/internal/transport"
)

// WeightClient polls the weight service for the latest sample.
type WeightClient struct {
	c *transport.Client
}

// NewWeightClient constructs a WeightClient against baseURL.
func NewWeightClient(baseURL string, timeout time.Duration) *WeightClient {
	return &WeightClient{c: transport.New(baseURL, timeout)}
}

// Close releases pooled transport resources.
func (w *WeightClient) Close() { w.c.Close() }

type weightReadingWire struct {
	Grams     float64 `json:"grams"`
	Timestamp string  `json:"timestamp"`
}

// Read fetches the latest weight sample.
func (w *WeightClient) Read(ctx context.Context) (models.WeightReading, error) {
	raw, err := w.c.PostJSON(ctx, "/read", struct{}{})
	if err != nil {
		return models.WeightReading{}, err
	}

	var wire weightReadingWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return models.WeightReading{}, &transport.Failure{Op: "POST /read", Cause: fmt.Errorf("decode weight response: %w", err)}
	}
	ts, err := time.Parse(time.RFC3339, wire.Timestamp)
	if err != nil {
		return models.WeightReading{}, &transport.Failure{Op: "POST /read", Cause: fmt.Errorf("parse timestamp %q: %w", wire.Timestamp, err)}
	}
	reading := models.WeightReading{Grams: wire.Grams, Timestamp: ts}
	if err := reading.Validate(); err != nil {
		return models.WeightReading{}, &transport.Failure{Op: "POST /read", Cause: err}
	}
	return reading, nil
}

// SetObserver registers a per-call duration/outcome callback.
func (w *WeightClient) SetObserver(f func(outcome string, d time.Duration)) {
	w.c.SetObserver(f)
}
