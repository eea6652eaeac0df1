// Package models defines the wire and domain entities shared across the
// weight state machine, the scan pipeline, and the downstream service
// clients.
package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ScanState is the weight state machine's discrete mode.
type ScanState string

const (
	ScanStateIdle   ScanState = "IDLE"
	ScanStateActive ScanState = "ACTIVE"
)

// Transition labels emitted alongside a ScanDecision.
const (
	TransitionNone       = "NONE"
	TransitionIdleActive = "IDLE->ACTIVE"
	TransitionActiveIdle = "ACTIVE->IDLE"
)

// WeightReading is a single immutable sample from the weight service.
type WeightReading struct {
	Grams     float64
	Timestamp time.Time
}

// Validate checks the invariants WeightReading must satisfy.
func (w WeightReading) Validate() error {
	if w.Grams < 0 {
		return fmt.Errorf("models: weight reading grams must be >= 0, got %f", w.Grams)
	}
	return nil
}

// ScanDecision is the output of feeding a reading into the state machine.
type ScanDecision struct {
	State         ScanState
	ScanRequested bool
	Transition    string
}

// BoundingBox is an axis-aligned box in pixel space. It accepts both a
// 4-element array and an object on the wire.
type BoundingBox struct {
	XMin, YMin, XMax, YMax float64
}

// Validate enforces XMin < XMax and YMin < YMax.
func (b BoundingBox) Validate() error {
	if b.XMin < 0 || b.YMin < 0 {
		return fmt.Errorf("models: bbox mins must be >= 0, got (%f, %f)", b.XMin, b.YMin)
	}
	if b.XMax <= b.XMin {
		return fmt.Errorf("models: bbox x_max (%f) must be > x_min (%f)", b.XMax, b.XMin)
	}
	if b.YMax <= b.YMin {
		return fmt.Errorf("models: bbox y_max (%f) must be > y_min (%f)", b.YMax, b.YMin)
	}
	return nil
}

// Area returns the bbox's pixel area using float coordinates (pre-truncation).
func (b BoundingBox) Area() float64 {
	return (b.XMax - b.XMin) * (b.YMax - b.YMin)
}

// Rect returns the integer crop rectangle [x_min, y_min, x_max, y_max),
// truncating fractional coordinates toward zero.
func (b BoundingBox) Rect() (xMin, yMin, xMax, yMax int) {
	return int(b.XMin), int(b.YMin), int(b.XMax), int(b.YMax)
}

// UnmarshalJSON accepts either a 4-element sequence [x_min,y_min,x_max,y_max]
// or an object with those keys, matching the tagged-variant contract
// downstream detectors are allowed to use.
func (b *BoundingBox) UnmarshalJSON(data []byte) error {
	var seq [4]float64
	if err := json.Unmarshal(data, &seq); err == nil {
		b.XMin, b.YMin, b.XMax, b.YMax = seq[0], seq[1], seq[2], seq[3]
		return nil
	}

	var obj struct {
		XMin float64 `json:"x_min"`
		YMin float64 `json:"y_min"`
		XMax float64 `json:"x_max"`
		YMax float64 `json:"y_max"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("models: bbox must be a 4-element array or object: %w", err)
	}
	b.XMin, b.YMin, b.XMax, b.YMax = obj.XMin, obj.YMin, obj.XMax, obj.YMax
	return nil
}

// MarshalJSON always emits the object form.
func (b BoundingBox) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		XMin float64 `json:"x_min"`
		YMin float64 `json:"y_min"`
		XMax float64 `json:"x_max"`
		YMax float64 `json:"y_max"`
	}{b.XMin, b.YMin, b.XMax, b.YMax})
}

// FruitDetection is a single fruit detected in one capture.
type FruitDetection struct {
	FruitID    string      `json:"fruit_id"`
	FruitClass string      `json:"class"`
	Confidence float64     `json:"confidence"`
	BBox       BoundingBox `json:"bbox"`
}

// Validate enforces confidence bounds and bbox validity.
func (d FruitDetection) Validate() error {
	if d.FruitID == "" {
		return fmt.Errorf("models: fruit detection missing fruit_id")
	}
	if d.Confidence < 0 || d.Confidence > 1 {
		return fmt.Errorf("models: fruit detection %s confidence out of [0,1]: %f", d.FruitID, d.Confidence)
	}
	return d.BBox.Validate()
}

// FruitDetections is the fruit-detector response, tied to one capture.
type FruitDetections struct {
	ImageID string           `json:"image_id"`
	Fruits  []FruitDetection `json:"fruits"`
}

// Validate checks every contained detection and uniqueness of fruit_id.
func (f FruitDetections) Validate() error {
	seen := make(map[string]struct{}, len(f.Fruits))
	for _, d := range f.Fruits {
		if err := d.Validate(); err != nil {
			return err
		}
		if _, dup := seen[d.FruitID]; dup {
			return fmt.Errorf("models: duplicate fruit_id %q in detection response", d.FruitID)
		}
		seen[d.FruitID] = struct{}{}
	}
	return nil
}

// DefectMask carries an optional segmentation polygon.
type DefectMask struct {
	Polygon [][2]float64 `json:"polygon,omitempty"`
}

// DefectInfo describes a single detected defect.
type DefectInfo struct {
	Type       string      `json:"type"`
	Confidence float64     `json:"confidence"`
	Mask       *DefectMask `json:"segmentation,omitempty"`
}

// Validate enforces confidence bounds.
func (d DefectInfo) Validate() error {
	if d.Confidence < 0 || d.Confidence > 1 {
		return fmt.Errorf("models: defect %s confidence out of [0,1]: %f", d.Type, d.Confidence)
	}
	return nil
}

// DefectDetectionResult is the defect-detector response for one fruit.
type DefectDetectionResult struct {
	ImageID string       `json:"image_id"`
	FruitID string       `json:"fruit_id"`
	Defects []DefectInfo `json:"defects"`
}

// Validate checks response shape against the requested fruit_id.
func (r DefectDetectionResult) Validate(expectedFruitID string) error {
	if r.FruitID != expectedFruitID {
		return fmt.Errorf("models: defect result fruit_id %q does not match request %q", r.FruitID, expectedFruitID)
	}
	for _, d := range r.Defects {
		if err := d.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// CameraCaptureResponse describes a capture's location and metadata.
type CameraCaptureResponse struct {
	ImageID   string    `json:"image_id"`
	ImageURL  string    `json:"image_url_or_path,omitempty"`
	ImagePath string    `json:"image_path,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ResolvedLocation returns the path if present, else the URL, preferring
// path, falling back to ImageURL. Returns an error if neither is set.
func (c CameraCaptureResponse) ResolvedLocation() (string, error) {
	if c.ImagePath != "" {
		return c.ImagePath, nil
	}
	if c.ImageURL != "" {
		return c.ImageURL, nil
	}
	return "", fmt.Errorf("models: camera capture %s has neither image_path nor image_url", c.ImageID)
}

// Validate checks that at least one of path/url is present.
func (c CameraCaptureResponse) Validate() error {
	if c.ImageID == "" {
		return fmt.Errorf("models: camera capture missing image_id")
	}
	if c.ImagePath == "" && c.ImageURL == "" {
		return fmt.Errorf("models: camera capture %s missing both image_path and image_url", c.ImageID)
	}
	return nil
}

// FruitSummary is one fruit's entry in a published ScanResult.
type FruitSummary struct {
	FruitID    string       `json:"fruit_id"`
	FruitClass string       `json:"fruit_class"`
	Confidence float64      `json:"confidence"`
	BBox       BoundingBox  `json:"bbox"`
	Defects    []DefectInfo `json:"defects"`
}

// ScanResult is the consolidated payload forwarded to UI and main server.
type ScanResult struct {
	SessionID   string         `json:"session_id"`
	ImageID     string         `json:"image_id"`
	Timestamp   time.Time      `json:"timestamp"`
	WeightGrams float64        `json:"weight_grams"`
	Fruits      []FruitSummary `json:"fruits"`
}
