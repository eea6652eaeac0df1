// Package pipeline implements the per-event scan procedure: capture,
// detect, filter, optionally fall back, fan out per-fruit defect analysis,
// and publish.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/georgenoob1234/freshline-brain/internal/clockutil"
	"github.com/georgenoob1234/freshline-brain/internal/config"
	"github.com/georgenoob1234/freshline-brain/internal/imaging"
	"github.com/georgenoob1234/freshline-brain/internal/logging"
	"github.com/georgenoob1234/freshline-brain/internal/models"
	"github.com/georgenoob1234/freshline-brain/internal/services"
	"github.com/georgenoob1234/freshline-brain/internal/telemetry/metrics"
	"github.com/georgenoob1234/freshline-brain/internal/telemetry/tracing"
	"github.com/georgenoob1234/freshline-brain/internal/workerpool"
)

// Fallback trigger reasons, evaluated in this order.
const (
	ReasonWeightIndicatesFruitButNoDetections = "weight_indicates_fruit_but_no_detections"
	ReasonAllDetectionsBelowConfidenceGuard   = "all_detections_below_confidence_guard"
	ReasonExpectedMoreFruitsByWeight          = "expected_more_fruits_by_weight"
)

// Clients bundles the six downstream collaborators. A pipeline execution
// calls the camera, detectors and publishers; Weight is used only by the
// orchestrator's poll loop.
type Clients struct {
	Weight        *services.WeightClient
	Camera        *services.CameraClient
	FruitDetector *services.FruitDetectorClient
	DefectDetector *services.DefectDetectorClient
	UI            *services.UIClient
	MainServer    *services.MainServerClient
}

// Pipeline executes scan sessions. A single Pipeline value is shared by all
// concurrently inflight scans; it holds no mutable per-scan state itself
// distinct invocations share no mutable state beyond the clients' pools.
type Pipeline struct {
	cfg     *config.Settings
	clients Clients
	logger  logging.Logger
	metrics *metrics.Registry
	clock   clockutil.Clock

	cropPool   *workerpool.Pool
	defectPool *workerpool.Pool
}

// New constructs a Pipeline. cropPool and defectPool are distinct bounded
// pools so CPU-bound cropping can never stall a concurrent defect-detector
// network call within the same scan.
func New(cfg *config.Settings, clients Clients, logger logging.Logger, reg *metrics.Registry, clock clockutil.Clock, cropPool, defectPool *workerpool.Pool) *Pipeline {
	wireObservers(clients, reg)
	return &Pipeline{
		cfg:        cfg,
		clients:    clients,
		logger:     logger,
		metrics:    reg,
		clock:      clock,
		cropPool:   cropPool,
		defectPool: defectPool,
	}
}

// wireObservers registers the freshline_client_call_duration_seconds
// observer on every downstream client.
func wireObservers(clients Clients, reg *metrics.Registry) {
	clients.Weight.SetObserver(observerFor(reg, "weight"))
	clients.Camera.SetObserver(observerFor(reg, "camera"))
	clients.FruitDetector.SetObserver(observerFor(reg, "fruit_detector"))
	clients.DefectDetector.SetObserver(observerFor(reg, "defect_detector"))
	clients.UI.SetObserver(observerFor(reg, "ui"))
	clients.MainServer.SetObserver(observerFor(reg, "main_server"))
}

func observerFor(reg *metrics.Registry, client string) func(outcome string, d time.Duration) {
	return func(outcome string, d time.Duration) {
		reg.ObserveClientCall(client, outcome, d)
	}
}

// Execute runs one full scan session for the given reading. It never
// returns an error to the caller by design: any failure in steps 2-4 is
// logged and the scan ends without emitting a result.
func (p *Pipeline) Execute(ctx context.Context, reading models.WeightReading) {
	sessionID := uuid.NewString()
	ctx, span := tracing.StartSpan(ctx, "execute_scan")
	defer span.End()

	log := p.logger.With("session_id", sessionID)
	log.Info(ctx, "scan started", "weight_grams", reading.Grams)

	p.metrics.IncInflightScans()
	defer p.metrics.DecInflightScans()

	result, err := p.run(ctx, sessionID, reading, log)
	if err != nil {
		p.metrics.RecordScan("failed")
		log.Error(ctx, "scan failed", "error", err.Error())
		return
	}

	p.publish(ctx, *result, log)
	p.metrics.RecordScan("published")
	log.Info(ctx, "scan finished", "fruits", len(result.Fruits))
}

func (p *Pipeline) run(ctx context.Context, sessionID string, reading models.WeightReading, log logging.Logger) (*models.ScanResult, error) {
	primaryImgsz := p.cfg.FruitDetectorPrimaryImgsz
	resolution := fmt.Sprintf("%dx%d", primaryImgsz, primaryImgsz)

	captureCtx, captureSpan := tracing.StartSpan(ctx, "capture")
	capture, err := p.clients.Camera.Capture(captureCtx, resolution)
	captureSpan.End()
	if err != nil {
		return nil, fmt.Errorf("capture image: %w", err)
	}

	location, err := capture.ResolvedLocation()
	if err != nil {
		return nil, fmt.Errorf("resolve capture location: %w", err)
	}
	imageBytes, err := p.clients.Camera.FetchImage(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("fetch image bytes: %w", err)
	}

	cropper, err := imaging.New(imageBytes)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	width, height := cropper.Size()
	imageArea := float64(width * height)

	detectCtx, detectSpan := tracing.StartSpan(ctx, "detect_primary")
	primary, err := p.clients.FruitDetector.Detect(detectCtx, capture.ImageID, imageBytes, primaryImgsz)
	detectSpan.End()
	if err != nil {
		return nil, fmt.Errorf("primary fruit detection: %w", err)
	}
	rawDetections := primary.Fruits

	filtered := p.filterByBBoxArea(rawDetections, imageArea, capture.ImageID, log)
	filtered = p.filterByClassThreshold(filtered, capture.ImageID, log)

	if reason := p.shouldFallback(filtered, rawDetections, reading.Grams, capture.ImageID, log); reason != "" {
		p.metrics.RecordFallbackTriggered(reason)
		log.Info(ctx, "triggering fallback detection", "image_id", capture.ImageID, "reason", reason)

		fallbackCtx, fallbackSpan := tracing.StartSpan(ctx, "detect_fallback")
		fallback, err := p.clients.FruitDetector.Detect(fallbackCtx, capture.ImageID, imageBytes, p.cfg.FruitDetectorFallbackImgsz)
		fallbackSpan.End()
		if err != nil {
			return nil, fmt.Errorf("fallback fruit detection: %w", err)
		}

		filtered = p.filterByBBoxArea(fallback.Fruits, imageArea, capture.ImageID, log)
		filtered = p.filterByClassThreshold(filtered, capture.ImageID, log)

		if len(filtered) == 0 {
			log.Warn(ctx, "no fruits detected even after fallback",
				"image_id", capture.ImageID, "weight_grams", reading.Grams, "session_id", sessionID)
		}
	}

	fruits := p.analyzeFruits(ctx, capture.ImageID, filtered, cropper, log)

	return &models.ScanResult{
		SessionID:   sessionID,
		ImageID:     capture.ImageID,
		Timestamp:   time.Now().UTC(),
		WeightGrams: reading.Grams,
		Fruits:      fruits,
	}, nil
}

// filterByBBoxArea drops detections whose bbox area is too small relative
// to the full image.
func (p *Pipeline) filterByBBoxArea(detections []models.FruitDetection, imageArea float64, imageID string, log logging.Logger) []models.FruitDetection {
	if len(detections) == 0 {
		return nil
	}
	minArea := imageArea * p.cfg.FruitDetectorMinBBoxAreaRatio
	out := make([]models.FruitDetection, 0, len(detections))
	for _, d := range detections {
		if d.BBox.Area() >= minArea {
			out = append(out, d)
		} else if p.cfg.LogDiscardedDetectionsDetail {
			log.Info(context.Background(), "fruit dropped for small bbox area",
				"image_id", imageID, "fruit_id", d.FruitID, "class", d.FruitClass, "bbox_area", d.BBox.Area())
		}
	}
	return out
}

// filterByClassThreshold drops detections below the class-specific
// confidence threshold, falling back to the global confidence guard for
// unlisted classes.
func (p *Pipeline) filterByClassThreshold(detections []models.FruitDetection, imageID string, log logging.Logger) []models.FruitDetection {
	if len(detections) == 0 {
		return nil
	}
	out := make([]models.FruitDetection, 0, len(detections))
	for _, d := range detections {
		threshold, ok := p.cfg.FruitClassThresholds[d.FruitClass]
		if !ok {
			threshold = p.cfg.FruitDetectorConfidenceGuard
		}
		if d.Confidence >= threshold {
			out = append(out, d)
		} else if p.cfg.LogDiscardedDetectionsDetail {
			log.Info(context.Background(), "fruit dropped for low class confidence",
				"image_id", imageID, "fruit_id", d.FruitID, "class", d.FruitClass,
				"confidence", d.Confidence, "threshold", threshold)
		}
	}
	return out
}

// shouldFallback implements three ordered heuristics, returning the first
// matching reason or "" if none apply.
func (p *Pipeline) shouldFallback(filtered, raw []models.FruitDetection, weightGrams float64, imageID string, log logging.Logger) string {
	if weightGrams >= p.cfg.MinFruitWeight && len(filtered) == 0 {
		return ReasonWeightIndicatesFruitButNoDetections
	}

	if len(raw) > 0 {
		allBelowGuard := true
		for _, d := range raw {
			if d.Confidence >= p.cfg.FruitDetectorConfidenceGuard {
				allBelowGuard = false
				break
			}
		}
		if allBelowGuard {
			return ReasonAllDetectionsBelowConfidenceGuard
		}
	}

	if weightGrams >= p.cfg.MinFruitWeight && p.cfg.FruitExpectedWeightPerFruit > 0 {
		expected := int(weightGrams / p.cfg.FruitExpectedWeightPerFruit)
		if expected >= 2 && len(filtered) < expected-1 {
			log.Debug(context.Background(), "weight-based fruit count mismatch",
				"image_id", imageID, "weight_grams", weightGrams, "expected", expected, "actual", len(filtered))
			return ReasonExpectedMoreFruitsByWeight
		}
	}

	return ""
}

// analyzeFruits runs the per-fruit defect fan-out. A failure analyzing one
// fruit never aborts the batch: it yields a FruitSummary with an empty
// defects list.
func (p *Pipeline) analyzeFruits(ctx context.Context, imageID string, detections []models.FruitDetection, cropper *imaging.Cropper, log logging.Logger) []models.FruitSummary {
	if len(detections) == 0 {
		return []models.FruitSummary{}
	}

	summaries := make([]models.FruitSummary, len(detections))
	var wg sync.WaitGroup
	wg.Add(len(detections))

	for i, d := range detections {
		go func(i int, d models.FruitDetection) {
			defer wg.Done()
			summaries[i] = p.analyzeOneFruit(ctx, imageID, d, cropper, log)
		}(i, d)
	}
	wg.Wait()
	return summaries
}

func (p *Pipeline) analyzeOneFruit(ctx context.Context, imageID string, d models.FruitDetection, cropper *imaging.Cropper, log logging.Logger) models.FruitSummary {
	summary := models.FruitSummary{
		FruitID:    d.FruitID,
		FruitClass: d.FruitClass,
		Confidence: d.Confidence,
		BBox:       d.BBox,
		Defects:    []models.DefectInfo{},
	}

	var cropBytes []byte
	cropErr := p.cropPool.Submit(ctx, func() {
		var err error
		cropBytes, err = cropper.Crop(d.BBox)
		if err != nil {
			log.Error(ctx, "crop failed", "fruit_id", d.FruitID, "error", err.Error())
		}
	})
	if cropErr != nil || cropBytes == nil {
		p.metrics.RecordFruitDefectFailure()
		return summary
	}

	var defects []models.DefectInfo
	err := p.defectPool.Submit(ctx, func() {
		res, err := p.clients.DefectDetector.Detect(ctx, imageID, d.FruitID, cropBytes, fmt.Sprintf("%s.jpg", d.FruitID))
		if err != nil {
			log.Error(ctx, "defect analysis failed", "fruit_id", d.FruitID, "error", err.Error())
			return
		}
		defects = res.Defects
	})
	if err != nil || defects == nil {
		p.metrics.RecordFruitDefectFailure()
		return summary
	}

	summary.Defects = defects
	return summary
}

// publish sends the result to the UI and, if enabled, to the main server.
// Both publishes run concurrently; neither's failure blocks or aborts the
// other.
func (p *Pipeline) publish(ctx context.Context, result models.ScanResult, log logging.Logger) {
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, span := tracing.StartSpan(ctx, "publish_ui")
		defer span.End()
		if err := p.clients.UI.Publish(ctx, result); err != nil {
			p.metrics.RecordPublishFailure("ui")
			log.Error(ctx, "ui publish failed", "error", err.Error())
		}
	}()

	if p.cfg.EnableMainServerPublish {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, span := tracing.StartSpan(ctx, "publish_main_server")
			defer span.End()
			if err := p.clients.MainServer.Publish(ctx, result); err != nil {
				p.metrics.RecordPublishFailure("main_server")
				log.Error(ctx, "main server publish failed", "error", err.Error())
			}
		}()
	} else {
		log.Debug(ctx, "main server publish disabled; skipping", "session_id", result.SessionID)
	}

	wg.Wait()
}
