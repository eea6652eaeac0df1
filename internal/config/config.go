// Package config assembles runtime settings for the Brain service from
// environment variables into a single injected settings value rather than
// package-level globals.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Settings is the full, validated runtime configuration. It is constructed
// once at startup and passed by value/pointer into every component that
// needs it; nothing in this module reaches for environment variables
// directly outside of Load.
type Settings struct {
	AppEnv   string
	LogLevel string

	WeightServiceURL  string
	CameraServiceURL  string
	FruitDetectorURL  string
	DefectDetectorURL string
	UIServiceURL      string
	MainServerURL     string

	EnableMainServerPublish bool
	EnableWeightPolling     bool

	MinFruitWeight     float64
	SignificantDelta   float64
	WeightNoiseEpsilon float64
	StableWindowMS     int64
	MinScanIntervalMS  int64
	WeightPollIntervalMS int64

	FruitDetectorPrimaryImgsz       int
	FruitDetectorFallbackImgsz      int
	FruitDetectorConfidenceGuard    float64
	FruitDetectorMinBBoxAreaRatio   float64
	FruitExpectedWeightPerFruit     float64
	FruitClassThresholds            map[string]float64
	LogDiscardedDetectionsDetail    bool

	ClientTimeoutMS      int64
	DefectFanoutWorkers  int
	CropWorkers          int
	HealthAddr           string
	MetricsAddr          string
	OTelExporterEndpoint string
}

// ConfigFailure reports an invalid or unparsable configuration value. It is
// fatal at process start.
type ConfigFailure struct {
	Key   string
	Value string
	Cause error
}

func (e *ConfigFailure) Error() string {
	return fmt.Sprintf("config: invalid %s=%q: %v", e.Key, e.Value, e.Cause)
}

func (e *ConfigFailure) Unwrap() error { return e.Cause }

const envPrefix = "FRESHLINE_"

// Load reads environment variables prefixed FRESHLINE_ and validates the
// result.
func Load() (*Settings, error) {
	s := &Settings{
		AppEnv:   getString("APP_ENV", "dev"),
		LogLevel: getString("LOG_LEVEL", "INFO"),

		WeightServiceURL:  getString("WEIGHT_SERVICE_URL", "http://localhost:8100"),
		CameraServiceURL:  getString("CAMERA_SERVICE_URL", "http://localhost:8200"),
		FruitDetectorURL:  getString("FRUIT_DETECTOR_URL", "http://localhost:8300"),
		DefectDetectorURL: getString("DEFECT_DETECTOR_URL", "http://localhost:8400"),
		UIServiceURL:      getString("UI_SERVICE_URL", "http://localhost:8500"),
		MainServerURL:     getString("MAIN_SERVER_URL", "http://localhost:8600"),

		EnableMainServerPublish: false,
		EnableWeightPolling:     true,

		MinFruitWeight:     30.0,
		SignificantDelta:   20.0,
		WeightNoiseEpsilon: 5.0,
		StableWindowMS:     400,
		MinScanIntervalMS:  2000,
		WeightPollIntervalMS: 150,

		FruitDetectorPrimaryImgsz:     320,
		FruitDetectorFallbackImgsz:    416,
		FruitDetectorConfidenceGuard:  0.30,
		FruitDetectorMinBBoxAreaRatio: 0.001,
		FruitExpectedWeightPerFruit:   100,
		FruitClassThresholds: map[string]float64{
			"apple":  0.55,
			"banana": 0.40,
			"tomato": 0.60,
		},
		LogDiscardedDetectionsDetail: false,

		ClientTimeoutMS:     10_000,
		DefectFanoutWorkers: 4,
		CropWorkers:         2,
		HealthAddr:          ":8090",
		MetricsAddr:         ":8091",
	}

	var err error
	if s.EnableMainServerPublish, err = getBool("ENABLE_MAIN_SERVER_PUBLISH", s.EnableMainServerPublish); err != nil {
		return nil, err
	}
	if s.EnableWeightPolling, err = getBool("ENABLE_WEIGHT_POLLING", s.EnableWeightPolling); err != nil {
		return nil, err
	}
	if s.MinFruitWeight, err = getFloat("MIN_FRUIT_WEIGHT", s.MinFruitWeight); err != nil {
		return nil, err
	}
	if s.SignificantDelta, err = getFloat("SIGNIFICANT_DELTA", s.SignificantDelta); err != nil {
		return nil, err
	}
	if s.WeightNoiseEpsilon, err = getFloat("WEIGHT_NOISE_EPSILON", s.WeightNoiseEpsilon); err != nil {
		return nil, err
	}
	if s.StableWindowMS, err = getInt64("STABLE_WINDOW_MS", s.StableWindowMS); err != nil {
		return nil, err
	}
	if s.MinScanIntervalMS, err = getInt64("MIN_SCAN_INTERVAL_MS", s.MinScanIntervalMS); err != nil {
		return nil, err
	}
	if s.WeightPollIntervalMS, err = getInt64("WEIGHT_POLL_INTERVAL_MS", s.WeightPollIntervalMS); err != nil {
		return nil, err
	}
	if s.FruitDetectorPrimaryImgsz, err = getInt("FRUIT_DETECTOR_PRIMARY_IMGSZ", s.FruitDetectorPrimaryImgsz); err != nil {
		return nil, err
	}
	if s.FruitDetectorFallbackImgsz, err = getInt("FRUIT_DETECTOR_FALLBACK_IMGSZ", s.FruitDetectorFallbackImgsz); err != nil {
		return nil, err
	}
	if s.FruitDetectorConfidenceGuard, err = getFloat("FRUIT_DETECTOR_CONFIDENCE_GUARD", s.FruitDetectorConfidenceGuard); err != nil {
		return nil, err
	}
	if s.FruitDetectorMinBBoxAreaRatio, err = getFloat("FRUIT_DETECTOR_MIN_BBOX_AREA_RATIO", s.FruitDetectorMinBBoxAreaRatio); err != nil {
		return nil, err
	}
	if s.FruitExpectedWeightPerFruit, err = getFloat("FRUIT_EXPECTED_WEIGHT_PER_FRUIT", s.FruitExpectedWeightPerFruit); err != nil {
		return nil, err
	}
	if raw, ok := os.LookupEnv(envPrefix + "FRUIT_CLASS_THRESHOLDS"); ok {
		thresholds, perr := parseThresholds(raw)
		if perr != nil {
			return nil, &ConfigFailure{Key: "FRUIT_CLASS_THRESHOLDS", Value: raw, Cause: perr}
		}
		s.FruitClassThresholds = thresholds
	}
	if s.LogDiscardedDetectionsDetail, err = getBool("LOG_DISCARDED_DETECTIONS_DETAIL", s.LogDiscardedDetectionsDetail); err != nil {
		return nil, err
	}
	if s.ClientTimeoutMS, err = getInt64("CLIENT_TIMEOUT_MS", s.ClientTimeoutMS); err != nil {
		return nil, err
	}
	if s.DefectFanoutWorkers, err = getInt("DEFECT_FANOUT_WORKERS", s.DefectFanoutWorkers); err != nil {
		return nil, err
	}
	if s.CropWorkers, err = getInt("CROP_WORKERS", s.CropWorkers); err != nil {
		return nil, err
	}
	s.HealthAddr = getString("HEALTH_ADDR", s.HealthAddr)
	s.MetricsAddr = getString("METRICS_ADDR", s.MetricsAddr)
	s.OTelExporterEndpoint = getString("OTEL_EXPORTER_ENDPOINT", "")

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate enforces the bounded-range invariants configuration values must
// satisfy.
func (s *Settings) Validate() error {
	if s.FruitDetectorConfidenceGuard < 0 || s.FruitDetectorConfidenceGuard > 1 {
		return &ConfigFailure{Key: "FRUIT_DETECTOR_CONFIDENCE_GUARD", Value: fmt.Sprint(s.FruitDetectorConfidenceGuard), Cause: fmt.Errorf("must be in [0,1]")}
	}
	if s.FruitDetectorMinBBoxAreaRatio < 0 || s.FruitDetectorMinBBoxAreaRatio > 1 {
		return &ConfigFailure{Key: "FRUIT_DETECTOR_MIN_BBOX_AREA_RATIO", Value: fmt.Sprint(s.FruitDetectorMinBBoxAreaRatio), Cause: fmt.Errorf("must be in [0,1]")}
	}
	if s.FruitExpectedWeightPerFruit <= 0 {
		return &ConfigFailure{Key: "FRUIT_EXPECTED_WEIGHT_PER_FRUIT", Value: fmt.Sprint(s.FruitExpectedWeightPerFruit), Cause: fmt.Errorf("must be > 0")}
	}
	if s.FruitDetectorPrimaryImgsz <= 0 || s.FruitDetectorFallbackImgsz <= 0 {
		return &ConfigFailure{Key: "FRUIT_DETECTOR_PRIMARY_IMGSZ/FALLBACK_IMGSZ", Value: "", Cause: fmt.Errorf("imgsz values must be > 0")}
	}
	if s.DefectFanoutWorkers <= 0 || s.CropWorkers <= 0 {
		return &ConfigFailure{Key: "DEFECT_FANOUT_WORKERS/CROP_WORKERS", Value: "", Cause: fmt.Errorf("worker pool sizes must be > 0")}
	}
	return nil
}

func parseThresholds(raw string) (map[string]float64, error) {
	out := make(map[string]float64)
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return out, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		kv := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("expected comma-separated class=threshold pairs, got %q", pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(kv[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("threshold for class %q: %w", kv[0], err)
		}
		out[strings.TrimSpace(kv[0])] = v
	}
	return out, nil
}

func getString(key, def string) string {
	if v, ok := os.LookupEnv(envPrefix + key); ok {
		return v
	}
	return def
}

func getBool(key string, def bool) (bool, error) {
	raw, ok := os.LookupEnv(envPrefix + key)
	if !ok {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &ConfigFailure{Key: key, Value: raw, Cause: err}
	}
	return v, nil
}

func getFloat(key string, def float64) (float64, error) {
	raw, ok := os.LookupEnv(envPrefix + key)
	if !ok {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &ConfigFailure{Key: key, Value: raw, Cause: err}
	}
	return v, nil
}

func getInt(key string, def int) (int, error) {
	raw, ok := os.LookupEnv(envPrefix + key)
	if !ok {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ConfigFailure{Key: key, Value: raw, Cause: err}
	}
	return v, nil
}

func getInt64(key string, def int64) (int64, error) {
	raw, ok := os.LookupEnv(envPrefix + key)
	if !ok {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &ConfigFailure{Key: key, Value: raw, Cause: err}
	}
	return v, nil
}
