// Package statemachine debounces a noisy weight stream into discrete
// scan-trigger events. It is pure and synchronous: given the same
// configuration and sequence of readings, Process always returns the same
// sequence of decisions. Only one goroutine may call Process on a given
// machine at a time.
package statemachine

import (
	"github.com/georgenoob1234/freshline-brain/internal/models"
)

// Config carries the thresholds and timing parameters that drive
// transitions. It is a value, not a global, so tests can construct
// synthetic configurations.
type Config struct {
	MinFruitWeight     float64
	SignificantDelta   float64
	WeightNoiseEpsilon float64
	StableWindowMS     int64
	MinScanIntervalMS  int64
}

// Machine holds the state machine's internal history and registers.
type Machine struct {
	cfg Config

	state         models.ScanState
	history       []models.WeightReading
	lastScanAtMS  int64
	hasLastScanAt bool
	lastScanWeight float64
}

// New constructs a Machine in the IDLE state.
func New(cfg Config) *Machine {
	return &Machine{
		cfg:   cfg,
		state: models.ScanStateIdle,
	}
}

// State returns the machine's current state.
func (m *Machine) State() models.ScanState { return m.state }

// Process feeds a new reading into the machine and returns the resulting
// decision.
func (m *Machine) Process(reading models.WeightReading) models.ScanDecision {
	m.history = append(m.history, reading)
	m.pruneHistory(reading.Timestamp.UnixMilli())

	stable, ok := m.stableWeight()
	if !ok {
		return models.ScanDecision{State: m.state, ScanRequested: false, Transition: models.TransitionNone}
	}

	transition := models.TransitionNone
	scanRequested := false
	nowMS := reading.Timestamp.UnixMilli()

	switch m.state {
	case models.ScanStateIdle:
		if stable >= m.cfg.MinFruitWeight {
			m.state = models.ScanStateActive
			transition = models.TransitionIdleActive
			if m.intervalOK(nowMS) {
				m.lastScanAtMS = nowMS
				m.hasLastScanAt = true
				m.lastScanWeight = stable
				scanRequested = true
			}
		}
	case models.ScanStateActive:
		if stable < m.cfg.MinFruitWeight {
			m.state = models.ScanStateIdle
			transition = models.TransitionActiveIdle
		} else if m.significantDelta(stable) && m.intervalOK(nowMS) {
			m.lastScanAtMS = nowMS
			m.hasLastScanAt = true
			m.lastScanWeight = stable
			scanRequested = true
		}
	}

	return models.ScanDecision{State: m.state, ScanRequested: scanRequested, Transition: transition}
}

// pruneHistory evicts readings older than the stable window relative to now.
// Out-of-order timestamps are accepted as-is and may prune unexpectedly;
// this is intentional, not an oversight.
func (m *Machine) pruneHistory(nowMS int64) {
	for len(m.history) > 0 {
		front := m.history[0].Timestamp.UnixMilli()
		if nowMS-front <= m.cfg.StableWindowMS {
			break
		}
		m.history = m.history[1:]
	}
}

// stableWeight returns the arithmetic mean of the window when it holds at
// least two readings whose range does not exceed the noise epsilon.
func (m *Machine) stableWeight() (float64, bool) {
	if len(m.history) < 2 {
		return 0, false
	}
	min, max, sum := m.history[0].Grams, m.history[0].Grams, 0.0
	for _, r := range m.history {
		if r.Grams < min {
			min = r.Grams
		}
		if r.Grams > max {
			max = r.Grams
		}
		sum += r.Grams
	}
	if max-min > m.cfg.WeightNoiseEpsilon {
		return 0, false
	}
	return sum / float64(len(m.history)), true
}

func (m *Machine) significantDelta(weight float64) bool {
	delta := weight - m.lastScanWeight
	if delta < 0 {
		delta = -delta
	}
	return delta >= m.cfg.SignificantDelta
}

func (m *Machine) intervalOK(nowMS int64) bool {
	if !m.hasLastScanAt {
		return true
	}
	return nowMS-m.lastScanAtMS >= m.cfg.MinScanIntervalMS
}
