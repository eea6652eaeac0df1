// Package orchestrator owns the weight state machine, the scan pipeline,
// and the background polling loop. It is the Brain service's central
// coordinator, wiring a single pipeline instance to a background poll loop
// and to manually triggered scans.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/georgenoob1234/freshline-brain/internal/clockutil"
	"github.com/georgenoob1234/freshline-brain/internal/config"
	"github.com/georgenoob1234/freshline-brain/internal/logging"
	"github.com/georgenoob1234/freshline-brain/internal/models"
	"github.com/georgenoob1234/freshline-brain/internal/pipeline"
	"github.com/georgenoob1234/freshline-brain/internal/statemachine"
	"github.com/georgenoob1234/freshline-brain/internal/telemetry/metrics"
	"github.com/georgenoob1234/freshline-brain/internal/workerpool"
)

// Orchestrator owns the state machine, the clients (via Pipeline), and the
// lifecycle of the background poll loop and inflight scans.
type Orchestrator struct {
	cfg      *config.Settings
	machine  *statemachine.Machine
	pipeline *pipeline.Pipeline
	clients  pipeline.Clients
	clock    clockutil.Clock
	logger   logging.Logger

	cropPool   *workerpool.Pool
	defectPool *workerpool.Pool

	pollCancel context.CancelFunc
	pollDone   chan struct{}

	inflightWG sync.WaitGroup

	mu      sync.Mutex
	started bool
	stopped bool
}

// New constructs an Orchestrator. Clients and worker pools are owned by the
// orchestrator for the remainder of the process lifetime and released by
// Shutdown.
func New(cfg *config.Settings, clients pipeline.Clients, logger logging.Logger, reg *metrics.Registry, clock clockutil.Clock) *Orchestrator {
	cropPool := workerpool.New(cfg.CropWorkers)
	defectPool := workerpool.New(cfg.DefectFanoutWorkers)

	machine := statemachine.New(statemachine.Config{
		MinFruitWeight:     cfg.MinFruitWeight,
		SignificantDelta:   cfg.SignificantDelta,
		WeightNoiseEpsilon: cfg.WeightNoiseEpsilon,
		StableWindowMS:     cfg.StableWindowMS,
		MinScanIntervalMS:  cfg.MinScanIntervalMS,
	})

	p := pipeline.New(cfg, clients, logger, reg, clock, cropPool, defectPool)

	return &Orchestrator{
		cfg:        cfg,
		machine:    machine,
		pipeline:   p,
		clients:    clients,
		clock:      clock,
		logger:     logger,
		cropPool:   cropPool,
		defectPool: defectPool,
	}
}

// Start spawns the background weight-poll loop when polling is enabled.
func (o *Orchestrator) Start(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.started {
		return
	}
	o.started = true

	if !o.cfg.EnableWeightPolling {
		o.logger.Warn(ctx, "weight polling disabled via settings; rely on manual scans")
		return
	}

	pollCtx, cancel := context.WithCancel(ctx)
	o.pollCancel = cancel
	o.pollDone = make(chan struct{})
	go o.pollWeightLoop(pollCtx)
}

func (o *Orchestrator) pollWeightLoop(ctx context.Context) {
	defer close(o.pollDone)
	interval := time.Duration(o.cfg.WeightPollIntervalMS) * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		reading, err := o.clients.Weight.Read(ctx)
		if err != nil {
			o.logger.Error(ctx, "weight polling failed", "error", err.Error())
			o.sleep(ctx, interval*2)
			continue
		}

		decision := o.machine.Process(reading)
		if decision.ScanRequested {
			o.spawnScan(ctx, reading)
		}

		o.sleep(ctx, interval)
	}
}

// sleep waits for d or until ctx is cancelled, so shutdown cancels the poll
// loop promptly rather than only between full intervals.
func (o *Orchestrator) sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// spawnScan runs a scan on a detached goroutine tracked by the inflight
// WaitGroup, so Shutdown can drain every in-progress scan before closing
// clients.
func (o *Orchestrator) spawnScan(ctx context.Context, reading models.WeightReading) {
	o.inflightWG.Add(1)
	go func() {
		defer o.inflightWG.Done()
		// Scans are never cancelled by shutdown; they run to completion so a
		// result is never half-published. Detach from the poll loop's context
		// so cancelling the poll does not cancel inflight scans.
		o.pipeline.Execute(context.Background(), reading)
	}()
}

// TriggerScan executes a scan directly from a manually supplied weight,
// bypassing the state machine entirely: last_scan_at is not touched by
// manual triggers. It returns once the scan has been accepted (spawned),
// not once it completes.
func (o *Orchestrator) TriggerScan(ctx context.Context, grams float64) {
	reading := models.WeightReading{Grams: grams, Timestamp: o.clock.Now()}
	o.spawnScan(ctx, reading)
}

// Shutdown cancels the poll loop, awaits all inflight scans, and closes
// every client. It is idempotent.
func (o *Orchestrator) Shutdown(ctx context.Context) {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	cancel := o.pollCancel
	done := o.pollDone
	o.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	o.inflightWG.Wait()

	o.cropPool.Close()
	o.defectPool.Close()

	var wg sync.WaitGroup
	closers := []func(){
		o.clients.Weight.Close,
		o.clients.Camera.Close,
		o.clients.FruitDetector.Close,
		o.clients.DefectDetector.Close,
		o.clients.UI.Close,
		o.clients.MainServer.Close,
	}
	wg.Add(len(closers))
	for _, c := range closers {
		go func(c func()) {
			defer wg.Done()
			c()
		}(c)
	}
	wg.Wait()
}
