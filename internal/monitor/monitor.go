package monitor

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/ports"
)

// Recomputer is the slice of the optimization engine the monitor needs:
// re-solve against the remaining orders of a batch.
type Recomputer interface {
	RecomputeRemaining(ctx context.Context, batchID, driverID string, criteria domain.OptimizationCriteria) (*domain.OptimizedRoute, int, error)
}

type Config struct {
	// Cadence of unconditional re-evaluation.
	Interval time.Duration
	// Minimum score improvement (0-100 scale) before a replacement route is
	// published; smaller gains are discarded to avoid thrashing the
	// driver's plan.
	SignificanceThreshold float64
	// Route-deviation distance that forces an immediate recompute.
	DeviationThresholdM float64
	// Preparation delay that forces an immediate recompute.
	PrepDelayThreshold time.Duration
}

func DefaultConfig() Config {
	return Config{
		Interval:              30 * time.Second,
		SignificanceThreshold: 5.0,
		DeviationThresholdM:   500,
		PrepDelayThreshold:    10 * time.Minute,
	}
}

// Monitor owns the lifecycle of one active route per batch. Each batch gets
// its own goroutine that serializes recomputations: a periodic ticker and
// the event subscription feed the same loop, recomputation runs off that
// loop so event intake is never blocked, and at most one recomputation is in
// flight per batch with a queue-of-one for triggers arriving meanwhile.
type Monitor struct {
	cfg    Config
	engine Recomputer
	bus    ports.EventBus
	pub    ports.RoutePublisher

	mu      sync.Mutex
	batches map[string]*batchState
}

type batchState struct {
	batchID  string
	driverID string
	criteria domain.OptimizationCriteria
	cancel   context.CancelFunc
	done     chan struct{}

	mu       sync.RWMutex
	current  *domain.OptimizedRoute
	previous *domain.OptimizedRoute
}

type cycleResult struct {
	route     *domain.OptimizedRoute
	remaining int
	reason    domain.UpdateReason
	trigger   string
	err       error
}

func New(cfg Config, engine Recomputer, bus ports.EventBus, pub ports.RoutePublisher) *Monitor {
	return &Monitor{
		cfg:     cfg,
		engine:  engine,
		bus:     bus,
		pub:     pub,
		batches: make(map[string]*batchState),
	}
}

// Start begins monitoring a batch around an initial route. Monitoring
// outlives the caller's request context; it ends with Stop, StopAll, or when
// parent is cancelled.
func (m *Monitor) Start(parent context.Context, batchID, driverID string, criteria domain.OptimizationCriteria, initial *domain.OptimizedRoute) error {
	if initial == nil {
		return &domain.DataError{Reason: "monitoring requires an initial route"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.batches[batchID]; ok {
		return fmt.Errorf("start monitoring: batch %s is already monitored", batchID)
	}

	ctx, cancel := context.WithCancel(parent)
	events, unsubscribe, err := m.bus.Subscribe(ctx, batchID)
	if err != nil {
		cancel()
		return fmt.Errorf("start monitoring: subscribe to events for batch %s: %w", batchID, err)
	}

	b := &batchState{
		batchID:  batchID,
		driverID: driverID,
		criteria: criteria,
		cancel:   cancel,
		done:     make(chan struct{}),
		current:  initial,
	}
	m.batches[batchID] = b

	go m.run(ctx, b, events, unsubscribe)

	log.Printf("monitor batch=%s severity=info msg=\"monitoring started\" interval=%s threshold=%.1f score=%.1f",
		batchID, m.cfg.Interval, m.cfg.SignificanceThreshold, initial.Score)
	return nil
}

// Stop deterministically ends monitoring for a batch: the ticker and event
// subscription are cancelled and any in-flight recomputation result is
// discarded before batch state is released.
func (m *Monitor) Stop(batchID string) error {
	m.mu.Lock()
	b, ok := m.batches[batchID]
	if ok {
		delete(m.batches, batchID)
	}
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("stop monitoring: batch %s is not monitored", batchID)
	}

	b.cancel()
	<-b.done
	log.Printf("monitor batch=%s severity=info msg=\"monitoring stopped\"", batchID)
	return nil
}

// StopAll ends monitoring for every batch. Used on shutdown.
func (m *Monitor) StopAll() {
	m.mu.Lock()
	states := make([]*batchState, 0, len(m.batches))
	for id, b := range m.batches {
		states = append(states, b)
		delete(m.batches, id)
	}
	m.mu.Unlock()

	for _, b := range states {
		b.cancel()
		<-b.done
	}
}

// CurrentRoute returns the most recently accepted route for a batch.
func (m *Monitor) CurrentRoute(batchID string) (*domain.OptimizedRoute, bool) {
	m.mu.Lock()
	b, ok := m.batches[batchID]
	m.mu.Unlock()
	if !ok {
		return nil, false
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.current, b.current != nil
}

// run is the per-batch event loop. All reads and writes of the batch's
// current-route reference happen here or under its lock, so recomputations
// for one batch are totally ordered.
func (m *Monitor) run(ctx context.Context, b *batchState, events <-chan domain.RouteEvent, unsubscribe func()) {
	defer close(b.done)
	defer unsubscribe()

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	results := make(chan cycleResult, 1)
	inFlight := false
	var pendingReason domain.UpdateReason
	var pendingTrigger string
	pending := false

	launch := func(reason domain.UpdateReason, trigger string) {
		if inFlight {
			// Queue-of-one: remember the latest trigger, run once the
			// current recomputation lands.
			pendingReason, pendingTrigger, pending = reason, trigger, true
			return
		}
		inFlight = true
		go m.recompute(ctx, b, reason, trigger, results)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			launch(domain.ReasonPeriodic, "periodic")

		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			reason, qualifies := m.classify(ev)
			if !qualifies {
				log.Printf("monitor batch=%s event=%s severity=debug msg=\"state-only event\"", b.batchID, ev.Type)
				continue
			}
			log.Printf("monitor batch=%s event=%s severity=info msg=\"recomputation triggered\" reason=%s", b.batchID, ev.Type, reason)
			launch(reason, string(ev.Type))

		case res := <-results:
			inFlight = false
			m.apply(ctx, b, res)
			if pending {
				pending = false
				launch(pendingReason, pendingTrigger)
			}
		}
	}
}

// recompute runs one solve off the event loop and hands the result back.
// A result completing after the batch context ends is dropped, not applied.
func (m *Monitor) recompute(ctx context.Context, b *batchState, reason domain.UpdateReason, trigger string, results chan<- cycleResult) {
	start := time.Now()
	recomputationsTotal.Inc()

	route, remaining, err := m.engine.RecomputeRemaining(ctx, b.batchID, b.driverID, b.criteria)
	cycleDuration.Observe(time.Since(start).Seconds())

	select {
	case results <- cycleResult{route: route, remaining: remaining, reason: reason, trigger: trigger, err: err}:
	case <-ctx.Done():
	}
}

// apply decides whether a recomputed route replaces the current one.
func (m *Monitor) apply(ctx context.Context, b *batchState, res cycleResult) {
	if res.err != nil {
		// Per-cycle failures never terminate the loop; transient fetch
		// problems resolve themselves by the next tick.
		if domain.IsTransient(res.err) {
			cyclesSkipped.Inc()
			log.Printf("monitor batch=%s severity=warn msg=\"cycle skipped\" trigger=%s err=%v", b.batchID, res.trigger, res.err)
			return
		}
		cyclesFailed.Inc()
		log.Printf("monitor batch=%s severity=error msg=\"recomputation failed\" trigger=%s err=%v", b.batchID, res.trigger, res.err)
		return
	}

	if res.route == nil {
		// One order or none left: no reordering is possible.
		cyclesSkipped.Inc()
		log.Printf("monitor batch=%s severity=info msg=\"cycle skipped\" trigger=%s remaining=%d", b.batchID, res.trigger, res.remaining)
		return
	}

	b.mu.Lock()
	current := b.current
	delta := res.route.Score - current.Score
	if delta < m.cfg.SignificanceThreshold {
		b.mu.Unlock()
		updatesDiscarded.Inc()
		log.Printf("monitor batch=%s severity=info msg=\"improvement below threshold, route kept\" trigger=%s score_delta=%.1f threshold=%.1f",
			b.batchID, res.trigger, delta, m.cfg.SignificanceThreshold)
		return
	}
	b.previous = current
	b.current = res.route
	b.mu.Unlock()

	update := &domain.RouteUpdate{
		PreviousRouteID: current.ID,
		Route:           res.route,
		Reason:          res.reason,
		CreatedAt:       time.Now().UTC(),
		Metadata: map[string]any{
			"score_delta":      delta,
			"trigger":          res.trigger,
			"remaining_orders": res.remaining,
		},
	}

	updatesPublished.Inc()
	log.Printf("monitor batch=%s severity=info msg=\"route replaced\" trigger=%s reason=%s score_delta=%.1f new_score=%.1f distance_km=%.2f duration=%s",
		b.batchID, res.trigger, res.reason, delta, res.route.Score, res.route.TotalDistanceKm, res.route.TotalDuration)

	if err := m.pub.PublishUpdate(ctx, update); err != nil {
		log.Printf("monitor batch=%s severity=error msg=\"publish update failed\" err=%v", b.batchID, err)
	}
}
