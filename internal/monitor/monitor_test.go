package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"route-optimizer-service/internal/domain"
)

// --- fakes ---

type fakeRecomputer struct {
	mu        sync.Mutex
	route     *domain.OptimizedRoute
	remaining int
	err       error
	calls     chan struct{}
}

func newFakeRecomputer() *fakeRecomputer {
	return &fakeRecomputer{calls: make(chan struct{}, 16)}
}

func (f *fakeRecomputer) set(route *domain.OptimizedRoute, remaining int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.route, f.remaining, f.err = route, remaining, err
}

func (f *fakeRecomputer) RecomputeRemaining(_ context.Context, _, _ string, _ domain.OptimizationCriteria) (*domain.OptimizedRoute, int, error) {
	f.mu.Lock()
	route, remaining, err := f.route, f.remaining, f.err
	f.mu.Unlock()

	select {
	case f.calls <- struct{}{}:
	default:
	}
	return route, remaining, err
}

type fakeBus struct {
	events chan domain.RouteEvent

	mu        sync.Mutex
	cancelled bool
}

func newFakeBus() *fakeBus {
	return &fakeBus{events: make(chan domain.RouteEvent)}
}

func (b *fakeBus) Subscribe(_ context.Context, _ string) (<-chan domain.RouteEvent, func(), error) {
	return b.events, func() {
		b.mu.Lock()
		b.cancelled = true
		b.mu.Unlock()
	}, nil
}

func (b *fakeBus) wasCancelled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cancelled
}

type fakePublisher struct {
	mu        sync.Mutex
	updates   []*domain.RouteUpdate
	published chan struct{}
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{published: make(chan struct{}, 16)}
}

func (p *fakePublisher) PublishRoute(_ context.Context, _ *domain.OptimizedRoute) error { return nil }

func (p *fakePublisher) PublishUpdate(_ context.Context, update *domain.RouteUpdate) error {
	p.mu.Lock()
	p.updates = append(p.updates, update)
	p.mu.Unlock()

	select {
	case p.published <- struct{}{}:
	default:
	}
	return nil
}

func (p *fakePublisher) all() []*domain.RouteUpdate {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*domain.RouteUpdate(nil), p.updates...)
}

// --- helpers ---

func testRoute(id string, score float64) *domain.OptimizedRoute {
	return &domain.OptimizedRoute{
		ID:        id,
		BatchID:   "batch-1",
		Score:     score,
		CreatedAt: time.Now().UTC(),
	}
}

// quietConfig keeps the periodic ticker out of the way so tests drive the
// monitor through events only.
func quietConfig() Config {
	cfg := DefaultConfig()
	cfg.Interval = time.Hour
	return cfg
}

func waitSignal(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func expectQuiet(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
		t.Fatalf("unexpected %s", what)
	case <-time.After(150 * time.Millisecond):
	}
}

// --- tests ---

func TestInsignificantImprovementNotPublished(t *testing.T) {
	rec := newFakeRecomputer()
	bus := newFakeBus()
	pub := newFakePublisher()
	m := New(quietConfig(), rec, bus, pub)

	initial := testRoute("r1", 80)
	require.NoError(t, m.Start(context.Background(), "batch-1", "driver-1", domain.BalancedCriteria(), initial))
	defer m.Stop("batch-1")

	// 3-point gain with a 5-point threshold: recompute runs, nothing ships.
	rec.set(testRoute("r2", 83), 3, nil)
	bus.events <- domain.RouteEvent{Type: domain.EventOrderRemoved, BatchID: "batch-1"}

	waitSignal(t, rec.calls, "recomputation")
	expectQuiet(t, pub.published, "route update publication")

	current, ok := m.CurrentRoute("batch-1")
	require.True(t, ok)
	assert.Equal(t, "r1", current.ID, "current route must stay the initial one")
	assert.Empty(t, pub.all())
}

func TestSignificantImprovementPublished(t *testing.T) {
	rec := newFakeRecomputer()
	bus := newFakeBus()
	pub := newFakePublisher()
	m := New(quietConfig(), rec, bus, pub)

	initial := testRoute("r1", 70)
	require.NoError(t, m.Start(context.Background(), "batch-1", "driver-1", domain.BalancedCriteria(), initial))
	defer m.Stop("batch-1")

	rec.set(testRoute("r2", 85), 4, nil)
	bus.events <- domain.RouteEvent{Type: domain.EventOrderAdded, BatchID: "batch-1"}

	waitSignal(t, rec.calls, "recomputation")
	waitSignal(t, pub.published, "route update publication")

	updates := pub.all()
	require.Len(t, updates, 1)
	assert.Equal(t, "r1", updates[0].PreviousRouteID)
	assert.Equal(t, domain.ReasonOrderComposition, updates[0].Reason)
	assert.InDelta(t, 15.0, updates[0].Metadata["score_delta"], 1e-9)
	assert.Equal(t, 4, updates[0].Metadata["remaining_orders"])

	current, ok := m.CurrentRoute("batch-1")
	require.True(t, ok)
	assert.Equal(t, "r2", current.ID)
}

func TestSingleRemainingOrderSkipsRecomputation(t *testing.T) {
	rec := newFakeRecomputer()
	bus := newFakeBus()
	pub := newFakePublisher()
	m := New(quietConfig(), rec, bus, pub)

	initial := testRoute("r1", 80)
	require.NoError(t, m.Start(context.Background(), "batch-1", "driver-1", domain.BalancedCriteria(), initial))
	defer m.Stop("batch-1")

	// One order left: the engine declines to re-sequence and the monitor
	// must treat that as a clean skip.
	rec.set(nil, 1, nil)
	bus.events <- domain.RouteEvent{Type: domain.EventOrderRemoved, BatchID: "batch-1"}

	waitSignal(t, rec.calls, "recomputation")
	expectQuiet(t, pub.published, "route update publication")

	current, ok := m.CurrentRoute("batch-1")
	require.True(t, ok)
	assert.Equal(t, "r1", current.ID)
}

func TestSevereTrafficTriggersImmediateRecompute(t *testing.T) {
	rec := newFakeRecomputer()
	bus := newFakeBus()
	pub := newFakePublisher()
	m := New(quietConfig(), rec, bus, pub)

	require.NoError(t, m.Start(context.Background(), "batch-1", "driver-1", domain.BalancedCriteria(), testRoute("r1", 80)))
	defer m.Stop("batch-1")

	rec.set(testRoute("r2", 90), 3, nil)
	bus.events <- domain.RouteEvent{
		Type:    domain.EventTrafficIncident,
		BatchID: "batch-1",
		Payload: map[string]any{"severity": "severe"},
	}

	// The ticker is an hour away; only the event can have caused this.
	waitSignal(t, rec.calls, "event-driven recomputation")
	waitSignal(t, pub.published, "route update publication")

	updates := pub.all()
	require.Len(t, updates, 1)
	assert.Equal(t, domain.ReasonTrafficIncident, updates[0].Reason)
}

func TestMinorEventsDoNotTriggerRecompute(t *testing.T) {
	rec := newFakeRecomputer()
	bus := newFakeBus()
	pub := newFakePublisher()
	m := New(quietConfig(), rec, bus, pub)

	require.NoError(t, m.Start(context.Background(), "batch-1", "driver-1", domain.BalancedCriteria(), testRoute("r1", 80)))
	defer m.Stop("batch-1")

	bus.events <- domain.RouteEvent{Type: domain.EventDriverLocation, BatchID: "batch-1", Payload: map[string]any{"lat": 3.14, "lon": 101.68}}
	bus.events <- domain.RouteEvent{Type: domain.EventTrafficIncident, BatchID: "batch-1", Payload: map[string]any{"severity": "light"}}
	bus.events <- domain.RouteEvent{Type: domain.EventRouteDeviation, BatchID: "batch-1", Payload: map[string]any{"deviation_meters": 120.0}}

	expectQuiet(t, rec.calls, "recomputation")
}

func TestTransientFailureKeepsMonitorAlive(t *testing.T) {
	rec := newFakeRecomputer()
	bus := newFakeBus()
	pub := newFakePublisher()
	m := New(quietConfig(), rec, bus, pub)

	require.NoError(t, m.Start(context.Background(), "batch-1", "driver-1", domain.BalancedCriteria(), testRoute("r1", 80)))
	defer m.Stop("batch-1")

	rec.set(nil, 0, domain.Transient("traffic conditions", context.DeadlineExceeded))
	bus.events <- domain.RouteEvent{Type: domain.EventOrderAdded, BatchID: "batch-1"}
	waitSignal(t, rec.calls, "first recomputation")

	// The loop must survive the failed cycle and run the next trigger.
	rec.set(testRoute("r2", 95), 3, nil)
	bus.events <- domain.RouteEvent{Type: domain.EventOrderAdded, BatchID: "batch-1"}
	waitSignal(t, rec.calls, "second recomputation")
	waitSignal(t, pub.published, "route update publication")

	current, ok := m.CurrentRoute("batch-1")
	require.True(t, ok)
	assert.Equal(t, "r2", current.ID)
}

func TestStopCancelsSubscriptionAndState(t *testing.T) {
	rec := newFakeRecomputer()
	bus := newFakeBus()
	pub := newFakePublisher()
	m := New(quietConfig(), rec, bus, pub)

	require.NoError(t, m.Start(context.Background(), "batch-1", "driver-1", domain.BalancedCriteria(), testRoute("r1", 80)))
	require.NoError(t, m.Stop("batch-1"))

	assert.True(t, bus.wasCancelled(), "stop must cancel the event subscription")

	_, ok := m.CurrentRoute("batch-1")
	assert.False(t, ok, "batch state must be released")

	assert.Error(t, m.Stop("batch-1"), "double stop must report the batch as unmonitored")
}

func TestStartRejectsDuplicateBatch(t *testing.T) {
	rec := newFakeRecomputer()
	bus := newFakeBus()
	pub := newFakePublisher()
	m := New(quietConfig(), rec, bus, pub)

	require.NoError(t, m.Start(context.Background(), "batch-1", "driver-1", domain.BalancedCriteria(), testRoute("r1", 80)))
	defer m.Stop("batch-1")

	assert.Error(t, m.Start(context.Background(), "batch-1", "driver-1", domain.BalancedCriteria(), testRoute("r2", 80)))
	assert.Error(t, m.Start(context.Background(), "batch-2", "driver-1", domain.BalancedCriteria(), nil))
}
