package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"route-optimizer-service/internal/adapters/prep"
	"route-optimizer-service/internal/api/dto"
	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/engine"
	"route-optimizer-service/internal/monitor"
)

// --- fakes ---

type fakeOrders struct {
	orders map[string][]domain.Order
	driver map[string]string
}

func (f *fakeOrders) BatchOrders(_ context.Context, batchID string) ([]domain.Order, error) {
	return f.orders[batchID], nil
}

func (f *fakeOrders) RemainingOrders(_ context.Context, batchID string) ([]domain.Order, error) {
	return f.orders[batchID], nil
}

func (f *fakeOrders) BatchDriver(_ context.Context, batchID string) (string, error) {
	d, ok := f.driver[batchID]
	if !ok {
		return "", &domain.DataError{Reason: "batch " + batchID + " does not exist"}
	}
	return d, nil
}

type fakeConditions struct{}

func (fakeConditions) Traffic(_ context.Context, orderIDs []string) (map[string]domain.TrafficCondition, error) {
	out := make(map[string]domain.TrafficCondition, len(orderIDs))
	for _, id := range orderIDs {
		out[id] = domain.TrafficLight
	}
	return out, nil
}

type fakeLocation struct{ loc domain.Location }

func (f fakeLocation) Current(_ context.Context, _ string) (domain.Location, error) {
	return f.loc, nil
}

type nopPublisher struct{}

func (nopPublisher) PublishRoute(context.Context, *domain.OptimizedRoute) error { return nil }
func (nopPublisher) PublishUpdate(context.Context, *domain.RouteUpdate) error   { return nil }

type nopRecomputer struct{}

func (nopRecomputer) RecomputeRemaining(context.Context, string, string, domain.OptimizationCriteria) (*domain.OptimizedRoute, int, error) {
	return nil, 0, nil
}

type nopBus struct{}

func (nopBus) Subscribe(context.Context, string) (<-chan domain.RouteEvent, func(), error) {
	return make(chan domain.RouteEvent), func() {}, nil
}

// --- helpers ---

func testHandler() *RouteHandler {
	orders := &fakeOrders{
		orders: map[string][]domain.Order{
			"batch-1": {
				{ID: "o1", BatchID: "batch-1", Pickup: domain.Location{Lat: 3.1500, Lon: 101.7000}, Delivery: domain.Location{Lat: 3.1600, Lon: 101.7100}},
				{ID: "o2", BatchID: "batch-1", Pickup: domain.Location{Lat: 3.1450, Lon: 101.6950}, Delivery: domain.Location{Lat: 3.1700, Lon: 101.7200}},
			},
		},
		driver: map[string]string{"batch-1": "driver-1"},
	}

	optimizer := &engine.Optimizer{
		Orders:    orders,
		Prep:      prep.NewStaticPredictor(),
		Condition: fakeConditions{},
		Location:  fakeLocation{loc: domain.Location{Lat: 3.1390, Lon: 101.6869}},
		Distance:  engine.HaversineSource{},
	}

	return &RouteHandler{
		AppCtx:    context.Background(),
		Optimizer: optimizer,
		Orders:    orders,
		Publisher: nopPublisher{},
		Monitor:   monitor.New(monitor.DefaultConfig(), nopRecomputer{}, nopBus{}, nopPublisher{}),
	}
}

func postJSON(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

// --- tests ---

func TestOptimizeReturnsRoute(t *testing.T) {
	h := testHandler()

	rec := postJSON(t, h.Optimize, `{"batch_id":"batch-1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res dto.RouteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))

	assert.Equal(t, "batch-1", res.BatchID)
	assert.NotEmpty(t, res.RouteID)
	assert.Len(t, res.Waypoints, 4, "two orders produce four waypoints")
	assert.GreaterOrEqual(t, res.Score, 0.0)
	assert.LessOrEqual(t, res.Score, 100.0)

	for i, w := range res.Waypoints {
		assert.Equal(t, i+1, w.Sequence)
	}
}

func TestOptimizeRejectsInvalidCriteria(t *testing.T) {
	h := testHandler()

	rec := postJSON(t, h.Optimize, `{"batch_id":"batch-1","criteria":{"distance":0.5,"preparation_time":0.1,"traffic":0.1,"delivery_window":0.1}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOptimizeUnknownBatch(t *testing.T) {
	h := testHandler()

	rec := postJSON(t, h.Optimize, `{"batch_id":"nope"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOptimizeRequiresBatchID(t *testing.T) {
	h := testHandler()

	rec := postJSON(t, h.Optimize, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOptimizeMethodNotAllowed(t *testing.T) {
	h := testHandler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.Optimize(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestStopMonitoringUnknownBatch(t *testing.T) {
	h := testHandler()

	rec := postJSON(t, h.StopMonitoring, `{"batch_id":"batch-1"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCurrentRouteUnmonitoredBatch(t *testing.T) {
	h := testHandler()

	req := httptest.NewRequest(http.MethodGet, "/?batch_id=batch-1", nil)
	rec := httptest.NewRecorder()
	h.CurrentRoute(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
