package prep

import (
	"context"
	"sync"

	"route-optimizer-service/internal/domain"
)

// In-memory PreparationPredictor. Stands in for the external predictor in
// local runs and tests; the Redis condition cache replaces it when a real
// predictor feeds the system.
type StaticPredictor struct {
	mu      sync.RWMutex
	windows map[string]domain.PreparationWindow
}

func NewStaticPredictor() *StaticPredictor {
	return &StaticPredictor{windows: make(map[string]domain.PreparationWindow)}
}

func (p *StaticPredictor) Set(w domain.PreparationWindow) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.windows[w.OrderID] = w
}

func (p *StaticPredictor) Windows(_ context.Context, orderIDs []string) (map[string]domain.PreparationWindow, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make(map[string]domain.PreparationWindow, len(orderIDs))
	for _, id := range orderIDs {
		if w, ok := p.windows[id]; ok {
			out[id] = w
		}
	}
	return out, nil
}
