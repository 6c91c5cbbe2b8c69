package handlers

import (
	"context"
	"net/http"
	"time"
)

// Pinger is implemented by backing stores the readiness check probes.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingerFunc adapts a bare ping function to the Pinger interface.
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

// Health provides a minimal liveness check endpoint.
func Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	res := map[string]string{"status": "ok", "service": "route-optimizer"}
	writeJSON(w, r, http.StatusOK, res)
}

// Readiness reports whether the named backing stores answer a ping. A
// failing dependency yields 503 so the process can stay up while load
// balancers route around it.
func Readiness(deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		res := make(map[string]string, len(deps)+1)
		for name, dep := range deps {
			if err := dep.PingContext(ctx); err != nil {
				status = http.StatusServiceUnavailable
				res[name] = "unreachable"
				continue
			}
			res[name] = "ok"
		}
		if status == http.StatusOK {
			res["status"] = "ready"
		} else {
			res["status"] = "degraded"
		}
		writeJSON(w, r, status, res)
	}
}
