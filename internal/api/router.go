package api

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"route-optimizer-service/internal/api/handlers"
	"route-optimizer-service/internal/engine"
	"route-optimizer-service/internal/monitor"
	"route-optimizer-service/internal/ports"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(
	appCtx context.Context,
	optimizer *engine.Optimizer,
	orders ports.OrderSource,
	store ports.RouteStore,
	publisher ports.RoutePublisher,
	mon *monitor.Monitor,
	feed handlers.UpdatesFeed,
	readiness map[string]handlers.Pinger,
) http.Handler {
	mux := http.NewServeMux()

	routeHandler := &handlers.RouteHandler{
		AppCtx:    appCtx,
		Optimizer: optimizer,
		Orders:    orders,
		Store:     store,
		Publisher: publisher,
		Monitor:   mon,
	}
	liveHandler := &handlers.LiveHandler{Feed: feed}

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/ready", handlers.Readiness(readiness))
	mux.HandleFunc("/optimize", routeHandler.Optimize)
	mux.HandleFunc("/routes/current", routeHandler.CurrentRoute)
	mux.HandleFunc("/routes/live", liveHandler.Live)
	mux.HandleFunc("/monitor/start", routeHandler.StartMonitoring)
	mux.HandleFunc("/monitor/stop", routeHandler.StopMonitoring)
	mux.Handle("/metrics", promhttp.Handler())

	return recoverMiddleware(loggingMiddleware(mux))
}
