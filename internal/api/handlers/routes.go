package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"route-optimizer-service/internal/api/dto"
	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/engine"
	"route-optimizer-service/internal/monitor"
	"route-optimizer-service/internal/ports"
)

// RouteHandler exposes the optimization entry point and the monitoring
// lifecycle. AppCtx bounds monitor lifetimes: monitoring must outlive the
// request that started it but not the process.
type RouteHandler struct {
	AppCtx    context.Context
	Optimizer *engine.Optimizer
	Orders    ports.OrderSource
	Store     ports.RouteStore
	Publisher ports.RoutePublisher
	Monitor   *monitor.Monitor
}

// Optimize computes an optimized route for a batch's current orders.
func (h *RouteHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req dto.OptimizeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	batchID := strings.TrimSpace(req.BatchID)
	if batchID == "" {
		writeError(w, r, http.StatusBadRequest, "batch_id is required")
		return
	}

	route, _, ok := h.compute(w, r, batchID, req.Criteria)
	if !ok {
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewRouteResponse(route))
}

// StartMonitoring computes an initial route for the batch and begins the
// adjustment loop around it.
func (h *RouteHandler) StartMonitoring(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req dto.MonitorRequest
	if !decodeBody(w, r, &req) {
		return
	}

	batchID := strings.TrimSpace(req.BatchID)
	if batchID == "" {
		writeError(w, r, http.StatusBadRequest, "batch_id is required")
		return
	}

	route, driverID, ok := h.compute(w, r, batchID, req.Criteria)
	if !ok {
		return
	}

	criteria := domain.BalancedCriteria()
	if req.Criteria != nil {
		criteria = req.Criteria.ToDomain()
	}

	if err := h.Monitor.Start(h.AppCtx, batchID, driverID, criteria, route); err != nil {
		writeError(w, r, http.StatusConflict, err.Error())
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewRouteResponse(route))
}

// StopMonitoring ends the adjustment loop for a batch.
func (h *RouteHandler) StopMonitoring(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req dto.MonitorRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.Monitor.Stop(strings.TrimSpace(req.BatchID)); err != nil {
		writeError(w, r, http.StatusNotFound, err.Error())
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]string{"status": "stopped"})
}

// CurrentRoute returns the most recently accepted route for a monitored batch.
func (h *RouteHandler) CurrentRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	batchID := strings.TrimSpace(r.URL.Query().Get("batch_id"))
	if batchID == "" {
		writeError(w, r, http.StatusBadRequest, "batch_id is required")
		return
	}

	route, ok := h.Monitor.CurrentRoute(batchID)
	if !ok {
		writeError(w, r, http.StatusNotFound, "batch is not monitored")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewRouteResponse(route))
}

// compute runs the optimizer, persists and publishes the result, and maps
// the error taxonomy onto HTTP statuses.
func (h *RouteHandler) compute(w http.ResponseWriter, r *http.Request, batchID string, criteriaReq *dto.CriteriaRequest) (*domain.OptimizedRoute, string, bool) {
	criteria := domain.BalancedCriteria()
	if criteriaReq != nil {
		criteria = criteriaReq.ToDomain()
	}

	driverID, err := h.Orders.BatchDriver(r.Context(), batchID)
	if err != nil {
		var dataErr *domain.DataError
		if errors.As(err, &dataErr) {
			writeError(w, r, http.StatusNotFound, dataErr.Reason)
			return nil, "", false
		}
		log.Printf("resolve driver failed: batch=%s err=%v", batchID, err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return nil, "", false
	}

	route, err := h.Optimizer.ComputeRoute(r.Context(), batchID, driverID, criteria)
	if err != nil {
		var confErr *domain.ConfigurationError
		var dataErr *domain.DataError
		switch {
		case errors.As(err, &confErr):
			writeError(w, r, http.StatusBadRequest, confErr.Reason)
		case errors.As(err, &dataErr):
			writeError(w, r, http.StatusBadRequest, dataErr.Reason)
		default:
			log.Printf("compute route failed: batch=%s err=%v", batchID, err)
			writeError(w, r, http.StatusInternalServerError, "internal server error")
		}
		return nil, "", false
	}

	if h.Store != nil {
		if err := h.Store.SaveRoute(r.Context(), route); err != nil {
			log.Printf("save route failed: batch=%s route=%s err=%v", batchID, route.ID, err)
			writeError(w, r, http.StatusInternalServerError, "internal server error")
			return nil, "", false
		}
	}

	if err := h.Publisher.PublishRoute(r.Context(), route); err != nil {
		// Publication feeds the live layer; the computed route is still valid.
		log.Printf("publish route failed: batch=%s route=%s err=%v", batchID, route.ID, err)
	}

	return route, driverID, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return false
	}
	return true
}
