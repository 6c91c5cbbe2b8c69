package dto

import (
	"time"

	"route-optimizer-service/internal/domain"
)

type CriteriaRequest struct {
	Distance        float64 `json:"distance"`
	PreparationTime float64 `json:"preparation_time"`
	Traffic         float64 `json:"traffic"`
	DeliveryWindow  float64 `json:"delivery_window"`
}

func (c *CriteriaRequest) ToDomain() domain.OptimizationCriteria {
	return domain.OptimizationCriteria{
		Distance:        c.Distance,
		PreparationTime: c.PreparationTime,
		Traffic:         c.Traffic,
		DeliveryWindow:  c.DeliveryWindow,
	}
}

type OptimizeRequest struct {
	BatchID  string           `json:"batch_id"`
	Criteria *CriteriaRequest `json:"criteria"`
}

type MonitorRequest struct {
	BatchID  string           `json:"batch_id"`
	Criteria *CriteriaRequest `json:"criteria"`
}

type WaypointResponse struct {
	Type               string    `json:"type"`
	OrderID            string    `json:"order_id"`
	Lat                float64   `json:"lat"`
	Lon                float64   `json:"lon"`
	Sequence           int       `json:"sequence"`
	EstimatedArrival   time.Time `json:"estimated_arrival"`
	ServiceSeconds     int       `json:"service_seconds"`
	DistanceFromPrevKm float64   `json:"distance_from_prev_km"`
}

type RouteResponse struct {
	RouteID                string             `json:"route_id"`
	BatchID                string             `json:"batch_id"`
	Score                  float64            `json:"score"`
	TotalDistanceKm        float64            `json:"total_distance_km"`
	TotalDurationSeconds   int                `json:"total_duration_seconds"`
	TrafficDurationSeconds int                `json:"traffic_duration_seconds"`
	OverallTraffic         string             `json:"overall_traffic"`
	CreatedAt              time.Time          `json:"created_at"`
	Waypoints              []WaypointResponse `json:"waypoints"`
}

func NewRouteResponse(r *domain.OptimizedRoute) RouteResponse {
	waypoints := make([]WaypointResponse, 0, len(r.Waypoints))
	for _, w := range r.Waypoints {
		waypoints = append(waypoints, WaypointResponse{
			Type:               string(w.Type),
			OrderID:            w.OrderID,
			Lat:                w.Location.Lat,
			Lon:                w.Location.Lon,
			Sequence:           w.Sequence,
			EstimatedArrival:   w.EstimatedArrival,
			ServiceSeconds:     int(w.ServiceDuration.Seconds()),
			DistanceFromPrevKm: w.DistanceFromPrevKm,
		})
	}

	return RouteResponse{
		RouteID:                r.ID,
		BatchID:                r.BatchID,
		Score:                  r.Score,
		TotalDistanceKm:        r.TotalDistanceKm,
		TotalDurationSeconds:   int(r.TotalDuration.Seconds()),
		TrafficDurationSeconds: int(r.DurationInTraffic.Seconds()),
		OverallTraffic:         string(r.OverallTraffic),
		CreatedAt:              r.CreatedAt,
		Waypoints:              waypoints,
	}
}
