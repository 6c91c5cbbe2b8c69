package domain

import "time"

// Kind of stop a waypoint represents.
type WaypointType string

const (
	WaypointPickup   WaypointType = "pickup"
	WaypointDelivery WaypointType = "delivery"
)

// Represents a single stop in an optimized route.
// Sequence numbers are contiguous starting at 1; every order contributes
// exactly one pickup and one delivery waypoint.
type RouteWaypoint struct {
	Type               WaypointType
	OrderID            string
	Location           Location
	Sequence           int
	EstimatedArrival   time.Time
	ServiceDuration    time.Duration
	DistanceFromPrevKm float64
}

// The output of one optimization run for a batch.
// An OptimizedRoute is immutable planning data; a later solve supersedes it
// rather than mutating it.
type OptimizedRoute struct {
	ID                string
	BatchID           string
	Waypoints         []RouteWaypoint
	TotalDistanceKm   float64
	TotalDuration     time.Duration
	DurationInTraffic time.Duration
	Score             float64 // 0-100
	Criteria          OptimizationCriteria
	OverallTraffic    TrafficCondition
	CreatedAt         time.Time
}

// An accepted replacement plan for a previously published route.
type RouteUpdate struct {
	PreviousRouteID string
	Route           *OptimizedRoute
	Reason          UpdateReason
	Metadata        map[string]any
	CreatedAt       time.Time
}

// Why a replacement route was published.
type UpdateReason string

const (
	ReasonPeriodic         UpdateReason = "periodic_reoptimization"
	ReasonOrderComposition UpdateReason = "order_composition_changed"
	ReasonTrafficIncident  UpdateReason = "traffic_incident"
	ReasonWeatherAlert     UpdateReason = "weather_alert"
	ReasonRouteDeviation   UpdateReason = "route_deviation"
	ReasonPreparationDelay UpdateReason = "preparation_delay"
)
