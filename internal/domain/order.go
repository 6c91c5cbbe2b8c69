package domain

import "time"

// Represents a single order the driver is carrying.
// An Order is immutable once it is part of a batch; pickup and delivery
// coordinates are provided by the external order source.
type Order struct {
	ID       string
	BatchID  string
	Pickup   Location
	Delivery Location
	Status   OrderStatus
}

// Order progression as reported by the external order source.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusPickedUp  OrderStatus = "picked_up"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Completed reports whether the order no longer needs routing.
func (s OrderStatus) Completed() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// Predicted readiness of an order for pickup, supplied per optimization run
// by an external predictor. Confidence is in [0,1].
type PreparationWindow struct {
	OrderID        string
	EstimatedReady time.Time
	Confidence     float64
}
