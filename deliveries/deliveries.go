package deliveries

import (
	"slices"
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusAssigned  Status = "assigned"
	StatusInTransit Status = "in_transit"
	StatusDelivered Status = "delivered"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

var statuses = []Status{StatusPending, StatusAssigned, StatusInTransit, StatusDelivered, StatusFailed, StatusCancelled}

func Statuses() []Status {
	return slices.Clone(statuses)
}

func (s Status) Valid() bool {
	return slices.Contains(statuses, s)
}

type Delivery struct {
	ID                string     `json:"id"`
	OrderID           string     `json:"order_id"`
	Status            Status     `json:"status"`
	DeliveryAddress   string     `json:"delivery_address"`
	CourierName       *string    `json:"courier_name,omitempty"`
	CourierPhone      *string    `json:"courier_phone,omitempty"`
	TrackingNumber    *string    `json:"tracking_number,omitempty"`
	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty"`
	DeliveredAt       *time.Time `json:"delivered_at,omitempty"`
	Notes             *string    `json:"notes,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// UpdateRequest is a partial update; nil fields are left unchanged.
type UpdateRequest struct {
	Status            *Status    `json:"status,omitempty"`
	CourierName       *string    `json:"courier_name,omitempty"`
	CourierPhone      *string    `json:"courier_phone,omitempty"`
	TrackingNumber    *string    `json:"tracking_number,omitempty"`
	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty"`
	Notes             *string    `json:"notes,omitempty"`
}
