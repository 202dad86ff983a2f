package orders

import (
	"slices"
	"time"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

var statuses = []Status{StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}

// Statuses lists every order status in lifecycle order.
func Statuses() []Status {
	return slices.Clone(statuses)
}

func (s Status) Valid() bool {
	return slices.Contains(statuses, s)
}

// Rank is the position of s in the order lifecycle, used for sorting. Unknown statuses sort last.
func (s Status) Rank() int {
	if i := slices.Index(statuses, s); i >= 0 {
		return i
	}
	return len(statuses)
}

type Item struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	Quantity  float64   `json:"quantity"`
	Price     float64   `json:"price"`
	CreatedAt time.Time `json:"created_at"`
}

type Order struct {
	ID              string    `json:"id"`
	ShopID          string    `json:"shop_id"`
	FarmerID        string    `json:"farmer_id"`
	Status          Status    `json:"status"`
	TotalAmount     float64   `json:"total_amount"`
	DeliveryAddress *string   `json:"delivery_address,omitempty"`
	Notes           *string   `json:"notes,omitempty"`
	Items           []Item    `json:"items"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type ListResponse struct {
	Items  []Order `json:"items"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

type UpdateRequest struct {
	Status          *Status `json:"status,omitempty"`
	DeliveryAddress *string `json:"delivery_address,omitempty"`
	Notes           *string `json:"notes,omitempty"`
}
