package view

import (
	"cmp"
	"slices"
	"strings"

	"github.com/jrsteele09/farm-admin/orders"
	"github.com/jrsteele09/farm-admin/products"
)

// Sortable columns.
var (
	ProductSortFields = []string{"price", "name", "quantity", "created_at"}
	OrderSortFields   = []string{"total_amount", "created_at", "status"}
)

// SortProducts orders the current page in place. The sort is stable, so rows with equal keys
// keep the order the API returned them in. Unknown fields leave items untouched.
func SortProducts(items []products.Product, field string, desc bool) {
	var compare func(a, b products.Product) int
	switch field {
	case "price":
		compare = func(a, b products.Product) int { return cmp.Compare(a.Price, b.Price) }
	case "name":
		compare = func(a, b products.Product) int { return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)) }
	case "quantity":
		compare = func(a, b products.Product) int { return cmp.Compare(a.Quantity, b.Quantity) }
	case "created_at":
		compare = func(a, b products.Product) int { return a.CreatedAt.Compare(b.CreatedAt) }
	default:
		return
	}
	slices.SortStableFunc(items, directed(compare, desc))
}

// SortOrders orders the current page in place; status sorts by lifecycle position.
func SortOrders(items []orders.Order, field string, desc bool) {
	var compare func(a, b orders.Order) int
	switch field {
	case "total_amount":
		compare = func(a, b orders.Order) int { return cmp.Compare(a.TotalAmount, b.TotalAmount) }
	case "created_at":
		compare = func(a, b orders.Order) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case "status":
		compare = func(a, b orders.Order) int { return cmp.Compare(a.Status.Rank(), b.Status.Rank()) }
	default:
		return
	}
	slices.SortStableFunc(items, directed(compare, desc))
}

func directed[T any](compare func(a, b T) int, desc bool) func(a, b T) int {
	if !desc {
		return compare
	}
	return func(a, b T) int { return compare(b, a) }
}
