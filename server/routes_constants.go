package server

// Route path constants
// All console routes are defined here to ensure consistency and prevent typos
const (
	// Landing - login page when signed out
	RouteLanding = "/"

	// Auth Routes
	RouteAuthSendOTP      = "/auth/send-otp"
	RouteAuthVerifyOTP    = "/auth/verify-otp"
	RouteAuthChangeNumber = "/auth/change-number"
	RouteAuthLogin        = "/auth/login"
	RouteAuthLogout       = "/auth/logout"

	// Console Routes
	RouteApp           = "/app" // users
	RouteProducts      = "/app/products"
	RouteProductNew    = "/app/products/new"
	RouteProduct       = "/app/products/{id}"
	RouteProductEdit   = "/app/products/{id}/edit"
	RouteProductDelete = "/app/products/{id}/delete"
	RouteOrders        = "/app/orders"
	RouteOrderStatus   = "/app/orders/{id}/status"
	RouteDeliveries    = "/app/deliveries"
	RouteDelivery      = "/app/deliveries/{orderID}"
	RouteProfile       = "/app/profile"

	// Operational Routes
	RouteHealth  = "/health"
	RouteMetrics = "/metrics"

	// Static Routes
	RouteStatic = "/static/{file}"
)
