package server

import (
	"context"
	"net/http"
	"slices"

	"github.com/jrsteele09/farm-admin/deliveries"
	"github.com/jrsteele09/farm-admin/orders"
	"github.com/jrsteele09/farm-admin/query"
	"github.com/jrsteele09/farm-admin/view"
)

var orderFilters = []string{"status", "farmer_id", "shop_id"}

type OrdersPageData struct {
	State        view.ListState
	Items        []orders.Order
	Pager        view.Pager
	FilterErrors view.FieldErrors
	LoadError    string
	Return       string // this page, for the inline status forms
}

func orderListParams(state view.ListState) (orders.ListParams, view.FieldErrors) {
	params := orders.ListParams{
		Limit:    state.PageSize,
		Offset:   state.Offset(),
		FarmerID: state.Filter("farmer_id"),
		ShopID:   state.Filter("shop_id"),
	}
	if status := orders.Status(state.Filter("status")); status != "" {
		if !status.Valid() {
			return params, view.FieldErrors{"status": "Unknown status"}
		}
		params.Status = status
	}
	return params, nil
}

// OrdersPageHandler lists orders with inline status changes (GET /app/orders)
func (s *Server) OrdersPageHandler() http.HandlerFunc {
	tmpl := mustParse(ParsePage("orders.html"))

	return func(w http.ResponseWriter, r *http.Request) {
		state := view.ParseListState(r.URL.Query(), s.pageSize(), orderFilters, view.OrderSortFields)
		params, filterErrs := orderListParams(state)
		data := OrdersPageData{State: state, FilterErrors: filterErrs, Return: pathWithQuery(RouteOrders, state.QueryValues())}

		list, applied, err := observe(s, r, query.NewKey(orders.Resource, params.Values()), func(ctx context.Context) (orders.ListResponse, error) {
			return s.clients.Orders.List(ctx, params)
		})
		if !applied {
			return
		}
		if err != nil {
			if s.redirectOnNavigation(w, r, err) {
				return
			}
			data.LoadError = view.Message(err)
		}

		data.Items = slices.Clone(list.Items)
		view.SortOrders(data.Items, state.SortField, state.SortDesc)
		data.Pager = view.Pager{Total: list.Total, Limit: params.Limit, Offset: params.Offset}

		s.renderAdminPage(w, http.StatusOK, tmpl, s.newPage(r, "orders", "Orders", data))
	}
}

type statusChange struct {
	id     string
	status orders.Status
}

// OrderStatusHandler moves an order to the submitted status (POST /app/orders/{id}/status).
// A status change can move the order's delivery too, so both resources are invalidated.
func (s *Server) OrderStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		back := returnPath(r, RouteOrders)

		change := query.NewMutation(s.cache, func(ctx context.Context, in statusChange) (orders.Order, error) {
			return s.clients.Orders.UpdateStatus(ctx, in.id, in.status)
		}, orders.Resource, deliveries.Resource)
		updated, err := change.Run(r.Context(), statusChange{id: r.PathValue("id"), status: orders.Status(r.PostFormValue("status"))})
		if err != nil {
			if s.redirectOnNavigation(w, r, err) {
				return
			}
			redirectWithError(w, r, back, view.Message(err))
			return
		}
		redirectWithNotice(w, r, back, "Order status set to "+string(updated.Status))
	}
}
