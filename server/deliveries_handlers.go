package server

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jrsteele09/farm-admin/deliveries"
	apperrors "github.com/jrsteele09/farm-admin/internal/errors"
	"github.com/jrsteele09/farm-admin/orders"
	"github.com/jrsteele09/farm-admin/query"
	"github.com/jrsteele09/farm-admin/view"
)

type DeliveriesPageData struct {
	Orders    []orders.Order
	OrderID   string
	Delivery  *deliveries.Delivery
	Missing   bool // the selected order has no delivery yet
	Form      view.DeliveryForm
	Action    string
	Errors    view.FieldErrors
	Error     string
	LoadError string
}

func deliveryPath(orderID string) string {
	return RouteDeliveries + "?" + url.Values{"order_id": {orderID}}.Encode()
}

// DeliveriesPageHandler shows the order picker and, for the chosen order, its delivery and
// edit form (GET /app/deliveries?order_id=)
func (s *Server) DeliveriesPageHandler() http.HandlerFunc {
	tmpl := mustParse(ParsePage("deliveries.html"))

	return func(w http.ResponseWriter, r *http.Request) {
		data, ok := s.loadDeliveries(w, r, r.URL.Query().Get("order_id"))
		if !ok {
			return
		}
		if data.Delivery != nil {
			data.Form = view.FromDelivery(*data.Delivery)
		}
		s.renderAdminPage(w, http.StatusOK, tmpl, s.newPage(r, "deliveries", "Deliveries", data))
	}
}

type deliveryUpdate struct {
	orderID string
	req     deliveries.UpdateRequest
}

// UpdateDeliveryHandler saves the delivery form of one order (POST /app/deliveries/{orderID})
func (s *Server) UpdateDeliveryHandler() http.HandlerFunc {
	tmpl := mustParse(ParsePage("deliveries.html"))

	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		orderID := r.PathValue("orderID")
		form := view.ParseDeliveryForm(orderID, r.PostForm)

		status := http.StatusUnprocessableEntity
		errs := form.Validate()
		var writeErr error
		if errs == nil {
			update := query.NewMutation(s.cache, func(ctx context.Context, in deliveryUpdate) (deliveries.Delivery, error) {
				return s.clients.Deliveries.Update(ctx, in.orderID, in.req)
			}, deliveries.Resource, orders.Resource)
			_, writeErr = update.Run(r.Context(), deliveryUpdate{orderID: orderID, req: form.UpdateRequest()})
			if writeErr == nil {
				redirectWithNotice(w, r, deliveryPath(orderID), "Delivery updated")
				return
			}
			if s.redirectOnNavigation(w, r, writeErr) {
				return
			}
			status = statusFor(writeErr)
		}

		// Re-render with the operator's input kept.
		data, ok := s.loadDeliveries(w, r, orderID)
		if !ok {
			return
		}
		data.Form = form
		data.Errors = errs
		if writeErr != nil {
			data.Error = view.Message(writeErr)
		}
		s.renderAdminPage(w, status, tmpl, s.newPage(r, "deliveries", "Deliveries", data))
	}
}

// loadDeliveries reads the picker orders and the selected order's delivery. It reports false
// when the request has already been answered.
func (s *Server) loadDeliveries(w http.ResponseWriter, r *http.Request, orderID string) (DeliveriesPageData, bool) {
	data := DeliveriesPageData{OrderID: orderID}

	params := orders.ListParams{Limit: s.pageSize()}
	list, applied, err := observe(s, r, query.NewKey(orders.Resource, params.Values()), func(ctx context.Context) (orders.ListResponse, error) {
		return s.clients.Orders.List(ctx, params)
	})
	if !applied {
		return data, false
	}
	if err != nil {
		if s.redirectOnNavigation(w, r, err) {
			return data, false
		}
		data.LoadError = view.Message(err)
	}
	data.Orders = list.Items

	if orderID == "" {
		return data, true
	}
	data.Action = RouteDeliveries + "/" + url.PathEscape(orderID)

	delivery, applied, err := observe(s, r, query.DetailKey(deliveries.Resource, orderID), func(ctx context.Context) (deliveries.Delivery, error) {
		return s.clients.Deliveries.GetByOrder(ctx, orderID)
	})
	if !applied {
		return data, false
	}
	switch {
	case err == nil:
		data.Delivery = &delivery
	case apperrors.Is(err, apperrors.ErrNotFound):
		data.Missing = true
	case s.redirectOnNavigation(w, r, err):
		return data, false
	default:
		data.LoadError = view.Message(err)
	}
	return data, true
}
