package server

import (
	"context"
	"html/template"
	"net/http"
	"net/url"
	"slices"
	"strconv"

	apperrors "github.com/jrsteele09/farm-admin/internal/errors"
	"github.com/jrsteele09/farm-admin/products"
	"github.com/jrsteele09/farm-admin/query"
	"github.com/jrsteele09/farm-admin/view"
)

var productFilters = []string{"category", "farmer_id", "search", "min_price", "max_price"}

type ProductsPageData struct {
	State        view.ListState
	Items        []products.Product
	Pager        view.Pager
	FilterErrors view.FieldErrors
	LoadError    string
	Return       string // this page, for the delete forms
}

type ProductFormData struct {
	Form   view.ProductForm
	Action string
	Errors view.FieldErrors
	Error  string
}

// productListParams turns the list state into API filters. Unusable filter values are
// reported and left out of the request.
func productListParams(state view.ListState) (products.ListParams, view.FieldErrors) {
	params := products.ListParams{
		Limit:    state.PageSize,
		Offset:   state.Offset(),
		FarmerID: state.Filter("farmer_id"),
		Search:   state.Filter("search"),
	}
	errs := view.FieldErrors{}

	if c := products.Category(state.Filter("category")); c != "" {
		if c.Valid() {
			params.Category = c
		} else {
			errs["category"] = "Unknown category"
		}
	}
	for name, dst := range map[string]**float64{"min_price": &params.MinPrice, "max_price": &params.MaxPrice} {
		raw := state.Filter(name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			errs[name] = "Enter a price of zero or more"
			continue
		}
		*dst = &v
	}

	if !errs.Any() {
		return params, nil
	}
	return params, errs
}

func productPath(id string) string {
	return RouteProducts + "/" + url.PathEscape(id)
}

// ProductsPageHandler lists products with filters, client-side sorting and paging (GET /app/products)
func (s *Server) ProductsPageHandler() http.HandlerFunc {
	tmpl := mustParse(ParsePage("products.html"))

	return func(w http.ResponseWriter, r *http.Request) {
		state := view.ParseListState(r.URL.Query(), s.pageSize(), productFilters, view.ProductSortFields)
		params, filterErrs := productListParams(state)
		data := ProductsPageData{State: state, FilterErrors: filterErrs, Return: pathWithQuery(RouteProducts, state.QueryValues())}

		list, applied, err := observe(s, r, query.NewKey(products.Resource, params.Values()), func(ctx context.Context) (products.ListResponse, error) {
			return s.clients.Products.List(ctx, params)
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

		// The cached page is shared, sort a copy.
		data.Items = slices.Clone(list.Items)
		view.SortProducts(data.Items, state.SortField, state.SortDesc)
		data.Pager = view.Pager{Total: list.Total, Limit: params.Limit, Offset: params.Offset}

		s.renderAdminPage(w, http.StatusOK, tmpl, s.newPage(r, "products", "Products", data))
	}
}

// NewProductHandler shows the empty create form (GET /app/products/new)
func (s *Server) NewProductHandler() http.HandlerFunc {
	tmpl := mustParse(ParsePage("product_form.html"))

	return func(w http.ResponseWriter, r *http.Request) {
		s.renderProductForm(w, r, tmpl, http.StatusOK, ProductFormData{Form: view.NewProductForm()})
	}
}

// EditProductHandler shows the form filled from the current product (GET /app/products/{id}/edit)
func (s *Server) EditProductHandler() http.HandlerFunc {
	tmpl := mustParse(ParsePage("product_form.html"))

	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		product, applied, err := observe(s, r, query.DetailKey(products.Resource, id), func(ctx context.Context) (products.Product, error) {
			return s.clients.Products.Get(ctx, id)
		})
		if !applied {
			return
		}
		if err != nil {
			if s.redirectOnNavigation(w, r, err) {
				return
			}
			redirectWithError(w, r, RouteProducts, view.Message(err))
			return
		}
		s.renderProductForm(w, r, tmpl, http.StatusOK, ProductFormData{Form: view.FromProduct(product)})
	}
}

// CreateProductHandler validates and creates a product (POST /app/products)
func (s *Server) CreateProductHandler() http.HandlerFunc {
	tmpl := mustParse(ParsePage("product_form.html"))

	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		form := view.ParseProductForm("", r.PostForm)
		if errs := form.Validate(); errs != nil {
			s.renderProductForm(w, r, tmpl, http.StatusUnprocessableEntity, ProductFormData{Form: form, Errors: errs})
			return
		}

		create := query.NewMutation(s.cache, s.clients.Products.Create, products.Resource)
		created, err := create.Run(r.Context(), form.CreateRequest())
		if err != nil {
			if s.redirectOnNavigation(w, r, err) {
				return
			}
			s.renderProductForm(w, r, tmpl, statusFor(err), ProductFormData{Form: form, Error: view.Message(err)})
			return
		}
		redirectWithNotice(w, r, RouteProducts, "Product "+created.Name+" created")
	}
}

type productUpdate struct {
	id  string
	req products.UpdateRequest
}

// UpdateProductHandler validates and saves the edit form (POST /app/products/{id})
func (s *Server) UpdateProductHandler() http.HandlerFunc {
	tmpl := mustParse(ParsePage("product_form.html"))

	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		form := view.ParseProductForm(r.PathValue("id"), r.PostForm)
		if errs := form.Validate(); errs != nil {
			s.renderProductForm(w, r, tmpl, http.StatusUnprocessableEntity, ProductFormData{Form: form, Errors: errs})
			return
		}

		update := query.NewMutation(s.cache, func(ctx context.Context, in productUpdate) (products.Product, error) {
			return s.clients.Products.Update(ctx, in.id, in.req)
		}, products.Resource)
		updated, err := update.Run(r.Context(), productUpdate{id: form.ID, req: form.UpdateRequest()})
		if err != nil {
			if s.redirectOnNavigation(w, r, err) {
				return
			}
			s.renderProductForm(w, r, tmpl, statusFor(err), ProductFormData{Form: form, Error: view.Message(err)})
			return
		}
		redirectWithNotice(w, r, RouteProducts, "Product "+updated.Name+" saved")
	}
}

// DeleteProductHandler removes a product and returns to the list (POST /app/products/{id}/delete)
func (s *Server) DeleteProductHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		back := returnPath(r, RouteProducts)

		remove := query.NewMutation(s.cache, func(ctx context.Context, id string) (struct{}, error) {
			return struct{}{}, s.clients.Products.Delete(ctx, id)
		}, products.Resource)
		if _, err := remove.Run(r.Context(), r.PathValue("id")); err != nil {
			if s.redirectOnNavigation(w, r, err) {
				return
			}
			redirectWithError(w, r, back, view.Message(err))
			return
		}
		redirectWithNotice(w, r, back, "Product deleted")
	}
}

func (s *Server) renderProductForm(w http.ResponseWriter, r *http.Request, tmpl *template.Template, status int, data ProductFormData) {
	title := "New product"
	data.Action = RouteProducts
	if data.Form.EditMode() {
		title = "Edit product"
		data.Action = productPath(data.Form.ID)
	}
	s.renderAdminPage(w, status, tmpl, s.newPage(r, "products", title, data, Crumb{Label: "Products", Href: RouteProducts}))
}

// statusFor is the response code for a page re-rendered after a failed write.
func statusFor(err error) int {
	switch {
	case apperrors.Is(err, apperrors.ErrValidation), apperrors.Is(err, apperrors.ErrBusinessRule):
		return http.StatusUnprocessableEntity
	case apperrors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict
	case apperrors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case apperrors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden
	}
	return http.StatusBadGateway
}
