package view

import (
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/jrsteele09/farm-admin/internal/utils"
	"github.com/jrsteele09/farm-admin/products"
)

const maxProductName = 255

// ProductForm backs the create and edit product modal. Numeric fields stay as typed so an
// invalid entry can be shown back to the operator unchanged.
type ProductForm struct {
	ID          string // empty in create mode
	Name        string
	Description string
	Category    string
	Price       string
	Quantity    string
	Unit        string
	ImageURL    string
	IsActive    bool
}

// NewProductForm is an empty create form with the defaults the API applies.
func NewProductForm() ProductForm {
	return ProductForm{Unit: string(products.UnitKilogram), IsActive: true}
}

// FromProduct fills the edit form.
func FromProduct(p products.Product) ProductForm {
	return ProductForm{
		ID:          p.ID,
		Name:        p.Name,
		Description: utils.Value(p.Description),
		Category:    string(p.Category),
		Price:       strconv.FormatFloat(p.Price, 'f', -1, 64),
		Quantity:    strconv.FormatFloat(p.Quantity, 'f', -1, 64),
		Unit:        string(p.Unit),
		ImageURL:    utils.Value(p.ImageURL),
		IsActive:    p.IsActive,
	}
}

// ParseProductForm reads a submitted form. A checkbox is only sent when checked.
func ParseProductForm(id string, form url.Values) ProductForm {
	return ProductForm{
		ID:          id,
		Name:        strings.TrimSpace(form.Get("name")),
		Description: strings.TrimSpace(form.Get("description")),
		Category:    form.Get("category"),
		Price:       strings.TrimSpace(form.Get("price")),
		Quantity:    strings.TrimSpace(form.Get("quantity")),
		Unit:        form.Get("unit"),
		ImageURL:    strings.TrimSpace(form.Get("image_url")),
		IsActive:    form.Get("is_active") != "",
	}
}

func (f ProductForm) EditMode() bool {
	return f.ID != ""
}

// Validate checks the form before anything is sent. A nil result means the form is valid.
func (f ProductForm) Validate() FieldErrors {
	errs := FieldErrors{}

	switch n := utf8.RuneCountInString(f.Name); {
	case n == 0:
		errs["name"] = "Name is required."
	case n > maxProductName:
		errs["name"] = "Name must be at most 255 characters."
	}
	if !products.Category(f.Category).Valid() {
		errs["category"] = "Choose a category."
	}
	if price, err := strconv.ParseFloat(f.Price, 64); err != nil || price <= 0 {
		errs["price"] = "Price must be a number greater than zero."
	}
	if qty, err := strconv.ParseFloat(f.Quantity, 64); err != nil || qty < 0 {
		errs["quantity"] = "Quantity must be zero or more."
	}
	if !products.Unit(f.Unit).Valid() {
		errs["unit"] = "Choose a unit."
	}
	if f.ImageURL != "" {
		if u, err := url.ParseRequestURI(f.ImageURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs["image_url"] = "Enter a full http(s) image URL."
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// CreateRequest converts a valid form. Call Validate first.
func (f ProductForm) CreateRequest() products.CreateRequest {
	price, _ := strconv.ParseFloat(f.Price, 64)
	qty, _ := strconv.ParseFloat(f.Quantity, 64)
	return products.CreateRequest{
		Name:        f.Name,
		Description: utils.OptionalString(f.Description),
		Category:    products.Category(f.Category),
		Price:       price,
		Quantity:    qty,
		Unit:        products.Unit(f.Unit),
		ImageURL:    utils.OptionalString(f.ImageURL),
	}
}

// UpdateRequest converts a valid edit form. Every field is sent so clearing the description
// or image takes effect; is_active is only sent in edit mode.
func (f ProductForm) UpdateRequest() products.UpdateRequest {
	c := f.CreateRequest()
	req := products.UpdateRequest{
		Name:        &c.Name,
		Description: utils.Ptr(f.Description),
		Category:    &c.Category,
		Price:       &c.Price,
		Quantity:    &c.Quantity,
		Unit:        &c.Unit,
		ImageURL:    utils.Ptr(f.ImageURL),
	}
	if f.EditMode() {
		req.IsActive = utils.Ptr(f.IsActive)
	}
	return req
}
