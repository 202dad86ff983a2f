package view

import (
	"net/mail"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jrsteele09/farm-admin/deliveries"
	"github.com/jrsteele09/farm-admin/internal/utils"
	"github.com/jrsteele09/farm-admin/users"
)

// DateTimeLocal is the layout of an HTML datetime-local input.
const DateTimeLocal = "2006-01-02T15:04"

type DeliveryForm struct {
	OrderID           string
	Status            string
	CourierName       string
	CourierPhone      string
	TrackingNumber    string
	EstimatedDelivery string
	Notes             string
}

func FromDelivery(d deliveries.Delivery) DeliveryForm {
	form := DeliveryForm{
		OrderID:        d.OrderID,
		Status:         string(d.Status),
		CourierName:    utils.Value(d.CourierName),
		CourierPhone:   utils.Value(d.CourierPhone),
		TrackingNumber: utils.Value(d.TrackingNumber),
		Notes:          utils.Value(d.Notes),
	}
	if d.EstimatedDelivery != nil {
		form.EstimatedDelivery = d.EstimatedDelivery.UTC().Format(DateTimeLocal)
	}
	return form
}

func ParseDeliveryForm(orderID string, form url.Values) DeliveryForm {
	return DeliveryForm{
		OrderID:           orderID,
		Status:            form.Get("status"),
		CourierName:       strings.TrimSpace(form.Get("courier_name")),
		CourierPhone:      strings.TrimSpace(form.Get("courier_phone")),
		TrackingNumber:    strings.TrimSpace(form.Get("tracking_number")),
		EstimatedDelivery: strings.TrimSpace(form.Get("estimated_delivery")),
		Notes:             strings.TrimSpace(form.Get("notes")),
	}
}

func (f DeliveryForm) Validate() FieldErrors {
	errs := FieldErrors{}
	if !deliveries.Status(f.Status).Valid() {
		errs["status"] = "Choose a delivery status."
	}
	if f.EstimatedDelivery != "" {
		if _, err := time.Parse(DateTimeLocal, f.EstimatedDelivery); err != nil {
			errs["estimated_delivery"] = "Enter a date and time."
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// UpdateRequest converts a valid form. Times are entered and shown in UTC.
func (f DeliveryForm) UpdateRequest() deliveries.UpdateRequest {
	req := deliveries.UpdateRequest{
		Status:         utils.Ptr(deliveries.Status(f.Status)),
		CourierName:    utils.OptionalString(f.CourierName),
		CourierPhone:   utils.OptionalString(f.CourierPhone),
		TrackingNumber: utils.OptionalString(f.TrackingNumber),
		Notes:          utils.OptionalString(f.Notes),
	}
	if eta, err := time.Parse(DateTimeLocal, f.EstimatedDelivery); err == nil {
		req.EstimatedDelivery = &eta
	}
	return req
}

type ProfileForm struct {
	EntityType   string
	TaxID        string
	LegalName    string
	LegalAddress string
	BankAccount  string
	Email        string
}

func FromUser(u users.User) ProfileForm {
	form := ProfileForm{
		TaxID:        utils.Value(u.TaxID),
		LegalName:    utils.Value(u.LegalName),
		LegalAddress: utils.Value(u.LegalAddress),
		BankAccount:  utils.Value(u.BankAccount),
		Email:        utils.Value(u.Email),
	}
	if u.EntityType != nil {
		form.EntityType = string(*u.EntityType)
	}
	return form
}

func ParseProfileForm(form url.Values) ProfileForm {
	return ProfileForm{
		EntityType:   form.Get("entity_type"),
		TaxID:        strings.TrimSpace(form.Get("tax_id")),
		LegalName:    strings.TrimSpace(form.Get("legal_name")),
		LegalAddress: strings.TrimSpace(form.Get("legal_address")),
		BankAccount:  strings.TrimSpace(form.Get("bank_account")),
		Email:        strings.TrimSpace(form.Get("email")),
	}
}

func (f ProfileForm) Validate() FieldErrors {
	errs := FieldErrors{}
	if f.EntityType != "" && !users.EntityType(f.EntityType).Valid() {
		errs["entity_type"] = "Choose an entity type."
	}
	limits := []struct {
		field string
		value string
		max   int
	}{
		{"tax_id", f.TaxID, 32},
		{"legal_name", f.LegalName, 255},
		{"legal_address", f.LegalAddress, 255},
		{"bank_account", f.BankAccount, 64},
		{"email", f.Email, 255},
	}
	for _, l := range limits {
		if utf8.RuneCountInString(l.value) > l.max {
			errs[l.field] = "Too long."
		}
	}
	if f.Email != "" && errs["email"] == "" {
		if _, err := mail.ParseAddress(f.Email); err != nil {
			errs["email"] = "Enter a valid email address."
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (f ProfileForm) UpdateRequest() users.UpdateRequest {
	req := users.UpdateRequest{
		TaxID:        utils.OptionalString(f.TaxID),
		LegalName:    utils.OptionalString(f.LegalName),
		LegalAddress: utils.OptionalString(f.LegalAddress),
		BankAccount:  utils.OptionalString(f.BankAccount),
		Email:        utils.OptionalString(f.Email),
	}
	if f.EntityType != "" {
		req.EntityType = utils.Ptr(users.EntityType(f.EntityType))
	}
	return req
}
