package users

import (
	"bytes"
	"encoding/json"
	"slices"
	"time"
)

// RoleType is the marketplace role a user signed up with.
type RoleType string

const (
	RoleFarmer RoleType = "farmer" // Sells products
	RoleShop   RoleType = "shop"   // Places orders
	RoleAdmin  RoleType = "admin"  // Operates the console
)

var roles = []RoleType{RoleFarmer, RoleShop, RoleAdmin}

func Roles() []RoleType {
	return slices.Clone(roles)
}

func (r RoleType) Valid() bool {
	return slices.Contains(roles, r)
}

// EntityType is the legal form of a farmer or shop.
type EntityType string

const (
	EntityLegal          EntityType = "legal_entity"
	EntitySoleProprietor EntityType = "sole_proprietor"
	EntitySelfEmployed   EntityType = "self_employed"
	EntityFarmer         EntityType = "farmer"
)

var entityTypes = []EntityType{EntityLegal, EntitySoleProprietor, EntitySelfEmployed, EntityFarmer}

func EntityTypes() []EntityType {
	return slices.Clone(entityTypes)
}

func (e EntityType) Valid() bool {
	return slices.Contains(entityTypes, e)
}

type User struct {
	ID           string      `json:"id"`                      // Unique identifier for the user
	PhoneNumber  string      `json:"phone_number"`            // Canonical international phone number
	Role         RoleType    `json:"role"`                    // Marketplace role
	EntityType   *EntityType `json:"entity_type,omitempty"`   // Legal form, unset for admins
	TaxID        *string     `json:"tax_id,omitempty"`        // Tax identifier
	LegalName    *string     `json:"legal_name,omitempty"`    // Registered business name
	LegalAddress *string     `json:"legal_address,omitempty"` // Registered business address
	BankAccount  *string     `json:"bank_account,omitempty"`  // Settlement account
	Email        *string     `json:"email,omitempty"`         // Contact email
	IsVerified   bool        `json:"is_verified"`             // Has the user completed phone verification
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// DisplayName is the legal name when set, otherwise the phone number.
func (u User) DisplayName() string {
	if u.LegalName != nil && *u.LegalName != "" {
		return *u.LegalName
	}
	return u.PhoneNumber
}

type ListResponse struct {
	Items  []User `json:"items"`
	Total  int    `json:"total"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

// UnmarshalJSON accepts either the paged envelope or a bare array of users.
func (l *ListResponse) UnmarshalJSON(data []byte) error {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		var items []User
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		*l = ListResponse{Items: items, Total: len(items), Limit: len(items)}
		return nil
	}
	type envelope ListResponse
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	*l = ListResponse(env)
	return nil
}

// UpdateRequest changes the caller's own profile; nil fields are left unchanged.
type UpdateRequest struct {
	EntityType   *EntityType `json:"entity_type,omitempty"`
	TaxID        *string     `json:"tax_id,omitempty"`
	LegalName    *string     `json:"legal_name,omitempty"`
	LegalAddress *string     `json:"legal_address,omitempty"`
	BankAccount  *string     `json:"bank_account,omitempty"`
	Email        *string     `json:"email,omitempty"`
}
