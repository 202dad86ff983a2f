package products

import (
	"encoding/json"
	"slices"
	"time"
)

type Category string

const (
	CategoryVegetables Category = "vegetables"
	CategoryFruits     Category = "fruits"
	CategoryGrains     Category = "grains"
	CategoryDairy      Category = "dairy"
	CategoryMeat       Category = "meat"
	CategoryOther      Category = "other"
)

var categories = []Category{CategoryVegetables, CategoryFruits, CategoryGrains, CategoryDairy, CategoryMeat, CategoryOther}

// Categories lists every category in display order.
func Categories() []Category {
	return slices.Clone(categories)
}

func (c Category) Valid() bool {
	return slices.Contains(categories, c)
}

// Unit is the measure a product quantity and price are expressed in.
type Unit string

const (
	UnitKilogram   Unit = "kg"
	UnitGram       Unit = "g"
	UnitLitre      Unit = "l"
	UnitMillilitre Unit = "ml"
	UnitPiece      Unit = "piece"
)

var units = []Unit{UnitKilogram, UnitGram, UnitLitre, UnitMillilitre, UnitPiece}

func Units() []Unit {
	return slices.Clone(units)
}

func (u Unit) Valid() bool {
	return slices.Contains(units, u)
}

type Product struct {
	ID          string    `json:"id"`
	FarmerID    string    `json:"farmer_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Category    Category  `json:"category"`
	Price       float64   `json:"price"`
	Quantity    float64   `json:"quantity"`
	Unit        Unit      `json:"unit"`
	ImageURL    *string   `json:"image_url,omitempty"`
	ImageURLs   []string  `json:"image_urls,omitempty"`
	IsActive    bool      `json:"is_active"` // older API versions only send is_available
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UnmarshalJSON derives IsActive from is_available when is_active is absent.
func (p *Product) UnmarshalJSON(data []byte) error {
	type plain Product
	var wire struct {
		plain
		IsActive    *bool `json:"is_active"`
		IsAvailable *bool `json:"is_available"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*p = Product(wire.plain)
	switch {
	case wire.IsActive != nil:
		p.IsActive = *wire.IsActive
	case wire.IsAvailable != nil:
		p.IsActive = *wire.IsAvailable
	}
	return nil
}

type ListResponse struct {
	Items  []Product `json:"items"`
	Total  int       `json:"total"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
}

type CreateRequest struct {
	Name        string   `json:"name"`
	Description *string  `json:"description,omitempty"`
	Category    Category `json:"category"`
	Price       float64  `json:"price"`
	Quantity    float64  `json:"quantity"`
	Unit        Unit     `json:"unit"`
	ImageURL    *string  `json:"image_url,omitempty"`
}

// UpdateRequest is a partial update; nil fields are left unchanged.
type UpdateRequest struct {
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	Category    *Category `json:"category,omitempty"`
	Price       *float64  `json:"price,omitempty"`
	Quantity    *float64  `json:"quantity,omitempty"`
	Unit        *Unit     `json:"unit,omitempty"`
	ImageURL    *string   `json:"image_url,omitempty"`
	IsActive    *bool     `json:"is_active,omitempty"`
}
