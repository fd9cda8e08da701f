package catalog

import (
	"errors"
	"slices"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound         = errors.New("catalog: product not found")
	ErrDuplicateProduct = errors.New("catalog: duplicate product id")
	ErrNegativeQuantity = errors.New("catalog: quantity must be zero or greater")
)

type ImageSet struct {
	Small  string
	Thumb  string
	Medium string
	XLarge string
}

// Product is a catalog entry. Only ProductID and Quantity matter to cart
// operations; the remaining fields are descriptive payload.
type Product struct {
	ProductID     int
	Name          string
	Description   string
	Slug          string
	Brand         string
	Category      string
	CategoryID    int
	Subcategory   string
	SubcategoryID int
	Kind          string
	Offer         string
	Price         decimal.Decimal
	PuffPrice     decimal.Decimal
	Images        []ImageSet
	Avatar        *ImageSet
	UPC           []string
	Badges        []string
	Discontinued  bool
	Quantity      int
}

func (p Product) Clone() Product {
	clone := p
	clone.Images = slices.Clone(p.Images)
	clone.UPC = slices.Clone(p.UPC)
	clone.Badges = slices.Clone(p.Badges)
	if p.Avatar != nil {
		a := *p.Avatar
		clone.Avatar = &a
	}
	return clone
}
