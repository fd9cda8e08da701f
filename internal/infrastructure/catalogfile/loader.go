package catalogfile

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"

	domain "github.com/Zhima-Mochi/minishop-cartmanager/internal/domain/catalog"
)

type imageSet struct {
	Small  string `json:"small"`
	Thumb  string `json:"thumb"`
	Medium string `json:"medium"`
	XLarge string `json:"xlarge"`
}

type productRecord struct {
	ProductID      int             `json:"product_id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Slug           string          `json:"slug"`
	Brand          string          `json:"brand"`
	Category       string          `json:"category"`
	CategoryID     int             `json:"category_id"`
	Subcategory    string          `json:"subcategory"`
	SubcategoryID  int             `json:"subcategory_id"`
	Kind           string          `json:"kind"`
	Offer          string          `json:"offer"`
	Price          decimal.Decimal `json:"price"`
	PuffPrice      decimal.Decimal `json:"puff_price"`
	Images         []imageSet      `json:"images"`
	Avatar         *imageSet       `json:"avatar"`
	UPC            []string        `json:"upc"`
	Badges         []string        `json:"badges"`
	IsDiscontinued int             `json:"is_discontinued"`
	Quantity       int             `json:"quantity"`
}

type productFile struct {
	Products []productRecord `json:"products"`
}

// Load reads a snake_case products document: {"products": [...]}.
func Load(path string) ([]domain.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

func Decode(r io.Reader) ([]domain.Product, error) {
	var doc productFile
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("catalog file: decode: %w", err)
	}

	out := make([]domain.Product, 0, len(doc.Products))
	for _, rec := range doc.Products {
		if rec.Quantity < 0 {
			return nil, fmt.Errorf("catalog file: %w: product %d", domain.ErrNegativeQuantity, rec.ProductID)
		}
		out = append(out, rec.toDomain())
	}
	return out, nil
}

func (r productRecord) toDomain() domain.Product {
	p := domain.Product{
		ProductID:     r.ProductID,
		Name:          r.Name,
		Description:   r.Description,
		Slug:          r.Slug,
		Brand:         r.Brand,
		Category:      r.Category,
		CategoryID:    r.CategoryID,
		Subcategory:   r.Subcategory,
		SubcategoryID: r.SubcategoryID,
		Kind:          r.Kind,
		Offer:         r.Offer,
		Price:         r.Price,
		PuffPrice:     r.PuffPrice,
		UPC:           r.UPC,
		Badges:        r.Badges,
		Discontinued:  r.IsDiscontinued != 0,
		Quantity:      r.Quantity,
	}
	for _, img := range r.Images {
		p.Images = append(p.Images, domain.ImageSet(img))
	}
	if r.Avatar != nil {
		avatar := domain.ImageSet(*r.Avatar)
		p.Avatar = &avatar
	}
	return p
}
