package httppresentation

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	appcatalog "github.com/Zhima-Mochi/minishop-cartmanager/internal/application/catalog"
	domcart "github.com/Zhima-Mochi/minishop-cartmanager/internal/domain/cart"
	domcatalog "github.com/Zhima-Mochi/minishop-cartmanager/internal/domain/catalog"
)

type resourceMeta struct {
	Created      *time.Time `json:"created,omitempty"`
	LastModified *time.Time `json:"last_modified,omitempty"`
	Location     string     `json:"location,omitempty"`
}

type cartResponse struct {
	ID              string       `json:"id"`
	Status          string       `json:"status"`
	ProductIDs      []int        `json:"product_ids"`
	Recipient       string       `json:"recipient"`
	DeliveryAddress string       `json:"delivery_address"`
	PaymentMethod   *string      `json:"payment_method"`
	Meta            resourceMeta `json:"meta"`
}

func newCartResponse(c *domcart.Cart) cartResponse {
	resp := cartResponse{
		ID:              c.ID,
		Status:          string(c.Status),
		ProductIDs:      c.ProductIDs,
		Recipient:       c.Recipient,
		DeliveryAddress: c.DeliveryAddress,
		Meta: resourceMeta{
			Created:      timePtr(c.Meta.Created),
			LastModified: timePtr(c.Meta.LastModified),
			Location:     c.Meta.Location,
		},
	}
	if resp.ProductIDs == nil {
		resp.ProductIDs = []int{}
	}
	if c.PaymentMethod != nil {
		m := string(*c.PaymentMethod)
		resp.PaymentMethod = &m
	}
	return resp
}

type updateCartRequest struct {
	ProductIDs      []int  `json:"product_ids"`
	Recipient       string `json:"recipient"`
	DeliveryAddress string `json:"delivery_address"`
}

type orderRequest struct {
	PaymentMethod  *string `json:"payment_method"`
	BillingAddress string  `json:"billing_address"`
}

type imageSet struct {
	Small  string `json:"small"`
	Thumb  string `json:"thumb"`
	Medium string `json:"medium"`
	XLarge string `json:"xlarge"`
}

type productResponse struct {
	ProductID     int             `json:"product_id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Slug          string          `json:"slug"`
	Brand         string          `json:"brand"`
	Category      string          `json:"category"`
	CategoryID    int             `json:"category_id"`
	Subcategory   string          `json:"subcategory"`
	SubcategoryID int             `json:"subcategory_id"`
	Kind          string          `json:"kind"`
	Offer         string          `json:"offer"`
	Price         decimal.Decimal `json:"price"`
	PuffPrice     decimal.Decimal `json:"puff_price"`
	Images        []imageSet      `json:"images"`
	Avatar        *imageSet       `json:"avatar"`
	UPC           []string        `json:"upc"`
	Badges        []string        `json:"badges"`
	Discontinued  bool            `json:"is_discontinued"`
	Quantity      int             `json:"quantity"`
	Meta          resourceMeta    `json:"meta"`
}

func newProductResponse(p domcatalog.Product, location string) productResponse {
	resp := productResponse{
		ProductID:     p.ProductID,
		Name:          p.Name,
		Description:   p.Description,
		Slug:          p.Slug,
		Brand:         p.Brand,
		Category:      p.Category,
		CategoryID:    p.CategoryID,
		Subcategory:   p.Subcategory,
		SubcategoryID: p.SubcategoryID,
		Kind:          p.Kind,
		Offer:         p.Offer,
		Price:         p.Price,
		PuffPrice:     p.PuffPrice,
		UPC:           p.UPC,
		Badges:        p.Badges,
		Discontinued:  p.Discontinued,
		Quantity:      p.Quantity,
		Meta:          resourceMeta{Location: location},
	}
	for _, img := range p.Images {
		resp.Images = append(resp.Images, newImageSet(img))
	}
	if p.Avatar != nil {
		a := newImageSet(*p.Avatar)
		resp.Avatar = &a
	}
	return resp
}

func newImageSet(s domcatalog.ImageSet) imageSet {
	return imageSet{Small: s.Small, Thumb: s.Thumb, Medium: s.Medium, XLarge: s.XLarge}
}

type searchPage struct {
	TotalResults int    `json:"total_results"`
	PageSize     string `json:"page_size"`
}

type searchMeta struct {
	ProductIDs string     `json:"product_ids"`
	PageSize   string     `json:"page_size"`
	Page       searchPage `json:"page"`
}

type productListResponse struct {
	SearchMeta searchMeta        `json:"search_meta"`
	Products   []productResponse `json:"products"`
}

func newProductListResponse(res appcatalog.ListResult, location func(int) string) productListResponse {
	ids := make([]string, 0, len(res.Products))
	products := make([]productResponse, 0, len(res.Products))
	for _, p := range res.Products {
		ids = append(ids, strconv.Itoa(p.ProductID))
		products = append(products, newProductResponse(p, location(p.ProductID)))
	}
	pageSize := strconv.Itoa(len(res.Products))
	return productListResponse{
		SearchMeta: searchMeta{
			ProductIDs: strings.Join(ids, ","),
			PageSize:   pageSize,
			Page:       searchPage{TotalResults: res.Total, PageSize: pageSize},
		},
		Products: products,
	}
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
