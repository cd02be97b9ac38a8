package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Brand         string          `json:"brand"`
	Category      string          `json:"category"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	ImageRef      string          `json:"image_ref,omitempty"`
	StockQuantity int             `json:"stock_quantity"`
	SKU           string          `json:"sku"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type CreateProductRequest struct {
	Name          string          `json:"name" validate:"required,min=3,max=200"`
	Brand         string          `json:"brand" validate:"required,min=2,max=100"`
	Category      string          `json:"category" validate:"required,oneof=cleanser toner serum moisturizer sunscreen mask"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	ImageRef      string          `json:"image_ref,omitempty" validate:"omitempty,url"`
	StockQuantity int             `json:"stock_quantity" validate:"gte=0"`
	SKU           string          `json:"sku" validate:"required,min=3,max=50"`
}

type UpdateProductRequest struct {
	Name          *string          `json:"name,omitempty" validate:"omitempty,min=3,max=200"`
	Description   *string          `json:"description,omitempty"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	ImageRef      *string          `json:"image_ref,omitempty" validate:"omitempty,url"`
	StockQuantity *int             `json:"stock_quantity,omitempty" validate:"omitempty,gte=0"`
	Status        *string          `json:"status,omitempty" validate:"omitempty,oneof=active inactive discontinued"`
}

type ProductListResponse struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	Size     int       `json:"size"`
}
