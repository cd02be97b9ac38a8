package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipping  OrderStatus = "shipping"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// DiscountKind records which of the mutually exclusive discounts was in
// effect when the order was placed.
type DiscountKind string

const (
	DiscountKindNone   DiscountKind = "none"
	DiscountKindBundle DiscountKind = "bundle"
	DiscountKindCoupon DiscountKind = "coupon"
)

type Address struct {
	Street     string `json:"street" validate:"required"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country" validate:"required,iso3166_1_alpha2"`
}

type OrderItem struct {
	ID        uuid.UUID       `json:"id"`
	OrderID   uuid.UUID       `json:"order_id"`
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	CreatedAt time.Time       `json:"created_at"`
}

// Order captures the charged amount and the discount breakdown at the
// moment of checkout. TotalAmount always equals the cart's final total.
type Order struct {
	ID              uuid.UUID       `json:"id"`
	CustomerID      uuid.UUID       `json:"customer_id"`
	Status          OrderStatus     `json:"status"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DiscountKind    DiscountKind    `json:"discount_kind"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	CouponCode      string          `json:"coupon_code,omitempty"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	PaymentIntentID string          `json:"payment_intent_id,omitempty"`
	ShippingAddress *Address        `json:"shipping_address"`
	Items           []OrderItem     `json:"items"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type CheckoutRequest struct {
	ShippingAddress Address `json:"shipping_address" validate:"required"`
	Email           string  `json:"email" validate:"required,email"`
}

type OrderResponse struct {
	Order        *Order `json:"order"`
	ClientSecret string `json:"client_secret,omitempty"`
}
