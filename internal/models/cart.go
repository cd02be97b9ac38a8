package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItem is one product entry in the cart. Items keep their insertion
// order because the bundle offer prices the first units in the cart.
type LineItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	ImageRef  string          `json:"image_ref,omitempty"`
	Category  string          `json:"category,omitempty"`
	Quantity  int             `json:"quantity"`
}

// CartTotals holds every derived figure for a cart. Totals are always
// recomputed from items and coupon, never read back from storage.
type CartTotals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	ItemCount      int             `json:"item_count"`
	BundleActive   bool            `json:"bundle_active"`
	BundleDiscount decimal.Decimal `json:"bundle_discount"`
	CouponDiscount decimal.Decimal `json:"coupon_discount"`
	FinalTotal     decimal.Decimal `json:"final_total"`

	// CouponCleared is set when this evaluation dropped a previously
	// applied coupon because the bundle offer took over.
	CouponCleared bool `json:"-"`
}

type Cart struct {
	CustomerID    uuid.UUID  `json:"customer_id"`
	Items         []LineItem `json:"items"`
	AppliedCoupon *Coupon    `json:"applied_coupon,omitempty"`
	Totals        CartTotals `json:"totals"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ItemIndex returns the position of the line item with the given product id,
// or -1 when the product is not in the cart.
func (c *Cart) ItemIndex(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}

	return -1
}

type AddItemRequest struct {
	ProductID string          `json:"product_id" validate:"required"`
	Name      string          `json:"name"       validate:"required"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	ImageRef  string          `json:"image_ref"`
	Category  string          `json:"category"`
}

type UpdateQuantityRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity"   validate:"min=0"`
}

type ApplyCouponRequest struct {
	Code string `json:"code" validate:"required,min=3,max=50"`
}

// CartEventKind enumerates the advisory notifications a cart mutation can
// raise. Events describe what happened; they are not part of the state.
type CartEventKind string

const (
	EventItemAdded       CartEventKind = "item_added"
	EventItemRemoved     CartEventKind = "item_removed"
	EventCartCleared     CartEventKind = "cart_cleared"
	EventBundleActivated CartEventKind = "bundle_activated"
	EventCouponApplied   CartEventKind = "coupon_applied"
	EventCouponRemoved   CartEventKind = "coupon_removed"
	EventCouponCleared   CartEventKind = "coupon_cleared"
)

type CartEvent struct {
	Kind      CartEventKind `json:"kind"`
	ProductID string        `json:"product_id,omitempty"`
	Code      string        `json:"code,omitempty"`
	Message   string        `json:"message"`
}
