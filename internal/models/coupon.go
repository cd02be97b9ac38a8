package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CouponType string

const (
	CouponTypePercentage CouponType = "percentage"
	CouponTypeFixed      CouponType = "fixed"
)

// Coupon is a snapshot of a discount code. The cart holds at most one and
// only while the bundle offer is not active.
type Coupon struct {
	ID             uuid.UUID       `json:"id"`
	Code           string          `json:"code"`
	DiscountType   CouponType      `json:"discount_type"`
	DiscountValue  decimal.Decimal `json:"discount_value"`
	MinOrderAmount decimal.Decimal `json:"min_order_amount"`
	ValidFrom      time.Time       `json:"valid_from"`
	ValidUntil     time.Time       `json:"valid_until"`
	MaxUses        *int            `json:"max_uses,omitempty"` // nil = unlimited
	UsedCount      int             `json:"used_count"`
	Active         bool            `json:"active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// CanonicalCouponCode normalises a user-entered code. Codes are matched
// case-insensitively; the canonical form is upper case, trimmed.
func CanonicalCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsWithinValidity reports whether now falls inside the coupon's inclusive
// validity window.
func (c *Coupon) IsWithinValidity(now time.Time) bool {
	return !now.Before(c.ValidFrom) && !now.After(c.ValidUntil)
}

// IsExhausted reports whether the usage cap, if any, has been reached.
func (c *Coupon) IsExhausted() bool {
	return c.MaxUses != nil && c.UsedCount >= *c.MaxUses
}

type CreateCouponRequest struct {
	Code           string          `json:"code"            validate:"required,min=3,max=50"`
	DiscountType   CouponType      `json:"discount_type"   validate:"required,oneof=percentage fixed"`
	DiscountValue  decimal.Decimal `json:"discount_value"`
	MinOrderAmount decimal.Decimal `json:"min_order_amount"`
	ValidFrom      time.Time       `json:"valid_from"      validate:"required"`
	ValidUntil     time.Time       `json:"valid_until"     validate:"required,gtfield=ValidFrom"`
	MaxUses        *int            `json:"max_uses,omitempty" validate:"omitempty,gt=0"`
}
