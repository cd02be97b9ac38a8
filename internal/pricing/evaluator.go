// Package pricing computes every derived cart total. Evaluation is pure:
// same items and coupon in, same totals out, no I/O and no hidden state.
package pricing

import (
	"github.com/lumiereskin/storefront/internal/models"
	"github.com/shopspring/decimal"
)

// BundleRule is the "first N units for a flat price" promotion. The rule
// only kicks in when the flat price undercuts what those units would cost
// organically; it never raises a cheap cart to the flat price.
type BundleRule struct {
	Size      int
	FlatPrice decimal.Decimal
}

// DefaultBundleRule matches the storefront's advertised "3 for 999" offer.
func DefaultBundleRule() BundleRule {
	return BundleRule{Size: 3, FlatPrice: decimal.NewFromInt(999)}
}

// Evaluate derives all cart totals from the items and the applied coupon.
//
// The bundle offer and the coupon are mutually exclusive alternatives and
// the bundle takes priority: when it activates, any applied coupon must be
// dropped by the caller in the same transition. Evaluate signals that with
// CouponCleared; it never mutates its inputs.
func Evaluate(items []models.LineItem, coupon *models.Coupon, rule BundleRule) models.CartTotals {
	totals := models.CartTotals{
		Subtotal:       decimal.Zero,
		BundleDiscount: decimal.Zero,
		CouponDiscount: decimal.Zero,
		FinalTotal:     decimal.Zero,
	}

	for _, item := range items {
		totals.Subtotal = totals.Subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
		totals.ItemCount += item.Quantity
	}

	if totals.ItemCount >= rule.Size {
		firstUnitsCost, additionalCost := splitAtBundleWindow(items, rule.Size)

		// The offer activates only when the flat price is an actual
		// discount against the organic cost of those first units.
		if firstUnitsCost.GreaterThan(rule.FlatPrice) {
			totals.BundleActive = true
			totals.BundleDiscount = firstUnitsCost.Sub(rule.FlatPrice)
			totals.FinalTotal = rule.FlatPrice.Add(additionalCost)
			totals.CouponCleared = coupon != nil

			return totals
		}
	}

	if coupon != nil && totals.Subtotal.GreaterThanOrEqual(coupon.MinOrderAmount) {
		totals.CouponDiscount = couponDiscount(coupon, totals.Subtotal)
	}

	totals.FinalTotal = totals.Subtotal.Sub(totals.CouponDiscount)

	return totals
}

// splitAtBundleWindow walks the items in cart order and splits their cost at
// the bundle's unit cutoff: units inside the window at their own price, and
// everything past it (within the same line or later lines) at full price.
func splitAtBundleWindow(items []models.LineItem, size int) (window, overflow decimal.Decimal) {
	window = decimal.Zero
	overflow = decimal.Zero
	remaining := size

	for _, item := range items {
		taken := item.Quantity
		if taken > remaining {
			taken = remaining
		}

		if taken > 0 {
			window = window.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(taken))))
			remaining -= taken
		}

		if extra := item.Quantity - taken; extra > 0 {
			overflow = overflow.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(extra))))
		}
	}

	return window, overflow
}

// couponDiscount computes the discount a coupon grants on a subtotal,
// clamped so the final total never goes negative.
func couponDiscount(coupon *models.Coupon, subtotal decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal

	switch coupon.DiscountType {
	case models.CouponTypePercentage:
		discount = subtotal.Mul(coupon.DiscountValue).Div(decimal.NewFromInt(100))
	case models.CouponTypeFixed:
		discount = coupon.DiscountValue
	default:
		return decimal.Zero
	}

	if discount.GreaterThan(subtotal) {
		return subtotal
	}

	if discount.IsNegative() {
		return decimal.Zero
	}

	return discount
}

// Round2 rounds a monetary amount to two decimal places, half up. Use it at
// the presentation boundary only; internal math stays unrounded.
func Round2(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}
