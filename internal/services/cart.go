package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lumiereskin/storefront/internal/errors"
	"github.com/lumiereskin/storefront/internal/models"
	"github.com/lumiereskin/storefront/internal/pricing"
	repository "github.com/lumiereskin/storefront/internal/repositories"
)

// CartService is the single owner of cart state. Every mutation reloads the
// snapshot, applies the change, recomputes totals through the pricing
// evaluator and persists the result before returning. Mutations also return
// advisory events; turning those into user-facing notifications is the
// caller's job, the service itself performs no notification I/O.
type CartService struct {
	repo repository.CartRepository
	rule pricing.BundleRule
}

func NewCartService(repo repository.CartRepository, rule pricing.BundleRule) *CartService {
	return &CartService{repo: repo, rule: rule}
}

// CartUpdate is the outcome of a cart mutation: the new state plus the
// advisory events the mutation raised.
type CartUpdate struct {
	Cart   *models.Cart
	Events []models.CartEvent
}

func (s *CartService) GetCart(ctx context.Context, customerID uuid.UUID) (*models.Cart, error) {
	cart, err := s.repo.Load(ctx, customerID)
	if err != nil {
		return nil, errors.DatabaseError("Failed to load cart").WithError(err)
	}

	// Stored totals are never trusted; recompute from items and coupon.
	s.recompute(cart)

	if cart.Totals.CouponCleared {
		// A snapshot can hold a coupon alongside a bundle-activating item
		// set only if it predates the rule change; resolve it on read.
		cart.AppliedCoupon = nil
	}

	return cart, nil
}

// AddItem appends a new line item with quantity 1, or bumps the quantity of
// an existing one. Invalid input rejects before any state is touched.
func (s *CartService) AddItem(ctx context.Context, customerID uuid.UUID, req *models.AddItemRequest) (*CartUpdate, error) {
	if req.ProductID == "" || req.Name == "" {
		return nil, errors.ValidationError("Product id and name are required")
	}

	if req.UnitPrice.IsNegative() {
		return nil, errors.ValidationError("Unit price must not be negative")
	}

	cart, err := s.repo.Load(ctx, customerID)
	if err != nil {
		return nil, errors.DatabaseError("Failed to load cart").WithError(err)
	}

	before := pricing.Evaluate(cart.Items, cart.AppliedCoupon, s.rule)

	if i := cart.ItemIndex(req.ProductID); i >= 0 {
		cart.Items[i].Quantity++
	} else {
		cart.Items = append(cart.Items, models.LineItem{
			ProductID: req.ProductID,
			Name:      req.Name,
			UnitPrice: req.UnitPrice,
			ImageRef:  req.ImageRef,
			Category:  req.Category,
			Quantity:  1,
		})
	}

	events := []models.CartEvent{{
		Kind:      models.EventItemAdded,
		ProductID: req.ProductID,
		Message:   fmt.Sprintf("%s added to cart", req.Name),
	}}

	events = s.finishMutation(ctx, cart, before, events)

	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, errors.DatabaseError("Failed to persist cart").WithError(err)
	}

	return &CartUpdate{Cart: cart, Events: events}, nil
}

// RemoveItem deletes a line item. Removing an absent product id is a no-op,
// not an error; the cart is returned unchanged.
func (s *CartService) RemoveItem(ctx context.Context, customerID uuid.UUID, productID string) (*CartUpdate, error) {
	cart, err := s.repo.Load(ctx, customerID)
	if err != nil {
		return nil, errors.DatabaseError("Failed to load cart").WithError(err)
	}

	i := cart.ItemIndex(productID)
	if i < 0 {
		s.recompute(cart)

		return &CartUpdate{Cart: cart}, nil
	}

	before := pricing.Evaluate(cart.Items, cart.AppliedCoupon, s.rule)

	removed := cart.Items[i]
	cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)

	events := []models.CartEvent{{
		Kind:      models.EventItemRemoved,
		ProductID: productID,
		Message:   fmt.Sprintf("%s removed from cart", removed.Name),
	}}

	events = s.finishMutation(ctx, cart, before, events)

	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, errors.DatabaseError("Failed to persist cart").WithError(err)
	}

	return &CartUpdate{Cart: cart, Events: events}, nil
}

// UpdateQuantity sets the quantity of an existing line item; a quantity of
// zero or less removes it.
func (s *CartService) UpdateQuantity(ctx context.Context, customerID uuid.UUID, req *models.UpdateQuantityRequest) (*CartUpdate, error) {
	if req.Quantity <= 0 {
		return s.RemoveItem(ctx, customerID, req.ProductID)
	}

	cart, err := s.repo.Load(ctx, customerID)
	if err != nil {
		return nil, errors.DatabaseError("Failed to load cart").WithError(err)
	}

	i := cart.ItemIndex(req.ProductID)
	if i < 0 {
		return nil, errors.BadRequestError("Item not found in the cart")
	}

	before := pricing.Evaluate(cart.Items, cart.AppliedCoupon, s.rule)

	cart.Items[i].Quantity = req.Quantity

	events := s.finishMutation(ctx, cart, before, nil)

	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, errors.DatabaseError("Failed to persist cart").WithError(err)
	}

	return &CartUpdate{Cart: cart, Events: events}, nil
}

// ClearCart empties the cart and drops the applied coupon. Checkout calls
// this after a successful order; customers can also trigger it directly.
func (s *CartService) ClearCart(ctx context.Context, customerID uuid.UUID) (*CartUpdate, error) {
	if err := s.repo.Clear(ctx, customerID); err != nil {
		return nil, errors.DatabaseError("Failed to clear cart").WithError(err)
	}

	cart := &models.Cart{CustomerID: customerID, UpdatedAt: time.Now()}
	s.recompute(cart)

	return &CartUpdate{
		Cart:   cart,
		Events: []models.CartEvent{{Kind: models.EventCartCleared, Message: "Cart cleared"}},
	}, nil
}

// ApplyCoupon attaches an already validated coupon snapshot. The lookup,
// validity-window and usage-cap checks happen in CouponService before this
// is called; here only the cart-local rules apply: no coupon while the
// bundle offer is active, and the subtotal must meet the minimum order
// amount. Rejections leave the cart untouched.
func (s *CartService) ApplyCoupon(ctx context.Context, customerID uuid.UUID, coupon *models.Coupon) (*CartUpdate, error) {
	cart, err := s.repo.Load(ctx, customerID)
	if err != nil {
		return nil, errors.DatabaseError("Failed to load cart").WithError(err)
	}

	current := pricing.Evaluate(cart.Items, cart.AppliedCoupon, s.rule)

	if current.BundleActive {
		return nil, errors.CouponRejectedError(errors.CouponReasonBundleActive)
	}

	if current.Subtotal.LessThan(coupon.MinOrderAmount) {
		return nil, errors.CouponRejectedError(errors.CouponReasonMinimumNot)
	}

	cart.AppliedCoupon = coupon
	s.recompute(cart)

	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, errors.DatabaseError("Failed to persist cart").WithError(err)
	}

	return &CartUpdate{
		Cart: cart,
		Events: []models.CartEvent{{
			Kind:    models.EventCouponApplied,
			Code:    coupon.Code,
			Message: fmt.Sprintf("Coupon %s applied", coupon.Code),
		}},
	}, nil
}

func (s *CartService) RemoveCoupon(ctx context.Context, customerID uuid.UUID) (*CartUpdate, error) {
	cart, err := s.repo.Load(ctx, customerID)
	if err != nil {
		return nil, errors.DatabaseError("Failed to load cart").WithError(err)
	}

	var events []models.CartEvent

	if cart.AppliedCoupon != nil {
		events = append(events, models.CartEvent{
			Kind:    models.EventCouponRemoved,
			Code:    cart.AppliedCoupon.Code,
			Message: fmt.Sprintf("Coupon %s removed", cart.AppliedCoupon.Code),
		})
		cart.AppliedCoupon = nil
	}

	s.recompute(cart)

	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, errors.DatabaseError("Failed to persist cart").WithError(err)
	}

	return &CartUpdate{Cart: cart, Events: events}, nil
}

// IsInCart reports whether the product is currently in the cart. Pure
// query, no side effects.
func (s *CartService) IsInCart(ctx context.Context, customerID uuid.UUID, productID string) (bool, error) {
	cart, err := s.repo.Load(ctx, customerID)
	if err != nil {
		return false, errors.DatabaseError("Failed to load cart").WithError(err)
	}

	return cart.ItemIndex(productID) >= 0, nil
}

// recompute refreshes the derived totals from the current items and coupon.
func (s *CartService) recompute(cart *models.Cart) {
	cart.Totals = pricing.Evaluate(cart.Items, cart.AppliedCoupon, s.rule)
	cart.UpdatedAt = time.Now()
}

// finishMutation recomputes totals after an item change and appends the
// transition events: the bundle offer newly activating, and a previously
// applied coupon being force-cleared because the bundle took over. The
// coupon is cleared as part of this same transition, not merely ignored.
func (s *CartService) finishMutation(_ context.Context, cart *models.Cart, before models.CartTotals, events []models.CartEvent) []models.CartEvent {
	s.recompute(cart)

	if cart.Totals.BundleActive && !before.BundleActive {
		events = append(events, models.CartEvent{
			Kind: models.EventBundleActivated,
			Message: fmt.Sprintf("Bundle offer applied: first %d products for %s",
				s.rule.Size, s.rule.FlatPrice.StringFixed(2)),
		})
	}

	if cart.Totals.CouponCleared && cart.AppliedCoupon != nil {
		events = append(events, models.CartEvent{
			Kind:    models.EventCouponCleared,
			Code:    cart.AppliedCoupon.Code,
			Message: fmt.Sprintf("Coupon %s removed: the bundle offer replaced it", cart.AppliedCoupon.Code),
		})
		cart.AppliedCoupon = nil
	}

	return events
}
