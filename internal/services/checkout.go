package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lumiereskin/storefront/internal/errors"
	"github.com/lumiereskin/storefront/internal/models"
	"github.com/lumiereskin/storefront/internal/pricing"
	repository "github.com/lumiereskin/storefront/internal/repositories"
	"github.com/lumiereskin/storefront/pkg/stripe"
	"github.com/shopspring/decimal"
)

// CheckoutService turns a cart into an order. The amount charged is the
// cart's final total at this moment, and the order records which discount
// (bundle or coupon) produced it. On success the cart is cleared.
type CheckoutService struct {
	orderRepo     repository.OrderRepository
	cartService   *CartService
	couponService *CouponService
	notifications *NotificationService
	payments      stripe.Client
	currency      string
}

func NewCheckoutService(
	orderRepo repository.OrderRepository,
	cartService *CartService,
	couponService *CouponService,
	notifications *NotificationService,
	payments stripe.Client,
	currency string,
) *CheckoutService {
	return &CheckoutService{
		orderRepo:     orderRepo,
		cartService:   cartService,
		couponService: couponService,
		notifications: notifications,
		payments:      payments,
		currency:      currency,
	}
}

func (s *CheckoutService) Checkout(ctx context.Context, customerID uuid.UUID, req *models.CheckoutRequest) (*models.OrderResponse, error) {
	cart, err := s.cartService.GetCart(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if len(cart.Items) == 0 {
		return nil, errors.BadRequestError("Cannot check out an empty cart")
	}

	order := orderFromCart(cart)
	order.ShippingAddress = &req.ShippingAddress

	chargeAmount := pricing.Round2(order.TotalAmount)

	intent, err := s.payments.CreatePaymentIntent(
		toMinorUnits(chargeAmount),
		s.currency,
		fmt.Sprintf("Order %s", order.ID),
		req.Email,
	)
	if err != nil {
		return nil, errors.PaymentError("Failed to create payment intent").WithError(err)
	}

	order.PaymentIntentID = intent.ID

	if err := s.orderRepo.CreateOrder(ctx, order); err != nil {
		return nil, errors.DatabaseError("Failed to create order").WithError(err)
	}

	if order.DiscountKind == models.DiscountKindCoupon {
		if err := s.couponService.RedeemCoupon(ctx, order.CouponCode); err != nil {
			// The order stands; an under-counted redemption is preferable
			// to failing a paid checkout.
			slog.Error("Failed to record coupon redemption",
				slog.String("order_id", order.ID.String()),
				slog.String("code", order.CouponCode),
				slog.String("error", err.Error()))
		}
	}

	if _, err := s.cartService.ClearCart(ctx, customerID); err != nil {
		slog.Error("Failed to clear cart after checkout",
			slog.String("order_id", order.ID.String()),
			slog.String("error", err.Error()))
	}

	s.notifications.SendOrderConfirmation(ctx, customerID, req.Email, order)

	return &models.OrderResponse{Order: order, ClientSecret: intent.ClientSecret}, nil
}

func (s *CheckoutService) GetOrder(ctx context.Context, customerID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, errors.NotFoundError("Order not found").WithError(err)
	}

	if order.CustomerID != customerID {
		return nil, errors.ForbiddenError("Order belongs to another customer")
	}

	return order, nil
}

func (s *CheckoutService) ListOrders(ctx context.Context, customerID uuid.UUID, page, size int) ([]models.Order, int, error) {
	orders, total, err := s.orderRepo.ListOrdersByCustomer(ctx, customerID, page, size)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to list orders").WithError(err)
	}

	return orders, total, nil
}

// orderFromCart snapshots the cart into an order, carrying over the
// discount breakdown exactly as evaluated.
func orderFromCart(cart *models.Cart) *models.Order {
	order := &models.Order{
		ID:             uuid.New(),
		CustomerID:     cart.CustomerID,
		Status:         models.OrderStatusPending,
		Subtotal:       cart.Totals.Subtotal,
		DiscountKind:   models.DiscountKindNone,
		DiscountAmount: decimal.Zero,
		TotalAmount:    cart.Totals.FinalTotal,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	switch {
	case cart.Totals.BundleDiscount.IsPositive():
		order.DiscountKind = models.DiscountKindBundle
		order.DiscountAmount = cart.Totals.BundleDiscount
	case cart.Totals.CouponDiscount.IsPositive():
		order.DiscountKind = models.DiscountKindCoupon
		order.DiscountAmount = cart.Totals.CouponDiscount

		if cart.AppliedCoupon != nil {
			order.CouponCode = cart.AppliedCoupon.Code
		}
	}

	for _, item := range cart.Items {
		order.Items = append(order.Items, models.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			CreatedAt: time.Now(),
		})
	}

	return order
}

// toMinorUnits converts a rounded decimal amount into the integer minor
// units (paise, cents) the payment provider expects.
func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).IntPart()
}
