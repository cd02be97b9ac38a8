package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lumiereskin/storefront/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// Cart snapshots live in redis under two keys per customer: the line items
// and the applied coupon with its last computed discount. Totals are never
// trusted from storage; the service recomputes them on every load.
const (
	cartItemsKeyPrefix  = "cart:items:"
	cartCouponKeyPrefix = "cart:coupon:"
)

type CartRepository interface {
	Load(ctx context.Context, customerID uuid.UUID) (*models.Cart, error)
	Save(ctx context.Context, cart *models.Cart) error
	Clear(ctx context.Context, customerID uuid.UUID) error
}

type cartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCartRepo(client *redis.Client, ttl time.Duration) CartRepository {
	return &cartRepository{client: client, ttl: ttl}
}

// couponSnapshot is the persisted form of the applied coupon. The discount
// field is a presentation cache only; it is recomputed after every load.
type couponSnapshot struct {
	Coupon   *models.Coupon  `json:"coupon"`
	Discount decimal.Decimal `json:"discount"`
}

// Load rebuilds a cart from its persisted snapshot. A missing key means an
// empty cart; a corrupt value is deleted and treated as absent so a bad
// entry cannot fail every startup.
func (r *cartRepository) Load(ctx context.Context, customerID uuid.UUID) (*models.Cart, error) {
	cart := &models.Cart{CustomerID: customerID}

	itemsKey := cartItemsKeyPrefix + customerID.String()

	data, err := r.client.Get(ctx, itemsKey).Bytes()

	switch {
	case errors.Is(err, redis.Nil):
		// no snapshot, empty cart
	case err != nil:
		return nil, fmt.Errorf("loading cart items for %s: %w", customerID, err)
	default:
		if jsonErr := json.Unmarshal(data, &cart.Items); jsonErr != nil {
			slog.Warn("Discarding corrupt cart snapshot",
				slog.String("customer_id", customerID.String()),
				slog.String("error", jsonErr.Error()))

			cart.Items = nil

			if delErr := r.client.Del(ctx, itemsKey).Err(); delErr != nil {
				slog.Error("Failed to delete corrupt cart snapshot",
					slog.String("key", itemsKey), slog.String("error", delErr.Error()))
			}
		}
	}

	couponKey := cartCouponKeyPrefix + customerID.String()

	data, err = r.client.Get(ctx, couponKey).Bytes()

	switch {
	case errors.Is(err, redis.Nil):
	case err != nil:
		return nil, fmt.Errorf("loading cart coupon for %s: %w", customerID, err)
	default:
		var snapshot couponSnapshot
		if jsonErr := json.Unmarshal(data, &snapshot); jsonErr != nil {
			slog.Warn("Discarding corrupt coupon snapshot",
				slog.String("customer_id", customerID.String()),
				slog.String("error", jsonErr.Error()))

			if delErr := r.client.Del(ctx, couponKey).Err(); delErr != nil {
				slog.Error("Failed to delete corrupt coupon snapshot",
					slog.String("key", couponKey), slog.String("error", delErr.Error()))
			}
		} else {
			cart.AppliedCoupon = snapshot.Coupon
		}
	}

	return cart, nil
}

func (r *cartRepository) Save(ctx context.Context, cart *models.Cart) error {
	itemsJSON, err := json.Marshal(cart.Items)
	if err != nil {
		return fmt.Errorf("marshaling cart items: %w", err)
	}

	itemsKey := cartItemsKeyPrefix + cart.CustomerID.String()
	if err := r.client.Set(ctx, itemsKey, itemsJSON, r.ttl).Err(); err != nil {
		return fmt.Errorf("saving cart items for %s: %w", cart.CustomerID, err)
	}

	couponKey := cartCouponKeyPrefix + cart.CustomerID.String()

	if cart.AppliedCoupon == nil {
		if err := r.client.Del(ctx, couponKey).Err(); err != nil {
			return fmt.Errorf("clearing coupon snapshot for %s: %w", cart.CustomerID, err)
		}

		return nil
	}

	couponJSON, err := json.Marshal(couponSnapshot{
		Coupon:   cart.AppliedCoupon,
		Discount: cart.Totals.CouponDiscount,
	})
	if err != nil {
		return fmt.Errorf("marshaling coupon snapshot: %w", err)
	}

	if err := r.client.Set(ctx, couponKey, string(couponJSON), r.ttl).Err(); err != nil {
		return fmt.Errorf("saving coupon snapshot for %s: %w", cart.CustomerID, err)
	}

	return nil
}

func (r *cartRepository) Clear(ctx context.Context, customerID uuid.UUID) error {
	keys := []string{
		cartItemsKeyPrefix + customerID.String(),
		cartCouponKeyPrefix + customerID.String(),
	}

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("clearing cart for %s: %w", customerID, err)
	}

	return nil
}
