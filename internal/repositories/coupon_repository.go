package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lumiereskin/storefront/internal/models"
	"github.com/lumiereskin/storefront/internal/utils"
)

type CouponRepository interface {
	CreateCoupon(ctx context.Context, coupon *models.Coupon) error
	GetCouponByCode(ctx context.Context, code string) (*models.Coupon, error)
	IncrementUsage(ctx context.Context, code string) error
}

type couponRepository struct {
	DB *sql.DB
}

func NewCouponRepo(db *sql.DB) CouponRepository {
	return &couponRepository{DB: db}
}

func (r *couponRepository) CreateCoupon(ctx context.Context, coupon *models.Coupon) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO coupons (id, code, discount_type, discount_value, min_order_amount, valid_from, valid_until, max_uses, used_count, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, TRUE, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	return r.DB.QueryRowContext(dbCtx, query,
		coupon.ID, coupon.Code, coupon.DiscountType, coupon.DiscountValue,
		coupon.MinOrderAmount, coupon.ValidFrom, coupon.ValidUntil, coupon.MaxUses,
	).Scan(&coupon.CreatedAt, &coupon.UpdatedAt)
}

// GetCouponByCode looks a coupon up case-insensitively; codes are stored in
// their canonical upper-case form.
func (r *couponRepository) GetCouponByCode(ctx context.Context, code string) (*models.Coupon, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, code, discount_type, discount_value, min_order_amount, valid_from, valid_until, max_uses, used_count, active, created_at, updated_at
		FROM coupons
		WHERE UPPER(code) = $1
	`

	coupon := &models.Coupon{}

	err := r.DB.QueryRowContext(dbCtx, query, models.CanonicalCouponCode(code)).Scan(
		&coupon.ID, &coupon.Code, &coupon.DiscountType, &coupon.DiscountValue,
		&coupon.MinOrderAmount, &coupon.ValidFrom, &coupon.ValidUntil,
		&coupon.MaxUses, &coupon.UsedCount, &coupon.Active,
		&coupon.CreatedAt, &coupon.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}

		return nil, fmt.Errorf("querying coupon by code: %w", err)
	}

	return coupon, nil
}

// IncrementUsage bumps the usage counter without exceeding the cap; the
// WHERE clause makes the increment a no-op race loser instead of an
// over-count when two checkouts redeem the same last use.
func (r *couponRepository) IncrementUsage(ctx context.Context, code string) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE coupons
		SET used_count = used_count + 1, updated_at = NOW()
		WHERE UPPER(code) = $1 AND (max_uses IS NULL OR used_count < max_uses)
	`

	result, err := r.DB.ExecContext(dbCtx, query, models.CanonicalCouponCode(code))
	if err != nil {
		return fmt.Errorf("incrementing coupon usage: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}

	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}
