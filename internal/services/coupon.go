package service

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/lumiereskin/storefront/internal/errors"
	"github.com/lumiereskin/storefront/internal/models"
	repository "github.com/lumiereskin/storefront/internal/repositories"
)

// CouponService is the coupon lookup collaborator. It resolves user-entered
// codes and enforces the checks that do not depend on cart state: the code
// exists, is active, is inside its validity window and has uses left. The
// cart-local checks (bundle active, minimum order) stay in CartService.
type CouponService struct {
	repo repository.CouponRepository
	now  func() time.Time
}

func NewCouponService(repo repository.CouponRepository) *CouponService {
	return &CouponService{repo: repo, now: time.Now}
}

func (s *CouponService) CreateCoupon(ctx context.Context, req *models.CreateCouponRequest) (*models.Coupon, error) {
	coupon := &models.Coupon{
		ID:             uuid.New(),
		Code:           models.CanonicalCouponCode(req.Code),
		DiscountType:   req.DiscountType,
		DiscountValue:  req.DiscountValue,
		MinOrderAmount: req.MinOrderAmount,
		ValidFrom:      req.ValidFrom,
		ValidUntil:     req.ValidUntil,
		MaxUses:        req.MaxUses,
		Active:         true,
	}

	if coupon.DiscountValue.IsNegative() || coupon.DiscountValue.IsZero() {
		return nil, errors.ValidationError("Discount value must be positive")
	}

	if err := s.repo.CreateCoupon(ctx, coupon); err != nil {
		return nil, errors.DatabaseError("Failed to create coupon").WithError(err)
	}

	return coupon, nil
}

// ResolveCoupon turns a user-entered code into a validated coupon snapshot
// ready to hand to CartService.ApplyCoupon.
func (s *CouponService) ResolveCoupon(ctx context.Context, code string) (*models.Coupon, error) {
	coupon, err := s.repo.GetCouponByCode(ctx, code)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFoundError("Coupon not found").WithError(err)
		}

		return nil, errors.DatabaseError("Failed to look up coupon").WithError(err)
	}

	if !coupon.Active {
		return nil, errors.CouponRejectedError(errors.CouponReasonInactive)
	}

	if !coupon.IsWithinValidity(s.now()) {
		return nil, errors.CouponRejectedError(errors.CouponReasonExpired)
	}

	if coupon.IsExhausted() {
		return nil, errors.CouponRejectedError(errors.CouponReasonExhausted)
	}

	return coupon, nil
}

// RedeemCoupon records one use at checkout time.
func (s *CouponService) RedeemCoupon(ctx context.Context, code string) error {
	if err := s.repo.IncrementUsage(ctx, code); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return errors.CouponRejectedError(errors.CouponReasonExhausted).WithError(err)
		}

		return errors.DatabaseError("Failed to redeem coupon").WithError(err)
	}

	return nil
}
