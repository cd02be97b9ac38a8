package service_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	appErrors "github.com/lumiereskin/storefront/internal/errors"
	"github.com/lumiereskin/storefront/internal/models"
	"github.com/lumiereskin/storefront/internal/repositories/mocks"
	service "github.com/lumiereskin/storefront/internal/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func validCoupon(code string) *models.Coupon {
	return &models.Coupon{
		Code:           code,
		DiscountType:   models.CouponTypePercentage,
		DiscountValue:  decimal.NewFromInt(10),
		MinOrderAmount: decimal.NewFromInt(500),
		ValidFrom:      time.Now().Add(-24 * time.Hour),
		ValidUntil:     time.Now().Add(24 * time.Hour),
		Active:         true,
	}
}

func TestCreateCoupon(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - Code Canonicalised", func(t *testing.T) {
		// Arrange
		mockRepo := mocks.NewMockCouponRepository(t)
		couponService := service.NewCouponService(mockRepo)

		req := &models.CreateCouponRequest{
			Code:          "  save10 ",
			DiscountType:  models.CouponTypePercentage,
			DiscountValue: decimal.NewFromInt(10),
			ValidFrom:     time.Now(),
			ValidUntil:    time.Now().Add(24 * time.Hour),
		}

		mockRepo.On("CreateCoupon", ctx, mock.MatchedBy(func(c *models.Coupon) bool {
			return c.Code == "SAVE10" && c.Active
		})).Return(nil).Once()

		// Act
		coupon, err := couponService.CreateCoupon(ctx, req)

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, "SAVE10", coupon.Code)
		assert.True(t, coupon.Active)
	})

	t.Run("Failure - Non-Positive Discount Value", func(t *testing.T) {
		// Arrange
		mockRepo := mocks.NewMockCouponRepository(t)
		couponService := service.NewCouponService(mockRepo)

		req := &models.CreateCouponRequest{
			Code:          "FREE",
			DiscountType:  models.CouponTypeFixed,
			DiscountValue: decimal.Zero,
		}

		// Act
		coupon, err := couponService.CreateCoupon(ctx, req)

		// Assert
		assert.Error(t, err)
		assert.Nil(t, coupon)
		mockRepo.AssertNotCalled(t, "CreateCoupon")
	})
}

func TestResolveCoupon(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		// Arrange
		mockRepo := mocks.NewMockCouponRepository(t)
		couponService := service.NewCouponService(mockRepo)

		mockRepo.On("GetCouponByCode", ctx, "SAVE10").Return(validCoupon("SAVE10"), nil).Once()

		// Act
		coupon, err := couponService.ResolveCoupon(ctx, "SAVE10")

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, "SAVE10", coupon.Code)
	})

	t.Run("Failure - Not Found", func(t *testing.T) {
		// Arrange
		mockRepo := mocks.NewMockCouponRepository(t)
		couponService := service.NewCouponService(mockRepo)

		mockRepo.On("GetCouponByCode", ctx, "GHOST").Return(nil, sql.ErrNoRows).Once()

		// Act
		coupon, err := couponService.ResolveCoupon(ctx, "GHOST")

		// Assert
		assert.Error(t, err)
		assert.Nil(t, coupon)
		appErr, ok := appErrors.IsAppError(err)
		assert.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeNotFound, appErr.Code)
	})

	t.Run("Failure - Inactive", func(t *testing.T) {
		// Arrange
		mockRepo := mocks.NewMockCouponRepository(t)
		couponService := service.NewCouponService(mockRepo)

		coupon := validCoupon("OLD")
		coupon.Active = false
		mockRepo.On("GetCouponByCode", ctx, "OLD").Return(coupon, nil).Once()

		// Act
		resolved, err := couponService.ResolveCoupon(ctx, "OLD")

		// Assert
		assert.Error(t, err)
		assert.Nil(t, resolved)
		appErr, ok := appErrors.IsAppError(err)
		assert.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeCouponRejected, appErr.Code)
		assert.Equal(t, appErrors.CouponReasonInactive, appErr.Detail)
	})

	t.Run("Failure - Outside Validity Window", func(t *testing.T) {
		// Arrange
		mockRepo := mocks.NewMockCouponRepository(t)
		couponService := service.NewCouponService(mockRepo)

		coupon := validCoupon("EXPIRED")
		coupon.ValidFrom = time.Now().Add(-48 * time.Hour)
		coupon.ValidUntil = time.Now().Add(-24 * time.Hour)
		mockRepo.On("GetCouponByCode", ctx, "EXPIRED").Return(coupon, nil).Once()

		// Act
		resolved, err := couponService.ResolveCoupon(ctx, "EXPIRED")

		// Assert
		assert.Error(t, err)
		assert.Nil(t, resolved)
		appErr, ok := appErrors.IsAppError(err)
		assert.True(t, ok)
		assert.Equal(t, appErrors.CouponReasonExpired, appErr.Detail)
	})

	t.Run("Failure - Usage Cap Reached", func(t *testing.T) {
		// Arrange
		mockRepo := mocks.NewMockCouponRepository(t)
		couponService := service.NewCouponService(mockRepo)

		maxUses := 5
		coupon := validCoupon("LIMITED")
		coupon.MaxUses = &maxUses
		coupon.UsedCount = 5
		mockRepo.On("GetCouponByCode", ctx, "LIMITED").Return(coupon, nil).Once()

		// Act
		resolved, err := couponService.ResolveCoupon(ctx, "LIMITED")

		// Assert
		assert.Error(t, err)
		assert.Nil(t, resolved)
		appErr, ok := appErrors.IsAppError(err)
		assert.True(t, ok)
		assert.Equal(t, appErrors.CouponReasonExhausted, appErr.Detail)
	})

	t.Run("Failure - Database Error", func(t *testing.T) {
		// Arrange
		mockRepo := mocks.NewMockCouponRepository(t)
		couponService := service.NewCouponService(mockRepo)

		mockRepo.On("GetCouponByCode", ctx, "SAVE10").Return(nil, errors.New("connection reset")).Once()

		// Act
		resolved, err := couponService.ResolveCoupon(ctx, "SAVE10")

		// Assert
		assert.Error(t, err)
		assert.Nil(t, resolved)
		appErr, ok := appErrors.IsAppError(err)
		assert.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeDatabaseError, appErr.Code)
	})
}

func TestRedeemCoupon(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		// Arrange
		mockRepo := mocks.NewMockCouponRepository(t)
		couponService := service.NewCouponService(mockRepo)

		mockRepo.On("IncrementUsage", ctx, "SAVE10").Return(nil).Once()

		// Act
		err := couponService.RedeemCoupon(ctx, "SAVE10")

		// Assert
		assert.NoError(t, err)
	})

	t.Run("Failure - Cap Hit Concurrently", func(t *testing.T) {
		// Arrange
		mockRepo := mocks.NewMockCouponRepository(t)
		couponService := service.NewCouponService(mockRepo)

		mockRepo.On("IncrementUsage", ctx, "LIMITED").Return(sql.ErrNoRows).Once()

		// Act
		err := couponService.RedeemCoupon(ctx, "LIMITED")

		// Assert
		assert.Error(t, err)
		appErr, ok := appErrors.IsAppError(err)
		assert.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeCouponRejected, appErr.Code)
	})
}
