package repository_test

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lumiereskin/storefront/internal/models"
	repository "github.com/lumiereskin/storefront/internal/repositories"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCouponRepoTest(t *testing.T) (repository.CouponRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err, "Failed to create sqlmock")

	t.Cleanup(func() {
		db.Close()
	})

	repo := repository.NewCouponRepo(db)
	require.NotNil(t, repo, "NewCouponRepo should return a non-nil repository")

	return repo, mock
}

func couponColumns() []string {
	return []string{
		"id", "code", "discount_type", "discount_value", "min_order_amount",
		"valid_from", "valid_until", "max_uses", "used_count", "active",
		"created_at", "updated_at",
	}
}

func TestCreateCoupon(t *testing.T) {
	repo, mock := setupCouponRepoTest(t)
	ctx := t.Context()

	coupon := &models.Coupon{
		ID:             uuid.New(),
		Code:           "SAVE10",
		DiscountType:   models.CouponTypePercentage,
		DiscountValue:  decimal.NewFromInt(10),
		MinOrderAmount: decimal.NewFromInt(500),
		ValidFrom:      time.Now(),
		ValidUntil:     time.Now().Add(30 * 24 * time.Hour),
	}

	t.Run("Success", func(t *testing.T) {
		// Arrange
		now := time.Now()
		mock.ExpectQuery(`INSERT INTO coupons`).
			WithArgs(coupon.ID, coupon.Code, coupon.DiscountType, coupon.DiscountValue,
				coupon.MinOrderAmount, coupon.ValidFrom, coupon.ValidUntil, coupon.MaxUses).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

		// Act
		err := repo.CreateCoupon(ctx, coupon)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, now, coupon.CreatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - Duplicate Code", func(t *testing.T) {
		// Arrange
		mock.ExpectQuery(`INSERT INTO coupons`).
			WithArgs(coupon.ID, coupon.Code, coupon.DiscountType, coupon.DiscountValue,
				coupon.MinOrderAmount, coupon.ValidFrom, coupon.ValidUntil, coupon.MaxUses).
			WillReturnError(errors.New(`duplicate key value violates unique constraint "coupons_code_key"`))

		// Act
		err := repo.CreateCoupon(ctx, coupon)

		// Assert
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetCouponByCode(t *testing.T) {
	repo, mock := setupCouponRepoTest(t)
	ctx := t.Context()

	couponID := uuid.New()
	now := time.Now()

	t.Run("Success - Lookup Is Case-Insensitive", func(t *testing.T) {
		// Arrange
		rows := sqlmock.NewRows(couponColumns()).AddRow(
			couponID, "SAVE10", "percentage", "10", "500",
			now.Add(-24*time.Hour), now.Add(24*time.Hour), nil, 0, true,
			now, now,
		)

		mock.ExpectQuery(`SELECT (.+) FROM coupons WHERE UPPER\(code\) = \$1`).
			WithArgs("SAVE10").
			WillReturnRows(rows)

		// Act: lower case in, canonical form queried.
		coupon, err := repo.GetCouponByCode(ctx, "save10")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "SAVE10", coupon.Code)
		assert.Equal(t, models.CouponTypePercentage, coupon.DiscountType)
		assert.True(t, decimal.NewFromInt(10).Equal(coupon.DiscountValue))
		assert.Nil(t, coupon.MaxUses)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - Not Found", func(t *testing.T) {
		// Arrange
		mock.ExpectQuery(`SELECT (.+) FROM coupons WHERE UPPER\(code\) = \$1`).
			WithArgs("GHOST").
			WillReturnError(sql.ErrNoRows)

		// Act
		coupon, err := repo.GetCouponByCode(ctx, "ghost")

		// Assert
		assert.Nil(t, coupon)
		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestIncrementUsage(t *testing.T) {
	repo, mock := setupCouponRepoTest(t)
	ctx := t.Context()

	t.Run("Success", func(t *testing.T) {
		// Arrange
		mock.ExpectExec(`UPDATE coupons SET used_count = used_count \+ 1`).
			WithArgs("SAVE10").
			WillReturnResult(sqlmock.NewResult(0, 1))

		// Act
		err := repo.IncrementUsage(ctx, "save10")

		// Assert
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - Cap Already Reached", func(t *testing.T) {
		// The guarded UPDATE touches zero rows when the cap is hit, which
		// surfaces as ErrNoRows so the service can reject the redemption.

		// Arrange
		mock.ExpectExec(`UPDATE coupons SET used_count = used_count \+ 1`).
			WithArgs("LIMITED").
			WillReturnResult(sqlmock.NewResult(0, 0))

		// Act
		err := repo.IncrementUsage(ctx, "LIMITED")

		// Assert
		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - Database Error", func(t *testing.T) {
		// Arrange
		mock.ExpectExec(`UPDATE coupons SET used_count = used_count \+ 1`).
			WithArgs("SAVE10").
			WillReturnError(errors.New("connection reset"))

		// Act
		err := repo.IncrementUsage(ctx, "SAVE10")

		// Assert
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
