package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	appErrors "github.com/lumiereskin/storefront/internal/errors"
	"github.com/lumiereskin/storefront/internal/models"
	"github.com/lumiereskin/storefront/internal/pricing"
	"github.com/lumiereskin/storefront/internal/repositories/mocks"
	service "github.com/lumiereskin/storefront/internal/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newTestCart(customerID uuid.UUID, items ...models.LineItem) *models.Cart {
	return &models.Cart{
		CustomerID: customerID,
		Items:      items,
		UpdatedAt:  time.Now().Add(-time.Hour),
	}
}

func lineItem(productID string, unitPrice int64, quantity int) models.LineItem {
	return models.LineItem{
		ProductID: productID,
		Name:      "Product " + productID,
		UnitPrice: decimal.NewFromInt(unitPrice),
		Quantity:  quantity,
	}
}

func TestGetCart(t *testing.T) {
	ctx := context.Background()
	customerID := uuid.New()

	t.Run("Success - Totals Recomputed On Read", func(t *testing.T) {
		// Arrange
		mockRepo := mocks.NewMockCartRepository(t)
		cartService := service.NewCartService(mockRepo, pricing.DefaultBundleRule())

		stored := newTestCart(customerID, lineItem("serum", 400, 2))
		mockRepo.On("Load", ctx, customerID).Return(stored, nil).Once()

		// Act
		cart, err := cartService.GetCart(ctx, customerID)

		// Assert
		assert.NoError(t, err)
		assert.True(t, decimal.NewFromInt(800).Equal(cart.Totals.Subtotal))
		assert.True(t, decimal.NewFromInt(800).Equal(cart.Totals.FinalTotal))
		assert.False(t, cart.Totals.BundleActive)
	})

	t.Run("Success - Stale Coupon Dropped When Bundle Applies", func(t *testing.T) {
		// Arrange
		mockRepo := mocks.NewMockCartRepository(t)
		cartService := service.NewCartService(mockRepo, pricing.DefaultBundleRule())

		stored := newTestCart(customerID, lineItem("serum", 400, 3))
		stored.AppliedCoupon = &models.Coupon{Code: "SAVE10", DiscountType: models.CouponTypePercentage, DiscountValue: decimal.NewFromInt(10)}
		mockRepo.On("Load", ctx, customerID).Return(stored, nil).Once()

		// Act
		cart, err := cartService.GetCart(ctx, customerID)

		// Assert
		assert.NoError(t, err)
		assert.True(t, cart.Totals.BundleActive)
		assert.Nil(t, cart.AppliedCoupon)
		assert.True(t, decimal.NewFromInt(999).Equal(cart.Totals.FinalTotal))
	})

	t.Run("Failure - Load Error", func(t *testing.T) {
		// Arrange
		mockRepo := mocks.NewMockCartRepository(t)
		cartService := service.NewCartService(mockRepo, pricing.DefaultBundleRule())

		mockRepo.On("Load", ctx, customerID).Return(nil, errors.New("redis connection refused")).Once()

		// Act
		cart, err := cartService.GetCart(ctx, customerID)

		// Assert
		assert.Error(t, err)
		assert.Nil(t, cart)
		appErr, ok := appErrors.IsAppError(err)
		assert.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeDatabaseError, appErr.Code)
	})
}

func TestAddItem(t *testing.T) {
	ctx := context.Background()
	customerID := uuid.New()

	req := &models.AddItemRequest{
		ProductID: "serum",
		Name:      "Vitamin C Serum",
		UnitPrice: decimal.NewFromInt(400),
	}

	t.Run("Success - New Line Item", func(t *testing.T) {
		// Arrange
		mockRepo := mocks.NewMockCartRepository(t)
		cartService := service.NewCartService(mockRepo, pricing.DefaultBundleRule())

		mockRepo.On("Load", ctx, customerID).Return(newTestCart(customerID), nil).Once()
		mockRepo.On("Save", ctx, mock.MatchedBy(func(c *models.Cart) bool {
			return len(c.Items) == 1 && c.Items[0].Quantity == 1
		})).Return(nil).Once()

		// Act
		update, err := cartService.AddItem(ctx, customerID, req)

		// Assert
		assert.NoError(t, err)
		assert.Len(t, update.Cart.Items, 1)
		assert.Equal(t, "serum", update.Cart.Items[0].ProductID)
		assert.Len(t, update.Events, 1)
		assert.Equal(t, models.EventItemAdded, update.Events[0].Kind)
	})

	t.Run("Success - Existing Line Item Quantity Bumped", func(t *testing.T) {
		// Arrange
		mockRepo := mocks.NewMockCartRepository(t)
		cartService := service.NewCartService(mockRepo, pricing.DefaultBundleRule())

		mockRepo.On("Load", ctx, customerID).Return(newTestCart(customerID, lineItem("serum", 400, 1)), nil).Once()
		mockRepo.On("Save", ctx, mock.MatchedBy(func(c *models.Cart) bool {
			return len(c.Items) == 1 && c.Items[0].Quantity == 2
		})).Return(nil).Once()

		// Act
		update, err := cartService.AddItem(ctx, customerID, req)

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, 2, update.Cart.Items[0].Quantity)
		assert.True(t, decimal.NewFromInt(800).Equal(update.Cart.Totals.Subtotal))
	})

	t.Run("Success - Third Unit Activates Bundle", func(t *testing.T) {
		// Arrange
		mockRepo := mocks.NewMockCartRepository(t)
		cartService := service.NewCartService(mockRepo, pricing.DefaultBundleRule())

		mockRepo.On("Load", ctx, customerID).Return(newTestCart(customerID, lineItem("serum", 400, 2)), nil).Once()
		mockRepo.On("Save", ctx, mock.AnythingOfType("*models.Cart")).Return(nil).Once()

		// Act
		update, err := cartService.AddItem(ctx, customerID, req)

		// Assert
		assert.NoError(t, err)
		assert.True(t, update.Cart.Totals.BundleActive)
		assert.True(t, decimal.NewFromInt(999).Equal(update.Cart.Totals.FinalTotal))
		assert.True(t, decimal.NewFromInt(201).Equal(update.Cart.Totals.BundleDiscount))

		kinds := eventKinds(update.Events)
		assert.Contains(t, kinds, models.EventItemAdded)
		assert.Contains(t, kinds, models.EventBundleActivated)
	})

	t.Run("Success - Bundle Activation Clears Applied Coupon", func(t *testing.T) {
		// Arrange
		mockRepo := mocks.NewMockCartRepository(t)
		cartService := service.NewCartService(mockRepo, pricing.DefaultBundleRule())

		cart := newTestCart(customerID, lineItem("serum", 400, 2))
		cart.AppliedCoupon = &models.Coupon{Code: "SAVE10", DiscountType: models.CouponTypePercentage, DiscountValue: decimal.NewFromInt(10)}

		mockRepo.On("Load", ctx, customerID).Return(cart, nil).Once()
		mockRepo.On("Save", ctx, mock.MatchedBy(func(c *models.Cart) bool {
			return c.AppliedCoupon == nil
		})).Return(nil).Once()

		// Act
		update, err := cartService.AddItem(ctx, customerID, req)

		// Assert
		assert.NoError(t, err)
		assert.Nil(t, update.Cart.AppliedCoupon)
		assert.True(t, update.Cart.Totals.BundleActive)
		assert.True(t, update.Cart.Totals.CouponDiscount.IsZero())

		kinds := eventKinds(update.Events)
		assert.Contains(t, kinds, models.EventBundleActivated)
		assert.Contains(t, kinds, models.EventCouponCleared)
	})

	t.Run("Failure - Missing Product ID", func(t *testing.T) {
		// Arrange
		mockRepo := mocks.NewMockCartRepository(t)
		cartService := service.NewCartService(mockRepo, pricing.DefaultBundleRule())

		// Act
		update, err := cartService.AddItem(ctx, customerID, &models.AddItemRequest{Name: "Nameless"})

		// Assert
		assert.Error(t, err)
		assert.Nil(t, update)
		appErr, ok := appErrors.IsAppError(err)
		assert.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeValidation, appErr.Code)
		mockRepo.AssertNotCalled(t, "Load")
	})

	t.Run("Failure - Negative Unit Price", func(t *testing.T) {
		// Arrange
		mockRepo := mocks.NewMockCartRepository(t)
		cartService := service.NewCartService(mockRepo, pricing.DefaultBundleRule())

		bad := &models.AddItemRequest{ProductID: "serum", Name: "Serum", UnitPrice: decimal.NewFromInt(-1)}

		// Act
		update, err := cartService.AddItem(ctx, customerID, bad)

		// Assert
		assert.Error(t, err)
		assert.Nil(t, update)
		mockRepo.AssertNotCalled(t, "Load")
	})

	t.Run("Failure - Save Error", func(t *testing.T) {
		// Arrange
		mockRepo := mocks.NewMockCartRepository(t)
		cartService := service.NewCartService(mockRepo, pricing.DefaultBundleRule())

		mockRepo.On("Load", ctx, customerID).Return(newTestCart(customerID), nil).Once()
		mockRepo.On("Save", ctx, mock.AnythingOfType("*models.Cart")).Return(errors.New("write timeout")).Once()

		// Act
		update, err := cartService.AddItem(ctx, customerID, req)

		// Assert
		assert.Error(t, err)
		assert.Nil(t, update)
		appErr, ok := appErrors.IsAppError(err)
		assert.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeDatabaseError, appErr.Code)
	})
}

func TestRemoveItem(t *testing.T) {
	ctx := context.Background()
	customerID := uuid.New()

	t.Run("Success - Item Removed", func(t *testing.T) {
		// Arrange
		mockRepo := mocks.NewMockCartRepository(t)
		cartService := service.NewCartService(mockRepo, pricing.DefaultBundleRule())

		cart := newTestCart(customerID, lineItem("serum", 400, 1), lineItem("toner", 250, 1))
		mockRepo.On("Load", ctx, customerID).Return(cart, nil).Once()
		mockRepo.On("Save", ctx, mock.MatchedBy(func(c *models.Cart) bool {
			return len(c.Items) == 1 && c.Items[0].ProductID == "toner"
		})).Return(nil).Once()

		// Act
		update, err := cartService.RemoveItem(ctx, customerID, "serum")

		// Assert
		assert.NoError(t, err)
		assert.Len(t, update.Cart.Items, 1)
		assert.Len(t, update.Events, 1)
		assert.Equal(t, models.EventItemRemoved, update.Events[0].Kind)
		assert.True(t, decimal.NewFromInt(250).Equal(update.Cart.Totals.FinalTotal))
	})

	t.Run("Success - Absent Product Is A No-Op", func(t *testing.T) {
		// Arrange
		mockRepo := mocks.NewMockCartRepository(t)
		cartService := service.NewCartService(mockRepo, pricing.DefaultBundleRule())

		cart := newTestCart(customerID, lineItem("serum", 400, 1))
		mockRepo.On("Load", ctx, customerID).Return(cart, nil).Once()

		// Act
		update, err := cartService.RemoveItem(ctx, customerID, "ghost")

		// Assert
		assert.NoError(t, err)
		assert.Len(t, update.Cart.Items, 1)
		assert.Empty(t, update.Events)
		mockRepo.AssertNotCalled(t, "Save")
	})

	t.Run("Success - Removal Deactivates Bundle", func(t *testing.T) {
		// Arrange
		mockRepo := mocks.NewMockCartRepository(t)
		cartService := service.NewCartService(mockRepo, pricing.DefaultBundleRule())

		cart := newTestCart(customerID, lineItem("serum", 400, 3))
		mockRepo.On("Load", ctx, customerID).Return(cart, nil).Once()
		mockRepo.On("Save", ctx, mock.AnythingOfType("*models.Cart")).Return(nil).Once()

		// Act
		update, err := cartService.RemoveItem(ctx, customerID, "serum")

		// Assert
		assert.NoError(t, err)
		assert.Empty(t, update.Cart.Items)
		assert.False(t, update.Cart.Totals.BundleActive)
		assert.True(t, update.Cart.Totals.FinalTotal.IsZero())
	})
}

func TestUpdateQuantity(t *testing.T) {
	ctx := context.Background()
	customerID := uuid.New()

	t.Run("Success - Quantity Changed", func(t *testing.T) {
		// Arrange
		mockRepo := mocks.NewMockCartRepository(t)
		cartService := service.NewCartService(mockRepo, pricing.DefaultBundleRule())

		cart := newTestCart(customerID, lineItem("serum", 400, 1))
		mockRepo.On("Load", ctx, customerID).Return(cart, nil).Once()
		mockRepo.On("Save", ctx, mock.AnythingOfType("*models.Cart")).Return(nil).Once()

		// Act
		update, err := cartService.UpdateQuantity(ctx, customerID, &models.UpdateQuantityRequest{ProductID: "serum", Quantity: 3})

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, 3, update.Cart.Items[0].Quantity)
		assert.True(t, update.Cart.Totals.BundleActive)
	})

	t.Run("Success - Zero Quantity Removes The Item", func(t *testing.T) {
		// Arrange
		mockRepo := mocks.NewMockCartRepository(t)
		cartService := service.NewCartService(mockRepo, pricing.DefaultBundleRule())

		cart := newTestCart(customerID, lineItem("serum", 400, 2))
		mockRepo.On("Load", ctx, customerID).Return(cart, nil).Once()
		mockRepo.On("Save", ctx, mock.MatchedBy(func(c *models.Cart) bool {
			return len(c.Items) == 0
		})).Return(nil).Once()

		// Act
		update, err := cartService.UpdateQuantity(ctx, customerID, &models.UpdateQuantityRequest{ProductID: "serum", Quantity: 0})

		// Assert
		assert.NoError(t, err)
		assert.Empty(t, update.Cart.Items)
	})

	t.Run("Failure - Item Not In Cart", func(t *testing.T) {
		// Arrange
		mockRepo := mocks.NewMockCartRepository(t)
		cartService := service.NewCartService(mockRepo, pricing.DefaultBundleRule())

		mockRepo.On("Load", ctx, customerID).Return(newTestCart(customerID), nil).Once()

		// Act
		update, err := cartService.UpdateQuantity(ctx, customerID, &models.UpdateQuantityRequest{ProductID: "ghost", Quantity: 2})

		// Assert
		assert.Error(t, err)
		assert.Nil(t, update)
		appErr, ok := appErrors.IsAppError(err)
		assert.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeBadRequest, appErr.Code)
	})
}

func TestClearCart(t *testing.T) {
	ctx := context.Background()
	customerID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		// Arrange
		mockRepo := mocks.NewMockCartRepository(t)
		cartService := service.NewCartService(mockRepo, pricing.DefaultBundleRule())

		mockRepo.On("Clear", ctx, customerID).Return(nil).Once()

		// Act
		update, err := cartService.ClearCart(ctx, customerID)

		// Assert
		assert.NoError(t, err)
		assert.Empty(t, update.Cart.Items)
		assert.True(t, update.Cart.Totals.FinalTotal.IsZero())
		assert.Len(t, update.Events, 1)
		assert.Equal(t, models.EventCartCleared, update.Events[0].Kind)
	})

	t.Run("Failure - Store Error", func(t *testing.T) {
		// Arrange
		mockRepo := mocks.NewMockCartRepository(t)
		cartService := service.NewCartService(mockRepo, pricing.DefaultBundleRule())

		mockRepo.On("Clear", ctx, customerID).Return(errors.New("redis down")).Once()

		// Act
		update, err := cartService.ClearCart(ctx, customerID)

		// Assert
		assert.Error(t, err)
		assert.Nil(t, update)
	})
}

func TestApplyCoupon(t *testing.T) {
	ctx := context.Background()
	customerID := uuid.New()

	coupon := &models.Coupon{
		Code:           "SAVE10",
		DiscountType:   models.CouponTypePercentage,
		DiscountValue:  decimal.NewFromInt(10),
		MinOrderAmount: decimal.NewFromInt(500),
		Active:         true,
	}

	t.Run("Success - Percentage Discount Applied", func(t *testing.T) {
		// Arrange
		mockRepo := mocks.NewMockCartRepository(t)
		cartService := service.NewCartService(mockRepo, pricing.DefaultBundleRule())

		cart := newTestCart(customerID, lineItem("serum", 300, 2))
		mockRepo.On("Load", ctx, customerID).Return(cart, nil).Once()
		mockRepo.On("Save", ctx, mock.MatchedBy(func(c *models.Cart) bool {
			return c.AppliedCoupon != nil && c.AppliedCoupon.Code == "SAVE10"
		})).Return(nil).Once()

		// Act
		update, err := cartService.ApplyCoupon(ctx, customerID, coupon)

		// Assert
		assert.NoError(t, err)
		assert.True(t, decimal.NewFromInt(60).Equal(update.Cart.Totals.CouponDiscount))
		assert.True(t, decimal.NewFromInt(540).Equal(update.Cart.Totals.FinalTotal))
		assert.Len(t, update.Events, 1)
		assert.Equal(t, models.EventCouponApplied, update.Events[0].Kind)
	})

	t.Run("Failure - Bundle Offer Active", func(t *testing.T) {
		// Arrange
		mockRepo := mocks.NewMockCartRepository(t)
		cartService := service.NewCartService(mockRepo, pricing.DefaultBundleRule())

		cart := newTestCart(customerID, lineItem("serum", 400, 3))
		mockRepo.On("Load", ctx, customerID).Return(cart, nil).Once()

		// Act
		update, err := cartService.ApplyCoupon(ctx, customerID, coupon)

		// Assert
		assert.Error(t, err)
		assert.Nil(t, update)
		appErr, ok := appErrors.IsAppError(err)
		assert.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeCouponRejected, appErr.Code)
		assert.Equal(t, appErrors.CouponReasonBundleActive, appErr.Detail)
		mockRepo.AssertNotCalled(t, "Save")
	})

	t.Run("Failure - Below Minimum Order Amount", func(t *testing.T) {
		// Arrange
		mockRepo := mocks.NewMockCartRepository(t)
		cartService := service.NewCartService(mockRepo, pricing.DefaultBundleRule())

		cart := newTestCart(customerID, lineItem("serum", 300, 1))
		mockRepo.On("Load", ctx, customerID).Return(cart, nil).Once()

		// Act
		update, err := cartService.ApplyCoupon(ctx, customerID, coupon)

		// Assert
		assert.Error(t, err)
		assert.Nil(t, update)
		appErr, ok := appErrors.IsAppError(err)
		assert.True(t, ok)
		assert.Equal(t, appErrors.CouponReasonMinimumNot, appErr.Detail)
		mockRepo.AssertNotCalled(t, "Save")
	})

	t.Run("Failure - Three Cheap Units Do Not Block The Coupon", func(t *testing.T) {
		// The bundle needs both the unit count and a real discount; three
		// cheap units leave it inactive, so the coupon path stays open.

		// Arrange
		mockRepo := mocks.NewMockCartRepository(t)
		cartService := service.NewCartService(mockRepo, pricing.DefaultBundleRule())

		cart := newTestCart(customerID, lineItem("mist", 200, 3))
		mockRepo.On("Load", ctx, customerID).Return(cart, nil).Once()
		mockRepo.On("Save", ctx, mock.AnythingOfType("*models.Cart")).Return(nil).Once()

		// Act
		update, err := cartService.ApplyCoupon(ctx, customerID, coupon)

		// Assert
		assert.NoError(t, err)
		assert.False(t, update.Cart.Totals.BundleActive)
		assert.True(t, decimal.NewFromInt(60).Equal(update.Cart.Totals.CouponDiscount))
	})
}

func TestRemoveCoupon(t *testing.T) {
	ctx := context.Background()
	customerID := uuid.New()

	t.Run("Success - Coupon Removed", func(t *testing.T) {
		// Arrange
		mockRepo := mocks.NewMockCartRepository(t)
		cartService := service.NewCartService(mockRepo, pricing.DefaultBundleRule())

		cart := newTestCart(customerID, lineItem("serum", 300, 2))
		cart.AppliedCoupon = &models.Coupon{Code: "SAVE10", DiscountType: models.CouponTypePercentage, DiscountValue: decimal.NewFromInt(10)}

		mockRepo.On("Load", ctx, customerID).Return(cart, nil).Once()
		mockRepo.On("Save", ctx, mock.MatchedBy(func(c *models.Cart) bool {
			return c.AppliedCoupon == nil
		})).Return(nil).Once()

		// Act
		update, err := cartService.RemoveCoupon(ctx, customerID)

		// Assert
		assert.NoError(t, err)
		assert.Nil(t, update.Cart.AppliedCoupon)
		assert.True(t, update.Cart.Totals.CouponDiscount.IsZero())
		assert.True(t, decimal.NewFromInt(600).Equal(update.Cart.Totals.FinalTotal))
		assert.Len(t, update.Events, 1)
		assert.Equal(t, models.EventCouponRemoved, update.Events[0].Kind)
	})

	t.Run("Success - No Coupon To Remove", func(t *testing.T) {
		// Arrange
		mockRepo := mocks.NewMockCartRepository(t)
		cartService := service.NewCartService(mockRepo, pricing.DefaultBundleRule())

		mockRepo.On("Load", ctx, customerID).Return(newTestCart(customerID), nil).Once()
		mockRepo.On("Save", ctx, mock.AnythingOfType("*models.Cart")).Return(nil).Once()

		// Act
		update, err := cartService.RemoveCoupon(ctx, customerID)

		// Assert
		assert.NoError(t, err)
		assert.Empty(t, update.Events)
	})
}

func TestIsInCart(t *testing.T) {
	ctx := context.Background()
	customerID := uuid.New()

	// Arrange
	mockRepo := mocks.NewMockCartRepository(t)
	cartService := service.NewCartService(mockRepo, pricing.DefaultBundleRule())

	cart := newTestCart(customerID, lineItem("serum", 400, 1))
	mockRepo.On("Load", ctx, customerID).Return(cart, nil).Twice()

	// Act
	found, err := cartService.IsInCart(ctx, customerID, "serum")
	missing, err2 := cartService.IsInCart(ctx, customerID, "toner")

	// Assert
	assert.NoError(t, err)
	assert.NoError(t, err2)
	assert.True(t, found)
	assert.False(t, missing)
}

func eventKinds(events []models.CartEvent) []models.CartEventKind {
	kinds := make([]models.CartEventKind, 0, len(events))
	for _, e := range events {
		kinds = append(kinds, e.Kind)
	}

	return kinds
}
