package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/lumiereskin/storefront/internal/api/middleware"
	appErrors "github.com/lumiereskin/storefront/internal/errors"
	"github.com/lumiereskin/storefront/internal/metrics"
	"github.com/lumiereskin/storefront/internal/models"
	service "github.com/lumiereskin/storefront/internal/services"
	"github.com/lumiereskin/storefront/internal/utils/response"
)

type CartHandler struct {
	cartService   *service.CartService
	couponService *service.CouponService
	notifications *service.NotificationService
	validator     *validator.Validate
}

func NewCartHandler(cartService *service.CartService, couponService *service.CouponService, notifications *service.NotificationService) *CartHandler {
	return &CartHandler{
		cartService:   cartService,
		couponService: couponService,
		notifications: notifications,
		validator:     validator.New(),
	}
}

func (h *CartHandler) GetCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := claimsOrFail(w, r)
		if !ok {
			return
		}

		cart, err := h.cartService.GetCart(r.Context(), claims.CustomerID)
		if err != nil {
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, cart)
	}
}

func (h *CartHandler) AddItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := claimsOrFail(w, r)
		if !ok {
			return
		}

		var req models.AddItemRequest
		if !decodeAndValidate(w, r, h.validator, &req) {
			return
		}

		update, err := h.cartService.AddItem(r.Context(), claims.CustomerID, &req)

		metrics.ObserveCartOperation("add_item", err)

		if err != nil {
			response.Error(w, err)

			return
		}

		h.publish(r, claims, update.Events)

		response.Success(w, http.StatusOK, update)
	}
}

func (h *CartHandler) UpdateQuantity() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := claimsOrFail(w, r)
		if !ok {
			return
		}

		var req models.UpdateQuantityRequest
		if !decodeAndValidate(w, r, h.validator, &req) {
			return
		}

		update, err := h.cartService.UpdateQuantity(r.Context(), claims.CustomerID, &req)

		metrics.ObserveCartOperation("update_quantity", err)

		if err != nil {
			response.Error(w, err)

			return
		}

		h.publish(r, claims, update.Events)

		response.Success(w, http.StatusOK, update)
	}
}

func (h *CartHandler) RemoveItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := claimsOrFail(w, r)
		if !ok {
			return
		}

		productID := r.PathValue("id")
		if productID == "" {
			response.Error(w, appErrors.BadRequestError("Product id is required"))

			return
		}

		update, err := h.cartService.RemoveItem(r.Context(), claims.CustomerID, productID)

		metrics.ObserveCartOperation("remove_item", err)

		if err != nil {
			response.Error(w, err)

			return
		}

		h.publish(r, claims, update.Events)

		response.Success(w, http.StatusOK, update)
	}
}

func (h *CartHandler) ClearCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := claimsOrFail(w, r)
		if !ok {
			return
		}

		update, err := h.cartService.ClearCart(r.Context(), claims.CustomerID)

		metrics.ObserveCartOperation("clear_cart", err)

		if err != nil {
			response.Error(w, err)

			return
		}

		h.publish(r, claims, update.Events)

		response.Success(w, http.StatusOK, update)
	}
}

// ApplyCoupon resolves the code through the coupon collaborator first; only
// a validated snapshot ever reaches the cart store.
func (h *CartHandler) ApplyCoupon() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := claimsOrFail(w, r)
		if !ok {
			return
		}

		var req models.ApplyCouponRequest
		if !decodeAndValidate(w, r, h.validator, &req) {
			return
		}

		coupon, err := h.couponService.ResolveCoupon(r.Context(), req.Code)
		if err != nil {
			h.observeCouponRejection(err)
			response.Error(w, err)

			return
		}

		update, err := h.cartService.ApplyCoupon(r.Context(), claims.CustomerID, coupon)

		metrics.ObserveCartOperation("apply_coupon", err)

		if err != nil {
			h.observeCouponRejection(err)
			response.Error(w, err)

			return
		}

		h.publish(r, claims, update.Events)

		response.Success(w, http.StatusOK, update)
	}
}

func (h *CartHandler) RemoveCoupon() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := claimsOrFail(w, r)
		if !ok {
			return
		}

		update, err := h.cartService.RemoveCoupon(r.Context(), claims.CustomerID)

		metrics.ObserveCartOperation("remove_coupon", err)

		if err != nil {
			response.Error(w, err)

			return
		}

		h.publish(r, claims, update.Events)

		response.Success(w, http.StatusOK, update)
	}
}

// publish fans the advisory cart events out to the notification channel and
// bumps the bundle-activation counter. Never fails the request.
func (h *CartHandler) publish(r *http.Request, claims *models.Claims, events []models.CartEvent) {
	for _, event := range events {
		if event.Kind == models.EventBundleActivated {
			metrics.ObserveBundleActivation()
		}
	}

	if len(events) > 0 {
		h.notifications.RecordCartEvents(r.Context(), claims.CustomerID, events)

		logger := middleware.LoggerFromContext(r.Context())
		for _, event := range events {
			logger.Info("Cart event", slog.String("kind", string(event.Kind)), slog.String("message", event.Message))
		}
	}
}

func (h *CartHandler) observeCouponRejection(err error) {
	if appErr, ok := appErrors.IsAppError(err); ok && appErr.Code == appErrors.ErrCodeCouponRejected {
		metrics.ObserveCouponRejection(appErr.Detail)
	}
}
