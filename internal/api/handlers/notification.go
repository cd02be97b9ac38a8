package handlers

import (
	"net/http"

	"github.com/lumiereskin/storefront/internal/models"
	service "github.com/lumiereskin/storefront/internal/services"
	"github.com/lumiereskin/storefront/internal/utils/response"
)

type NotificationHandler struct {
	notificationService *service.NotificationService
}

func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) ListNotifications() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := claimsOrFail(w, r)
		if !ok {
			return
		}

		page, size := pagination(r)

		notifications, total, err := h.notificationService.ListNotifications(r.Context(), claims.CustomerID, page, size)
		if err != nil {
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, &models.NotificationListResponse{
			Notifications: notifications,
			Total:         total,
			Page:          page,
			Size:          size,
		})
	}
}
