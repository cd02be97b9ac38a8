package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lumiereskin/storefront/internal/errors"
	"github.com/lumiereskin/storefront/internal/models"
	repository "github.com/lumiereskin/storefront/internal/repositories"
	"github.com/lumiereskin/storefront/pkg/sendgrid"
)

// NotificationService is the advisory notification channel. Cart events are
// recorded as in-app notifications; order confirmations additionally go out
// by email. Failures here never fail the operation that raised the event.
type NotificationService struct {
	repo  repository.NotificationRepository
	email sendgrid.EmailService
}

func NewNotificationService(repo repository.NotificationRepository, email sendgrid.EmailService) *NotificationService {
	return &NotificationService{repo: repo, email: email}
}

// RecordCartEvents stores each cart event as an in-app notification.
// Best effort: a storage failure is logged and swallowed, the cart
// operation that produced the events has already succeeded.
func (n *NotificationService) RecordCartEvents(ctx context.Context, customerID uuid.UUID, events []models.CartEvent) {
	for _, event := range events {
		notification := &models.Notification{
			ID:         uuid.New(),
			CustomerID: customerID,
			Type:       models.NotificationTypeInApp,
			Subject:    string(event.Kind),
			Content:    event.Message,
			Status:     models.NotificationStatusSent,
			SentAt:     timePtr(time.Now()),
		}

		if err := n.repo.CreateNotification(ctx, notification); err != nil {
			slog.Error("Failed to record cart notification",
				slog.String("customer_id", customerID.String()),
				slog.String("kind", string(event.Kind)),
				slog.String("error", err.Error()))
		}
	}
}

// SendOrderConfirmation emails the order summary and records the attempt.
func (n *NotificationService) SendOrderConfirmation(ctx context.Context, customerID uuid.UUID, recipient string, order *models.Order) {
	content := orderConfirmationBody(order)

	notification := &models.Notification{
		ID:         uuid.New(),
		CustomerID: customerID,
		Type:       models.NotificationTypeEmail,
		Recipient:  recipient,
		Subject:    fmt.Sprintf("Your order %s is confirmed", order.ID),
		Content:    content,
		Status:     models.NotificationStatusPending,
	}

	if err := n.repo.CreateNotification(ctx, notification); err != nil {
		slog.Error("Failed to record order confirmation",
			slog.String("order_id", order.ID.String()),
			slog.String("error", err.Error()))

		return
	}

	err := n.email.Send(ctx, &models.EmailMessage{
		To:      recipient,
		Subject: notification.Subject,
		Content: content,
	})
	if err != nil {
		slog.Error("Failed to send order confirmation email",
			slog.String("order_id", order.ID.String()),
			slog.String("error", err.Error()))

		if updateErr := n.repo.UpdateNotificationStatus(ctx, notification.ID, models.NotificationStatusFailed, err.Error()); updateErr != nil {
			slog.Error("Failed to mark notification as failed",
				slog.String("notification_id", notification.ID.String()),
				slog.String("error", updateErr.Error()))
		}

		return
	}

	if err := n.repo.UpdateNotificationStatus(ctx, notification.ID, models.NotificationStatusSent, ""); err != nil {
		slog.Error("Failed to mark notification as sent",
			slog.String("notification_id", notification.ID.String()),
			slog.String("error", err.Error()))
	}
}

func (n *NotificationService) ListNotifications(ctx context.Context, customerID uuid.UUID, page, size int) ([]models.Notification, int, error) {
	notifications, total, err := n.repo.ListNotificationsByCustomer(ctx, customerID, page, size)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to list notifications").WithError(err)
	}

	return notifications, total, nil
}

func orderConfirmationBody(order *models.Order) string {
	body := fmt.Sprintf("Thank you for your order.\n\nSubtotal: %s\n", order.Subtotal.StringFixed(2))

	switch order.DiscountKind {
	case models.DiscountKindBundle:
		body += fmt.Sprintf("Bundle discount: -%s\n", order.DiscountAmount.StringFixed(2))
	case models.DiscountKindCoupon:
		body += fmt.Sprintf("Coupon %s: -%s\n", order.CouponCode, order.DiscountAmount.StringFixed(2))
	}

	body += fmt.Sprintf("Total charged: %s\n", order.TotalAmount.StringFixed(2))

	return body
}

func timePtr(t time.Time) *time.Time {
	return &t
}
