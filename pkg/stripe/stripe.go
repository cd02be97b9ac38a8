package stripe

import (
	"fmt"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentintent"
	"github.com/stripe/stripe-go/v81/refund"
)

// Client is the payment surface checkout needs. Amounts are integer minor
// units (paise, cents); the caller converts from decimal before this point.
type Client interface {
	CreatePaymentIntent(amount int64, currency, description, receiptEmail string) (*stripe.PaymentIntent, error)
	RefundPayment(paymentIntentID string, amount int64) (*stripe.Refund, error)
}

type stripeClient struct{}

func NewStripeClient(apiKey string) Client {
	stripe.Key = apiKey

	return &stripeClient{}
}

func (s *stripeClient) CreatePaymentIntent(amount int64, currency, description, receiptEmail string) (*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(amount),
		Currency:    stripe.String(currency),
		Description: stripe.String(description),
	}

	if receiptEmail != "" {
		params.ReceiptEmail = stripe.String(receiptEmail)
	}

	intent, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("creating payment intent: %w", err)
	}

	return intent, nil
}

func (s *stripeClient) RefundPayment(paymentIntentID string, amount int64) (*stripe.Refund, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentIntentID),
	}

	if amount > 0 {
		params.Amount = stripe.Int64(amount)
	}

	r, err := refund.New(params)
	if err != nil {
		return nil, fmt.Errorf("refunding payment intent %s: %w", paymentIntentID, err)
	}

	return r, nil
}
