package apiclient

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutoring_bot/internal/model"
)

type CreatePaymentIntentRequest struct {
	Amount   int64             `json:"amount" validate:"gt=0"` // в центах
	Currency string            `json:"currency" validate:"required,len=3"`
	Metadata map[string]string `json:"metadata"`
}

type UpdatePaymentIntentMetadataRequest struct {
	PaymentIntentID string            `json:"paymentIntentId" validate:"required"`
	Metadata        map[string]string `json:"metadata" validate:"required"`
}

// CreatePaymentIntent POST /api/stripe/create-payment-intent
func (c *Client) CreatePaymentIntent(ctx context.Context, req CreatePaymentIntentRequest) (*model.PaymentIntent, error) {
	var out model.PaymentIntent
	err := c.do(ctx, request{
		method:     "POST",
		path:       "/api/stripe/create-payment-intent",
		body:       req,
		out:        &out,
		idempotent: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	if out.Amount == 0 {
		out.Amount = req.Amount
	}
	if out.Currency == "" {
		out.Currency = req.Currency
	}
	return &out, nil
}

// UpdatePaymentIntentMetadata PATCH /api/stripe/update-payment-intent-metadata
func (c *Client) UpdatePaymentIntentMetadata(ctx context.Context, req UpdatePaymentIntentMetadataRequest) error {
	err := c.do(ctx, request{
		method: "PATCH",
		path:   "/api/stripe/update-payment-intent-metadata",
		body:   req,
	})
	if err != nil {
		return fmt.Errorf("update payment intent metadata: %w", err)
	}
	return nil
}
