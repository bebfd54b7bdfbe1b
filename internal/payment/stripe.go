package payment

import (
	"context"
	"fmt"

	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeProvider implements Provider against the Stripe API.
type StripeProvider struct {
	api *client.API
}

// Ensure StripeProvider implements Provider
var _ Provider = (*StripeProvider)(nil)

// NewStripeProvider creates a Stripe-backed payment provider.
func NewStripeProvider(secretKey string) *StripeProvider {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeProvider{api: api}
}

// RetrievePaymentStatus confirms a payment intent independently with Stripe.
func (p *StripeProvider) RetrievePaymentStatus(ctx context.Context, reference string) (Status, error) {
	intent, err := p.api.PaymentIntents.Get(reference, &stripe.PaymentIntentParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return StatusFailed, fmt.Errorf("retrieve payment intent: %w", err)
	}
	switch intent.Status {
	case stripe.PaymentIntentStatusSucceeded:
		return StatusSucceeded, nil
	case stripe.PaymentIntentStatusProcessing,
		stripe.PaymentIntentStatusRequiresAction,
		stripe.PaymentIntentStatusRequiresConfirmation,
		stripe.PaymentIntentStatusRequiresPaymentMethod:
		return StatusPending, nil
	default:
		return StatusFailed, nil
	}
}

// CreatePaymentIntent opens a payment intent and returns its client secret.
func (p *StripeProvider) CreatePaymentIntent(ctx context.Context, amountCents int64, metadata map[string]string) (string, error) {
	params := &stripe.PaymentIntentParams{
		Params:   stripe.Params{Context: ctx},
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(string(stripe.CurrencyUSD)),
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	intent, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return "", fmt.Errorf("create payment intent: %w", err)
	}
	return intent.ClientSecret, nil
}
