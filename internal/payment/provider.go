package payment

import "context"

// Status is the provider-reported state of a payment reference.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusPending   Status = "pending"
	StatusFailed    Status = "failed"
)

// Provider is the payment capability consumed by the order flow. Anything
// other than StatusSucceeded blocks order creation.
type Provider interface {
	RetrievePaymentStatus(ctx context.Context, reference string) (Status, error)
	CreatePaymentIntent(ctx context.Context, amountCents int64, metadata map[string]string) (clientSecret string, err error)
}
