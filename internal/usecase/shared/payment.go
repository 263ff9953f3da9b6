package shared

import (
	"context"
	"errors"
)

type IntentStatus string

const (
	IntentSucceeded IntentStatus = "succeeded"
	IntentFailed    IntentStatus = "failed"
	IntentPending   IntentStatus = "pending"
)

var (
	// ErrProcessorUnavailable marks transport-level processor failures
	// (timeout, connection refused, open circuit). It is the only payment
	// error eligible for local retry.
	ErrProcessorUnavailable = errors.New("payment processor unavailable")
	// ErrRefundDeclined marks a processor that answered and refused.
	ErrRefundDeclined = errors.New("refund declined by processor")
)

// PaymentProcessor is the boundary to the external payment service.
type PaymentProcessor interface {
	OpenIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (string, error)
	QueryIntent(ctx context.Context, externalRef string) (IntentStatus, error)
	Refund(ctx context.Context, externalRef string) error
}
