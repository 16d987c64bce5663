package app

import (
	"context"
	"errors"
)

// ErrSignature means the webhook payload failed verification against the
// shared secret. Hard stop, no writes.
var ErrSignature = errors.New("webhook signature verification failed")

const EventCheckoutCompleted = "checkout.session.completed"

// SessionRequest is a hosted-checkout session: one summary line for the
// server-computed charge, plus opaque metadata that makes the webhook
// handler self-sufficient.
type SessionRequest struct {
	AmountTotal   int64
	Currency      string
	Description   string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
}

// Event is a provider completion event after signature verification.
type Event struct {
	Type          string
	SessionID     string
	PaymentIntent string
	AmountTotal   int64
	Metadata      map[string]string
}

// CheckoutGateway wraps the hosted-checkout provider. The settlement
// pipeline depends on this port, never on the SDK, so tests run against a
// fake adapter.
type CheckoutGateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (string, error)
	VerifyEvent(payload []byte, sigHeader string) (Event, error)
}
