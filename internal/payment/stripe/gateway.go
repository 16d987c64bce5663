// Package stripe adapts the Stripe hosted checkout API to the payment
// gateway port.
package stripe

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/freshcart/backend/internal/payment/app"
)

type Gateway struct {
	api           *client.API
	webhookSecret string
}

func New(secretKey, webhookSecret string) *Gateway {
	return &Gateway{
		api:           client.New(secretKey, nil),
		webhookSecret: webhookSecret,
	}
}

func (g *Gateway) CreateSession(ctx context.Context, req app.SessionRequest) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		CustomerEmail:      stripe.String(req.CustomerEmail),
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(req.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String("Order Total"),
						Description: stripe.String(req.Description),
					},
					UnitAmount: stripe.Int64(req.AmountTotal),
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return "", err
	}
	return sess.URL, nil
}

// VerifyEvent checks the signature header against the raw body and unpacks
// the checkout session fields the settlement path needs.
func (g *Gateway) VerifyEvent(payload []byte, sigHeader string) (app.Event, error) {
	event, err := webhook.ConstructEvent(payload, sigHeader, g.webhookSecret)
	if err != nil {
		return app.Event{}, fmt.Errorf("%w: %v", app.ErrSignature, err)
	}

	out := app.Event{Type: string(event.Type)}
	if out.Type != app.EventCheckoutCompleted {
		return out, nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return app.Event{}, fmt.Errorf("unmarshal checkout session: %w", err)
	}

	out.SessionID = sess.ID
	out.AmountTotal = sess.AmountTotal
	out.Metadata = sess.Metadata
	if sess.PaymentIntent != nil {
		out.PaymentIntent = sess.PaymentIntent.ID
	}
	return out, nil
}
