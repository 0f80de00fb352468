// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package payments wraps Stripe Checkout behind a small Provider
// interface so the handlers and tests never talk to Stripe directly.
package payments

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"
)

// ErrDisabled means no Stripe key is configured; ticket sales are off.
var ErrDisabled = errors.New("payments are not configured")

// CheckoutRequest describes one ticket purchase to start.
type CheckoutRequest struct {
	ShowName   string
	PriceCents int
	Quantity   int
	Email      string
	TicketID   string // carried through Stripe metadata to the webhook
	SuccessURL string
	CancelURL  string
}

// CheckoutSession is the result of starting a purchase: where to send
// the buyer and the provider's session id to reconcile on webhook.
type CheckoutSession struct {
	ID  string
	URL string
}

// Provider creates checkout sessions and verifies webhook payloads.
// The engine treats payment entirely as an external boundary.
type Provider interface {
	CreateCheckout(req CheckoutRequest) (CheckoutSession, error)
	VerifyWebhook(payload []byte, signature string) (WebhookEvent, error)
}

// WebhookEvent is the subset of provider webhook data the server acts
// on: a completed checkout for one ticket.
type WebhookEvent struct {
	Type      string
	SessionID string
	TicketID  string
}

// EventCheckoutCompleted is the webhook type for a finished purchase.
const EventCheckoutCompleted = "checkout.session.completed"

// NewProvider returns a Stripe-backed provider, or a disabled one when
// no secret key is configured.
func NewProvider(secretKey, webhookSecret string) Provider {
	if secretKey == "" {
		return disabledProvider{}
	}
	stripe.Key = secretKey
	return &stripeProvider{webhookSecret: webhookSecret}
}

type stripeProvider struct {
	webhookSecret string
}

func (p *stripeProvider) CreateCheckout(req CheckoutRequest) (CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		CustomerEmail: stripe.String(req.Email),
		SuccessURL:    stripe.String(req.SuccessURL),
		CancelURL:     stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(int64(req.Quantity)),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(string(stripe.CurrencyUSD)),
					UnitAmount: stripe.Int64(int64(req.PriceCents)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.ShowName),
					},
				},
			},
		},
		Metadata: map[string]string{"ticket_id": req.TicketID},
	}

	s, err := session.New(params)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

func (p *stripeProvider) VerifyWebhook(payload []byte, signature string) (WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, p.webhookSecret)
	if err != nil {
		return WebhookEvent{}, fmt.Errorf("webhook verification failed: %w", err)
	}

	out := WebhookEvent{Type: string(event.Type)}
	if out.Type != EventCheckoutCompleted {
		return out, nil
	}

	var s stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
		return WebhookEvent{}, fmt.Errorf("failed to parse checkout session: %w", err)
	}
	out.SessionID = s.ID
	out.TicketID = s.Metadata["ticket_id"]

	return out, nil
}

type disabledProvider struct{}

func (disabledProvider) CreateCheckout(CheckoutRequest) (CheckoutSession, error) {
	return CheckoutSession{}, ErrDisabled
}

func (disabledProvider) VerifyWebhook([]byte, string) (WebhookEvent, error) {
	return WebhookEvent{}, ErrDisabled
}
