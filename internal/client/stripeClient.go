package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v82"
	stripeapi "github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"

	"nosweat-backend/internal/config"
)

type LineItem struct {
	Name       string
	UnitAmount int64 // minor units
	Quantity   int64
}

type CreateSessionResponse struct {
	SessionID   string
	CheckoutURL string
}

type SessionDetails struct {
	AmountTotal int64 // minor units; 0 when the processor reported nothing
}

type StripeClient interface {
	CreateCheckoutSession(ctx context.Context, items []*LineItem) (*CreateSessionResponse, error)
	RetrieveSession(ctx context.Context, sessionID string) (*SessionDetails, error)
	VerifyWebhookSignature(payload []byte, sigHeader string) (stripe.Event, error)
}

type stripeClientImpl struct {
	api           *stripeapi.API
	webhookSecret string
	successURL    string
	cancelURL     string
}

func NewStripeClient(stripeCfg *config.Stripe) StripeClient {
	backends := stripe.NewBackends(&http.Client{
		Timeout: 30 * time.Second,
	})

	api := &stripeapi.API{}
	api.Init(stripeCfg.SecretKey, backends)

	return &stripeClientImpl{
		api:           api,
		webhookSecret: stripeCfg.WebhookSecret,
		successURL:    stripeCfg.SuccessURL,
		cancelURL:     stripeCfg.CancelURL,
	}
}

func (c *stripeClientImpl) CreateCheckoutSession(ctx context.Context, items []*LineItem) (*CreateSessionResponse, error) {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, len(items))
	for i, item := range items {
		lineItems[i] = &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(item.Quantity),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String("usd"),
				UnitAmount: stripe.Int64(item.UnitAmount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
			},
		}
	}

	params := &stripe.CheckoutSessionParams{
		Mode:                stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:           lineItems,
		AllowPromotionCodes: stripe.Bool(true),
		SuccessURL:          stripe.String(c.successURL),
		CancelURL:           stripe.String(c.cancelURL),
		AutomaticTax: &stripe.CheckoutSessionAutomaticTaxParams{
			Enabled: stripe.Bool(false),
		},
	}
	params.Context = ctx

	sess, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create checkout session: %w", err)
	}

	return &CreateSessionResponse{
		SessionID:   sess.ID,
		CheckoutURL: sess.URL,
	}, nil
}

func (c *stripeClientImpl) RetrieveSession(ctx context.Context, sessionID string) (*SessionDetails, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("payment_intent")

	sess, err := c.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe retrieve checkout session: %w", err)
	}

	amount := sess.AmountTotal
	if amount == 0 && sess.PaymentIntent != nil {
		amount = sess.PaymentIntent.AmountReceived
	}

	return &SessionDetails{AmountTotal: amount}, nil
}

func (c *stripeClientImpl) VerifyWebhookSignature(payload []byte, sigHeader string) (stripe.Event, error) {
	event, err := webhook.ConstructEvent(payload, sigHeader, c.webhookSecret)
	if err != nil {
		return stripe.Event{}, fmt.Errorf("verify webhook signature: %w", err)
	}
	return event, nil
}
