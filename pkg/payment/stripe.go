package payment

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"storefront/internal/services"
)

// Config holds Stripe credentials.
type Config struct {
	SecretKey     string
	WebhookSecret string
}

// StripeProvider implements services.PaymentProvider on the Stripe API.
// It owns its API client; nothing here is process-wide state.
type StripeProvider struct {
	api           *client.API
	webhookSecret string
}

// NewStripeProvider creates a Stripe-backed payment provider.
func NewStripeProvider(cfg Config) *StripeProvider {
	api := &client.API{}
	api.Init(cfg.SecretKey, nil)
	return &StripeProvider{
		api:           api,
		webhookSecret: cfg.WebhookSecret,
	}
}

// CreateCustomer creates a Stripe customer carrying the given metadata and
// returns its id.
func (p *StripeProvider) CreateCustomer(metadata map[string]string) (string, error) {
	params := &stripe.CustomerParams{}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	cust, err := p.api.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create stripe customer: %w", err)
	}
	return cust.ID, nil
}

// CreateCheckoutSession requests a hosted card payment session and returns
// its redirect URL.
func (p *StripeProvider) CreateCheckoutSession(req services.SessionRequest) (string, error) {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.LineItems))
	for _, item := range req.LineItems {
		productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(item.Name),
		}
		if item.Description != "" {
			productData.Description = stripe.String(item.Description)
		}
		if item.Image != "" {
			productData.Images = stripe.StringSlice([]string{item.Image})
		}
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(string(stripe.CurrencyUSD)),
				ProductData: productData,
				UnitAmount:  stripe.Int64(item.UnitAmount),
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	sess, err := p.api.CheckoutSessions.New(&stripe.CheckoutSessionParams{
		Customer:           stripe.String(req.CustomerRef),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          lineItems,
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}
	return sess.URL, nil
}

// CustomerMetadata fetches the metadata stored on a Stripe customer.
func (p *StripeProvider) CustomerMetadata(customerRef string) (map[string]string, error) {
	cust, err := p.api.Customers.Get(customerRef, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve stripe customer %s: %w", customerRef, err)
	}
	return cust.Metadata, nil
}

// PaymentIntent retrieves the live state of a payment intent, with the latest
// charge expanded so the card's last four digits are available.
func (p *StripeProvider) PaymentIntent(id string) (*services.PaymentIntentDetails, error) {
	params := &stripe.PaymentIntentParams{}
	params.AddExpand("latest_charge")
	params.AddExpand("payment_method")

	pi, err := p.api.PaymentIntents.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve payment intent %s: %w", id, err)
	}

	last4 := "N/A"
	if pi.LatestCharge != nil && pi.LatestCharge.PaymentMethodDetails != nil &&
		pi.LatestCharge.PaymentMethodDetails.Card != nil &&
		pi.LatestCharge.PaymentMethodDetails.Card.Last4 != "" {
		last4 = pi.LatestCharge.PaymentMethodDetails.Card.Last4
	}
	paymentMethod := ""
	if pi.PaymentMethod != nil {
		paymentMethod = pi.PaymentMethod.ID
	}

	return &services.PaymentIntentDetails{
		ID:            pi.ID,
		Amount:        float64(pi.Amount) / 100,
		Currency:      string(pi.Currency),
		Status:        string(pi.Status),
		Created:       time.Unix(pi.Created, 0),
		PaymentMethod: paymentMethod,
		Last4:         last4,
	}, nil
}

// VerifyWebhook authenticates a raw webhook payload against the
// Stripe-Signature header using the pre-shared signing secret, then parses
// the event. Signature verification depends on the exact payload bytes.
func (p *StripeProvider) VerifyWebhook(payload []byte, signature string) (*services.WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, p.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("webhook signature verification failed: %w", err)
	}

	out := &services.WebhookEvent{Type: string(event.Type)}
	if out.Type != services.EventCheckoutCompleted {
		return out, nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("failed to parse checkout session from event: %w", err)
	}
	completion := &services.CheckoutCompletion{
		PaymentStatus: string(sess.PaymentStatus),
		AmountTotal:   sess.AmountTotal,
	}
	if sess.Customer != nil {
		completion.CustomerRef = sess.Customer.ID
	}
	if sess.PaymentIntent != nil {
		completion.PaymentIntent = sess.PaymentIntent.ID
	}
	out.Completion = completion
	return out, nil
}
