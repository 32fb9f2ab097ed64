package services

import "time"

// EventCheckoutCompleted is the only webhook event type the checkout flow
// acts on; everything else is acknowledged and ignored.
const EventCheckoutCompleted = "checkout.session.completed"

// LineItem is one priced entry of a hosted checkout session. UnitAmount is in
// minor currency units (cents).
type LineItem struct {
	Name        string
	Description string
	Image       string
	UnitAmount  int64
	Quantity    int64
}

// SessionRequest describes a hosted single-payment checkout session.
type SessionRequest struct {
	CustomerRef string
	LineItems   []LineItem
	SuccessURL  string
	CancelURL   string
}

// CheckoutCompletion carries the fields of a completed-checkout webhook event
// the order flow needs. AmountTotal is in minor currency units.
type CheckoutCompletion struct {
	CustomerRef   string
	PaymentStatus string
	PaymentIntent string
	AmountTotal   int64
}

// WebhookEvent is a verified, parsed webhook notification. Completion is
// non-nil only for EventCheckoutCompleted.
type WebhookEvent struct {
	Type       string
	Completion *CheckoutCompletion
}

// PaymentIntentDetails is the merged live view of a payment intent.
// Amount is in major currency units.
type PaymentIntentDetails struct {
	ID            string    `json:"id"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
	Created       time.Time `json:"created"`
	PaymentMethod string    `json:"payment_method"`
	Last4         string    `json:"last4"`
}

// PaymentProvider abstracts the external payment processor. It is injected
// into the checkout service so tests can substitute a double; there is no
// process-wide client.
type PaymentProvider interface {
	// CreateCustomer creates a processor-side customer record carrying
	// opaque metadata and returns its reference.
	CreateCustomer(metadata map[string]string) (string, error)
	// CreateCheckoutSession requests a hosted payment session and returns
	// its redirect URL.
	CreateCheckoutSession(req SessionRequest) (string, error)
	// CustomerMetadata fetches the metadata previously stored on a
	// processor-side customer record.
	CustomerMetadata(customerRef string) (map[string]string, error)
	// PaymentIntent retrieves the live state of a payment intent.
	PaymentIntent(id string) (*PaymentIntentDetails, error)
	// VerifyWebhook authenticates a raw webhook payload against its
	// signature header and parses it into an event.
	VerifyWebhook(payload []byte, signature string) (*WebhookEvent, error)
}
