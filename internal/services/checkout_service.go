package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"storefront/internal/models"
	"storefront/internal/repositories"
)

// Metadata keys used on the payment processor's customer record. The
// snapshot bridges the asynchronous gap to webhook delivery; the customer id
// travels alongside so the webhook can attribute the order and clear the
// right cart.
const (
	metadataKeyCartItems  = "cartItems"
	metadataKeyCustomerID = "customerId"
)

// EventPublisher publishes domain events to the message broker.
type EventPublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// CheckoutService handles checkout-session creation, webhook-driven order
// finalization, and payment-detail lookup.
type CheckoutService struct {
	cartRepo    repositories.CartRepository
	productRepo repositories.ProductRepository
	orderRepo   repositories.OrderRepository
	provider    PaymentProvider
	publisher   EventPublisher // optional; nil skips event publication
	clientURL   string
}

// NewCheckoutService creates a new CheckoutService. The payment provider is
// a required collaborator; publisher may be nil.
func NewCheckoutService(
	cartRepo repositories.CartRepository,
	productRepo repositories.ProductRepository,
	orderRepo repositories.OrderRepository,
	provider PaymentProvider,
	publisher EventPublisher,
	clientURL string,
) *CheckoutService {
	return &CheckoutService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		provider:    provider,
		publisher:   publisher,
		clientURL:   clientURL,
	}
}

// CreateSession validates the customer's cart, registers a checkout snapshot
// with the payment processor, and requests a hosted single-payment session.
// Items whose product reference is missing or whose product lacks a name or
// price are logged and durably dropped from the cart; only when nothing valid
// remains does the whole request fail.
func (s *CheckoutService) CreateSession(customerID string) (string, error) {
	cart, err := s.cartRepo.GetByCustomerID(customerID)
	if err != nil {
		return "", err
	}

	valid := make([]models.CartItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		product, err := s.productRepo.GetByID(item.ProductID)
		if err != nil {
			if errors.Is(err, repositories.ErrProductNotFound) {
				log.Printf("Invalid item in cart %s: product %s does not resolve", customerID, item.ProductID)
				continue
			}
			return "", err
		}
		if product.Name == "" || product.Price == 0 {
			log.Printf("Invalid item in cart %s: missing name or price for product %s", customerID, product.ID)
			continue
		}
		item.Product = product
		valid = append(valid, item)
	}
	if len(valid) == 0 {
		return "", fmt.Errorf("cart of customer %s: %w", customerID, ErrNoValidItems)
	}

	// Durably drop the invalid items as a consequence of the checkout
	// attempt, not just for this response.
	cart.Items = valid
	cart.UpdatedAt = time.Now()
	if err := s.cartRepo.Save(cart); err != nil {
		return "", err
	}

	snapshot := make([]models.SnapshotItem, 0, len(valid))
	for _, item := range valid {
		snapshot = append(snapshot, models.SnapshotItem{
			ProductID: item.Product.ID,
			Name:      item.Product.Name,
			Price:     item.Product.Price,
			Quantity:  item.Quantity,
			Image:     item.Product.Image,
		})
	}
	rawSnapshot, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("failed to marshal checkout snapshot: %w", err)
	}

	customerRef, err := s.provider.CreateCustomer(map[string]string{
		metadataKeyCartItems:  string(rawSnapshot),
		metadataKeyCustomerID: customerID,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPaymentProvider, err)
	}

	lineItems := make([]LineItem, 0, len(valid))
	for _, item := range valid {
		lineItems = append(lineItems, LineItem{
			Name:        item.Product.Name,
			Description: item.Product.Description,
			Image:       item.Product.Image,
			UnitAmount:  UnitAmount(item.Product.Price),
			Quantity:    int64(item.Quantity),
		})
	}

	url, err := s.provider.CreateCheckoutSession(SessionRequest{
		CustomerRef: customerRef,
		LineItems:   lineItems,
		SuccessURL:  s.clientURL + "/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:   s.clientURL + "/cancel",
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPaymentProvider, err)
	}
	return url, nil
}

// HandleCheckoutCompleted finalizes an order from a verified
// checkout-completion event: it reads the snapshot back from the processor's
// customer record, re-resolves each entry to a current product by name
// lookup (best effort; a miss leaves the line item without a product
// reference), persists the order, and clears the customer's cart.
//
// Processing is not idempotent: the same event delivered twice creates two
// orders, since no deduplication ledger is kept.
func (s *CheckoutService) HandleCheckoutCompleted(completion *CheckoutCompletion) error {
	metadata, err := s.provider.CustomerMetadata(completion.CustomerRef)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPaymentProvider, err)
	}

	var snapshot []models.SnapshotItem
	if err := json.Unmarshal([]byte(metadata[metadataKeyCartItems]), &snapshot); err != nil {
		return fmt.Errorf("failed to parse checkout snapshot: %w", err)
	}

	customerID := metadata[metadataKeyCustomerID]
	if customerID == "" {
		customerID = completion.CustomerRef
	}

	items := make([]models.OrderItem, 0, len(snapshot))
	for _, entry := range snapshot {
		productID := ""
		product, err := s.productRepo.GetByName(entry.Name)
		switch {
		case err == nil:
			productID = product.ID
		case errors.Is(err, repositories.ErrProductNotFound):
			log.Printf("Order line %q no longer resolves to a product", entry.Name)
		default:
			return err
		}
		items = append(items, models.OrderItem{
			ProductID: productID,
			Name:      entry.Name,
			Price:     entry.Price,
			Quantity:  entry.Quantity,
			Image:     entry.Image,
		})
	}

	order := &models.Order{
		CustomerID:    customerID,
		Items:         items,
		PaymentStatus: completion.PaymentStatus,
		PaymentIntent: completion.PaymentIntent,
		TotalAmount:   float64(completion.AmountTotal) / 100,
		Status:        models.OrderStatusProcessing,
	}
	if err := s.orderRepo.Create(order); err != nil {
		return fmt.Errorf("failed to create order from checkout completion: %w", err)
	}

	if err := s.cartRepo.DeleteByCustomerID(customerID); err != nil {
		return err
	}

	s.publishOrderCreated(order)
	return nil
}

// publishOrderCreated emits an order.created event. Publication is best
// effort; a missing or failing broker never fails the order.
func (s *CheckoutService) publishOrderCreated(order *models.Order) {
	if s.publisher == nil {
		log.Println("Event publisher is not initialized. Skipping order.created publication.")
		return
	}
	body, err := json.Marshal(map[string]interface{}{
		"orderID":    order.ID,
		"customerID": order.CustomerID,
		"status":     order.Status,
		"total":      order.TotalAmount,
	})
	if err != nil {
		log.Printf("Failed to marshal order.created event: %v", err)
		return
	}
	if err := s.publisher.Publish("order", "order.created", body); err != nil {
		log.Printf("Warning: Failed to publish order.created event for order %s: %v", order.ID, err)
	}
}

// PaymentDetail is the per-order record returned by GetPaymentDetails.
// Details is nil when the order has no recorded payment intent.
type PaymentDetail struct {
	OrderID       string                `json:"orderId"`
	CustomerID    string                `json:"customerId"`
	TotalAmount   float64               `json:"totalAmount"`
	PaymentStatus string                `json:"payment_status"`
	Details       *PaymentIntentDetails `json:"paymentDetails"`
}

// GetPaymentDetails merges each of the customer's orders with the live state
// of its payment intent.
func (s *CheckoutService) GetPaymentDetails(customerID string) ([]PaymentDetail, error) {
	orders, err := s.orderRepo.GetByCustomerID(customerID)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, fmt.Errorf("customer %s: %w", customerID, ErrNoOrders)
	}

	details := make([]PaymentDetail, 0, len(orders))
	for _, order := range orders {
		detail := PaymentDetail{
			OrderID:       order.ID,
			CustomerID:    order.CustomerID,
			TotalAmount:   order.TotalAmount,
			PaymentStatus: order.PaymentStatus,
		}
		if order.PaymentIntent != "" {
			intent, err := s.provider.PaymentIntent(order.PaymentIntent)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrPaymentProvider, err)
			}
			detail.Details = intent
		}
		details = append(details, detail)
	}
	return details, nil
}

// UnitAmount converts a price in major currency units to the processor's
// minor units, e.g. 19.99 to 1999.
func UnitAmount(price float64) int64 {
	return int64(math.Round(price * 100))
}
