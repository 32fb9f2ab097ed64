package services_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockPaymentProvider is a mock implementation of services.PaymentProvider.
type MockPaymentProvider struct {
	mock.Mock
}

func (m *MockPaymentProvider) CreateCustomer(metadata map[string]string) (string, error) {
	args := m.Called(metadata)
	return args.String(0), args.Error(1)
}

func (m *MockPaymentProvider) CreateCheckoutSession(req services.SessionRequest) (string, error) {
	args := m.Called(req)
	return args.String(0), args.Error(1)
}

func (m *MockPaymentProvider) CustomerMetadata(customerRef string) (map[string]string, error) {
	args := m.Called(customerRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

func (m *MockPaymentProvider) PaymentIntent(id string) (*services.PaymentIntentDetails, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PaymentIntentDetails), args.Error(1)
}

func (m *MockPaymentProvider) VerifyWebhook(payload []byte, signature string) (*services.WebhookEvent, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.WebhookEvent), args.Error(1)
}

// MockEventPublisher is a mock implementation of services.EventPublisher.
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(exchange, routingKey string, body []byte) error {
	args := m.Called(exchange, routingKey, body)
	return args.Error(0)
}

type checkoutFixture struct {
	service     *services.CheckoutService
	cartRepo    *repositories.MockCartRepository
	productRepo *repositories.MockProductRepository
	orderRepo   *repositories.MockOrderRepository
	provider    *MockPaymentProvider
	publisher   *MockEventPublisher
}

func newCheckoutFixture() *checkoutFixture {
	f := &checkoutFixture{
		cartRepo:    repositories.NewMockCartRepository(),
		productRepo: repositories.NewMockProductRepository(),
		orderRepo:   repositories.NewMockOrderRepository(),
		provider:    new(MockPaymentProvider),
		publisher:   new(MockEventPublisher),
	}
	f.service = services.NewCheckoutService(
		f.cartRepo, f.productRepo, f.orderRepo, f.provider, f.publisher, "http://shop.example.com",
	)
	return f
}

func TestCheckoutService_CreateSession_CartNotFound(t *testing.T) {
	f := newCheckoutFixture()

	_, err := f.service.CreateSession("nobody")
	assert.True(t, errors.Is(err, repositories.ErrCartNotFound))
	f.provider.AssertNotCalled(t, "CreateCustomer", mock.Anything)
}

func TestCheckoutService_CreateSession_NoValidItems(t *testing.T) {
	f := newCheckoutFixture()

	// The cart's only item references a product that no longer exists.
	assert.NoError(t, f.cartRepo.Save(&models.Cart{
		CustomerID: "cust-1",
		Items:      []models.CartItem{{ProductID: "ghost", Quantity: 1}},
	}))

	_, err := f.service.CreateSession("cust-1")
	assert.True(t, errors.Is(err, services.ErrNoValidItems))

	// No provider calls and no cart rewrite happened.
	f.provider.AssertNotCalled(t, "CreateCustomer", mock.Anything)
	f.provider.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything)
	stored, err := f.cartRepo.GetByCustomerID("cust-1")
	assert.NoError(t, err)
	assert.Len(t, stored.Items, 1)
}

func TestCheckoutService_CreateSession_FiltersAndPersistsValidItems(t *testing.T) {
	f := newCheckoutFixture()

	widget := &models.Product{Name: "Widget", Description: "A widget", Price: 19.99, Image: "http://img/widget.png"}
	unpriced := &models.Product{Name: "Freebie", Price: 0}
	assert.NoError(t, f.productRepo.Create(widget))
	assert.NoError(t, f.productRepo.Create(unpriced))

	assert.NoError(t, f.cartRepo.Save(&models.Cart{
		CustomerID: "cust-1",
		Items: []models.CartItem{
			{ProductID: widget.ID, Quantity: 2},
			{ProductID: unpriced.ID, Quantity: 1},
			{ProductID: "ghost", Quantity: 5},
		},
	}))

	var metadata map[string]string
	f.provider.On("CreateCustomer", mock.Anything).Run(func(args mock.Arguments) {
		metadata = args.Get(0).(map[string]string)
	}).Return("cus_42", nil).Once()

	var sessionReq services.SessionRequest
	f.provider.On("CreateCheckoutSession", mock.Anything).Run(func(args mock.Arguments) {
		sessionReq = args.Get(0).(services.SessionRequest)
	}).Return("https://pay.example.com/session/abc", nil).Once()

	url, err := f.service.CreateSession("cust-1")
	assert.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/session/abc", url)
	f.provider.AssertExpectations(t)

	// Invalid items are durably dropped from the cart.
	stored, err := f.cartRepo.GetByCustomerID("cust-1")
	assert.NoError(t, err)
	assert.Len(t, stored.Items, 1)
	assert.Equal(t, widget.ID, stored.Items[0].ProductID)

	// The snapshot carries one entry per valid item, copied by value.
	var snapshot []models.SnapshotItem
	assert.NoError(t, json.Unmarshal([]byte(metadata["cartItems"]), &snapshot))
	assert.Len(t, snapshot, 1)
	assert.Equal(t, "Widget", snapshot[0].Name)
	assert.Equal(t, 19.99, snapshot[0].Price)
	assert.Equal(t, 2, snapshot[0].Quantity)
	assert.Equal(t, "cust-1", metadata["customerId"])

	// Line pricing is in minor units, single-payment mode redirects set.
	assert.Equal(t, "cus_42", sessionReq.CustomerRef)
	assert.Len(t, sessionReq.LineItems, 1)
	assert.Equal(t, int64(1999), sessionReq.LineItems[0].UnitAmount)
	assert.Equal(t, int64(2), sessionReq.LineItems[0].Quantity)
	assert.Equal(t, "http://shop.example.com/success?session_id={CHECKOUT_SESSION_ID}", sessionReq.SuccessURL)
	assert.Equal(t, "http://shop.example.com/cancel", sessionReq.CancelURL)
}

func TestCheckoutService_CreateSession_ProviderFailure(t *testing.T) {
	f := newCheckoutFixture()

	widget := &models.Product{Name: "Widget", Price: 5}
	assert.NoError(t, f.productRepo.Create(widget))
	assert.NoError(t, f.cartRepo.Save(&models.Cart{
		CustomerID: "cust-1",
		Items:      []models.CartItem{{ProductID: widget.ID, Quantity: 1}},
	}))

	f.provider.On("CreateCustomer", mock.Anything).Return("", fmt.Errorf("api key expired")).Once()

	_, err := f.service.CreateSession("cust-1")
	assert.True(t, errors.Is(err, services.ErrPaymentProvider))
	assert.Contains(t, err.Error(), "api key expired", "the provider's message is attached")
}

func TestUnitAmount(t *testing.T) {
	assert.Equal(t, int64(1999), services.UnitAmount(19.99))
	assert.Equal(t, int64(950), services.UnitAmount(9.5))
	assert.Equal(t, int64(1000), services.UnitAmount(10))
	assert.Equal(t, int64(0), services.UnitAmount(0))
}

func completionFixture(f *checkoutFixture, snapshot []models.SnapshotItem, customerID string) *services.CheckoutCompletion {
	raw, _ := json.Marshal(snapshot)
	f.provider.On("CustomerMetadata", "cus_42").Return(map[string]string{
		"cartItems":  string(raw),
		"customerId": customerID,
	}, nil)
	return &services.CheckoutCompletion{
		CustomerRef:   "cus_42",
		PaymentStatus: "paid",
		PaymentIntent: "pi_123",
		AmountTotal:   1900,
	}
}

func TestCheckoutService_HandleCheckoutCompleted_CreatesOrderAndClearsCart(t *testing.T) {
	f := newCheckoutFixture()

	widget := &models.Product{Name: "Widget", Price: 9.5}
	assert.NoError(t, f.productRepo.Create(widget))
	assert.NoError(t, f.cartRepo.Save(&models.Cart{
		CustomerID: "cust-1",
		Items:      []models.CartItem{{ProductID: widget.ID, Quantity: 2}},
	}))

	completion := completionFixture(f, []models.SnapshotItem{
		{ProductID: widget.ID, Name: "Widget", Price: 9.5, Quantity: 2},
	}, "cust-1")
	f.publisher.On("Publish", "order", "order.created", mock.Anything).Return(nil).Once()

	assert.NoError(t, f.service.HandleCheckoutCompleted(completion))

	orders, err := f.orderRepo.GetByCustomerID("cust-1")
	assert.NoError(t, err)
	assert.Len(t, orders, 1)
	order := orders[0]
	assert.Equal(t, 19.0, order.TotalAmount, "total derives from the event's amount in major units")
	assert.Len(t, order.Items, 1)
	assert.Equal(t, "Widget", order.Items[0].Name)
	assert.Equal(t, 9.5, order.Items[0].Price)
	assert.Equal(t, 2, order.Items[0].Quantity)
	assert.Equal(t, widget.ID, order.Items[0].ProductID, "line items re-resolve to a current product by name")
	assert.Equal(t, "paid", order.PaymentStatus)
	assert.Equal(t, "pi_123", order.PaymentIntent)
	assert.Equal(t, models.OrderStatusProcessing, order.Status)
	assert.WithinDuration(t, time.Now(), order.CreatedAt, time.Minute)

	_, err = f.cartRepo.GetByCustomerID("cust-1")
	assert.True(t, errors.Is(err, repositories.ErrCartNotFound), "cart is deleted after order creation")
	f.publisher.AssertExpectations(t)
}

func TestCheckoutService_HandleCheckoutCompleted_UnresolvableNameLeavesEmptyReference(t *testing.T) {
	f := newCheckoutFixture()

	completion := completionFixture(f, []models.SnapshotItem{
		{ProductID: "old-id", Name: "Renamed Widget", Price: 4, Quantity: 1},
	}, "cust-1")
	f.publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	assert.NoError(t, f.service.HandleCheckoutCompleted(completion))

	orders, err := f.orderRepo.GetByCustomerID("cust-1")
	assert.NoError(t, err)
	assert.Len(t, orders, 1)
	assert.Equal(t, "", orders[0].Items[0].ProductID)
	assert.Equal(t, "Renamed Widget", orders[0].Items[0].Name)
}

// Redelivered events create duplicate orders: the flow keeps no dedup ledger,
// so at-least-once delivery is visible downstream. Undesirable, but the
// documented behavior.
func TestCheckoutService_HandleCheckoutCompleted_RedeliveryDuplicatesOrder(t *testing.T) {
	f := newCheckoutFixture()

	widget := &models.Product{Name: "Widget", Price: 9.5}
	assert.NoError(t, f.productRepo.Create(widget))

	completion := completionFixture(f, []models.SnapshotItem{
		{ProductID: widget.ID, Name: "Widget", Price: 9.5, Quantity: 2},
	}, "cust-1")
	f.publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	assert.NoError(t, f.service.HandleCheckoutCompleted(completion))
	assert.NoError(t, f.service.HandleCheckoutCompleted(completion))

	orders, err := f.orderRepo.GetByCustomerID("cust-1")
	assert.NoError(t, err)
	assert.Len(t, orders, 2)
}

func TestCheckoutService_GetPaymentDetails(t *testing.T) {
	f := newCheckoutFixture()

	// No orders at all
	_, err := f.service.GetPaymentDetails("nobody")
	assert.True(t, errors.Is(err, services.ErrNoOrders))

	assert.NoError(t, f.orderRepo.Create(&models.Order{
		CustomerID:    "cust-1",
		TotalAmount:   19,
		PaymentStatus: "paid",
	}))
	assert.NoError(t, f.orderRepo.Create(&models.Order{
		CustomerID:    "cust-1",
		TotalAmount:   42,
		PaymentStatus: "paid",
		PaymentIntent: "pi_123",
	}))

	intent := &services.PaymentIntentDetails{
		ID:            "pi_123",
		Amount:        42,
		Currency:      "usd",
		Status:        "succeeded",
		Created:       time.Now(),
		PaymentMethod: "pm_1",
		Last4:         "4242",
	}
	f.provider.On("PaymentIntent", "pi_123").Return(intent, nil).Once()

	details, err := f.service.GetPaymentDetails("cust-1")
	assert.NoError(t, err)
	assert.Len(t, details, 2)
	assert.Nil(t, details[0].Details, "orders without an intent return partial records")
	assert.Equal(t, intent, details[1].Details)
	f.provider.AssertExpectations(t)
}
