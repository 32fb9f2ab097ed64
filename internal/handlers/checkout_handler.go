package handlers

import (
	"errors"
	"log"

	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CheckoutHandler handles checkout-session creation, the payment webhook, and
// payment-detail lookup.
type CheckoutHandler struct {
	service  *services.CheckoutService
	provider services.PaymentProvider
	validate *validator.Validate
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(service *services.CheckoutService, provider services.PaymentProvider) *CheckoutHandler {
	return &CheckoutHandler{
		service:  service,
		provider: provider,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the checkout routes with the Fiber app.
func (h *CheckoutHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/create-checkout-session", h.HandleCreateSession)
	router.Get("/payment-details/:customerId", h.HandleGetPaymentDetails)
}

// RegisterWebhook registers the payment webhook receiver. It lives outside
// the API group because the payment processor calls it directly.
func (h *CheckoutHandler) RegisterWebhook(router fiber.Router) {
	router.Post("/webhook", h.HandleWebhook)
}

// CreateSessionRequest represents the request body for checkout-session
// creation.
type CreateSessionRequest struct {
	CustomerID string `json:"customerId" validate:"required"`
}

// HandleCreateSession validates the cart and responds with the hosted payment
// session's redirect URL.
func (h *CheckoutHandler) HandleCreateSession(c *fiber.Ctx) error {
	var req CreateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing checkout request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "customerId is required",
			"error":   err.Error(),
		})
	}

	url, err := h.service.CreateSession(req.CustomerID)
	if err != nil {
		log.Printf("Error creating checkout session for customer %s: %v", req.CustomerID, err)
		switch {
		case errors.Is(err, repositories.ErrCartNotFound):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Cart not found",
			})
		case errors.Is(err, services.ErrNoValidItems):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "No valid items in cart",
			})
		case errors.Is(err, services.ErrPaymentProvider):
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"message": "Failed to create checkout session",
				"details": err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to create checkout session",
			"details": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"url": url})
}

// HandleWebhook consumes the payment processor's asynchronous notifications.
// The raw body is verified against the signature header before anything else;
// a verification failure gets a client error and mutates nothing. After
// verification the handler always acknowledges with 200 — internal processing
// failures are logged rather than reported, so the provider does not hammer
// the endpoint with redeliveries.
func (h *CheckoutHandler) HandleWebhook(c *fiber.Ctx) error {
	event, err := h.provider.VerifyWebhook(c.Body(), c.Get("Stripe-Signature"))
	if err != nil {
		log.Printf("Webhook signature verification failed: %v", err)
		return c.SendStatus(fiber.StatusBadRequest)
	}

	if event.Type == services.EventCheckoutCompleted && event.Completion != nil {
		if err := h.service.HandleCheckoutCompleted(event.Completion); err != nil {
			log.Printf("Error processing webhook: %v", err)
		}
	}
	return c.SendStatus(fiber.StatusOK)
}

// HandleGetPaymentDetails merges each of the customer's orders with live
// payment-intent state.
func (h *CheckoutHandler) HandleGetPaymentDetails(c *fiber.Ctx) error {
	customerID := c.Params("customerId")
	if customerID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "customerId is required",
		})
	}

	details, err := h.service.GetPaymentDetails(customerID)
	if err != nil {
		log.Printf("Error fetching payment details for customer %s: %v", customerID, err)
		switch {
		case errors.Is(err, services.ErrNoOrders):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "No orders found for this customer",
			})
		case errors.Is(err, services.ErrPaymentProvider):
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"message": "Could not retrieve payment details",
				"details": err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve payment details",
			"error":   err.Error(),
		})
	}
	return c.JSON(details)
}
