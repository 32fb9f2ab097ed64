package handlers

import (
	"errors"
	"fmt"
	"log"

	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CartHandler handles HTTP requests for the shopping cart.
type CartHandler struct {
	service  *services.CartService
	validate *validator.Validate
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService) *CartHandler {
	return &CartHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the cart routes with the Fiber app.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart")
	cartRoutes.Post("/add", h.HandleAddItem)
	cartRoutes.Post("/update", h.HandleUpdateItem)
	cartRoutes.Get("/:customerId", h.HandleGetCart)
}

// AddItemRequest represents the request body for adding a cart item.
// Quantity is a whole unit count; fractional values fail body parsing.
type AddItemRequest struct {
	CustomerID string `json:"customerId" validate:"required"`
	ProductID  string `json:"productId" validate:"required"`
	Quantity   int    `json:"quantity" validate:"required,gt=0"`
}

// UpdateItemRequest represents the request body for updating a cart item.
// Quantity is absolute; zero or negative removes the item.
type UpdateItemRequest struct {
	CustomerID string `json:"customerId" validate:"required"`
	ProductID  string `json:"productId" validate:"required"`
	Quantity   int    `json:"quantity"`
}

// HandleAddItem adds a quantity of a product to the customer's cart.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var req AddItemRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing add-to-cart request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "customerId, productId, and a positive quantity are required",
			"error":   err.Error(),
		})
	}

	cart, err := h.service.AddItem(req.CustomerID, req.ProductID, req.Quantity)
	if err != nil {
		log.Printf("Error adding to cart for customer %s: %v", req.CustomerID, err)
		switch {
		case errors.Is(err, repositories.ErrProductNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Product not found",
			})
		case errors.Is(err, services.ErrInvalidQuantity):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not add item to cart",
			"error":   err.Error(),
		})
	}
	return c.JSON(cart)
}

// HandleUpdateItem sets the absolute quantity of an item already in the cart.
func (h *CartHandler) HandleUpdateItem(c *fiber.Ctx) error {
	var req UpdateItemRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing cart update request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "customerId and productId are required",
			"error":   err.Error(),
		})
	}

	cart, err := h.service.UpdateItem(req.CustomerID, req.ProductID, req.Quantity)
	if err != nil {
		log.Printf("Error updating cart for customer %s: %v", req.CustomerID, err)
		switch {
		case errors.Is(err, repositories.ErrCartNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Cart not found",
			})
		case errors.Is(err, services.ErrItemNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Item not found in cart",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to update cart",
			"details": err.Error(),
		})
	}
	return c.JSON(cart)
}

// HandleGetCart returns the customer's cart. A customer without a stored cart
// gets an empty cart shape, not an error.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	customerID := c.Params("customerId")
	if customerID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "customerId is required",
		})
	}

	cart, err := h.service.GetCart(customerID)
	if err != nil {
		log.Printf("Error fetching cart for customer %s: %v", customerID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": fmt.Sprintf("Could not retrieve cart for customer %s", customerID),
			"error":   err.Error(),
		})
	}
	return c.JSON(cart)
}
