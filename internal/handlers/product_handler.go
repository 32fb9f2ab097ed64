package handlers

import (
	"errors"
	"log"
	"strconv"

	"storefront/internal/models"
	"storefront/internal/services"
	"storefront/pkg/storage"

	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for the catalog.
type ProductHandler struct {
	service *services.ProductService
	images  storage.ImageStore
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, images storage.ImageStore) *ProductHandler {
	return &ProductHandler{
		service: service,
		images:  images,
	}
}

// RegisterRoutes registers the public catalog routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/products", h.HandleGetProducts)
}

// RegisterProtectedRoutes registers catalog routes that require a valid token:
// product creation and the back-office products-with-orders view.
func (h *ProductHandler) RegisterProtectedRoutes(router fiber.Router) {
	router.Post("/products", h.HandleCreateProduct)
	router.Get("/products-with-orders", h.HandleGetProductsWithOrders)
}

// HandleCreateProduct creates a product from a multipart form. Name and price
// are required; description and an image file are optional. The response
// includes a fully-qualified image URL when an image was supplied.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	name := c.FormValue("name")
	priceStr := c.FormValue("price")
	if name == "" || priceStr == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Name and price are required",
		})
	}
	price, err := strconv.ParseFloat(priceStr, 64)
	if err != nil || price < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Price must be a non-negative number",
		})
	}

	imageURL := ""
	if file, err := c.FormFile("image"); err == nil && file != nil {
		imageURL, err = h.images.Save(file)
		if err != nil {
			log.Printf("Error storing product image: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Could not store product image",
				"error":   err.Error(),
			})
		}
	}

	product := models.Product{
		Name:        name,
		Description: c.FormValue("description"),
		Price:       price,
		Image:       imageURL,
	}
	if err := h.service.CreateProduct(&product); err != nil {
		log.Printf("Error creating product: %v", err)
		if errors.Is(err, services.ErrInvalidProduct) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Invalid product",
				"error":   err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not create product",
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleGetProducts retrieves all products.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts()
	if err != nil {
		log.Printf("Error getting all products: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve products",
			"error":   err.Error(),
		})
	}
	return c.JSON(products)
}

// HandleGetProductsWithOrders retrieves all products annotated with the
// orders referencing them.
func (h *ProductHandler) HandleGetProductsWithOrders(c *fiber.Ctx) error {
	annotated, err := h.service.GetProductsWithOrders()
	if err != nil {
		log.Printf("Error getting products with orders: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve products with orders",
			"error":   err.Error(),
		})
	}
	return c.JSON(annotated)
}
