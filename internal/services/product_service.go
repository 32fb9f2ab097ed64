package services

import (
	"fmt"
	"strings"
	"time"

	"storefront/internal/models"
	"storefront/internal/repositories"
)

// ProductService handles business logic related to the catalog.
type ProductService struct {
	productRepo repositories.ProductRepository
	orderRepo   repositories.OrderRepository
}

// NewProductService creates a new ProductService.
func NewProductService(productRepo repositories.ProductRepository, orderRepo repositories.OrderRepository) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		orderRepo:   orderRepo,
	}
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts() ([]models.Product, error) {
	return s.productRepo.GetAll()
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	return s.productRepo.GetByID(id)
}

// CreateProduct creates a new catalog product. A non-empty name and a
// non-negative price are required.
func (s *ProductService) CreateProduct(product *models.Product) error {
	if strings.TrimSpace(product.Name) == "" || product.Price < 0 {
		return fmt.Errorf("product %q with price %.2f: %w", product.Name, product.Price, ErrInvalidProduct)
	}
	return s.productRepo.Create(product)
}

// DeleteProduct deletes a product by its ID. Carts referencing it are pruned
// lazily on their next read or mutation.
func (s *ProductService) DeleteProduct(id string) error {
	return s.productRepo.Delete(id)
}

// OrderSummary is one order of a product in the products-with-orders view,
// trimmed to the line items that reference that product.
type OrderSummary struct {
	OrderID       string             `json:"orderId"`
	CustomerID    string             `json:"customerId"`
	PaymentStatus string             `json:"payment_status"`
	TotalAmount   float64            `json:"totalAmount"`
	OrderedItems  []models.OrderItem `json:"orderedItems"`
	CreatedAt     time.Time          `json:"createdAt"`
}

// ProductWithOrders pairs a product with every order that references it.
type ProductWithOrders struct {
	models.Product
	Orders []OrderSummary `json:"orders"`
}

// GetProductsWithOrders returns all products annotated with the orders whose
// line items reference them.
func (s *ProductService) GetProductsWithOrders() ([]ProductWithOrders, error) {
	products, err := s.productRepo.GetAll()
	if err != nil {
		return nil, err
	}
	orders, err := s.orderRepo.GetAll()
	if err != nil {
		return nil, err
	}

	result := make([]ProductWithOrders, 0, len(products))
	for _, product := range products {
		annotated := ProductWithOrders{Product: product, Orders: []OrderSummary{}}
		for _, order := range orders {
			var matched []models.OrderItem
			for _, item := range order.Items {
				if item.ProductID == product.ID {
					matched = append(matched, item)
				}
			}
			if len(matched) == 0 {
				continue
			}
			annotated.Orders = append(annotated.Orders, OrderSummary{
				OrderID:       order.ID,
				CustomerID:    order.CustomerID,
				PaymentStatus: order.PaymentStatus,
				TotalAmount:   order.TotalAmount,
				OrderedItems:  matched,
				CreatedAt:     order.CreatedAt,
			})
		}
		result = append(result, annotated)
	}
	return result, nil
}
