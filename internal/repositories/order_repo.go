package repositories

import (
	"storefront/internal/models"
)

// OrderRepository defines the interface for order data access. Orders are
// never mutated after creation in the checkout flow, so no update method.
type OrderRepository interface {
	GetAll() ([]models.Order, error)
	GetByCustomerID(customerID string) ([]models.Order, error)
	Create(order *models.Order) error
}
