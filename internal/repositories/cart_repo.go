package repositories

import (
	"storefront/internal/models"
)

// CartRepository defines the interface for cart data access. Save replaces
// the stored item set wholesale: the cart service prunes and rewrites items
// on read and update, so partial item updates are never needed.
type CartRepository interface {
	GetByCustomerID(customerID string) (*models.Cart, error)
	Save(cart *models.Cart) error
	DeleteByCustomerID(customerID string) error
}
