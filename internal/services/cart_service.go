package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"storefront/internal/models"
	"storefront/internal/repositories"
)

// CartService handles business logic for the per-customer shopping cart.
type CartService struct {
	cartRepo    repositories.CartRepository
	productRepo repositories.ProductRepository
}

// NewCartService creates a new CartService.
func NewCartService(cartRepo repositories.CartRepository, productRepo repositories.ProductRepository) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// AddItem adds quantity units of a product to the customer's cart, creating
// the cart on first use. Adding a product already in the cart increments its
// quantity instead of duplicating the item. Returns the cart with product
// references resolved.
func (s *CartService) AddItem(customerID, productID string, quantity int) (*models.Cart, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity %d: %w", quantity, ErrInvalidQuantity)
	}

	if _, err := s.productRepo.GetByID(productID); err != nil {
		return nil, err
	}

	cart, err := s.cartRepo.GetByCustomerID(customerID)
	if err != nil {
		if !errors.Is(err, repositories.ErrCartNotFound) {
			return nil, err
		}
		cart = &models.Cart{CustomerID: customerID, Items: []models.CartItem{}}
	}

	found := false
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items[i].Quantity += quantity
			found = true
			break
		}
	}
	if !found {
		cart.Items = append(cart.Items, models.CartItem{ProductID: productID, Quantity: quantity})
	}

	cart.UpdatedAt = time.Now()
	return s.persistResolved(cart)
}

// UpdateItem sets the absolute quantity of a product already in the cart.
// A quantity of zero or less removes the item entirely.
func (s *CartService) UpdateItem(customerID, productID string, quantity int) (*models.Cart, error) {
	cart, err := s.cartRepo.GetByCustomerID(customerID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, fmt.Errorf("product %s in cart of customer %s: %w", productID, customerID, ErrItemNotFound)
	}

	if quantity <= 0 {
		cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	} else {
		cart.Items[idx].Quantity = quantity
	}

	cart.UpdatedAt = time.Now()
	return s.persistResolved(cart)
}

// GetCart returns the customer's cart with product references resolved and
// dangling references pruned. A customer without a stored cart gets an empty
// cart shape, not an error.
func (s *CartService) GetCart(customerID string) (*models.Cart, error) {
	cart, err := s.cartRepo.GetByCustomerID(customerID)
	if err != nil {
		if errors.Is(err, repositories.ErrCartNotFound) {
			return &models.Cart{CustomerID: customerID, Items: []models.CartItem{}}, nil
		}
		return nil, err
	}

	resolved, pruned, err := s.resolveItems(cart)
	if err != nil {
		return nil, err
	}
	cart.Items = resolved
	if pruned {
		if err := s.cartRepo.Save(cart); err != nil {
			return nil, err
		}
	}
	return cart, nil
}

// persistResolved resolves the cart's product references, drops any that no
// longer exist, and persists the pruned result. Pruning happens here on every
// mutation rather than eagerly on product deletion.
func (s *CartService) persistResolved(cart *models.Cart) (*models.Cart, error) {
	resolved, _, err := s.resolveItems(cart)
	if err != nil {
		return nil, err
	}
	cart.Items = resolved
	if err := s.cartRepo.Save(cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// resolveItems resolves each item's product reference, returning the kept
// items and whether any dangling reference was dropped.
func (s *CartService) resolveItems(cart *models.Cart) ([]models.CartItem, bool, error) {
	kept := make([]models.CartItem, 0, len(cart.Items))
	pruned := false
	for _, item := range cart.Items {
		product, err := s.productRepo.GetByID(item.ProductID)
		if err != nil {
			if errors.Is(err, repositories.ErrProductNotFound) {
				log.Printf("Pruning dangling cart item %s for customer %s", item.ProductID, cart.CustomerID)
				pruned = true
				continue
			}
			return nil, false, err
		}
		item.Product = product
		kept = append(kept, item)
	}
	return kept, pruned, nil
}
