package services

import "errors"

// Service-level sentinels. Repository not-found sentinels
// (repositories.Err*NotFound) pass through wrapped, so handlers can map the
// whole taxonomy with errors.Is.
var (
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
	ErrInvalidProduct  = errors.New("product name and a non-negative price are required")
	ErrItemNotFound    = errors.New("item not found in cart")
	ErrNoValidItems    = errors.New("no valid items in cart")
	ErrNoOrders        = errors.New("no orders found for this customer")
	ErrPaymentProvider = errors.New("payment provider request failed")
)
