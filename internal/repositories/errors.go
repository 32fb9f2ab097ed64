package repositories

import "errors"

// Not-found sentinels shared by all repository implementations so callers can
// branch with errors.Is instead of matching message strings.
var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCartNotFound     = errors.New("cart not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrCustomerNotFound = errors.New("customer not found")
)
