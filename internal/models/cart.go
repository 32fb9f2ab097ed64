package models

import "time"

// CartItem is a single product reference inside a cart. The Product field is
// resolved at read time and never persisted; items whose reference no longer
// resolves are pruned lazily on read and update.
type CartItem struct {
	ID        uint     `json:"-" gorm:"primaryKey;autoIncrement"`
	CartID    string   `json:"-" gorm:"index;type:varchar(36)"`
	ProductID string   `json:"product_id" gorm:"type:varchar(36)"`
	Quantity  int      `json:"quantity"`
	Product   *Product `json:"product,omitempty" gorm:"-"`
}

// Cart is the per-customer collection of items awaiting checkout.
// At most one cart exists per customer.
type Cart struct {
	ID         string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CustomerID string     `json:"customer_id" gorm:"uniqueIndex;type:varchar(100)"`
	Items      []CartItem `json:"items" gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
