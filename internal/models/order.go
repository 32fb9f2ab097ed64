package models

import "time"

// OrderStatusProcessing is the initial status of every order created from a
// completed checkout. No further transition happens in the checkout flow.
const OrderStatusProcessing = "PROCESSING"

// OrderItem is a line item captured by value at checkout time, so later
// catalog changes don't affect historical orders. ProductID is a best-effort
// back-reference and may be empty when the product no longer resolves.
type OrderItem struct {
	ID        uint    `json:"-" gorm:"primaryKey;autoIncrement"`
	OrderID   string  `json:"-" gorm:"index;type:varchar(36)"`
	ProductID string  `json:"product_id" gorm:"type:varchar(36)"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"` // Price at the time of checkout
	Quantity  int     `json:"quantity"`
	Image     string  `json:"image"`
}

// Order is the durable record of a completed purchase, created exactly once
// per checkout-completion webhook event.
type Order struct {
	ID            string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CustomerID    string      `json:"customer_id" gorm:"index;type:varchar(100)"`
	Items         []OrderItem `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	PaymentStatus string      `json:"payment_status"`
	PaymentIntent string      `json:"payment_intent"`
	TotalAmount   float64     `json:"total_amount"`
	Status        string      `json:"status"`
	CreatedAt     time.Time   `json:"created_at"`
}
