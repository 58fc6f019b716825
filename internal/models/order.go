package models

import "time"

// OrderStatus is the payment lifecycle state of an order. Transitions are
// monotonic: an order only ever leaves PENDING, and never leaves PAYED or
// CANCELLED.
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusPayed     OrderStatus = "PAYED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// Terminal reports whether no further transition is allowed out of s.
func (s OrderStatus) Terminal() bool {
	return s == StatusPayed || s == StatusCancelled
}

// OrderItem is a single line within an order. Price is the unit price
// captured at order time and does not follow later product price changes.
type OrderItem struct {
	ID        uint `json:"id" gorm:"primaryKey"`
	OrderID   uint `json:"order_id" gorm:"index"`
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
	Price     int  `json:"price"`
}

// Order represents a customer order. Total is computed once at creation time
// from the item snapshots and never recomputed.
type Order struct {
	ID        uint        `json:"id" gorm:"primaryKey"`
	UserID    uint        `json:"user_id" gorm:"index"`
	Items     []OrderItem `json:"items"`
	Total     int         `json:"total"`
	Status    OrderStatus `json:"status" gorm:"type:varchar(16)"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
