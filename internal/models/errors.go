package models

import "errors"

var (
	// Order placement validation.
	ErrEmptyOrder       = errors.New("order must contain at least one item")
	ErrInvalidQuantity  = errors.New("item quantity must be greater than zero")
	ErrInvalidItemPrice = errors.New("item price must be non-negative")

	ErrOrderNotFound    = errors.New("order not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrUserNotFound     = errors.New("user not found")

	// ErrPaymentReference is returned when a provider event's description does
	// not carry a numeric order reference after the '#' delimiter.
	ErrPaymentReference = errors.New("payment description does not reference an order")
)
