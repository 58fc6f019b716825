package repositories

import (
	"storefront/internal/models"
)

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	GetAll() ([]models.Order, error)
	GetByUserID(userID uint) ([]models.Order, error)
	GetByID(id uint) (*models.Order, error)
	// Create persists the order and its items as a single atomic unit: either
	// everything is written or nothing is.
	Create(order *models.Order) error
	// UpdateStatusIf moves the order from one status to another only when its
	// current status matches. It reports whether a row was changed, so
	// replayed transitions out of a terminal status come back false instead
	// of overwriting.
	UpdateStatusIf(id uint, from, to models.OrderStatus) (bool, error)
}
