package repositories

import (
	"storefront/internal/models"
)

// ProductQuery describes one catalog page request: a sort column, an optional
// case-insensitive search term and a pagination window. It is built by the
// product service and interpreted by the store implementation.
type ProductQuery struct {
	OrderBy    string // column name, restricted to "price" or "created_at"
	Desc       bool
	SearchTerm string
	Limit      int
	Offset     int
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	// FindPage returns one window of products matching the query plus the
	// total matching count ignoring the window.
	FindPage(query ProductQuery) ([]models.Product, int64, error)
	GetByID(id uint) (*models.Product, error)
	GetBySlug(slug string) (*models.Product, error)
	FindByCategorySlug(categorySlug string) ([]models.Product, error)
	// FindSimilar returns products sharing the category of the given product,
	// excluding the product itself, newest first.
	FindSimilar(id uint) ([]models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id uint) error
}
