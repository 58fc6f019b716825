package repositories

import (
	"errors"
	"fmt"
	"strings"

	"storefront/internal/models"

	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// searchScope applies the case-insensitive OR filter over product name,
// product description and category name. An empty term leaves the query
// unfiltered.
func searchScope(term string) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		if term == "" {
			return tx
		}
		like := "%" + strings.ToLower(term) + "%"
		return tx.
			Joins("LEFT JOIN categories ON categories.id = products.category_id").
			Where(
				"LOWER(products.name) LIKE ? OR LOWER(products.description) LIKE ? OR LOWER(categories.name) LIKE ?",
				like, like, like,
			)
	}
}

// FindPage returns one window of products plus the total matching the filter.
// The count ignores the window so callers can compute page counts.
func (r *GORMProductRepository) FindPage(query ProductQuery) ([]models.Product, int64, error) {
	var total int64
	err := r.db.Model(&models.Product{}).
		Scopes(searchScope(query.SearchTerm)).
		Count(&total).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	direction := "ASC"
	if query.Desc {
		direction = "DESC"
	}

	// OrderBy is restricted to a column whitelist by the service layer, so
	// interpolating it here is safe.
	var products []models.Product
	err = r.db.Model(&models.Product{}).
		Scopes(searchScope(query.SearchTerm)).
		Order(fmt.Sprintf("products.%s %s", query.OrderBy, direction)).
		Limit(query.Limit).
		Offset(query.Offset).
		Preload("Category").
		Find(&products).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query products: %w", err)
	}
	return products, total, nil
}

// GetByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) GetByID(id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.Preload("Category").First(&product, "products.id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product by ID %d: %w", id, err)
	}
	return &product, nil
}

// GetBySlug retrieves a single product by its unique slug.
func (r *GORMProductRepository) GetBySlug(slug string) (*models.Product, error) {
	var product models.Product
	if err := r.db.Preload("Category").First(&product, "products.slug = ?", slug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product by slug %s: %w", slug, err)
	}
	return &product, nil
}

// FindByCategorySlug retrieves all products in the category with the given
// slug, newest first.
func (r *GORMProductRepository) FindByCategorySlug(categorySlug string) ([]models.Product, error) {
	var category models.Category
	if err := r.db.First(&category, "slug = ?", categorySlug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category by slug %s: %w", categorySlug, err)
	}

	var products []models.Product
	err := r.db.Where("category_id = ?", category.ID).
		Order("created_at DESC").
		Preload("Category").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get products for category %s: %w", categorySlug, err)
	}
	return products, nil
}

// FindSimilar retrieves products sharing the category of the given product,
// excluding the product itself, newest first.
func (r *GORMProductRepository) FindSimilar(id uint) ([]models.Product, error) {
	current, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}

	var products []models.Product
	err = r.db.Where("category_id = ? AND id <> ?", current.CategoryID, current.ID).
		Order("created_at DESC").
		Preload("Category").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get similar products for %d: %w", id, err)
	}
	return products, nil
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(product *models.Product) error {
	if err := r.db.Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update updates an existing product in the database.
func (r *GORMProductRepository) Update(product *models.Product) error {
	res := r.db.Save(product) // Save will update all fields, including zero values
	if res.Error != nil {
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrProductNotFound
	}
	return nil
}

// Delete deletes a product by its ID from the database.
func (r *GORMProductRepository) Delete(id uint) error {
	res := r.db.Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrProductNotFound
	}
	return nil
}
