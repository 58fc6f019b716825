package repositories

import (
	"sort"
	"strings"
	"sync"
	"time"

	"storefront/internal/models"
)

// MockProductRepository is an in-memory implementation of ProductRepository.
// It honors the full ProductQuery contract (filter, sort, window, total) so
// tests can exercise catalog behavior without a database.
type MockProductRepository struct {
	products map[uint]models.Product
	nextID   uint
	mu       sync.RWMutex
}

// NewMockProductRepository creates a new instance of MockProductRepository.
func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		products: make(map[uint]models.Product),
		nextID:   1,
	}
}

// FindPage filters, sorts and windows the in-memory set the same way the
// GORM implementation does against the database.
func (r *MockProductRepository) FindPage(query ProductQuery) ([]models.Product, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []models.Product
	for _, product := range r.products {
		if matchesTerm(product, query.SearchTerm) {
			matched = append(matched, product)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		var less bool
		switch query.OrderBy {
		case "price":
			if matched[i].Price == matched[j].Price {
				less = matched[i].ID < matched[j].ID
			} else {
				less = matched[i].Price < matched[j].Price
			}
		default: // created_at
			if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
				less = matched[i].ID < matched[j].ID
			} else {
				less = matched[i].CreatedAt.Before(matched[j].CreatedAt)
			}
		}
		if query.Desc {
			return !less
		}
		return less
	})

	total := int64(len(matched))
	start := query.Offset
	if start > len(matched) {
		start = len(matched)
	}
	end := start + query.Limit
	if query.Limit <= 0 || end > len(matched) {
		end = len(matched)
	}
	page := make([]models.Product, end-start)
	copy(page, matched[start:end])
	return page, total, nil
}

func matchesTerm(product models.Product, term string) bool {
	if term == "" {
		return true
	}
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(product.Name), term) ||
		strings.Contains(strings.ToLower(product.Description), term) ||
		strings.Contains(strings.ToLower(product.Category.Name), term)
}

// GetByID returns a product by its ID.
func (r *MockProductRepository) GetByID(id uint) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, models.ErrProductNotFound
	}
	return &product, nil
}

// GetBySlug returns a product by its unique slug.
func (r *MockProductRepository) GetBySlug(slug string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, product := range r.products {
		if product.Slug == slug {
			p := product
			return &p, nil
		}
	}
	return nil, models.ErrProductNotFound
}

// FindByCategorySlug returns all products in the category, newest first.
func (r *MockProductRepository) FindByCategorySlug(categorySlug string) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []models.Product
	for _, product := range r.products {
		if product.Category.Slug == categorySlug {
			matched = append(matched, product)
		}
	}
	if len(matched) == 0 {
		return nil, models.ErrCategoryNotFound
	}
	sortProductsNewestFirst(matched)
	return matched, nil
}

// FindSimilar returns products sharing the category of the given product,
// excluding the product itself, newest first.
func (r *MockProductRepository) FindSimilar(id uint) ([]models.Product, error) {
	current, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []models.Product
	for _, product := range r.products {
		if product.ID != current.ID && product.CategoryID == current.CategoryID {
			matched = append(matched, product)
		}
	}
	sortProductsNewestFirst(matched)
	return matched, nil
}

// Create adds a new product.
func (r *MockProductRepository) Create(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == 0 {
		product.ID = r.nextID
		r.nextID++
	} else if product.ID >= r.nextID {
		r.nextID = product.ID + 1
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now()
	}
	product.UpdatedAt = time.Now()
	r.products[product.ID] = *product
	return nil
}

// Update replaces an existing product.
func (r *MockProductRepository) Update(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[product.ID]; !ok {
		return models.ErrProductNotFound
	}
	product.UpdatedAt = time.Now()
	r.products[product.ID] = *product
	return nil
}

// Delete removes a product by its ID.
func (r *MockProductRepository) Delete(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return models.ErrProductNotFound
	}
	delete(r.products, id)
	return nil
}

func sortProductsNewestFirst(products []models.Product) {
	sort.Slice(products, func(i, j int) bool {
		if products[i].CreatedAt.Equal(products[j].CreatedAt) {
			return products[i].ID > products[j].ID
		}
		return products[i].CreatedAt.After(products[j].CreatedAt)
	})
}
