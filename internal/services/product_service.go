package services

import (
	"strings"

	"storefront/internal/models"
	"storefront/internal/pagination"
	"storefront/internal/repositories"
)

// defaultPerPage is the catalog page size when the client does not ask for one.
const defaultPerPage = 30

// GetAllProductsQuery carries the raw catalog query parameters. Page and
// PerPage stay strings so malformed values degrade to defaults instead of
// failing the request.
type GetAllProductsQuery struct {
	Sort       models.ProductSort
	SearchTerm string
	Page       string
	PerPage    string
}

// ProductService handles business logic related to the catalog.
type ProductService struct {
	repo repositories.ProductRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository) *ProductService {
	return &ProductService{
		repo: repo,
	}
}

// GetAll returns one catalog page plus the total matching the filter.
func (s *ProductService) GetAll(query GetAllProductsQuery) (*models.ProductList, error) {
	limit, offset := pagination.Paginate(query.Page, query.PerPage, defaultPerPage)

	productQuery := repositories.ProductQuery{
		SearchTerm: query.SearchTerm,
		Limit:      limit,
		Offset:     offset,
	}

	// The sort mapping is total: anything unrecognized (including an absent
	// sort) falls through to newest-first rather than erroring.
	switch query.Sort {
	case models.SortLowPrice:
		productQuery.OrderBy, productQuery.Desc = "price", false
	case models.SortHighPrice:
		productQuery.OrderBy, productQuery.Desc = "price", true
	case models.SortOldest:
		productQuery.OrderBy, productQuery.Desc = "created_at", false
	default:
		productQuery.OrderBy, productQuery.Desc = "created_at", true
	}

	products, total, err := s.repo.FindPage(productQuery)
	if err != nil {
		return nil, err
	}
	return &models.ProductList{Products: products, Length: total}, nil
}

// ByID retrieves a single product by its ID.
func (s *ProductService) ByID(id uint) (*models.Product, error) {
	return s.repo.GetByID(id)
}

// BySlug retrieves a single product by its unique slug.
func (s *ProductService) BySlug(slug string) (*models.Product, error) {
	return s.repo.GetBySlug(slug)
}

// ByCategorySlug retrieves all products in the given category.
func (s *ProductService) ByCategorySlug(categorySlug string) ([]models.Product, error) {
	return s.repo.FindByCategorySlug(categorySlug)
}

// Similar retrieves products from the same category as the given product.
func (s *ProductService) Similar(id uint) ([]models.Product, error) {
	return s.repo.FindSimilar(id)
}

// Create creates a new product, deriving its slug from the name.
func (s *ProductService) Create(product *models.Product) error {
	product.Slug = generateSlug(product.Name)
	return s.repo.Create(product)
}

// Update updates an existing product, re-deriving the slug so it always
// matches the current name.
func (s *ProductService) Update(product *models.Product) error {
	product.Slug = generateSlug(product.Name)
	return s.repo.Update(product)
}

// Delete deletes a product by its ID.
func (s *ProductService) Delete(id uint) error {
	return s.repo.Delete(id)
}

// generateSlug derives the URL-safe slug from a product name: lowercase,
// alphanumeric runs joined by single dashes.
func generateSlug(name string) string {
	var b strings.Builder
	lastDash := true // swallow leading separators
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
