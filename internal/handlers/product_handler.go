package handlers

import (
	"errors"
	"log"
	"strconv"

	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for the product catalog.
type ProductHandler struct {
	service  *services.ProductService
	validate *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the public catalog routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	products := router.Group("/products")
	products.Get("/", h.HandleGetProducts)
	products.Get("/by-slug/:slug", h.HandleGetProductBySlug)
	products.Get("/by-category/:categorySlug", h.HandleGetProductsByCategory)
	products.Get("/similar/:id", h.HandleGetSimilarProducts)
	products.Get("/:id", h.HandleGetProductByID)
}

// RegisterAdminRoutes registers the catalog management routes. The caller is
// responsible for guarding the router with auth and admin middleware.
func (h *ProductHandler) RegisterAdminRoutes(router fiber.Router) {
	products := router.Group("/products")
	products.Post("/", h.HandleCreateProduct)
	products.Put("/:id", h.HandleUpdateProduct)
	products.Delete("/:id", h.HandleDeleteProduct)
}

// HandleGetProducts serves the filtered, sorted, paginated catalog page.
// Unrecognized sort or pagination values degrade to defaults, never error.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	list, err := h.service.GetAll(services.GetAllProductsQuery{
		Sort:       models.ProductSort(c.Query("sort")),
		SearchTerm: c.Query("searchTerm"),
		Page:       c.Query("page"),
		PerPage:    c.Query("perPage"),
	})
	if err != nil {
		log.Printf("Error querying products: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve products",
		})
	}
	return c.JSON(list)
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid product id",
		})
	}

	product, err := h.service.ByID(id)
	if err != nil {
		return h.productError(c, err)
	}
	return c.JSON(product)
}

// HandleGetProductBySlug retrieves a single product by its unique slug.
func (h *ProductHandler) HandleGetProductBySlug(c *fiber.Ctx) error {
	product, err := h.service.BySlug(c.Params("slug"))
	if err != nil {
		return h.productError(c, err)
	}
	return c.JSON(product)
}

// HandleGetProductsByCategory retrieves all products of a category.
func (h *ProductHandler) HandleGetProductsByCategory(c *fiber.Ctx) error {
	products, err := h.service.ByCategorySlug(c.Params("categorySlug"))
	if err != nil {
		return h.productError(c, err)
	}
	return c.JSON(products)
}

// HandleGetSimilarProducts retrieves products similar to the given one.
func (h *ProductHandler) HandleGetSimilarProducts(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid product id",
		})
	}

	products, err := h.service.Similar(id)
	if err != nil {
		return h.productError(c, err)
	}
	return c.JSON(products)
}

// productRequest is the write payload for catalog management.
type productRequest struct {
	Name        string   `json:"name" validate:"required,min=3,max=100"`
	Description string   `json:"description" validate:"omitempty,max=500"`
	Price       int      `json:"price" validate:"gte=0"`
	Images      []string `json:"images"`
	CategoryID  uint     `json:"category_id" validate:"required"`
}

// HandleCreateProduct creates a new product.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}

	product := models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Images:      req.Images,
		CategoryID:  req.CategoryID,
	}
	if err := h.service.Create(&product); err != nil {
		log.Printf("Error creating product: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not create product",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct updates an existing product.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid product id",
		})
	}

	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}

	product, err := h.service.ByID(id)
	if err != nil {
		return h.productError(c, err)
	}
	product.Name = req.Name
	product.Description = req.Description
	product.Price = req.Price
	product.Images = req.Images
	product.CategoryID = req.CategoryID

	if err := h.service.Update(product); err != nil {
		return h.productError(c, err)
	}
	return c.JSON(product)
}

// HandleDeleteProduct deletes a product by its ID.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid product id",
		})
	}

	if err := h.service.Delete(id); err != nil {
		return h.productError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Product deleted"})
}

func (h *ProductHandler) productError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, models.ErrProductNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Product not found",
		})
	case errors.Is(err, models.ErrCategoryNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Category not found",
		})
	default:
		log.Printf("Catalog error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not process catalog request",
		})
	}
}

// parseID parses a numeric path parameter.
func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
