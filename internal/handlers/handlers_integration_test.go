package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// fakePublisher records published routing keys.
type fakePublisher struct {
	mu   sync.Mutex
	keys []string
}

func (p *fakePublisher) Publish(routingKey string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, routingKey)
	return nil
}

func (p *fakePublisher) count(routingKey string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, key := range p.keys {
		if key == routingKey {
			n++
		}
	}
	return n
}

// fakeProvider returns canned payments and records captures.
type fakeProvider struct {
	mu       sync.Mutex
	captured []string
}

func (p *fakeProvider) CreatePayment(amount int, description, returnURL string) (*models.Payment, error) {
	return &models.Payment{
		ID:          "pay-test",
		Status:      "pending",
		Amount:      models.PaymentAmount{Value: fmt.Sprintf("%d.00", amount), Currency: "USD"},
		Description: description,
		Confirmation: models.PaymentConfirmation{
			Type:            "redirect",
			ConfirmationURL: "https://provider.test/confirm/pay-test",
		},
	}, nil
}

func (p *fakeProvider) CapturePayment(paymentID string) (*models.Payment, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.captured = append(p.captured, paymentID)
	return &models.Payment{ID: paymentID, Status: "succeeded", Paid: true}, nil
}

// setupApp wires a Fiber app against in-memory SQLite with fake broker and
// payment provider, mirroring the production wiring in main.
func setupApp(t *testing.T) (*fiber.App, *gorm.DB, *fakePublisher, *fakeProvider) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(
		&models.Category{},
		&models.Product{},
		&models.User{},
		&models.Order{},
		&models.OrderItem{},
	))

	publisher := &fakePublisher{}
	provider := &fakeProvider{}

	productRepo := repositories.NewGORMProductRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)

	productService := services.NewProductService(productRepo)
	orderService := services.NewOrderService(orderRepo, provider, publisher)
	paymentService := services.NewPaymentService(orderRepo, provider, publisher)
	authService := services.NewAuthService(userRepo, "test_jwt_secret")

	productHandler := handlers.NewProductHandler(productService)
	orderHandler := handlers.NewOrderHandler(orderService, paymentService, "http://localhost:3000/thanks")
	authHandler := handlers.NewAuthHandler(authService)

	app := fiber.New()
	apiV1 := app.Group("/api/v1")

	authHandler.RegisterRoutes(apiV1)
	productHandler.RegisterRoutes(apiV1)

	authRequired := middleware.AuthRequired(authService)
	adminRequired := middleware.AdminRequired()
	productHandler.RegisterAdminRoutes(apiV1.Group("", authRequired, adminRequired))
	orderHandler.RegisterRoutes(apiV1, authRequired, adminRequired)

	seedCatalogForTest(t, db)

	return app, db, publisher, provider
}

func seedCatalogForTest(t *testing.T, db *gorm.DB) {
	t.Helper()

	shoes := models.Category{Name: "Shoes", Slug: "shoes"}
	electronics := models.Category{Name: "Electronics", Slug: "electronics"}
	assert.NoError(t, db.Create(&shoes).Error)
	assert.NoError(t, db.Create(&electronics).Error)

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	products := []models.Product{
		{Name: "Running Shoes", Slug: "running-shoes", Description: "Lightweight runners", Price: 90, CategoryID: shoes.ID, CreatedAt: base},
		{Name: "Leather Boots", Slug: "leather-boots", Description: "A sturdy shoe for winter", Price: 150, CategoryID: shoes.ID, CreatedAt: base.Add(time.Hour)},
		{Name: "Laptop", Slug: "laptop", Description: "High performance", Price: 1200, CategoryID: electronics.ID, CreatedAt: base.Add(2 * time.Hour)},
	}
	for i := range products {
		assert.NoError(t, db.Create(&products[i]).Error)
	}
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		assert.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	resp.Body.Close()
	return resp, raw
}

// registerAndLogin creates a user via the API and returns a bearer token.
func registerAndLogin(t *testing.T, app *fiber.App, email string) string {
	t.Helper()

	creds := map[string]string{"email": email, "password": "password123"}
	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", creds)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, raw := doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", creds)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var loginResp struct {
		Token string `json:"token"`
	}
	assert.NoError(t, json.Unmarshal(raw, &loginResp))
	assert.NotEmpty(t, loginResp.Token)
	return loginResp.Token
}

func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func TestCheckoutAndPaymentFlow(t *testing.T) {
	app, _, publisher, _ := setupApp(t)
	token := registerAndLogin(t, app, "buyer@example.com")

	// Place the order.
	resp, raw := doJSON(t, app, http.MethodPost, "/api/v1/orders", token, map[string]interface{}{
		"items": []map[string]interface{}{
			{"product_id": 1, "quantity": 2, "price": 500},
			{"product_id": 2, "quantity": 1, "price": 250},
		},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var order models.Order
	assert.NoError(t, json.Unmarshal(raw, &order))
	assert.Equal(t, 1250, order.Total)
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Len(t, order.Items, 2)
	assert.Equal(t, 1, publisher.count("order.created"))

	// Deliver the provider's succeeded event.
	event := map[string]interface{}{
		"event": "payment.succeeded",
		"object": map[string]interface{}{
			"id":          "p1",
			"description": fmt.Sprintf("Order #%d", order.ID),
		},
	}
	resp, raw = doJSON(t, app, http.MethodPost, "/api/v1/orders/status", "", event)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), `"success":true`)

	// The order is now PAYED.
	resp, raw = doJSON(t, app, http.MethodGet, "/api/v1/orders/by-user", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var orders []models.Order
	assert.NoError(t, json.Unmarshal(raw, &orders))
	assert.Len(t, orders, 1)
	assert.Equal(t, models.StatusPayed, orders[0].Status)
	assert.Equal(t, 1, publisher.count("order.payed"))

	// Redelivery of the same event is acknowledged and changes nothing.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/orders/status", "", event)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, raw = doJSON(t, app, http.MethodGet, "/api/v1/orders/by-user", token, nil)
	assert.NoError(t, json.Unmarshal(raw, &orders))
	assert.Equal(t, models.StatusPayed, orders[0].Status)
	assert.Equal(t, 1, publisher.count("order.payed"))
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	app, _, _, _ := setupApp(t)
	token := registerAndLogin(t, app, "buyer@example.com")

	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/orders", token, map[string]interface{}{
		"items": []map[string]interface{}{},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// No order record was created.
	resp, raw := doJSON(t, app, http.MethodGet, "/api/v1/orders/by-user", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var orders []models.Order
	assert.NoError(t, json.Unmarshal(raw, &orders))
	assert.Empty(t, orders)
}

func TestWebhookCaptureEvent(t *testing.T) {
	app, _, _, provider := setupApp(t)

	resp, raw := doJSON(t, app, http.MethodPost, "/api/v1/orders/status", "", map[string]interface{}{
		"event":  "payment.waiting_for_capture",
		"object": map[string]interface{}{"id": "pay-55"},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var payment models.Payment
	assert.NoError(t, json.Unmarshal(raw, &payment))
	assert.Equal(t, "pay-55", payment.ID)
	assert.True(t, payment.Paid)
	assert.Equal(t, []string{"pay-55"}, provider.captured)
}

func TestWebhookMalformedDescriptionIsAcknowledged(t *testing.T) {
	app, _, _, _ := setupApp(t)

	resp, raw := doJSON(t, app, http.MethodPost, "/api/v1/orders/status", "", map[string]interface{}{
		"event":  "payment.succeeded",
		"object": map[string]interface{}{"id": "p1", "description": "no reference"},
	})
	// Acknowledged so the provider does not retry forever.
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), `"success":false`)
}

func TestWebhookUnknownOrder(t *testing.T) {
	app, _, _, _ := setupApp(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/orders/status", "", map[string]interface{}{
		"event":  "payment.succeeded",
		"object": map[string]interface{}{"id": "p1", "description": "Order #999"},
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWebhookUnknownEventIsNoOp(t *testing.T) {
	app, _, _, _ := setupApp(t)

	resp, raw := doJSON(t, app, http.MethodPost, "/api/v1/orders/status", "", map[string]interface{}{
		"event":  "payment.refund.pending",
		"object": map[string]interface{}{"id": "p1"},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), `"success":true`)
}

func TestCatalogQueries(t *testing.T) {
	app, _, _, _ := setupApp(t)

	t.Run("low price sort", func(t *testing.T) {
		resp, raw := doJSON(t, app, http.MethodGet, "/api/v1/products?sort=low-price", "", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var list models.ProductList
		assert.NoError(t, json.Unmarshal(raw, &list))
		assert.Equal(t, int64(3), list.Length)
		for i := 1; i < len(list.Products); i++ {
			assert.LessOrEqual(t, list.Products[i-1].Price, list.Products[i].Price)
		}
	})

	t.Run("search term filters across name description and category", func(t *testing.T) {
		resp, raw := doJSON(t, app, http.MethodGet, "/api/v1/products?searchTerm=shoe", "", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var list models.ProductList
		assert.NoError(t, json.Unmarshal(raw, &list))
		assert.Equal(t, int64(2), list.Length)
		for _, p := range list.Products {
			assert.NotEqual(t, "Laptop", p.Name)
		}
	})

	t.Run("unrecognized sort degrades to newest first", func(t *testing.T) {
		resp, raw := doJSON(t, app, http.MethodGet, "/api/v1/products?sort=bogus&page=junk", "", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var list models.ProductList
		assert.NoError(t, json.Unmarshal(raw, &list))
		assert.Equal(t, int64(3), list.Length)
		assert.Equal(t, "Laptop", list.Products[0].Name)
	})

	t.Run("by slug", func(t *testing.T) {
		resp, raw := doJSON(t, app, http.MethodGet, "/api/v1/products/by-slug/leather-boots", "", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var product models.Product
		assert.NoError(t, json.Unmarshal(raw, &product))
		assert.Equal(t, "Leather Boots", product.Name)
	})

	t.Run("unknown slug", func(t *testing.T) {
		resp, _ := doJSON(t, app, http.MethodGet, "/api/v1/products/by-slug/nope", "", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestOrderRouteGuards(t *testing.T) {
	app, db, _, _ := setupApp(t)

	// No token at all.
	resp, _ := doJSON(t, app, http.MethodGet, "/api/v1/orders/by-user", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// A regular user cannot list all orders.
	token := registerAndLogin(t, app, "user@example.com")
	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/orders", token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// An admin can.
	adminToken := promoteToAdmin(t, app, db, "admin@example.com")
	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/orders", adminToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// promoteToAdmin registers a user, flips the admin flag directly in the
// database and logs in again so the token carries the admin claim.
func promoteToAdmin(t *testing.T, app *fiber.App, db *gorm.DB, email string) string {
	t.Helper()

	registerAndLogin(t, app, email)
	assert.NoError(t, db.Model(&models.User{}).Where("email = ?", email).Update("is_admin", true).Error)

	creds := map[string]string{"email": email, "password": "password123"}
	resp, raw := doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", creds)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var loginResp struct {
		Token string `json:"token"`
	}
	assert.NoError(t, json.Unmarshal(raw, &loginResp))
	return loginResp.Token
}

func TestAdminCancelOrder(t *testing.T) {
	app, db, publisher, _ := setupApp(t)
	token := registerAndLogin(t, app, "buyer@example.com")

	resp, raw := doJSON(t, app, http.MethodPost, "/api/v1/orders", token, map[string]interface{}{
		"items": []map[string]interface{}{{"product_id": 1, "quantity": 1, "price": 90}},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var order models.Order
	assert.NoError(t, json.Unmarshal(raw, &order))

	// Promote a second account to admin and cancel.
	adminToken := promoteToAdmin(t, app, db, "admin@example.com")

	path := fmt.Sprintf("/api/v1/orders/%d/cancel", order.ID)
	resp, raw = doJSON(t, app, http.MethodPatch, path, adminToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var cancelled models.Order
	assert.NoError(t, json.Unmarshal(raw, &cancelled))
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.Equal(t, 1, publisher.count("order.cancelled"))

	// A succeeded event afterwards must not override the cancellation.
	event := map[string]interface{}{
		"event":  "payment.succeeded",
		"object": map[string]interface{}{"id": "p1", "description": fmt.Sprintf("Order #%d", order.ID)},
	}
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/orders/status", "", event)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, raw = doJSON(t, app, http.MethodGet, "/api/v1/orders/by-user", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var orders []models.Order
	assert.NoError(t, json.Unmarshal(raw, &orders))
	assert.Len(t, orders, 1)
	assert.Equal(t, models.StatusCancelled, orders[0].Status)
}

func TestCreatePaymentForOrder(t *testing.T) {
	app, _, _, _ := setupApp(t)
	token := registerAndLogin(t, app, "buyer@example.com")

	resp, raw := doJSON(t, app, http.MethodPost, "/api/v1/orders", token, map[string]interface{}{
		"items": []map[string]interface{}{{"product_id": 1, "quantity": 2, "price": 500}},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var order models.Order
	assert.NoError(t, json.Unmarshal(raw, &order))

	path := fmt.Sprintf("/api/v1/orders/%d/payment", order.ID)
	resp, raw = doJSON(t, app, http.MethodPost, path, token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var payment models.Payment
	assert.NoError(t, json.Unmarshal(raw, &payment))
	assert.Equal(t, "pay-test", payment.ID)
	assert.Equal(t, fmt.Sprintf("Order #%d", order.ID), payment.Description)
	assert.Equal(t, "1000.00", payment.Amount.Value)

	// Another user cannot create a payment for someone else's order.
	otherToken := registerAndLogin(t, app, "other@example.com")
	resp, _ = doJSON(t, app, http.MethodPost, path, otherToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
