package handlers

import (
	"errors"
	"log"

	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders and the payment webhook.
type OrderHandler struct {
	orderService   *services.OrderService
	paymentService *services.PaymentService
	validate       *validator.Validate
	returnURL      string
}

// NewOrderHandler creates a new OrderHandler. returnURL is where the provider
// redirects the customer after the payment flow.
func NewOrderHandler(orderService *services.OrderService, paymentService *services.PaymentService, returnURL string) *OrderHandler {
	return &OrderHandler{
		orderService:   orderService,
		paymentService: paymentService,
		validate:       validator.New(),
		returnURL:      returnURL,
	}
}

// RegisterRoutes registers the order routes. The webhook route stays open:
// the provider does not authenticate against us.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, authRequired, adminRequired fiber.Handler) {
	orders := router.Group("/orders")
	orders.Get("/", authRequired, adminRequired, h.HandleGetAllOrders)
	orders.Get("/by-user", authRequired, h.HandleGetOrdersByUser)
	orders.Post("/", authRequired, h.HandlePlaceOrder)
	orders.Post("/status", h.HandlePaymentStatus)
	orders.Post("/:id/payment", authRequired, h.HandleCreatePayment)
	orders.Patch("/:id/cancel", authRequired, adminRequired, h.HandleCancelOrder)
}

// HandleGetAllOrders retrieves all orders (admin only).
func (h *OrderHandler) HandleGetAllOrders(c *fiber.Ctx) error {
	orders, err := h.orderService.GetAll()
	if err != nil {
		log.Printf("Error getting all orders: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve orders",
		})
	}
	return c.JSON(orders)
}

// HandleGetOrdersByUser retrieves the authenticated caller's orders.
func (h *OrderHandler) HandleGetOrdersByUser(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(uint)
	orders, err := h.orderService.GetByUserID(userID)
	if err != nil {
		log.Printf("Error getting orders for user %d: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve orders",
		})
	}
	return c.JSON(orders)
}

// placeOrderRequest is the checkout payload.
type placeOrderRequest struct {
	Items []services.OrderItemInput `json:"items" validate:"required,dive"`
}

// HandlePlaceOrder creates a new order for the authenticated caller.
func (h *OrderHandler) HandlePlaceOrder(c *fiber.Ctx) error {
	var req placeOrderRequest
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

	userID, _ := c.Locals("user_id").(uint)
	order, err := h.orderService.PlaceOrder(userID, req.Items)
	if err != nil {
		if errors.Is(err, models.ErrEmptyOrder) ||
			errors.Is(err, models.ErrInvalidQuantity) ||
			errors.Is(err, models.ErrInvalidItemPrice) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": err.Error(),
			})
		}
		log.Printf("Error creating order: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not create order",
		})
	}
	return c.JSON(order)
}

// HandlePaymentStatus is the provider webhook. Malformed order references are
// logged and acknowledged so the provider's retry logic does not loop on an
// event we will never be able to process.
func (h *OrderHandler) HandlePaymentStatus(c *fiber.Ctx) error {
	var event models.PaymentEvent
	if err := c.BodyParser(&event); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid event body",
		})
	}

	payment, err := h.paymentService.HandleEvent(event)
	if err != nil {
		if errors.Is(err, models.ErrPaymentReference) {
			log.Printf("Unparseable payment event %q: %v", event.Event, err)
			return c.JSON(fiber.Map{"success": false})
		}
		if errors.Is(err, models.ErrOrderNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Order not found",
			})
		}
		log.Printf("Error handling payment event %q: %v", event.Event, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not process payment event",
		})
	}

	if payment != nil {
		return c.JSON(payment)
	}
	return c.JSON(fiber.Map{"success": true})
}

// HandleCreatePayment asks the provider for a payment covering the order.
func (h *OrderHandler) HandleCreatePayment(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid order id",
		})
	}

	userID, _ := c.Locals("user_id").(uint)
	payment, err := h.orderService.CreatePaymentForOrder(id, userID, h.returnURL)
	if err != nil {
		if errors.Is(err, models.ErrOrderNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Order not found",
			})
		}
		log.Printf("Error creating payment for order %d: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not create payment",
		})
	}
	return c.JSON(payment)
}

// HandleCancelOrder cancels a PENDING order (admin only). Orders already in a
// terminal status come back unchanged.
func (h *OrderHandler) HandleCancelOrder(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid order id",
		})
	}

	order, err := h.orderService.CancelOrder(id)
	if err != nil {
		if errors.Is(err, models.ErrOrderNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Order not found",
			})
		}
		log.Printf("Error cancelling order %d: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not cancel order",
		})
	}
	return c.JSON(order)
}
