package services

import (
	"encoding/json"
	"fmt"
	"log"

	"storefront/internal/models"
	"storefront/internal/repositories"
)

// Publisher is the outbound event stream for order lifecycle notifications.
type Publisher interface {
	Publish(routingKey string, body []byte) error
}

// OrderItemInput is one line of a checkout request. Price is the unit price
// the storefront quoted at cart time; it is captured on the order as-is.
type OrderItemInput struct {
	ProductID uint `json:"product_id" validate:"required"`
	Quantity  int  `json:"quantity" validate:"required"`
	Price     int  `json:"price"`
}

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo repositories.OrderRepository
	provider  PaymentProvider
	publisher Publisher
}

// NewOrderService creates a new OrderService.
func NewOrderService(orderRepo repositories.OrderRepository, provider PaymentProvider, publisher Publisher) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		provider:  provider,
		publisher: publisher,
	}
}

// PlaceOrder validates the cart, computes the total and persists the order
// with its items atomically. The initial status is always PENDING; callers
// cannot supply a payment status at creation.
func (s *OrderService) PlaceOrder(userID uint, items []OrderItemInput) (*models.Order, error) {
	if len(items) == 0 {
		return nil, models.ErrEmptyOrder
	}

	total := 0
	orderItems := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, models.ErrInvalidQuantity
		}
		if item.Price < 0 {
			return nil, models.ErrInvalidItemPrice
		}
		orderItems = append(orderItems, models.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
		total += item.Price * item.Quantity
	}

	order := &models.Order{
		UserID: userID,
		Items:  orderItems,
		Total:  total,
		Status: models.StatusPending,
	}
	if err := s.orderRepo.Create(order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	publishEvent(s.publisher, "order.created", map[string]interface{}{
		"orderID": order.ID,
		"userID":  order.UserID,
		"status":  order.Status,
		"total":   order.Total,
	})

	return order, nil
}

// GetAll retrieves all orders, newest first.
func (s *OrderService) GetAll() ([]models.Order, error) {
	return s.orderRepo.GetAll()
}

// GetByUserID retrieves the orders of one user, newest first.
func (s *OrderService) GetByUserID(userID uint) ([]models.Order, error) {
	return s.orderRepo.GetByUserID(userID)
}

// GetByID retrieves a single order.
func (s *OrderService) GetByID(id uint) (*models.Order, error) {
	return s.orderRepo.GetByID(id)
}

// CancelOrder moves a PENDING order to CANCELLED through the same conditional
// update the payment reconciler uses. Orders already in a terminal status are
// left untouched.
func (s *OrderService) CancelOrder(id uint) (*models.Order, error) {
	if _, err := s.orderRepo.GetByID(id); err != nil {
		return nil, err
	}
	cancelled, err := s.orderRepo.UpdateStatusIf(id, models.StatusPending, models.StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel order %d: %w", id, err)
	}
	if cancelled {
		publishEvent(s.publisher, "order.cancelled", map[string]interface{}{"orderID": id})
	}
	return s.orderRepo.GetByID(id)
}

// CreatePaymentForOrder asks the provider for a new payment covering the
// order total. The payment description carries the "#<id>" reference that the
// provider echoes back in webhook events. This is a follow-up step after
// checkout, not part of PlaceOrder.
func (s *OrderService) CreatePaymentForOrder(orderID, userID uint, returnURL string) (*models.Payment, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, models.ErrOrderNotFound
	}

	payment, err := s.provider.CreatePayment(order.Total, fmt.Sprintf("Order #%d", order.ID), returnURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment for order %d: %w", orderID, err)
	}
	return payment, nil
}

// publishEvent sends a lifecycle notification to the broker. Publication is
// best-effort: a broker failure is logged, never surfaced to the caller.
func publishEvent(publisher Publisher, routingKey string, payload map[string]interface{}) {
	if publisher == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", routingKey, err)
		return
	}
	if err := publisher.Publish(routingKey, body); err != nil {
		log.Printf("Warning: failed to publish %s event: %v", routingKey, err)
	}
}
