package services

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"storefront/internal/models"
	"storefront/internal/repositories"
)

// PaymentProvider is the outbound boundary to the payment gateway.
type PaymentProvider interface {
	CreatePayment(amount int, description, returnURL string) (*models.Payment, error)
	CapturePayment(paymentID string) (*models.Payment, error)
}

// PaymentService reconciles asynchronous provider events against order state.
type PaymentService struct {
	orderRepo repositories.OrderRepository
	provider  PaymentProvider
	publisher Publisher
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(orderRepo repositories.OrderRepository, provider PaymentProvider, publisher Publisher) *PaymentService {
	return &PaymentService{
		orderRepo: orderRepo,
		provider:  provider,
		publisher: publisher,
	}
}

// HandleEvent advances order state from one provider notification. Providers
// deliver at least once, so replaying an event must land on the same end
// state as processing it once.
//
// The returned payment is non-nil only for capture events.
func (s *PaymentService) HandleEvent(event models.PaymentEvent) (*models.Payment, error) {
	switch event.Event {
	case models.EventWaitingForCapture:
		// Capture is a provider-side effect only, no local state changes. The
		// provider treats a repeat capture of a captured payment as a no-op,
		// so there is nothing to deduplicate here.
		payment, err := s.provider.CapturePayment(event.Object.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to capture payment %s: %w", event.Object.ID, err)
		}
		return payment, nil

	case models.EventSucceeded:
		orderID, err := OrderIDFromDescription(event.Object.Description)
		if err != nil {
			return nil, err
		}
		if _, err := s.orderRepo.GetByID(orderID); err != nil {
			return nil, err
		}

		// Compare-and-set: only a PENDING order becomes PAYED. Two redelivered
		// events racing here still produce exactly one transition.
		payed, err := s.orderRepo.UpdateStatusIf(orderID, models.StatusPending, models.StatusPayed)
		if err != nil {
			return nil, fmt.Errorf("failed to mark order %d as payed: %w", orderID, err)
		}
		if !payed {
			// Replayed event, or an order already cancelled: the status is
			// terminal and stays exactly as it is.
			log.Printf("Order %d already in a terminal status, ignoring %s", orderID, event.Event)
			return nil, nil
		}

		publishEvent(s.publisher, "order.payed", map[string]interface{}{
			"orderID":   orderID,
			"paymentID": event.Object.ID,
		})
		return nil, nil
	}

	// Unrecognized events are acknowledged so the provider stops redelivering.
	return nil, nil
}

// OrderIDFromDescription extracts the numeric order reference that follows
// the '#' delimiter in a provider payment description ("Order #42"). The
// provider does not validate this format upstream, so a missing or
// non-numeric token is an expected input class, not a crash.
func OrderIDFromDescription(description string) (uint, error) {
	_, after, found := strings.Cut(description, "#")
	if !found {
		return 0, models.ErrPaymentReference
	}

	end := 0
	for end < len(after) && after[end] >= '0' && after[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, models.ErrPaymentReference
	}

	id, err := strconv.ParseUint(after[:end], 10, 32)
	if err != nil {
		return 0, models.ErrPaymentReference
	}
	return uint(id), nil
}
