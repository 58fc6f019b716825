package models

// Provider event types this core reacts to. Everything else is acknowledged
// as a no-op so the provider stops redelivering.
const (
	EventWaitingForCapture = "payment.waiting_for_capture"
	EventSucceeded         = "payment.succeeded"
)

// PaymentAmount is the provider's money representation.
type PaymentAmount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// PaymentConfirmation carries the redirect flow URLs.
type PaymentConfirmation struct {
	Type            string `json:"type"`
	ReturnURL       string `json:"return_url,omitempty"`
	ConfirmationURL string `json:"confirmation_url,omitempty"`
}

// Payment mirrors the provider's payment object. It is never persisted here;
// the order status is the single source of truth.
type Payment struct {
	ID           string              `json:"id"`
	Status       string              `json:"status"`
	Paid         bool                `json:"paid"`
	Amount       PaymentAmount       `json:"amount"`
	Confirmation PaymentConfirmation `json:"confirmation"`
	Description  string              `json:"description"`
}

// PaymentObject is the payment embedded in a webhook notification. The
// description encodes the order reference as a "#<id>" token.
type PaymentObject struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Description string `json:"description"`
}

// PaymentEvent is the webhook body delivered by the provider. Only the event
// name, object id and description are consumed.
type PaymentEvent struct {
	Event  string        `json:"event"`
	Object PaymentObject `json:"object"`
}
