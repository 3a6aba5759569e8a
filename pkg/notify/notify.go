package notify

import "log"

// Event is a fire-and-forget notification. Delivery transport (email,
// WhatsApp) lives behind the Notifier interface; the service never waits on
// or retries a send.
type Event struct {
	Kind      string // payment_verified, payment_review, payment_rejected, project_status
	Recipient string // profile email, may be empty
	Subject   string
	Body      string
}

type Notifier interface {
	Send(e Event)
}

// LogNotifier writes events to the process log. Stands in for the real
// gateway in development and tests.
type LogNotifier struct{}

func (LogNotifier) Send(e Event) {
	log.Printf("notify kind=%s to=%s subject=%q body=%q", e.Kind, e.Recipient, e.Subject, e.Body)
}
