package mail

// Message is a single outbound email.
type Message struct {
	To      []string
	Subject string
	Text    string
	HTML    string
}

// Gateway defines the interface for sending email
type Gateway interface {
	// Send delivers a message. Callers treat failures as non-fatal:
	// booking state transitions never roll back on a send error.
	Send(msg Message) error

	// GetName returns the name of the mail gateway implementation
	GetName() string
}
