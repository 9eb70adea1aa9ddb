package payments

// Provider defines the interface for a hosted checkout provider
type Provider interface {
	// CreateSession starts a checkout session and returns the URL the
	// customer should be redirected to.
	CreateSession(params CheckoutParams) (string, error)

	// GetName returns the name of the payment provider implementation
	GetName() string
}
