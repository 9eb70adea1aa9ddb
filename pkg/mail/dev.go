package mail

import (
	"github.com/sirupsen/logrus"
)

// DevGateway logs messages instead of sending them. Used outside production
// so that local booking flows work without Resend credentials.
type DevGateway struct {
	logger *logrus.Logger
}

// NewDevGateway creates a logging-only mail gateway
func NewDevGateway(logger *logrus.Logger) *DevGateway {
	return &DevGateway{logger: logger}
}

// Send logs the message and reports success
func (g *DevGateway) Send(msg Message) error {
	g.logger.WithFields(logrus.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info("DEV MODE: email not sent")
	g.logger.Debug(msg.Text)
	return nil
}

// GetName returns the gateway name
func (g *DevGateway) GetName() string {
	return "dev"
}
