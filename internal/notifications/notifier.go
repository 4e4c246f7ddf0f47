package notifications

import (
	"fmt"

	"github.com/containrrr/shoutrrr/pkg/router"
	"github.com/containrrr/shoutrrr/pkg/types"
	"github.com/sirupsen/logrus"
)

// Notifier fans login events out to the configured Shoutrrr services.
type Notifier struct {
	sr     *router.ServiceRouter
	logger *logrus.Logger
}

// NewNotifier initializes a new Notifier with the provided Shoutrrr URLs.
func NewNotifier(cfg *NotificationConfig, logger *logrus.Logger) (*Notifier, error) {
	if logger == nil {
		logger = logrus.New()
	}
	sr, err := router.New(nil, cfg.ShoutrrrURLs...)
	if err != nil {
		return nil, err
	}
	return &Notifier{sr: sr, logger: logger}, nil
}

// LoginResolved notifies that a provider login completed.
func (n *Notifier) LoginResolved(provider string) {
	n.send("Login resolved", fmt.Sprintf("Login with %s completed", provider))
}

// LoginRejected notifies that a provider login failed.
func (n *Notifier) LoginRejected(provider string, err error) {
	n.send("Login rejected", fmt.Sprintf("Login with %s failed: %v", provider, err))
}

// send delivers a message to all configured services.
func (n *Notifier) send(title, message string) {
	params := types.Params{
		"title": title,
	}
	for _, err := range n.sr.Send(message, &params) {
		if err != nil {
			n.logger.WithError(err).Error("Failed to send notification")
		}
	}
}
