package notifications

import (
	"os"
	"strings"
)

// NotificationConfig holds the notification-related configuration.
type NotificationConfig struct {
	ShoutrrrURLs []string
}

// LoadNotificationConfig loads notification configuration from
// environment variables. An empty SHOUTRRR_URLS disables notifications.
func LoadNotificationConfig() *NotificationConfig {
	return &NotificationConfig{
		ShoutrrrURLs: parseShoutrrrURLs(os.Getenv("SHOUTRRR_URLS")),
	}
}

// Enabled reports whether any notification service is configured.
func (c *NotificationConfig) Enabled() bool {
	return len(c.ShoutrrrURLs) > 0
}

// parseShoutrrrURLs parses a comma-separated list of Shoutrrr URLs.
func parseShoutrrrURLs(urls string) []string {
	var result []string
	for _, url := range strings.Split(urls, ",") {
		trimmed := strings.TrimSpace(url)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
