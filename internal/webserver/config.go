package webserver

import (
	"os"
	"strings"
)

// WebserverConfig holds the configuration for the webserver.
type WebserverConfig struct {
	ListenTo           string
	CorsAllowedOrigins []string
	ProxyAllowedHosts  []string
}

// NewWebserverConfig initializes the webserver configuration from
// environment variables.
func NewWebserverConfig() (*WebserverConfig, error) {
	config := &WebserverConfig{}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	config.ListenTo = ":" + port

	corsAllowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if corsAllowedOrigins != "" {
		config.CorsAllowedOrigins = strings.Split(corsAllowedOrigins, ",")
	}

	proxyAllowedHosts := os.Getenv("PROXY_ALLOWED_HOSTS")
	if proxyAllowedHosts != "" {
		config.ProxyAllowedHosts = strings.Split(proxyAllowedHosts, ",")
	}

	return config, nil
}

// ProxyTargetAllowed reports whether the egress proxy may forward to
// host. An empty allow list permits any https target.
func (c *WebserverConfig) ProxyTargetAllowed(host string) bool {
	if len(c.ProxyAllowedHosts) == 0 {
		return true
	}
	for _, allowed := range c.ProxyAllowedHosts {
		if strings.EqualFold(strings.TrimSpace(allowed), host) {
			return true
		}
	}
	return false
}
