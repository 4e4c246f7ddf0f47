package relay

import (
	"fmt"
	"os"
	"strconv"
)

// RelayConfig holds the relay-related configuration.
type RelayConfig struct {
	Type      string
	RedisAddr string
	RedisPass string
	RedisDB   int
}

// LoadRelayConfig loads relay configuration from environment variables.
func LoadRelayConfig() (*RelayConfig, error) {
	relayType := os.Getenv("RELAY_TYPE")
	if relayType == "" {
		relayType = "memory"
	}

	config := &RelayConfig{Type: relayType}

	switch relayType {
	case "memory":
	case "redis":
		config.RedisAddr = os.Getenv("RELAY_REDIS_ADDR")
		if config.RedisAddr == "" {
			return nil, fmt.Errorf("RELAY_REDIS_ADDR is required for the redis relay")
		}
		config.RedisPass = os.Getenv("RELAY_REDIS_PASSWORD")
		dbStr := os.Getenv("RELAY_REDIS_DB")
		if dbStr == "" {
			config.RedisDB = 0
		} else {
			db, err := strconv.Atoi(dbStr)
			if err != nil {
				return nil, fmt.Errorf("invalid RELAY_REDIS_DB value: %v", err)
			}
			config.RedisDB = db
		}
	default:
		return nil, fmt.Errorf("unsupported RELAY_TYPE: %s", relayType)
	}

	return config, nil
}
