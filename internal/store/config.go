package store

import (
	"fmt"
	"os"
	"strconv"
)

// StoreConfig holds the store-related configuration.
type StoreConfig struct {
	Type      string
	Path      string
	RedisAddr string
	RedisPass string
	RedisDB   int
}

// LoadStoreConfig loads store configuration from environment variables.
func LoadStoreConfig() (*StoreConfig, error) {
	storeType := os.Getenv("STORE_TYPE")
	if storeType == "" {
		storeType = "bolt"
	}

	config := &StoreConfig{Type: storeType}

	switch storeType {
	case "bolt":
		config.Path = os.Getenv("STORE_PATH")
		if config.Path == "" {
			config.Path = "socialflow.db"
		}
	case "redis":
		config.RedisAddr = os.Getenv("STORE_REDIS_ADDR")
		if config.RedisAddr == "" {
			return nil, fmt.Errorf("STORE_REDIS_ADDR is required for the redis store")
		}
		config.RedisPass = os.Getenv("STORE_REDIS_PASSWORD")
		dbStr := os.Getenv("STORE_REDIS_DB")
		if dbStr == "" {
			config.RedisDB = 0
		} else {
			db, err := strconv.Atoi(dbStr)
			if err != nil {
				return nil, fmt.Errorf("invalid STORE_REDIS_DB value: %v", err)
			}
			config.RedisDB = db
		}
	default:
		return nil, fmt.Errorf("unsupported STORE_TYPE: %s", storeType)
	}

	return config, nil
}
