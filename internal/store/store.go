package store

import (
	"context"
	"errors"
	"time"

	"github.com/y0ug/socialflow/pkg/flow"
)

// ErrNotFound is returned when no login record exists for a provider.
var ErrNotFound = errors.New("login record not found")

// LoginRecord is a resolved login result persisted for later lookup.
type LoginRecord struct {
	Provider   string                 `json:"provider"`
	Data       map[string]interface{} `json:"data"`
	ResolvedAt time.Time              `json:"resolved_at"`
}

// RecordFromResult builds the stored shape of a flow result.
func RecordFromResult(res flow.Result) LoginRecord {
	return LoginRecord{
		Provider:   res.Provider,
		Data:       res.Data,
		ResolvedAt: time.Now(),
	}
}

// Store defines the methods required for login record storage.
type Store interface {
	// Initialize sets up the necessary buckets or structures.
	Initialize(ctx context.Context) error

	Close(ctx context.Context) error

	// SaveLogin stores the latest resolved login for a provider,
	// replacing any previous record.
	SaveLogin(ctx context.Context, record LoginRecord) error

	// GetLogin retrieves the latest login record for a provider.
	GetLogin(ctx context.Context, provider string) (LoginRecord, error)

	// ListLogins retrieves the latest record of every provider.
	ListLogins(ctx context.Context) ([]LoginRecord, error)

	// DeleteLogin removes the record for a provider.
	DeleteLogin(ctx context.Context, provider string) error
}
