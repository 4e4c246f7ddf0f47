package flow

import "context"

// CodeRelay bridges the two execution contexts of a popup login: the
// page (or handler) that received the provider's redirect, and the
// controller that opened the popup. The two never call each other
// directly; they share an origin-scoped key-value store with change
// notification.
//
// Keys are provider names and hold only a code value. A key is created
// by the popup side and deleted by the first reader, so delivery is
// at-most-once: no replay, no duplicate resolution.
type CodeRelay interface {
	// Publish writes code under key and notifies the subscriber, if any.
	Publish(ctx context.Context, key, code string) error

	// Subscribe registers a one-shot listener for key. The returned
	// channel delivers at most one code; reading it consumes (deletes)
	// the stored value. cancel unregisters the listener and must be
	// called once the subscription is no longer needed.
	Subscribe(ctx context.Context, key string) (codes <-chan string, cancel func(), err error)
}

// CodeMessage is the payload a relay delivery is normalized into before
// it is handed to the popup flow controller.
type CodeMessage struct {
	Provider string `json:"provider"`
	Type     string `json:"type"`
	Code     string `json:"code"`
}
